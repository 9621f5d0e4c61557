package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kartlane/storefront-backend/api/responses"
	"github.com/kartlane/storefront-backend/api/validators"
	designersvc "github.com/kartlane/storefront-backend/internal/designer"
	"github.com/kartlane/storefront-backend/pkg/db/models"
	"github.com/kartlane/storefront-backend/pkg/logger"
	"github.com/kartlane/storefront-backend/pkg/openrouter"
	"github.com/kartlane/storefront-backend/pkg/pagination"
)

// DesignerGenerate runs one design-chat turn.
func DesignerGenerate(svc designersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload generateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Generate(r.Context(), designersvc.GenerateInput{
			StoreID: storeID,
			UserID:  userID,
			Prompt:  payload.Prompt,
			History: payload.toMessages(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// DesignApply promotes a generated design to the live storefront.
func DesignApply(svc designersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		historyID, err := validators.ParseUUIDParam(r, "historyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := svc.ApplyDesign(r.Context(), storeID, historyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newDesignStateResponse(state))
	}
}

// DesignReset restores the platform default design.
func DesignReset(svc designersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ResetDesign(r.Context(), storeID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "reset"})
	}
}

// DesignFetch returns the live design, falling back to platform defaults.
func DesignFetch(svc designersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		design, applied, err := svc.GetDesign(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"design":  design,
			"applied": applied,
		})
	}
}

// DesignerHistory pages through past generations, newest first.
func DesignerHistory(svc designersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListHistory(r.Context(), storeID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries := make([]historyEntryResponse, len(page.Entries))
		for i := range page.Entries {
			entries[i] = newHistoryEntryResponse(&page.Entries[i])
		}
		responses.WriteSuccess(w, historyPageResponse{
			Entries:    entries,
			NextCursor: page.NextCursor,
		})
	}
}

type generateRequest struct {
	Prompt  string           `json:"prompt" validate:"required"`
	History []historyMessage `json:"history" validate:"dive"`
}

type historyMessage struct {
	Role    string `json:"role" validate:"required"`
	Content string `json:"content" validate:"required"`
}

func (r generateRequest) toMessages() []openrouter.Message {
	messages := make([]openrouter.Message, len(r.History))
	for i, msg := range r.History {
		messages[i] = openrouter.Message{Role: msg.Role, Content: msg.Content}
	}
	return messages
}

type designStateResponse struct {
	StoreID       uuid.UUID       `json:"store_id"`
	Design        json.RawMessage `json:"design"`
	LastAppliedAt time.Time       `json:"last_applied_at"`
}

func newDesignStateResponse(state *models.StoreDesignState) designStateResponse {
	return designStateResponse{
		StoreID:       state.StoreID,
		Design:        state.Design,
		LastAppliedAt: state.LastAppliedAt,
	}
}

type historyEntryResponse struct {
	ID              uuid.UUID       `json:"id"`
	Prompt          string          `json:"prompt"`
	ResponseSummary string          `json:"response_summary"`
	Design          json.RawMessage `json:"design"`
	BlockedPatterns []string        `json:"blocked_patterns,omitempty"`
	TokensUsed      int             `json:"tokens_used"`
	Applied         bool            `json:"applied"`
	CreatedAt       time.Time       `json:"created_at"`
}

type historyPageResponse struct {
	Entries    []historyEntryResponse `json:"entries"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

func newHistoryEntryResponse(entry *models.DesignHistoryEntry) historyEntryResponse {
	return historyEntryResponse{
		ID:              entry.ID,
		Prompt:          entry.Prompt,
		ResponseSummary: entry.ResponseSummary,
		Design:          entry.Design,
		BlockedPatterns: entry.BlockedPatterns,
		TokensUsed:      entry.TokensUsed,
		Applied:         entry.Applied,
		CreatedAt:       entry.CreatedAt,
	}
}
