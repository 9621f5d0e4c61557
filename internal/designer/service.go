package designer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kartlane/storefront-backend/internal/tokens"
	"github.com/kartlane/storefront-backend/pkg/db/models"
	"github.com/kartlane/storefront-backend/pkg/enums"
	pkgerrors "github.com/kartlane/storefront-backend/pkg/errors"
	"github.com/kartlane/storefront-backend/pkg/logger"
	"github.com/kartlane/storefront-backend/pkg/metrics"
	"github.com/kartlane/storefront-backend/pkg/openrouter"
	"github.com/kartlane/storefront-backend/pkg/pagination"
)

// summaryMaxLen caps the response summary stored on history rows.
const summaryMaxLen = 280

// ModelClient is the chat-completion surface the orchestrator depends on.
type ModelClient interface {
	Complete(ctx context.Context, systemPrompt string, messages []openrouter.Message) (string, error)
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service orchestrates the metered design-generation pipeline.
type Service interface {
	Generate(ctx context.Context, input GenerateInput) (*GenerateResult, error)
	ApplyDesign(ctx context.Context, storeID, historyID uuid.UUID) (*models.StoreDesignState, error)
	ResetDesign(ctx context.Context, storeID uuid.UUID) error
	GetDesign(ctx context.Context, storeID uuid.UUID) (*DesignPayload, bool, error)
	ListHistory(ctx context.Context, storeID uuid.UUID, params pagination.Params) (*HistoryPage, error)
}

// ServiceParams wires the dependencies of the designer service.
type ServiceParams struct {
	Repo    Repository
	Tokens  tokens.Service
	Model   ModelClient
	Tx      TxRunner
	Logger  *logger.Logger
	Metrics *metrics.CoreMetrics
	Now     func() time.Time
}

type service struct {
	repo    Repository
	tokens  tokens.Service
	model   ModelClient
	tx      TxRunner
	logger  *logger.Logger
	metrics *metrics.CoreMetrics
	now     func() time.Time
}

// NewService validates dependencies and builds the designer service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("designer repository required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token ledger required")
	}
	if params.Model == nil {
		return nil, fmt.Errorf("model client required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    params.Repo,
		tokens:  params.Tokens,
		model:   params.Model,
		tx:      params.Tx,
		logger:  params.Logger,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

// GenerateInput is one design-chat turn.
type GenerateInput struct {
	StoreID uuid.UUID            `json:"store_id"`
	UserID  uuid.UUID            `json:"user_id"`
	Prompt  string               `json:"prompt" validate:"required"`
	History []openrouter.Message `json:"history,omitempty"`
}

// GenerateResult is the orchestrator's reply. HistoryID and Design are set
// only for design replies; text replies consume no token.
type GenerateResult struct {
	Type            enums.DesignReplyType `json:"type"`
	Message         string                `json:"message"`
	HistoryID       *uuid.UUID            `json:"history_id,omitempty"`
	Design          *DesignPayload        `json:"design,omitempty"`
	BlockedPatterns []string              `json:"blocked_patterns,omitempty"`
	TokensRemaining int                   `json:"tokens_remaining"`
}

// HistoryPage is one page of generation history.
type HistoryPage struct {
	Entries    []models.DesignHistoryEntry `json:"entries"`
	NextCursor string                      `json:"next_cursor,omitempty"`
}

// modelReply is the tagged union the model must produce.
type modelReply struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Design  *DesignPayload `json:"design,omitempty"`
}

// Generate runs one design-chat turn: gate on the token balance, call the
// model, validate and clean the reply, and for design replies persist history
// and the token debit in a single transaction.
func (s *service) Generate(ctx context.Context, input GenerateInput) (*GenerateResult, error) {
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if strings.TrimSpace(input.Prompt) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prompt is required")
	}

	// Gate before spending anything on the model. The actual debit happens
	// only after a design reply survives validation.
	balance, err := s.tokens.Balance(ctx, input.StoreID)
	if err != nil {
		return nil, err
	}
	if balance.Tokens <= 0 {
		s.metrics.IncGeneration("insufficient_tokens")
		return nil, pkgerrors.New(pkgerrors.CodePaymentRequired, "no design tokens remaining")
	}

	state, err := s.repo.GetDesignState(ctx, input.StoreID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading design state")
	}
	var current json.RawMessage
	if state != nil {
		current = state.Design
	}

	messages := make([]openrouter.Message, 0, len(input.History)+1)
	messages = append(messages, input.History...)
	messages = append(messages, openrouter.Message{Role: "user", Content: input.Prompt})

	content, err := s.model.Complete(ctx, buildSystemPrompt(current), messages)
	if err != nil {
		s.metrics.IncGeneration("upstream_error")
		return nil, err
	}

	reply, err := parseReply(content)
	if err != nil {
		s.metrics.IncGeneration("malformed")
		return nil, err
	}

	if reply.Type == string(enums.DesignReplyText) {
		s.metrics.IncGeneration("text")
		return &GenerateResult{
			Type:            enums.DesignReplyText,
			Message:         reply.Message,
			TokensRemaining: balance.Tokens,
		}, nil
	}

	cleaned, blocked := sanitizePayload(*reply.Design)
	raw, err := marshalPayload(cleaned)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding design payload")
	}
	if len(blocked) > 0 && s.logger != nil {
		s.logger.Warn(s.logger.WithStoreID(ctx, input.StoreID.String()),
			fmt.Sprintf("blocked css patterns stripped from generated design: %s", strings.Join(blocked, ", ")))
	}

	entry := &models.DesignHistoryEntry{
		StoreID:         input.StoreID,
		UserID:          input.UserID,
		Prompt:          input.Prompt,
		ResponseSummary: summarize(reply.Message),
		Design:          raw,
		CSSOverrides:    cleaned.CSSOverrides,
		BlockedPatterns: blocked,
		TokensUsed:      1,
	}

	var remaining int
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		debit, err := s.tokens.Debit(ctx, tx, input.StoreID)
		if err != nil {
			return err
		}
		remaining = debit.Remaining
		return s.repo.WithTx(tx).CreateHistory(ctx, entry)
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording design generation")
	}

	s.metrics.IncGeneration("design")
	historyID := entry.ID
	return &GenerateResult{
		Type:            enums.DesignReplyDesign,
		Message:         reply.Message,
		HistoryID:       &historyID,
		Design:          &cleaned,
		BlockedPatterns: blocked,
		TokensRemaining: remaining,
	}, nil
}

// ApplyDesign copies a history entry's payload into the store's design state.
// The payload is re-sanitized on the way in; history rows written before a
// pattern was added to the blocklist must not smuggle it through.
func (s *service) ApplyDesign(ctx context.Context, storeID, historyID uuid.UUID) (*models.StoreDesignState, error) {
	if storeID == uuid.Nil || historyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id and history id are required")
	}

	entry, err := s.repo.GetHistoryByID(ctx, storeID, historyID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "design history entry not found")
	}

	var payload DesignPayload
	if err := json.Unmarshal(entry.Design, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding stored design")
	}
	cleaned, _ := sanitizePayload(payload)
	raw, err := marshalPayload(cleaned)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding design payload")
	}

	state := &models.StoreDesignState{
		StoreID:       storeID,
		Design:        raw,
		LastAppliedAt: s.now(),
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpsertDesignState(ctx, state); err != nil {
			return err
		}
		return repo.MarkApplied(ctx, storeID, historyID)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying design")
	}
	return state, nil
}

// ResetDesign reverts the store to platform defaults. Resetting a store that
// never applied a design is a no-op.
func (s *service) ResetDesign(ctx context.Context, storeID uuid.UUID) error {
	if storeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if err := s.repo.DeleteDesignState(ctx, storeID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resetting design")
	}
	return nil
}

// GetDesign returns the applied design, or platform defaults when none has
// been applied. The boolean reports which one it is.
func (s *service) GetDesign(ctx context.Context, storeID uuid.UUID) (*DesignPayload, bool, error) {
	if storeID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	state, err := s.repo.GetDesignState(ctx, storeID)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading design state")
	}
	if state == nil {
		defaults := platformDefaults
		return &defaults, false, nil
	}

	var payload DesignPayload
	if err := json.Unmarshal(state.Design, &payload); err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding stored design")
	}
	return &payload, true, nil
}

func (s *service) ListHistory(ctx context.Context, storeID uuid.UUID, params pagination.Params) (*HistoryPage, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	entries, err := s.repo.ListHistory(ctx, storeID, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing design history")
	}

	page := &HistoryPage{}
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	page.Entries = entries
	return page, nil
}

// parseReply extracts and validates the tagged union the model must return.
func parseReply(content string) (*modelReply, error) {
	span := extractJSONSpan(content)
	if span == "" {
		return nil, pkgerrors.New(pkgerrors.CodeBadUpstream, "model response contained no JSON object")
	}

	var reply modelReply
	if err := json.Unmarshal([]byte(span), &reply); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBadUpstream, err, "model response is not valid JSON")
	}

	replyType, err := enums.ParseDesignReplyType(reply.Type)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeBadUpstream, err.Error())
	}
	if replyType == enums.DesignReplyDesign && reply.Design == nil {
		return nil, pkgerrors.New(pkgerrors.CodeBadUpstream, "design reply carries no design payload")
	}
	return &reply, nil
}

func summarize(message string) string {
	message = strings.TrimSpace(message)
	if len(message) <= summaryMaxLen {
		return message
	}
	return message[:summaryMaxLen]
}
