package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kartlane/storefront-backend/api/responses"
	"github.com/kartlane/storefront-backend/api/validators"
	paymentsvc "github.com/kartlane/storefront-backend/internal/payments"
	tokensvc "github.com/kartlane/storefront-backend/internal/tokens"
	"github.com/kartlane/storefront-backend/pkg/db/models"
	"github.com/kartlane/storefront-backend/pkg/enums"
	"github.com/kartlane/storefront-backend/pkg/logger"
)

// TokenBalance reports the store's usable token count.
func TokenBalance(svc tokensvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.Balance(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, balance)
	}
}

// TokenPurchaseInitiate registers a gateway order for a token pack.
func TokenPurchaseInitiate(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentsvc.InitiatePurchaseInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.InitiatePurchase(r.Context(), storeID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// TokenPurchaseConfirm settles a pending purchase from the gateway callback.
func TokenPurchaseConfirm(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentsvc.ConfirmPurchaseInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purchase, err := svc.ConfirmPurchase(r.Context(), storeID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPurchaseResponse(purchase))
	}
}

type purchaseResponse struct {
	ID              uuid.UUID            `json:"id"`
	Tokens          int                  `json:"tokens"`
	TokensRemaining int                  `json:"tokens_remaining"`
	Status          enums.PurchaseStatus `json:"status"`
	AmountPaise     int64                `json:"amount_paise"`
	ExpiresAt       *time.Time           `json:"expires_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

func newPurchaseResponse(purchase *models.TokenPurchase) purchaseResponse {
	return purchaseResponse{
		ID:              purchase.ID,
		Tokens:          purchase.Tokens,
		TokensRemaining: purchase.TokensRemaining,
		Status:          purchase.Status,
		AmountPaise:     purchase.AmountPaise,
		ExpiresAt:       purchase.ExpiresAt,
		CreatedAt:       purchase.CreatedAt,
	}
}
