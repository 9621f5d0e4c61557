package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	paymentsvc "github.com/kartlane/storefront-backend/internal/payments"
	tokensvc "github.com/kartlane/storefront-backend/internal/tokens"
	"github.com/kartlane/storefront-backend/pkg/db/models"
	"github.com/kartlane/storefront-backend/pkg/enums"
	pkgerrors "github.com/kartlane/storefront-backend/pkg/errors"
)

type stubTokenService struct {
	balance *tokensvc.BalanceResult
	err     error
}

func (s stubTokenService) Balance(ctx context.Context, storeID uuid.UUID) (*tokensvc.BalanceResult, error) {
	return s.balance, s.err
}

func (s stubTokenService) Debit(ctx context.Context, tx *gorm.DB, storeID uuid.UUID) (*tokensvc.DebitResult, error) {
	return nil, s.err
}

func (s stubTokenService) Sweep(ctx context.Context) (tokensvc.SweepResult, error) {
	return tokensvc.SweepResult{}, s.err
}

type stubPaymentService struct {
	initiate *paymentsvc.InitiateResult
	purchase *models.TokenPurchase
	err      error
}

func (s stubPaymentService) InitiatePurchase(ctx context.Context, storeID uuid.UUID, input paymentsvc.InitiatePurchaseInput) (*paymentsvc.InitiateResult, error) {
	return s.initiate, s.err
}

func (s stubPaymentService) ConfirmPurchase(ctx context.Context, storeID uuid.UUID, input paymentsvc.ConfirmPurchaseInput) (*models.TokenPurchase, error) {
	return s.purchase, s.err
}

func TestTokenBalanceSuccess(t *testing.T) {
	expiry := time.Now().Add(48 * time.Hour).UTC()
	handler := TokenBalance(stubTokenService{balance: &tokensvc.BalanceResult{Tokens: 12, NextExpiresAt: &expiry}}, nil)

	req := requestWithStore(http.MethodGet, "/api/v1/tokens/balance", "", uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data tokensvc.BalanceResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Tokens != 12 || envelope.Data.NextExpiresAt == nil {
		t.Fatalf("unexpected balance: %+v", envelope.Data)
	}
}

func TestTokenBalanceMissingStoreContext(t *testing.T) {
	handler := TokenBalance(stubTokenService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tokens/balance", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestTokenPurchaseInitiateSuccess(t *testing.T) {
	result := &paymentsvc.InitiateResult{
		PurchaseID:     uuid.New(),
		GatewayOrderID: "order_123",
		GatewayKeyID:   "rzp_test_key",
		AmountPaise:    49900,
		Tokens:         50,
	}
	handler := TokenPurchaseInitiate(stubPaymentService{initiate: result}, nil)

	req := requestWithStore(http.MethodPost, "/api/v1/tokens/purchases", `{"tokens":50,"amount_paise":49900}`, uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data paymentsvc.InitiateResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.GatewayOrderID != "order_123" {
		t.Fatalf("unexpected gateway order: %s", envelope.Data.GatewayOrderID)
	}
}

func TestTokenPurchaseInitiateValidation(t *testing.T) {
	handler := TokenPurchaseInitiate(stubPaymentService{}, nil)

	req := requestWithStore(http.MethodPost, "/api/v1/tokens/purchases", `{"tokens":0}`, uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestTokenPurchaseConfirmSuccess(t *testing.T) {
	expiry := time.Now().Add(90 * 24 * time.Hour).UTC()
	purchase := &models.TokenPurchase{
		ID:              uuid.New(),
		Tokens:          50,
		TokensRemaining: 50,
		Status:          enums.PurchaseStatusActive,
		AmountPaise:     49900,
		ExpiresAt:       &expiry,
	}
	handler := TokenPurchaseConfirm(stubPaymentService{purchase: purchase}, nil)

	body := `{"gateway_order_id":"order_123","gateway_payment_id":"pay_456","signature":"sig"}`
	req := requestWithStore(http.MethodPost, "/api/v1/tokens/purchases/confirm", body, uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data purchaseResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != enums.PurchaseStatusActive || envelope.Data.ExpiresAt == nil {
		t.Fatalf("unexpected purchase: %+v", envelope.Data)
	}
}

func TestTokenPurchaseConfirmBadSignature(t *testing.T) {
	handler := TokenPurchaseConfirm(stubPaymentService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "signature mismatch")}, nil)

	body := `{"gateway_order_id":"order_123","gateway_payment_id":"pay_456","signature":"bad"}`
	req := requestWithStore(http.MethodPost, "/api/v1/tokens/purchases/confirm", body, uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
