package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kartlane/storefront-backend/internal/tokens"
	"github.com/kartlane/storefront-backend/pkg/config"
	"github.com/kartlane/storefront-backend/pkg/db/models"
	"github.com/kartlane/storefront-backend/pkg/enums"
	pkgerrors "github.com/kartlane/storefront-backend/pkg/errors"
	"github.com/kartlane/storefront-backend/pkg/logger"
	"github.com/kartlane/storefront-backend/pkg/razorpay"
)

// capturedStatus is the gateway payment state that settles a purchase.
const capturedStatus = "captured"

// Gateway is the payment provider surface the purchase flow depends on.
type Gateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*razorpay.Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*razorpay.Payment, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// Service drives the token purchase lifecycle against the payment gateway.
type Service interface {
	InitiatePurchase(ctx context.Context, storeID uuid.UUID, input InitiatePurchaseInput) (*InitiateResult, error)
	ConfirmPurchase(ctx context.Context, storeID uuid.UUID, input ConfirmPurchaseInput) (*models.TokenPurchase, error)
}

// ServiceParams wires the dependencies of the payments service.
type ServiceParams struct {
	TokensRepo tokens.Repository
	Gateway    Gateway
	Config     config.DesignerConfig
	Logger     *logger.Logger
	Now        func() time.Time
}

type service struct {
	tokensRepo tokens.Repository
	gateway    Gateway
	cfg        config.DesignerConfig
	logger     *logger.Logger
	now        func() time.Time
}

// NewService validates dependencies and builds the payments service.
func NewService(params ServiceParams) (Service, error) {
	if params.TokensRepo == nil {
		return nil, fmt.Errorf("tokens repository required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		tokensRepo: params.TokensRepo,
		gateway:    params.Gateway,
		cfg:        params.Config,
		logger:     params.Logger,
		now:        now,
	}, nil
}

// InitiatePurchaseInput selects the token pack being bought.
type InitiatePurchaseInput struct {
	Tokens      int   `json:"tokens" validate:"required,min=1"`
	AmountPaise int64 `json:"amount_paise" validate:"required,min=100"`
}

// InitiateResult carries what the storefront checkout form needs.
type InitiateResult struct {
	PurchaseID     uuid.UUID `json:"purchase_id"`
	GatewayOrderID string    `json:"gateway_order_id"`
	GatewayKeyID   string    `json:"gateway_key_id"`
	AmountPaise    int64     `json:"amount_paise"`
	Tokens         int       `json:"tokens"`
}

// ConfirmPurchaseInput carries the gateway callback parameters.
type ConfirmPurchaseInput struct {
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	Signature        string `json:"signature" validate:"required"`
}

// InitiatePurchase registers a gateway order and records the purchase as
// pending. Pendings that are never confirmed are purged by the ledger sweep.
func (s *service) InitiatePurchase(ctx context.Context, storeID uuid.UUID, input InitiatePurchaseInput) (*InitiateResult, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if input.Tokens <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token count must be positive")
	}
	if input.AmountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	receipt := fmt.Sprintf("tokens-%s-%d", storeID.String()[:8], s.now().Unix())
	order, err := s.gateway.CreateOrder(ctx, input.AmountPaise, "INR", receipt, map[string]string{
		"store_id": storeID.String(),
		"tokens":   fmt.Sprintf("%d", input.Tokens),
	})
	if err != nil {
		return nil, err
	}

	purchase := &models.TokenPurchase{
		StoreID:         storeID,
		Tokens:          input.Tokens,
		TokensRemaining: input.Tokens,
		Status:          enums.PurchaseStatusPending,
		AmountPaise:     input.AmountPaise,
		GatewayOrderID:  &order.ID,
	}
	if err := s.tokensRepo.Create(ctx, purchase); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording pending purchase")
	}

	if s.logger != nil {
		s.logger.Info(s.logger.WithStoreID(ctx, storeID.String()),
			fmt.Sprintf("token purchase initiated: %d tokens, order %s", input.Tokens, order.ID))
	}

	return &InitiateResult{
		PurchaseID:     purchase.ID,
		GatewayOrderID: order.ID,
		GatewayKeyID:   s.gateway.KeyID(),
		AmountPaise:    input.AmountPaise,
		Tokens:         input.Tokens,
	}, nil
}

// ConfirmPurchase verifies the checkout signature, re-reads the payment from
// the gateway, and activates the pending purchase with its validity window.
func (s *service) ConfirmPurchase(ctx context.Context, storeID uuid.UUID, input ConfirmPurchaseInput) (*models.TokenPurchase, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if input.GatewayOrderID == "" || input.GatewayPaymentID == "" || input.Signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id, payment id and signature are required")
	}

	if !s.gateway.VerifySignature(input.GatewayOrderID, input.GatewayPaymentID, input.Signature) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "payment signature verification failed")
	}

	purchase, err := s.tokensRepo.GetByGatewayOrderID(ctx, input.GatewayOrderID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found for gateway order")
	}
	if purchase.StoreID != storeID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "purchase belongs to another store")
	}
	if purchase.Status != enums.PurchaseStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("purchase is %s, only pending purchases can be confirmed", purchase.Status))
	}

	payment, err := s.gateway.FetchPayment(ctx, input.GatewayPaymentID)
	if err != nil {
		return nil, err
	}
	if payment.OrderID != input.GatewayOrderID {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment does not belong to this order")
	}
	if payment.Status != capturedStatus {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment is %s, expected %s", payment.Status, capturedStatus))
	}
	if payment.Amount != purchase.AmountPaise {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment amount does not match the purchase")
	}

	expiresAt := s.now().Add(s.cfg.TokenValidity())
	if err := s.tokensRepo.Activate(ctx, purchase.ID, input.GatewayPaymentID, expiresAt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "activating purchase")
	}

	purchase.Status = enums.PurchaseStatusActive
	purchase.GatewayPaymentID = &input.GatewayPaymentID
	purchase.ExpiresAt = &expiresAt

	if s.logger != nil {
		s.logger.Info(s.logger.WithStoreID(ctx, storeID.String()),
			fmt.Sprintf("token purchase activated: %d tokens, expires %s", purchase.Tokens, expiresAt.Format(time.RFC3339)))
	}
	return purchase, nil
}
