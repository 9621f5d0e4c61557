package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kartlane/storefront-backend/pkg/enums"
)

// TokenPurchase is one batch of AI designer tokens bought by a store.
// Created pending on payment initiation, activated on verified payment,
// decremented one token per metered design call, expired and eventually
// deleted once expires_at passes.
type TokenPurchase struct {
	ID               uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID          uuid.UUID            `gorm:"column:store_id;type:uuid;not null;index"`
	Tokens           int                  `gorm:"column:tokens;not null"`
	TokensRemaining  int                  `gorm:"column:tokens_remaining;not null"`
	TokensUsed       int                  `gorm:"column:tokens_used;not null;default:0"`
	Status           enums.PurchaseStatus `gorm:"column:status;type:token_purchase_status;not null;default:'pending'"`
	AmountPaise      int64                `gorm:"column:amount_paise;not null"`
	GatewayOrderID   *string              `gorm:"column:gateway_order_id;unique"`
	GatewayPaymentID *string              `gorm:"column:gateway_payment_id"`
	ExpiresAt        *time.Time           `gorm:"column:expires_at;index"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the legacy table name used by the platform schema.
func (TokenPurchase) TableName() string {
	return "ai_token_purchases"
}
