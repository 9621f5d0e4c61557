package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kartlane/storefront-backend/pkg/enums"
)

// DiscountTier is one step of a tiered_value rule's schedule. Tiers are read
// in ascending min_order_value; the highest qualifying tier wins.
type DiscountTier struct {
	ID            uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RuleID        uuid.UUID          `gorm:"column:rule_id;type:uuid;not null;index"`
	MinOrderValue decimal.Decimal    `gorm:"column:min_order_value;type:numeric(12,2);not null"`
	DiscountType  enums.DiscountType `gorm:"column:discount_type;type:discount_value_type;not null"`
	DiscountValue decimal.Decimal    `gorm:"column:discount_value;type:numeric(12,2);not null"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
}
