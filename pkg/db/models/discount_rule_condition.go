package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kartlane/storefront-backend/pkg/enums"
)

// DiscountRuleCondition parameterizes a non-tiered rule. The meaning of
// rule_value depends on the parent rule_type: a category id for category
// rules, a minimum line-quantity for quantity rules, unused for
// customer-status rules.
type DiscountRuleCondition struct {
	ID            uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RuleID        uuid.UUID          `gorm:"column:rule_id;type:uuid;not null;index"`
	RuleValue     string             `gorm:"column:rule_value;not null;default:''"`
	DiscountType  enums.DiscountType `gorm:"column:discount_type;type:discount_value_type;not null"`
	DiscountValue decimal.Decimal    `gorm:"column:discount_value;type:numeric(12,2);not null"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
}
