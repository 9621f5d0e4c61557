package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kartlane/storefront-backend/pkg/enums"
)

// DiscountRule is an automatic discount configured by a store owner. A rule
// participates in checkout evaluation only while active and inside its
// [start_date, expiry_date) window.
type DiscountRule struct {
	ID         uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID    uuid.UUID        `gorm:"column:store_id;type:uuid;not null;index"`
	Name       string           `gorm:"column:name;not null"`
	RuleType   enums.RuleType   `gorm:"column:rule_type;type:discount_rule_type;not null"`
	OrderType  enums.OrderType  `gorm:"column:order_type;type:discount_order_type;not null;default:'all'"`
	Status     enums.RuleStatus `gorm:"column:status;type:discount_rule_status;not null;default:'active'"`
	StartDate  time.Time        `gorm:"column:start_date;not null"`
	ExpiryDate time.Time        `gorm:"column:expiry_date;not null"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`

	Tiers      []DiscountTier          `gorm:"foreignKey:RuleID"`
	Conditions []DiscountRuleCondition `gorm:"foreignKey:RuleID"`
}

// ActiveAt reports whether the rule's date window covers the given instant.
func (r DiscountRule) ActiveAt(now time.Time) bool {
	return !now.Before(r.StartDate) && now.Before(r.ExpiryDate)
}
