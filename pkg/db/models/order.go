package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kartlane/storefront-backend/pkg/enums"
)

// Order is the minimal order record the core consults for customer-history
// lookups. Fulfillment fields live with the out-of-scope checkout service.
type Order struct {
	ID            uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID       uuid.UUID           `gorm:"column:store_id;type:uuid;not null;index"`
	CustomerPhone *string             `gorm:"column:customer_phone;index"`
	CustomerEmail *string             `gorm:"column:customer_email;index"`
	Total         decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	Discount      decimal.Decimal     `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:order_payment_method;not null"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}
