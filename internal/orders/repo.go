package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kartlane/storefront-backend/pkg/db/models"
)

// Repository manages persistence for store orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	ExistsForCustomer(ctx context.Context, storeID uuid.UUID, phone, email string) (bool, error)
	CountByStore(ctx context.Context, storeID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// ExistsForCustomer reports whether any prior order in the store matches the
// customer's phone or email. Empty identifiers are ignored rather than
// matched against NULL columns.
func (r *repository) ExistsForCustomer(ctx context.Context, storeID uuid.UUID, phone, email string) (bool, error) {
	if phone == "" && email == "" {
		return false, nil
	}

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("store_id = ?", storeID)

	switch {
	case phone != "" && email != "":
		query = query.Where("customer_phone = ? OR customer_email = ?", phone, email)
	case phone != "":
		query = query.Where("customer_phone = ?", phone)
	default:
		query = query.Where("customer_email = ?", email)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) CountByStore(ctx context.Context, storeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("store_id = ?", storeID).
		Count(&count).Error
	return count, err
}
