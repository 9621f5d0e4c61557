package discounts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kartlane/storefront-backend/pkg/db/models"
	"github.com/kartlane/storefront-backend/pkg/enums"
)

// Repository manages persistence for discount rules.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, rule *models.DiscountRule) error
	GetByID(ctx context.Context, storeID, ruleID uuid.UUID) (*models.DiscountRule, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.DiscountRule, error)
	ListActiveRules(ctx context.Context, storeID uuid.UUID, now time.Time) ([]models.DiscountRule, error)
	UpdateStatus(ctx context.Context, storeID, ruleID uuid.UUID, status enums.RuleStatus) error
	Delete(ctx context.Context, storeID, ruleID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// NewRepository returns a discounts repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, rule *models.DiscountRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *repository) GetByID(ctx context.Context, storeID, ruleID uuid.UUID) (*models.DiscountRule, error) {
	var rule models.DiscountRule
	err := r.db.WithContext(ctx).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_order_value ASC")
		}).
		Preload("Conditions").
		Where("store_id = ? AND id = ?", storeID, ruleID).
		First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *repository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.DiscountRule, error) {
	var rules []models.DiscountRule
	err := r.db.WithContext(ctx).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_order_value ASC")
		}).
		Preload("Conditions").
		Where("store_id = ?", storeID).
		Order("created_at ASC, id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// ListActiveRules loads the rules eligible for evaluation at the given
// instant. Ordering by creation time then id keeps tie-breaking between
// equal discounts deterministic.
func (r *repository) ListActiveRules(ctx context.Context, storeID uuid.UUID, now time.Time) ([]models.DiscountRule, error) {
	var rules []models.DiscountRule
	err := r.db.WithContext(ctx).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_order_value ASC")
		}).
		Preload("Conditions").
		Where("store_id = ? AND status = ? AND start_date <= ? AND expiry_date > ?",
			storeID, enums.RuleStatusActive, now, now).
		Order("created_at ASC, id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repository) UpdateStatus(ctx context.Context, storeID, ruleID uuid.UUID, status enums.RuleStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.DiscountRule{}).
		Where("store_id = ? AND id = ?", storeID, ruleID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, storeID, ruleID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("store_id = ? AND id = ?", storeID, ruleID).
		Delete(&models.DiscountRule{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
