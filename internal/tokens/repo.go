package tokens

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kartlane/storefront-backend/pkg/db/models"
	"github.com/kartlane/storefront-backend/pkg/enums"
)

// Repository manages persistence for AI designer token purchases.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, purchase *models.TokenPurchase) error
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.TokenPurchase, error)
	Activate(ctx context.Context, purchaseID uuid.UUID, gatewayPaymentID string, expiresAt time.Time) error
	SumRemaining(ctx context.Context, storeID uuid.UUID) (int, error)
	ListActive(ctx context.Context, storeID uuid.UUID) ([]models.TokenPurchase, error)
	FindDebitCandidate(ctx context.Context, storeID uuid.UUID) (*models.TokenPurchase, error)
	DebitOne(ctx context.Context, purchaseID uuid.UUID, expectedRemaining int) (bool, error)
	MarkOverdueExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a token purchase repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, purchase *models.TokenPurchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

func (r *repository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.TokenPurchase, error) {
	var purchase models.TokenPurchase
	err := r.db.WithContext(ctx).
		Where("gateway_order_id = ?", gatewayOrderID).
		First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// Activate flips a pending purchase to active. The status guard keeps a
// replayed payment confirmation from re-activating a consumed batch.
func (r *repository) Activate(ctx context.Context, purchaseID uuid.UUID, gatewayPaymentID string, expiresAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.TokenPurchase{}).
		Where("id = ? AND status = ?", purchaseID, enums.PurchaseStatusPending).
		Updates(map[string]any{
			"status":             enums.PurchaseStatusActive,
			"gateway_payment_id": gatewayPaymentID,
			"expires_at":         expiresAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) SumRemaining(ctx context.Context, storeID uuid.UUID) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.TokenPurchase{}).
		Where("store_id = ? AND status = ?", storeID, enums.PurchaseStatusActive).
		Select("COALESCE(SUM(tokens_remaining), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

func (r *repository) ListActive(ctx context.Context, storeID uuid.UUID) ([]models.TokenPurchase, error) {
	var purchases []models.TokenPurchase
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND status = ?", storeID, enums.PurchaseStatusActive).
		Order("expires_at ASC").
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

// FindDebitCandidate returns the active batch that should be consumed next:
// the one expiring soonest, batches without an expiry last.
func (r *repository) FindDebitCandidate(ctx context.Context, storeID uuid.UUID) (*models.TokenPurchase, error) {
	var purchase models.TokenPurchase
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND status = ? AND tokens_remaining > 0", storeID, enums.PurchaseStatusActive).
		Order("expires_at IS NULL, expires_at ASC, created_at ASC").
		First(&purchase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// DebitOne consumes a single token with an optimistic guard on the current
// balance. A false return means a concurrent debit won and the caller should
// reselect a candidate.
func (r *repository) DebitOne(ctx context.Context, purchaseID uuid.UUID, expectedRemaining int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.TokenPurchase{}).
		Where("id = ? AND status = ? AND tokens_remaining = ?", purchaseID, enums.PurchaseStatusActive, expectedRemaining).
		Updates(map[string]any{
			"tokens_remaining": gorm.Expr("tokens_remaining - 1"),
			"tokens_used":      gorm.Expr("tokens_used + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) MarkOverdueExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.TokenPurchase{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", enums.PurchaseStatusActive, now).
		Update("status", enums.PurchaseStatusExpired)
	return result.RowsAffected, result.Error
}

func (r *repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status = ?", enums.PurchaseStatusExpired).
		Delete(&models.TokenPurchase{})
	return result.RowsAffected, result.Error
}

func (r *repository) DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.PurchaseStatusPending, cutoff).
		Delete(&models.TokenPurchase{})
	return result.RowsAffected, result.Error
}
