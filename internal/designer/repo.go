package designer

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kartlane/storefront-backend/pkg/db/models"
	"github.com/kartlane/storefront-backend/pkg/pagination"
)

// Repository manages persistence for design state and generation history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetDesignState(ctx context.Context, storeID uuid.UUID) (*models.StoreDesignState, error)
	UpsertDesignState(ctx context.Context, state *models.StoreDesignState) error
	DeleteDesignState(ctx context.Context, storeID uuid.UUID) error
	CreateHistory(ctx context.Context, entry *models.DesignHistoryEntry) error
	GetHistoryByID(ctx context.Context, storeID, historyID uuid.UUID) (*models.DesignHistoryEntry, error)
	MarkApplied(ctx context.Context, storeID, historyID uuid.UUID) error
	ListHistory(ctx context.Context, storeID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.DesignHistoryEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a designer repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// GetDesignState returns nil when the store has never applied a design.
func (r *repository) GetDesignState(ctx context.Context, storeID uuid.UUID) (*models.StoreDesignState, error) {
	var state models.StoreDesignState
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *repository) UpsertDesignState(ctx context.Context, state *models.StoreDesignState) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"design", "last_applied_at", "updated_at"}),
		}).
		Create(state).Error
}

func (r *repository) DeleteDesignState(ctx context.Context, storeID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Delete(&models.StoreDesignState{}).Error
}

func (r *repository) CreateHistory(ctx context.Context, entry *models.DesignHistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) GetHistoryByID(ctx context.Context, storeID, historyID uuid.UUID) (*models.DesignHistoryEntry, error) {
	var entry models.DesignHistoryEntry
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND id = ?", storeID, historyID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) MarkApplied(ctx context.Context, storeID, historyID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.DesignHistoryEntry{}).
		Where("store_id = ? AND id = ?", storeID, historyID).
		Update("applied", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListHistory pages newest-first with a keyset cursor.
func (r *repository) ListHistory(ctx context.Context, storeID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.DesignHistoryEntry, error) {
	query := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var entries []models.DesignHistoryEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
