package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StoreDesignState holds the currently applied design payload for a store,
// one row per store. Mutated only by an explicit apply, never by a chat
// response.
type StoreDesignState struct {
	StoreID       uuid.UUID       `gorm:"column:store_id;type:uuid;primaryKey"`
	Design        json.RawMessage `gorm:"column:design;type:jsonb;not null"`
	LastAppliedAt time.Time       `gorm:"column:last_applied_at;not null"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the legacy table name used by the platform schema.
func (StoreDesignState) TableName() string {
	return "store_design_states"
}
