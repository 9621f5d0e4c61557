package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DesignHistoryEntry is the append-only log of design-generation calls. A row
// is written for every successful design response whether or not the store
// owner later applies it.
type DesignHistoryEntry struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID         uuid.UUID       `gorm:"column:store_id;type:uuid;not null;index"`
	UserID          uuid.UUID       `gorm:"column:user_id;type:uuid;not null"`
	Prompt          string          `gorm:"column:prompt;not null"`
	ResponseSummary string          `gorm:"column:response_summary;not null;default:''"`
	Design          json.RawMessage `gorm:"column:design;type:jsonb;not null"`
	CSSOverrides    string          `gorm:"column:css_overrides;not null;default:''"`
	BlockedPatterns pq.StringArray  `gorm:"column:blocked_patterns;type:text[]"`
	TokensUsed      int             `gorm:"column:tokens_used;not null;default:1"`
	Applied         bool            `gorm:"column:applied;not null;default:false"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the legacy table name used by the platform schema.
func (DesignHistoryEntry) TableName() string {
	return "ai_designer_history"
}
