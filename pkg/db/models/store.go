package models

import (
	"time"

	"github.com/google/uuid"
)

// Store represents the canonical tenant model.
type Store struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string     `gorm:"column:name;not null"`
	Slug           string     `gorm:"column:slug;not null;unique"`
	Phone          *string    `gorm:"column:phone"`
	Email          *string    `gorm:"column:email"`
	WhatsAppNumber *string    `gorm:"column:whatsapp_number"`
	OwnerID        uuid.UUID  `gorm:"column:owner_id;type:uuid;not null"`
	LastActiveAt   *time.Time `gorm:"column:last_active_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
