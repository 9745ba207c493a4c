package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type APIKey struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	KeyHash   string    `gorm:"uniqueIndex;not null" json:"-"`
	Name      string    `gorm:"not null" json:"name"`
	OwnerID   string    `json:"owner_id"`
	Tier      string    `gorm:"default:'free'" json:"tier"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`

	// Usage ledger. MonthlyRequestCount must only be compared against a
	// limit after the reset boundary check; LifetimeRequestCount is
	// informational and never gates admission.
	MonthlyRequestCount  int64      `gorm:"default:0" json:"monthly_request_count"`
	MonthlyResetAt       *time.Time `json:"monthly_reset_at,omitempty"`
	LifetimeRequestCount int64      `gorm:"default:0" json:"lifetime_request_count"`
	LastUsedAt           *time.Time `json:"last_used_at,omitempty"`
}

func (a *APIKey) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (APIKey) TableName() string {
	return "api_keys"
}
