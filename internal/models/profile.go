package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile mirrors the identity provider's per-user row. The core reads the
// premium flag and the free-generation counter and only ever writes the
// counter (quota debit).
type Profile struct {
	ID                       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email                    string    `json:"email"`
	IsPremium                bool      `gorm:"default:false" json:"is_premium"`
	FreeGenerationsRemaining int       `gorm:"default:5" json:"free_generations_remaining"`
	UpdatedAt                time.Time `json:"updated_at"`
}
