package model

import (
	"time"

	"github.com/google/uuid"
)

// Base holds the identity and lifecycle columns shared by every entity.
// A non-nil DeletedAt marks the row as soft-deleted; queries filter on it.
type Base struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}
