package model

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel audit timestamps embedded by every persisted entity.
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// NewID allocates an opaque record id.
func NewID() string {
	return uuid.NewString()
}
