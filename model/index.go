package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenClaim is the caller identity extracted from the access token.
type TokenClaim struct {
	UserID string `json:"sub"`
	Role   string `json:"role"`
	Email  string `json:"email"`
}

type DTO struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (d *DTO) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// PurchaserContact is copied from the order onto the issued ticket.
type PurchaserContact struct {
	Name  string `gorm:"size:100" json:"name" validate:"omitempty,max=100"`
	Email string `gorm:"size:255" json:"email" validate:"omitempty,email"`
	Phone string `gorm:"size:32" json:"phone" validate:"omitempty,max=32"`
}
