package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Topping is an add-on with a flat price (integer VND) regardless of drink size.
type Topping struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	NameVi      string         `gorm:"not null" json:"name_vi"`
	NameEn      string         `gorm:"not null" json:"name_en"`
	Price       int            `gorm:"not null" json:"price"`
	IsAvailable bool           `gorm:"default:true" json:"is_available"`
	Image       string         `json:"image"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *Topping) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
