package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Valid drink sizes. A product may price any subset, but at least one size
// must be priced for the product to be orderable.
const (
	SizeS = "S"
	SizeM = "M"
	SizeL = "L"
)

// IsValidSize reports whether s is one of the accepted drink sizes.
func IsValidSize(s string) bool {
	return s == SizeS || s == SizeM || s == SizeL
}

// Product is a drink on the menu. Prices are integer VND per size; a nil
// price means the size is not offered.
type Product struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	NameVi        string         `gorm:"not null" json:"name_vi"`
	NameEn        string         `gorm:"not null" json:"name_en"`
	DescriptionVi string         `json:"description_vi"`
	DescriptionEn string         `json:"description_en"`
	PriceS        *int           `json:"price_s"`
	PriceM        *int           `json:"price_m"`
	PriceL        *int           `json:"price_l"`
	IsAvailable   bool           `gorm:"default:true" json:"is_available"`
	Image         string         `json:"image"`
	CategoryID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"category_id"`
	Category      Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PriceForSize returns the price of the given size and whether that size is
// offered for this product.
func (p *Product) PriceForSize(size string) (int, bool) {
	var price *int
	switch size {
	case SizeS:
		price = p.PriceS
	case SizeM:
		price = p.PriceM
	case SizeL:
		price = p.PriceL
	}
	if price == nil {
		return 0, false
	}
	return *price, true
}

// HasAnyPrice reports whether at least one size is priced.
func (p *Product) HasAnyPrice() bool {
	return p.PriceS != nil || p.PriceM != nil || p.PriceL != nil
}
