package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Voucher is a discount code. Exactly one of DiscountPercent or
// DiscountAmount should be set; amounts are integer VND.
type Voucher struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Code            string         `gorm:"uniqueIndex;not null" json:"code"`
	Description     string         `json:"description"`
	DiscountPercent *int           `json:"discount_percent"`
	DiscountAmount  *int           `json:"discount_amount"`
	MinOrderTotal   int            `gorm:"default:0" json:"min_order_total"`
	StartDate       *time.Time     `json:"start_date"`
	EndDate         *time.Time     `json:"end_date"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	MaxUses         int            `gorm:"default:0" json:"max_uses"` // 0 = unlimited
	UsedCount       int            `gorm:"default:0" json:"used_count"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (v *Voucher) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// UsableAt reports whether the voucher can be applied at the given time,
// ignoring the order-total requirement.
func (v *Voucher) UsableAt(now time.Time) bool {
	if !v.IsActive {
		return false
	}
	if v.StartDate != nil && now.Before(*v.StartDate) {
		return false
	}
	if v.EndDate != nil && now.After(*v.EndDate) {
		return false
	}
	if v.MaxUses > 0 && v.UsedCount >= v.MaxUses {
		return false
	}
	return true
}

// DiscountFor computes the discount for a subtotal. The result never exceeds
// the subtotal.
func (v *Voucher) DiscountFor(subtotal int) int {
	var discount int
	if v.DiscountPercent != nil {
		discount = subtotal * *v.DiscountPercent / 100
	} else if v.DiscountAmount != nil {
		discount = *v.DiscountAmount
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount
}
