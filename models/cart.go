package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is a durable cart line: a drink in a specific size with a set of
// toppings. Quantity is always >= 1; a line that would reach zero is deleted
// through the remove operation, never stored at zero.
type CartItem struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ProductID uuid.UUID      `gorm:"type:uuid;not null" json:"product_id"`
	Product   Product        `gorm:"foreignKey:ProductID" json:"product"`
	Size      string         `gorm:"not null" json:"size"`
	Quantity  int            `gorm:"default:1" json:"quantity"`
	Toppings  []Topping      `gorm:"many2many:cart_item_toppings" json:"toppings"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ToppingIDs returns the ids of the line's toppings in stored order.
func (c *CartItem) ToppingIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(c.Toppings))
	for i, t := range c.Toppings {
		ids[i] = t.ID
	}
	return ids
}
