package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type Order struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User          User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OrderNumber   string         `gorm:"uniqueIndex;not null" json:"order_number"`
	Status        OrderStatus    `gorm:"default:pending" json:"status"`
	Subtotal      int            `gorm:"not null" json:"subtotal"`
	Discount      int            `gorm:"default:0" json:"discount"`
	Total         int            `gorm:"not null" json:"total"`
	VoucherCode   string         `json:"voucher_code"`
	PaymentMethod string         `json:"payment_method"`
	Note          string         `json:"note"`
	Items         []OrderItem    `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// OrderItem snapshots the drink, size and per-unit pricing at order time so
// later menu edits don't rewrite order history.
type OrderItem struct {
	ID        uuid.UUID          `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrderID   uuid.UUID          `gorm:"type:uuid;not null;index" json:"order_id"`
	Order     Order              `gorm:"foreignKey:OrderID" json:"-"`
	ProductID uuid.UUID          `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   Product            `gorm:"foreignKey:ProductID" json:"product"`
	NameVi    string             `json:"name_vi"`
	NameEn    string             `json:"name_en"`
	Size      string             `gorm:"not null" json:"size"`
	Quantity  int                `gorm:"not null" json:"quantity"`
	UnitPrice int                `gorm:"not null" json:"unit_price"`
	Toppings  []OrderItemTopping `gorm:"foreignKey:OrderItemID" json:"toppings"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type OrderItemTopping struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrderItemID uuid.UUID `gorm:"type:uuid;not null;index" json:"order_item_id"`
	ToppingID   uuid.UUID `gorm:"type:uuid;not null" json:"topping_id"`
	NameVi      string    `json:"name_vi"`
	NameEn      string    `json:"name_en"`
	Price       int       `gorm:"not null" json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.OrderNumber == "" {
		o.OrderNumber = "TS" + time.Now().Format("20060102150405") + o.ID.String()[:8]
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (t *OrderItemTopping) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// AllowedTransitions defines the valid order status state machine.
var AllowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:     {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted: {},
	OrderStatusCancelled: {},
}

// IsValidTransition checks if a status transition is allowed.
func IsValidTransition(from, to OrderStatus) bool {
	allowed, exists := AllowedTransitions[from]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}
