package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Order a checkout order. PublicTokenHash is written once at creation; the
// raw token is handed to the caller and never stored.
type Order struct {
	ID                     int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID             int64          `gorm:"index" json:"customerId"`
	Items                  []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"orderItems"`
	ShippingInfo           datatypes.JSON `json:"shippingInfo"`
	Estado                 OrderStatus    `gorm:"size:32;index" json:"estado"`
	PaymentID              string         `gorm:"size:128;uniqueIndex" json:"paymentId"` // placeholder, then preference id, then latest payment id
	PublicTokenHash        string         `gorm:"size:64" json:"-"`
	StockDecrementedAt     *time.Time     `json:"stockDecrementedAt"`
	StockDecrementFailedAt *time.Time     `json:"stockDecrementFailedAt"`
	StockDecrementError    *string        `gorm:"type:text" json:"stockDecrementError"`
	CreatedAt              time.Time      `json:"createdAt"`
	UpdatedAt              time.Time      `json:"updatedAt"`
}

func (Order) TableName() string {
	return "ordenes"
}

// OrderItem price and quantity snapshot taken at checkout time
type OrderItem struct {
	ID        int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64   `gorm:"index" json:"-"`
	ProductID int64   `gorm:"index" json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Subtotal  float64 `json:"subtotal"`
}

func (OrderItem) TableName() string {
	return "orden_items"
}

// Total sums the item subtotals
func (o *Order) Total() float64 {
	var total float64
	for _, it := range o.Items {
		total += it.Subtotal
	}
	return total
}
