package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusReturned  OrderStatus = "returned"
)

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned:
		return true
	}
	return false
}

// Cancellable reports whether an order in this status may still be cancelled.
// Once an order has shipped the stock is gone and cancellation becomes a
// return flow, which is handled elsewhere.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// OrderLine is an immutable snapshot of a product at order time. Later edits
// to the product must never show through on a committed order.
type OrderLine struct {
	ProductID uint    `json:"product_id"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
}

// Subtotal returns price times quantity for this line.
func (l OrderLine) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

// OrderLines is the jsonb-backed list of snapshotted lines on an order.
type OrderLines []OrderLine

func (l OrderLines) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal(OrderLines{})
	}
	return json.Marshal(l)
}

func (l *OrderLines) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// Order represents a placed order within one tenant scope. Items and
// TotalAmount are fixed at creation time by the fulfillment engine.
type Order struct {
	ID              uint           `json:"id" gorm:"primarykey"`
	CustomerID      uint           `json:"customer_id" gorm:"index;not null"`
	Items           OrderLines     `json:"items" gorm:"type:jsonb;not null"`
	TotalAmount     float64        `json:"total_amount" gorm:"not null"`
	Status          OrderStatus    `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	ShippingAddress string         `json:"shipping_address" gorm:"type:text;not null"`
	ContactPhone    string         `json:"contact_phone" gorm:"type:varchar(32);not null"`
	IsPaid          bool           `json:"is_paid" gorm:"default:false"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}
