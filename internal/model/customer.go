package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// CartLine is one entry in a customer's embedded cart.
type CartLine struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// CartLines is the embedded cart, stored as a jsonb array on the customer row
// and rewritten wholesale on every mutation.
type CartLines []CartLine

func (l CartLines) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal(CartLines{})
	}
	return json.Marshal(l)
}

func (l *CartLines) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// Find returns the line for productID, or nil if the cart has none.
func (l CartLines) Find(productID uint) *CartLine {
	for i := range l {
		if l[i].ProductID == productID {
			return &l[i]
		}
	}
	return nil
}

// OrderRefs is the customer's order history, newest last.
type OrderRefs []uint

func (r OrderRefs) Value() (driver.Value, error) {
	if r == nil {
		return json.Marshal(OrderRefs{})
	}
	return json.Marshal(r)
}

func (r *OrderRefs) Scan(src interface{}) error {
	return scanJSON(src, r)
}

// Customer represents a shopper within one tenant scope. The cart lives
// embedded on the row rather than in its own table so that order fulfillment
// can read and clear it inside the same transaction that writes the order.
type Customer struct {
	ID           uint           `json:"id" gorm:"primarykey"`
	Email        string         `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string         `json:"-" gorm:"type:varchar(255);not null"`
	Name         string         `json:"name" gorm:"type:varchar(100)"`
	Cart         CartLines      `json:"cart" gorm:"type:jsonb"`
	OrderRefs    OrderRefs      `json:"order_refs" gorm:"type:jsonb"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}
