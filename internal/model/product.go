package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// ImageList is a jsonb-backed list of image URLs.
type ImageList []string

func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal(ImageList{})
	}
	return json.Marshal(l)
}

func (l *ImageList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// Product represents the product master data within one tenant scope.
// Tables live in a per-tenant schema, so the SKU unique index is
// tenant-local, not global.
type Product struct {
	ID          uint           `json:"id" gorm:"primarykey"`
	SKU         string         `json:"sku" gorm:"type:varchar(100);uniqueIndex;not null"`
	Name        string         `json:"name" gorm:"type:varchar(255);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Price       float64        `json:"price" gorm:"not null"`
	Stock       int            `json:"stock" gorm:"not null;default:0"`
	CategoryID  uint           `json:"category_id" gorm:"index"`
	Images      ImageList      `json:"images" gorm:"type:jsonb"`
	IsActive    bool           `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// MainImage returns the first image URL, or "" when the product has none.
func (p *Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
