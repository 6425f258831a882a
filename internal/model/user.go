package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles within a tenant scope.
const (
	UserRoleOwner = "owner"
	UserRoleStaff = "staff"
)

// User represents a staff member of one tenant's shop. The initial owner is
// seeded when the tenant scope is provisioned.
type User struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Email        string         `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string         `json:"-" gorm:"type:varchar(255);not null"`
	Role         string         `json:"role" gorm:"type:varchar(50);not null;default:'staff'"`
	Active       bool           `json:"active" gorm:"default:true"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// ScopeModels lists every model that lives inside a tenant scope, in the
// order they are migrated when a scope is provisioned.
func ScopeModels() []interface{} {
	return []interface{}{
		&Product{},
		&Category{},
		&Customer{},
		&Order{},
		&User{},
	}
}
