package model

import (
	"time"

	"gorm.io/gorm"
)

// TenantStatus is the administrative lifecycle state of a tenant.
type TenantStatus string

const (
	TenantStatusPending   TenantStatus = "pending"
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
	TenantStatusInactive  TenantStatus = "inactive"
)

// Valid reports whether s is one of the known tenant statuses.
func (s TenantStatus) Valid() bool {
	switch s {
	case TenantStatusPending, TenantStatusActive, TenantStatusSuspended, TenantStatusInactive:
		return true
	}
	return false
}

// Tenant is the platform-level registry record for a shop.
// This is the core of our multi-tenant architecture: ScopeID is the physical
// isolation key (the Postgres schema holding the tenant's data). It is
// generated exactly once at registration and never changes afterwards, even
// if the display name does.
type Tenant struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Name       string         `json:"name" gorm:"type:varchar(100);not null"`
	Slug       string         `json:"slug" gorm:"type:varchar(63);uniqueIndex;not null"`
	ScopeID    string         `json:"scope_id" gorm:"type:varchar(100);uniqueIndex;not null"`
	Status     TenantStatus   `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	Plan       string         `json:"plan" gorm:"type:varchar(50);default:'free'"`
	OwnerEmail string         `json:"owner_email" gorm:"type:varchar(255)"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}
