package tenant

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"storefront/internal/model"
	"storefront/pkg/database"
)

// Handles is the set of collection handles bound to one tenant scope. All
// downstream services reach storage exclusively through a Handles value
// obtained from the router; none of them ever qualifies a table name itself.
type Handles struct {
	scopeID string
	db      *gorm.DB
}

// ScopeID returns the scope token these handles are bound to.
func (h *Handles) ScopeID() string { return h.scopeID }

// DB returns the scope-bound gorm session.
func (h *Handles) DB() *gorm.DB { return h.db }

func (h *Handles) Products() *gorm.DB   { return h.db.Model(&model.Product{}) }
func (h *Handles) Categories() *gorm.DB { return h.db.Model(&model.Category{}) }
func (h *Handles) Customers() *gorm.DB  { return h.db.Model(&model.Customer{}) }
func (h *Handles) Orders() *gorm.DB     { return h.db.Model(&model.Order{}) }
func (h *Handles) Users() *gorm.DB      { return h.db.Model(&model.User{}) }

// ScopeStore manages the physical storage behind tenant scopes. The gorm
// implementation below maps one scope to one Postgres schema; tests swap in
// a fake.
type ScopeStore interface {
	// Exists reports whether the scope's physical schema is present.
	Exists(ctx context.Context, scopeID string) (bool, error)
	// Open returns handles bound to an existing scope.
	Open(ctx context.Context, scopeID string) (*Handles, error)
	// Create creates the scope's physical schema.
	Create(ctx context.Context, scopeID string) error
	// Migrate creates the scope's tables and indexes.
	Migrate(ctx context.Context, scopeID string) error
	// Drop irreversibly deletes the scope's schema and all data in it.
	Drop(ctx context.Context, scopeID string) error
}

type gormScopeStore struct {
	base *gorm.DB
}

// NewScopeStore returns the Postgres-backed scope store.
func NewScopeStore(base *gorm.DB) ScopeStore {
	return &gormScopeStore{base: base}
}

func (s *gormScopeStore) Exists(ctx context.Context, scopeID string) (bool, error) {
	var count int64
	err := s.base.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM information_schema.schemata WHERE schema_name = ?", scopeID).
		Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check scope %s: %w", scopeID, err)
	}
	return count > 0, nil
}

func (s *gormScopeStore) Open(ctx context.Context, scopeID string) (*Handles, error) {
	db, err := database.OpenScope(s.base, scopeID)
	if err != nil {
		return nil, err
	}
	return &Handles{scopeID: scopeID, db: db}, nil
}

// Scope tokens pass ValidateScopeID before they get here, which restricts
// them to [a-z0-9_], so embedding them as quoted identifiers is safe.
func (s *gormScopeStore) Create(ctx context.Context, scopeID string) error {
	stmt := fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %q`, scopeID)
	if err := s.base.WithContext(ctx).Exec(stmt).Error; err != nil {
		return fmt.Errorf("failed to create scope %s: %w", scopeID, err)
	}
	return nil
}

func (s *gormScopeStore) Migrate(ctx context.Context, scopeID string) error {
	h, err := s.Open(ctx, scopeID)
	if err != nil {
		return err
	}
	if err := h.DB().WithContext(ctx).AutoMigrate(model.ScopeModels()...); err != nil {
		return fmt.Errorf("failed to migrate scope %s: %w", scopeID, err)
	}
	return nil
}

func (s *gormScopeStore) Drop(ctx context.Context, scopeID string) error {
	stmt := fmt.Sprintf(`DROP SCHEMA IF EXISTS %q CASCADE`, scopeID)
	if err := s.base.WithContext(ctx).Exec(stmt).Error; err != nil {
		return fmt.Errorf("failed to drop scope %s: %w", scopeID, err)
	}
	return nil
}
