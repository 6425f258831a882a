package tenant

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"

	"storefront/internal/model"
	"storefront/prometheus"
)

// TenantRegistry is the slice of the registry the router depends on. The
// concrete Registry implements it; router tests use a stub.
type TenantRegistry interface {
	Create(ctx context.Context, t *model.Tenant) error
	ActiveScopeBySlug(ctx context.Context, slug string) (string, error)
	ByScopeID(ctx context.Context, scopeID string) (*model.Tenant, error)
	Delete(ctx context.Context, scopeID string) error
}

// NewTenant carries the registration input for a new shop.
type NewTenant struct {
	Name       string
	Slug       string
	Plan       string
	OwnerEmail string
}

// OwnerCredentials seeds the initial owner user of a freshly provisioned scope.
type OwnerCredentials struct {
	Email    string
	Password string
}

// Router translates tenant identifiers into validated, cached sets of
// scope-bound collection handles. The handle cache is owned by the router
// instance and shared by every request; construction of a missing entry is
// serialized per scope so concurrent first use cannot register a scope twice.
type Router struct {
	registry TenantRegistry
	store    ScopeStore
	log      *zap.Logger

	mu      sync.RWMutex
	handles map[string]*Handles
	group   singleflight.Group
}

// NewRouter creates a router with an empty handle cache.
func NewRouter(registry TenantRegistry, store ScopeStore, log *zap.Logger) *Router {
	return &Router{
		registry: registry,
		store:    store,
		log:      log,
		handles:  make(map[string]*Handles),
	}
}

// Resolve maps a public tenant identifier (the slug carried in the tenant
// header) to the scope token stored in the registry. Reserved and malformed
// identifiers are rejected before any lookup. The stored token is returned
// verbatim: the scope prefix is applied once at registration and never again.
func (r *Router) Resolve(ctx context.Context, publicID string) (string, error) {
	if err := ValidateIdentifier(publicID); err != nil {
		prometheus.RecordTenantResolveError("invalid_identifier")
		return "", err
	}

	scopeID, err := r.registry.ActiveScopeBySlug(ctx, publicID)
	if err != nil {
		prometheus.RecordTenantResolveError("not_found")
		return "", err
	}
	return scopeID, nil
}

// HandlesFor returns the cached handle set for a scope, constructing and
// caching it on first use. Two concurrent first requests for an unseen scope
// collapse into a single construction; a failed construction leaves the
// cache empty so the next request retries.
func (r *Router) HandlesFor(ctx context.Context, scopeID string) (*Handles, error) {
	if err := ValidateScopeID(scopeID); err != nil {
		return nil, err
	}

	r.mu.RLock()
	h, ok := r.handles[scopeID]
	r.mu.RUnlock()
	if ok {
		prometheus.RecordScopeCacheHit()
		return h, nil
	}

	prometheus.RecordScopeCacheMiss()
	v, err, _ := r.group.Do(scopeID, func() (interface{}, error) {
		// Re-check under the flight: a previous call may have populated
		// the cache between the read above and now.
		r.mu.RLock()
		cached, ok := r.handles[scopeID]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		built, err := r.buildHandles(ctx, scopeID)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.handles[scopeID] = built
		r.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handles), nil
}

func (r *Router) buildHandles(ctx context.Context, scopeID string) (*Handles, error) {
	exists, err := r.store.Exists(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrScopeNotProvisioned, scopeID)
	}

	h, err := r.store.Open(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	r.log.Info("tenant scope attached", zap.String("scope_id", scopeID))
	return h, nil
}

// Provision creates a scope's physical structures and seeds its initial
// owner user. On partial failure the scope and its registry record are torn
// back down; teardown failures are logged and the original error is returned.
func (r *Router) Provision(ctx context.Context, scopeID string, owner OwnerCredentials) error {
	if err := ValidateScopeID(scopeID); err != nil {
		return err
	}

	if err := r.store.Create(ctx, scopeID); err != nil {
		r.rollbackProvision(ctx, scopeID)
		return err
	}
	if err := r.store.Migrate(ctx, scopeID); err != nil {
		r.rollbackProvision(ctx, scopeID)
		return err
	}
	if err := r.seedOwner(ctx, scopeID, owner); err != nil {
		r.rollbackProvision(ctx, scopeID)
		return err
	}

	r.log.Info("tenant scope provisioned", zap.String("scope_id", scopeID))
	return nil
}

func (r *Router) seedOwner(ctx context.Context, scopeID string, owner OwnerCredentials) error {
	if owner.Email == "" || owner.Password == "" {
		return fmt.Errorf("owner credentials are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(owner.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash owner password: %w", err)
	}

	h, err := r.store.Open(ctx, scopeID)
	if err != nil {
		return err
	}

	user := model.User{
		Email:        owner.Email,
		PasswordHash: string(hash),
		Role:         model.UserRoleOwner,
		Active:       true,
	}
	if err := h.DB().WithContext(ctx).Create(&user).Error; err != nil {
		return fmt.Errorf("failed to seed owner user: %w", err)
	}
	return nil
}

// rollbackProvision tears down a partially provisioned scope. Best effort:
// failures here are logged so the caller still sees the original error.
func (r *Router) rollbackProvision(ctx context.Context, scopeID string) {
	if err := r.store.Drop(ctx, scopeID); err != nil {
		r.log.Error("provision rollback: failed to drop scope",
			zap.String("scope_id", scopeID), zap.Error(err))
	}
	if err := r.registry.Delete(ctx, scopeID); err != nil {
		r.log.Error("provision rollback: failed to delete registry record",
			zap.String("scope_id", scopeID), zap.Error(err))
	}
}

// ProvisionTenant is the registration entry point: it creates the registry
// record, provisions the physical scope and seeds the owner, rolling the
// record back if the scope cannot be built.
func (r *Router) ProvisionTenant(ctx context.Context, t NewTenant, owner OwnerCredentials) (*model.Tenant, error) {
	if err := ValidateIdentifier(t.Slug); err != nil {
		return nil, err
	}
	if t.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidTenantIdentifier)
	}

	record := &model.Tenant{
		Name:       t.Name,
		Slug:       t.Slug,
		ScopeID:    NewScopeID(t.Slug),
		Status:     model.TenantStatusActive,
		Plan:       t.Plan,
		OwnerEmail: owner.Email,
	}
	if record.Plan == "" {
		record.Plan = "free"
	}

	if err := r.registry.Create(ctx, record); err != nil {
		return nil, err
	}

	if err := r.Provision(ctx, record.ScopeID, owner); err != nil {
		return nil, err
	}

	r.log.Info("tenant registered",
		zap.String("slug", record.Slug),
		zap.String("scope_id", record.ScopeID))
	return record, nil
}

// Destroy irreversibly deletes a tenant's isolated data. The registry record
// must still exist when this is called; the schema is dropped first so a
// crash in between leaves a registry record pointing at a missing scope,
// which is recoverable, rather than an orphaned schema nothing references.
func (r *Router) Destroy(ctx context.Context, scopeID string) error {
	if err := ValidateScopeID(scopeID); err != nil {
		return err
	}

	if _, err := r.registry.ByScopeID(ctx, scopeID); err != nil {
		return err
	}

	if err := r.store.Drop(ctx, scopeID); err != nil {
		return err
	}
	r.evict(scopeID)

	if err := r.registry.Delete(ctx, scopeID); err != nil {
		return err
	}

	r.log.Info("tenant scope destroyed", zap.String("scope_id", scopeID))
	return nil
}

func (r *Router) evict(scopeID string) {
	r.mu.Lock()
	delete(r.handles, scopeID)
	r.mu.Unlock()
}
