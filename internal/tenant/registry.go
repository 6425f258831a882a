package tenant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/model"
	"storefront/pkg/logger"
	"storefront/prometheus"
)

// Registry is the durable catalog of tenants, stored in the platform-level
// (public) schema. Slug resolution is the hottest read in the system, so it
// goes through an optional Redis cache; everything else hits Postgres.
type Registry struct {
	db    *gorm.DB
	cache *redis.Client
	ttl   time.Duration
}

// NewRegistry creates a registry over the base database connection. cache
// may be nil, in which case every resolution hits the database.
func NewRegistry(db *gorm.DB, cache *redis.Client, ttl time.Duration) *Registry {
	return &Registry{db: db, cache: cache, ttl: ttl}
}

func slugCacheKey(slug string) string {
	return "tenant:slug:" + slug
}

// Create inserts a new registry record. Slug collisions surface as
// ErrTenantExists.
func (r *Registry) Create(ctx context.Context, t *model.Tenant) error {
	prometheus.RecordTenantOperation("create")
	defer prometheus.TrackDBOperation("insert")(time.Now())

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Tenant{}).
		Where("slug = ?", t.Slug).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check slug: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: slug %q", ErrTenantExists, t.Slug)
	}

	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

// ActiveScopeBySlug maps a tenant slug to its scope token. Only active
// tenants resolve; suspended or pending tenants behave as missing.
func (r *Registry) ActiveScopeBySlug(ctx context.Context, slug string) (string, error) {
	log := logger.FromContext(ctx)

	if r.cache != nil {
		scopeID, err := r.cache.Get(ctx, slugCacheKey(slug)).Result()
		if err == nil && scopeID != "" {
			return scopeID, nil
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			// Cache trouble is not a resolution failure.
			log.Warn("tenant cache read failed", zap.String("slug", slug), zap.Error(err))
		}
	}

	defer prometheus.TrackDBOperation("select")(time.Now())

	var t model.Tenant
	err := r.db.WithContext(ctx).
		Where("slug = ? AND status = ?", slug, model.TenantStatusActive).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: %q", ErrTenantNotFound, slug)
		}
		return "", fmt.Errorf("failed to look up tenant: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, slugCacheKey(slug), t.ScopeID, r.ttl).Err(); err != nil {
			log.Warn("tenant cache write failed", zap.String("slug", slug), zap.Error(err))
		}
	}
	return t.ScopeID, nil
}

// BySlugAnyStatus loads a registry record regardless of status. Used by
// administrative flows, which must reach suspended and pending tenants that
// the resolution path hides.
func (r *Registry) BySlugAnyStatus(ctx context.Context, slug string) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("select")(time.Now())

	var t model.Tenant
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrTenantNotFound, slug)
		}
		return nil, fmt.Errorf("failed to look up tenant: %w", err)
	}
	return &t, nil
}

// ByScopeID loads the registry record owning a scope token.
func (r *Registry) ByScopeID(ctx context.Context, scopeID string) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("select")(time.Now())

	var t model.Tenant
	err := r.db.WithContext(ctx).Where("scope_id = ?", scopeID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: scope %q", ErrTenantNotFound, scopeID)
		}
		return nil, fmt.Errorf("failed to look up tenant by scope: %w", err)
	}
	return &t, nil
}

// UpdateStatus applies an administrative status transition and drops the
// slug from the resolution cache so the change takes effect immediately.
func (r *Registry) UpdateStatus(ctx context.Context, scopeID string, status model.TenantStatus) (*model.Tenant, error) {
	prometheus.RecordTenantOperation("update_status")

	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTenantIdentifier, status)
	}

	t, err := r.ByScopeID(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := r.db.WithContext(ctx).Model(t).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update tenant status: %w", err)
	}
	r.invalidate(ctx, t.Slug)
	return t, nil
}

// Delete removes the registry record for a scope.
func (r *Registry) Delete(ctx context.Context, scopeID string) error {
	prometheus.RecordTenantOperation("delete")

	t, err := r.ByScopeID(ctx, scopeID)
	if err != nil {
		return err
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := r.db.WithContext(ctx).Delete(t).Error; err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	r.invalidate(ctx, t.Slug)
	return nil
}

func (r *Registry) invalidate(ctx context.Context, slug string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, slugCacheKey(slug)).Err(); err != nil {
		logger.FromContext(ctx).Warn("tenant cache invalidation failed",
			zap.String("slug", slug), zap.Error(err))
	}
}
