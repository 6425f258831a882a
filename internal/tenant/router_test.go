package tenant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/model"
)

type fakeRegistry struct {
	mu      sync.Mutex
	scopes  map[string]string // slug -> scopeID
	lookups int32
	records map[string]*model.Tenant // scopeID -> record
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		scopes:  make(map[string]string),
		records: make(map[string]*model.Tenant),
	}
}

func (f *fakeRegistry) Create(ctx context.Context, t *model.Tenant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.scopes[t.Slug]; ok {
		return ErrTenantExists
	}
	f.scopes[t.Slug] = t.ScopeID
	f.records[t.ScopeID] = t
	return nil
}

func (f *fakeRegistry) ActiveScopeBySlug(ctx context.Context, slug string) (string, error) {
	atomic.AddInt32(&f.lookups, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	scopeID, ok := f.scopes[slug]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrTenantNotFound, slug)
	}
	return scopeID, nil
}

func (f *fakeRegistry) ByScopeID(ctx context.Context, scopeID string) (*model.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[scopeID]
	if !ok {
		return nil, fmt.Errorf("%w: scope %q", ErrTenantNotFound, scopeID)
	}
	return record, nil
}

func (f *fakeRegistry) Delete(ctx context.Context, scopeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[scopeID]
	if !ok {
		return fmt.Errorf("%w: scope %q", ErrTenantNotFound, scopeID)
	}
	delete(f.scopes, record.Slug)
	delete(f.records, scopeID)
	return nil
}

type fakeStore struct {
	mu         sync.Mutex
	existing   map[string]bool
	opens      int32
	existErr   error
	migrateErr error
	dropped    []string
}

func newFakeStore(scopes ...string) *fakeStore {
	existing := make(map[string]bool)
	for _, s := range scopes {
		existing[s] = true
	}
	return &fakeStore{existing: existing}
}

func (f *fakeStore) Exists(ctx context.Context, scopeID string) (bool, error) {
	if f.existErr != nil {
		return false, f.existErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.existing[scopeID], nil
}

func (f *fakeStore) Open(ctx context.Context, scopeID string) (*Handles, error) {
	atomic.AddInt32(&f.opens, 1)
	// Hold the flight open long enough for the other goroutines to pile up.
	time.Sleep(20 * time.Millisecond)
	return &Handles{scopeID: scopeID}, nil
}

func (f *fakeStore) Create(ctx context.Context, scopeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.existing[scopeID] = true
	return nil
}

func (f *fakeStore) Migrate(ctx context.Context, scopeID string) error { return f.migrateErr }

func (f *fakeStore) Drop(ctx context.Context, scopeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.existing, scopeID)
	f.dropped = append(f.dropped, scopeID)
	return nil
}

func TestResolveRejectsReservedWithoutLookup(t *testing.T) {
	registry := newFakeRegistry()
	router := NewRouter(registry, newFakeStore(), zap.NewNop())

	for _, id := range []string{"undefined", "null", "", "Bad Slug"} {
		_, err := router.Resolve(context.Background(), id)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidTenantIdentifier)
	}
	assert.Zero(t, atomic.LoadInt32(&registry.lookups),
		"reserved identifiers must be rejected before any registry lookup")
}

func TestResolveUnknownTenant(t *testing.T) {
	router := NewRouter(newFakeRegistry(), newFakeStore(), zap.NewNop())

	_, err := router.Resolve(context.Background(), "ghost-shop")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestResolveReturnsStoredScopeID(t *testing.T) {
	registry := newFakeRegistry()
	require.NoError(t, registry.Create(context.Background(), &model.Tenant{
		Slug:    "acme",
		ScopeID: "tenant_acme_1a2b3c",
	}))
	router := NewRouter(registry, newFakeStore(), zap.NewNop())

	scopeID, err := router.Resolve(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "tenant_acme_1a2b3c", scopeID)
}

func TestHandlesForConcurrentFirstUse(t *testing.T) {
	const scopeID = "tenant_acme_1a2b3c"
	store := newFakeStore(scopeID)
	router := NewRouter(newFakeRegistry(), store, zap.NewNop())

	const n = 16
	results := make([]*Handles, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := router.HandlesFor(context.Background(), scopeID)
			if assert.NoError(t, err) {
				results[i] = h
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&store.opens),
		"concurrent first use must construct the handle set exactly once")
	for i := 1; i < n; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestHandlesForFailureIsNotCached(t *testing.T) {
	const scopeID = "tenant_acme_1a2b3c"
	store := newFakeStore(scopeID)
	store.existErr = errors.New("connection refused")
	router := NewRouter(newFakeRegistry(), store, zap.NewNop())

	_, err := router.HandlesFor(context.Background(), scopeID)
	require.Error(t, err)

	// The failure must not populate the cache; the next call retries and
	// succeeds once the store recovers.
	store.existErr = nil
	h, err := router.HandlesFor(context.Background(), scopeID)
	require.NoError(t, err)
	assert.Equal(t, scopeID, h.ScopeID())
}

func TestHandlesForUnprovisionedScope(t *testing.T) {
	router := NewRouter(newFakeRegistry(), newFakeStore(), zap.NewNop())

	_, err := router.HandlesFor(context.Background(), "tenant_ghost_000000")
	assert.ErrorIs(t, err, ErrScopeNotProvisioned)
}

func TestHandlesForRejectsBadScopeToken(t *testing.T) {
	store := newFakeStore()
	router := NewRouter(newFakeRegistry(), store, zap.NewNop())

	_, err := router.HandlesFor(context.Background(), `bad"token`)
	assert.ErrorIs(t, err, ErrInvalidTenantIdentifier)
	assert.Zero(t, atomic.LoadInt32(&store.opens))
}

func TestProvisionTenantRollsBackOnFailure(t *testing.T) {
	registry := newFakeRegistry()
	store := newFakeStore()
	store.migrateErr = errors.New("disk full")
	router := NewRouter(registry, store, zap.NewNop())

	_, err := router.ProvisionTenant(context.Background(),
		NewTenant{Name: "Acme", Slug: "acme"},
		OwnerCredentials{Email: "owner@acme.test", Password: "hunter22"})
	require.Error(t, err)

	// The partially created scope and its registry record are both gone.
	assert.Len(t, store.dropped, 1)
	assert.Empty(t, registry.records)
	assert.Empty(t, registry.scopes)
}

func TestDestroyRequiresRegistryRecord(t *testing.T) {
	store := newFakeStore("tenant_acme_1a2b3c")
	router := NewRouter(newFakeRegistry(), store, zap.NewNop())

	err := router.Destroy(context.Background(), "tenant_acme_1a2b3c")
	assert.ErrorIs(t, err, ErrTenantNotFound)
	assert.Empty(t, store.dropped, "destroy must not touch storage without a registry record")
}

func TestDestroyDropsScopeAndEvictsCache(t *testing.T) {
	const scopeID = "tenant_acme_1a2b3c"
	registry := newFakeRegistry()
	require.NoError(t, registry.Create(context.Background(), &model.Tenant{
		Slug:    "acme",
		ScopeID: scopeID,
	}))
	store := newFakeStore(scopeID)
	router := NewRouter(registry, store, zap.NewNop())

	_, err := router.HandlesFor(context.Background(), scopeID)
	require.NoError(t, err)

	require.NoError(t, router.Destroy(context.Background(), scopeID))
	assert.Equal(t, []string{scopeID}, store.dropped)

	_, err = router.HandlesFor(context.Background(), scopeID)
	assert.ErrorIs(t, err, ErrScopeNotProvisioned)
}
