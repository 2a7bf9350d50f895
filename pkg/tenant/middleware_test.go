package tenant_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

type recordProvider struct {
	records map[string]*tenant.Tenant
	calls   int
}

func (p *recordProvider) GetByID(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	p.calls++
	record, ok := p.records[tenantID]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return record, nil
}

func okHandler(captured *tenant.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tc, ok := tenant.FromContext(r.Context()); ok && captured != nil {
			*captured = tc
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("attaches resolved context", func(t *testing.T) {
		t.Parallel()

		var captured tenant.Context
		handler := tenant.Middleware(tenant.DefaultResolver())(okHandler(&captured))

		r := httptest.NewRequest("GET", "/orders", nil)
		r.Header.Set(tenant.HeaderTenantID, "t1")
		r.Header.Set(tenant.HeaderTenantTier, "bridge")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "t1", captured.TenantID)
		assert.Equal(t, tenant.TierBridge, captured.Tier)
	})

	t.Run("rejects unresolvable requests", func(t *testing.T) {
		t.Parallel()

		handler := tenant.Middleware(tenant.DefaultResolver())(okHandler(nil))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/orders", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("skip paths bypass resolution", func(t *testing.T) {
		t.Parallel()

		handler := tenant.Middleware(tenant.DefaultResolver(),
			tenant.WithSkipPaths("/tenants/register"),
		)(okHandler(nil))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("POST", "/tenants/register", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRecordLoader(t *testing.T) {
	t.Parallel()

	withTenantCtx := func(r *http.Request, id string) *http.Request {
		return r.WithContext(tenant.WithContext(r.Context(), tenant.Context{
			TenantID: id,
			Tier:     tenant.TierPool,
		}))
	}

	t.Run("loads and caches the record", func(t *testing.T) {
		t.Parallel()

		provider := &recordProvider{records: map[string]*tenant.Tenant{
			"t1": {ID: "t1", Status: tenant.StatusActive},
		}}
		handler := tenant.RecordLoader(provider,
			tenant.WithCacheTTL(time.Minute),
		)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			record, ok := tenant.RecordFromContext(r.Context())
			require.True(t, ok)
			assert.Equal(t, "t1", record.ID)
			w.WriteHeader(http.StatusOK)
		}))

		for range 3 {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, withTenantCtx(httptest.NewRequest("GET", "/orders", nil), "t1"))
			assert.Equal(t, http.StatusOK, w.Code)
		}
		assert.Equal(t, 1, provider.calls, "subsequent requests should hit the cache")
	})

	t.Run("rejects suspended tenants", func(t *testing.T) {
		t.Parallel()

		provider := &recordProvider{records: map[string]*tenant.Tenant{
			"t1": {ID: "t1", Status: tenant.StatusSuspended},
		}}
		handler := tenant.RecordLoader(provider)(okHandler(nil))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, withTenantCtx(httptest.NewRequest("GET", "/orders", nil), "t1"))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("rejects unknown tenants", func(t *testing.T) {
		t.Parallel()

		provider := &recordProvider{records: map[string]*tenant.Tenant{}}
		handler := tenant.RecordLoader(provider)(okHandler(nil))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, withTenantCtx(httptest.NewRequest("GET", "/orders", nil), "ghost"))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("requires a tenant context", func(t *testing.T) {
		t.Parallel()

		provider := &recordProvider{records: map[string]*tenant.Tenant{}}
		handler := tenant.RecordLoader(provider)(okHandler(nil))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/orders", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("skip paths bypass the loader", func(t *testing.T) {
		t.Parallel()

		provider := &recordProvider{records: map[string]*tenant.Tenant{}}
		handler := tenant.RecordLoader(provider,
			tenant.WithSkipPaths("/tenants/register"),
		)(okHandler(nil))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("POST", "/tenants/register", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Zero(t, provider.calls)
	})
}

// Sign-up happens before a tenant exists, so the full chain from the server
// must let an unauthenticated registration request through when both layers
// share the same skip list.
func TestMiddlewareChain_Registration(t *testing.T) {
	t.Parallel()

	provider := &recordProvider{records: map[string]*tenant.Tenant{}}
	skip := tenant.WithSkipPaths("/tenants/register")

	var reached bool
	handler := tenant.Middleware(tenant.DefaultResolver(), skip)(
		tenant.RecordLoader(provider, skip)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				w.WriteHeader(http.StatusCreated)
			})))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/tenants/register", nil))

	assert.True(t, reached, "registration handler must run without credentials")
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code, "other routes still require a tenant")
}

func TestMemoryCache_TTL(t *testing.T) {
	t.Parallel()

	cache := tenant.NewMemoryCache()
	t.Cleanup(func() { _ = cache.Close() })

	ctx := context.Background()
	cache.Set(ctx, "t1", &tenant.Tenant{ID: "t1"}, 10*time.Millisecond)

	got, ok := cache.Get(ctx, "t1")
	require.True(t, ok)
	assert.Equal(t, "t1", got.ID)

	time.Sleep(20 * time.Millisecond)
	_, ok = cache.Get(ctx, "t1")
	assert.False(t, ok)
}
