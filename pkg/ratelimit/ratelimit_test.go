package ratelimit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/ratelimit"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

func TestLimiter_Allow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("counts down the budget", func(t *testing.T) {
		t.Parallel()

		limiter, err := ratelimit.NewLimiter(ratelimit.NewMemoryStore())
		require.NoError(t, err)

		for i := int64(1); i <= 3; i++ {
			result, err := limiter.Allow(ctx, "t1", 3)
			require.NoError(t, err)
			assert.True(t, result.Allowed)
			assert.Equal(t, 3-i, result.Remaining)
		}

		result, err := limiter.Allow(ctx, "t1", 3)
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Zero(t, result.Remaining)
		assert.Positive(t, result.RetryAfter())
	})

	t.Run("keys are independent", func(t *testing.T) {
		t.Parallel()

		limiter, err := ratelimit.NewLimiter(ratelimit.NewMemoryStore())
		require.NoError(t, err)

		_, err = limiter.Allow(ctx, "t1", 1)
		require.NoError(t, err)

		result, err := limiter.Allow(ctx, "t2", 1)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})

	t.Run("negative limit bypasses the store", func(t *testing.T) {
		t.Parallel()

		limiter, err := ratelimit.NewLimiter(ratelimit.NewMemoryStore())
		require.NoError(t, err)

		result, err := limiter.Allow(ctx, "t1", -1)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})

	t.Run("reset reopens the budget", func(t *testing.T) {
		t.Parallel()

		limiter, err := ratelimit.NewLimiter(ratelimit.NewMemoryStore())
		require.NoError(t, err)

		_, err = limiter.Allow(ctx, "t1", 1)
		require.NoError(t, err)
		require.NoError(t, limiter.Reset(ctx, "t1"))

		result, err := limiter.Allow(ctx, "t1", 1)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		t.Parallel()

		limiter, err := ratelimit.NewLimiter(ratelimit.NewMemoryStore())
		require.NoError(t, err)

		_, err = limiter.Allow(ctx, "", 1)
		assert.ErrorIs(t, err, ratelimit.ErrKeyRequired)
	})
}

func TestMemoryStore_WindowExpiry(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	ctx := context.Background()

	count, _, err := store.Increment(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, _, err = store.Increment(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	time.Sleep(15 * time.Millisecond)

	count, _, err = store.Increment(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "a new window should start after expiry")
}

type middlewareProvider struct {
	record *tenant.Tenant
}

func (p *middlewareProvider) GetByID(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	if p.record == nil {
		return nil, tenant.ErrTenantNotFound
	}
	return p.record, nil
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	newHandler := func(provider tenant.Provider) http.Handler {
		limiter, err := ratelimit.NewLimiter(ratelimit.NewMemoryStore())
		require.NoError(t, err)
		mw := ratelimit.Middleware(limiter, provider, nil)
		return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
	}

	tenantRequest := func(id string) *http.Request {
		r := httptest.NewRequest("GET", "/orders", nil)
		return r.WithContext(tenant.WithContext(r.Context(), tenant.Context{
			TenantID: id,
			Tier:     tenant.TierPool,
		}))
	}

	t.Run("throttles over-budget tenants", func(t *testing.T) {
		t.Parallel()

		handler := newHandler(&middlewareProvider{record: &tenant.Tenant{
			ID:     "t1",
			Status: tenant.StatusActive,
			Limits: map[string]int64{ratelimit.LimitResource: 2},
		}})

		for range 2 {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, tenantRequest("t1"))
			assert.Equal(t, http.StatusOK, w.Code)
		}

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, tenantRequest("t1"))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("unlimited budget passes through", func(t *testing.T) {
		t.Parallel()

		handler := newHandler(&middlewareProvider{record: &tenant.Tenant{
			ID:     "t1",
			Status: tenant.StatusActive,
			Limits: map[string]int64{ratelimit.LimitResource: -1},
		}})

		for range 5 {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, tenantRequest("t1"))
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})

	t.Run("no tenant context passes through", func(t *testing.T) {
		t.Parallel()

		handler := newHandler(&middlewareProvider{})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("record lookup failure fails open", func(t *testing.T) {
		t.Parallel()

		handler := newHandler(&middlewareProvider{})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, tenantRequest("ghost"))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
