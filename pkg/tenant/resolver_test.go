package tenant_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/jwt"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

func signedToken(t *testing.T, claims any) string {
	t.Helper()
	svc, err := jwt.New([]byte("test-signing-key-of-adequate-len"))
	require.NoError(t, err)
	token, err := svc.Generate(claims)
	require.NoError(t, err)
	return token
}

func TestClaimsResolver(t *testing.T) {
	t.Parallel()

	resolver := tenant.NewClaimsResolver()

	t.Run("resolves attached claims", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/orders", nil)
		r = r.WithContext(tenant.WithClaims(r.Context(), tenant.Claims{
			TenantID:   "t1",
			TenantTier: "silo",
			Subject:    "user-9",
		}))

		tc, err := resolver.Resolve(r)
		require.NoError(t, err)
		assert.Equal(t, "t1", tc.TenantID)
		assert.Equal(t, tenant.TierSilo, tc.Tier)
		assert.Equal(t, "user-9", tc.UserID)
	})

	t.Run("falls through without claims", func(t *testing.T) {
		t.Parallel()

		tc, err := resolver.Resolve(httptest.NewRequest("GET", "/orders", nil))
		require.NoError(t, err)
		assert.Empty(t, tc.TenantID)
	})
}

func TestBearerResolver(t *testing.T) {
	t.Parallel()

	resolver := tenant.NewBearerResolver()

	t.Run("decodes tenant claims without verification", func(t *testing.T) {
		t.Parallel()

		token := signedToken(t, jwt.TenantClaims{
			StandardClaims: jwt.StandardClaims{Subject: "user-1"},
			TenantID:       "t2",
			TenantTier:     "bridge",
		})

		r := httptest.NewRequest("GET", "/orders", nil)
		r.Header.Set("Authorization", "Bearer "+token)

		tc, err := resolver.Resolve(r)
		require.NoError(t, err)
		assert.Equal(t, "t2", tc.TenantID)
		assert.Equal(t, tenant.TierBridge, tc.Tier)
		assert.Equal(t, "user-1", tc.UserID)
	})

	t.Run("defaults missing tier to pool", func(t *testing.T) {
		t.Parallel()

		token := signedToken(t, jwt.TenantClaims{TenantID: "t3"})

		r := httptest.NewRequest("GET", "/orders", nil)
		r.Header.Set("Authorization", "Bearer "+token)

		tc, err := resolver.Resolve(r)
		require.NoError(t, err)
		assert.Equal(t, tenant.TierPool, tc.Tier)
	})

	t.Run("malformed token is an error", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/orders", nil)
		r.Header.Set("Authorization", "Bearer not.a.token")

		_, err := resolver.Resolve(r)
		assert.ErrorIs(t, err, tenant.ErrUnauthenticated)
	})

	t.Run("falls through without header", func(t *testing.T) {
		t.Parallel()

		tc, err := resolver.Resolve(httptest.NewRequest("GET", "/orders", nil))
		require.NoError(t, err)
		assert.Empty(t, tc.TenantID)
	})
}

func TestHeaderResolver(t *testing.T) {
	t.Parallel()

	resolver := tenant.NewHeaderResolver()

	t.Run("reads tenant headers", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/orders", nil)
		r.Header.Set(tenant.HeaderTenantID, "t4")
		r.Header.Set(tenant.HeaderTenantTier, "silo")

		tc, err := resolver.Resolve(r)
		require.NoError(t, err)
		assert.Equal(t, "t4", tc.TenantID)
		assert.Equal(t, tenant.TierSilo, tc.Tier)
	})

	t.Run("defaults missing tier to pool", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/orders", nil)
		r.Header.Set(tenant.HeaderTenantID, "t5")

		tc, err := resolver.Resolve(r)
		require.NoError(t, err)
		assert.Equal(t, tenant.TierPool, tc.Tier)
	})
}

func TestDefaultResolver_Precedence(t *testing.T) {
	t.Parallel()

	resolver := tenant.DefaultResolver()

	t.Run("claims win over token and headers", func(t *testing.T) {
		t.Parallel()

		token := signedToken(t, jwt.TenantClaims{TenantID: "from-token"})

		r := httptest.NewRequest("GET", "/orders", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		r.Header.Set(tenant.HeaderTenantID, "from-header")
		r = r.WithContext(tenant.WithClaims(r.Context(), tenant.Claims{TenantID: "from-claims"}))

		tc, err := resolver.Resolve(r)
		require.NoError(t, err)
		assert.Equal(t, "from-claims", tc.TenantID)
	})

	t.Run("token wins over headers", func(t *testing.T) {
		t.Parallel()

		token := signedToken(t, jwt.TenantClaims{TenantID: "from-token"})

		r := httptest.NewRequest("GET", "/orders", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		r.Header.Set(tenant.HeaderTenantID, "from-header")

		tc, err := resolver.Resolve(r)
		require.NoError(t, err)
		assert.Equal(t, "from-token", tc.TenantID)
	})

	t.Run("headers as last resort", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/orders", nil)
		r.Header.Set(tenant.HeaderTenantID, "from-header")

		tc, err := resolver.Resolve(r)
		require.NoError(t, err)
		assert.Equal(t, "from-header", tc.TenantID)
	})

	t.Run("nothing resolvable", func(t *testing.T) {
		t.Parallel()

		_, err := resolver.Resolve(httptest.NewRequest("GET", "/orders", nil))
		assert.ErrorIs(t, err, tenant.ErrUnauthenticated)
	})

	t.Run("idempotent per request", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/orders", nil)
		r.Header.Set(tenant.HeaderTenantID, "t6")

		first, err := resolver.Resolve(r)
		require.NoError(t, err)
		second, err := resolver.Resolve(r)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}
