package tenantsvc

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/queue"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

func newTestService(t *testing.T, opts ...ServiceOption) (*Service, *MemoryStore, *queue.MemoryStorage) {
	t.Helper()

	store := NewMemoryStore()
	storage := queue.NewMemoryStorage()
	enqueuer, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)

	return NewService(store, enqueuer, opts...), store, storage
}

func TestService_Register(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("basic plan defaults", func(t *testing.T) {
		t.Parallel()

		svc, _, storage := newTestService(t)

		registered, err := svc.Register(ctx, RegisterInput{
			CompanyName: "Acme", AdminEmail: "admin@acme.test",
		})
		require.NoError(t, err)

		assert.NotEmpty(t, registered.ID)
		assert.Equal(t, PlanBasic, registered.Plan)
		assert.Equal(t, tenant.TierPool, registered.IsolationTier)
		assert.Equal(t, tenant.StatusActive, registered.Status)
		assert.Equal(t, int64(100), registered.Limits["max_products"])
		assert.Equal(t, int64(10), registered.Limits["max_users"])
		assert.False(t, registered.Features["advanced_analytics"])
		assert.True(t, registered.Features["api_access"])
		assert.Empty(t, storage.Tasks(), "no provisioning work for pool tenants")
	})

	t.Run("enterprise plan provisions a silo", func(t *testing.T) {
		t.Parallel()

		svc, _, storage := newTestService(t)

		registered, err := svc.Register(ctx, RegisterInput{
			CompanyName: "MegaCorp", AdminEmail: "ops@mega.test", Plan: PlanEnterprise,
		})
		require.NoError(t, err)

		assert.Equal(t, tenant.TierSilo, registered.IsolationTier)
		assert.Equal(t, tenant.StatusProvisioning, registered.Status)
		assert.Equal(t, int64(-1), registered.Limits["max_products"])
		assert.Equal(t, int64(100000), registered.Limits["max_api_calls_per_hour"])
		assert.True(t, registered.Features["dedicated_support"])

		tasks := storage.Tasks()
		require.Len(t, tasks, 1)
		assert.Equal(t, TaskProvisionSilo, tasks[0].TaskName)

		var payload ProvisionPayload
		require.NoError(t, json.Unmarshal(tasks[0].Payload, &payload))
		assert.Equal(t, registered.ID, payload.TenantID)
	})

	t.Run("explicit isolation override", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newTestService(t)

		registered, err := svc.Register(ctx, RegisterInput{
			CompanyName:   "Acme",
			AdminEmail:    "admin@acme.test",
			Plan:          PlanPremium,
			IsolationTier: tenant.TierPool,
		})
		require.NoError(t, err)
		assert.Equal(t, tenant.TierPool, registered.IsolationTier)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newTestService(t)

		_, err := svc.Register(ctx, RegisterInput{CompanyName: "Acme"})
		assert.ErrorIs(t, err, ErrMissingFields)

		_, err = svc.Register(ctx, RegisterInput{AdminEmail: "a@b.test"})
		assert.ErrorIs(t, err, ErrMissingFields)
	})

	t.Run("rejects unknown isolation tier", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newTestService(t)

		_, err := svc.Register(ctx, RegisterInput{
			CompanyName:   "Acme",
			AdminEmail:    "admin@acme.test",
			IsolationTier: tenant.Tier("hybrid"),
		})
		assert.ErrorIs(t, err, ErrInvalidTier)
	})
}

func TestService_Get(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, _ := newTestService(t)

	registered, err := svc.Register(ctx, RegisterInput{
		CompanyName: "Acme", AdminEmail: "admin@acme.test",
	})
	require.NoError(t, err)

	t.Run("own tenant", func(t *testing.T) {
		t.Parallel()

		got, err := svc.Get(ctx, tenant.Context{TenantID: registered.ID}, registered.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme", got.CompanyName)
	})

	t.Run("cross-tenant access denied", func(t *testing.T) {
		t.Parallel()

		_, err := svc.Get(ctx, tenant.Context{TenantID: "someone-else"}, registered.ID)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestService_Update(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	register := func(t *testing.T, svc *Service) *tenant.Tenant {
		t.Helper()
		registered, err := svc.Register(ctx, RegisterInput{
			CompanyName: "Acme", AdminEmail: "admin@acme.test",
		})
		require.NoError(t, err)
		return registered
	}

	t.Run("plan change re-derives limits and features", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newTestService(t)
		registered := register(t, svc)
		tc := tenant.Context{TenantID: registered.ID}

		premium := PlanPremium
		updated, err := svc.Update(ctx, tc, registered.ID, UpdateInput{Plan: &premium})
		require.NoError(t, err)

		assert.Equal(t, PlanPremium, updated.Plan)
		assert.Equal(t, int64(1000), updated.Limits["max_products"])
		assert.True(t, updated.Features["advanced_analytics"])
	})

	t.Run("suspend and reactivate", func(t *testing.T) {
		t.Parallel()

		svc, store, _ := newTestService(t)
		registered := register(t, svc)
		tc := tenant.Context{TenantID: registered.ID}

		suspended := tenant.StatusSuspended
		_, err := svc.Update(ctx, tc, registered.ID, UpdateInput{Status: &suspended})
		require.NoError(t, err)

		stored, err := store.GetByID(ctx, registered.ID)
		require.NoError(t, err)
		assert.Equal(t, tenant.StatusSuspended, stored.Status)
		assert.False(t, stored.Active())

		active := tenant.StatusActive
		updated, err := svc.Update(ctx, tc, registered.ID, UpdateInput{Status: &active})
		require.NoError(t, err)
		assert.True(t, updated.Active())
	})

	t.Run("deletion is not a status update", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newTestService(t)
		registered := register(t, svc)
		tc := tenant.Context{TenantID: registered.ID}

		deleted := tenant.StatusDeleted
		_, err := svc.Update(ctx, tc, registered.ID, UpdateInput{Status: &deleted})
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("invalidates the cached record", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewMemoryCache()
		t.Cleanup(func() { _ = cache.Close() })

		svc, _, _ := newTestService(t, WithRecordCache(cache))
		registered := register(t, svc)
		tc := tenant.Context{TenantID: registered.ID}

		cache.Set(ctx, registered.ID, registered, time.Hour)

		suspended := tenant.StatusSuspended
		_, err := svc.Update(ctx, tc, registered.ID, UpdateInput{Status: &suspended})
		require.NoError(t, err)

		// A suspension must not keep serving the stale active record for
		// the rest of the cache TTL.
		_, hit := cache.Get(ctx, registered.ID)
		assert.False(t, hit)
	})

	t.Run("cross-tenant update denied", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newTestService(t)
		registered := register(t, svc)

		name := "Hijacked"
		_, err := svc.Update(ctx, tenant.Context{TenantID: "intruder"}, registered.ID,
			UpdateInput{CompanyName: &name})
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestService_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	deleteTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := tenant.NewMemoryCache()
	t.Cleanup(func() { _ = cache.Close() })
	svc, store, storage := newTestService(t,
		withClock(func() time.Time { return deleteTime }),
		WithRecordCache(cache),
	)

	registered, err := svc.Register(ctx, RegisterInput{
		CompanyName: "Acme", AdminEmail: "admin@acme.test",
	})
	require.NoError(t, err)
	tc := tenant.Context{TenantID: registered.ID}
	cache.Set(ctx, registered.ID, registered, time.Hour)

	require.NoError(t, svc.Delete(ctx, tc, registered.ID))

	_, hit := cache.Get(ctx, registered.ID)
	assert.False(t, hit, "soft delete must evict the cached record")

	stored, err := store.GetByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, tenant.StatusDeleted, stored.Status)
	require.NotNil(t, stored.DeletedAt)
	assert.Equal(t, deleteTime, *stored.DeletedAt)

	tasks := storage.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, TaskCleanup, tasks[0].TaskName)

	var payload CleanupPayload
	require.NoError(t, json.Unmarshal(tasks[0].Payload, &payload))
	assert.Equal(t, registered.ID, payload.TenantID)
	assert.Equal(t, deleteTime, payload.DeletedAt)

	assert.ErrorIs(t, svc.Delete(ctx, tenant.Context{TenantID: "other"}, registered.ID), ErrAccessDenied)
}

func TestPlanTables(t *testing.T) {
	t.Parallel()

	t.Run("unknown plan falls back to basic", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, PlanLimits(PlanBasic), PlanLimits("gold"))
		assert.Equal(t, PlanFeatures(PlanBasic), PlanFeatures("gold"))
		assert.Equal(t, tenant.TierPool, DefaultIsolation("gold"))
	})

	t.Run("returned maps are copies", func(t *testing.T) {
		t.Parallel()

		caps := PlanLimits(PlanBasic)
		caps["max_products"] = 9999
		assert.Equal(t, int64(100), PlanLimits(PlanBasic)["max_products"])
	})
}
