package product

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/limits"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

type stubTenants struct {
	records map[string]*tenant.Tenant
}

func (p *stubTenants) GetByID(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	record, ok := p.records[tenantID]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return record, nil
}

func newTestService(t *testing.T, caps map[string]int64, opts ...ServiceOption) *Service {
	t.Helper()

	enforcer := limits.NewEnforcer(&stubTenants{records: map[string]*tenant.Tenant{
		"t1": {ID: "t1", Status: tenant.StatusActive, Limits: caps},
		"t2": {ID: "t2", Status: tenant.StatusActive, Limits: caps},
	}})
	return NewService(NewMemoryRepository(), enforcer, opts...)
}

func defaultCaps() map[string]int64 {
	return map[string]int64{"max_products": 100}
}

var poolCtx = tenant.Context{TenantID: "t1", Tier: tenant.TierPool}

func TestService_Create(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates a product", func(t *testing.T) {
		t.Parallel()

		createTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		svc := newTestService(t, defaultCaps(), withClock(func() time.Time { return createTime }))
		p, err := svc.Create(ctx, poolCtx, CreateInput{
			Name: "Widget", Category: "tools", Price: 2500, StockQuantity: 10,
		})
		require.NoError(t, err)

		assert.NotEmpty(t, p.ID)
		assert.Equal(t, "t1", p.TenantID)
		assert.Equal(t, int64(2500), p.Price)
		assert.Equal(t, createTime, p.CreatedAt)
	})

	t.Run("validates input", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, defaultCaps())

		_, err := svc.Create(ctx, poolCtx, CreateInput{Price: 100})
		assert.ErrorIs(t, err, ErrMissingName)

		_, err = svc.Create(ctx, poolCtx, CreateInput{Name: "x", Price: -1})
		assert.ErrorIs(t, err, ErrNegativePrice)
	})

	t.Run("enforces the product cap at the boundary", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, map[string]int64{"max_products": 5})

		for range 5 {
			_, err := svc.Create(ctx, poolCtx, CreateInput{Name: "Widget"})
			require.NoError(t, err)
		}

		_, err := svc.Create(ctx, poolCtx, CreateInput{Name: "One too many"})
		require.Error(t, err)
		assert.True(t, limits.IsLimitExceeded(err))

		var exceeded *limits.LimitExceededError
		require.ErrorAs(t, err, &exceeded)
		assert.Equal(t, int64(5), exceeded.Current)
	})

	t.Run("unlimited plan has no cap", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, map[string]int64{"max_products": limits.Unlimited})
		for range 10 {
			_, err := svc.Create(ctx, poolCtx, CreateInput{Name: "Widget"})
			require.NoError(t, err)
		}
	})
}

func TestService_TenantScoping(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, defaultCaps())
	other := tenant.Context{TenantID: "t2", Tier: tenant.TierPool}

	p, err := svc.Create(ctx, poolCtx, CreateInput{Name: "Widget"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, other, p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	err = svc.Delete(ctx, other, p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	products, err := svc.List(ctx, other, Filter{})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestService_Update(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, defaultCaps())

	p, err := svc.Create(ctx, poolCtx, CreateInput{Name: "Widget", Price: 100})
	require.NoError(t, err)

	newName := "Widget Pro"
	newPrice := int64(250)
	updated, err := svc.Update(ctx, poolCtx, p.ID, UpdateInput{Name: &newName, Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, "Widget Pro", updated.Name)
	assert.Equal(t, int64(250), updated.Price)

	empty := ""
	_, err = svc.Update(ctx, poolCtx, p.ID, UpdateInput{Name: &empty})
	assert.ErrorIs(t, err, ErrMissingName)

	negative := int64(-5)
	_, err = svc.Update(ctx, poolCtx, p.ID, UpdateInput{Price: &negative})
	assert.ErrorIs(t, err, ErrNegativePrice)
}

func TestService_ListByCategory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, defaultCaps())

	for _, category := range []string{"tools", "tools", "toys"} {
		_, err := svc.Create(ctx, poolCtx, CreateInput{Name: "Widget", Category: category})
		require.NoError(t, err)
	}

	products, err := svc.List(ctx, poolCtx, Filter{Category: "tools"})
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestService_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, defaultCaps())

	p, err := svc.Create(ctx, poolCtx, CreateInput{Name: "Widget"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, poolCtx, p.ID))

	_, err = svc.Get(ctx, poolCtx, p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
