package limits_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/limits"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

type stubProvider struct {
	records map[string]*tenant.Tenant
}

func (p *stubProvider) GetByID(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	record, ok := p.records[tenantID]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return record, nil
}

func activeTenant(id string, caps map[string]int64) *tenant.Tenant {
	return &tenant.Tenant{
		ID:     id,
		Status: tenant.StatusActive,
		Limits: caps,
	}
}

func TestAllowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		limit   int64
		current int64
		want    bool
	}{
		{"unlimited always allows", limits.Unlimited, 1 << 40, true},
		{"below cap", 5, 4, true},
		{"at cap", 5, 5, false},
		{"over cap", 5, 6, false},
		{"zero cap", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, limits.Allowed(tt.limit, tt.current))
		})
	}
}

func TestEnforcer_AllowCreate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tc := tenant.Context{TenantID: "t1", Tier: tenant.TierPool}

	t.Run("allows below cap", func(t *testing.T) {
		t.Parallel()

		enforcer := limits.NewEnforcer(&stubProvider{records: map[string]*tenant.Tenant{
			"t1": activeTenant("t1", map[string]int64{"max_products": 5}),
		}})
		assert.NoError(t, enforcer.AllowCreate(ctx, tc, limits.ResourceProducts, 4))
	})

	t.Run("rejects at cap with usage details", func(t *testing.T) {
		t.Parallel()

		enforcer := limits.NewEnforcer(&stubProvider{records: map[string]*tenant.Tenant{
			"t1": activeTenant("t1", map[string]int64{"max_products": 5}),
		}})

		err := enforcer.AllowCreate(ctx, tc, limits.ResourceProducts, 5)
		require.Error(t, err)
		assert.True(t, limits.IsLimitExceeded(err))

		var exceeded *limits.LimitExceededError
		require.ErrorAs(t, err, &exceeded)
		assert.Equal(t, int64(5), exceeded.Limit)
		assert.Equal(t, int64(5), exceeded.Current)
	})

	t.Run("unlimited cap", func(t *testing.T) {
		t.Parallel()

		enforcer := limits.NewEnforcer(&stubProvider{records: map[string]*tenant.Tenant{
			"t1": activeTenant("t1", map[string]int64{"max_orders": limits.Unlimited}),
		}})
		assert.NoError(t, enforcer.AllowCreate(ctx, tc, limits.ResourceOrders, 1_000_000))
	})

	t.Run("unknown tenant", func(t *testing.T) {
		t.Parallel()

		enforcer := limits.NewEnforcer(&stubProvider{records: map[string]*tenant.Tenant{}})
		err := enforcer.AllowCreate(ctx, tc, limits.ResourceProducts, 0)
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
	})

	t.Run("inactive tenant", func(t *testing.T) {
		t.Parallel()

		suspended := activeTenant("t1", map[string]int64{"max_products": 5})
		suspended.Status = tenant.StatusSuspended

		enforcer := limits.NewEnforcer(&stubProvider{records: map[string]*tenant.Tenant{
			"t1": suspended,
		}})
		err := enforcer.AllowCreate(ctx, tc, limits.ResourceProducts, 0)
		assert.ErrorIs(t, err, tenant.ErrTenantInactive)
	})

	t.Run("unknown resource kind", func(t *testing.T) {
		t.Parallel()

		enforcer := limits.NewEnforcer(&stubProvider{records: map[string]*tenant.Tenant{
			"t1": activeTenant("t1", map[string]int64{"max_products": 5}),
		}})
		err := enforcer.AllowCreate(ctx, tc, limits.Resource("max_widgets"), 0)
		assert.ErrorIs(t, err, limits.ErrUnknownResource)
	})
}
