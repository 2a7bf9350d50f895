package tenantsvc

import (
	"context"
	"maps"
	"sync"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Store persists tenant records. It extends the read-only provider used by
// the limits enforcer with the writes the management service needs.
type Store interface {
	tenant.Provider

	// Create inserts a new tenant record.
	Create(ctx context.Context, t *tenant.Tenant) error
	// Update overwrites an existing tenant record.
	// Returns tenant.ErrTenantNotFound if no tenant matches.
	Update(ctx context.Context, t *tenant.Tenant) error
}

// MemoryStore keeps tenant records in memory, for tests and local
// development.
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[string]tenant.Tenant
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tenants: make(map[string]tenant.Tenant)}
}

func (s *MemoryStore) Create(ctx context.Context, t *tenant.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.ID] = cloneTenant(t)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, t *tenant.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[t.ID]; !ok {
		return tenant.ErrTenantNotFound
	}
	s.tenants[t.ID] = cloneTenant(t)
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	out := cloneTenant(&t)
	return &out, nil
}

func cloneTenant(t *tenant.Tenant) tenant.Tenant {
	out := *t
	out.Limits = maps.Clone(t.Limits)
	out.Features = maps.Clone(t.Features)
	if t.DeletedAt != nil {
		deleted := *t.DeletedAt
		out.DeletedAt = &deleted
	}
	return out
}
