package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrymomot/tenantkit/pkg/isolation"
)

// MemoryRepository keeps orders in memory, partitioned by storage target
// the same way the physical stores are: pool-tier rows live in one shared
// bucket and are filtered by tenant id, bridge and silo targets each get
// their own bucket. Used in tests and local development.
type MemoryRepository struct {
	mu      sync.Mutex
	buckets map[string]map[string]Order
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{buckets: make(map[string]map[string]Order)}
}

// bucketKey emulates physical placement: pool-tier targets share a bucket
// per table, scoped targets get one per schema or database.
func bucketKey(target isolation.StorageTarget) string {
	if target.Mode == isolation.RowFilter {
		return "shared/" + target.PhysicalName
	}
	return string(target.Mode) + "/" + target.ScopeValue + "/" + target.PhysicalName
}

// visible reports whether an order stored in the target's bucket belongs to
// the requesting tenant.
func visible(target isolation.StorageTarget, o Order) bool {
	if target.Mode == isolation.RowFilter {
		return o.TenantID == target.ScopeValue
	}
	return true
}

func (r *MemoryRepository) Insert(ctx context.Context, target isolation.StorageTarget, o Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.buckets[bucketKey(target)]
	if !ok {
		bucket = make(map[string]Order)
		r.buckets[bucketKey(target)] = bucket
	}
	bucket[o.ID] = o
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, target isolation.StorageTarget, orderID string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.buckets[bucketKey(target)][orderID]
	if !ok || !visible(target, o) {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (r *MemoryRepository) List(ctx context.Context, target isolation.StorageTarget, f Filter) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var orders []Order
	for _, o := range r.buckets[bucketKey(target)] {
		if !visible(target, o) {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if !f.FromDate.IsZero() && o.CreatedAt.Before(f.FromDate) {
			continue
		}
		if !f.ToDate.IsZero() && o.CreatedAt.After(f.ToDate) {
			continue
		}
		orders = append(orders, o)
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	if f.Offset > 0 {
		if f.Offset >= len(orders) {
			return nil, nil
		}
		orders = orders[f.Offset:]
	}
	if f.Limit > 0 && len(orders) > f.Limit {
		orders = orders[:f.Limit]
	}
	return orders, nil
}

func (r *MemoryRepository) Count(ctx context.Context, target isolation.StorageTarget) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, o := range r.buckets[bucketKey(target)] {
		if visible(target, o) {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, target isolation.StorageTarget, orderID string, expected, next Status, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := r.buckets[bucketKey(target)]
	o, ok := bucket[orderID]
	if !ok || !visible(target, o) {
		return false, ErrOrderNotFound
	}
	// Optimistic precondition: the compare and the write are atomic under
	// the repository lock, mirroring the conditional UPDATE in PostgreSQL.
	if o.Status != expected {
		return false, nil
	}
	o.Status = next
	o.UpdatedAt = now.UTC()
	bucket[orderID] = o
	return true, nil
}
