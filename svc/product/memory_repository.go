package product

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrymomot/tenantkit/pkg/isolation"
)

// MemoryRepository keeps products in memory, partitioned by storage target
// the same way the physical stores are. Used in tests and local development.
type MemoryRepository struct {
	mu      sync.Mutex
	buckets map[string]map[string]Product
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{buckets: make(map[string]map[string]Product)}
}

func bucketKey(target isolation.StorageTarget) string {
	if target.Mode == isolation.RowFilter {
		return "shared/" + target.PhysicalName
	}
	return string(target.Mode) + "/" + target.ScopeValue + "/" + target.PhysicalName
}

func visible(target isolation.StorageTarget, p Product) bool {
	if target.Mode == isolation.RowFilter {
		return p.TenantID == target.ScopeValue
	}
	return true
}

func (r *MemoryRepository) Insert(ctx context.Context, target isolation.StorageTarget, p Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.buckets[bucketKey(target)]
	if !ok {
		bucket = make(map[string]Product)
		r.buckets[bucketKey(target)] = bucket
	}
	bucket[p.ID] = p
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, target isolation.StorageTarget, productID string) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.buckets[bucketKey(target)][productID]
	if !ok || !visible(target, p) {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (r *MemoryRepository) List(ctx context.Context, target isolation.StorageTarget, f Filter) ([]Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var products []Product
	for _, p := range r.buckets[bucketKey(target)] {
		if !visible(target, p) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		products = append(products, p)
	}

	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})

	if f.Offset > 0 {
		if f.Offset >= len(products) {
			return nil, nil
		}
		products = products[f.Offset:]
	}
	if f.Limit > 0 && len(products) > f.Limit {
		products = products[:f.Limit]
	}
	return products, nil
}

func (r *MemoryRepository) Count(ctx context.Context, target isolation.StorageTarget) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, p := range r.buckets[bucketKey(target)] {
		if visible(target, p) {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepository) Update(ctx context.Context, target isolation.StorageTarget, p Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := r.buckets[bucketKey(target)]
	existing, ok := bucket[p.ID]
	if !ok || !visible(target, existing) {
		return ErrProductNotFound
	}
	bucket[p.ID] = p
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, target isolation.StorageTarget, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := r.buckets[bucketKey(target)]
	p, ok := bucket[productID]
	if !ok || !visible(target, p) {
		return ErrProductNotFound
	}
	delete(bucket, productID)
	return nil
}
