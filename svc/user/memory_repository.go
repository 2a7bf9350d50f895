package user

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrymomot/tenantkit/pkg/isolation"
)

// MemoryRepository keeps users in memory, partitioned by storage target the
// same way the physical stores are. Used in tests and local development.
type MemoryRepository struct {
	mu      sync.Mutex
	buckets map[string]map[string]User
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{buckets: make(map[string]map[string]User)}
}

func bucketKey(target isolation.StorageTarget) string {
	if target.Mode == isolation.RowFilter {
		return "shared/" + target.PhysicalName
	}
	return string(target.Mode) + "/" + target.ScopeValue + "/" + target.PhysicalName
}

func visible(target isolation.StorageTarget, u User) bool {
	if target.Mode == isolation.RowFilter {
		return u.TenantID == target.ScopeValue
	}
	return true
}

func (r *MemoryRepository) Insert(ctx context.Context, target isolation.StorageTarget, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.buckets[bucketKey(target)]
	if !ok {
		bucket = make(map[string]User)
		r.buckets[bucketKey(target)] = bucket
	}
	for _, existing := range bucket {
		if visible(target, existing) && existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	bucket[u.ID] = u
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, target isolation.StorageTarget, userID string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.buckets[bucketKey(target)][userID]
	if !ok || !visible(target, u) {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryRepository) List(ctx context.Context, target isolation.StorageTarget, f Filter) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var users []User
	for _, u := range r.buckets[bucketKey(target)] {
		if !visible(target, u) {
			continue
		}
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		users = append(users, u)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})

	if f.Offset > 0 {
		if f.Offset >= len(users) {
			return nil, nil
		}
		users = users[f.Offset:]
	}
	if f.Limit > 0 && len(users) > f.Limit {
		users = users[:f.Limit]
	}
	return users, nil
}

func (r *MemoryRepository) Count(ctx context.Context, target isolation.StorageTarget) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, u := range r.buckets[bucketKey(target)] {
		if visible(target, u) {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepository) Update(ctx context.Context, target isolation.StorageTarget, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := r.buckets[bucketKey(target)]
	existing, ok := bucket[u.ID]
	if !ok || !visible(target, existing) {
		return ErrUserNotFound
	}
	bucket[u.ID] = u
	return nil
}
