package user

import (
	"context"

	"github.com/dmitrymomot/tenantkit/pkg/isolation"
)

// Repository persists users against a resolved storage target. The target
// carries where the rows live and how they are scoped; the implementation
// must honor it on every statement.
type Repository interface {
	// Insert stores a new user. Returns ErrDuplicateEmail when the email
	// is already taken within the target's scope.
	Insert(ctx context.Context, target isolation.StorageTarget, u User) error
	// Get returns one user, or ErrUserNotFound.
	Get(ctx context.Context, target isolation.StorageTarget, userID string) (User, error)
	List(ctx context.Context, target isolation.StorageTarget, f Filter) ([]User, error)
	Count(ctx context.Context, target isolation.StorageTarget) (int64, error)
	// Update overwrites the mutable fields of an existing user. Returns
	// ErrUserNotFound if no row matches within scope.
	Update(ctx context.Context, target isolation.StorageTarget, u User) error
}
