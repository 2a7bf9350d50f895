package user

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantkit/pkg/isolation"
	"github.com/dmitrymomot/tenantkit/pkg/limits"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// CreateInput is the payload for creating a user.
type CreateInput struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// UpdateInput carries the mutable user fields; nil means unchanged.
type UpdateInput struct {
	Name   *string `json:"name,omitempty"`
	Role   *string `json:"role,omitempty"`
	Status *string `json:"status,omitempty"`
}

// Service implements user management on top of the isolation router, the
// limits enforcer, and a target-scoped repository.
type Service struct {
	repo     Repository
	enforcer *limits.Enforcer
	log      *slog.Logger
	now      func() time.Time
}

// ServiceOption configures the service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// withClock overrides the clock in tests.
func withClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates the user management service.
func NewService(repo Repository, enforcer *limits.Enforcer, opts ...ServiceOption) *Service {
	s := &Service{
		repo:     repo,
		enforcer: enforcer,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the input, checks the tenant's user cap, and persists
// the user. The cap check is check-then-act; see the limits package for
// the consistency trade-off.
func (s *Service) Create(ctx context.Context, tc tenant.Context, in CreateInput) (User, error) {
	if in.Email == "" || in.Name == "" {
		return User{}, ErrMissingFields
	}

	target, err := isolation.TargetFor(isolation.EntityUser, tc)
	if err != nil {
		return User{}, err
	}

	count, err := s.repo.Count(ctx, target)
	if err != nil {
		return User{}, err
	}
	if err := s.enforcer.AllowCreate(ctx, tc, limits.ResourceUsers, count); err != nil {
		return User{}, err
	}

	role := in.Role
	if role == "" {
		role = DefaultRole
	}

	now := s.now().UTC()
	u := User{
		ID:        uuid.NewString(),
		Email:     in.Email,
		Name:      in.Name,
		Role:      role,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if target.Mode == isolation.RowFilter {
		u.TenantID = tc.TenantID
	}

	if err := s.repo.Insert(ctx, target, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Get returns one user within the tenant's scope.
func (s *Service) Get(ctx context.Context, tc tenant.Context, userID string) (User, error) {
	target, err := isolation.TargetFor(isolation.EntityUser, tc)
	if err != nil {
		return User{}, err
	}
	return s.repo.Get(ctx, target, userID)
}

// List returns the tenant's users, optionally filtered by role and status.
func (s *Service) List(ctx context.Context, tc tenant.Context, f Filter) ([]User, error) {
	target, err := isolation.TargetFor(isolation.EntityUser, tc)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, target, f)
}

// Update overwrites mutable fields of an existing user. At least one field
// must be set.
func (s *Service) Update(ctx context.Context, tc tenant.Context, userID string, in UpdateInput) (User, error) {
	if in.Name == nil && in.Role == nil && in.Status == nil {
		return User{}, ErrNoFields
	}

	target, err := isolation.TargetFor(isolation.EntityUser, tc)
	if err != nil {
		return User{}, err
	}

	u, err := s.repo.Get(ctx, target, userID)
	if err != nil {
		return User{}, err
	}

	if in.Name != nil {
		if *in.Name == "" {
			return User{}, ErrMissingFields
		}
		u.Name = *in.Name
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	if in.Status != nil {
		u.Status = *in.Status
	}
	u.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, target, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Delete soft-deletes a user: the row stays for audit, status flips to
// deleted.
func (s *Service) Delete(ctx context.Context, tc tenant.Context, userID string) error {
	target, err := isolation.TargetFor(isolation.EntityUser, tc)
	if err != nil {
		return err
	}

	u, err := s.repo.Get(ctx, target, userID)
	if err != nil {
		return err
	}

	u.Status = StatusDeleted
	u.UpdatedAt = s.now().UTC()
	return s.repo.Update(ctx, target, u)
}
