package product

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantkit/pkg/isolation"
	"github.com/dmitrymomot/tenantkit/pkg/limits"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// CreateInput is the payload for creating a product.
type CreateInput struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	SKU           string `json:"sku"`
	Category      string `json:"category"`
	Price         int64  `json:"price"`
	StockQuantity int64  `json:"stock_quantity"`
}

// UpdateInput carries the mutable product fields; nil means unchanged.
type UpdateInput struct {
	Name          *string `json:"name,omitempty"`
	Description   *string `json:"description,omitempty"`
	SKU           *string `json:"sku,omitempty"`
	Category      *string `json:"category,omitempty"`
	Price         *int64  `json:"price,omitempty"`
	StockQuantity *int64  `json:"stock_quantity,omitempty"`
}

// Service implements catalog operations on top of the isolation router, the
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

// NewService creates the product service.
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

// Create validates the input, checks the tenant's product cap, and persists
// the product. The cap check is check-then-act; see the limits package for
// the consistency trade-off.
func (s *Service) Create(ctx context.Context, tc tenant.Context, in CreateInput) (Product, error) {
	if in.Name == "" {
		return Product{}, ErrMissingName
	}
	if in.Price < 0 {
		return Product{}, ErrNegativePrice
	}

	target, err := isolation.TargetFor(isolation.EntityProduct, tc)
	if err != nil {
		return Product{}, err
	}

	count, err := s.repo.Count(ctx, target)
	if err != nil {
		return Product{}, err
	}
	if err := s.enforcer.AllowCreate(ctx, tc, limits.ResourceProducts, count); err != nil {
		return Product{}, err
	}

	now := s.now().UTC()
	p := Product{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Description:   in.Description,
		SKU:           in.SKU,
		Category:      in.Category,
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if target.Mode == isolation.RowFilter {
		p.TenantID = tc.TenantID
	}

	if err := s.repo.Insert(ctx, target, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Get returns one product within the tenant's scope.
func (s *Service) Get(ctx context.Context, tc tenant.Context, productID string) (Product, error) {
	target, err := isolation.TargetFor(isolation.EntityProduct, tc)
	if err != nil {
		return Product{}, err
	}
	return s.repo.Get(ctx, target, productID)
}

// List returns the tenant's products, optionally filtered by category.
func (s *Service) List(ctx context.Context, tc tenant.Context, f Filter) ([]Product, error) {
	target, err := isolation.TargetFor(isolation.EntityProduct, tc)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, target, f)
}

// Update overwrites mutable fields of an existing product.
func (s *Service) Update(ctx context.Context, tc tenant.Context, productID string, in UpdateInput) (Product, error) {
	target, err := isolation.TargetFor(isolation.EntityProduct, tc)
	if err != nil {
		return Product{}, err
	}

	p, err := s.repo.Get(ctx, target, productID)
	if err != nil {
		return Product{}, err
	}

	if in.Name != nil {
		if *in.Name == "" {
			return Product{}, ErrMissingName
		}
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.SKU != nil {
		p.SKU = *in.SKU
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return Product{}, ErrNegativePrice
		}
		p.Price = *in.Price
	}
	if in.StockQuantity != nil {
		p.StockQuantity = *in.StockQuantity
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, target, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Delete removes a product from the catalog.
func (s *Service) Delete(ctx context.Context, tc tenant.Context, productID string) error {
	target, err := isolation.TargetFor(isolation.EntityProduct, tc)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, target, productID)
}
