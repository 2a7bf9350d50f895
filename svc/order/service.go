package order

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantkit/pkg/isolation"
	"github.com/dmitrymomot/tenantkit/pkg/limits"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

var (
	// ErrMissingCustomer is returned when a create request carries no
	// customer email.
	ErrMissingCustomer = errors.New("order: customer_email is required")
	// ErrNoItems is returned when a create request carries no line items.
	ErrNoItems = errors.New("order: order must contain at least one item")
)

// CreateInput is the payload for creating an order.
type CreateInput struct {
	CustomerEmail string     `json:"customer_email"`
	Items         []LineItem `json:"items"`
	ShippingAddr  Address    `json:"shipping_address"`
	BillingAddr   Address    `json:"billing_address"`
}

// Service implements order operations on top of the isolation router, the
// limits enforcer, and a target-scoped repository.
type Service struct {
	repo      Repository
	enforcer  *limits.Enforcer
	calc      Calculator
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time
}

// ServiceOption configures the service.
type ServiceOption func(*Service)

// WithCalculator replaces the default flat-rate pricing policy.
func WithCalculator(calc Calculator) ServiceOption {
	return func(s *Service) {
		if calc != nil {
			s.calc = calc
		}
	}
}

// WithPublisher sets the notification channel for order events.
func WithPublisher(p Publisher) ServiceOption {
	return func(s *Service) { s.publisher = p }
}

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

// NewService creates the order service.
func NewService(repo Repository, enforcer *limits.Enforcer, opts ...ServiceOption) *Service {
	s := &Service{
		repo:     repo,
		enforcer: enforcer,
		calc:     NewFlatRateCalculator(),
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the input, checks the tenant's order cap, prices the
// items, and persists the order in status pending.
//
// The cap check is check-then-act: the count read here can be stale by the
// time the insert lands, so a tenant racing two creates for its last slot
// may briefly exceed quota. The next create re-checks and is rejected.
func (s *Service) Create(ctx context.Context, tc tenant.Context, in CreateInput) (Order, error) {
	if in.CustomerEmail == "" {
		return Order{}, ErrMissingCustomer
	}
	if len(in.Items) == 0 {
		return Order{}, ErrNoItems
	}

	target, err := isolation.TargetFor(isolation.EntityOrder, tc)
	if err != nil {
		return Order{}, err
	}

	count, err := s.repo.Count(ctx, target)
	if err != nil {
		return Order{}, err
	}
	if err := s.enforcer.AllowCreate(ctx, tc, limits.ResourceOrders, count); err != nil {
		return Order{}, err
	}

	now := s.now().UTC()
	items := make([]LineItem, len(in.Items))
	for i, item := range in.Items {
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		item.Subtotal = item.UnitPrice * item.Quantity
		items[i] = item
	}
	pricing := s.calc.Price(items)

	o := Order{
		ID:             uuid.NewString(),
		CustomerEmail:  in.CustomerEmail,
		Items:          items,
		Subtotal:       pricing.Subtotal,
		TaxAmount:      pricing.Tax,
		ShippingAmount: pricing.Shipping,
		TotalAmount:    pricing.Total,
		Status:         StatusPending,
		ShippingAddr:   in.ShippingAddr,
		BillingAddr:    in.BillingAddr,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if target.Mode == isolation.RowFilter {
		o.TenantID = tc.TenantID
	}

	if err := s.repo.Insert(ctx, target, o); err != nil {
		return Order{}, err
	}

	s.publish(ctx, tc.TenantID, o.ID, EventTypeCreated)
	return o, nil
}

// Get returns one order within the tenant's scope.
func (s *Service) Get(ctx context.Context, tc tenant.Context, orderID string) (Order, error) {
	target, err := isolation.TargetFor(isolation.EntityOrder, tc)
	if err != nil {
		return Order{}, err
	}
	return s.repo.Get(ctx, target, orderID)
}

// List returns the tenant's orders, optionally filtered by status and
// creation date range.
func (s *Service) List(ctx context.Context, tc tenant.Context, f Filter) ([]Order, error) {
	target, err := isolation.TargetFor(isolation.EntityOrder, tc)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, target, f)
}

// UpdateStatus applies a lifecycle transition. The write is conditional on
// the status read in this request: when a concurrent request already moved
// the order, the loser gets ErrConflictingTransition and should re-read
// before retrying.
func (s *Service) UpdateStatus(ctx context.Context, tc tenant.Context, orderID string, next Status) (Order, error) {
	target, err := isolation.TargetFor(isolation.EntityOrder, tc)
	if err != nil {
		return Order{}, err
	}

	current, err := s.repo.Get(ctx, target, orderID)
	if err != nil {
		return Order{}, err
	}

	now := s.now()
	updated, err := Transition(current, next, now)
	if err != nil {
		return Order{}, err
	}

	ok, err := s.repo.UpdateStatus(ctx, target, orderID, current.Status, next, now)
	if err != nil {
		return Order{}, err
	}
	if !ok {
		return Order{}, ErrConflictingTransition
	}

	s.publish(ctx, tc.TenantID, orderID, next.EventType())
	return updated, nil
}

// Cancel is a convenience wrapper for the cancelled transition.
func (s *Service) Cancel(ctx context.Context, tc tenant.Context, orderID string) (Order, error) {
	return s.UpdateStatus(ctx, tc, orderID, StatusCancelled)
}

// publish emits a domain event best-effort. The mutation already
// committed, so a publish failure is logged and swallowed.
func (s *Service) publish(ctx context.Context, tenantID, orderID, eventType string) {
	if s.publisher == nil {
		return
	}
	evt := Event{
		TenantID:  tenantID,
		OrderID:   orderID,
		EventType: eventType,
		Timestamp: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.ErrorContext(ctx, "failed to publish order event",
			"order_id", orderID, "event_type", eventType, "error", err)
	}
}
