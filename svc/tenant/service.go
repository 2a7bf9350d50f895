package tenantsvc

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantkit/pkg/queue"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Asynchronous work items handed off during onboarding and offboarding.
const (
	// TaskProvisionSilo creates the dedicated database for a silo tenant
	// and flips the tenant to active once it is reachable.
	TaskProvisionSilo = "tenant.provision_silo"
	// TaskCleanup removes a soft-deleted tenant's data after the retention
	// window.
	TaskCleanup = "tenant.cleanup"
)

// ProvisionPayload is the payload for TaskProvisionSilo.
type ProvisionPayload struct {
	TenantID string `json:"tenant_id"`
	Plan     string `json:"plan"`
}

// CleanupPayload is the payload for TaskCleanup.
type CleanupPayload struct {
	TenantID      string      `json:"tenant_id"`
	IsolationTier tenant.Tier `json:"isolation_tier"`
	DeletedAt     time.Time   `json:"deleted_at"`
}

// RegisterInput is the onboarding payload.
type RegisterInput struct {
	CompanyName   string      `json:"company_name"`
	AdminEmail    string      `json:"admin_email"`
	Plan          string      `json:"tier"`
	IsolationTier tenant.Tier `json:"isolation_model,omitempty"` // optional override
}

// UpdateInput carries the mutable tenant fields; nil means unchanged.
type UpdateInput struct {
	CompanyName *string        `json:"company_name,omitempty"`
	AdminEmail  *string        `json:"admin_email,omitempty"`
	Plan        *string        `json:"tier,omitempty"`
	Status      *tenant.Status `json:"status,omitempty"`
}

// Service owns the tenant lifecycle. Writes go through the store; slow
// provisioning and cleanup work is enqueued for asynchronous workers so the
// request path stays fast and the hand-off survives a crash.
type Service struct {
	store    Store
	enqueuer *queue.Enqueuer
	cache    tenant.Cache
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

// WithRecordCache sets the tenant record cache shared with the record-loader
// middleware. Entries are invalidated after every successful mutation so a
// suspension or plan change takes effect on the next request instead of
// after the cache TTL.
func WithRecordCache(cache tenant.Cache) ServiceOption {
	return func(s *Service) { s.cache = cache }
}

// withClock overrides the clock in tests.
func withClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates the tenant management service.
func NewService(store Store, enqueuer *queue.Enqueuer, opts ...ServiceOption) *Service {
	s := &Service{
		store:    store,
		enqueuer: enqueuer,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register onboards a new tenant. Limits and features are derived from the
// plan; the isolation tier defaults from the plan unless overridden. Pool
// and bridge tenants are active immediately because their storage already
// exists; silo tenants start in provisioning until the worker creates their
// database.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*tenant.Tenant, error) {
	if in.CompanyName == "" || in.AdminEmail == "" {
		return nil, ErrMissingFields
	}

	plan := in.Plan
	if plan == "" {
		plan = PlanBasic
	}

	tier := in.IsolationTier
	if tier == "" {
		tier = DefaultIsolation(plan)
	}
	if !tier.Valid() {
		return nil, ErrInvalidTier
	}

	now := s.now().UTC()
	t := &tenant.Tenant{
		ID:            uuid.NewString(),
		CompanyName:   in.CompanyName,
		AdminEmail:    in.AdminEmail,
		Plan:          plan,
		IsolationTier: tier,
		Status:        tenant.StatusActive,
		Limits:        PlanLimits(plan),
		Features:      PlanFeatures(plan),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if tier == tenant.TierSilo {
		t.Status = tenant.StatusProvisioning
	}

	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}

	if tier == tenant.TierSilo && s.enqueuer != nil {
		err := s.enqueuer.Enqueue(ctx, TaskProvisionSilo, ProvisionPayload{
			TenantID: t.ID,
			Plan:     plan,
		})
		if err != nil {
			// The record exists either way; the stuck provisioning status
			// makes the failed hand-off visible to operators.
			s.log.ErrorContext(ctx, "failed to enqueue silo provisioning",
				"tenant_id", t.ID, "error", err)
		}
	}

	s.log.InfoContext(ctx, "tenant registered",
		"tenant_id", t.ID, "plan", plan, "isolation_tier", tier)
	return t, nil
}

// Get returns a tenant record. Callers may only read the tenant they are
// authenticated for.
func (s *Service) Get(ctx context.Context, tc tenant.Context, tenantID string) (*tenant.Tenant, error) {
	if tc.TenantID != tenantID {
		return nil, ErrAccessDenied
	}
	return s.store.GetByID(ctx, tenantID)
}

// Update changes mutable tenant fields. A plan change re-derives limits and
// features from the new plan's tables; manual per-tenant overrides are not
// kept. Status moves only between active and suspended here.
func (s *Service) Update(ctx context.Context, tc tenant.Context, tenantID string, in UpdateInput) (*tenant.Tenant, error) {
	if tc.TenantID != tenantID {
		return nil, ErrAccessDenied
	}

	t, err := s.store.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if in.CompanyName != nil {
		t.CompanyName = *in.CompanyName
	}
	if in.AdminEmail != nil {
		t.AdminEmail = *in.AdminEmail
	}
	if in.Plan != nil && *in.Plan != t.Plan {
		t.Plan = *in.Plan
		t.Limits = PlanLimits(*in.Plan)
		t.Features = PlanFeatures(*in.Plan)
	}
	if in.Status != nil {
		if *in.Status != tenant.StatusActive && *in.Status != tenant.StatusSuspended {
			return nil, ErrInvalidStatus
		}
		t.Status = *in.Status
	}
	t.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, t); err != nil {
		return nil, err
	}
	s.invalidate(ctx, tenantID)
	return t, nil
}

// Delete soft-deletes a tenant: the record is marked deleted and a durable
// cleanup task is stored for the offboarding worker. Data removal is not
// immediate; the retention window lets accidental deletions be reversed.
func (s *Service) Delete(ctx context.Context, tc tenant.Context, tenantID string) error {
	if tc.TenantID != tenantID {
		return ErrAccessDenied
	}

	t, err := s.store.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	t.Status = tenant.StatusDeleted
	t.DeletedAt = &now
	t.UpdatedAt = now

	if err := s.store.Update(ctx, t); err != nil {
		return err
	}
	s.invalidate(ctx, tenantID)

	if s.enqueuer != nil {
		err := s.enqueuer.Enqueue(ctx, TaskCleanup, CleanupPayload{
			TenantID:      t.ID,
			IsolationTier: t.IsolationTier,
			DeletedAt:     now,
		})
		if err != nil {
			s.log.ErrorContext(ctx, "failed to enqueue tenant cleanup",
				"tenant_id", t.ID, "error", err)
		}
	}

	s.log.InfoContext(ctx, "tenant soft-deleted", "tenant_id", t.ID)
	return nil
}

// invalidate drops the cached record so middleware sees the new state on
// the next request.
func (s *Service) invalidate(ctx context.Context, tenantID string) {
	if s.cache != nil {
		s.cache.Delete(ctx, tenantID)
	}
}
