package tenantsvc

import (
	"context"
	"encoding/json"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// psql builds parameterized statements; values never end up in query text.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const tenantsTable = "tenants"

var tenantColumns = []string{"tenant_id", "company_name", "admin_email", "plan",
	"isolation_tier", "status", "limits", "features", "created_at", "updated_at",
	"deleted_at"}

// PGStore persists tenant records in the control-plane tenants table. The
// table lives in the shared cluster's public schema regardless of the
// tenants' own isolation tiers, so it queries the shared pool directly.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a store on top of the shared cluster pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Create(ctx context.Context, t *tenant.Tenant) error {
	limits, err := json.Marshal(t.Limits)
	if err != nil {
		return err
	}
	features, err := json.Marshal(t.Features)
	if err != nil {
		return err
	}

	query, args, err := psql.Insert(tenantsTable).
		Columns(tenantColumns...).
		Values(t.ID, t.CompanyName, t.AdminEmail, t.Plan, t.IsolationTier,
			t.Status, limits, features, t.CreatedAt, t.UpdatedAt, t.DeletedAt).
		ToSql()
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, query, args...)
	return err
}

func (s *PGStore) Update(ctx context.Context, t *tenant.Tenant) error {
	limits, err := json.Marshal(t.Limits)
	if err != nil {
		return err
	}
	features, err := json.Marshal(t.Features)
	if err != nil {
		return err
	}

	query, args, err := psql.Update(tenantsTable).
		Set("company_name", t.CompanyName).
		Set("admin_email", t.AdminEmail).
		Set("plan", t.Plan).
		Set("isolation_tier", t.IsolationTier).
		Set("status", t.Status).
		Set("limits", limits).
		Set("features", features).
		Set("updated_at", t.UpdatedAt).
		Set("deleted_at", t.DeletedAt).
		Where(sq.Eq{"tenant_id": t.ID}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}

func (s *PGStore) GetByID(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	query, args, err := psql.Select(tenantColumns...).
		From(tenantsTable).
		Where(sq.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var (
		t        tenant.Tenant
		limits   []byte
		features []byte
	)
	err = s.pool.QueryRow(ctx, query, args...).Scan(
		&t.ID, &t.CompanyName, &t.AdminEmail, &t.Plan, &t.IsolationTier,
		&t.Status, &limits, &features, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(limits, &t.Limits); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(features, &t.Features); err != nil {
		return nil, err
	}
	return &t, nil
}
