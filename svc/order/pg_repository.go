package order

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/tenantkit/pkg/isolation"
	"github.com/dmitrymomot/tenantkit/pkg/pg"
)

// psql builds parameterized statements; values never end up in query text.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PGRepository stores orders in PostgreSQL through the scoped connection
// provider. The row_filter predicate is applied in every statement built
// here; the session-level RLS marker set by the provider is only a second
// line of defense.
type PGRepository struct {
	provider *pg.Provider
}

// NewPGRepository creates a repository on top of the connection provider.
func NewPGRepository(provider *pg.Provider) *PGRepository {
	return &PGRepository{provider: provider}
}

func (r *PGRepository) Insert(ctx context.Context, target isolation.StorageTarget, o Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	shipping, err := json.Marshal(o.ShippingAddr)
	if err != nil {
		return err
	}
	billing, err := json.Marshal(o.BillingAddr)
	if err != nil {
		return err
	}

	builder := psql.Insert(tableName(target)).
		Columns("order_id", "customer_email", "items", "subtotal", "tax_amount",
			"shipping_amount", "total_amount", "status", "shipping_address",
			"billing_address", "created_at", "updated_at").
		Values(o.ID, o.CustomerEmail, items, o.Subtotal, o.TaxAmount,
			o.ShippingAmount, o.TotalAmount, o.Status, shipping,
			billing, o.CreatedAt, o.UpdatedAt)
	if target.Mode == isolation.RowFilter {
		builder = psql.Insert(tableName(target)).
			Columns(isolation.TenantIDColumn, "order_id", "customer_email", "items",
				"subtotal", "tax_amount", "shipping_amount", "total_amount", "status",
				"shipping_address", "billing_address", "created_at", "updated_at").
			Values(target.ScopeValue, o.ID, o.CustomerEmail, items, o.Subtotal,
				o.TaxAmount, o.ShippingAmount, o.TotalAmount, o.Status, shipping,
				billing, o.CreatedAt, o.UpdatedAt)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	return r.provider.WithConn(ctx, target, func(ctx context.Context, conn *pg.Conn) error {
		_, err := conn.Exec(ctx, query, args...)
		return err
	})
}

func (r *PGRepository) Get(ctx context.Context, target isolation.StorageTarget, orderID string) (Order, error) {
	builder := tenantScoped(
		psql.Select(selectColumns(target)...).From(tableName(target)),
		target,
	).Where(sq.Eq{"order_id": orderID})

	query, args, err := builder.ToSql()
	if err != nil {
		return Order{}, err
	}

	var o Order
	err = r.provider.WithConn(ctx, target, func(ctx context.Context, conn *pg.Conn) error {
		row := conn.QueryRow(ctx, query, args...)
		var scanErr error
		o, scanErr = scanOrder(row, target.Mode == isolation.RowFilter)
		return scanErr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}
	return o, nil
}

func (r *PGRepository) List(ctx context.Context, target isolation.StorageTarget, f Filter) ([]Order, error) {
	builder := tenantScoped(
		psql.Select(selectColumns(target)...).From(tableName(target)),
		target,
	)
	if f.Status != "" {
		builder = builder.Where(sq.Eq{"status": f.Status})
	}
	if !f.FromDate.IsZero() {
		builder = builder.Where(sq.GtOrEq{"created_at": f.FromDate})
	}
	if !f.ToDate.IsZero() {
		builder = builder.Where(sq.LtOrEq{"created_at": f.ToDate})
	}
	builder = builder.OrderBy("created_at DESC")
	if f.Limit > 0 {
		builder = builder.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		builder = builder.Offset(uint64(f.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var orders []Order
	err = r.provider.WithConn(ctx, target, func(ctx context.Context, conn *pg.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		withTenant := target.Mode == isolation.RowFilter
		for rows.Next() {
			o, err := scanOrder(rows, withTenant)
			if err != nil {
				return err
			}
			orders = append(orders, o)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *PGRepository) Count(ctx context.Context, target isolation.StorageTarget) (int64, error) {
	builder := tenantScoped(
		psql.Select("COUNT(*)").From(tableName(target)),
		target,
	)
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}

	var count int64
	err = r.provider.WithConn(ctx, target, func(ctx context.Context, conn *pg.Conn) error {
		return conn.QueryRow(ctx, query, args...).Scan(&count)
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, target isolation.StorageTarget, orderID string, expected, next Status, now time.Time) (bool, error) {
	// The WHERE clause carries the status last read: if a concurrent
	// request already moved the order, zero rows match and the caller
	// reports the conflict instead of silently overwriting.
	builder := psql.Update(tableName(target)).
		Set("status", next).
		Set("updated_at", now.UTC()).
		Where(sq.Eq{"order_id": orderID, "status": expected})
	if target.Mode == isolation.RowFilter {
		builder = builder.Where(sq.Eq{isolation.TenantIDColumn: target.ScopeValue})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return false, err
	}

	var updated bool
	err = r.provider.WithConn(ctx, target, func(ctx context.Context, conn *pg.Conn) error {
		tag, err := conn.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		updated = tag.RowsAffected() == 1
		return nil
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

// tableName quotes the physical table name resolved by the router.
func tableName(target isolation.StorageTarget) string {
	return pgx.Identifier{target.PhysicalName}.Sanitize()
}

// tenantScoped adds the mandatory tenant predicate on pool-tier targets.
// Bridge and silo targets are isolated structurally and take no predicate.
func tenantScoped(builder sq.SelectBuilder, target isolation.StorageTarget) sq.SelectBuilder {
	if target.Mode == isolation.RowFilter {
		return builder.Where(sq.Eq{isolation.TenantIDColumn: target.ScopeValue})
	}
	return builder
}

func selectColumns(target isolation.StorageTarget) []string {
	columns := []string{"order_id", "customer_email", "items", "subtotal", "tax_amount",
		"shipping_amount", "total_amount", "status", "shipping_address",
		"billing_address", "created_at", "updated_at"}
	if target.Mode == isolation.RowFilter {
		return append([]string{isolation.TenantIDColumn}, columns...)
	}
	return columns
}

func scanOrder(row pgx.Row, withTenant bool) (Order, error) {
	var (
		o        Order
		items    []byte
		shipping []byte
		billing  []byte
	)

	dest := []any{&o.ID, &o.CustomerEmail, &items, &o.Subtotal, &o.TaxAmount,
		&o.ShippingAmount, &o.TotalAmount, &o.Status, &shipping,
		&billing, &o.CreatedAt, &o.UpdatedAt}
	if withTenant {
		dest = append([]any{&o.TenantID}, dest...)
	}

	if err := row.Scan(dest...); err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(shipping, &o.ShippingAddr); err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(billing, &o.BillingAddr); err != nil {
		return Order{}, err
	}
	return o, nil
}
