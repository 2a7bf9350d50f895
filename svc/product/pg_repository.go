package product

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/tenantkit/pkg/isolation"
	"github.com/dmitrymomot/tenantkit/pkg/pg"
)

// psql builds parameterized statements; values never end up in query text.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PGRepository stores products in PostgreSQL through the scoped connection
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

func (r *PGRepository) Insert(ctx context.Context, target isolation.StorageTarget, p Product) error {
	builder := psql.Insert(tableName(target)).
		Columns("product_id", "name", "description", "sku", "category", "price",
			"stock_quantity", "created_at", "updated_at").
		Values(p.ID, p.Name, p.Description, p.SKU, p.Category, p.Price,
			p.StockQuantity, p.CreatedAt, p.UpdatedAt)
	if target.Mode == isolation.RowFilter {
		builder = psql.Insert(tableName(target)).
			Columns(isolation.TenantIDColumn, "product_id", "name", "description",
				"sku", "category", "price", "stock_quantity", "created_at", "updated_at").
			Values(target.ScopeValue, p.ID, p.Name, p.Description, p.SKU,
				p.Category, p.Price, p.StockQuantity, p.CreatedAt, p.UpdatedAt)
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

func (r *PGRepository) Get(ctx context.Context, target isolation.StorageTarget, productID string) (Product, error) {
	builder := tenantScoped(
		psql.Select(selectColumns(target)...).From(tableName(target)),
		target,
	).Where(sq.Eq{"product_id": productID})

	query, args, err := builder.ToSql()
	if err != nil {
		return Product{}, err
	}

	var p Product
	err = r.provider.WithConn(ctx, target, func(ctx context.Context, conn *pg.Conn) error {
		row := conn.QueryRow(ctx, query, args...)
		var scanErr error
		p, scanErr = scanProduct(row, target.Mode == isolation.RowFilter)
		return scanErr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *PGRepository) List(ctx context.Context, target isolation.StorageTarget, f Filter) ([]Product, error) {
	builder := tenantScoped(
		psql.Select(selectColumns(target)...).From(tableName(target)),
		target,
	)
	if f.Category != "" {
		builder = builder.Where(sq.Eq{"category": f.Category})
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

	var products []Product
	err = r.provider.WithConn(ctx, target, func(ctx context.Context, conn *pg.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		withTenant := target.Mode == isolation.RowFilter
		for rows.Next() {
			p, err := scanProduct(rows, withTenant)
			if err != nil {
				return err
			}
			products = append(products, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return products, nil
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

func (r *PGRepository) Update(ctx context.Context, target isolation.StorageTarget, p Product) error {
	builder := psql.Update(tableName(target)).
		Set("name", p.Name).
		Set("description", p.Description).
		Set("sku", p.SKU).
		Set("category", p.Category).
		Set("price", p.Price).
		Set("stock_quantity", p.StockQuantity).
		Set("updated_at", p.UpdatedAt).
		Where(sq.Eq{"product_id": p.ID})
	if target.Mode == isolation.RowFilter {
		builder = builder.Where(sq.Eq{isolation.TenantIDColumn: target.ScopeValue})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return err
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
		return err
	}
	if !updated {
		return ErrProductNotFound
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, target isolation.StorageTarget, productID string) error {
	builder := psql.Delete(tableName(target)).
		Where(sq.Eq{"product_id": productID})
	if target.Mode == isolation.RowFilter {
		builder = builder.Where(sq.Eq{isolation.TenantIDColumn: target.ScopeValue})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	var deleted bool
	err = r.provider.WithConn(ctx, target, func(ctx context.Context, conn *pg.Conn) error {
		tag, err := conn.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() == 1
		return nil
	})
	if err != nil {
		return err
	}
	if !deleted {
		return ErrProductNotFound
	}
	return nil
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
	columns := []string{"product_id", "name", "description", "sku", "category",
		"price", "stock_quantity", "created_at", "updated_at"}
	if target.Mode == isolation.RowFilter {
		return append([]string{isolation.TenantIDColumn}, columns...)
	}
	return columns
}

func scanProduct(row pgx.Row, withTenant bool) (Product, error) {
	var p Product
	dest := []any{&p.ID, &p.Name, &p.Description, &p.SKU, &p.Category,
		&p.Price, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt}
	if withTenant {
		dest = append([]any{&p.TenantID}, dest...)
	}
	if err := row.Scan(dest...); err != nil {
		return Product{}, err
	}
	return p, nil
}
