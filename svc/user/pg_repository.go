package user

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

// PGRepository stores users in PostgreSQL through the scoped connection
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

func (r *PGRepository) Insert(ctx context.Context, target isolation.StorageTarget, u User) error {
	builder := psql.Insert(tableName(target)).
		Columns("user_id", "email", "name", "role", "status", "created_at", "updated_at").
		Values(u.ID, u.Email, u.Name, u.Role, u.Status, u.CreatedAt, u.UpdatedAt)
	if target.Mode == isolation.RowFilter {
		builder = psql.Insert(tableName(target)).
			Columns(isolation.TenantIDColumn, "user_id", "email", "name", "role",
				"status", "created_at", "updated_at").
			Values(target.ScopeValue, u.ID, u.Email, u.Name, u.Role,
				u.Status, u.CreatedAt, u.UpdatedAt)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	err = r.provider.WithConn(ctx, target, func(ctx context.Context, conn *pg.Conn) error {
		_, err := conn.Exec(ctx, query, args...)
		return err
	})
	if pg.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *PGRepository) Get(ctx context.Context, target isolation.StorageTarget, userID string) (User, error) {
	builder := tenantScoped(
		psql.Select(selectColumns(target)...).From(tableName(target)),
		target,
	).Where(sq.Eq{"user_id": userID})

	query, args, err := builder.ToSql()
	if err != nil {
		return User{}, err
	}

	var u User
	err = r.provider.WithConn(ctx, target, func(ctx context.Context, conn *pg.Conn) error {
		row := conn.QueryRow(ctx, query, args...)
		var scanErr error
		u, scanErr = scanUser(row, target.Mode == isolation.RowFilter)
		return scanErr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PGRepository) List(ctx context.Context, target isolation.StorageTarget, f Filter) ([]User, error) {
	builder := tenantScoped(
		psql.Select(selectColumns(target)...).From(tableName(target)),
		target,
	)
	if f.Role != "" {
		builder = builder.Where(sq.Eq{"role": f.Role})
	}
	if f.Status != "" {
		builder = builder.Where(sq.Eq{"status": f.Status})
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

	var users []User
	err = r.provider.WithConn(ctx, target, func(ctx context.Context, conn *pg.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		withTenant := target.Mode == isolation.RowFilter
		for rows.Next() {
			u, err := scanUser(rows, withTenant)
			if err != nil {
				return err
			}
			users = append(users, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return users, nil
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

func (r *PGRepository) Update(ctx context.Context, target isolation.StorageTarget, u User) error {
	builder := psql.Update(tableName(target)).
		Set("name", u.Name).
		Set("role", u.Role).
		Set("status", u.Status).
		Set("updated_at", u.UpdatedAt).
		Where(sq.Eq{"user_id": u.ID})
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
		return ErrUserNotFound
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
	columns := []string{"user_id", "email", "name", "role", "status",
		"last_login", "created_at", "updated_at"}
	if target.Mode == isolation.RowFilter {
		return append([]string{isolation.TenantIDColumn}, columns...)
	}
	return columns
}

func scanUser(row pgx.Row, withTenant bool) (User, error) {
	var u User
	dest := []any{&u.ID, &u.Email, &u.Name, &u.Role, &u.Status,
		&u.LastLogin, &u.CreatedAt, &u.UpdatedAt}
	if withTenant {
		dest = append([]any{&u.TenantID}, dest...)
	}
	if err := row.Scan(dest...); err != nil {
		return User{}, err
	}
	return u, nil
}
