package pg

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tenantkit/pkg/isolation"
)

// TenantMarker is the session setting carrying the current tenant id on
// pool-tier connections. Server-side row-level-security policies read it as
// defense in depth; the application-level tenant predicate stays mandatory
// regardless.
const TenantMarker = "app.tenant_id"

// Conn is a data-store handle already scoped to a storage target. It embeds
// a pooled pgx connection, so queries run against it directly. A Conn must
// be given back via Provider.Release on every exit path; never hold one
// across requests.
type Conn struct {
	*pgxpool.Conn
	Target isolation.StorageTarget
}

// Provider hands out connections scoped to storage targets. One shared pool
// backs the pool and bridge tiers; silo tiers get lazily created pools
// against their dedicated databases. The provider itself is read-only after
// construction and safe for concurrent use.
type Provider struct {
	shared     *pgxpool.Pool
	baseConfig *pgxpool.Config

	mu     sync.Mutex
	silos  map[string]*pgxpool.Pool
	closed bool
}

// NewProvider connects the shared cluster pool and prepares silo pool
// creation from the same connection settings.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	baseConfig, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}
	applyPoolLimits(baseConfig, cfg)

	shared, err := connectWithRetry(ctx, baseConfig, cfg)
	if err != nil {
		return nil, err
	}

	return &Provider{
		shared:     shared,
		baseConfig: baseConfig,
		silos:      make(map[string]*pgxpool.Pool),
	}, nil
}

// Shared exposes the shared cluster pool for migrations and health checks.
func (p *Provider) Shared() *pgxpool.Pool {
	return p.shared
}

// Acquire returns a connection scoped to the target:
//
//   - schema_scope: search_path restricted to the tenant schema, so
//     unqualified table references resolve inside it
//   - row_filter: the app.tenant_id session marker set for server-side RLS
//   - database_scope: a connection from the tenant database's own pool
//
// The caller must Release the connection on every exit path. Prefer
// WithConn, which guarantees that.
func (p *Provider) Acquire(ctx context.Context, target isolation.StorageTarget) (*Conn, error) {
	pool, err := p.poolFor(ctx, target)
	if err != nil {
		return nil, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToOpenDBConnection, err)
	}

	if err := scopeSession(ctx, conn, target); err != nil {
		conn.Release()
		return nil, err
	}

	return &Conn{Conn: conn, Target: target}, nil
}

// Release resets session-level scoping and returns the connection to its
// pool. It is safe to call with an already canceled context: cleanup runs
// under a detached context so the reset happens even when the request
// timed out.
func (p *Provider) Release(ctx context.Context, conn *Conn) {
	if conn == nil || conn.Conn == nil {
		return
	}

	cleanupCtx := context.WithoutCancel(ctx)
	switch conn.Target.Mode {
	case isolation.SchemaScope:
		if _, err := conn.Exec(cleanupCtx, "SET search_path TO public"); err != nil {
			// The pool will discard broken connections on its own.
			conn.Conn.Conn().Close(cleanupCtx)
		}
	case isolation.RowFilter:
		if _, err := conn.Exec(cleanupCtx, "SELECT set_config($1, '', false)", TenantMarker); err != nil {
			conn.Conn.Conn().Close(cleanupCtx)
		}
	}
	conn.Conn.Release()
	conn.Conn = nil
}

// WithConn runs fn with a scoped connection and releases it afterwards
// regardless of success, business error, or panic.
func (p *Provider) WithConn(ctx context.Context, target isolation.StorageTarget, fn func(ctx context.Context, conn *Conn) error) error {
	conn, err := p.Acquire(ctx, target)
	if err != nil {
		return err
	}
	defer p.Release(ctx, conn)
	return fn(ctx, conn)
}

// Close shuts down the shared pool and every silo pool.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	p.shared.Close()
	for _, pool := range p.silos {
		pool.Close()
	}
}

func (p *Provider) poolFor(ctx context.Context, target isolation.StorageTarget) (*pgxpool.Pool, error) {
	switch target.Mode {
	case isolation.RowFilter, isolation.SchemaScope:
		return p.shared, nil
	case isolation.DatabaseScope:
		return p.siloPool(ctx, target.ScopeValue)
	default:
		return nil, ErrUnsupportedScopingMode
	}
}

// siloPool returns the pool for a tenant database, creating it on first
// use. Pools are keyed by database name and shared across requests for the
// same tenant; connections are never shared across tenants because each
// database holds exactly one tenant's data.
func (p *Provider) siloPool(ctx context.Context, database string) (*pgxpool.Pool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrProviderClosed
	}
	if pool, ok := p.silos[database]; ok {
		return pool, nil
	}

	siloConfig := p.baseConfig.Copy()
	siloConfig.ConnConfig.Database = database

	pool, err := pgxpool.NewWithConfig(ctx, siloConfig)
	if err != nil {
		return nil, errors.Join(ErrFailedToOpenDBConnection, err)
	}

	p.silos[database] = pool
	return pool, nil
}

func scopeSession(ctx context.Context, conn *pgxpool.Conn, target isolation.StorageTarget) error {
	switch target.Mode {
	case isolation.SchemaScope:
		// SET cannot take bind parameters; the schema name was validated by
		// the router and is additionally quoted here.
		_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{target.ScopeValue}.Sanitize())
		return err
	case isolation.RowFilter:
		_, err := conn.Exec(ctx, "SELECT set_config($1, $2, false)", TenantMarker, target.ScopeValue)
		return err
	case isolation.DatabaseScope:
		// Connecting to the tenant database is the isolation.
		return nil
	default:
		return ErrUnsupportedScopingMode
	}
}
