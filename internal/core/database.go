package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/company-service/config"
	"github.com/duynhne/company-service/middleware"
)

// ErrAcquireTimeout is returned when no pooled connection frees up within
// DB_POOL_ACQUIRE_TIMEOUT.
var ErrAcquireTimeout = errors.New("timed out acquiring database connection")

// Gateway is the shared PostgreSQL access point. It is safe for concurrent use
// and is created once in main and injected into the repositories.
type Gateway struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
}

// NewPoolConfig turns the service configuration into a pgxpool config.
//
// IMPORTANT: with DB_POOL_MODE=transaction we use SimpleProtocol mode and disable statement
// caching to work correctly with transaction-mode connection poolers (PgCat/PgBouncer).
// Without this, you may see:
//
//	"prepared statement stmtcache_* does not exist"
func NewPoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.BuildDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConnections)
	}
	if cfg.IdleTimeout > 0 {
		poolCfg.MaxConnIdleTime = cfg.IdleTimeout
	}
	if cfg.AcquireTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.AcquireTimeout
	}
	if cfg.StatementTimeout > 0 {
		poolCfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}

	if cfg.PoolMode == "transaction" {
		// - Use simple protocol to avoid server-side prepared statements
		// - Disable statement cache (prepared statements are connection-scoped)
		// - Disable description cache
		poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
		poolCfg.ConnConfig.StatementCacheCapacity = 0
		poolCfg.ConnConfig.DescriptionCacheCapacity = 0
	}

	return poolCfg, nil
}

// Connect establishes the database connection pool using pgx/v5 and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*Gateway, error) {
	poolCfg, err := NewPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewGateway(pool, cfg.AcquireTimeout), nil
}

// NewGateway wraps an existing pool. A zero acquireTimeout waits as long as ctx allows.
func NewGateway(pool *pgxpool.Pool, acquireTimeout time.Duration) *Gateway {
	return &Gateway{pool: pool, acquireTimeout: acquireTimeout}
}

// acquire takes a connection, bounded by the acquire timeout on top of ctx.
func (g *Gateway) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	if g.acquireTimeout <= 0 {
		return g.pool.Acquire(ctx)
	}

	acquireCtx, cancel := context.WithTimeout(ctx, g.acquireTimeout)
	defer cancel()

	conn, err := g.pool.Acquire(acquireCtx)
	if err != nil {
		if ctx.Err() == nil && errors.Is(acquireCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrAcquireTimeout, g.acquireTimeout)
		}
		return nil, err
	}
	return conn, nil
}

func startQuerySpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return middleware.StartSpan(ctx, "db."+op, trace.WithAttributes(
		attribute.String("layer", "database"),
		attribute.String("db.system", "postgresql"),
	))
}

// Exec runs a statement that returns no rows.
func (g *Gateway) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	ctx, span := startQuerySpan(ctx, "exec")
	defer span.End()

	conn, err := g.acquire(ctx)
	if err != nil {
		middleware.RecordError(span, err)
		return pgconn.CommandTag{}, err
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, sql, args...)
	if err != nil {
		middleware.RecordError(span, err)
		return tag, err
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", tag.RowsAffected()))
	return tag, nil
}

// Query runs a statement returning rows. The connection goes back to the pool
// and the span ends once the rows are closed or fully read.
func (g *Gateway) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	ctx, span := startQuerySpan(ctx, "query")

	conn, err := g.acquire(ctx)
	if err != nil {
		middleware.RecordError(span, err)
		span.End()
		return nil, err
	}

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		conn.Release()
		middleware.RecordError(span, err)
		span.End()
		return nil, err
	}
	return &releasingRows{Rows: rows, conn: conn, span: span}, nil
}

// QueryRow runs a statement expected to return at most one row. Errors,
// including pgx.ErrNoRows, surface from Scan.
func (g *Gateway) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	ctx, span := startQuerySpan(ctx, "query_row")
	defer span.End()

	conn, err := g.acquire(ctx)
	if err != nil {
		middleware.RecordError(span, err)
		return errRow{err: err}
	}
	return &releasingRow{row: conn.QueryRow(ctx, sql, args...), conn: conn}
}

// Healthy runs a trivial query and reports whether it succeeded.
func (g *Gateway) Healthy(ctx context.Context) bool {
	if g == nil || g.pool == nil {
		return false
	}
	var one int
	return g.QueryRow(ctx, "SELECT 1").Scan(&one) == nil && one == 1
}

// Ping checks connectivity, used by the readiness probe.
func (g *Gateway) Ping(ctx context.Context) error {
	conn, err := g.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return conn.Ping(ctx)
}

// Stat exposes pool statistics for metrics.
func (g *Gateway) Stat() *pgxpool.Stat {
	return g.pool.Stat()
}

// Close closes all pooled connections. Safe to call more than once.
func (g *Gateway) Close() {
	if g != nil && g.pool != nil {
		g.pool.Close()
	}
}

type releasingRows struct {
	pgx.Rows
	conn     *pgxpool.Conn
	span     trace.Span
	released bool
}

func (r *releasingRows) Next() bool {
	if r.Rows.Next() {
		return true
	}
	r.release()
	return false
}

func (r *releasingRows) Close() {
	r.Rows.Close()
	r.release()
}

func (r *releasingRows) release() {
	if r.released {
		return
	}
	r.released = true
	if r.conn != nil {
		r.conn.Release()
	}
	if r.span != nil {
		if err := r.Rows.Err(); err != nil {
			middleware.RecordError(r.span, err)
		}
		r.span.End()
	}
}

type releasingRow struct {
	row  pgx.Row
	conn *pgxpool.Conn
}

func (r *releasingRow) Scan(dest ...any) error {
	defer r.conn.Release()
	return r.row.Scan(dest...)
}

type errRow struct {
	err error
}

func (r errRow) Scan(...any) error {
	return r.err
}
