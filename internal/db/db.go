// Package db provides a pgxpool-based connection pool with schema bootstrap,
// prepared statement registration and health checking for the Postgres
// ledger.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/scoracle-goalwatch/internal/config"
)

// Prepared statement names used by the ledger.
const (
	StmtHealthCheck  = "health_check"
	StmtLedgerHas    = "ledger_has"
	StmtLedgerInsert = "ledger_insert"
	StmtLedgerGet    = "ledger_get"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool. The ledger table is
// created on first connect if it does not exist.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	table := pgx.Identifier{cfg.LedgerTable}.Sanitize()

	// Schema + prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if err := ensureSchema(ctx, conn, table); err != nil {
			return err
		}
		return registerPreparedStatements(ctx, conn, table)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, StmtHealthCheck).Scan(&n)
}

// ensureSchema creates the ledger table. The primary key on game_id is what
// makes the ledger insert-if-absent. notified_at is RFC 3339 text so the
// sender's UTC offset survives a round trip.
func ensureSchema(ctx context.Context, conn *pgx.Conn, table string) error {
	_, err := conn.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			game_id     TEXT PRIMARY KEY,
			notified_at TEXT        NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, table))
	if err == nil {
		return nil
	}
	// Two connections racing on CREATE TABLE IF NOT EXISTS can still collide
	// in the catalog; the table exists either way.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == "42P07" || pgErr.Code == "23505") {
		return nil
	}
	return fmt.Errorf("create ledger table: %w", err)
}

// registerPreparedStatements registers all statements the ledger uses.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn, table string) error {
	stmts := map[string]string{
		StmtHealthCheck:  "SELECT 1",
		StmtLedgerHas:    "SELECT EXISTS (SELECT 1 FROM " + table + " WHERE game_id = $1)",
		StmtLedgerInsert: "INSERT INTO " + table + " (game_id, notified_at) VALUES ($1, $2) ON CONFLICT (game_id) DO NOTHING",
		StmtLedgerGet:    "SELECT game_id, notified_at FROM " + table + " WHERE game_id = $1",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
