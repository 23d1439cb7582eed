package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/scoracle-goalwatch/internal/db"
)

// Postgres stores delivery records in a table keyed by game_id. Record is a
// single INSERT … ON CONFLICT DO NOTHING; zero affected rows means another
// run got there first.
type Postgres struct {
	pool *db.Pool
}

// NewPostgres uses a pool created by db.New, which prepares the statements
// referenced here.
func NewPostgres(pool *db.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Has(ctx context.Context, gameID string) (bool, error) {
	var exists bool
	if err := p.pool.QueryRow(ctx, db.StmtLedgerHas, gameID).Scan(&exists); err != nil {
		return false, fmt.Errorf("lookup delivery %s: %w", gameID, err)
	}
	return exists, nil
}

func (p *Postgres) Record(ctx context.Context, gameID string, at time.Time) error {
	tag, err := p.pool.Exec(ctx, db.StmtLedgerInsert, gameID, at.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert delivery %s: %w", gameID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyRecorded
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, gameID string) (DeliveryRecord, error) {
	var (
		rec DeliveryRecord
		raw string
	)
	err := p.pool.QueryRow(ctx, db.StmtLedgerGet, gameID).Scan(&rec.GameID, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return DeliveryRecord{}, ErrNotFound
	}
	if err != nil {
		return DeliveryRecord{}, fmt.Errorf("get delivery %s: %w", gameID, err)
	}
	if rec.NotifiedAt, err = time.Parse(time.RFC3339Nano, raw); err != nil {
		return DeliveryRecord{}, fmt.Errorf("decode delivery %s: %w", gameID, err)
	}
	return rec, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
