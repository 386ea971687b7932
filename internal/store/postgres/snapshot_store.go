package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/calebmorris/steamerbot/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a SnapshotStore backed by the given pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// InsertBatch appends mid-price snapshots.
func (s *SnapshotStore) InsertBatch(ctx context.Context, snaps []domain.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO market_snapshots (
			selection_key, ts, market_id, sport, event_name, runner_name,
			back_price, lay_price, mid_price, volume
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for _, snap := range snaps {
		batch.Queue(query,
			snap.SelectionKey, snap.TS, snap.MarketID, snap.Sport,
			snap.EventName, snap.RunnerName,
			snap.BackPrice, snap.LayPrice, snap.MidPrice, snap.Volume,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range snaps {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert snapshot batch item %d: %w", i, err)
		}
	}
	return nil
}

// ListBefore returns up to limit snapshots older than cutoff, oldest first.
func (s *SnapshotStore) ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Snapshot, error) {
	const query = `
		SELECT selection_key, ts, market_id, sport, event_name, runner_name,
			back_price, lay_price, mid_price, volume
		FROM market_snapshots
		WHERE ts < $1
		ORDER BY ts
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list snapshots before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	defer rows.Close()

	var out []domain.Snapshot
	for rows.Next() {
		var snap domain.Snapshot
		err := rows.Scan(
			&snap.SelectionKey, &snap.TS, &snap.MarketID, &snap.Sport,
			&snap.EventName, &snap.RunnerName,
			&snap.BackPrice, &snap.LayPrice, &snap.MidPrice, &snap.Volume,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate snapshots: %w", err)
	}
	return out, nil
}

// DeleteBefore prunes snapshots older than cutoff, returning rows deleted.
func (s *SnapshotStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM market_snapshots WHERE ts < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete snapshots before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}
