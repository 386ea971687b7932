package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/calebmorris/steamerbot/internal/domain"
)

// SelectionStore implements domain.SelectionStore using PostgreSQL.
type SelectionStore struct {
	pool *pgxpool.Pool
}

// NewSelectionStore creates a SelectionStore backed by the given pool.
func NewSelectionStore(pool *pgxpool.Pool) *SelectionStore {
	return &SelectionStore{pool: pool}
}

const selectionColumns = `
	id, sport, event_name, runner_name, competition,
	market_id, selection_id, start_time,
	back_price, lay_price, volume, in_play, status,
	book_price_1, book_price_2, book_price_3, last_updated`

// ListOpen returns every row not in CLOSED state, soonest start first.
func (s *SelectionStore) ListOpen(ctx context.Context) ([]domain.Selection, error) {
	query := `SELECT ` + selectionColumns + `
		FROM market_feed
		WHERE status <> 'CLOSED'
		ORDER BY start_time NULLS LAST, id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list open selections: %w", err)
	}
	defer rows.Close()
	return scanSelections(rows)
}

// ListAlertable returns OPEN rows that have not gone in-play.
func (s *SelectionStore) ListAlertable(ctx context.Context) ([]domain.Selection, error) {
	query := `SELECT ` + selectionColumns + `
		FROM market_feed
		WHERE status = 'OPEN' AND NOT in_play
		ORDER BY start_time NULLS LAST, id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list alertable selections: %w", err)
	}
	defer rows.Close()
	return scanSelections(rows)
}

// HasInPlay reports whether any non-CLOSED row is currently in-play.
func (s *SelectionStore) HasInPlay(ctx context.Context) (bool, error) {
	const query = `SELECT EXISTS(
		SELECT 1 FROM market_feed WHERE status <> 'CLOSED' AND in_play)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres: check in-play: %w", err)
	}
	return exists, nil
}

// UpsertBatch inserts or refreshes rows on (market_id, runner_name). Exchange
// fields are overwritten; bookmaker price columns are left alone so a later
// feed pass does not lose its work to the next exchange poll.
func (s *SelectionStore) UpsertBatch(ctx context.Context, selections []domain.Selection) error {
	if len(selections) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO market_feed (
			sport, event_name, runner_name, competition,
			market_id, selection_id, start_time,
			back_price, lay_price, volume, in_play, status, last_updated
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10, $11, $12, NOW()
		)
		ON CONFLICT (market_id, runner_name) DO UPDATE SET
			sport        = EXCLUDED.sport,
			event_name   = EXCLUDED.event_name,
			competition  = EXCLUDED.competition,
			selection_id = EXCLUDED.selection_id,
			start_time   = EXCLUDED.start_time,
			back_price   = EXCLUDED.back_price,
			lay_price    = EXCLUDED.lay_price,
			volume       = EXCLUDED.volume,
			in_play      = EXCLUDED.in_play,
			status       = EXCLUDED.status,
			last_updated = NOW()`

	for _, sel := range selections {
		batch.Queue(query,
			sel.Sport, sel.EventName, sel.RunnerName, sel.Competition,
			sel.MarketID, sel.SelectionID, nullableTime(sel.StartTime),
			sel.BackPrice, sel.LayPrice, sel.Volume, sel.InPlay, string(sel.Status),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range selections {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert selection batch item %d: %w", i, err)
		}
	}
	return nil
}

// ApplyBookPrices patches matched feed prices onto existing rows. COALESCE
// keeps the stored price when the patch slot is nil, so a bookmaker dropping
// a quote does not erase the last one seen.
func (s *SelectionStore) ApplyBookPrices(ctx context.Context, patches []domain.BookPricePatch) error {
	if len(patches) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		UPDATE market_feed SET
			book_price_1 = COALESCE($2, book_price_1),
			book_price_2 = COALESCE($3, book_price_2),
			book_price_3 = COALESCE($4, book_price_3),
			last_updated = $5
		WHERE id = $1`

	for _, p := range patches {
		batch.Queue(query, p.SelectionRowID, p.Prices[0], p.Prices[1], p.Prices[2], p.UpdatedAt)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range patches {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: apply book prices batch item %d: %w", i, err)
		}
	}
	return nil
}

// CloseMissing transitions non-CLOSED rows whose market id was not seen in
// the latest exchange poll to CLOSED, returning the number of rows closed.
func (s *SelectionStore) CloseMissing(ctx context.Context, seen []string) (int64, error) {
	const query = `
		UPDATE market_feed
		SET status = 'CLOSED', last_updated = NOW()
		WHERE status <> 'CLOSED' AND NOT (market_id = ANY($1))`

	tag, err := s.pool.Exec(ctx, query, seen)
	if err != nil {
		return 0, fmt.Errorf("postgres: close missing markets: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ResetBookPrices nulls every tracked bookmaker price on non-CLOSED rows.
func (s *SelectionStore) ResetBookPrices(ctx context.Context) (int64, error) {
	const query = `
		UPDATE market_feed
		SET book_price_1 = NULL, book_price_2 = NULL, book_price_3 = NULL,
			last_updated = NOW()
		WHERE status <> 'CLOSED'`

	tag, err := s.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("postgres: reset book prices: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSelections(rows pgx.Rows) ([]domain.Selection, error) {
	var out []domain.Selection
	for rows.Next() {
		var sel domain.Selection
		var status string
		var start *time.Time
		err := rows.Scan(
			&sel.ID, &sel.Sport, &sel.EventName, &sel.RunnerName, &sel.Competition,
			&sel.MarketID, &sel.SelectionID, &start,
			&sel.BackPrice, &sel.LayPrice, &sel.Volume, &sel.InPlay, &status,
			&sel.BookPrices[0], &sel.BookPrices[1], &sel.BookPrices[2], &sel.LastUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan selection: %w", err)
		}
		sel.Status = domain.MarketStatus(status)
		if start != nil {
			sel.StartTime = *start
		}
		out = append(out, sel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate selections: %w", err)
	}
	return out, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
