package domain

import (
	"context"
	"time"
)

// SelectionStore persists exchange selections. All writes are idempotent
// upserts keyed on (market_id, runner_name); the only deletion-equivalent
// operation is the monotone OPEN→CLOSED sweep in CloseMissing.
type SelectionStore interface {
	// ListOpen returns every row not in CLOSED state.
	ListOpen(ctx context.Context) ([]Selection, error)
	// ListAlertable returns OPEN rows that are not in-play.
	ListAlertable(ctx context.Context) ([]Selection, error)
	// HasInPlay reports whether any non-CLOSED row is currently in-play.
	HasInPlay(ctx context.Context) (bool, error)
	// UpsertBatch inserts or refreshes rows on (market_id, runner_name).
	UpsertBatch(ctx context.Context, rows []Selection) error
	// ApplyBookPrices patches matched feed prices onto existing rows,
	// leaving absent slots untouched.
	ApplyBookPrices(ctx context.Context, patches []BookPricePatch) error
	// CloseMissing transitions non-CLOSED rows whose market id is not in
	// seen to CLOSED, returning the number of rows closed.
	CloseMissing(ctx context.Context, seen []string) (int64, error)
	// ResetBookPrices nulls all tracked bookmaker prices on non-CLOSED rows.
	// Forensic use only: it produces visible gaps in displayed prices.
	ResetBookPrices(ctx context.Context) (int64, error)
}

// SnapshotStore persists the mid-price time series.
type SnapshotStore interface {
	InsertBatch(ctx context.Context, snaps []Snapshot) error
	// ListBefore returns up to limit snapshots older than cutoff, oldest
	// first, for archival.
	ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]Snapshot, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AlertHistory is the durable alert-deduplication store. Get returns
// ErrNotFound for unseen keys.
type AlertHistory interface {
	Get(ctx context.Context, runnerKey string) (AlertRecord, error)
	Put(ctx context.Context, runnerKey string, rec AlertRecord) error
	// CountSince returns how many alerts were recorded after the given time.
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

// FeedCache stores the last successfully fetched feed payload per sport key
// together with its fetch time. TTLs are not stored; callers recompute them
// from the current schedule on every access.
type FeedCache interface {
	Get(ctx context.Context, sportKey string) (payload []byte, fetchedAt time.Time, err error)
	Put(ctx context.Context, sportKey string, payload []byte, fetchedAt time.Time) error
}
