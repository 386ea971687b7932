package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/calebmorris/steamerbot/internal/blob/s3"
	"github.com/calebmorris/steamerbot/internal/domain"
)

// junkMidPrice filters placeholder books: a mid at or below it means the
// market has no real two-sided interest worth charting.
const junkMidPrice = 1.01

// pruneInterval bounds how often the retention sweep runs.
const pruneInterval = time.Hour

// Snapshotter records mid-price observations of open selections on a fixed
// cadence and prunes (optionally archiving) the series past retention.
type Snapshotter struct {
	store     domain.SelectionStore
	snaps     domain.SnapshotStore
	archiver  *s3blob.SnapshotArchiver // nil disables archival
	interval  time.Duration
	retention time.Duration
	chunk     int
	now       func() time.Time
	lastRun   time.Time
	lastPrune time.Time
	logger    *slog.Logger
}

// NewSnapshotter creates a Snapshotter. archiver may be nil, in which case
// expired snapshots are deleted without upload.
func NewSnapshotter(store domain.SelectionStore, snaps domain.SnapshotStore, archiver *s3blob.SnapshotArchiver, interval, retention time.Duration, chunk int, logger *slog.Logger) *Snapshotter {
	if chunk < 1 {
		chunk = 100
	}
	return &Snapshotter{
		store:     store,
		snaps:     snaps,
		archiver:  archiver,
		interval:  interval,
		retention: retention,
		chunk:     chunk,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "snapshotter")),
	}
}

// Run takes a snapshot pass if the cadence is due, otherwise returns
// immediately. The orchestrator calls it every cycle; the throttle lives
// here so cadence is one component's concern.
func (s *Snapshotter) Run(ctx context.Context) error {
	now := s.now()
	if now.Sub(s.lastRun) < s.interval {
		return nil
	}
	s.lastRun = now

	rows, err := s.store.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: snapshot list: %w", err)
	}

	snaps := make([]domain.Snapshot, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		if row.BackPrice <= 0 || row.LayPrice <= 0 {
			continue
		}
		mid := (row.BackPrice + row.LayPrice) / 2
		if mid <= junkMidPrice {
			continue
		}
		snaps = append(snaps, domain.Snapshot{
			SelectionKey: row.RunnerKey(),
			TS:           now,
			MarketID:     row.MarketID,
			Sport:        row.Sport,
			EventName:    row.EventName,
			RunnerName:   row.RunnerName,
			BackPrice:    row.BackPrice,
			LayPrice:     row.LayPrice,
			MidPrice:     mid,
			Volume:       row.Volume,
		})
	}

	for start := 0; start < len(snaps); start += s.chunk {
		end := min(start+s.chunk, len(snaps))
		if err := s.snaps.InsertBatch(ctx, snaps[start:end]); err != nil {
			return fmt.Errorf("pipeline: insert snapshots: %w", err)
		}
	}
	s.logger.Debug("snapshot pass complete", slog.Int("snapshots", len(snaps)))

	if now.Sub(s.lastPrune) >= pruneInterval {
		s.lastPrune = now
		if err := s.prune(ctx, now.Add(-s.retention)); err != nil {
			// Retention failures must not stall price collection.
			s.logger.Warn("snapshot prune failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

func (s *Snapshotter) prune(ctx context.Context, cutoff time.Time) error {
	if s.archiver != nil {
		archived, err := s.archiver.Archive(ctx, cutoff)
		if err != nil {
			return err
		}
		if archived > 0 {
			s.logger.Info("archived expired snapshots", slog.Int64("snapshots", archived))
		}
		return nil
	}

	deleted, err := s.snaps.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Info("pruned expired snapshots", slog.Int64("snapshots", deleted))
	}
	return nil
}
