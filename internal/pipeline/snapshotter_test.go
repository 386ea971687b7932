package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/calebmorris/steamerbot/internal/domain"
)

func snapRows() []domain.Selection {
	return []domain.Selection{
		{ID: 1, MarketID: "1.1", SelectionID: 10, RunnerName: "A", BackPrice: 2.00, LayPrice: 2.10, Volume: 500},
		{ID: 2, MarketID: "1.2", SelectionID: 20, RunnerName: "B", BackPrice: 1.00, LayPrice: 1.02, Volume: 500}, // mid 1.01, junk
		{ID: 3, MarketID: "1.3", SelectionID: 30, RunnerName: "C", BackPrice: 0, LayPrice: 2.00, Volume: 500},    // one-sided
	}
}

func TestSnapshotterRecordsMidPrices(t *testing.T) {
	store := &fakeSelectionStore{open: snapRows()}
	snaps := &fakeSnapshotStore{}
	s := NewSnapshotter(store, snaps, nil, 45*time.Second, 24*time.Hour, 100, discardLogger())
	now := time.Date(2026, 9, 12, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(snaps.inserted) != 1 {
		t.Fatalf("snapshots = %d, want 1 (junk and one-sided rows skipped)", len(snaps.inserted))
	}
	got := snaps.inserted[0]
	if got.SelectionKey != "1.1_10" {
		t.Errorf("selection key = %q, want 1.1_10", got.SelectionKey)
	}
	if got.MidPrice != 2.05 {
		t.Errorf("mid = %v, want 2.05", got.MidPrice)
	}
	if !got.TS.Equal(now) {
		t.Errorf("ts = %v, want %v", got.TS, now)
	}
}

func TestSnapshotterThrottle(t *testing.T) {
	store := &fakeSelectionStore{open: snapRows()}
	snaps := &fakeSnapshotStore{}
	s := NewSnapshotter(store, snaps, nil, 45*time.Second, 24*time.Hour, 100, discardLogger())
	now := time.Date(2026, 9, 12, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// 10 seconds later: cadence not due, nothing read or written.
	s.now = func() time.Time { return now.Add(10 * time.Second) }
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if store.listCalls != 1 {
		t.Errorf("list calls = %d, want 1", store.listCalls)
	}
	// Past the interval the pass runs again.
	s.now = func() time.Time { return now.Add(46 * time.Second) }
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if store.listCalls != 2 {
		t.Errorf("list calls = %d, want 2", store.listCalls)
	}
}

func TestSnapshotterPrunesPastRetention(t *testing.T) {
	store := &fakeSelectionStore{}
	snaps := &fakeSnapshotStore{deletedN: 42}
	s := NewSnapshotter(store, snaps, nil, 45*time.Second, 24*time.Hour, 100, discardLogger())
	now := time.Date(2026, 9, 12, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(snaps.deleted) != 1 {
		t.Fatalf("prune calls = %d, want 1", len(snaps.deleted))
	}
	want := now.Add(-24 * time.Hour)
	if !snaps.deleted[0].Equal(want) {
		t.Errorf("prune cutoff = %v, want %v", snaps.deleted[0], want)
	}

	// Within the hour the sweep does not rerun even though snapshots do.
	s.now = func() time.Time { return now.Add(time.Minute) }
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(snaps.deleted) != 1 {
		t.Errorf("prune calls = %d, want still 1", len(snaps.deleted))
	}
}

func TestSnapshotterPruneFailureDoesNotStall(t *testing.T) {
	store := &fakeSelectionStore{open: snapRows()}
	snaps := &fakeSnapshotStore{deleteErr: errors.New("db busy")}
	s := NewSnapshotter(store, snaps, nil, 45*time.Second, 24*time.Hour, 100, discardLogger())
	s.now = func() time.Time { return time.Date(2026, 9, 12, 12, 0, 0, 0, time.UTC) }

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run returned %v, want nil when only the prune fails", err)
	}
	if len(snaps.inserted) == 0 {
		t.Error("snapshot insert should have happened before the failed prune")
	}
}
