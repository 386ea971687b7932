package pipeline

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/calebmorris/steamerbot/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSelectionStore struct {
	open        []domain.Selection
	alertable   []domain.Selection
	inPlay      bool
	inPlayErr   error
	listCalls   int
	upserted    []domain.Selection
	upsertCalls int
	patches     []domain.BookPricePatch
	closedSeen  []string
	closedN     int64
	resetCalls  int
}

func (f *fakeSelectionStore) ListOpen(context.Context) ([]domain.Selection, error) {
	f.listCalls++
	return f.open, nil
}

func (f *fakeSelectionStore) ListAlertable(context.Context) ([]domain.Selection, error) {
	return f.alertable, nil
}

func (f *fakeSelectionStore) HasInPlay(context.Context) (bool, error) {
	return f.inPlay, f.inPlayErr
}

func (f *fakeSelectionStore) UpsertBatch(_ context.Context, rows []domain.Selection) error {
	f.upsertCalls++
	f.upserted = append(f.upserted, rows...)
	return nil
}

func (f *fakeSelectionStore) ApplyBookPrices(_ context.Context, patches []domain.BookPricePatch) error {
	f.patches = append(f.patches, patches...)
	return nil
}

func (f *fakeSelectionStore) CloseMissing(_ context.Context, seen []string) (int64, error) {
	f.closedSeen = append([]string(nil), seen...)
	return f.closedN, nil
}

func (f *fakeSelectionStore) ResetBookPrices(context.Context) (int64, error) {
	f.resetCalls++
	return 0, nil
}

type fakeSnapshotStore struct {
	inserted  []domain.Snapshot
	deleted   []time.Time
	deleteErr error
	deletedN  int64
}

func (f *fakeSnapshotStore) InsertBatch(_ context.Context, snaps []domain.Snapshot) error {
	f.inserted = append(f.inserted, snaps...)
	return nil
}

func (f *fakeSnapshotStore) ListBefore(context.Context, time.Time, int) ([]domain.Snapshot, error) {
	return nil, nil
}

func (f *fakeSnapshotStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.deleted = append(f.deleted, cutoff)
	return f.deletedN, nil
}
