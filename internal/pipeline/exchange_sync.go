// Package pipeline contains the sync stages and the orchestrator that runs
// them: exchange polling, feed matching, snapshotting, and alerting.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/calebmorris/steamerbot/internal/config"
	"github.com/calebmorris/steamerbot/internal/domain"
	"github.com/calebmorris/steamerbot/internal/exchange"
)

// lowVolumeFloor and lowVolumeWindow drop rows nobody is trading right
// before the start; they only ever produce noise alerts.
const (
	lowVolumeFloor  = 10.0
	lowVolumeWindow = time.Hour
)

// ExchangeSync polls the exchange for every configured sport and refreshes
// the selection store, closing rows for markets that disappeared.
type ExchangeSync struct {
	client *exchange.Client
	store  domain.SelectionStore
	sports []config.SportConfig
	chunk  int // market ids per book request
	upsert int // rows per upsert batch
	now    func() time.Time
	logger *slog.Logger
}

// NewExchangeSync creates an ExchangeSync.
func NewExchangeSync(client *exchange.Client, store domain.SelectionStore, sports []config.SportConfig, bookChunk, upsertChunk int, logger *slog.Logger) *ExchangeSync {
	if bookChunk < 1 {
		bookChunk = 10
	}
	if upsertChunk < 1 {
		upsertChunk = 100
	}
	return &ExchangeSync{
		client: client,
		store:  store,
		sports: sports,
		chunk:  bookChunk,
		upsert: upsertChunk,
		now:    time.Now,
		logger: logger.With(slog.String("component", "exchange_sync")),
	}
}

// Run executes one full sync cycle: fetch every sport concurrently, merge
// with dominance deduplication, upsert in chunks, then close unseen markets.
func (s *ExchangeSync) Run(ctx context.Context) error {
	results := make([][]domain.Selection, len(s.sports))

	g, gctx := errgroup.WithContext(ctx)
	for i := range s.sports {
		g.Go(func() error {
			rows, err := s.fetchSport(gctx, s.sports[i])
			if err != nil {
				return fmt.Errorf("pipeline: sync %s (%s): %w", s.sports[i].Label, s.sports[i].FeedKey, err)
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Merge single-threaded. Dominance dedup: when two sub-competitions list
	// the same event and runner, the market with more matched volume wins
	// and the thin duplicate is dropped.
	byKey := make(map[string]int)
	var merged []domain.Selection
	seen := make(map[string]struct{})
	now := s.now()

	for _, rows := range results {
		for _, row := range rows {
			seen[row.MarketID] = struct{}{}

			if row.Volume < lowVolumeFloor && !row.StartTime.IsZero() &&
				row.StartTime.Sub(now) < lowVolumeWindow && row.StartTime.After(now) {
				continue
			}

			key := row.Sport + "|" + row.EventName + "|" + row.RunnerName
			if j, ok := byKey[key]; ok {
				if row.Volume > merged[j].Volume {
					merged[j] = row
				}
				continue
			}
			byKey[key] = len(merged)
			merged = append(merged, row)
		}
	}

	for start := 0; start < len(merged); start += s.upsert {
		end := min(start+s.upsert, len(merged))
		if err := s.store.UpsertBatch(ctx, merged[start:end]); err != nil {
			return fmt.Errorf("pipeline: upsert selections: %w", err)
		}
	}

	seenIDs := make([]string, 0, len(seen))
	for id := range seen {
		seenIDs = append(seenIDs, id)
	}
	closed, err := s.store.CloseMissing(ctx, seenIDs)
	if err != nil {
		return fmt.Errorf("pipeline: close missing markets: %w", err)
	}

	s.logger.Info("exchange sync complete",
		slog.Int("selections", len(merged)),
		slog.Int("markets_seen", len(seenIDs)),
		slog.Int64("markets_closed", closed),
	)
	return nil
}

// fetchSport pulls the catalogue and books for one sport config and flattens
// them into selection rows.
func (s *ExchangeSync) fetchSport(ctx context.Context, sport config.SportConfig) ([]domain.Selection, error) {
	filter := exchange.MarketFilter{
		TextQuery:       sport.TextQuery,
		MarketStartTime: exchange.DefaultTimeRange(s.now()),
	}
	if sport.EventTypeID != "" {
		filter.EventTypeIDs = []string{sport.EventTypeID}
	}
	if sport.CompetitionID != "" {
		filter.CompetitionIDs = []string{sport.CompetitionID}
	}

	cats, err := s.client.ListMarketCatalogue(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(cats) == 0 {
		return nil, nil
	}

	catByID := make(map[string]*exchange.MarketCatalogue, len(cats))
	ids := make([]string, 0, len(cats))
	for i := range cats {
		catByID[cats[i].MarketID] = &cats[i]
		ids = append(ids, cats[i].MarketID)
	}

	var rows []domain.Selection
	for start := 0; start < len(ids); start += s.chunk {
		end := min(start+s.chunk, len(ids))
		books, err := s.client.ListMarketBook(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		for i := range books {
			rows = append(rows, s.flatten(sport, catByID, &books[i])...)
		}
	}
	return rows, nil
}

// flatten joins one market book with its catalogue metadata into selection
// rows, one per runner.
func (s *ExchangeSync) flatten(sport config.SportConfig, catByID map[string]*exchange.MarketCatalogue, book *exchange.MarketBook) []domain.Selection {
	cat, ok := catByID[book.MarketID]
	if !ok {
		return nil
	}

	nameBySelection := make(map[int64]string, len(cat.Runners))
	for _, r := range cat.Runners {
		nameBySelection[r.SelectionID] = r.RunnerName
	}

	var start time.Time
	if cat.MarketStartTime != "" {
		if t, err := time.Parse(time.RFC3339, cat.MarketStartTime); err == nil {
			start = t
		}
	}

	out := make([]domain.Selection, 0, len(book.Runners))
	for i := range book.Runners {
		rb := &book.Runners[i]
		name, ok := nameBySelection[rb.SelectionID]
		if !ok || name == "" {
			continue
		}
		out = append(out, domain.Selection{
			Sport:       sport.Label,
			EventName:   cat.Event.Name,
			RunnerName:  name,
			Competition: cat.Competition.Name,
			MarketID:    book.MarketID,
			SelectionID: rb.SelectionID,
			StartTime:   start,
			BackPrice:   rb.BestBack(),
			LayPrice:    rb.BestLay(),
			Volume:      book.TotalMatched,
			InPlay:      book.InPlay,
			Status:      marketStatus(book.Status),
		})
	}
	return out
}

func marketStatus(s string) domain.MarketStatus {
	switch s {
	case "SUSPENDED":
		return domain.MarketStatusSuspended
	case "CLOSED":
		return domain.MarketStatusClosed
	default:
		return domain.MarketStatusOpen
	}
}
