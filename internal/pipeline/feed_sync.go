package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/calebmorris/steamerbot/internal/config"
	"github.com/calebmorris/steamerbot/internal/domain"
	"github.com/calebmorris/steamerbot/internal/feed"
	"github.com/calebmorris/steamerbot/internal/match"
)

// scheduleFallback is the assumed proximity when open rows exist for a sport
// but none carries a usable start time.
const scheduleFallback = 2 * time.Hour

// FeedSync runs one matching pass: fetch the odds feed per sport at a TTL
// derived from schedule proximity, match feed outcomes onto open selections,
// and patch the matched bookmaker prices into the store.
type FeedSync struct {
	feed     *feed.CachedClient
	store    domain.SelectionStore
	matcher  *match.Matcher
	stats    *match.Stats
	sports   []config.SportConfig
	window   time.Duration // in-play window for proximity
	chunk    int
	forensic bool
	now      func() time.Time
	logger   *slog.Logger
}

// NewFeedSync creates a FeedSync. forensic enables the pre-pass book-price
// reset; it is an explicit diagnostic opt-in, not a default.
func NewFeedSync(fc *feed.CachedClient, store domain.SelectionStore, matcher *match.Matcher, stats *match.Stats, sports []config.SportConfig, inPlayWindow time.Duration, chunk int, forensic bool, logger *slog.Logger) *FeedSync {
	if chunk < 1 {
		chunk = 100
	}
	return &FeedSync{
		feed:     fc,
		store:    store,
		matcher:  matcher,
		stats:    stats,
		sports:   sports,
		window:   inPlayWindow,
		chunk:    chunk,
		forensic: forensic,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "feed_sync")),
	}
}

// Run executes one matching pass across all configured sports. A sport whose
// fetch fails is skipped for the pass; the others still match.
func (s *FeedSync) Run(ctx context.Context) error {
	rows, err := s.store.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: list open selections: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	if s.forensic {
		n, err := s.store.ResetBookPrices(ctx)
		if err != nil {
			return fmt.Errorf("pipeline: forensic reset: %w", err)
		}
		s.logger.Warn("forensic reset wiped book prices", slog.Int64("rows", n))
		// The in-memory rows must match the store or stale prices would be
		// written straight back by the patch below.
		for i := range rows {
			rows[i].BookPrices = domain.BookPrices{}
		}
	}

	s.stats.Reset()
	now := s.now()
	combined := make(map[int64]domain.BookPrices)

	for _, sport := range s.sports {
		relevant := relevantRows(rows, sport)
		if len(relevant) == 0 {
			continue
		}
		for range relevant {
			s.stats.CountExchange(sport.Label)
		}

		starts := make([]time.Time, 0, len(relevant))
		for _, row := range relevant {
			starts = append(starts, row.StartTime)
		}
		nearest, live, ok := feed.Nearest(starts, now, s.window)
		if !ok {
			nearest = scheduleFallback
		}
		ttl := feed.TTLFor(nearest, live, 0)

		events, err := s.feed.Fetch(ctx, sport.FeedKey, ttl)
		if err != nil {
			s.logger.Warn("feed fetch failed, skipping sport",
				slog.String("sport_key", sport.FeedKey),
				slog.String("error", err.Error()),
			)
			continue
		}

		for id, prices := range s.matcher.Match(rows, events, sport) {
			combined[id] = combined[id].Merge(prices)
		}
	}

	patches := make([]domain.BookPricePatch, 0, len(combined))
	for id, prices := range combined {
		patches = append(patches, domain.BookPricePatch{
			SelectionRowID: id,
			Prices:         prices,
			UpdatedAt:      now,
		})
	}
	for start := 0; start < len(patches); start += s.chunk {
		end := min(start+s.chunk, len(patches))
		if err := s.store.ApplyBookPrices(ctx, patches[start:end]); err != nil {
			return fmt.Errorf("pipeline: apply book prices: %w", err)
		}
	}

	s.stats.Report(s.logger)
	return nil
}

// relevantRows selects the open rows one sport config is responsible for.
// Configs sharing the NFL label split rows by college-ness so the pro feed's
// schedule does not drive the college fetch cadence or vice versa.
func relevantRows(rows []domain.Selection, sport config.SportConfig) []*domain.Selection {
	collegeFeed := strings.Contains(strings.ToLower(sport.FeedKey), "ncaaf")
	var out []*domain.Selection
	for i := range rows {
		row := &rows[i]
		if row.Sport != sport.Label {
			continue
		}
		if sport.Label == "NFL" && isCollegeSelection(row) != collegeFeed {
			continue
		}
		out = append(out, row)
	}
	return out
}

// isCollegeSelection mirrors the matcher's college guard for relevance
// filtering.
func isCollegeSelection(row *domain.Selection) bool {
	text := strings.ToUpper(row.EventName + " " + row.Competition + " " + row.Sport)
	return strings.Contains(text, "NCAA") || strings.Contains(text, "COLLEGE") || strings.Contains(text, "FCS")
}
