package match

import (
	"log/slog"
	"strings"
	"time"

	"github.com/calebmorris/steamerbot/internal/config"
	"github.com/calebmorris/steamerbot/internal/domain"
)

// Time-window tolerances between an exchange start time and a feed commence
// time. Fuzzy configs accept the wider window because college schedules are
// frequently listed against the wrong day on one venue.
const (
	strictStartTolerance = 12 * time.Hour
	fuzzyStartTolerance  = 30 * time.Hour
)

// collegeMarkers are the substrings (upper-cased) that identify a store row
// as a college game for the NFL/NCAA collision guard.
var collegeMarkers = []string{"NCAA", "COLLEGE", "FCS"}

// Matcher ties exchange selections to odds-feed outcomes. It holds only
// injected read-only state and is safe to reuse across passes.
type Matcher struct {
	aliases Aliases
	books   []config.BookmakerConfig
	stats   *Stats
	logger  *slog.Logger
}

// NewMatcher creates a Matcher using the given alias table and tracked
// bookmaker list (priority order).
func NewMatcher(aliases Aliases, books []config.BookmakerConfig, stats *Stats, logger *slog.Logger) *Matcher {
	return &Matcher{
		aliases: aliases,
		books:   books,
		stats:   stats,
		logger:  logger.With(slog.String("component", "matcher")),
	}
}

// candidate is a store row with its normalized tokens precomputed once per
// pass. Candidates keep the input order of active: ambiguous matches are
// resolved by iteration order, first match wins. That tie-break is load-
// bearing for alert tuning; do not replace it with similarity scoring.
type candidate struct {
	row        *domain.Selection
	normRunner string
	normEvent  string
	college    bool
}

// Match maps active selections to the feed prices found for them under one
// sport config. The returned map is keyed by store row id; absent bookmaker
// slots stay nil. Malformed events are skipped individually and never fail
// the pass.
func (m *Matcher) Match(active []domain.Selection, events []domain.FeedEvent, sport config.SportConfig) map[int64]domain.BookPrices {
	norm := NormalizerFor(IsGridironKey(sport.FeedKey))
	collegeFeed := strings.Contains(strings.ToLower(sport.FeedKey), "ncaaf")

	tolerance := fuzzyStartTolerance
	if sport.StrictMode {
		tolerance = strictStartTolerance
	}

	// Precompute candidates, preserving input order. Rows are normalized
	// with the path their own sport label selects, which may differ from
	// the feed key's path when labels group several feeds.
	cands := make([]candidate, 0, len(active))
	for i := range active {
		row := &active[i]
		if row.Sport != sport.Label {
			continue
		}
		rowNorm := NormalizerFor(IsGridironLabel(row.Sport))
		cands = append(cands, candidate{
			row:        row,
			normRunner: rowNorm(row.RunnerName),
			normEvent:  rowNorm(row.EventName),
			college:    isCollegeRow(row),
		})
	}

	out := make(map[int64]domain.BookPrices)

	for ei := range events {
		event := &events[ei]
		m.stats.CountFeed(sport.Label)

		ref := m.referenceQuote(event)
		if ref == nil {
			// No tracked bookmaker priced the event; nothing to anchor on.
			continue
		}
		if event.CommenceTime.IsZero() {
			continue
		}

		homeTok := norm(event.HomeTeam)
		awayTok := norm(event.AwayTeam)

		for _, outcome := range ref.Outcomes {
			if outcome.Name == "" {
				continue
			}
			normName := norm(outcome.Name)

			cand := m.findCandidate(cands, sport, collegeFeed, tolerance, event.CommenceTime, normName, homeTok, awayTok)
			if cand == nil {
				m.stats.CountUnmatched(sport.Label, "no candidate")
				continue
			}
			m.stats.CountMatched(sport.Label)

			prices := out[cand.row.ID]
			for slot, bk := range m.books {
				q := event.Quote(bk.Key)
				if q == nil {
					continue
				}
				if p, ok := m.findPrice(q.Outcomes, normName, norm); ok {
					pv := p
					prices[slot] = &pv
				}
			}
			out[cand.row.ID] = prices
		}
	}

	return out
}

// referenceQuote picks the first tracked bookmaker (in configured priority
// order) that carries outcomes for the event.
func (m *Matcher) referenceQuote(event *domain.FeedEvent) *domain.BookmakerQuote {
	for _, bk := range m.books {
		if q := event.Quote(bk.Key); q != nil && len(q.Outcomes) > 0 {
			return q
		}
	}
	return nil
}

// findCandidate runs the gate sequence over candidates in order and returns
// the first one that passes, or nil.
func (m *Matcher) findCandidate(
	cands []candidate,
	sport config.SportConfig,
	collegeFeed bool,
	tolerance time.Duration,
	commence time.Time,
	normName, homeTok, awayTok string,
) *candidate {
	for i := range cands {
		cand := &cands[i]

		// Sub-competition collision guard: an NFL-labelled pass must not
		// let a college feed claim a pro row or vice versa.
		if sport.Label == "NFL" && collegeFeed != cand.college {
			continue
		}

		// Time-window gate.
		if cand.row.StartTime.IsZero() {
			continue
		}
		delta := cand.row.StartTime.Sub(commence)
		if delta < 0 {
			delta = -delta
		}
		if delta > tolerance {
			continue
		}

		// Name-match gate.
		if !m.aliases.NamesMatch(normName, cand.normRunner) {
			continue
		}

		// Mode gate: strict configs also require the event tokens to line
		// up; fuzzy configs trust the runner gate and alias table.
		if sport.StrictMode {
			if !strings.Contains(cand.normEvent, homeTok) && !strings.Contains(cand.normEvent, awayTok) {
				continue
			}
		}

		return cand
	}
	return nil
}

// findPrice re-runs the name-match gate against one bookmaker's outcomes to
// extract that source's price for the already-matched selection.
func (m *Matcher) findPrice(outcomes []domain.Outcome, normTarget string, norm func(string) string) (float64, bool) {
	for _, o := range outcomes {
		if o.Name == "" {
			continue
		}
		if m.aliases.NamesMatch(norm(o.Name), normTarget) {
			return o.Price, true
		}
	}
	return 0, false
}

// isCollegeRow inspects the row's event, competition, and sport text for
// college indicators.
func isCollegeRow(row *domain.Selection) bool {
	text := strings.ToUpper(row.EventName + " " + row.Competition + " " + row.Sport)
	for _, marker := range collegeMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
