package match

import (
	"log/slog"
	"sort"
	"sync"
)

// SportStats holds matching counters for one sport label.
type SportStats struct {
	Exchange  int            `json:"exchange"`
	Feed      int            `json:"feed"`
	Matched   int            `json:"matched"`
	Unmatched int            `json:"unmatched"`
	Reasons   map[string]int `json:"reasons,omitempty"`
}

// Stats accumulates per-sport matching diagnostics for one pass. The matcher
// itself runs single-threaded; the mutex exists because the status server
// reads snapshots concurrently.
type Stats struct {
	mu     sync.RWMutex
	sports map[string]*SportStats
}

// NewStats creates an empty Stats.
func NewStats() *Stats {
	return &Stats{sports: make(map[string]*SportStats)}
}

// Reset clears all counters ahead of a new matching pass.
func (st *Stats) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sports = make(map[string]*SportStats)
}

func (st *Stats) sport(label string) *SportStats {
	s, ok := st.sports[label]
	if !ok {
		s = &SportStats{Reasons: make(map[string]int)}
		st.sports[label] = s
	}
	return s
}

// CountExchange records one exchange row considered for a sport.
func (st *Stats) CountExchange(label string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sport(label).Exchange++
}

// CountFeed records one feed event seen for a sport.
func (st *Stats) CountFeed(label string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sport(label).Feed++
}

// CountMatched records a successful outcome match.
func (st *Stats) CountMatched(label string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sport(label).Matched++
}

// CountUnmatched records a failed outcome match with a reason.
func (st *Stats) CountUnmatched(label, reason string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.sport(label)
	s.Unmatched++
	s.Reasons[reason]++
}

// Snapshot returns a copy of the current counters keyed by sport label.
func (st *Stats) Snapshot() map[string]SportStats {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make(map[string]SportStats, len(st.sports))
	for label, s := range st.sports {
		cp := *s
		cp.Reasons = make(map[string]int, len(s.Reasons))
		for k, v := range s.Reasons {
			cp.Reasons[k] = v
		}
		out[label] = cp
	}
	return out
}

// Report logs a per-sport matching summary with the most common failure
// reasons.
func (st *Stats) Report(logger *slog.Logger) {
	for label, s := range st.Snapshot() {
		attrs := []any{
			slog.String("sport", label),
			slog.Int("exchange_rows", s.Exchange),
			slog.Int("feed_events", s.Feed),
			slog.Int("matched", s.Matched),
			slog.Int("unmatched", s.Unmatched),
		}
		if top := topReasons(s.Reasons, 3); len(top) > 0 {
			attrs = append(attrs, slog.Any("top_reasons", top))
		}
		logger.Info("matching report", attrs...)
	}
}

func topReasons(reasons map[string]int, n int) []string {
	type rc struct {
		reason string
		count  int
	}
	all := make([]rc, 0, len(reasons))
	for r, c := range reasons {
		all = append(all, rc{r, c})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].reason < all[j].reason
	})
	if len(all) > n {
		all = all[:n]
	}
	out := make([]string, len(all))
	for i, r := range all {
		out[i] = r.reason
	}
	return out
}
