package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/calebmorris/steamerbot/internal/config"
	"github.com/calebmorris/steamerbot/internal/domain"
	"github.com/calebmorris/steamerbot/internal/feed"
	"github.com/calebmorris/steamerbot/internal/match"
)

type memFeedCache struct {
	payloads map[string][]byte
	fetched  map[string]time.Time
}

func newMemFeedCache() *memFeedCache {
	return &memFeedCache{payloads: make(map[string][]byte), fetched: make(map[string]time.Time)}
}

func (c *memFeedCache) Get(_ context.Context, key string) ([]byte, time.Time, error) {
	p, ok := c.payloads[key]
	if !ok {
		return nil, time.Time{}, domain.ErrNotFound
	}
	return p, c.fetched[key], nil
}

func (c *memFeedCache) Put(_ context.Context, key string, payload []byte, fetchedAt time.Time) error {
	c.payloads[key] = payload
	c.fetched[key] = fetchedAt
	return nil
}

func feedBookmakers() []config.BookmakerConfig {
	return []config.BookmakerConfig{
		{Key: "pinnacle", Name: "Pinnacle"},
		{Key: "ladbrokes", Name: "Ladbrokes"},
		{Key: "paddypower", Name: "PaddyPower"},
	}
}

// feedServer serves one payload per sport key at the odds-feed endpoint shape.
func feedServer(t *testing.T, payloads map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for key, payload := range payloads {
			if r.URL.Path == "/sports/"+key+"/odds" {
				json.NewEncoder(w).Encode(payload)
				return
			}
		}
		t.Errorf("unexpected feed path %s", r.URL.Path)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func feedEvent(home, away, commence string, prices map[string]map[string]float64) map[string]any {
	bms := make([]map[string]any, 0, len(prices))
	for bk, outcomes := range prices {
		var outs []map[string]any
		for name, price := range outcomes {
			outs = append(outs, map[string]any{"name": name, "price": price})
		}
		bms = append(bms, map[string]any{
			"key":     bk,
			"markets": []map[string]any{{"key": "h2h", "outcomes": outs}},
		})
	}
	return map[string]any{
		"home_team":     home,
		"away_team":     away,
		"commence_time": commence,
		"bookmakers":    bms,
	}
}

func newTestFeedSync(t *testing.T, store *fakeSelectionStore, payloads map[string]any, sports []config.SportConfig, forensic bool) *FeedSync {
	t.Helper()
	srv := feedServer(t, payloads)
	client := feed.NewClient(config.FeedConfig{
		BaseURL:    srv.URL,
		APIKey:     "k",
		Regions:    "uk",
		Bookmakers: feedBookmakers(),
	})
	cached := feed.NewCachedClient(client, newMemFeedCache(), time.Second, discardLogger())
	stats := match.NewStats()
	matcher := match.NewMatcher(match.Aliases{}, feedBookmakers(), stats, discardLogger())
	fs := NewFeedSync(cached, store, matcher, stats, sports, 4*time.Hour, 100, forensic, discardLogger())
	fs.now = func() time.Time { return time.Date(2026, 9, 12, 12, 0, 0, 0, time.UTC) }
	return fs
}

func TestFeedSyncPatchesMatchedPrices(t *testing.T) {
	start := time.Date(2026, 9, 12, 17, 0, 0, 0, time.UTC)
	store := &fakeSelectionStore{open: []domain.Selection{
		{
			ID: 1, Sport: "MMA", EventName: "Jones v Miocic", RunnerName: "Jon Jones",
			MarketID: "1.101", SelectionID: 11, StartTime: start,
			BackPrice: 2.00, LayPrice: 2.04, Volume: 5000, Status: domain.MarketStatusOpen,
		},
		{
			ID: 2, Sport: "Tennis", EventName: "A v B", RunnerName: "A",
			MarketID: "1.201", SelectionID: 21, StartTime: start,
			BackPrice: 1.80, LayPrice: 1.84, Volume: 900, Status: domain.MarketStatusOpen,
		},
	}}
	payloads := map[string]any{
		"mma_mixed_martial_arts": []any{
			feedEvent("Jon Jones", "Stipe Miocic", start.Format(time.RFC3339), map[string]map[string]float64{
				"pinnacle":  {"Jon Jones": 2.10, "Stipe Miocic": 1.85},
				"ladbrokes": {"Jon Jones": 2.15},
			}),
		},
	}
	sports := []config.SportConfig{{Label: "MMA", FeedKey: "mma_mixed_martial_arts", EventTypeID: "26420"}}

	fs := newTestFeedSync(t, store, payloads, sports, false)
	if err := fs.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Only the MMA row matches; the Tennis row has no configured sport here.
	if len(store.patches) != 1 {
		t.Fatalf("patches = %d, want 1", len(store.patches))
	}
	p := store.patches[0]
	if p.SelectionRowID != 1 {
		t.Errorf("patched row = %d, want 1", p.SelectionRowID)
	}
	if p.Prices[0] == nil || *p.Prices[0] != 2.10 {
		t.Errorf("pinnacle slot = %v, want 2.10", p.Prices[0])
	}
	if p.Prices[1] == nil || *p.Prices[1] != 2.15 {
		t.Errorf("ladbrokes slot = %v, want 2.15", p.Prices[1])
	}
	if p.Prices[2] != nil {
		t.Errorf("paddypower slot = %v, want nil", *p.Prices[2])
	}
	if store.resetCalls != 0 {
		t.Errorf("reset calls = %d, want 0 outside forensic mode", store.resetCalls)
	}
}

func TestFeedSyncForensicResetsFirst(t *testing.T) {
	old := 1.95
	start := time.Date(2026, 9, 12, 17, 0, 0, 0, time.UTC)
	store := &fakeSelectionStore{open: []domain.Selection{
		{
			ID: 1, Sport: "MMA", EventName: "Jones v Miocic", RunnerName: "Jon Jones",
			MarketID: "1.101", SelectionID: 11, StartTime: start,
			BackPrice: 2.00, LayPrice: 2.04, Volume: 5000, Status: domain.MarketStatusOpen,
			BookPrices: domain.BookPrices{&old, &old, &old},
		},
	}}
	// The feed quotes nothing for this event, so nothing may repopulate the
	// wiped slots.
	payloads := map[string]any{"mma_mixed_martial_arts": []any{}}
	sports := []config.SportConfig{{Label: "MMA", FeedKey: "mma_mixed_martial_arts", EventTypeID: "26420"}}

	fs := newTestFeedSync(t, store, payloads, sports, true)
	if err := fs.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if store.resetCalls != 1 {
		t.Errorf("reset calls = %d, want 1", store.resetCalls)
	}
	if len(store.patches) != 0 {
		t.Errorf("patches = %d, want 0 (stale prices must not be written back)", len(store.patches))
	}
}

func TestFeedSyncSkipsFailingSport(t *testing.T) {
	start := time.Date(2026, 9, 12, 17, 0, 0, 0, time.UTC)
	store := &fakeSelectionStore{open: []domain.Selection{
		{
			ID: 1, Sport: "MMA", EventName: "Jones v Miocic", RunnerName: "Jon Jones",
			MarketID: "1.101", SelectionID: 11, StartTime: start,
			BackPrice: 2.00, LayPrice: 2.04, Volume: 5000, Status: domain.MarketStatusOpen,
		},
		{
			ID: 2, Sport: "Boxing", EventName: "C v D", RunnerName: "C Fighter",
			MarketID: "1.301", SelectionID: 31, StartTime: start,
			BackPrice: 1.50, LayPrice: 1.53, Volume: 800, Status: domain.MarketStatusOpen,
		},
	}}
	payloads := map[string]any{
		// Quota-style upstream error for MMA; Boxing still matches.
		"mma_mixed_martial_arts": map[string]string{"message": "Usage quota has been reached"},
		"boxing_boxing": []any{
			feedEvent("C Fighter", "D Fighter", start.Format(time.RFC3339), map[string]map[string]float64{
				"pinnacle": {"C Fighter": 1.60, "D Fighter": 2.60},
			}),
		},
	}
	sports := []config.SportConfig{
		{Label: "MMA", FeedKey: "mma_mixed_martial_arts", EventTypeID: "26420"},
		{Label: "Boxing", FeedKey: "boxing_boxing", EventTypeID: "6"},
	}

	fs := newTestFeedSync(t, store, payloads, sports, false)
	if err := fs.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.patches) != 1 {
		t.Fatalf("patches = %d, want 1", len(store.patches))
	}
	if store.patches[0].SelectionRowID != 2 {
		t.Errorf("patched row = %d, want the Boxing row", store.patches[0].SelectionRowID)
	}
}

func TestRelevantRowsSplitsCollegeFromPro(t *testing.T) {
	rows := []domain.Selection{
		{ID: 1, Sport: "NFL", EventName: "Chiefs @ Bills", Competition: "NFL"},
		{ID: 2, Sport: "NFL", EventName: "Wildcats @ Tigers", Competition: "NCAA Football"},
		{ID: 3, Sport: "MMA", EventName: "Jones v Miocic"},
	}

	pro := relevantRows(rows, config.SportConfig{Label: "NFL", FeedKey: "americanfootball_nfl"})
	if len(pro) != 1 || pro[0].ID != 1 {
		t.Errorf("pro rows = %v, want just row 1", ids(pro))
	}

	college := relevantRows(rows, config.SportConfig{Label: "NFL", FeedKey: "americanfootball_ncaaf"})
	if len(college) != 1 || college[0].ID != 2 {
		t.Errorf("college rows = %v, want just row 2", ids(college))
	}
}

func ids(rows []*domain.Selection) []int64 {
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}
