package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/calebmorris/steamerbot/internal/config"
	"github.com/calebmorris/steamerbot/internal/domain"
	"github.com/calebmorris/steamerbot/internal/exchange"
)

func quote(v float64) []map[string]float64 {
	return []map[string]float64{{"price": v, "size": 100}}
}

// exchangeFixture serves a catalogue and per-market books the way the venue
// API does, so ExchangeSync is exercised through the real client.
func exchangeFixture(t *testing.T, cats []map[string]any, books map[string]map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "listMarketCatalogue"):
			json.NewEncoder(w).Encode(cats)
		case strings.Contains(r.URL.Path, "listMarketBook"):
			var req struct {
				MarketIDs []string `json:"marketIds"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode book request: %v", err)
			}
			out := make([]map[string]any, 0, len(req.MarketIDs))
			for _, id := range req.MarketIDs {
				if b, ok := books[id]; ok {
					out = append(out, b)
				}
			}
			json.NewEncoder(w).Encode(out)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExchangeSyncRun(t *testing.T) {
	cats := []map[string]any{
		{
			"marketId":        "1.101",
			"marketName":      "Match Odds",
			"marketStartTime": "2026-09-12T17:00:00Z",
			"event":           map[string]string{"id": "e1", "name": "Jones v Miocic"},
			"competition":     map[string]string{"id": "c1", "name": "UFC"},
			"runners": []map[string]any{
				{"selectionId": 11, "runnerName": "Jon Jones"},
				{"selectionId": 12, "runnerName": "Stipe Miocic"},
			},
		},
		{
			// Thin duplicate listing of the same event in a sub-competition.
			"marketId":        "1.102",
			"marketName":      "Match Odds",
			"marketStartTime": "2026-09-12T17:00:00Z",
			"event":           map[string]string{"id": "e1b", "name": "Jones v Miocic"},
			"competition":     map[string]string{"id": "c2", "name": "UFC Specials"},
			"runners": []map[string]any{
				{"selectionId": 21, "runnerName": "Jon Jones"},
				{"selectionId": 22, "runnerName": "Stipe Miocic"},
			},
		},
		{
			// Untraded market starting inside the low-volume window.
			"marketId":        "1.103",
			"marketName":      "Match Odds",
			"marketStartTime": "2026-09-12T12:30:00Z",
			"event":           map[string]string{"id": "e2", "name": "Doe v Roe"},
			"competition":     map[string]string{"id": "c1", "name": "UFC"},
			"runners": []map[string]any{
				{"selectionId": 31, "runnerName": "John Doe"},
			},
		},
	}
	books := map[string]map[string]any{
		"1.101": {
			"marketId": "1.101", "status": "OPEN", "inplay": false, "totalMatched": 5000.0,
			"runners": []map[string]any{
				{"selectionId": 11, "ex": map[string]any{"availableToBack": quote(2.00), "availableToLay": quote(2.04)}},
				{"selectionId": 12, "ex": map[string]any{"availableToBack": quote(1.90), "availableToLay": quote(1.94)}},
			},
		},
		"1.102": {
			"marketId": "1.102", "status": "OPEN", "inplay": false, "totalMatched": 200.0,
			"runners": []map[string]any{
				{"selectionId": 21, "ex": map[string]any{"availableToBack": quote(2.10), "availableToLay": quote(2.30)}},
				{"selectionId": 22, "ex": map[string]any{"availableToBack": quote(1.80), "availableToLay": quote(2.00)}},
			},
		},
		"1.103": {
			"marketId": "1.103", "status": "OPEN", "inplay": false, "totalMatched": 5.0,
			"runners": []map[string]any{
				{"selectionId": 31, "ex": map[string]any{"availableToBack": quote(1.50), "availableToLay": quote(1.60)}},
			},
		},
	}

	srv := exchangeFixture(t, cats, books)
	client := exchange.NewClient(config.ExchangeConfig{BaseURL: srv.URL, AppKey: "k", SessionToken: "tok"})
	store := &fakeSelectionStore{closedN: 1}
	sports := []config.SportConfig{{Label: "MMA", FeedKey: "mma_mixed_martial_arts", EventTypeID: "26420"}}

	sync := NewExchangeSync(client, store, sports, 2, 1, discardLogger())
	sync.now = func() time.Time { return time.Date(2026, 9, 12, 12, 0, 0, 0, time.UTC) }

	if err := sync.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The thin duplicate and the untraded market contribute no rows.
	if len(store.upserted) != 2 {
		t.Fatalf("upserted rows = %d, want 2", len(store.upserted))
	}
	byRunner := make(map[string]domain.Selection)
	for _, row := range store.upserted {
		byRunner[row.RunnerName] = row
	}
	jones, ok := byRunner["Jon Jones"]
	if !ok {
		t.Fatal("missing Jon Jones row")
	}
	if jones.MarketID != "1.101" || jones.Volume != 5000 {
		t.Errorf("dominant market = %s vol %v, want 1.101 vol 5000", jones.MarketID, jones.Volume)
	}
	if jones.BackPrice != 2.00 || jones.LayPrice != 2.04 {
		t.Errorf("prices = %v/%v, want 2.00/2.04", jones.BackPrice, jones.LayPrice)
	}
	if jones.Status != domain.MarketStatusOpen {
		t.Errorf("status = %s, want OPEN", jones.Status)
	}
	wantStart := time.Date(2026, 9, 12, 17, 0, 0, 0, time.UTC)
	if !jones.StartTime.Equal(wantStart) {
		t.Errorf("start = %v, want %v", jones.StartTime, wantStart)
	}
	if jones.Sport != "MMA" || jones.Competition != "UFC" {
		t.Errorf("sport/competition = %s/%s", jones.Sport, jones.Competition)
	}

	// Upsert chunk size 1 means one batch per row.
	if store.upsertCalls != 2 {
		t.Errorf("upsert batches = %d, want 2", store.upsertCalls)
	}

	// Every market fetched this cycle counts as seen, including filtered
	// ones; a market the venue no longer returns is the only thing closed.
	sort.Strings(store.closedSeen)
	want := []string{"1.101", "1.102", "1.103"}
	if len(store.closedSeen) != len(want) {
		t.Fatalf("seen markets = %v, want %v", store.closedSeen, want)
	}
	for i, id := range want {
		if store.closedSeen[i] != id {
			t.Fatalf("seen markets = %v, want %v", store.closedSeen, want)
		}
	}
}

func TestExchangeSyncDominanceKeepsFirstOnTie(t *testing.T) {
	// Equal volume: the earlier market stays.
	cats := []map[string]any{
		{
			"marketId":        "1.201",
			"marketStartTime": "2026-09-12T17:00:00Z",
			"event":           map[string]string{"name": "A v B"},
			"runners":         []map[string]any{{"selectionId": 1, "runnerName": "A"}},
		},
		{
			"marketId":        "1.202",
			"marketStartTime": "2026-09-12T17:00:00Z",
			"event":           map[string]string{"name": "A v B"},
			"runners":         []map[string]any{{"selectionId": 2, "runnerName": "A"}},
		},
	}
	books := map[string]map[string]any{
		"1.201": {
			"marketId": "1.201", "status": "OPEN", "totalMatched": 300.0,
			"runners": []map[string]any{{"selectionId": 1, "ex": map[string]any{"availableToBack": quote(2.0), "availableToLay": quote(2.1)}}},
		},
		"1.202": {
			"marketId": "1.202", "status": "OPEN", "totalMatched": 300.0,
			"runners": []map[string]any{{"selectionId": 2, "ex": map[string]any{"availableToBack": quote(2.0), "availableToLay": quote(2.1)}}},
		},
	}

	srv := exchangeFixture(t, cats, books)
	client := exchange.NewClient(config.ExchangeConfig{BaseURL: srv.URL})
	store := &fakeSelectionStore{}
	sync := NewExchangeSync(client, store, []config.SportConfig{{Label: "Tennis"}}, 10, 100, discardLogger())
	sync.now = func() time.Time { return time.Date(2026, 9, 12, 12, 0, 0, 0, time.UTC) }

	if err := sync.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.upserted) != 1 {
		t.Fatalf("upserted rows = %d, want 1", len(store.upserted))
	}
	if store.upserted[0].MarketID != "1.201" {
		t.Errorf("kept market = %s, want 1.201", store.upserted[0].MarketID)
	}
}
