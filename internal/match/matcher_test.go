package match

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/calebmorris/steamerbot/internal/config"
	"github.com/calebmorris/steamerbot/internal/domain"
)

var testBooks = []config.BookmakerConfig{
	{Key: "pinnacle", Name: "Pinnacle"},
	{Key: "ladbrokes", Name: "Ladbrokes"},
	{Key: "paddypower", Name: "PaddyPower"},
}

func testMatcher(aliases Aliases) *Matcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMatcher(aliases, testBooks, NewStats(), logger)
}

func mmaSport() config.SportConfig {
	return config.SportConfig{
		Label:       "MMA",
		FeedKey:     "mma_mixed_martial_arts",
		EventTypeID: "26420387",
	}
}

func quote(key string, outcomes ...domain.Outcome) domain.BookmakerQuote {
	return domain.BookmakerQuote{Key: key, Outcomes: outcomes}
}

func TestMatchSingleRunner(t *testing.T) {
	start := time.Date(2026, 9, 12, 20, 0, 0, 0, time.UTC)
	rows := []domain.Selection{
		{ID: 1, Sport: "MMA", EventName: "Jones v Miocic", RunnerName: "Jon Jones", StartTime: start},
		{ID: 2, Sport: "MMA", EventName: "Jones v Miocic", RunnerName: "Stipe Miocic", StartTime: start},
	}
	events := []domain.FeedEvent{{
		HomeTeam:     "Jon Jones",
		AwayTeam:     "Stipe Miocic",
		CommenceTime: start,
		Bookmakers: []domain.BookmakerQuote{
			quote("pinnacle",
				domain.Outcome{Name: "Jon Jones", Price: 1.60},
				domain.Outcome{Name: "Stipe Miocic", Price: 2.40},
			),
			quote("paddypower",
				domain.Outcome{Name: "Jon Jones", Price: 1.65},
			),
		},
	}}

	out := testMatcher(nil).Match(rows, events, mmaSport())

	got, ok := out[1]
	if !ok {
		t.Fatal("row 1 not matched")
	}
	if got[0] == nil || *got[0] != 1.60 {
		t.Errorf("pinnacle slot = %v, want 1.60", got[0])
	}
	if got[1] != nil {
		t.Errorf("ladbrokes slot should be nil, got %v", *got[1])
	}
	if got[2] == nil || *got[2] != 1.65 {
		t.Errorf("paddypower slot = %v, want 1.65", got[2])
	}

	if got2, ok := out[2]; !ok {
		t.Fatal("row 2 not matched")
	} else if got2[0] == nil || *got2[0] != 2.40 {
		t.Errorf("row 2 pinnacle slot = %v, want 2.40", got2[0])
	}
}

func TestMatchFirstCandidateWins(t *testing.T) {
	start := time.Date(2026, 9, 12, 20, 0, 0, 0, time.UTC)
	// Both rows pass every gate for the same outcome; the earlier row in the
	// scan order must take the match. Repeat to catch accidental map-order
	// dependence.
	rows := []domain.Selection{
		{ID: 7, Sport: "MMA", EventName: "Card A", RunnerName: "Alex Pereira", StartTime: start},
		{ID: 8, Sport: "MMA", EventName: "Card B", RunnerName: "Alex Pereira", StartTime: start},
	}
	events := []domain.FeedEvent{{
		HomeTeam:     "Alex Pereira",
		AwayTeam:     "Someone Else",
		CommenceTime: start,
		Bookmakers: []domain.BookmakerQuote{
			quote("pinnacle", domain.Outcome{Name: "Alex Pereira", Price: 1.90}),
		},
	}}

	m := testMatcher(nil)
	for i := 0; i < 50; i++ {
		out := m.Match(rows, events, mmaSport())
		if _, ok := out[7]; !ok {
			t.Fatalf("iteration %d: first candidate did not win", i)
		}
		if _, ok := out[8]; ok {
			t.Fatalf("iteration %d: second candidate also matched", i)
		}
	}
}

func TestMatchTimeWindow(t *testing.T) {
	base := time.Date(2026, 9, 12, 20, 0, 0, 0, time.UTC)
	fuzzy := mmaSport()
	strict := config.SportConfig{
		Label:       "Basketball",
		FeedKey:     "basketball_nba",
		EventTypeID: "7522",
		StrictMode:  true,
	}

	tests := []struct {
		name   string
		sport  config.SportConfig
		offset time.Duration
		want   bool
	}{
		{"fuzzy inside 30h", fuzzy, 29 * time.Hour, true},
		{"fuzzy outside 30h", fuzzy, 31 * time.Hour, false},
		{"strict inside 12h", strict, 11 * time.Hour, true},
		{"strict outside 12h", strict, 13 * time.Hour, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := []domain.Selection{{
				ID:         1,
				Sport:      tt.sport.Label,
				EventName:  "Los Angeles Lakers v Boston Celtics",
				RunnerName: "Los Angeles Lakers",
				StartTime:  base.Add(tt.offset),
			}}
			events := []domain.FeedEvent{{
				HomeTeam:     "Los Angeles Lakers",
				AwayTeam:     "Boston Celtics",
				CommenceTime: base,
				Bookmakers: []domain.BookmakerQuote{
					quote("pinnacle", domain.Outcome{Name: "Los Angeles Lakers", Price: 1.80}),
				},
			}}

			out := testMatcher(nil).Match(rows, events, tt.sport)
			if _, ok := out[1]; ok != tt.want {
				t.Errorf("matched = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestMatchStrictEventTokenGate(t *testing.T) {
	start := time.Date(2026, 9, 12, 20, 0, 0, 0, time.UTC)
	sport := config.SportConfig{
		Label:       "Basketball",
		FeedKey:     "basketball_nba",
		EventTypeID: "7522",
		StrictMode:  true,
	}
	// Runner name matches, but the row's event names different teams, so the
	// strict gate must reject it.
	rows := []domain.Selection{{
		ID:         1,
		Sport:      "Basketball",
		EventName:  "Heat v Knicks",
		RunnerName: "Los Angeles Lakers",
		StartTime:  start,
	}}
	events := []domain.FeedEvent{{
		HomeTeam:     "Los Angeles Lakers",
		AwayTeam:     "Boston Celtics",
		CommenceTime: start,
		Bookmakers: []domain.BookmakerQuote{
			quote("pinnacle", domain.Outcome{Name: "Los Angeles Lakers", Price: 1.80}),
		},
	}}

	if out := testMatcher(nil).Match(rows, events, sport); len(out) != 0 {
		t.Errorf("strict gate let a wrong-event row through: %v", out)
	}
}

func TestMatchCollegeGuard(t *testing.T) {
	start := time.Date(2026, 9, 12, 20, 0, 0, 0, time.UTC)
	college := config.SportConfig{
		Label:       "NFL",
		FeedKey:     "americanfootball_ncaaf",
		EventTypeID: "6423",
	}
	rows := []domain.Selection{
		// Pro row with a name that would otherwise match.
		{ID: 1, Sport: "NFL", EventName: "Miami v Buffalo", Competition: "NFL", RunnerName: "Miami Dolphins", StartTime: start},
		// College row.
		{ID: 2, Sport: "NFL", EventName: "Miami (OH) v Akron", Competition: "NCAA Football", RunnerName: "Miami (OH)", StartTime: start},
	}
	events := []domain.FeedEvent{{
		HomeTeam:     "Miami (OH) Redhawks",
		AwayTeam:     "Akron Zips",
		CommenceTime: start,
		Bookmakers: []domain.BookmakerQuote{
			quote("pinnacle", domain.Outcome{Name: "Miami (OH) Redhawks", Price: 1.50}),
		},
	}}

	out := testMatcher(nil).Match(rows, events, college)
	if _, ok := out[1]; ok {
		t.Error("college feed claimed a pro row")
	}
	if _, ok := out[2]; !ok {
		t.Error("college feed failed to claim the college row")
	}
}

func TestMatchSkipsUnusableEvents(t *testing.T) {
	start := time.Date(2026, 9, 12, 20, 0, 0, 0, time.UTC)
	rows := []domain.Selection{{
		ID: 1, Sport: "MMA", EventName: "Jones v Miocic", RunnerName: "Jon Jones", StartTime: start,
	}}

	tests := []struct {
		name  string
		event domain.FeedEvent
	}{
		{"zero commence time", domain.FeedEvent{
			HomeTeam: "Jon Jones",
			AwayTeam: "Stipe Miocic",
			Bookmakers: []domain.BookmakerQuote{
				quote("pinnacle", domain.Outcome{Name: "Jon Jones", Price: 1.60}),
			},
		}},
		{"no tracked bookmaker", domain.FeedEvent{
			HomeTeam:     "Jon Jones",
			AwayTeam:     "Stipe Miocic",
			CommenceTime: start,
			Bookmakers: []domain.BookmakerQuote{
				quote("betfair_ex_uk", domain.Outcome{Name: "Jon Jones", Price: 1.60}),
			},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := testMatcher(nil).Match(rows, []domain.FeedEvent{tt.event}, mmaSport())
			if len(out) != 0 {
				t.Errorf("unusable event produced matches: %v", out)
			}
		})
	}
}

func TestMatchZeroStartRowSkipped(t *testing.T) {
	start := time.Date(2026, 9, 12, 20, 0, 0, 0, time.UTC)
	rows := []domain.Selection{{
		ID: 1, Sport: "MMA", EventName: "Jones v Miocic", RunnerName: "Jon Jones",
	}}
	events := []domain.FeedEvent{{
		HomeTeam:     "Jon Jones",
		AwayTeam:     "Stipe Miocic",
		CommenceTime: start,
		Bookmakers: []domain.BookmakerQuote{
			quote("pinnacle", domain.Outcome{Name: "Jon Jones", Price: 1.60}),
		},
	}}

	if out := testMatcher(nil).Match(rows, events, mmaSport()); len(out) != 0 {
		t.Errorf("row without start time matched: %v", out)
	}
}

func TestMatchUsesAliases(t *testing.T) {
	start := time.Date(2026, 9, 12, 20, 0, 0, 0, time.UTC)
	aliases := Aliases{"psg": {"parissaintgermain"}}
	rows := []domain.Selection{{
		ID: 1, Sport: "MMA", EventName: "PSG v Lyon", RunnerName: "PSG", StartTime: start,
	}}
	events := []domain.FeedEvent{{
		HomeTeam:     "Paris Saint Germain",
		AwayTeam:     "Lyon",
		CommenceTime: start,
		Bookmakers: []domain.BookmakerQuote{
			quote("pinnacle", domain.Outcome{Name: "Paris Saint Germain", Price: 1.40}),
		},
	}}

	out := testMatcher(aliases).Match(rows, events, mmaSport())
	if got, ok := out[1]; !ok {
		t.Fatal("alias-linked names did not match")
	} else if got[0] == nil || *got[0] != 1.40 {
		t.Errorf("pinnacle slot = %v, want 1.40", got[0])
	}
}
