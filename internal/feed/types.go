package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/calebmorris/steamerbot/internal/domain"
)

// apiEvent mirrors the odds-feed wire shape for one event.
type apiEvent struct {
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	CommenceTime string         `json:"commence_time"`
	Bookmakers   []apiBookmaker `json:"bookmakers"`
}

type apiBookmaker struct {
	Key     string      `json:"key"`
	Markets []apiMarket `json:"markets"`
}

type apiMarket struct {
	Key      string       `json:"key"`
	Outcomes []apiOutcome `json:"outcomes"`
}

type apiOutcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// errorPayload is the shape the feed returns instead of a list when the
// request fails at the plan/rate-limit level.
type errorPayload struct {
	Message string `json:"message"`
}

// Decode parses a raw feed payload into domain events. A payload carrying an
// upstream error message returns domain.ErrUpstream so callers can skip the
// sport without caching the response. Events whose commence time does not
// parse keep a zero CommenceTime; the matcher skips them individually.
func Decode(payload []byte) ([]domain.FeedEvent, error) {
	var raw []apiEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		var ep errorPayload
		if jerr := json.Unmarshal(payload, &ep); jerr == nil && ep.Message != "" {
			return nil, fmt.Errorf("feed: %s: %w", ep.Message, domain.ErrUpstream)
		}
		return nil, fmt.Errorf("feed: decode payload: %w", err)
	}

	events := make([]domain.FeedEvent, 0, len(raw))
	for _, e := range raw {
		ev := domain.FeedEvent{
			HomeTeam: e.HomeTeam,
			AwayTeam: e.AwayTeam,
		}
		if t, err := time.Parse(time.RFC3339, e.CommenceTime); err == nil {
			ev.CommenceTime = t.UTC()
		}
		for _, b := range e.Bookmakers {
			q := domain.BookmakerQuote{Key: b.Key}
			for _, mkt := range b.Markets {
				if mkt.Key != "h2h" {
					continue
				}
				for _, o := range mkt.Outcomes {
					q.Outcomes = append(q.Outcomes, domain.Outcome{Name: o.Name, Price: o.Price})
				}
				break
			}
			ev.Bookmakers = append(ev.Bookmakers, q)
		}
		events = append(events, ev)
	}
	return events, nil
}
