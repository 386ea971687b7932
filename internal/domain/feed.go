package domain

import (
	"strings"
	"time"
)

// FeedEvent is one event from the odds feed. It is transient: it exists only
// for the duration of a single matching pass and is never persisted.
type FeedEvent struct {
	HomeTeam string
	AwayTeam string
	// CommenceTime is zero when the upstream timestamp could not be parsed;
	// the matcher skips such events.
	CommenceTime time.Time
	Bookmakers   []BookmakerQuote
}

// BookmakerQuote is one bookmaker's head-to-head outcomes for an event. The
// reference bookmaker may be any of the tracked keys, so quotes are carried
// as an ordered list rather than fixed fields.
type BookmakerQuote struct {
	Key      string
	Outcomes []Outcome
}

// Outcome is a single named price within a quote.
type Outcome struct {
	Name  string
	Price float64
}

// Quote returns the quote for the given bookmaker key, matched by substring
// because upstream keys vary ("pinnacle" matches "pinnacle_us"). Returns nil
// when the bookmaker did not price the event.
func (e *FeedEvent) Quote(key string) *BookmakerQuote {
	key = strings.ToLower(key)
	for i := range e.Bookmakers {
		if strings.Contains(strings.ToLower(e.Bookmakers[i].Key), key) {
			return &e.Bookmakers[i]
		}
	}
	return nil
}
