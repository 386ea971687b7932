package domain

import (
	"strconv"
	"time"
)

// MarketStatus represents the lifecycle state of an exchange market.
type MarketStatus string

const (
	MarketStatusOpen      MarketStatus = "OPEN"
	MarketStatusSuspended MarketStatus = "SUSPENDED"
	MarketStatusClosed    MarketStatus = "CLOSED"
)

// BookSlots is the number of external bookmakers tracked per selection.
const BookSlots = 3

// BookPrices holds the decimal prices observed at the tracked bookmakers, in
// configured priority order. A nil slot means the bookmaker did not quote the
// selection; a nil slot is never written over an existing price except by the
// forensic reset.
type BookPrices [BookSlots]*float64

// Best returns the highest price present and its slot index, or (0, -1) when
// no bookmaker quoted the selection.
func (p BookPrices) Best() (float64, int) {
	best, slot := 0.0, -1
	for i, v := range p {
		if v != nil && *v > best {
			best, slot = *v, i
		}
	}
	return best, slot
}

// Merge overlays other onto p, keeping existing values where other has none.
func (p BookPrices) Merge(other BookPrices) BookPrices {
	out := p
	for i, v := range other {
		if v != nil {
			out[i] = v
		}
	}
	return out
}

// Selection is one competitor's tradeable outcome in one exchange market. The
// exchange is the source of truth: rows are created and refreshed from
// exchange polls, and feed prices are patched onto them by the matcher.
// Uniqueness is on (MarketID, RunnerName).
type Selection struct {
	ID          int64
	Sport       string
	EventName   string
	RunnerName  string
	Competition string
	MarketID    string
	SelectionID int64
	StartTime   time.Time
	BackPrice   float64
	LayPrice    float64
	Volume      float64
	InPlay      bool
	Status      MarketStatus
	BookPrices  BookPrices
	LastUpdated time.Time
}

// RunnerKey is the stable identity used for alert deduplication across
// restarts.
func (s *Selection) RunnerKey() string {
	return s.MarketID + "_" + strconv.FormatInt(s.SelectionID, 10)
}

// BookPricePatch carries matched feed prices back onto a store row.
type BookPricePatch struct {
	SelectionRowID int64
	Prices         BookPrices
	UpdatedAt      time.Time
}
