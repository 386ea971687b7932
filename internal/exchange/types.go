package exchange

// MarketFilter narrows a market-catalogue query. Either EventTypeIDs or
// CompetitionIDs scopes the sport; TextQuery further restricts within a
// shared event type (e.g. "NFL" vs "NCAA Football" under one football id).
type MarketFilter struct {
	EventTypeIDs    []string   `json:"eventTypeIds,omitempty"`
	CompetitionIDs  []string   `json:"competitionIds,omitempty"`
	TextQuery       string     `json:"textQuery,omitempty"`
	MarketTypeCodes []string   `json:"marketTypeCodes,omitempty"`
	MarketStartTime *TimeRange `json:"marketStartTime,omitempty"`
}

// TimeRange bounds a filter on market start time (RFC 3339 strings, UTC).
type TimeRange struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

type catalogueRequest struct {
	Filter           MarketFilter `json:"filter"`
	MaxResults       int          `json:"maxResults"`
	MarketProjection []string     `json:"marketProjection"`
	Sort             string       `json:"sort"`
}

type bookRequest struct {
	MarketIDs       []string        `json:"marketIds"`
	PriceProjection priceProjection `json:"priceProjection"`
}

type priceProjection struct {
	PriceData  []string `json:"priceData"`
	Virtualise bool     `json:"virtualise"`
}

// MarketCatalogue is one market's static metadata.
type MarketCatalogue struct {
	MarketID        string          `json:"marketId"`
	MarketName      string          `json:"marketName"`
	MarketStartTime string          `json:"marketStartTime"`
	Event           EventInfo       `json:"event"`
	Competition     CompetitionInfo `json:"competition"`
	Runners         []RunnerCatalog `json:"runners"`
}

// EventInfo names the real-world event a market belongs to.
type EventInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CompetitionInfo names the competition a market belongs to.
type CompetitionInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RunnerCatalog is one runner's static metadata within a market.
type RunnerCatalog struct {
	SelectionID int64  `json:"selectionId"`
	RunnerName  string `json:"runnerName"`
}

// MarketBook is one market's live pricing state.
type MarketBook struct {
	MarketID     string       `json:"marketId"`
	Status       string       `json:"status"`
	InPlay       bool         `json:"inplay"`
	TotalMatched float64      `json:"totalMatched"`
	Runners      []RunnerBook `json:"runners"`
}

// RunnerBook is one runner's live best-offer prices.
type RunnerBook struct {
	SelectionID int64          `json:"selectionId"`
	Status      string         `json:"status"`
	EX          ExchangePrices `json:"ex"`
}

// ExchangePrices holds the best available offers on each side.
type ExchangePrices struct {
	AvailableToBack []PriceSize `json:"availableToBack"`
	AvailableToLay  []PriceSize `json:"availableToLay"`
}

// PriceSize is a single price level.
type PriceSize struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// BestBack returns the top available back price, or 0 when the side is empty.
func (r *RunnerBook) BestBack() float64 {
	if len(r.EX.AvailableToBack) == 0 {
		return 0
	}
	return r.EX.AvailableToBack[0].Price
}

// BestLay returns the top available lay price, or 0 when the side is empty.
func (r *RunnerBook) BestLay() float64 {
	if len(r.EX.AvailableToLay) == 0 {
		return 0
	}
	return r.EX.AvailableToLay[0].Price
}
