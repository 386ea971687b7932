package arb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/calebmorris/steamerbot/internal/config"
	"github.com/calebmorris/steamerbot/internal/domain"
)

// Dispatcher delivers a formatted alert to the outside world and reports
// whether at least one channel confirmed delivery.
type Dispatcher interface {
	Send(ctx context.Context, title, body string) bool
}

// Alert is the payload pushed to websocket subscribers when an opportunity
// clears the dispatch gates.
type Alert struct {
	SelectionKey string    `json:"selection_key"`
	Sport        string    `json:"sport"`
	EventName    string    `json:"event_name"`
	RunnerName   string    `json:"runner_name"`
	Bookmaker    string    `json:"bookmaker"`
	BookPrice    float64   `json:"book_price"`
	BackPrice    float64   `json:"back_price"`
	LayPrice     float64   `json:"lay_price"`
	Edge         float64   `json:"edge"`
	Advantage    float64   `json:"advantage"`
	Volume       float64   `json:"volume"`
	StartTime    time.Time `json:"start_time"`
	TS           time.Time `json:"ts"`
}

// Opportunity is a selection that survived every evaluation gate.
type Opportunity struct {
	Selection domain.Selection
	Bookmaker config.BookmakerConfig
	BookPrice float64
	Edge      float64
	Advantage float64
}

// Engine evaluates selections against bookmaker prices and dispatches alerts,
// consulting history so the same steamer does not fire on every cycle.
type Engine struct {
	cfg        config.AlertConfig
	books      []config.BookmakerConfig
	history    domain.AlertHistory
	dispatcher Dispatcher
	broadcast  func(Alert)
	now        func() time.Time
	logger     *slog.Logger
}

// NewEngine wires an evaluation engine. broadcast may be nil when no
// websocket hub is attached.
func NewEngine(cfg config.AlertConfig, books []config.BookmakerConfig, history domain.AlertHistory, dispatcher Dispatcher, broadcast func(Alert), logger *slog.Logger) *Engine {
	return &Engine{
		cfg:        cfg,
		books:      books,
		history:    history,
		dispatcher: dispatcher,
		broadcast:  broadcast,
		now:        time.Now,
		logger:     logger.With("component", "arb"),
	}
}

// Evaluate runs the gate pipeline over a single selection. Gates run in a
// fixed order and the first failure wins, so cheap checks shield the
// arithmetic behind them:
//
//	liquidity -> pre-match -> valid prices -> spread -> advantage -> edge
func (e *Engine) Evaluate(s domain.Selection) (Opportunity, bool) {
	if s.Volume < e.cfg.MinVolume {
		return Opportunity{}, false
	}
	// A zero start time means the venue never told us; those stay eligible.
	if !s.StartTime.IsZero() && !s.StartTime.After(e.now()) {
		return Opportunity{}, false
	}
	if s.BackPrice <= MinViableOdds || s.LayPrice <= MinViableOdds {
		return Opportunity{}, false
	}
	spread := (s.LayPrice - s.BackPrice) / s.BackPrice
	if spread > e.cfg.MaxSpread {
		return Opportunity{}, false
	}
	bookPrice, slot := s.BookPrices.Best()
	if slot < 0 || slot >= len(e.books) {
		return Opportunity{}, false
	}
	advantage := (bookPrice - s.LayPrice) / s.LayPrice
	if advantage < e.cfg.MinPriceAdvantage {
		return Opportunity{}, false
	}
	edge := Edge(bookPrice, s.LayPrice, e.cfg.Commission)
	if edge < e.cfg.EdgeThreshold {
		return Opportunity{}, false
	}
	return Opportunity{
		Selection: s,
		Bookmaker: e.books[slot],
		BookPrice: bookPrice,
		Edge:      edge,
		Advantage: advantage,
	}, true
}

// ShouldAlert decides whether an opportunity justifies a fresh alert given
// what was last sent for the same selection. rec is nil when there is no
// prior record.
func (e *Engine) ShouldAlert(rec *domain.AlertRecord, opp Opportunity) bool {
	if rec == nil {
		return true
	}
	if opp.Edge >= rec.LastEdge+0.002 {
		return true
	}
	if e.now().Sub(rec.LastAlertTime) >= e.cfg.Cooldown.Duration {
		return true
	}
	if abs(opp.BookPrice-rec.LastBookPrice) >= 0.03 || abs(opp.Selection.LayPrice-rec.LastLayPrice) >= 0.03 {
		return true
	}
	return false
}

// RunCycle evaluates every row, dispatches alerts for those that clear the
// history check, and returns the number delivered. History lookups fail open:
// a broken history store degrades to noisier alerting, never to silence.
func (e *Engine) RunCycle(ctx context.Context, rows []domain.Selection) (int, error) {
	sent := 0
	for _, row := range rows {
		opp, ok := e.Evaluate(row)
		if !ok {
			continue
		}
		key := row.RunnerKey()
		var rec *domain.AlertRecord
		r, err := e.history.Get(ctx, key)
		switch {
		case err == nil:
			rec = &r
		case errors.Is(err, domain.ErrNotFound):
		default:
			e.logger.Warn("alert history read failed", "key", key, "error", err)
		}
		if !e.ShouldAlert(rec, opp) {
			continue
		}
		title, body := formatAlert(opp)
		if !e.dispatcher.Send(ctx, title, body) {
			e.logger.Warn("alert not delivered", "key", key, "runner", row.RunnerName)
			continue
		}
		sent++
		now := e.now()
		put := domain.AlertRecord{
			LastAlertTime: now,
			LastEdge:      opp.Edge,
			LastBookPrice: opp.BookPrice,
			LastLayPrice:  row.LayPrice,
		}
		if err := e.history.Put(ctx, key, put); err != nil {
			e.logger.Warn("alert history write failed", "key", key, "error", err)
		}
		if e.broadcast != nil {
			e.broadcast(Alert{
				SelectionKey: key,
				Sport:        row.Sport,
				EventName:    row.EventName,
				RunnerName:   row.RunnerName,
				Bookmaker:    opp.Bookmaker.Name,
				BookPrice:    opp.BookPrice,
				BackPrice:    row.BackPrice,
				LayPrice:     row.LayPrice,
				Edge:         opp.Edge,
				Advantage:    opp.Advantage,
				Volume:       row.Volume,
				StartTime:    row.StartTime,
				TS:           now,
			})
		}
		e.logger.Info("steamer alert",
			"runner", row.RunnerName,
			"event", row.EventName,
			"bookmaker", opp.Bookmaker.Key,
			"book_price", opp.BookPrice,
			"lay_price", row.LayPrice,
			"edge", opp.Edge,
		)
	}
	return sent, nil
}

func formatAlert(opp Opportunity) (title, body string) {
	s := opp.Selection
	title = fmt.Sprintf("STEAMER: %s", s.RunnerName)
	var b strings.Builder
	fmt.Fprintf(&b, "🚀 Gap: +%.1f%% (edge %.2f%%)\n", opp.Advantage*100, opp.Edge*100)
	fmt.Fprintf(&b, "🏦 %s: %.2f\n", opp.Bookmaker.Name, opp.BookPrice)
	fmt.Fprintf(&b, "🔄 Exchange: %.2f / %.2f\n", s.BackPrice, s.LayPrice)
	fmt.Fprintf(&b, "💰 Vol: £%.0f\n", s.Volume)
	fmt.Fprintf(&b, "🏟 %s", s.EventName)
	if !s.StartTime.IsZero() {
		fmt.Fprintf(&b, "\n⏰ %s", s.StartTime.UTC().Format("Mon 15:04 MST"))
	}
	return title, b.String()
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
