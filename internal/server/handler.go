package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/calebmorris/steamerbot/internal/config"
	"github.com/calebmorris/steamerbot/internal/domain"
	"github.com/calebmorris/steamerbot/internal/match"
)

// Handler serves the read-only status endpoints.
type Handler struct {
	selections domain.SelectionStore
	history    domain.AlertHistory
	stats      *match.Stats
	books      []config.BookmakerConfig
	mode       string
	startedAt  time.Time
	logger     *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(selections domain.SelectionStore, history domain.AlertHistory, stats *match.Stats, books []config.BookmakerConfig, mode string, logger *slog.Logger) *Handler {
	return &Handler{
		selections: selections,
		history:    history,
		stats:      stats,
		books:      books,
		mode:       mode,
		startedAt:  time.Now().UTC(),
		logger:     logger.With(slog.String("component", "handler")),
	}
}

// Health reports liveness and uptime.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"mode":           h.mode,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}

// selectionView is the wire shape of one selection row.
type selectionView struct {
	RunnerKey   string             `json:"runner_key"`
	Sport       string             `json:"sport"`
	EventName   string             `json:"event_name"`
	RunnerName  string             `json:"runner_name"`
	Competition string             `json:"competition,omitempty"`
	MarketID    string             `json:"market_id"`
	StartTime   *time.Time         `json:"start_time,omitempty"`
	BackPrice   float64            `json:"back_price"`
	LayPrice    float64            `json:"lay_price"`
	Volume      float64            `json:"volume"`
	InPlay      bool               `json:"in_play"`
	Status      string             `json:"status"`
	BookPrices  map[string]float64 `json:"book_prices,omitempty"`
	LastUpdated time.Time          `json:"last_updated"`
}

// ListSelections returns every open selection with its bookmaker prices keyed
// by bookmaker.
// GET /api/selections
func (h *Handler) ListSelections(w http.ResponseWriter, r *http.Request) {
	rows, err := h.selections.ListOpen(r.Context())
	if err != nil {
		h.logger.Error("list selections failed", slog.String("error", err.Error()))
		h.writeError(w, http.StatusInternalServerError, "failed to list selections")
		return
	}

	views := make([]selectionView, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		v := selectionView{
			RunnerKey:   row.RunnerKey(),
			Sport:       row.Sport,
			EventName:   row.EventName,
			RunnerName:  row.RunnerName,
			Competition: row.Competition,
			MarketID:    row.MarketID,
			BackPrice:   row.BackPrice,
			LayPrice:    row.LayPrice,
			Volume:      row.Volume,
			InPlay:      row.InPlay,
			Status:      string(row.Status),
			LastUpdated: row.LastUpdated,
		}
		if !row.StartTime.IsZero() {
			t := row.StartTime
			v.StartTime = &t
		}
		for slot, price := range row.BookPrices {
			if price == nil || slot >= len(h.books) {
				continue
			}
			if v.BookPrices == nil {
				v.BookPrices = make(map[string]float64, len(h.books))
			}
			v.BookPrices[h.books[slot].Key] = *price
		}
		views = append(views, v)
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"count":      len(views),
		"selections": views,
	})
}

// MatchStats returns the per-sport matching diagnostics from the most recent
// matching pass.
// GET /api/stats
func (h *Handler) MatchStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.stats.Snapshot())
}

// AlertSummary returns how many alerts were delivered over the last hour and
// day.
// GET /api/alerts/summary
func (h *Handler) AlertSummary(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	lastHour, err := h.history.CountSince(r.Context(), now.Add(-time.Hour))
	if err != nil {
		h.logger.Error("alert count failed", slog.String("error", err.Error()))
		h.writeError(w, http.StatusInternalServerError, "failed to count alerts")
		return
	}
	lastDay, err := h.history.CountSince(r.Context(), now.Add(-24*time.Hour))
	if err != nil {
		h.logger.Error("alert count failed", slog.String("error", err.Error()))
		h.writeError(w, http.StatusInternalServerError, "failed to count alerts")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"alerts_last_hour": lastHour,
		"alerts_last_day":  lastDay,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response failed", slog.String("error", err.Error()))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
