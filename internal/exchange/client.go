// Package exchange implements the betting-exchange REST client: a
// market-catalogue query for metadata followed by market-book queries for
// live prices, batched by market id.
package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/calebmorris/steamerbot/internal/config"
)

// Client is the exchange REST client. Requests authenticate with an
// application key and a session token; session management (login, keep-alive)
// belongs to the operator, not the core.
type Client struct {
	baseURL      string
	appKey       string
	sessionToken string
	maxResults   int
	httpClient   *http.Client
}

// NewClient creates an exchange client from configuration.
func NewClient(cfg config.ExchangeConfig) *Client {
	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 500
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		appKey:       cfg.AppKey,
		sessionToken: cfg.SessionToken,
		maxResults:   maxResults,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// ListMarketCatalogue returns match-odds markets matching the filter,
// soonest first, with event, competition, and runner metadata attached.
func (c *Client) ListMarketCatalogue(ctx context.Context, filter MarketFilter) ([]MarketCatalogue, error) {
	if len(filter.MarketTypeCodes) == 0 {
		filter.MarketTypeCodes = []string{"MATCH_ODDS"}
	}
	req := catalogueRequest{
		Filter:           filter,
		MaxResults:       c.maxResults,
		MarketProjection: []string{"MARKET_START_TIME", "EVENT", "COMPETITION", "RUNNER_METADATA"},
		Sort:             "FIRST_TO_START",
	}

	var out []MarketCatalogue
	if err := c.post(ctx, "listMarketCatalogue", req, &out); err != nil {
		return nil, fmt.Errorf("exchange: list market catalogue: %w", err)
	}
	return out, nil
}

// ListMarketBook returns live best-offer prices and matched volume for the
// given market ids. Callers batch ids in small chunks to bound request size.
func (c *Client) ListMarketBook(ctx context.Context, marketIDs []string) ([]MarketBook, error) {
	if len(marketIDs) == 0 {
		return nil, nil
	}
	req := bookRequest{
		MarketIDs: marketIDs,
		PriceProjection: priceProjection{
			PriceData:  []string{"EX_BEST_OFFERS", "EX_TRADED"},
			Virtualise: true,
		},
	}

	var out []MarketBook
	if err := c.post(ctx, "listMarketBook", req, &out); err != nil {
		return nil, fmt.Errorf("exchange: list market book: %w", err)
	}
	return out, nil
}

// DefaultTimeRange returns the standard catalogue window: a day back (to
// catch in-play markets) through 90 days ahead.
func DefaultTimeRange(now time.Time) *TimeRange {
	const layout = "2006-01-02T15:04:05Z"
	return &TimeRange{
		From: now.UTC().Add(-24 * time.Hour).Format(layout),
		To:   now.UTC().Add(90 * 24 * time.Hour).Format(layout),
	}
}

func (c *Client) post(ctx context.Context, method string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	u := c.baseURL + "/" + method + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Application", c.appKey)
	req.Header.Set("X-Authentication", c.sessionToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(respBody, 256))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
