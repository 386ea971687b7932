// Package feed implements the odds-feed client and the proximity-aware
// adaptive cache that bounds external API consumption.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/calebmorris/steamerbot/internal/config"
)

// Client is the REST client for the odds feed.
type Client struct {
	baseURL    string
	apiKey     string
	regions    string
	bookmakers string // comma-joined tracked keys
	httpClient *http.Client
}

// NewClient creates a feed client from configuration. The tracked bookmaker
// keys are passed upstream so the feed only returns quotes the matcher will
// read.
func NewClient(cfg config.FeedConfig) *Client {
	keys := make([]string, 0, len(cfg.Bookmakers))
	for _, b := range cfg.Bookmakers {
		keys = append(keys, b.Key)
	}
	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		regions:    cfg.Regions,
		bookmakers: strings.Join(keys, ","),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchRaw retrieves the raw head-to-head odds payload for one sport key.
// The request carries a fixed timeout via the underlying client, so it can
// never block a cycle indefinitely.
func (c *Client) FetchRaw(ctx context.Context, sportKey string) ([]byte, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("regions", c.regions)
	params.Set("markets", "h2h")
	params.Set("oddsFormat", "decimal")
	params.Set("bookmakers", c.bookmakers)

	u := fmt.Sprintf("%s/sports/%s/odds?%s", c.baseURL, url.PathEscape(sportKey), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed: fetch %s: %w", sportKey, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("feed: read body for %s: %w", sportKey, err)
	}
	// Non-2xx responses still carry a JSON message body; Decode surfaces it
	// as an upstream error, so the body is returned either way.
	return body, nil
}
