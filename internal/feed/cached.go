package feed

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/calebmorris/steamerbot/internal/domain"
)

// CachedClient wraps a Client with the adaptive cache. The caller computes
// the TTL from match proximity (see TTLFor); the cache enforces the floor
// and guarantees that error payloads never overwrite a good payload, so a
// failed fetch is retried on the next access instead of being served stale
// for a full TTL.
type CachedClient struct {
	client *Client
	cache  domain.FeedCache
	floor  time.Duration
	now    func() time.Time
	logger *slog.Logger
	calls  atomic.Int64 // upstream calls this session, for budget accounting
}

// NewCachedClient creates a CachedClient with the given TTL floor.
func NewCachedClient(client *Client, cache domain.FeedCache, floor time.Duration, logger *slog.Logger) *CachedClient {
	return &CachedClient{
		client: client,
		cache:  cache,
		floor:  floor,
		now:    time.Now,
		logger: logger.With(slog.String("component", "feed_cache")),
	}
}

// Calls returns the number of upstream API calls made so far this session.
func (cc *CachedClient) Calls() int64 {
	return cc.calls.Load()
}

// Fetch returns the feed events for sportKey, serving from cache while the
// prior payload is younger than max(ttl, floor). Sub-floor TTLs never bypass
// the floor: the system will not refresh faster than the floor even under
// maximum urgency.
func (cc *CachedClient) Fetch(ctx context.Context, sportKey string, ttl time.Duration) ([]domain.FeedEvent, error) {
	if ttl < cc.floor {
		ttl = cc.floor
	}
	now := cc.now()

	if payload, fetchedAt, err := cc.cache.Get(ctx, sportKey); err == nil {
		if age := now.Sub(fetchedAt); age >= 0 && age < ttl {
			if events, derr := Decode(payload); derr == nil {
				return events, nil
			}
			// A cached payload that no longer decodes is treated as a miss.
		}
	}

	n := cc.calls.Add(1)
	cc.logger.Info("calling odds feed",
		slog.String("sport_key", sportKey),
		slog.Duration("ttl", ttl),
		slog.String("urgency", urgencyLabel(ttl)),
		slog.Int64("calls_this_session", n),
	)

	payload, err := cc.client.FetchRaw(ctx, sportKey)
	if err != nil {
		return nil, err
	}

	events, err := Decode(payload)
	if err != nil {
		// Error payloads are not cached, so the next access retries
		// promptly instead of serving the error for a full TTL.
		return nil, err
	}

	if perr := cc.cache.Put(ctx, sportKey, payload, now); perr != nil {
		cc.logger.Warn("feed cache write failed",
			slog.String("sport_key", sportKey),
			slog.String("error", perr.Error()),
		)
	}
	return events, nil
}

func urgencyLabel(ttl time.Duration) string {
	switch {
	case ttl < 5*time.Minute:
		return "urgent"
	case ttl < time.Hour:
		return "normal"
	default:
		return "lazy"
	}
}
