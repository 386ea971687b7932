package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/calebmorris/steamerbot/internal/domain"
)

// Payloads are kept well past any freshness window so a restart can serve
// stale-but-decodable data while the first fetches land. Freshness is the
// caller's problem; feedExpiry only bounds key growth.
const feedExpiry = 24 * time.Hour

// FeedCache implements domain.FeedCache using Redis hashes.
//
// Key schema:
//
//	feed:{sportKey} - hash with fields "payload" and "fetched_at" (Unix nanos)
type FeedCache struct {
	rdb *redis.Client
}

// NewFeedCache creates a FeedCache backed by the given Client.
func NewFeedCache(c *Client) *FeedCache {
	return &FeedCache{rdb: c.Underlying()}
}

func feedKey(sportKey string) string { return "feed:" + sportKey }

// Get returns the last stored payload for a sport key and when it was
// fetched. It returns domain.ErrNotFound when no payload exists.
func (fc *FeedCache) Get(ctx context.Context, sportKey string) ([]byte, time.Time, error) {
	vals, err := fc.rdb.HGetAll(ctx, feedKey(sportKey)).Result()
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("redis: get feed payload %s: %w", sportKey, err)
	}
	if len(vals) == 0 {
		return nil, time.Time{}, domain.ErrNotFound
	}

	payload, ok := vals["payload"]
	if !ok {
		return nil, time.Time{}, domain.ErrNotFound
	}
	tsStr, ok := vals["fetched_at"]
	if !ok {
		return nil, time.Time{}, domain.ErrNotFound
	}
	tsNano, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("redis: parse feed fetched_at %s: %w", sportKey, err)
	}

	return []byte(payload), time.Unix(0, tsNano), nil
}

// Put stores a feed payload and its fetch time for a sport key.
func (fc *FeedCache) Put(ctx context.Context, sportKey string, payload []byte, fetchedAt time.Time) error {
	key := feedKey(sportKey)

	pipe := fc.rdb.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"payload":    payload,
		"fetched_at": strconv.FormatInt(fetchedAt.UnixNano(), 10),
	})
	pipe.Expire(ctx, key, feedExpiry)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: put feed payload %s: %w", sportKey, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.FeedCache = (*FeedCache)(nil)
