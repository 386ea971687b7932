package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/calebmorris/steamerbot/internal/domain"
)

// Alert records outlive any single event by a wide margin so cooldown state
// survives restarts; the recent index is trimmed on write instead.
const (
	alertRecordExpiry = 7 * 24 * time.Hour
	alertIndexWindow  = 48 * time.Hour
)

// AlertHistory implements domain.AlertHistory using Redis hashes plus a
// sorted-set index of recent alerts.
//
// Key schema:
//
//	alert:{runnerKey} - hash with fields last_ts, last_edge, last_book, last_lay
//	alerts:recent     - sorted set, score = alert Unix time, member unique per alert
type AlertHistory struct {
	rdb *redis.Client
}

// NewAlertHistory creates an AlertHistory backed by the given Client.
func NewAlertHistory(c *Client) *AlertHistory {
	return &AlertHistory{rdb: c.Underlying()}
}

const alertsRecentKey = "alerts:recent"

func alertKey(runnerKey string) string { return "alert:" + runnerKey }

// Get retrieves the last alert record for a runner key. It returns
// domain.ErrNotFound when no alert has been recorded.
func (h *AlertHistory) Get(ctx context.Context, runnerKey string) (domain.AlertRecord, error) {
	vals, err := h.rdb.HGetAll(ctx, alertKey(runnerKey)).Result()
	if err != nil {
		return domain.AlertRecord{}, fmt.Errorf("redis: get alert record %s: %w", runnerKey, err)
	}
	if len(vals) == 0 {
		return domain.AlertRecord{}, domain.ErrNotFound
	}

	var rec domain.AlertRecord
	tsNano, err := strconv.ParseInt(vals["last_ts"], 10, 64)
	if err != nil {
		return domain.AlertRecord{}, fmt.Errorf("redis: parse alert ts %s: %w", runnerKey, err)
	}
	rec.LastAlertTime = time.Unix(0, tsNano)

	if rec.LastEdge, err = strconv.ParseFloat(vals["last_edge"], 64); err != nil {
		return domain.AlertRecord{}, fmt.Errorf("redis: parse alert edge %s: %w", runnerKey, err)
	}
	if rec.LastBookPrice, err = strconv.ParseFloat(vals["last_book"], 64); err != nil {
		return domain.AlertRecord{}, fmt.Errorf("redis: parse alert book price %s: %w", runnerKey, err)
	}
	if rec.LastLayPrice, err = strconv.ParseFloat(vals["last_lay"], 64); err != nil {
		return domain.AlertRecord{}, fmt.Errorf("redis: parse alert lay price %s: %w", runnerKey, err)
	}
	return rec, nil
}

// Put records a delivered alert and appends it to the recent index.
func (h *AlertHistory) Put(ctx context.Context, runnerKey string, rec domain.AlertRecord) error {
	key := alertKey(runnerKey)

	pipe := h.rdb.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"last_ts":   strconv.FormatInt(rec.LastAlertTime.UnixNano(), 10),
		"last_edge": strconv.FormatFloat(rec.LastEdge, 'f', -1, 64),
		"last_book": strconv.FormatFloat(rec.LastBookPrice, 'f', -1, 64),
		"last_lay":  strconv.FormatFloat(rec.LastLayPrice, 'f', -1, 64),
	})
	pipe.Expire(ctx, key, alertRecordExpiry)
	pipe.ZAdd(ctx, alertsRecentKey, redis.Z{
		Score:  float64(rec.LastAlertTime.Unix()),
		Member: runnerKey + ":" + uuid.NewString(),
	})
	pipe.ZRemRangeByScore(ctx, alertsRecentKey,
		"-inf", strconv.FormatInt(rec.LastAlertTime.Add(-alertIndexWindow).Unix(), 10))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: put alert record %s: %w", runnerKey, err)
	}
	return nil
}

// CountSince returns how many alerts were recorded after the given time.
func (h *AlertHistory) CountSince(ctx context.Context, since time.Time) (int64, error) {
	n, err := h.rdb.ZCount(ctx, alertsRecentKey,
		strconv.FormatInt(since.Unix(), 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("redis: count alerts since %s: %w", since.Format(time.RFC3339), err)
	}
	return n, nil
}

// Compile-time interface check.
var _ domain.AlertHistory = (*AlertHistory)(nil)
