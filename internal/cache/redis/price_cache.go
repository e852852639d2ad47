package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pairscout/engine/internal/domain"
)

// PriceCache implements domain.PriceCache using Redis hashes. Each market's
// quotes live in a hash at key "price:{marketID}" with per-side fields
// ("yes"/"no") and per-side Unix nanosecond timestamps ("yes_ts"/"no_ts"),
// so the YES and NO feeds can update independently.
type PriceCache struct {
	rdb *redis.Client
}

// NewPriceCache creates a PriceCache backed by the given Client.
func NewPriceCache(c *Client) *PriceCache {
	return &PriceCache{rdb: c.Underlying()}
}

func priceKey(marketID string) string {
	return "price:" + marketID
}

func sideField(outcome domain.Outcome) string {
	return strings.ToLower(string(outcome))
}

// SetPrice stores the latest quote for one side of a market.
func (pc *PriceCache) SetPrice(ctx context.Context, marketID string, outcome domain.Outcome, price float64, ts time.Time) error {
	side := sideField(outcome)
	fields := map[string]interface{}{
		side:         strconv.FormatFloat(price, 'f', -1, 64),
		side + "_ts": strconv.FormatInt(ts.UnixNano(), 10),
	}
	if err := pc.rdb.HSet(ctx, priceKey(marketID), fields).Err(); err != nil {
		return fmt.Errorf("redis: set price %s/%s: %w", marketID, side, err)
	}
	return nil
}

// GetPrice retrieves the latest quote and timestamp for one side of a market.
// It returns domain.ErrNotFound when that side has never been quoted.
func (pc *PriceCache) GetPrice(ctx context.Context, marketID string, outcome domain.Outcome) (float64, time.Time, error) {
	side := sideField(outcome)
	vals, err := pc.rdb.HMGet(ctx, priceKey(marketID), side, side+"_ts").Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: get price %s/%s: %w", marketID, side, err)
	}
	if len(vals) != 2 || vals[0] == nil {
		return 0, time.Time{}, domain.ErrNotFound
	}

	price, err := parseHashFloat(vals[0])
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse price %s/%s: %w", marketID, side, err)
	}

	var ts time.Time
	if vals[1] != nil {
		nano, err := parseHashInt(vals[1])
		if err != nil {
			return 0, time.Time{}, fmt.Errorf("redis: parse ts %s/%s: %w", marketID, side, err)
		}
		ts = time.Unix(0, nano)
	}

	return price, ts, nil
}

// GetPrices retrieves the latest quotes for multiple markets using a
// pipeline. Sides that have never been quoted stay nil; markets with no
// cached quotes at all are omitted from the result map.
func (pc *PriceCache) GetPrices(ctx context.Context, marketIDs []string) (map[string]domain.QuotePair, error) {
	if len(marketIDs) == 0 {
		return map[string]domain.QuotePair{}, nil
	}

	pipe := pc.rdb.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(marketIDs))
	for _, id := range marketIDs {
		cmds[id] = pipe.HGetAll(ctx, priceKey(id))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: get prices pipeline: %w", err)
	}

	result := make(map[string]domain.QuotePair, len(marketIDs))
	for id, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil || len(vals) == 0 {
			continue
		}

		var quote domain.QuotePair
		if raw, ok := vals["yes"]; ok {
			if p, err := strconv.ParseFloat(raw, 64); err == nil {
				quote.Yes = &p
			}
		}
		if raw, ok := vals["no"]; ok {
			if p, err := strconv.ParseFloat(raw, 64); err == nil {
				quote.No = &p
			}
		}
		if quote.Yes == nil && quote.No == nil {
			continue
		}
		result[id] = quote
	}

	return result, nil
}

func parseHashFloat(v interface{}) (float64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected type %T", v)
	}
	return strconv.ParseFloat(s, 64)
}

func parseHashInt(v interface{}) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected type %T", v)
	}
	return strconv.ParseInt(s, 10, 64)
}

// Compile-time interface check.
var _ domain.PriceCache = (*PriceCache)(nil)
