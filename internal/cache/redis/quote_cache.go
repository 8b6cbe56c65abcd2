package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/alanyoungcy/betgo/internal/domain"
	"github.com/redis/go-redis/v9"
)

// QuoteCache implements domain.QuoteCache using Redis hashes.
//
// Key schema:
//
//	quotes:odds:{signature} - hash with fields "payload" and "ts"
//	quotes:sports           - hash with fields "payload" and "ts"
//
// The stored timestamp is authoritative for staleness: reads compare it
// against the TTL class and report stale entries as ErrNotFound. The Redis
// expiry is set to twice the class TTL purely so abandoned keys do not
// accumulate.
type QuoteCache struct {
	rdb *redis.Client
	now func() time.Time
}

// NewQuoteCache creates a QuoteCache backed by the given Client.
func NewQuoteCache(c *Client) *QuoteCache {
	return &QuoteCache{rdb: c.Underlying(), now: time.Now}
}

func oddsKey(signature string) string { return "quotes:odds:" + signature }

const sportsKey = "quotes:sports"

// GetOdds returns the cached odds payload for the request, or ErrNotFound
// when the entry is absent or older than the odds TTL.
func (qc *QuoteCache) GetOdds(ctx context.Context, req domain.QuoteRequest) ([]byte, error) {
	return qc.get(ctx, oddsKey(req.Signature()), domain.TTLOdds)
}

// SetOdds stores the odds payload under the request's signature.
func (qc *QuoteCache) SetOdds(ctx context.Context, req domain.QuoteRequest, payload []byte) error {
	return qc.set(ctx, oddsKey(req.Signature()), payload, domain.TTLOdds)
}

// GetSports returns the cached sport catalog, or ErrNotFound when absent or
// older than the sports TTL.
func (qc *QuoteCache) GetSports(ctx context.Context) ([]byte, error) {
	return qc.get(ctx, sportsKey, domain.TTLSports)
}

// SetSports stores the sport catalog payload.
func (qc *QuoteCache) SetSports(ctx context.Context, payload []byte) error {
	return qc.set(ctx, sportsKey, payload, domain.TTLSports)
}

// Clear removes every cached quote entry.
func (qc *QuoteCache) Clear(ctx context.Context) error {
	iter := qc.rdb.Scan(ctx, 0, "quotes:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := qc.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis: clear quotes: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis: scan quotes: %w", err)
	}
	return nil
}

func (qc *QuoteCache) get(ctx context.Context, key string, ttl time.Duration) ([]byte, error) {
	vals, err := qc.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get %s: %w", key, err)
	}
	if len(vals) == 0 {
		return nil, domain.ErrNotFound
	}

	tsStr, ok := vals["ts"]
	if !ok {
		return nil, domain.ErrNotFound
	}
	tsNano, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis: parse ts for %s: %w", key, err)
	}
	if qc.now().Sub(time.Unix(0, tsNano)) > ttl {
		return nil, domain.ErrNotFound
	}

	payload, ok := vals["payload"]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return []byte(payload), nil
}

func (qc *QuoteCache) set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	pipe := qc.rdb.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"payload": payload,
		"ts":      strconv.FormatInt(qc.now().UnixNano(), 10),
	})
	pipe.Expire(ctx, key, 2*ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.QuoteCache = (*QuoteCache)(nil)
