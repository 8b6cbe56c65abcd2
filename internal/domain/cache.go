package domain

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
)

// Cache TTL classes. Sport catalogs are stable for a day; odds go stale in
// minutes.
const (
	TTLOdds   = 5 * time.Minute
	TTLSports = 24 * time.Hour
)

// QuoteRequest identifies one odds query for caching purposes.
type QuoteRequest struct {
	Sport      string
	Markets    []string
	Bookmakers []string
}

// Signature returns the deterministic cache key for this request: an MD5
// digest over "sport:market,market:bookmaker,bookmaker", with "all" standing
// in for an empty bookmaker filter.
func (q QuoteRequest) Signature() string {
	books := "all"
	if len(q.Bookmakers) > 0 {
		books = strings.Join(q.Bookmakers, ",")
	}
	raw := q.Sport + ":" + strings.Join(q.Markets, ",") + ":" + books
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// QuoteCache stores raw provider payloads with class-specific TTLs. A stale
// entry is a miss, reported as ErrNotFound. Entries are only overwritten or
// cleared, never evicted in the background.
type QuoteCache interface {
	GetOdds(ctx context.Context, req QuoteRequest) ([]byte, error)
	SetOdds(ctx context.Context, req QuoteRequest, payload []byte) error
	GetSports(ctx context.Context) ([]byte, error)
	SetSports(ctx context.Context, payload []byte) error
	Clear(ctx context.Context) error
}

// RateLimiter enforces a request budget per key over a sliding window. The
// HTTP middleware uses it for per-client limits.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
