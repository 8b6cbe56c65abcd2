// Package memory implements domain.QuoteCache with a process-local map.
// It is the default backend when no Redis address is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/alanyoungcy/betgo/internal/domain"
)

type entry struct {
	payload   []byte
	fetchedAt time.Time
}

// QuoteCache keeps odds payloads in memory. Expiry is lazy: entries past
// their TTL class are reported as misses on read and overwritten on the next
// fetch, never evicted by a background sweep.
type QuoteCache struct {
	mu     sync.RWMutex
	odds   map[string]entry
	sports *entry
	now    func() time.Time
}

// NewQuoteCache returns an empty cache.
func NewQuoteCache() *QuoteCache {
	return &QuoteCache{
		odds: make(map[string]entry),
		now:  time.Now,
	}
}

// GetOdds returns the cached payload for the request, or ErrNotFound when
// the entry is absent or older than the odds TTL.
func (c *QuoteCache) GetOdds(_ context.Context, req domain.QuoteRequest) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.odds[req.Signature()]
	if !ok || c.stale(e, domain.TTLOdds) {
		return nil, domain.ErrNotFound
	}
	return e.payload, nil
}

// SetOdds stores the payload under the request's signature, resetting its
// age.
func (c *QuoteCache) SetOdds(_ context.Context, req domain.QuoteRequest, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.odds[req.Signature()] = entry{payload: payload, fetchedAt: c.now()}
	return nil
}

// GetSports returns the cached sport catalog, or ErrNotFound when absent or
// older than the sports TTL.
func (c *QuoteCache) GetSports(_ context.Context) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.sports == nil || c.stale(*c.sports, domain.TTLSports) {
		return nil, domain.ErrNotFound
	}
	return c.sports.payload, nil
}

// SetSports stores the sport catalog payload.
func (c *QuoteCache) SetSports(_ context.Context, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sports = &entry{payload: payload, fetchedAt: c.now()}
	return nil
}

// Clear drops every entry.
func (c *QuoteCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.odds = make(map[string]entry)
	c.sports = nil
	return nil
}

func (c *QuoteCache) stale(e entry, ttl time.Duration) bool {
	return c.now().Sub(e.fetchedAt) > ttl
}

var _ domain.QuoteCache = (*QuoteCache)(nil)
