// Package credentials rotates among rate-limited odds-provider API keys,
// always preferring the key with the most quota left.
package credentials

import (
	"strings"
	"sync"
	"time"

	"github.com/alanyoungcy/betgo/internal/domain"
)

// Manager tracks remaining quota per credential and picks the best one for
// each upstream request. Credentials are registered once at construction and
// mutated forever; none are ever removed.
type Manager struct {
	mu    sync.Mutex
	creds []*domain.Credential
	now   func() time.Time
}

// NewManager builds a manager from raw API keys. Blank keys are skipped.
func NewManager(keys []string) *Manager {
	m := &Manager{now: time.Now}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		m.creds = append(m.creds, &domain.Credential{Key: k})
	}
	return m
}

// Best returns the credential to use for the next request. A key with the
// highest known positive quota wins; a key whose quota is still unknown is
// used only when no known key has quota left; ErrNoCredential means every
// known key is exhausted and no unknown key remains.
func (m *Manager) Best() (domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var best, unknown *domain.Credential
	for _, c := range m.creds {
		if c.Remaining == nil {
			if unknown == nil {
				unknown = c
			}
			continue
		}
		if *c.Remaining <= 0 {
			continue
		}
		if best == nil || *c.Remaining > *best.Remaining {
			best = c
		}
	}

	pick := best
	if pick == nil {
		pick = unknown
	}
	if pick == nil {
		return domain.Credential{}, domain.ErrNoCredential
	}
	return *pick, nil
}

// RecordUsage overwrites the remaining quota reported by the provider after
// a request made with key. Updates are idempotent and accepted out of order;
// unknown keys are ignored.
func (m *Manager) RecordUsage(key string, remaining int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.creds {
		if c.Key == key {
			r := remaining
			c.Remaining = &r
			c.LastUsed = m.now()
			return
		}
	}
}

// Count returns the number of registered credentials.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.creds)
}

// Stats returns a usage snapshot with masked keys, in registration order.
func (m *Manager) Stats() []domain.CredentialStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.CredentialStats, 0, len(m.creds))
	for _, c := range m.creds {
		s := domain.CredentialStats{
			Key:       MaskKey(c.Key),
			Exhausted: c.Exhausted(),
		}
		if c.Remaining != nil {
			r := *c.Remaining
			s.Remaining = &r
		}
		if !c.LastUsed.IsZero() {
			t := c.LastUsed
			s.LastUsed = &t
		}
		out = append(out, s)
	}
	return out
}

// MaskKey hides the middle of an API key for display and metric labels.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + "..." + key[len(key)-4:]
}
