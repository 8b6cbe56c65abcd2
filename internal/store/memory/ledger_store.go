// Package memory provides an in-process ledger store for tests and runs
// without external persistence.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/alanyoungcy/betgo/internal/domain"
)

// LedgerStore keeps the document as serialized bytes, so every Load hands
// back an independent copy and callers can never mutate stored state
// through shared slices.
type LedgerStore struct {
	mu   sync.RWMutex
	data []byte
}

var _ domain.LedgerStore = (*LedgerStore)(nil)

// NewLedgerStore returns an empty store; the first Load reports
// domain.ErrNotFound.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{}
}

func (s *LedgerStore) Load(ctx context.Context) (domain.LedgerDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data == nil {
		return domain.LedgerDocument{}, domain.ErrNotFound
	}
	var doc domain.LedgerDocument
	if err := json.Unmarshal(s.data, &doc); err != nil {
		return domain.LedgerDocument{}, fmt.Errorf("memory: decode ledger: %w", err)
	}
	return doc, nil
}

func (s *LedgerStore) Save(ctx context.Context, doc domain.LedgerDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("memory: encode ledger: %w", err)
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}
