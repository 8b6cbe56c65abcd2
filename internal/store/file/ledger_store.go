// Package file persists the ledger as a single JSON document on disk,
// rewritten wholesale on every save.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alanyoungcy/betgo/internal/domain"
)

// LedgerStore reads and writes one document at a fixed path. Saves go
// through a temp file and rename, so a crash mid-write never leaves a
// half-written document behind.
type LedgerStore struct {
	path   string
	logger *slog.Logger
}

var _ domain.LedgerStore = (*LedgerStore)(nil)

// NewLedgerStore creates a store at the given path. The file may not
// exist yet; the first Load then reports domain.ErrNotFound.
func NewLedgerStore(path string, logger *slog.Logger) *LedgerStore {
	return &LedgerStore{
		path:   path,
		logger: logger.With(slog.String("component", "ledger_file")),
	}
}

// Load reads the document. A missing file is ErrNotFound; a file that no
// longer decodes is logged and also reported as ErrNotFound, so the caller
// reinitializes instead of crashing on corrupt state.
func (s *LedgerStore) Load(ctx context.Context) (domain.LedgerDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.LedgerDocument{}, domain.ErrNotFound
		}
		return domain.LedgerDocument{}, fmt.Errorf("file: read ledger: %w", err)
	}

	var doc domain.LedgerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("ledger file corrupt, starting fresh",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		return domain.LedgerDocument{}, domain.ErrNotFound
	}
	return doc, nil
}

func (s *LedgerStore) Save(ctx context.Context, doc domain.LedgerDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("file: encode ledger: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("file: create ledger dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("file: write ledger: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("file: replace ledger: %w", err)
	}
	return nil
}
