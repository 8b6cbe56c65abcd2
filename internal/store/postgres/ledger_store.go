package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/betgo/internal/domain"
)

// LedgerStore keeps the whole simulation document in one JSONB row,
// last writer wins.
type LedgerStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ domain.LedgerStore = (*LedgerStore)(nil)

// NewLedgerStore creates a store backed by the given connection pool.
func NewLedgerStore(pool *pgxpool.Pool, logger *slog.Logger) *LedgerStore {
	return &LedgerStore{
		pool:   pool,
		logger: logger.With(slog.String("component", "ledger_postgres")),
	}
}

// Load reads the document row. No row is ErrNotFound; a row that no longer
// decodes into the document shape is logged and reported as ErrNotFound so
// the caller starts fresh instead of crashing.
func (s *LedgerStore) Load(ctx context.Context) (domain.LedgerDocument, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		"SELECT document FROM simulation_ledger WHERE id = 1",
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.LedgerDocument{}, domain.ErrNotFound
		}
		return domain.LedgerDocument{}, fmt.Errorf("postgres: load ledger: %w", err)
	}

	var doc domain.LedgerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("ledger row corrupt, starting fresh", slog.String("error", err.Error()))
		return domain.LedgerDocument{}, domain.ErrNotFound
	}
	return doc, nil
}

func (s *LedgerStore) Save(ctx context.Context, doc domain.LedgerDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("postgres: encode ledger: %w", err)
	}

	const query = `
		INSERT INTO simulation_ledger (id, document, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET
			document   = EXCLUDED.document,
			updated_at = NOW()`
	if _, err := s.pool.Exec(ctx, query, data); err != nil {
		return fmt.Errorf("postgres: save ledger: %w", err)
	}
	return nil
}
