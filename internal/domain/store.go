package domain

import "context"

// LedgerStore persists the simulation ledger as a single document. Save
// replaces the stored document wholesale; there is no partial update. Load
// returns ErrNotFound when no document has been saved yet.
type LedgerStore interface {
	Load(ctx context.Context) (LedgerDocument, error)
	Save(ctx context.Context, doc LedgerDocument) error
}
