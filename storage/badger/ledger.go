package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/bulkseed/core"
	"github.com/poiesic/bulkseed/storage"
)

// LedgerRepository implements storage.LedgerRepository for BadgerDB.
type LedgerRepository struct {
	backend *Backend
}

var _ storage.LedgerRepository = (*LedgerRepository)(nil)

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(backend *Backend) *LedgerRepository {
	return &LedgerRepository{
		backend: backend,
	}
}

// SaveOutcome persists the outcome of a batch.
func (r *LedgerRepository) SaveOutcome(ctx context.Context, outcome *core.BatchOutcome) error {
	if outcome.RunID == "" {
		return storage.ErrInvalidQuery
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeOutcomeKey(outcome.RunID, outcome.BatchSeq)
		if err := tx.Set(key, storage.MarshalOutcome(outcome)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListOutcomes returns the outcomes recorded for a run in batch order.
func (r *LedgerRepository) ListOutcomes(ctx context.Context, runID string) ([]*core.BatchOutcome, error) {
	if runID == "" {
		return nil, storage.ErrInvalidQuery
	}

	outcomes := []*core.BatchOutcome{}
	err := r.backend.scanPrefix(makeOutcomePrefix(runID), func(val []byte) error {
		outcome, err := storage.UnmarshalOutcome(val)
		if err != nil {
			return err
		}
		outcomes = append(outcomes, outcome)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Close is a no-op; the backend is owned by the caller.
func (r *LedgerRepository) Close() error {
	return nil
}
