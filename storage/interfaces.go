package storage

import (
	"context"

	"github.com/poiesic/bulkseed/core"
)

// Destination receives batches from the ingestion pipeline.
// Implementations must be thread-safe; the pipeline submits batches
// from several goroutines at once.
type Destination interface {
	// Ping verifies the destination is reachable.
	// The pipeline calls it once before any batch work begins.
	Ping(ctx context.Context) error

	// SubmitBatch writes every record in the batch.
	// A non-nil error marks the attempt as failed; the pipeline decides
	// whether to retry.
	SubmitBatch(ctx context.Context, batch core.Batch) error
}

// Refresher is implemented by destinations that buffer writes and need an
// explicit refresh before newly written records become visible to readers.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// LedgerRepository persists the terminal outcome of every batch in a run.
type LedgerRepository interface {
	// SaveOutcome stores or replaces the outcome for (RunID, BatchSeq).
	SaveOutcome(ctx context.Context, outcome *core.BatchOutcome) error

	// ListOutcomes returns all outcomes of a run ordered by batch sequence.
	// Returns an empty slice if the run is unknown.
	ListOutcomes(ctx context.Context, runID string) ([]*core.BatchOutcome, error)

	// Close releases resources held by the repository.
	Close() error
}
