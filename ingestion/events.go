package ingestion

import (
	"time"

	"github.com/poiesic/bulkseed/core"
)

// Event is one of BatchStarted, BatchFailed or RunCompleted.
type Event interface {
	isEvent()
}

// BatchRef identifies a batch within a run.
type BatchRef struct {
	RunID   string
	Seq     int
	ID      core.ID
	Records int
}

// BatchStarted is emitted before every submission attempt.
type BatchStarted struct {
	BatchRef
	Attempt int // 1-based
}

// BatchFailed is emitted after every failed submission attempt.
// Exhausted is set on the final allowed attempt; the batch is then abandoned.
type BatchFailed struct {
	BatchRef
	Attempt   int
	Err       error
	Exhausted bool
}

// RunCompleted is emitted exactly once per run, after every batch reached a
// terminal outcome and before the run's Done channel is closed.
type RunCompleted struct {
	Summary Summary
}

func (BatchStarted) isEvent() {}
func (BatchFailed) isEvent()  {}
func (RunCompleted) isEvent() {}

// Observer receives pipeline events.
// Calls are serialized per run, so implementations need no locking of their
// own unless they are shared between runs. Observers must not block for long:
// workers wait on event delivery.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnEvent calls f(e).
func (f ObserverFunc) OnEvent(e Event) {
	f(e)
}

// Summary aggregates the terminal outcomes of a run.
type Summary struct {
	RunID string

	// Batches is the number of batches dispatched.
	Batches int
	// Succeeded is the number of batches accepted by the destination.
	Succeeded int
	// FailedBatches is the number of batches that exhausted their attempts.
	FailedBatches int

	// Records is the number of records dispatched.
	Records int
	// Indexed is the number of records in succeeded batches.
	Indexed int

	// Attempts is the total number of submission attempts.
	Attempts int

	Elapsed time.Duration

	// RefreshErr is set when the completion refresh failed.
	RefreshErr error
}

// HasFailures reports whether any batch was abandoned.
func (s Summary) HasFailures() bool {
	return s.FailedBatches > 0
}
