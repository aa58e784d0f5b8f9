package ingestion

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Run is one execution of a Pipeline over an input sequence.
// Its Done channel is closed exactly once, after every batch reached a
// terminal outcome and RunCompleted was delivered.
type Run struct {
	id        string
	startedAt time.Time

	batches   atomic.Int64
	records   atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	indexed   atomic.Int64
	attempts  atomic.Int64

	// pending tracks dispatched batches that are not terminal yet.
	pending sync.WaitGroup

	observers []Observer
	emitMu    sync.Mutex
	onPanic   func(recovered any)

	once    sync.Once
	done    chan struct{}
	summary Summary // set before done is closed
}

func newRun(observers []Observer, onPanic func(any)) *Run {
	return &Run{
		id:        uuid.NewString(),
		startedAt: time.Now(),
		observers: observers,
		onPanic:   onPanic,
		done:      make(chan struct{}),
	}
}

// ID returns the unique identifier of the run.
func (r *Run) ID() string {
	return r.id
}

// Done returns a channel that is closed when the run has completed.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run completes or ctx is done.
// A context deadline bounds the wait only; batches keep running.
func (r *Run) Wait(ctx context.Context) (Summary, error) {
	select {
	case <-r.done:
		return r.summary, nil
	case <-ctx.Done():
		return r.Summary(), ctx.Err()
	}
}

// Summary returns the final summary once the run is done, or a live
// snapshot of the counters while it is still in progress.
func (r *Run) Summary() Summary {
	select {
	case <-r.done:
		return r.summary
	default:
		return r.snapshot()
	}
}

func (r *Run) snapshot() Summary {
	return Summary{
		RunID:         r.id,
		Batches:       int(r.batches.Load()),
		Succeeded:     int(r.succeeded.Load()),
		FailedBatches: int(r.failed.Load()),
		Records:       int(r.records.Load()),
		Indexed:       int(r.indexed.Load()),
		Attempts:      int(r.attempts.Load()),
		Elapsed:       time.Since(r.startedAt),
	}
}

// emit delivers an event to every observer, one event at a time.
// A panicking observer does not affect the run.
func (r *Run) emit(event Event) {
	if len(r.observers) == 0 {
		return
	}

	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	for _, observer := range r.observers {
		r.deliver(observer, event)
	}
}

func (r *Run) deliver(observer Observer, event Event) {
	defer func() {
		if rec := recover(); rec != nil && r.onPanic != nil {
			r.onPanic(rec)
		}
	}()
	observer.OnEvent(event)
}

// complete publishes the final summary and closes the done channel.
// Only the first call has any effect.
func (r *Run) complete(refreshErr error) {
	r.once.Do(func() {
		summary := r.snapshot()
		summary.RefreshErr = refreshErr
		r.summary = summary
		r.emit(RunCompleted{Summary: summary})
		close(r.done)
	})
}
