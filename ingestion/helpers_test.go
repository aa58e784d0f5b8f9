package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/bulkseed/core"
	"github.com/stretchr/testify/require"
)

var errSubmit = errors.New("submit failed")

// testDestination is an instrumented storage.Destination.
type testDestination struct {
	pingErr error

	// fail decides the outcome of an attempt. nil means always succeed.
	fail func(batch core.Batch, attempt int) error
	// delay is applied inside every attempt when set.
	delay func(batch core.Batch) time.Duration
	// block, when set, is waited on inside every attempt.
	block chan struct{}

	mu        sync.Mutex
	attempts  map[int]int
	accepted  map[int]core.Batch
	submitted atomic.Int32

	inFlight    atomic.Int32
	maxInFlight atomic.Int32

	refreshes  atomic.Int32
	refreshErr error
}

func newTestDestination() *testDestination {
	return &testDestination{
		attempts: make(map[int]int),
		accepted: make(map[int]core.Batch),
	}
}

func (d *testDestination) Ping(ctx context.Context) error {
	return d.pingErr
}

func (d *testDestination) SubmitBatch(ctx context.Context, batch core.Batch) error {
	current := d.inFlight.Add(1)
	defer d.inFlight.Add(-1)
	for {
		seen := d.maxInFlight.Load()
		if current <= seen || d.maxInFlight.CompareAndSwap(seen, current) {
			break
		}
	}
	d.submitted.Add(1)

	d.mu.Lock()
	d.attempts[batch.Seq]++
	attempt := d.attempts[batch.Seq]
	d.mu.Unlock()

	if d.delay != nil {
		time.Sleep(d.delay(batch))
	}
	if d.block != nil {
		<-d.block
	}

	if d.fail != nil {
		if err := d.fail(batch, attempt); err != nil {
			return err
		}
	}

	d.mu.Lock()
	d.accepted[batch.Seq] = batch
	d.mu.Unlock()
	return nil
}

func (d *testDestination) Refresh(ctx context.Context) error {
	d.refreshes.Add(1)
	return d.refreshErr
}

func (d *testDestination) attemptsFor(seq int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempts[seq]
}

func (d *testDestination) acceptedBatches() map[int]core.Batch {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[int]core.Batch, len(d.accepted))
	for k, v := range d.accepted {
		out[k] = v
	}
	return out
}

// eventRecorder collects every event it observes.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) OnEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) started() []BatchStarted {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []BatchStarted
	for _, e := range r.events {
		if ev, ok := e.(BatchStarted); ok {
			out = append(out, ev)
		}
	}
	return out
}

func (r *eventRecorder) failed() []BatchFailed {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []BatchFailed
	for _, e := range r.events {
		if ev, ok := e.(BatchFailed); ok {
			out = append(out, ev)
		}
	}
	return out
}

func (r *eventRecorder) completed() []RunCompleted {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []RunCompleted
	for _, e := range r.events {
		if ev, ok := e.(RunCompleted); ok {
			out = append(out, ev)
		}
	}
	return out
}

// memoryLedger is an in-memory storage.LedgerRepository.
type memoryLedger struct {
	mu       sync.Mutex
	outcomes map[string][]*core.BatchOutcome
	saveErr  error
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{outcomes: make(map[string][]*core.BatchOutcome)}
}

func (l *memoryLedger) SaveOutcome(ctx context.Context, outcome *core.BatchOutcome) error {
	if l.saveErr != nil {
		return l.saveErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outcomes[outcome.RunID] = append(l.outcomes[outcome.RunID], outcome)
	return nil
}

func (l *memoryLedger) ListOutcomes(ctx context.Context, runID string) ([]*core.BatchOutcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*core.BatchOutcome(nil), l.outcomes[runID]...), nil
}

func (l *memoryLedger) Close() error {
	return nil
}

func (l *memoryLedger) count(runID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.outcomes[runID])
}

// sleepRecorder replaces the back-off wait.
type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleeps = append(s.sleeps, d)
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.sleeps...)
}

func testConfig(batchSize, parallelism, retries int) *Config {
	return &Config{
		BatchSize:          batchSize,
		MaxParallelism:     parallelism,
		MaxRetries:         retries,
		BackOffDelay:       15 * time.Second,
		RefreshOnCompleted: true,
	}
}

// setupPipeline creates a pipeline whose back-off waits are recorded
// instead of slept.
func setupPipeline(t *testing.T, dest *testDestination, cfg *Config, opts ...Option) (*Pipeline, *sleepRecorder) {
	t.Helper()
	p, err := NewPipeline(dest, cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)

	sleeper := &sleepRecorder{}
	p.sleep = sleeper.sleep
	return p, sleeper
}

func makeRecords(t testing.TB, n int) []core.Record {
	t.Helper()
	records := make([]core.Record, n)
	for i := range records {
		r, err := core.NewRecord(fmt.Sprintf("doc-%04d", i), map[string]any{"n": i})
		require.NoError(t, err)
		records[i] = r
	}
	return records
}

func waitRun(t *testing.T, run *Run) Summary {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	summary, err := run.Wait(ctx)
	require.NoError(t, err, "run did not complete")
	return summary
}
