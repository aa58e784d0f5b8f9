package ingestion

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/bulkseed/core"
	"github.com/poiesic/bulkseed/storage"
)

// Pipeline partitions records into batches and submits them to a destination
// with bounded parallelism and bounded retries.
// A Pipeline may serve several runs; they share its concurrency limit.
type Pipeline struct {
	destination storage.Destination
	config      Config
	pool        *ants.Pool
	observers   []Observer
	ledger      storage.LedgerRepository
	sleep       func(time.Duration)
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithObserver registers observers for the events of every run.
func WithObserver(observers ...Observer) Option {
	return func(p *Pipeline) error {
		for _, o := range observers {
			if o != nil {
				p.observers = append(p.observers, o)
			}
		}
		return nil
	}
}

// WithLedger records the terminal outcome of every batch in repo.
// Ledger write failures are logged and never change a batch outcome.
func WithLedger(repo storage.LedgerRepository) Option {
	return func(p *Pipeline) error {
		p.ledger = repo
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline writing to destination.
// A nil config means DefaultConfig().
func NewPipeline(destination storage.Destination, config *Config, opts ...Option) (*Pipeline, error) {
	if destination == nil {
		return nil, ErrDestinationRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		destination: destination,
		config:      *config,
		sleep:       time.Sleep,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(config.MaxParallelism, ants.WithPanicHandler(func(rec any) {
		p.logger.Error("batch worker panicked", "panic", rec)
	}))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	p.pool = pool

	return p, nil
}

// Config returns a copy of the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// Ingest starts a run over records and returns immediately.
//
// The destination is pinged before any batch work begins; if it does not
// answer, Ingest returns ErrDestinationUnreachable and no run is started.
// Otherwise batch failures never fail the run: they are retried, then
// reported through BatchFailed events and the run Summary.
//
// Cancelling ctx after Ingest returns does not stop the run. Use
// Run.Wait with a deadline to bound the wait.
func (p *Pipeline) Ingest(ctx context.Context, records iter.Seq[core.Record]) (*Run, error) {
	if p.pool.IsClosed() {
		return nil, ErrPipelineReleased
	}

	if err := p.destination.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDestinationUnreachable, err)
	}

	run := newRun(p.observers, func(rec any) {
		p.logger.Error("observer panicked", "panic", rec)
	})
	p.logger.Info("ingestion started", "run", run.id,
		"batchSize", p.config.BatchSize, "maxParallelism", p.config.MaxParallelism)

	go p.dispatch(context.WithoutCancel(ctx), run, records)
	return run, nil
}

// dispatch partitions the input and hands every batch to the worker pool.
// Submit blocks while MaxParallelism batches are in flight.
func (p *Pipeline) dispatch(ctx context.Context, run *Run, records iter.Seq[core.Record]) {
	for batch := range Partition(records, p.config.BatchSize) {
		run.batches.Add(1)
		run.records.Add(int64(batch.Len()))
		run.pending.Add(1)

		err := p.pool.Submit(func() {
			defer run.pending.Done()
			p.process(ctx, run, batch)
		})
		if err != nil {
			// the batch never reached a worker, so it is exhausted with zero attempts
			err = fmt.Errorf("submit batch: %w", err)
			ref := BatchRef{RunID: run.id, Seq: batch.Seq, ID: batch.ID, Records: batch.Len()}
			run.emit(BatchFailed{BatchRef: ref, Attempt: 0, Err: err, Exhausted: true})
			p.finish(ctx, run, batch, 0, err)
			run.pending.Done()
		}
	}

	run.pending.Wait()
	run.complete(p.refresh(ctx, run))
}

// process drives one batch to a terminal outcome.
func (p *Pipeline) process(ctx context.Context, run *Run, batch core.Batch) {
	attempts, err := p.submitWithRetry(ctx, run, batch)
	p.finish(ctx, run, batch, attempts, err)
}

// finish records the terminal outcome of a batch.
func (p *Pipeline) finish(ctx context.Context, run *Run, batch core.Batch, attempts int, err error) {
	outcome := &core.BatchOutcome{
		RunID:      run.id,
		BatchSeq:   batch.Seq,
		BatchID:    batch.ID,
		Records:    batch.Len(),
		Attempts:   attempts,
		Status:     core.BatchStatusSucceeded,
		FinishedAt: time.Now().UTC(),
	}

	if err != nil {
		outcome.Status = core.BatchStatusExhausted
		outcome.LastError = err.Error()
		run.failed.Add(1)
		p.logger.Warn("batch abandoned", "run", run.id, "batch", batch.Seq,
			"records", batch.Len(), "attempts", attempts, "err", err)
	} else {
		run.succeeded.Add(1)
		run.indexed.Add(int64(batch.Len()))
		p.logger.Debug("batch indexed", "run", run.id, "batch", batch.Seq,
			"records", batch.Len(), "attempts", attempts)
	}

	if p.ledger != nil {
		if saveErr := p.ledger.SaveOutcome(ctx, outcome); saveErr != nil {
			p.logger.Error("error saving batch outcome", "run", run.id, "batch", batch.Seq, "err", saveErr)
		}
	}
}

// refresh makes the run's writes visible when the destination supports it.
func (p *Pipeline) refresh(ctx context.Context, run *Run) error {
	if !p.config.RefreshOnCompleted || run.succeeded.Load() == 0 {
		return nil
	}
	refresher, ok := p.destination.(storage.Refresher)
	if !ok {
		return nil
	}
	if err := refresher.Refresh(ctx); err != nil {
		p.logger.Error("error refreshing destination", "run", run.id, "err", err)
		return err
	}
	return nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
