package ingestion

import (
	"context"
	"fmt"

	"github.com/poiesic/bulkseed/core"
)

// submitWithRetry attempts the batch up to MaxRetries+1 times, waiting a
// fixed BackOffDelay between consecutive attempts.
// Returns the number of attempts made and the error of the last attempt,
// or nil once an attempt succeeds.
func (p *Pipeline) submitWithRetry(ctx context.Context, run *Run, batch core.Batch) (int, error) {
	ref := BatchRef{RunID: run.id, Seq: batch.Seq, ID: batch.ID, Records: batch.Len()}
	maxAttempts := p.config.MaxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		run.attempts.Add(1)
		run.emit(BatchStarted{BatchRef: ref, Attempt: attempt})

		lastErr = p.submit(ctx, batch)
		if lastErr == nil {
			if attempt > 1 {
				p.logger.Debug("batch succeeded after retry", "run", run.id, "batch", batch.Seq, "attempt", attempt)
			}
			return attempt, nil
		}

		exhausted := attempt == maxAttempts
		run.emit(BatchFailed{BatchRef: ref, Attempt: attempt, Err: lastErr, Exhausted: exhausted})
		if exhausted {
			break
		}

		p.logger.Debug("batch failed, will retry", "run", run.id, "batch", batch.Seq,
			"attempt", attempt, "maxAttempts", maxAttempts, "delay", p.config.BackOffDelay, "err", lastErr)
		if p.config.BackOffDelay > 0 {
			p.sleep(p.config.BackOffDelay)
		}
	}

	return maxAttempts, lastErr
}

// submit performs a single attempt. A panicking destination counts as a
// failed attempt.
func (p *Pipeline) submit(ctx context.Context, batch core.Batch) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("destination panicked: %v", rec)
		}
	}()
	return p.destination.SubmitBatch(ctx, batch)
}
