package ingestion

import (
	"errors"
	"log/slog"
)

// LogObserver logs pipeline events.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates an observer logging to logger.
// A nil logger means slog.Default().
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger}
}

// OnEvent implements Observer.
func (o *LogObserver) OnEvent(event Event) {
	switch e := event.(type) {
	case BatchStarted:
		o.logger.Debug("batch started", "run", e.RunID, "batch", e.Seq,
			"records", e.Records, "attempt", e.Attempt)
	case BatchFailed:
		if e.Exhausted {
			o.logger.Error("batch exhausted", "run", e.RunID, "batch", e.Seq,
				"records", e.Records, "attempt", e.Attempt, "err", e.Err)
			return
		}
		o.logger.Warn("batch attempt failed", "run", e.RunID, "batch", e.Seq,
			"attempt", e.Attempt, "temporary", isTemporary(e.Err), "err", e.Err)
	case RunCompleted:
		s := e.Summary
		o.logger.Info("ingestion completed", "run", s.RunID,
			"batches", s.Batches, "succeeded", s.Succeeded, "failed", s.FailedBatches,
			"records", s.Records, "indexed", s.Indexed, "attempts", s.Attempts,
			"elapsed", s.Elapsed)
	}
}

// isTemporary reports whether err, or an error it wraps, says a retry may
// succeed.
func isTemporary(err error) bool {
	var t interface{ Temporary() bool }
	return errors.As(err, &t) && t.Temporary()
}
