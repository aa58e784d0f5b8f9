package ingestion

import (
	"fmt"
	"io"
	"time"
)

// ProgressReporter periodically writes the progress of a run to a writer.
type ProgressReporter struct {
	writer   io.Writer
	interval time.Duration
}

// NewProgressReporter creates a progress reporter.
// writer: where to write progress output (typically os.Stderr)
// interval: how often to report while the run is in progress
func NewProgressReporter(writer io.Writer, interval time.Duration) *ProgressReporter {
	if interval <= 0 {
		interval = time.Second
	}
	return &ProgressReporter{
		writer:   writer,
		interval: interval,
	}
}

// Track reports progress until the run completes, then prints the final
// line. It blocks for the duration of the run.
func (p *ProgressReporter) Track(run *Run) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-run.Done():
			p.report(run.Summary())
			fmt.Fprintln(p.writer) // newline after final progress
			return
		case <-ticker.C:
			p.report(run.Summary())
		}
	}
}

func (p *ProgressReporter) report(s Summary) {
	rate := 0.0
	if secs := s.Elapsed.Seconds(); secs > 0 {
		rate = float64(s.Indexed) / secs
	}

	fmt.Fprintf(p.writer, "\rProgress: %d/%d batches, %d/%d records indexed, %d failed - %.1f records/s",
		s.Succeeded+s.FailedBatches, s.Batches, s.Indexed, s.Records, s.FailedBatches, rate)
}
