// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/bulkseed/ai"
	"github.com/poiesic/bulkseed/core"
	"github.com/poiesic/bulkseed/ingestion"
	"github.com/poiesic/bulkseed/storage"
)

// Store is a destination that can also list the documents it holds.
type Store interface {
	storage.Destination
	Records(ctx context.Context) ([]core.Record, error)
}

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of documents embedded per request.
	BatchSize int

	// MaxParallelism bounds the number of batches in flight.
	MaxParallelism int

	// MaxRetries is the number of additional attempts for a failing batch.
	MaxRetries int

	// RetryDelay is the fixed pause between attempts of a batch.
	RetryDelay time.Duration

	// ReportInterval is how often progress is written. Zero disables reporting.
	ReportInterval time.Duration

	// Normalize scales every vector to unit length before it is stored.
	Normalize bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		MaxParallelism: 4,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		ReportInterval: 1 * time.Second,
	}
}

// Reembedder recomputes the vector field of every document in a Store.
type Reembedder struct {
	store    Store
	embedder ai.Embedder
	fields   *ai.Config
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewReembedder creates a new reembedder.
// fields names the text and vector fields; nil uses ai.DefaultConfig.
// progress receives progress output and may be nil.
func NewReembedder(store Store, embedder ai.Embedder, fields *ai.Config, config *Config, progress io.Writer) (*Reembedder, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ingestion.ErrEmbedderRequired
	}
	if fields == nil {
		fields = ai.DefaultConfig()
	}
	if config == nil {
		config = DefaultConfig()
	}

	return &Reembedder{
		store:    store,
		embedder: embedder,
		fields:   fields,
		config:   config,
		progress: progress,
		logger:   slog.Default().With("component", "reembedder"),
	}, nil
}

// Run re-embeds every stored document and returns the run summary.
// ErrIncomplete is returned alongside the summary when any batch failed.
func (r *Reembedder) Run(ctx context.Context) (ingestion.Summary, error) {
	records, err := r.store.Records(ctx)
	if err != nil {
		return ingestion.Summary{}, fmt.Errorf("failed to list documents: %w", err)
	}
	if len(records) == 0 {
		r.printf("No documents found (0 documents)\n")
		return ingestion.Summary{}, nil
	}

	embedder := r.embedder
	if r.config.Normalize {
		embedder = &normalizingEmbedder{next: embedder}
	}
	destination, err := ingestion.NewEmbeddingDestination(r.store, embedder,
		r.fields.TextField, r.fields.VectorField, r.logger)
	if err != nil {
		return ingestion.Summary{}, err
	}

	pipeline, err := ingestion.NewPipeline(destination, &ingestion.Config{
		BatchSize:          r.config.BatchSize,
		MaxParallelism:     r.config.MaxParallelism,
		MaxRetries:         r.config.MaxRetries,
		BackOffDelay:       r.config.RetryDelay,
		RefreshOnCompleted: true,
	}, ingestion.WithLogger(r.logger))
	if err != nil {
		return ingestion.Summary{}, err
	}
	defer pipeline.Release()

	r.printf("Starting reembedding of %d documents (batch size: %d)\n", len(records), r.config.BatchSize)

	run, err := pipeline.Ingest(ctx, ingestion.FromSlice(records))
	if err != nil {
		return ingestion.Summary{}, err
	}

	tracked := make(chan struct{})
	if r.progress != nil && r.config.ReportInterval > 0 {
		go func() {
			defer close(tracked)
			ingestion.NewProgressReporter(r.progress, r.config.ReportInterval).Track(run)
		}()
	} else {
		close(tracked)
	}

	summary, err := run.Wait(ctx)
	if err != nil {
		return summary, err
	}
	<-tracked

	r.printf("Reembedding complete. Processed %d documents in %v (%.1f documents/sec)\n",
		summary.Indexed, summary.Elapsed.Round(time.Millisecond),
		float64(summary.Indexed)/max(summary.Elapsed.Seconds(), 1e-9))

	if summary.HasFailures() {
		return summary, fmt.Errorf("%w: %d of %d batches failed", ErrIncomplete, summary.FailedBatches, summary.Batches)
	}
	return summary, nil
}

func (r *Reembedder) printf(format string, args ...any) {
	if r.progress != nil {
		fmt.Fprintf(r.progress, format, args...)
	}
}
