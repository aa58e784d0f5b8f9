package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/poiesic/bulkseed/ai"
	"github.com/poiesic/bulkseed/core"
	"github.com/poiesic/bulkseed/storage"
)

// EmbeddingDestination enriches every document of a batch with a vector
// embedding of one of its text fields before handing the batch to the
// wrapped destination.
// An embedding failure fails the attempt, so the pipeline retries it.
type EmbeddingDestination struct {
	next        storage.Destination
	embedder    ai.Embedder
	textField   string
	vectorField string
	logger      *slog.Logger
}

var (
	_ storage.Destination = (*EmbeddingDestination)(nil)
	_ storage.Refresher   = (*EmbeddingDestination)(nil)
)

// NewEmbeddingDestination wraps next. textField names the string field to
// embed and vectorField the field the embedding is stored under.
func NewEmbeddingDestination(next storage.Destination, embedder ai.Embedder, textField, vectorField string, logger *slog.Logger) (*EmbeddingDestination, error) {
	if next == nil {
		return nil, ErrDestinationRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if textField == "" || vectorField == "" {
		return nil, fmt.Errorf("%w: text and vector fields are required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbeddingDestination{
		next:        next,
		embedder:    embedder,
		textField:   textField,
		vectorField: vectorField,
		logger:      logger.With("destination", "embeddings"),
	}, nil
}

// Ping checks the wrapped destination.
func (d *EmbeddingDestination) Ping(ctx context.Context) error {
	return d.next.Ping(ctx)
}

// SubmitBatch embeds the text field of every record and submits the
// enriched batch.
func (d *EmbeddingDestination) SubmitBatch(ctx context.Context, batch core.Batch) error {
	if batch.Len() == 0 {
		return storage.ErrEmptyBatch
	}

	docs := make([]map[string]json.RawMessage, batch.Len())
	texts := make([]string, batch.Len())
	for i, record := range batch.Records {
		if err := record.Decode(&docs[i]); err != nil {
			return fmt.Errorf("decode record %s: %w", record.Key(), err)
		}
		raw, ok := docs[i][d.textField]
		if !ok {
			return fmt.Errorf("%w: record %s has no %q", ErrMissingTextField, record.Key(), d.textField)
		}
		if err := json.Unmarshal(raw, &texts[i]); err != nil {
			return fmt.Errorf("record %s: field %q is not a string: %w", record.Key(), d.textField, err)
		}
	}

	d.logger.Debug("generating embeddings", "batch", batch.Seq, "records", len(texts))
	embeddings, err := d.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("generate embeddings: %w", err)
	}
	if len(embeddings) != len(texts) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(texts), len(embeddings))
	}

	enriched := make([]core.Record, batch.Len())
	for i, record := range batch.Records {
		vector, err := json.Marshal(embeddings[i])
		if err != nil {
			return fmt.Errorf("encode embedding for %s: %w", record.Key(), err)
		}
		docs[i][d.vectorField] = vector

		payload, err := json.Marshal(docs[i])
		if err != nil {
			return fmt.Errorf("encode record %s: %w", record.Key(), err)
		}
		enriched[i], err = core.NewRawRecord(record.Key(), payload)
		if err != nil {
			return err
		}
	}

	return d.next.SubmitBatch(ctx, core.Batch{Seq: batch.Seq, ID: batch.ID, Records: enriched})
}

// Refresh refreshes the wrapped destination when it supports it.
func (d *EmbeddingDestination) Refresh(ctx context.Context) error {
	if refresher, ok := d.next.(storage.Refresher); ok {
		return refresher.Refresh(ctx)
	}
	return nil
}
