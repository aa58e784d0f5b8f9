package ingestion

import "errors"

var (
	// ErrDestinationRequired is returned when a destination is not provided.
	ErrDestinationRequired = errors.New("destination required")

	// ErrInvalidConfig is returned when the pipeline configuration is invalid.
	ErrInvalidConfig = errors.New("invalid pipeline config")

	// ErrDestinationUnreachable is returned by Ingest when the destination
	// does not answer before any batch work begins.
	ErrDestinationUnreachable = errors.New("destination unreachable")

	// ErrPipelineReleased is returned when ingesting through a released pipeline.
	ErrPipelineReleased = errors.New("pipeline released")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrMissingTextField is returned when a document lacks the field to embed.
	ErrMissingTextField = errors.New("document is missing text field")
)
