package reembed

import "errors"

var (
	// ErrStoreRequired is returned when no document store is supplied.
	ErrStoreRequired = errors.New("document store is required")

	// ErrIncomplete is returned when some batches could not be re-embedded.
	ErrIncomplete = errors.New("reembedding incomplete")
)
