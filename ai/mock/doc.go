// Package mock provides a test double for ai.Embedder.
//
// The mock lets tests run without an external embedding service and gives
// controlled, deterministic vectors.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	embedder := mock.NewMockEmbedder()
//	vector, err := embedder.EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("service unavailable")
//	}
//
//	// Check call counts
//	count := embedder.CallCount()
//
// By default the mock returns deterministic unit-length vectors of
// DefaultDimensions derived from a hash of the text.
package mock
