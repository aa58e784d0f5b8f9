package reembed

import (
	"context"
	"math"

	"github.com/poiesic/bulkseed/ai"
)

// NormalizeVector scales v to unit length and returns a new slice.
// A zero vector comes back as zeros.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}

	result := make([]float32, len(v))
	if sum == 0 {
		return result
	}
	magnitude := math.Sqrt(sum)
	for i, val := range v {
		result[i] = float32(float64(val) / magnitude)
	}
	return result
}

// normalizingEmbedder unit-normalizes every vector produced by the wrapped
// embedder, for indexes that rank by dot product.
type normalizingEmbedder struct {
	next ai.Embedder
}

var _ ai.Embedder = (*normalizingEmbedder)(nil)

func (e *normalizingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	v, err := e.next.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	return NormalizeVector(v), nil
}

func (e *normalizingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.next.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	for i, v := range vectors {
		vectors[i] = NormalizeVector(v)
	}
	return vectors, nil
}
