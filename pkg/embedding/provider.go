package embedding

import (
	"context"
	"math"
)

// EmbeddingProvider defines the interface for generating text embeddings.
// taskType is a hint (constant.EmbeddingTask*) that providers may ignore.
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) ([]float32, error)
}

// NormalizeVector scales vec to unit length.
// Cosine distance in pgvector and chromem expects magnitude = 1.
func NormalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
