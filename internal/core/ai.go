package core

import "context"

// EmbeddingProvider turns a batch of texts into vectors, one per input text
// and in input order.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
