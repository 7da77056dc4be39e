package llm

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/pdfprocess/internal/core"
)

// maxConcurrentBatches bounds in-flight requests to the provider.
const maxConcurrentBatches = 4

var _ core.EmbeddingProvider = (*BatchingEmbedder)(nil)

// BatchingEmbedder wraps a provider that has a maximum batch size. It
// sub-batches transparently and writes each sub-batch's vectors back into
// its input slot, so the output is 1:1 with the input in global order no
// matter how the work was split. Every returned vector is checked against
// the configured dimension up front; a mismatch here would otherwise only
// surface at query time.
type BatchingEmbedder struct {
	inner     core.EmbeddingProvider
	batchSize int
	dim       int
}

func NewBatchingEmbedder(inner core.EmbeddingProvider, batchSize, dim int) *BatchingEmbedder {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &BatchingEmbedder{inner: inner, batchSize: batchSize, dim: dim}
}

func (b *BatchingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBatches)

	for start := 0; start < len(texts); start += b.batchSize {
		end := min(start+b.batchSize, len(texts))
		g.Go(func() error {
			vecs, err := b.inner.EmbedTexts(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("embed texts %d..%d: %w", start, end-1, err)
			}
			if len(vecs) != end-start {
				return fmt.Errorf("%w: sent %d texts, got %d vectors", ErrCountMismatch, end-start, len(vecs))
			}
			for i, v := range vecs {
				if b.dim > 0 && len(v) != b.dim {
					return fmt.Errorf("%w: text %d produced %d dims, expected %d", ErrDimensionMismatch, start+i, len(v), b.dim)
				}
				out[start+i] = v
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
