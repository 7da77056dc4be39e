package core

import "context"

// TextExtractor converts raw document bytes into plain text. The filename is
// the dispatch hint: its extension picks the parsing strategy. Extraction is
// a pure transform; it never touches document status.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, filename string) (string, error)
}

// Notifier signals a downstream consumer that a document's chunks are ready.
// Delivery is best effort; callers must not treat a failure as fatal.
type Notifier interface {
	NotifyChunksReady(ctx context.Context, documentID, projectID string, chunkCount int) error
}
