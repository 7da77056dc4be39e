// Package ingestion orchestrates the document processing pipeline: fetch
// stored bytes, extract text, chunk, embed, persist, then signal downstream.
// Stages run strictly in order for one document; documents run independently
// of each other.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/pdfprocess/internal/core"
	"github.com/markdave123-py/pdfprocess/internal/core/splitter"
	"github.com/markdave123-py/pdfprocess/internal/models"
)

// statusWriteTimeout bounds the terminal status write so a cancelled run
// still lands on "failed" instead of sticking in "processing".
const statusWriteTimeout = 10 * time.Second

// Job identifies one document run. StorageKey is where the uploaded bytes
// live in the object store.
type Job struct {
	DocumentID string
	ProjectID  string
	StorageKey string
	FileName   string
}

// Config tunes the pipeline.
//
// ChunkSize:      maximum chunk length in characters.
// ChunkOverlap:   characters shared between consecutive chunks; must be
//                 strictly less than ChunkSize.
// StoreBatchSize: chunk rows written to the store per insert (default 100).
type Config struct {
	ChunkSize      int
	ChunkOverlap   int
	StoreBatchSize int
}

// Pipeline owns the document state machine and failure policy. All
// collaborators are injected; nothing here is process-global.
type Pipeline struct {
	db             core.DbClient
	obj            core.ObjectClient
	embedder       core.EmbeddingProvider
	extractor      core.TextExtractor
	notifier       core.Notifier
	split          *splitter.Splitter
	storeBatchSize int
	logger         *slog.Logger
}

func NewPipeline(
	db core.DbClient,
	obj core.ObjectClient,
	embedder core.EmbeddingProvider,
	extractor core.TextExtractor,
	notifier core.Notifier,
	cfg Config,
	logger *slog.Logger,
) (*Pipeline, error) {
	if db == nil {
		return nil, ErrDbClientRequired
	}
	if obj == nil {
		return nil, ErrObjectClientRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	split, err := splitter.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("chunking config: %w", err)
	}

	if cfg.StoreBatchSize <= 0 {
		cfg.StoreBatchSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		db:             db,
		obj:            obj,
		embedder:       embedder,
		extractor:      extractor,
		notifier:       notifier,
		split:          split,
		storeBatchSize: cfg.StoreBatchSize,
		logger:         logger,
	}, nil
}

// ProcessDocument runs one document from stored bytes to searchable chunks.
// It first claims the document; a document already being processed is left
// alone. After a successful claim every path terminates the document in
// "chunks_ready" or "failed" — including cancellation, since terminal writes
// use a context detached from the run's.
func (p *Pipeline) ProcessDocument(ctx context.Context, job Job) error {
	claimed, err := p.db.ClaimDocument(ctx, job.DocumentID, "extracting text")
	if err != nil {
		return fmt.Errorf("claim document %s: %w", job.DocumentID, err)
	}
	if !claimed {
		return fmt.Errorf("%w: %s", ErrAlreadyProcessing, job.DocumentID)
	}

	data, err := p.obj.GetFile(ctx, job.StorageKey)
	if err != nil {
		return p.fail(ctx, job.DocumentID, "failed to read stored file", err)
	}

	text, err := p.extractor.ExtractText(ctx, data, job.FileName)
	if err != nil {
		return p.fail(ctx, job.DocumentID, "failed to extract text", err)
	}

	p.setStage(ctx, job.DocumentID, "chunking text")
	chunks := p.split.Split(text)
	if len(chunks) == 0 {
		return p.fail(ctx, job.DocumentID, "no chunks generated", nil)
	}

	p.setStage(ctx, job.DocumentID, fmt.Sprintf("storing %d chunks", len(chunks)))

	vecs, err := p.embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		return p.fail(ctx, job.DocumentID, "failed to embed chunks", err)
	}
	if len(vecs) != len(chunks) {
		return p.fail(ctx, job.DocumentID,
			fmt.Sprintf("embedding count mismatch: %d chunks, %d vectors", len(chunks), len(vecs)), nil)
	}

	if err := p.storeChunks(ctx, job, chunks, vecs); err != nil {
		return p.fail(ctx, job.DocumentID, "failed to store chunks", err)
	}

	if err := p.db.UpdateDocumentStatus(ctx, job.DocumentID, models.StatusChunksReady, ""); err != nil {
		p.logger.Error("failed to mark document chunks_ready",
			"document_id", job.DocumentID, "err", err)
		return fmt.Errorf("mark chunks_ready: %w", err)
	}

	p.logger.Info("document processed",
		"document_id", job.DocumentID, "file", job.FileName, "chunks", len(chunks))

	p.notify(ctx, job, len(chunks))
	return nil
}

// storeChunks replaces the document's chunk set: prior chunks are deleted
// first so a reprocessed document never keeps stale rows, then the new rows
// go in as fixed-size transactional batches. A failure partway leaves the
// run failed; earlier batches are not rolled back, the failed status makes
// the document eligible for a clean reprocess.
func (p *Pipeline) storeChunks(ctx context.Context, job Job, chunks []string, vecs [][]float32) error {
	if err := p.db.DeleteDocumentChunks(ctx, job.DocumentID); err != nil {
		return fmt.Errorf("clear previous chunks: %w", err)
	}

	rows := make([]models.DocumentChunk, len(chunks))
	for i := range chunks {
		rows[i] = models.DocumentChunk{
			ID:         uuid.NewString(),
			DocumentID: job.DocumentID,
			ProjectID:  job.ProjectID,
			ChunkIndex: i,
			ChunkText:  chunks[i],
			Embedding:  vecs[i],
		}
	}

	for start := 0; start < len(rows); start += p.storeBatchSize {
		end := min(start+p.storeBatchSize, len(rows))
		if err := p.db.InsertDocumentChunks(ctx, rows[start:end]); err != nil {
			return fmt.Errorf("insert chunks %d..%d: %w", start, end-1, err)
		}
	}
	return nil
}

// notify is fire-and-forget: a webhook failure is logged and never flips a
// successful run back to failed. The downstream consumer polls document
// status as its backstop.
func (p *Pipeline) notify(ctx context.Context, job Job, chunkCount int) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.NotifyChunksReady(context.WithoutCancel(ctx), job.DocumentID, job.ProjectID, chunkCount); err != nil {
		p.logger.Error("chunks-ready notification failed",
			"document_id", job.DocumentID, "err", err)
	}
}

// setStage records a progress message while the document stays in
// "processing". Losing a stage message is not worth failing the run over.
func (p *Pipeline) setStage(ctx context.Context, docID, message string) {
	if err := p.db.UpdateDocumentStatus(ctx, docID, models.StatusProcessing, message); err != nil {
		p.logger.Warn("failed to record stage message",
			"document_id", docID, "stage", message, "err", err)
	}
}

// fail records the terminal failed status with a diagnostic message and
// returns the run error. The write is detached from the run context so it
// survives cancellation.
func (p *Pipeline) fail(ctx context.Context, docID, msg string, cause error) error {
	diag := msg
	if cause != nil {
		diag = fmt.Sprintf("%s: %v", msg, cause)
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
	defer cancel()
	if err := p.db.UpdateDocumentStatus(sctx, docID, models.StatusFailed, diag); err != nil {
		p.logger.Error("failed to record failure status",
			"document_id", docID, "diagnostic", diag, "err", err)
	}

	p.logger.Error("document processing failed", "document_id", docID, "reason", diag)

	if cause != nil {
		return fmt.Errorf("%s: %w", msg, cause)
	}
	return errors.New(msg)
}
