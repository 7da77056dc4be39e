package core

import (
	"context"
	"io"

	"github.com/markdave123-py/pdfprocess/internal/models"
)

// DbClient defines all persistence operations the pipeline and handlers need.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type DbClient interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocumentByID(ctx context.Context, id string) (*models.Document, error)
	ListDocumentsByProject(ctx context.Context, projectID string) ([]models.Document, error)
	DeleteDocument(ctx context.Context, id string) error

	// ClaimDocument atomically moves a document into "processing" and reports
	// whether the claim won. A document already in "processing" cannot be
	// claimed again, which serializes concurrent runs for the same ID.
	ClaimDocument(ctx context.Context, id string, message string) (bool, error)

	// UpdateDocumentStatus writes the status and diagnostic message. An empty
	// message clears the stored error_message.
	UpdateDocumentStatus(ctx context.Context, id string, status string, message string) error

	// FailStaleProcessing flips documents stuck in "processing" longer than
	// maxAgeSecs to "failed" and returns how many were recovered.
	FailStaleProcessing(ctx context.Context, maxAgeSecs int) (int64, error)

	InsertDocumentChunks(ctx context.Context, chunks []models.DocumentChunk) error
	DeleteDocumentChunks(ctx context.Context, documentID string) error
	GetChunksByDocument(ctx context.Context, documentID string) ([]models.DocumentChunk, error)
	SearchProjectChunks(ctx context.Context, projectID string, queryVec []float32, threshold float64, limit int) ([]models.ChunkMatch, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
// It's abstract so you can replace AWS with MinIO, GCP, etc. easily.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (url string, err error)
	GetFile(ctx context.Context, key string) ([]byte, error)
	DeleteFile(ctx context.Context, key string) error
}
