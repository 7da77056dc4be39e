package models

import (
	"time"
)

// Document processing statuses. "pending" is set at upload time; the
// pipeline moves a document through "processing" into exactly one of
// "chunks_ready" or "failed". "completed" is reserved for the downstream
// consumer once it has finished its own post-processing.
const (
	StatusPending     = "pending"
	StatusProcessing  = "processing"
	StatusChunksReady = "chunks_ready"
	StatusFailed      = "failed"
	StatusCompleted   = "completed"
)

// Document represents an uploaded document and its processing state.
type Document struct {
	ID           string    `db:"id" json:"id"`
	ProjectID    string    `db:"project_id" json:"project_id"`
	FileName     string    `db:"file_name" json:"file_name"`
	FileSize     int64     `db:"file_size" json:"file_size"`
	StorageURL   string    `db:"storage_url" json:"storage_url"`
	UploadStatus string    `db:"upload_status" json:"upload_status"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DocumentChunk represents one text chunk from a document.
// (DocumentID, ChunkIndex) is unique; ChunkIndex is a dense 0-based
// sequence in source-document order.
type DocumentChunk struct {
	ID         string    `db:"id" json:"id"`
	DocumentID string    `db:"document_id" json:"document_id"`
	ProjectID  string    `db:"project_id" json:"project_id"`
	ChunkIndex int       `db:"chunk_index" json:"chunk_index"`
	ChunkText  string    `db:"chunk_text" json:"chunk_text"`
	Embedding  []float32 `db:"embedding" json:"embedding"` // pgvector column
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ChunkMatch is a chunk returned by similarity search together with its
// cosine similarity to the query vector.
type ChunkMatch struct {
	DocumentChunk
	Similarity float64 `json:"similarity"`
}
