package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/pdfprocess/internal/config"
	"github.com/markdave123-py/pdfprocess/internal/core"
	"github.com/markdave123-py/pdfprocess/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

var _ core.DbClient = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db, cfg.EmbedDim); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Documents

func (c *DatabaseClient) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	const q = `
		INSERT INTO documents
			(id, project_id, file_name, file_size, storage_url, upload_status, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, now(), now())
	`
	_, err := c.db.ExecContext(ctx, q,
		doc.ID, doc.ProjectID, doc.FileName, doc.FileSize, doc.StorageURL, doc.UploadStatus)
	return err
}

func (c *DatabaseClient) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	const q = `
		SELECT id, project_id, file_name, file_size, storage_url, upload_status, error_message, created_at, updated_at
		FROM documents
		WHERE id = $1
	`
	var d models.Document
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.ProjectID, &d.FileName, &d.FileSize, &d.StorageURL, &d.UploadStatus, &d.ErrorMessage, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *DatabaseClient) ListDocumentsByProject(ctx context.Context, projectID string) ([]models.Document, error) {
	const q = `
		SELECT id, project_id, file_name, file_size, storage_url, upload_status, error_message, created_at, updated_at
		FROM documents
		WHERE project_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(
			&d.ID, &d.ProjectID, &d.FileName, &d.FileSize, &d.StorageURL, &d.UploadStatus, &d.ErrorMessage, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteDocument removes the document row; chunks go with it via the
// ON DELETE CASCADE on document_chunks.
func (c *DatabaseClient) DeleteDocument(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

// ClaimDocument is the conditional pending→processing transition. The WHERE
// clause loses against a document that is already processing, so two
// concurrent runs for the same ID cannot both win.
func (c *DatabaseClient) ClaimDocument(ctx context.Context, id string, message string) (bool, error) {
	const q = `
		UPDATE documents
		SET upload_status = 'processing', error_message = $2, updated_at = now()
		WHERE id = $1 AND upload_status <> 'processing'
	`
	res, err := c.db.ExecContext(ctx, q, id, nullIfEmpty(message))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *DatabaseClient) UpdateDocumentStatus(ctx context.Context, id string, status string, message string) error {
	const q = `
		UPDATE documents
		SET upload_status = $2, error_message = $3, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, status, nullIfEmpty(message))
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

// FailStaleProcessing recovers documents whose run died without reaching a
// terminal status. Called at startup so they can be re-enqueued.
func (c *DatabaseClient) FailStaleProcessing(ctx context.Context, maxAgeSecs int) (int64, error) {
	const q = `
		UPDATE documents
		SET upload_status = 'failed', error_message = 'processing timed out', updated_at = now()
		WHERE upload_status = 'processing'
		  AND updated_at < now() - ($1 * interval '1 second')
	`
	res, err := c.db.ExecContext(ctx, q, maxAgeSecs)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Chunks

// InsertDocumentChunks inserts one batch of chunks in a single transaction.
func (c *DatabaseClient) InsertDocumentChunks(ctx context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO document_chunks
			(id, document_id, project_id, chunk_index, chunk_text, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		vec := pgvector.NewVector(ch.Embedding)

		if _, err := stmt.ExecContext(ctx,
			ch.ID, ch.DocumentID, ch.ProjectID, ch.ChunkIndex, ch.ChunkText, vec,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// DeleteDocumentChunks drops every chunk of a document. Reprocessing calls
// this before inserting so a retried document never accumulates stale rows.
func (c *DatabaseClient) DeleteDocumentChunks(ctx context.Context, documentID string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	return err
}

func (c *DatabaseClient) GetChunksByDocument(ctx context.Context, documentID string) ([]models.DocumentChunk, error) {
	const q = `
		SELECT id, document_id, project_id, chunk_index, chunk_text, embedding, created_at
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY chunk_index ASC
	`
	rows, err := c.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DocumentChunk
	for rows.Next() {
		var (
			ch  models.DocumentChunk
			emb pgvector.Vector
		)
		if err := rows.Scan(
			&ch.ID, &ch.DocumentID, &ch.ProjectID, &ch.ChunkIndex, &ch.ChunkText, &emb, &ch.CreatedAt,
		); err != nil {
			return nil, err
		}
		ch.Embedding = emb.Slice()
		out = append(out, ch)
	}
	return out, rows.Err()
}

// SearchProjectChunks ranks a project's chunks by cosine similarity to the
// query vector and keeps those at or above the threshold.
func (c *DatabaseClient) SearchProjectChunks(ctx context.Context, projectID string, queryVec []float32, threshold float64, limit int) ([]models.ChunkMatch, error) {
	const q = `
		SELECT id, document_id, project_id, chunk_index, chunk_text, embedding,
		       1 - (embedding <=> $2) AS similarity
		FROM document_chunks
		WHERE project_id = $1
		  AND 1 - (embedding <=> $2) >= $3
		ORDER BY embedding <=> $2
		LIMIT $4
	`
	vec := pgvector.NewVector(queryVec)
	rows, err := c.db.QueryContext(ctx, q, projectID, vec, threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChunkMatch
	for rows.Next() {
		var (
			m   models.ChunkMatch
			emb pgvector.Vector
		)
		if err := rows.Scan(&m.ID, &m.DocumentID, &m.ProjectID, &m.ChunkIndex, &m.ChunkText, &emb, &m.Similarity); err != nil {
			return nil, err
		}
		m.Embedding = emb.Slice()
		out = append(out, m)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
