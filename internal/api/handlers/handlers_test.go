package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/pdfprocess/internal/config"
	"github.com/markdave123-py/pdfprocess/internal/core/ingestion"
	"github.com/markdave123-py/pdfprocess/internal/models"
)

type stubDB struct {
	created []models.Document
	updates []struct{ id, status, message string }
	doc     *models.Document
	deleted []string
}

func (s *stubDB) CreateDocument(ctx context.Context, doc *models.Document) error {
	s.created = append(s.created, *doc)
	return nil
}
func (s *stubDB) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	return s.doc, nil
}
func (s *stubDB) ListDocumentsByProject(ctx context.Context, projectID string) ([]models.Document, error) {
	return nil, nil
}
func (s *stubDB) DeleteDocument(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}
func (s *stubDB) ClaimDocument(ctx context.Context, id string, message string) (bool, error) {
	return true, nil
}
func (s *stubDB) UpdateDocumentStatus(ctx context.Context, id string, status string, message string) error {
	s.updates = append(s.updates, struct{ id, status, message string }{id, status, message})
	return nil
}
func (s *stubDB) FailStaleProcessing(ctx context.Context, maxAgeSecs int) (int64, error) {
	return 0, nil
}
func (s *stubDB) InsertDocumentChunks(ctx context.Context, chunks []models.DocumentChunk) error {
	return nil
}
func (s *stubDB) DeleteDocumentChunks(ctx context.Context, documentID string) error { return nil }
func (s *stubDB) GetChunksByDocument(ctx context.Context, documentID string) ([]models.DocumentChunk, error) {
	return nil, nil
}
func (s *stubDB) SearchProjectChunks(ctx context.Context, projectID string, queryVec []float32, threshold float64, limit int) ([]models.ChunkMatch, error) {
	return nil, nil
}
func (s *stubDB) Close() error { return nil }

type stubObj struct {
	uploaded map[string][]byte
}

func (s *stubObj) UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	b, _ := io.ReadAll(data)
	if s.uploaded == nil {
		s.uploaded = map[string][]byte{}
	}
	s.uploaded[key] = b
	return "https://bucket.s3.us-east-2.amazonaws.com/" + key, nil
}
func (s *stubObj) GetFile(ctx context.Context, key string) ([]byte, error) { return s.uploaded[key], nil }
func (s *stubObj) DeleteFile(ctx context.Context, key string) error        { return nil }

type stubEnqueuer struct {
	jobs []ingestion.Job
	err  error
}

func (s *stubEnqueuer) Enqueue(job ingestion.Job) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{MaxFileSize: 1024, WebhookSecret: "hunter2"}
}

func multipartBody(t *testing.T, filename, projectID string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if projectID != "" {
		require.NoError(t, mw.WriteField("project_id", projectID))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadDocumentAcceptsAndSchedules(t *testing.T) {
	db := &stubDB{}
	obj := &stubObj{}
	enq := &stubEnqueuer{}
	h := NewDocumentHandler(db, obj, enq, testConfig())

	body, ctype := multipartBody(t, "report.pdf", "proj-1", []byte("%PDF-1.4 fake"))
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()

	h.UploadDocument(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Len(t, db.created, 1)
	assert.Equal(t, models.StatusPending, db.created[0].UploadStatus)
	assert.Equal(t, "proj-1", db.created[0].ProjectID)
	assert.Equal(t, int64(len("%PDF-1.4 fake")), db.created[0].FileSize)

	require.Len(t, enq.jobs, 1)
	assert.Equal(t, db.created[0].ID, enq.jobs[0].DocumentID)
	assert.Contains(t, enq.jobs[0].StorageKey, "proj-1/")
	assert.Equal(t, "report.pdf", enq.jobs[0].FileName)
	assert.Contains(t, obj.uploaded, enq.jobs[0].StorageKey)
}

func TestUploadDocumentRejectsBadExtension(t *testing.T) {
	h := NewDocumentHandler(&stubDB{}, &stubObj{}, &stubEnqueuer{}, testConfig())

	body, ctype := multipartBody(t, "evil.exe", "proj-1", []byte("MZ"))
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()

	h.UploadDocument(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadDocumentRejectsOversizedFile(t *testing.T) {
	db := &stubDB{}
	h := NewDocumentHandler(db, &stubObj{}, &stubEnqueuer{}, testConfig())

	body, ctype := multipartBody(t, "big.txt", "proj-1", bytes.Repeat([]byte("a"), 2048))
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()

	h.UploadDocument(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, db.created)
}

func TestUploadDocumentRequiresProjectID(t *testing.T) {
	h := NewDocumentHandler(&stubDB{}, &stubObj{}, &stubEnqueuer{}, testConfig())

	body, ctype := multipartBody(t, "doc.txt", "", []byte("text"))
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()

	h.UploadDocument(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadDocumentQueueFull(t *testing.T) {
	h := NewDocumentHandler(&stubDB{}, &stubObj{}, &stubEnqueuer{err: ingestion.ErrQueueFull}, testConfig())

	body, ctype := multipartBody(t, "doc.txt", "proj-1", []byte("text"))
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()

	h.UploadDocument(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetDocumentStatus(t *testing.T) {
	msg := "failed to extract text: no extractable text"
	db := &stubDB{doc: &models.Document{ID: "doc-1", UploadStatus: models.StatusFailed, ErrorMessage: &msg}}
	h := NewDocumentHandler(db, &stubObj{}, &stubEnqueuer{}, testConfig())

	r := chi.NewRouter()
	r.Get("/api/documents/{documentID}/status", h.GetDocumentStatus)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/doc-1/status", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "failed", got["upload_status"])
	assert.Equal(t, msg, got["error_message"])
}

func TestGetDocumentStatusNotFound(t *testing.T) {
	h := NewDocumentHandler(&stubDB{}, &stubObj{}, &stubEnqueuer{}, testConfig())

	r := chi.NewRouter()
	r.Get("/api/documents/{documentID}/status", h.GetDocumentStatus)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/missing/status", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookRejectsWrongSecret(t *testing.T) {
	db := &stubDB{}
	h := NewWebhookHandler(db, "hunter2")

	payload := `{"document_id":"doc-1","project_id":"proj-1","chunk_count":3,"secret":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/document-ready", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	h.DocumentReady(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, db.updates)
}

func TestWebhookAcceptsMatchingSecret(t *testing.T) {
	db := &stubDB{}
	h := NewWebhookHandler(db, "hunter2")

	payload := `{"document_id":"doc-1","project_id":"proj-1","chunk_count":3,"secret":"hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/document-ready", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	h.DocumentReady(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, db.updates, 1)
	assert.Equal(t, models.StatusCompleted, db.updates[0].status)
	assert.Equal(t, "doc-1", db.updates[0].id)
}
