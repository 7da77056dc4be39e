package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/markdave123-py/pdfprocess/internal/config"
	"github.com/markdave123-py/pdfprocess/internal/core"
	"github.com/markdave123-py/pdfprocess/internal/core/ingestion"
	"github.com/markdave123-py/pdfprocess/internal/models"
)

// allowedExtensions is the upload allow-list. Anything else is rejected
// before a document record exists.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
	".html": true,
	".md":   true,
}

// Enqueuer schedules a document run; satisfied by ingestion.Scheduler.
type Enqueuer interface {
	Enqueue(job ingestion.Job) error
}

type DocumentHandler struct {
	dbclient     core.DbClient
	objectclient core.ObjectClient
	scheduler    Enqueuer
	cfg          *config.Config
}

func NewDocumentHandler(dbclient core.DbClient, objectclient core.ObjectClient, scheduler Enqueuer, cfg *config.Config) *DocumentHandler {
	return &DocumentHandler{dbclient: dbclient, objectclient: objectclient, scheduler: scheduler, cfg: cfg}
}

// UploadDocument validates the file, stores it, records the document as
// "pending" and schedules the ingestion run. The response returns before
// processing happens; clients poll the status endpoint or take the webhook.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.cfg.MaxFileSize + 1); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	projectID := r.FormValue("project_id")
	if projectID == "" {
		http.Error(w, "project_id is required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// Sanitize filename to prevent path traversal in the object key.
	cleanFilename := filepath.Base(header.Filename)
	ext := strings.ToLower(filepath.Ext(cleanFilename))
	if !allowedExtensions[ext] {
		http.Error(w, fmt.Sprintf("invalid file extension %q; allowed: pdf, docx, txt, html, md", ext), http.StatusBadRequest)
		return
	}

	// Read through a limiter so an oversized body is caught without
	// buffering all of it.
	data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxFileSize+1))
	if err != nil {
		http.Error(w, "failed to read file", http.StatusBadRequest)
		return
	}
	if int64(len(data)) > h.cfg.MaxFileSize {
		http.Error(w, fmt.Sprintf("file size exceeds limit of %d bytes", h.cfg.MaxFileSize), http.StatusRequestEntityTooLarge)
		return
	}

	docID := uuid.NewString()
	key := fmt.Sprintf("%s/%s/%s", projectID, docID, cleanFilename)

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uploadCtx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	storageURL, err := h.objectclient.UploadFile(uploadCtx, key, bytes.NewReader(data), contentType)
	if err != nil {
		http.Error(w, fmt.Sprintf("upload failed: %v", err), http.StatusInternalServerError)
		return
	}

	doc := &models.Document{
		ID:           docID,
		ProjectID:    projectID,
		FileName:     cleanFilename,
		FileSize:     int64(len(data)),
		StorageURL:   storageURL,
		UploadStatus: models.StatusPending,
	}
	if err := h.dbclient.CreateDocument(uploadCtx, doc); err != nil {
		log.Printf("DB insert failed for doc %s: %v", docID, err)
		http.Error(w, "failed to store document metadata", http.StatusInternalServerError)
		return
	}

	job := ingestion.Job{
		DocumentID: docID,
		ProjectID:  projectID,
		StorageKey: key,
		FileName:   cleanFilename,
	}
	if err := h.scheduler.Enqueue(job); err != nil {
		if errors.Is(err, ingestion.ErrQueueFull) {
			http.Error(w, "ingestion queue full, retry later", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, fmt.Sprintf("failed to schedule processing: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(doc)
}

func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	documents, err := h.dbclient.ListDocumentsByProject(r.Context(), projectID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": documents})
}

// GetDocumentStatus is the polling endpoint and the documented fallback
// when webhook delivery fails.
func (h *DocumentHandler) GetDocumentStatus(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "documentID")

	doc, err := h.dbclient.GetDocumentByID(r.Context(), docID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":            doc.ID,
		"upload_status": doc.UploadStatus,
		"error_message": doc.ErrorMessage,
	})
}

// ReprocessDocument re-runs ingestion for a document, typically after a
// failed run. The pipeline replaces any chunks from earlier attempts.
func (h *DocumentHandler) ReprocessDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "documentID")

	doc, err := h.dbclient.GetDocumentByID(r.Context(), docID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}

	job := ingestion.Job{
		DocumentID: doc.ID,
		ProjectID:  doc.ProjectID,
		StorageKey: objectKeyFromURL(doc.StorageURL),
		FileName:   doc.FileName,
	}
	if err := h.scheduler.Enqueue(job); err != nil {
		if errors.Is(err, ingestion.ErrQueueFull) {
			http.Error(w, "ingestion queue full, retry later", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, fmt.Sprintf("failed to schedule processing: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"id": doc.ID, "message": "reprocessing scheduled"})
}

// DeleteDocument removes the record (chunks cascade with it) and the stored
// object. A stranded object is only logged; the record is the source of truth.
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "documentID")

	doc, err := h.dbclient.GetDocumentByID(r.Context(), docID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}

	if err := h.dbclient.DeleteDocument(r.Context(), docID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if key := objectKeyFromURL(doc.StorageURL); key != "" {
		if err := h.objectclient.DeleteFile(r.Context(), key); err != nil {
			log.Printf("failed to delete stored object for doc %s: %v", docID, err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "document deleted"})
}

// objectKeyFromURL extracts the object key from a virtual-hosted-style URL.
// Example: https://bucket.s3.us-east-2.amazonaws.com/proj/doc/file.pdf
func objectKeyFromURL(storageURL string) string {
	u, err := url.Parse(storageURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}
