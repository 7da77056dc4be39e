package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/markdave123-py/pdfprocess/internal/core"
	"github.com/markdave123-py/pdfprocess/internal/core/notify"
	"github.com/markdave123-py/pdfprocess/internal/models"
)

type WebhookHandler struct {
	dbclient core.DbClient
	secret   string
}

func NewWebhookHandler(dbclient core.DbClient, secret string) *WebhookHandler {
	return &WebhookHandler{dbclient: dbclient, secret: secret}
}

// DocumentReady receives the chunks-ready webhook. The pre-shared secret
// gates the call; anything else about the payload is trusted. The document
// is marked completed so pollers see the hand-off happened.
func (h *WebhookHandler) DocumentReady(w http.ResponseWriter, r *http.Request) {
	var payload notify.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if payload.Secret != h.secret {
		log.Printf("invalid webhook secret for document %s", payload.DocumentID)
		http.Error(w, "invalid webhook secret", http.StatusForbidden)
		return
	}

	log.Printf("received webhook for document %s with %d chunks", payload.DocumentID, payload.ChunkCount)

	if err := h.dbclient.UpdateDocumentStatus(r.Context(), payload.DocumentID, models.StatusCompleted, ""); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("acknowledged %d chunks for document %s", payload.ChunkCount, payload.DocumentID),
	})
}
