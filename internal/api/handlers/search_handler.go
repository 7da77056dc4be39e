package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/markdave123-py/pdfprocess/internal/core"
)

type SearchHandler struct {
	dbclient core.DbClient
	embedder core.EmbeddingProvider
}

func NewSearchHandler(dbclient core.DbClient, embedder core.EmbeddingProvider) *SearchHandler {
	return &SearchHandler{dbclient: dbclient, embedder: embedder}
}

type searchRequest struct {
	ProjectID string  `json:"project_id"`
	Query     string  `json:"query"`
	Limit     int     `json:"limit"`
	Threshold float64 `json:"threshold"`
}

// Search embeds the query and returns the project's chunks ranked by
// cosine similarity, keeping those at or above the threshold.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.ProjectID == "" || req.Query == "" {
		http.Error(w, "project_id and query are required", http.StatusBadRequest)
		return
	}
	if req.Limit <= 0 {
		req.Limit = 5
	}
	if req.Threshold <= 0 {
		req.Threshold = 0.3
	}

	vecs, err := h.embedder.EmbedTexts(r.Context(), []string{req.Query})
	if err != nil || len(vecs) == 0 {
		http.Error(w, fmt.Sprintf("embedding failed: %v", err), http.StatusInternalServerError)
		return
	}

	matches, err := h.dbclient.SearchProjectChunks(r.Context(), req.ProjectID, vecs[0], req.Threshold, req.Limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("search failed: %v", err), http.StatusInternalServerError)
		return
	}

	// The vectors are dead weight on the wire; clients only need text and rank.
	for i := range matches {
		matches[i].Embedding = nil
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"results": matches})
}
