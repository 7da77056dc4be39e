package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/pdfprocess/internal/api/handlers"
	"github.com/markdave123-py/pdfprocess/internal/config"
	"github.com/markdave123-py/pdfprocess/internal/core"
	"github.com/markdave123-py/pdfprocess/internal/core/ingestion"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, db core.DbClient, obj core.ObjectClient, scheduler *ingestion.Scheduler, emb core.EmbeddingProvider) *Server {
	docHandler := handlers.NewDocumentHandler(db, obj, scheduler, cfg)
	searchHandler := handlers.NewSearchHandler(db, emb)
	webhookHandler := handlers.NewWebhookHandler(db, cfg.WebhookSecret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000", "http://localhost:8000"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(api chi.Router) {
		api.Post("/documents/upload", docHandler.UploadDocument)
		api.Get("/documents/{documentID}/status", docHandler.GetDocumentStatus)
		api.Post("/documents/{documentID}/process", docHandler.ReprocessDocument)
		api.Delete("/documents/{documentID}", docHandler.DeleteDocument)
		api.Get("/projects/{projectID}/documents", docHandler.ListDocuments)

		api.Post("/search", searchHandler.Search)
		api.Post("/webhook/document-ready", webhookHandler.DocumentReady)
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
