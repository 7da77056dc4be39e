package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/markdave123-py/pdfprocess/internal/config"
	"github.com/markdave123-py/pdfprocess/internal/core"
	db "github.com/markdave123-py/pdfprocess/internal/core/database"
	"github.com/markdave123-py/pdfprocess/internal/core/extractor"
	"github.com/markdave123-py/pdfprocess/internal/core/ingestion"
	"github.com/markdave123-py/pdfprocess/internal/core/llm"
	"github.com/markdave123-py/pdfprocess/internal/core/notify"
	"github.com/markdave123-py/pdfprocess/internal/core/objectstore"
)

// staleCutoffSecs is how long a document may sit in "processing" before
// startup recovery marks it failed. Twice the per-run timeout.
const staleCutoffSecs = 600

type App struct {
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	Scheduler    *ingestion.Scheduler
	Server       *Server

	embedder *llm.GeminiEmbedder
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Database initialized and ready.")

	objClient, err := objectstore.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Object client initialized and ready.")

	geminiEmbedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the embedder: %w", err)
	}
	embedder := llm.NewBatchingEmbedder(geminiEmbedder, cfg.EmbedBatchSize, cfg.EmbedDim)

	documentExtractor := extractor.NewDocconvExtractor(false)
	notifier := notify.NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookSecret,
		time.Duration(cfg.WebhookTimeoutSecs)*time.Second)

	pipeline, err := ingestion.NewPipeline(dbClient, objClient, embedder, documentExtractor, notifier,
		ingestion.Config{
			ChunkSize:      cfg.ChunkSize,
			ChunkOverlap:   cfg.ChunkOverlap,
			StoreBatchSize: cfg.StoreBatchSize,
		}, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("couldn't build the ingestion pipeline: %w", err)
	}

	scheduler, err := ingestion.NewScheduler(pipeline, cfg.Workers, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("couldn't start the ingestion workers: %w", err)
	}

	// Documents stranded in "processing" by a crash become failed so they
	// can be re-enqueued.
	if n, err := dbClient.FailStaleProcessing(appCtx, staleCutoffSecs); err != nil {
		log.Printf("WARN: stale processing recovery failed: %v", err)
	} else if n > 0 {
		log.Printf("recovered %d document(s) stuck in processing", n)
	}

	server := NewServer(cfg, dbClient, objClient, scheduler, embedder)

	return &App{
		DBClient:     dbClient,
		ObjectClient: objClient,
		Scheduler:    scheduler,
		Server:       server,
		embedder:     geminiEmbedder,
	}, nil
}

func (a *App) Close() {
	if a.Scheduler != nil {
		a.Scheduler.Release()
	}
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
