package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	AIAPIKey     string
	EmbedModel   string
	EmbedDim     int

	// Chunking knobs. Overlap must stay below chunk size; the splitter
	// constructor rejects anything else.
	ChunkSize    int
	ChunkOverlap int

	// Batch sizes for the embedding provider and the chunk store.
	EmbedBatchSize int
	StoreBatchSize int

	WebhookURL         string
	WebhookSecret      string
	WebhookTimeoutSecs int

	MaxFileSize int64
	Workers     int
	Port        string
}

// LoadConfig loads the environment variables and returns the config.
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		AwsAccessKey:       getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:       getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:          getEnv("AWS_REGION", "us-east-2"),
		BucketName:         getEnv("BUCKET_NAME", "pdfprocess-docs"),
		AIAPIKey:           getEnv("GEMINI_API_KEY", ""),
		EmbedModel:         getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:           getEnvInt("EMBED_DIM", 768),
		ChunkSize:          getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:       getEnvInt("CHUNK_OVERLAP", 200),
		EmbedBatchSize:     getEnvInt("EMBED_BATCH_SIZE", 100),
		StoreBatchSize:     getEnvInt("STORE_BATCH_SIZE", 100),
		WebhookURL:         getEnv("WEBHOOK_URL", "http://localhost:8000/api/webhook/document-ready"),
		WebhookSecret:      getEnv("WEBHOOK_SECRET", "webhook-secret-key"),
		WebhookTimeoutSecs: getEnvInt("WEBHOOK_TIMEOUT_SECS", 30),
		MaxFileSize:        int64(getEnvInt("MAX_FILE_SIZE", 10485760)), // 10 MiB
		Workers:            getEnvInt("WORKERS", 4),
		Port:               getEnv("PORT", "8080"),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}
