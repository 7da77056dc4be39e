package ingestion

import "errors"

var (
	// ErrDbClientRequired is returned when a database client is not provided.
	ErrDbClientRequired = errors.New("database client required")

	// ErrObjectClientRequired is returned when an object store client is not provided.
	ErrObjectClientRequired = errors.New("object store client required")

	// ErrEmbedderRequired is returned when an embedding provider is not provided.
	ErrEmbedderRequired = errors.New("embedding provider required")

	// ErrExtractorRequired is returned when a text extractor is not provided.
	ErrExtractorRequired = errors.New("text extractor required")

	// ErrAlreadyProcessing is returned when a run loses the claim because
	// another run holds the document.
	ErrAlreadyProcessing = errors.New("document already processing")
)
