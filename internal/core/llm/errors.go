package llm

import "errors"

var (
	// ErrDimensionMismatch is returned when the provider produces vectors
	// of a different dimension than configured.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCountMismatch is returned when the provider returns a different
	// number of vectors than texts sent.
	ErrCountMismatch = errors.New("embedding count mismatch")
)
