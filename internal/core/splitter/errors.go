package splitter

import "errors"

var (
	// ErrInvalidChunkSize is returned when the chunk size is not positive.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")

	// ErrOverlapTooLarge is returned when the overlap is negative or not
	// strictly less than the chunk size.
	ErrOverlapTooLarge = errors.New("chunk overlap must be smaller than chunk size")
)
