package extractor

import "errors"

var (
	// ErrUnsupportedType is returned for extensions outside the allow-list.
	ErrUnsupportedType = errors.New("unsupported document type")

	// ErrUnreadable is returned when the underlying parser cannot read the
	// file (corrupt bytes, truncated archive, broken encoding).
	ErrUnreadable = errors.New("document unreadable")

	// ErrNoText is returned when parsing succeeds but yields no extractable
	// characters.
	ErrNoText = errors.New("no extractable text")
)
