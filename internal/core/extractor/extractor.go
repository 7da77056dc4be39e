// Package extractor turns raw document bytes into plain text. Parsing is
// dispatched on the file extension: PDF, DOCX and HTML go through
// sajari/docconv, plain text and markdown pass straight through.
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/pdfprocess/internal/core"
)

var _ core.TextExtractor = (*DocconvExtractor)(nil)

// mimeByExt maps the allow-listed extensions onto the content types
// docconv dispatches on.
var mimeByExt = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".html": "text/html",
}

type DocconvExtractor struct {
	useReadability bool
}

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

// ExtractText converts data into plain text using the parser implied by the
// filename's extension. A document that parses but yields zero extractable
// characters (e.g. a scanned PDF without a text layer) is indistinguishable
// from a corrupt one at this layer and fails with ErrNoText.
func (e *DocconvExtractor) ExtractText(ctx context.Context, data []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var text string
	switch ext {
	case ".txt", ".md":
		text = string(data)
	case ".pdf", ".docx", ".html":
		res, err := docconv.Convert(bytes.NewReader(data), mimeByExt[ext], e.useReadability)
		if err != nil {
			return "", fmt.Errorf("%w: convert %s: %v", ErrUnreadable, ext, err)
		}
		text = res.Body
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}
