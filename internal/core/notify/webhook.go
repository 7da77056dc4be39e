// Package notify delivers the "chunks ready" webhook to the downstream
// consumer. Delivery is at-most-once: one bounded POST, no retries. The
// consumer polls document status as its backstop.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/markdave123-py/pdfprocess/internal/core"
)

var _ core.Notifier = (*WebhookNotifier)(nil)

// Payload is the webhook body. The secret is a pre-shared value the
// receiving endpoint verifies before acting.
type Payload struct {
	DocumentID string `json:"document_id"`
	ProjectID  string `json:"project_id"`
	ChunkCount int    `json:"chunk_count"`
	Secret     string `json:"secret"`
}

type WebhookNotifier struct {
	url    string
	secret string
	client *http.Client
}

func NewWebhookNotifier(url, secret string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookNotifier{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: timeout},
	}
}

// NotifyChunksReady posts the payload and treats any 2xx as delivered.
func (n *WebhookNotifier) NotifyChunksReady(ctx context.Context, documentID, projectID string, chunkCount int) error {
	body, err := json.Marshal(Payload{
		DocumentID: documentID,
		ProjectID:  projectID,
		ChunkCount: chunkCount,
		Secret:     n.secret,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrDeliveryFailed, resp.StatusCode, snippet)
	}
	return nil
}
