package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyChunksReadyDeliversPayload(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "hunter2", 5*time.Second)
	err := n.NotifyChunksReady(context.Background(), "doc-1", "proj-1", 3)
	require.NoError(t, err)

	assert.Equal(t, "doc-1", got.DocumentID)
	assert.Equal(t, "proj-1", got.ProjectID)
	assert.Equal(t, 3, got.ChunkCount)
	assert.Equal(t, "hunter2", got.Secret)
}

func TestNotifyChunksReadyAccepts2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "s", 5*time.Second)
	assert.NoError(t, n.NotifyChunksReady(context.Background(), "d", "p", 1))
}

func TestNotifyChunksReadyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "kaboom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "s", 5*time.Second)
	err := n.NotifyChunksReady(context.Background(), "d", "p", 1)
	assert.ErrorIs(t, err, ErrDeliveryFailed)
}

func TestNotifyChunksReadyUnreachableEndpoint(t *testing.T) {
	n := NewWebhookNotifier("http://127.0.0.1:1/nope", "s", time.Second)
	err := n.NotifyChunksReady(context.Background(), "d", "p", 1)
	assert.ErrorIs(t, err, ErrDeliveryFailed)
}
