// ABOUTME: Tests for the Ollama embedding client using an httptest server.
// ABOUTME: Covers request body, float conversion, and error statuses.
package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEmbed(t *testing.T) {
	var received ollamaEmbedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"embeddings":[[0.5,0.25]]}`))
	}))
	defer server.Close()

	o := NewOllamaProvider(server.URL+"/v1", "nomic-embed-text", 2)
	vec, err := o.Embed(context.Background(), "quiet and cozy")
	require.NoError(t, err)

	assert.Equal(t, "nomic-embed-text", received.Model)
	assert.Equal(t, "quiet and cozy", received.Input)
	assert.Equal(t, []float32{0.5, 0.25}, vec)
	assert.Equal(t, "ollama", o.Name())
	assert.Equal(t, 2, o.Dimension())
}

func TestOllamaEmbedErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "model not found"},
		{"no embeddings", http.StatusOK, `{"embeddings":[]}`},
		{"bad json", http.StatusOK, `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewOllamaProvider(server.URL, "m", 2).Embed(context.Background(), "x")
			assert.Error(t, err)
		})
	}
}
