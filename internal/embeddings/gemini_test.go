// ABOUTME: Tests for the Gemini embedding client using an httptest server.
// ABOUTME: Covers request shape, auth header, error envelopes, and empty responses.
package embeddings

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeminiEmbed(t *testing.T) {
	var received geminiEmbedRequest
	var receivedKey, receivedPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		receivedPath = r.URL.Path
		receivedKey = r.Header.Get("x-goog-api-key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embedding":{"values":[0.25,-0.5,1]}}`))
	}))
	defer server.Close()

	g := NewGeminiProvider(server.URL, "test-key", "models/gemini-embedding-001", "SEMANTIC_SIMILARITY", 3)
	vec, err := g.Embed(context.Background(), "energetic urban chic")
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}

	if receivedPath != "/v1beta/models/gemini-embedding-001:embedContent" {
		t.Errorf("unexpected path %s", receivedPath)
	}
	if receivedKey != "test-key" {
		t.Errorf("expected x-goog-api-key 'test-key', got %q", receivedKey)
	}
	if received.Model != "models/gemini-embedding-001" {
		t.Errorf("unexpected model %q", received.Model)
	}
	if received.TaskType != "SEMANTIC_SIMILARITY" {
		t.Errorf("unexpected task type %q", received.TaskType)
	}
	if received.OutputDimensionality != 3 {
		t.Errorf("expected outputDimensionality 3, got %d", received.OutputDimensionality)
	}
	if len(received.Content.Parts) != 1 || received.Content.Parts[0].Text != "energetic urban chic" {
		t.Errorf("unexpected content %+v", received.Content)
	}
	if len(vec) != 3 || vec[0] != 0.25 || vec[1] != -0.5 || vec[2] != 1 {
		t.Errorf("unexpected vector %v", vec)
	}
}

func TestGeminiEmbedAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	g := NewGeminiProvider(server.URL, "key", "gemini-embedding-001", "", 0)
	_, err := g.Embed(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	if !strings.Contains(err.Error(), "RESOURCE_EXHAUSTED") {
		t.Errorf("expected error status in message, got %v", err)
	}
}

func TestGeminiEmbedPlainError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal error"))
	}))
	defer server.Close()

	g := NewGeminiProvider(server.URL, "key", "gemini-embedding-001", "", 0)
	_, err := g.Embed(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "internal error") {
		t.Fatalf("expected body in error, got %v", err)
	}
}

func TestGeminiEmbedEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":{"values":[]}}`))
	}))
	defer server.Close()

	g := NewGeminiProvider(server.URL, "key", "gemini-embedding-001", "", 0)
	_, err := g.Embed(context.Background(), "x")
	if err != ErrEmptyEmbedding {
		t.Fatalf("expected ErrEmptyEmbedding, got %v", err)
	}
}

func TestGeminiEmbedUnreachable(t *testing.T) {
	g := NewGeminiProvider("http://localhost:1", "key", "gemini-embedding-001", "", 0)
	if _, err := g.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected error for unreachable server")
	}
}

func TestGeminiBaseURLNormalization(t *testing.T) {
	g := NewGeminiProvider("https://example.com/v1beta/", "k", "m", "", 0)
	if g.baseURL != "https://example.com" {
		t.Errorf("expected trimmed base URL, got %q", g.baseURL)
	}
	if NewGeminiProvider("", "k", "m", "", 0).baseURL != DefaultGeminiURL {
		t.Error("expected default base URL")
	}
}
