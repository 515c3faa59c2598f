// ABOUTME: HTTP client for the Gemini embedContent REST endpoint.
// ABOUTME: Sends the task type hint and requested output dimensionality with each text.
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultGeminiURL is the public Gemini API host.
const DefaultGeminiURL = "https://generativelanguage.googleapis.com"

// GeminiProvider embeds text with a Gemini embedding model.
type GeminiProvider struct {
	baseURL   string
	apiKey    string
	model     string
	taskType  string
	dimension int
	client    *http.Client
}

// NewGeminiProvider creates a Gemini provider. An empty baseURL uses DefaultGeminiURL.
func NewGeminiProvider(baseURL, apiKey, model, taskType string, dimension int) *GeminiProvider {
	if baseURL == "" {
		baseURL = DefaultGeminiURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/v1beta")
	return &GeminiProvider{
		baseURL:   baseURL,
		apiKey:    apiKey,
		model:     strings.TrimPrefix(model, "models/"),
		taskType:  taskType,
		dimension: dimension,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// geminiPart is one text part of the content being embedded.
type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

// geminiEmbedRequest is the JSON body sent to :embedContent.
type geminiEmbedRequest struct {
	Model                string        `json:"model"`
	Content              geminiContent `json:"content"`
	TaskType             string        `json:"taskType,omitempty"`
	OutputDimensionality int           `json:"outputDimensionality,omitempty"`
}

// geminiEmbedResponse maps the :embedContent response.
type geminiEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// geminiErrorResponse maps the API error envelope.
type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Name implements Provider.
func (g *GeminiProvider) Name() string { return "gemini" }

// Dimension implements Provider.
func (g *GeminiProvider) Dimension() int { return g.dimension }

// Embed implements Provider.
func (g *GeminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	payload := geminiEmbedRequest{
		Model:                "models/" + g.model,
		Content:              geminiContent{Parts: []geminiPart{{Text: text}}},
		TaskType:             g.taskType,
		OutputDimensionality: g.dimension,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:embedContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		var apiErr geminiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("gemini returned %d (%s): %s", resp.StatusCode, apiErr.Error.Status, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("gemini returned %d: %s", resp.StatusCode, string(respBody))
	}

	var out geminiEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Embedding.Values) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return out.Embedding.Values, nil
}
