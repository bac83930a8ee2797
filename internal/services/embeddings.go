package services

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

// EmbeddingsProvider turns texts into vectors, one per input and in input order.
type EmbeddingsProvider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
}

type httpEmbeddings struct {
	endpoint string
	client   *http.Client
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Vectors [][]float32 `json:"vectors"`
}

// NewHTTPEmbeddings calls a self-hosted embeddings server that accepts
// {"texts": [...]} on POST /embed and answers {"vectors": [[...]]}.
func NewHTTPEmbeddings(baseURL string, timeout time.Duration) EmbeddingsProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpEmbeddings{
		endpoint: strings.TrimRight(baseURL, "/") + "/embed",
		client:   &http.Client{Timeout: timeout},
	}
}

func (h *httpEmbeddings) Name() string {
	return "http/" + h.endpoint
}

// Embed implements EmbeddingsProvider.
func (h *httpEmbeddings) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embedRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call embeddings server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embeddings server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if len(out.Vectors) != len(texts) {
		return nil, fmt.Errorf("expected %d vectors, got %d", len(texts), len(out.Vectors))
	}
	return out.Vectors, nil
}
