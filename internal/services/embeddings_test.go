package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPEmbeddings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		vectors := make([][]float32, len(req.Texts))
		for i, text := range req.Texts {
			vectors[i] = []float32{float32(len(text)), 1}
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Vectors: vectors})
	}))
	defer srv.Close()

	provider := NewHTTPEmbeddings(srv.URL+"/", 0)
	vectors, err := provider.Embed(context.Background(), []string{"go", "java"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{2, 1}, {4, 1}}, vectors)
}

func TestHTTPEmbeddingsErrors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	_, err := NewHTTPEmbeddings(failing.URL, 0).Embed(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	short := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"vectors":[[1,2]]}`))
	}))
	defer short.Close()

	_, err = NewHTTPEmbeddings(short.URL, 0).Embed(context.Background(), []string{"a", "b"})
	assert.ErrorContains(t, err, "expected 2 vectors")

	vectors, err := NewHTTPEmbeddings(short.URL, 0).Embed(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, vectors)
}
