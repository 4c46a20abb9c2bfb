package jina

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-memchat-be/internal/constant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "retrieval.query", req.Task)
		assert.Equal(t, 768, req.Dimensions)

		w.Write([]byte(`{"data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	p := NewJinaProvider("secret", "", 768)
	p.baseURL = srv.URL

	vec, err := p.Generate(context.Background(), "hello", constant.EmbeddingTaskQuery)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestGenerate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"bad key"}`))
	}))
	defer srv.Close()

	p := NewJinaProvider("wrong", "", 0)
	p.baseURL = srv.URL

	_, err := p.Generate(context.Background(), "hello", constant.EmbeddingTaskDocument)
	assert.ErrorContains(t, err, "status 401")
}
