package factory

import (
	"context"
	"testing"

	"ai-memchat-be/pkg/embedding"
	"ai-memchat-be/pkg/embedding/jina"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbeddingProvider(t *testing.T) {
	ctx := context.Background()

	p, err := NewEmbeddingProvider(ctx, Settings{Provider: "ollama"})
	require.NoError(t, err)
	assert.IsType(t, &embedding.OllamaProvider{}, p)

	p, err = NewEmbeddingProvider(ctx, Settings{Provider: "jina", JinaAPIKey: "k", Dimensions: 768})
	require.NoError(t, err)
	assert.IsType(t, &jina.JinaProvider{}, p)

	_, err = NewEmbeddingProvider(ctx, Settings{Provider: "gemini"})
	assert.Error(t, err)

	_, err = NewEmbeddingProvider(ctx, Settings{Provider: "word2vec"})
	assert.ErrorContains(t, err, "unsupported embedding provider")
}
