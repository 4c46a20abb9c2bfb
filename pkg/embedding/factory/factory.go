package factory

import (
	"context"
	"fmt"

	"ai-memchat-be/pkg/embedding"
	"ai-memchat-be/pkg/embedding/jina"
)

type Settings struct {
	Provider      string
	Model         string
	Dimensions    int
	OllamaBaseURL string
	GeminiAPIKey  string
	JinaAPIKey    string
}

func NewEmbeddingProvider(ctx context.Context, s Settings) (embedding.EmbeddingProvider, error) {
	switch s.Provider {
	case "gemini", "":
		if s.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini embeddings require GOOGLE_GEMINI_API_KEY")
		}
		return embedding.NewGeminiProvider(ctx, s.GeminiAPIKey, s.Model, s.Dimensions)
	case "jina":
		if s.JinaAPIKey == "" {
			return nil, fmt.Errorf("jina embeddings require JINA_API_KEY")
		}
		return jina.NewJinaProvider(s.JinaAPIKey, s.Model, s.Dimensions), nil
	case "ollama":
		return embedding.NewOllamaProvider(s.OllamaBaseURL, s.Model), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", s.Provider)
	}
}
