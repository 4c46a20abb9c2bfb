package factory

import (
	"context"
	"fmt"

	"ai-memchat-be/pkg/llm"
	"ai-memchat-be/pkg/llm/anthropic"
	"ai-memchat-be/pkg/llm/gemini"
	"ai-memchat-be/pkg/llm/ollama"
)

type Settings struct {
	Provider        string
	Model           string
	OllamaBaseURL   string
	GeminiAPIKey    string
	AnthropicAPIKey string
}

func NewLLMProvider(ctx context.Context, s Settings) (llm.LLMProvider, error) {
	switch s.Provider {
	case "gemini", "":
		if s.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini provider requires GOOGLE_GEMINI_API_KEY")
		}
		return gemini.NewGeminiProvider(ctx, s.GeminiAPIKey, s.Model)
	case "anthropic":
		if s.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires ANTHROPIC_API_KEY")
		}
		return anthropic.NewAnthropicProvider(s.AnthropicAPIKey, s.Model), nil
	case "ollama":
		return ollama.NewOllamaProvider(s.OllamaBaseURL, s.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}
