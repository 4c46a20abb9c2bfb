package gemini

import (
	"context"
	"fmt"
	"strings"

	"ai-memchat-be/internal/constant"
	"ai-memchat-be/pkg/llm"

	"google.golang.org/genai"
)

type GeminiProvider struct {
	client    *genai.Client
	modelName string
}

var _ llm.LLMProvider = &GeminiProvider{}

func NewGeminiProvider(ctx context.Context, apiKey, modelName string) (*GeminiProvider, error) {
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiProvider{client: client, modelName: modelName}, nil
}

// toContents maps the ordered context to Gemini turns. Gemini only knows
// "user" and "model", so the long-term memory entry is sent as a user turn.
func toContents(history []llm.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		content := &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: msg.Content}},
		}
		if msg.Role == constant.ChatMessageRoleModel {
			content.Role = genai.RoleModel
		}
		contents = append(contents, content)
	}
	return contents
}

func (g *GeminiProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.NewOptions(opts...)

	model := g.modelName
	if options.Model != "" {
		model = options.Model
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(options.Temperature)),
		MaxOutputTokens: int32(options.MaxTokens),
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, toContents(history), config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty completion")
	}
	return text, nil
}
