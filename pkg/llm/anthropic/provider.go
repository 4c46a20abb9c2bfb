package anthropic

import (
	"context"
	"fmt"
	"strings"

	"ai-memchat-be/internal/constant"
	"ai-memchat-be/pkg/llm"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type AnthropicProvider struct {
	client    sdk.Client
	modelName string
}

var _ llm.LLMProvider = &AnthropicProvider{}

func NewAnthropicProvider(apiKey, modelName string) *AnthropicProvider {
	if modelName == "" {
		modelName = "claude-sonnet-4-20250514"
	}
	return &AnthropicProvider{
		client:    sdk.NewClient(option.WithAPIKey(apiKey)),
		modelName: modelName,
	}
}

// buildParams moves the long-term memory entry into the system prompt and
// maps the transcript to user/assistant turns.
func buildParams(model string, history []llm.Message, options *llm.Options) sdk.MessageNewParams {
	var system []string
	messages := make([]sdk.MessageParam, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case constant.ChatMessageRoleMemory:
			system = append(system, msg.Content)
		case constant.ChatMessageRoleModel:
			messages = append(messages, sdk.NewAssistantMessage(sdk.NewTextBlock(msg.Content)))
		default:
			messages = append(messages, sdk.NewUserMessage(sdk.NewTextBlock(msg.Content)))
		}
	}

	params := sdk.MessageNewParams{
		Model:       sdk.Model(model),
		MaxTokens:   int64(options.MaxTokens),
		Messages:    messages,
		Temperature: sdk.Float(options.Temperature),
	}
	if len(system) > 0 {
		params.System = []sdk.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}
	return params
}

func (a *AnthropicProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.NewOptions(opts...)

	model := a.modelName
	if options.Model != "" {
		model = options.Model
	}

	resp, err := a.client.Messages.New(ctx, buildParams(model, history, options))
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("claude returned an empty completion")
	}
	return text, nil
}
