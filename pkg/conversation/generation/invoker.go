package generation

import (
	"context"
	"fmt"
	"time"

	"ai-memchat-be/pkg/llm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Invoker sends an assembled context to the model and returns one completion.
// Failures are returned as-is; there are no local retries.
type Invoker struct {
	provider llm.LLMProvider
	options  []llm.Option
	timeout  time.Duration
}

func NewInvoker(provider llm.LLMProvider, timeout time.Duration, options ...llm.Option) *Invoker {
	return &Invoker{
		provider: provider,
		options:  options,
		timeout:  timeout,
	}
}

func (i *Invoker) Invoke(ctx context.Context, history []llm.Message) (string, error) {
	ctx, span := otel.Tracer("conversation").Start(ctx, "Invoker.Invoke")
	defer span.End()
	span.SetAttributes(attribute.Int("context.length", len(history)))

	if len(history) == 0 {
		return "", fmt.Errorf("generate completion: empty context")
	}

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	text, err := i.provider.Chat(ctx, history, i.options...)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("generate completion: %w", err)
	}
	if text == "" {
		return "", fmt.Errorf("generate completion: empty completion")
	}
	return text, nil
}
