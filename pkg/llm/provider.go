package llm

import (
	"context"
)

// Message is one entry of the ordered context sent to a model.
// Role is one of the constant.ChatMessageRole* values.
type Message struct {
	Role    string
	Content string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// NewOptions applies opts over the package defaults.
func NewOptions(opts ...Option) *Options {
	options := &Options{
		Temperature: 0.7,
		MaxTokens:   1024,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends the ordered context to the model and returns one completion
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)
}
