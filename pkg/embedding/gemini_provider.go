package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

type GeminiProvider struct {
	client     *genai.Client
	model      string
	dimensions int32
}

func NewGeminiProvider(ctx context.Context, apiKey, model string, dimensions int) (*GeminiProvider, error) {
	if model == "" {
		model = "gemini-embedding-001"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiProvider{
		client:     client,
		model:      model,
		dimensions: int32(dimensions),
	}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	config := &genai.EmbedContentConfig{
		TaskType: taskType,
	}
	if p.dimensions > 0 {
		config.OutputDimensionality = genai.Ptr(p.dimensions)
	}

	resp, err := p.client.Models.EmbedContent(ctx, p.model, genai.Text(text), config)
	if err != nil {
		return nil, fmt.Errorf("gemini embed content: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini returned no embedding")
	}

	// Truncated gemini-embedding-001 outputs are not unit length.
	return NormalizeVector(resp.Embeddings[0].Values), nil
}
