package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mnemo-ai/mnemo/internal/config"
	"github.com/mnemo-ai/mnemo/internal/logger"
	"github.com/mnemo-ai/mnemo/internal/types/interfaces"
)

type openaiEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewEmbedder creates an OpenAI-compatible embedding client. Any endpoint that
// speaks the embeddings API works via embedding.base_url.
func NewEmbedder(cfg *config.Config) interfaces.Embedder {
	clientConfig := openai.DefaultConfig(cfg.Embedding.APIKey)
	if cfg.Embedding.BaseURL != "" {
		clientConfig.BaseURL = cfg.Embedding.BaseURL
	}
	return &openaiEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		model:  openai.EmbeddingModel(cfg.Embedding.Model),
	}
}

// Embed embeds all texts in a single batched request.
func (e *openaiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		logger.Errorf(ctx, "[Embedding] Batch embed of %d texts failed: %v", len(texts), err)
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: asked %d, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}
