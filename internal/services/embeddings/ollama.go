// Package embeddings generates dataset embeddings through a local Ollama
// instance, with a no-op variant for deployments without a model.
package embeddings

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ternarybob/arbor"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/common"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/interfaces"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// OllamaService implements EmbeddingService against the Ollama API
type OllamaService struct {
	client     *api.Client
	model      string
	dimensions int
	logger     arbor.ILogger
}

// NewOllamaService creates an embedding service for the configured host
// and model.
func NewOllamaService(config *common.EmbeddingsConfig, logger arbor.ILogger) (*OllamaService, error) {
	u, err := url.Parse(config.Host)
	if err != nil {
		return nil, models.NewEmbeddingError("invalid ollama host", err)
	}

	return &OllamaService{
		client:     api.NewClient(u, http.DefaultClient),
		model:      config.Model,
		dimensions: config.Dimensions,
		logger:     logger,
	}, nil
}

// EmbedQuery embeds a single search query
func (s *OllamaService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, models.NewEmbeddingError("text cannot be empty", nil)
	}

	start := time.Now()
	resp, err := s.client.Embed(ctx, &api.EmbedRequest{
		Model: s.model,
		Input: text,
	})
	if err != nil {
		return nil, models.NewEmbeddingError("ollama embed failed", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, models.NewEmbeddingError("ollama returned no embeddings", nil)
	}

	s.logger.Debug().
		Str("model", s.model).
		Int("embedding_dim", len(resp.Embeddings[0])).
		Dur("duration", time.Since(start)).
		Msg("Generated embedding")

	return resp.Embeddings[0], nil
}

// EmbedBatch embeds a batch of texts in input order
func (s *OllamaService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := s.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		results[i] = embedding
	}
	return results, nil
}

// ModelName returns the embedding model name
func (s *OllamaService) ModelName() string {
	return s.model
}

// Dimensions returns the fixed vector dimension for the model
func (s *OllamaService) Dimensions() int {
	return s.dimensions
}

// IsAvailable checks if Ollama is reachable
func (s *OllamaService) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err := s.client.Version(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Ollama not available")
		return false
	}
	return true
}

var _ interfaces.EmbeddingService = (*OllamaService)(nil)
