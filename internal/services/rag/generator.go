package rag

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ternarybob/arbor"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/interfaces"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

const systemPrompt = "You are a research assistant helping users discover environmental datasets. " +
	"Answer questions using only the dataset descriptions provided in the context. " +
	"Cite datasets as [Dataset N] where N is the number in the context. " +
	"If the context does not answer the question, say so rather than inventing details."

// OllamaGenerator produces answers with a local Ollama model.
type OllamaGenerator struct {
	client *api.Client
	model  string
	logger arbor.ILogger
}

// NewOllamaGenerator connects to the Ollama server at host using model for
// generation.
func NewOllamaGenerator(host, model string, logger arbor.ILogger) (*OllamaGenerator, error) {
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	return &OllamaGenerator{
		client: api.NewClient(base, http.DefaultClient),
		model:  model,
		logger: logger,
	}, nil
}

// Generate runs a single non-streaming completion.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  g.model,
		Prompt: prompt,
		System: systemPrompt,
		Stream: &stream,
	}

	var sb strings.Builder
	err := g.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", models.NewEmbeddingError(fmt.Sprintf("generate with model %s", g.model), err)
	}
	return strings.TrimSpace(sb.String()), nil
}

func (g *OllamaGenerator) ModelName() string {
	return g.model
}

// IsAvailable reports whether the Ollama server responds.
func (g *OllamaGenerator) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := g.client.Version(ctx); err != nil {
		g.logger.Debug().Err(err).Msg("Ollama generator not reachable")
		return false
	}
	return true
}

var _ interfaces.Generator = (*OllamaGenerator)(nil)

// fallbackAnswer lists the retrieved datasets when no generator is
// available or generation fails.
func fallbackAnswer(hits []models.VectorHit) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d relevant datasets:\n\n", len(hits))
	for i, hit := range hits {
		ds := hit.Dataset
		fmt.Fprintf(&sb, "%d. %s (Relevance: %.0f%%)\n", i+1, ds.Title, hit.Score*100)
		if ds.Abstract != "" {
			fmt.Fprintf(&sb, "   %s\n", truncate(ds.Abstract, 200))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return strings.TrimRight(text[:max], " ") + "..."
}
