// Package rag answers natural-language questions about the catalogue by
// retrieving relevant datasets and generating a grounded answer. Questions
// that are not searches (greetings, help requests, noise) get canned
// answers without touching the index.
package rag

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/common"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/interfaces"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/services/guardrails"
)

const noResultsAnswer = "No relevant datasets found for your question. Try rephrasing it or using different keywords, for example 'river water quality' or 'soil carbon'."

// Service orchestrates retrieval, access filtering, context assembly,
// generation, and redaction.
type Service struct {
	vector    interfaces.VectorStore
	generator interfaces.Generator
	config    *common.RAGConfig
	logger    arbor.ILogger
}

// NewService creates the question-answering service. generator may be nil;
// answers then fall back to a formatted dataset listing.
func NewService(vector interfaces.VectorStore, generator interfaces.Generator, config *common.RAGConfig, logger arbor.ILogger) *Service {
	return &Service{
		vector:    vector,
		generator: generator,
		config:    config,
		logger:    logger,
	}
}

// Ask answers a question for the given role. The role bounds which
// datasets may appear as sources and in the answer.
func (s *Service) Ask(ctx context.Context, question string, role guardrails.Role) (*models.RAGResponse, error) {
	intent := ClassifyIntent(question)
	if intent != IntentSearch {
		return &models.RAGResponse{
			Question: question,
			Answer:   CannedResponse(intent),
			Sources:  []models.RAGSource{},
			Intent:   string(intent),
		}, nil
	}

	hits, err := s.retrieve(ctx, question, role)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return &models.RAGResponse{
			Question: question,
			Answer:   noResultsAnswer,
			Sources:  []models.RAGSource{},
			Intent:   string(intent),
		}, nil
	}

	answer, generated, model := s.answer(ctx, question, hits)

	return &models.RAGResponse{
		Question:  question,
		Answer:    guardrails.RedactPII(answer),
		Sources:   sourcesFrom(hits),
		Generated: generated,
		Model:     model,
		Intent:    string(intent),
	}, nil
}

func (s *Service) retrieve(ctx context.Context, question string, role guardrails.Role) ([]models.VectorHit, error) {
	topK := s.config.TopK
	if topK <= 0 {
		topK = 5
	}

	hits, err := s.vector.Search(ctx, question, topK, s.config.MinRelevance)
	if err != nil {
		return nil, err
	}

	datasets := make([]*models.Dataset, len(hits))
	for i, hit := range hits {
		datasets[i] = hit.Dataset
	}
	allowed := guardrails.FilterDatasetsByAccess(datasets, role)
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, ds := range allowed {
		allowedSet[ds.Identifier] = struct{}{}
	}

	filtered := hits[:0]
	for _, hit := range hits {
		if _, ok := allowedSet[hit.Dataset.Identifier]; ok {
			filtered = append(filtered, hit)
		}
	}
	return filtered, nil
}

// answer generates a grounded answer, falling back to a plain dataset
// listing when no generator is configured or generation fails.
func (s *Service) answer(ctx context.Context, question string, hits []models.VectorHit) (answer string, generated bool, model string) {
	if s.generator == nil || !s.generator.IsAvailable(ctx) {
		return fallbackAnswer(hits), false, ""
	}

	contextBlock := buildContext(hits, s.config.MaxContextChars)
	prompt := buildPrompt(contextBlock, question)

	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Answer generation failed, returning dataset listing")
		return fallbackAnswer(hits), false, ""
	}
	return text, true, s.generator.ModelName()
}

func sourcesFrom(hits []models.VectorHit) []models.RAGSource {
	sources := make([]models.RAGSource, len(hits))
	for i, hit := range hits {
		sources[i] = models.RAGSource{
			Identifier:     hit.Dataset.Identifier,
			Title:          hit.Dataset.Title,
			RelevanceScore: hit.Score,
		}
	}
	return sources
}
