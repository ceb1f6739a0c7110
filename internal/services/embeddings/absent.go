package embeddings

import (
	"context"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/interfaces"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// AbsentService is the embedding backend used when no model is configured.
// Every embed call fails with a not-available error; search degrades to
// keyword-only.
type AbsentService struct{}

// NewAbsentService creates the no-op embedding service.
func NewAbsentService() *AbsentService {
	return &AbsentService{}
}

func (s *AbsentService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return nil, models.NewNotAvailableError("no embedding backend configured")
}

func (s *AbsentService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, models.NewNotAvailableError("no embedding backend configured")
}

func (s *AbsentService) ModelName() string { return "" }

func (s *AbsentService) Dimensions() int { return 0 }

func (s *AbsentService) IsAvailable(ctx context.Context) bool { return false }

var _ interfaces.EmbeddingService = (*AbsentService)(nil)
