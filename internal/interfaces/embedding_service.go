package interfaces

import "context"

// EmbeddingService generates vector embeddings
type EmbeddingService interface {
	// EmbedQuery embeds a single search query
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds a batch of dataset texts in input order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Get model information
	ModelName() string
	Dimensions() int

	// IsAvailable checks whether the backing model can be reached
	IsAvailable(ctx context.Context) bool
}
