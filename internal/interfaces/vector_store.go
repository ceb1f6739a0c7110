package interfaces

import (
	"context"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// VectorStore indexes dataset embeddings and answers similarity queries
type VectorStore interface {
	// AddDatasets embeds and indexes datasets in batches; already indexed
	// identifiers are skipped unless reindex is set
	AddDatasets(ctx context.Context, datasets []*models.Dataset, reindex bool) (*models.IndexingResult, error)

	// Search returns the datasets most similar to the query text, best first
	Search(ctx context.Context, query string, limit int, minScore float64) ([]models.VectorHit, error)

	// GetIndexedIDs lists identifiers that currently carry an embedding
	GetIndexedIDs(ctx context.Context) ([]string, error)

	// GetStats summarises index size and model
	GetStats(ctx context.Context) (*models.VectorStats, error)

	// Clear removes all embeddings without touching the datasets
	Clear(ctx context.Context) error
}
