package interfaces

import (
	"context"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// DatasetRepository persists canonical dataset records
type DatasetRepository interface {
	// Get retrieves a dataset by identifier; returns a not-found store error when absent
	Get(ctx context.Context, identifier string) (*models.Dataset, error)

	// Exists reports whether a dataset is stored
	Exists(ctx context.Context, identifier string) (bool, error)

	// Save upserts one dataset, stamping created/updated timestamps
	Save(ctx context.Context, dataset *models.Dataset) error

	// SaveMany upserts a batch; per-dataset failures are collected, not fatal
	SaveMany(ctx context.Context, datasets []*models.Dataset) (*models.BulkResult, error)

	// Delete removes a dataset by identifier
	Delete(ctx context.Context, identifier string) error

	// GetAllIdentifiers lists every stored identifier
	GetAllIdentifiers(ctx context.Context) ([]string, error)

	// GetPaged returns a page of datasets ordered by identifier
	GetPaged(ctx context.Context, offset, limit int) (*models.PagedDatasets, error)

	// Search finds datasets whose title or abstract contains the query
	// substring, case-insensitively
	Search(ctx context.Context, query string, limit int) ([]*models.Dataset, error)

	// Count returns the number of stored datasets
	Count(ctx context.Context) (int, error)
}

// EmbeddingStore is the slice of the dataset store the vector index works
// against; embeddings live on the dataset records themselves
type EmbeddingStore interface {
	// GetMissingEmbeddings returns datasets without a stored vector
	GetMissingEmbeddings(ctx context.Context) ([]*models.Dataset, error)

	// GetEmbedded returns datasets carrying a vector, for similarity scans
	GetEmbedded(ctx context.Context) ([]*models.Dataset, error)

	// UpdateEmbedding stores a computed vector on an existing dataset
	UpdateEmbedding(ctx context.Context, identifier string, embedding []float32, model string) error

	// ClearEmbeddings removes every vector without touching the records
	ClearEmbeddings(ctx context.Context) error

	// Count returns the number of stored datasets
	Count(ctx context.Context) (int, error)
}

// SearchHistoryStore records executed searches for the status report
type SearchHistoryStore interface {
	// Record appends one history entry
	Record(ctx context.Context, entry *models.SearchHistoryEntry) error

	// Recent returns the latest entries, newest first
	Recent(ctx context.Context, limit int) ([]*models.SearchHistoryEntry, error)
}
