package interfaces

import (
	"context"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// SearchOptions configures a hybrid search request
type SearchOptions struct {
	// Limit maximum number of results
	Limit int

	// Mode forces semantic-only or keyword-only retrieval; empty means hybrid
	Mode models.SearchMode

	// AccessLevels restricts results to the given levels; empty means no filter
	AccessLevels []models.AccessLevel

	// Advanced applies query expansion, field rescoring, and reranking on
	// top of the fused results
	Advanced bool
}

// SearchService answers dataset search queries
// Implementations combine keyword and semantic retrieval and degrade to
// keyword-only when no embedding backend is available.
type SearchService interface {
	// Search runs the full query pipeline: analysis, retrieval, rank fusion,
	// exact-match boosting
	Search(ctx context.Context, query string, opts SearchOptions) (*models.SearchResponse, error)

	// Analyze classifies a query without executing it
	Analyze(query string) models.QueryAnalysis
}

// Reranker reorders the top results of a search
// A nil or failing reranker leaves the original order untouched.
type Reranker interface {
	Rerank(ctx context.Context, query string, results []models.SearchResult) ([]models.SearchResult, error)
}
