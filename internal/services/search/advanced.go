package search

import (
	"context"
	"sort"
	"strings"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// applyAdvanced layers query understanding, field-weighted rescoring, and
// optional reranking over the fused results. Every step degrades silently
// to the order it received.
func (s *Service) applyAdvanced(ctx context.Context, query string, results []models.SearchResult, response *models.SearchResponse) []models.SearchResult {
	analysis, expanded := AnalyzeQuery(query)
	response.QueryAnalysis = &analysis
	if expanded != query {
		response.ExpandedQuery = expanded
	}

	rescoreByField(results, expanded, s.config.Advanced.TitleWeight, s.config.Advanced.KeywordWeight)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].HybridScore > results[j].HybridScore
	})

	if s.reranker != nil {
		results = s.rerankTop(ctx, query, results)
	}
	return results
}

// rescoreByField boosts title and keyword matches: exact title adds the
// full title weight, a substring match half of it, and an exact keyword
// match the keyword weight.
func rescoreByField(results []models.SearchResult, query string, titleWeight, keywordWeight float64) {
	queryLower := strings.ToLower(query)
	for i := range results {
		r := &results[i]
		titleLower := strings.ToLower(r.Title)

		if titleLower == queryLower {
			r.HybridScore += titleWeight
		} else if strings.Contains(titleLower, queryLower) {
			r.HybridScore += titleWeight * 0.5
		}

		for _, kw := range r.Keywords {
			if strings.ToLower(kw) == queryLower {
				r.HybridScore += keywordWeight
				break
			}
		}
	}
}

// rerankTop passes the leading results through the reranker; everything
// beyond the configured window keeps its position. A reranker failure
// leaves the input order untouched.
func (s *Service) rerankTop(ctx context.Context, query string, results []models.SearchResult) []models.SearchResult {
	topN := s.config.Advanced.RerankTopN
	if topN <= 0 {
		topN = 10
	}
	if topN > len(results) {
		topN = len(results)
	}
	if topN == 0 {
		return results
	}

	head := make([]models.SearchResult, topN)
	copy(head, results[:topN])

	reranked, err := s.reranker.Rerank(ctx, query, head)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Reranker unavailable, keeping fused order")
		return results
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].HybridScore > reranked[j].HybridScore
	})
	return append(reranked, results[topN:]...)
}
