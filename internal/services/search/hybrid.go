// Package search combines keyword and semantic retrieval with Reciprocal
// Rank Fusion, exact-match boosting, and an optional advanced overlay.
package search

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/common"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/interfaces"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// Service implements hybrid search over a repository and a vector store.
type Service struct {
	repo     interfaces.DatasetRepository
	vector   interfaces.VectorStore
	history  interfaces.SearchHistoryStore
	reranker interfaces.Reranker
	config   *common.SearchConfig
	logger   arbor.ILogger
}

// NewService creates the search service. vector may be nil when no
// embedding backend exists; history and reranker are optional.
func NewService(repo interfaces.DatasetRepository, vector interfaces.VectorStore, config *common.SearchConfig, logger arbor.ILogger) *Service {
	return &Service{
		repo:   repo,
		vector: vector,
		config: config,
		logger: logger,
	}
}

// WithHistory records executed searches to the given store.
func (s *Service) WithHistory(history interfaces.SearchHistoryStore) *Service {
	s.history = history
	return s
}

// WithReranker applies the reranker to the top results when the advanced
// overlay runs.
func (s *Service) WithReranker(reranker interfaces.Reranker) *Service {
	s.reranker = reranker
	return s
}

// Analyze classifies a query without executing it.
func (s *Service) Analyze(query string) models.QueryAnalysis {
	analysis, _ := AnalyzeQuery(query)
	return analysis
}

// Search runs the full query pipeline. Exact-ID queries short-circuit to a
// repository lookup and never touch the vector store.
func (s *Service) Search(ctx context.Context, query string, opts interfaces.SearchOptions) (*models.SearchResponse, error) {
	start := time.Now()
	query = strings.TrimSpace(query)
	queryType := DetectQueryType(query)

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	var (
		response *models.SearchResponse
		err      error
	)
	switch queryType {
	case models.QueryTypeExactID:
		response, err = s.exactIDSearch(ctx, query)
	case models.QueryTypeExactTitle:
		response, err = s.exactTitleSearch(ctx, stripQuotes(query), limit)
	default:
		response, err = s.rankedSearch(ctx, query, queryType, limit, opts)
	}
	if err != nil {
		return nil, err
	}

	if len(opts.AccessLevels) > 0 {
		response.Results = filterByAccess(response.Results, opts.AccessLevels)
	}
	response.Total = len(response.Results)
	response.Duration = time.Since(start)

	s.recordHistory(ctx, response)
	return response, nil
}

func (s *Service) exactIDSearch(ctx context.Context, datasetID string) (*models.SearchResponse, error) {
	response := &models.SearchResponse{
		Query:     datasetID,
		QueryType: models.QueryTypeExactID,
		Mode:      models.SearchModeKeyword,
		Results:   []models.SearchResult{},
	}

	ds, err := s.repo.Get(ctx, datasetID)
	if err != nil {
		// Absent id yields an empty result set, not an error.
		if models.KindOf(err) == models.ErrKindStore {
			return response, nil
		}
		return nil, err
	}

	response.Results = []models.SearchResult{{
		Identifier:   ds.Identifier,
		Title:        ds.Title,
		Abstract:     ds.Abstract,
		Keywords:     ds.Keywords,
		AccessLevel:  ds.AccessLevel,
		HybridScore:  1.0,
		FromKeyword:  true,
		IsExactMatch: true,
	}}
	response.KeywordResults = 1
	return response, nil
}

func (s *Service) exactTitleSearch(ctx context.Context, title string, limit int) (*models.SearchResponse, error) {
	datasets, err := s.repo.Search(ctx, title, limit)
	if err != nil {
		return nil, err
	}

	titleLower := strings.ToLower(title)
	results := make([]models.SearchResult, 0, len(datasets))
	for i, ds := range datasets {
		isExact := strings.Contains(strings.ToLower(ds.Title), titleLower)
		score := 0.5
		if isExact {
			score = 1.0
		}
		results = append(results, models.SearchResult{
			Identifier:   ds.Identifier,
			Title:        ds.Title,
			Abstract:     ds.Abstract,
			Keywords:     ds.Keywords,
			AccessLevel:  ds.AccessLevel,
			HybridScore:  score,
			FromKeyword:  true,
			KeywordRank:  i + 1,
			IsExactMatch: isExact,
		})
	}

	return &models.SearchResponse{
		Query:          title,
		QueryType:      models.QueryTypeExactTitle,
		Mode:           models.SearchModeKeyword,
		Results:        results,
		KeywordResults: len(datasets),
	}, nil
}

func (s *Service) rankedSearch(ctx context.Context, query string, queryType models.QueryType, limit int, opts interfaces.SearchOptions) (*models.SearchResponse, error) {
	mode := s.resolveMode(ctx, opts.Mode)

	semanticWeight := s.config.SemanticWeight
	keywordWeight := s.config.KeywordWeight
	if queryType == models.QueryTypeShort {
		// Short queries lean on exact terms.
		keywordWeight *= 1.5
	}

	var (
		wg           sync.WaitGroup
		semanticHits []models.VectorHit
		keywordHits  []*models.Dataset
		semanticErr  error
		keywordErr   error
	)

	if mode != models.SearchModeKeyword {
		wg.Add(1)
		go func() {
			defer wg.Done()
			semanticHits, semanticErr = s.vector.Search(ctx, query, s.config.SemanticLimit, s.config.MinScore)
		}()
	}
	if mode != models.SearchModeSemantic {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keywordHits, keywordErr = s.repo.Search(ctx, query, s.config.KeywordLimit)
		}()
	}
	wg.Wait()

	if keywordErr != nil {
		return nil, keywordErr
	}
	if semanticErr != nil {
		// The keyword side still answers; log and degrade.
		s.logger.Warn().Err(semanticErr).Msg("Semantic search failed, degrading to keyword results")
		mode = models.SearchModeKeyword
		semanticHits = nil
	}

	merged := mergeRRF(semanticHits, keywordHits, semanticWeight, keywordWeight, s.config.RRFK)
	boostExactMatches(merged, query, s.config.ExactBoost)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].HybridScore > merged[j].HybridScore
	})

	response := &models.SearchResponse{
		Query:           query,
		QueryType:       queryType,
		Mode:            mode,
		SemanticResults: len(semanticHits),
		KeywordResults:  len(keywordHits),
	}

	if opts.Advanced {
		merged = s.applyAdvanced(ctx, query, merged, response)
	}

	if len(merged) > limit {
		merged = merged[:limit]
	}
	response.Results = merged
	return response, nil
}

// resolveMode picks the retrieval strategy: an explicit request wins, and
// hybrid or semantic degrade to keyword when no vector backend answers.
func (s *Service) resolveMode(ctx context.Context, requested models.SearchMode) models.SearchMode {
	vectorUp := s.vector != nil && s.vectorAvailable(ctx)

	switch requested {
	case models.SearchModeKeyword:
		return models.SearchModeKeyword
	case models.SearchModeSemantic:
		if vectorUp {
			return models.SearchModeSemantic
		}
		return models.SearchModeKeyword
	default:
		if vectorUp {
			return models.SearchModeHybrid
		}
		return models.SearchModeKeyword
	}
}

type availabilityChecker interface {
	IsAvailable(ctx context.Context) bool
}

func (s *Service) vectorAvailable(ctx context.Context) bool {
	if checker, ok := s.vector.(availabilityChecker); ok {
		return checker.IsAvailable(ctx)
	}
	return true
}

// mergeRRF fuses the two ranked lists: each source contributes
// weight / (k + rank) per document, ranks 1-indexed.
func mergeRRF(semantic []models.VectorHit, keyword []*models.Dataset, semanticWeight, keywordWeight float64, k int) []models.SearchResult {
	if k <= 0 {
		k = 60
	}

	order := make([]string, 0, len(semantic)+len(keyword))
	scores := make(map[string]*models.SearchResult, len(semantic)+len(keyword))

	ensure := func(ds *models.Dataset) *models.SearchResult {
		if r, ok := scores[ds.Identifier]; ok {
			return r
		}
		r := &models.SearchResult{
			Identifier:  ds.Identifier,
			Title:       ds.Title,
			Abstract:    ds.Abstract,
			Keywords:    ds.Keywords,
			AccessLevel: ds.AccessLevel,
		}
		scores[ds.Identifier] = r
		order = append(order, ds.Identifier)
		return r
	}

	for i, hit := range semantic {
		rank := i + 1
		r := ensure(hit.Dataset)
		r.HybridScore += semanticWeight / float64(k+rank)
		r.SemanticRank = rank
		r.FromSemantic = true
	}

	for i, ds := range keyword {
		rank := i + 1
		r := ensure(ds)
		r.HybridScore += keywordWeight / float64(k+rank)
		r.KeywordRank = rank
		r.FromKeyword = true
		// The repository record is authoritative for access level.
		r.AccessLevel = ds.AccessLevel
	}

	merged := make([]models.SearchResult, 0, len(order))
	for _, id := range order {
		merged = append(merged, *scores[id])
	}
	return merged
}

// boostExactMatches adds the configured boost for exact title equality,
// half for a title substring match, and 0.3x for an exact keyword match.
func boostExactMatches(results []models.SearchResult, query string, boost float64) {
	queryLower := strings.ToLower(query)
	for i := range results {
		r := &results[i]
		titleLower := strings.ToLower(r.Title)

		if titleLower == queryLower {
			r.HybridScore += boost
			r.IsExactMatch = true
		} else if strings.Contains(titleLower, queryLower) {
			r.HybridScore += boost * 0.5
		}

		for _, kw := range r.Keywords {
			if strings.EqualFold(kw, queryLower) {
				r.HybridScore += boost * 0.3
				break
			}
		}
	}
}

func filterByAccess(results []models.SearchResult, allowed []models.AccessLevel) []models.SearchResult {
	allowedSet := make(map[models.AccessLevel]struct{}, len(allowed))
	for _, level := range allowed {
		allowedSet[level] = struct{}{}
	}

	filtered := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		level := r.AccessLevel
		if level == "" {
			level = models.AccessLevelPublic
		}
		if _, ok := allowedSet[level]; ok {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func (s *Service) recordHistory(ctx context.Context, response *models.SearchResponse) {
	if s.history == nil {
		return
	}
	entry := &models.SearchHistoryEntry{
		Query:       response.Query,
		QueryType:   response.QueryType,
		Mode:        response.Mode,
		ResultCount: response.Total,
		Duration:    response.Duration,
	}
	if err := s.history.Record(ctx, entry); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to record search history")
	}
}

var _ interfaces.SearchService = (*Service)(nil)
