package models

import "time"

// QueryType is the coarse classification of a search query that selects
// the search path.
type QueryType string

const (
	QueryTypeExactID    QueryType = "exact_id"
	QueryTypeExactTitle QueryType = "exact_title"
	QueryTypeShort      QueryType = "short"
	QueryTypeNormal     QueryType = "normal"
)

// SearchMode names the retrieval strategy used for a search.
type SearchMode string

const (
	SearchModeHybrid   SearchMode = "hybrid"
	SearchModeSemantic SearchMode = "semantic"
	SearchModeKeyword  SearchMode = "keyword"
)

// SearchResult is one scored entry in a search response. HybridScore is an
// ordering key only; its magnitude is not interpretable as a probability.
type SearchResult struct {
	Identifier   string      `json:"identifier"`
	Title        string      `json:"title"`
	Abstract     string      `json:"abstract,omitempty"`
	Keywords     []string    `json:"keywords,omitempty"`
	AccessLevel  AccessLevel `json:"access_level"`
	HybridScore  float64     `json:"score"`
	FromSemantic bool        `json:"from_semantic"`
	FromKeyword  bool        `json:"from_keyword"`
	SemanticRank int         `json:"semantic_rank,omitempty"`
	KeywordRank  int         `json:"keyword_rank,omitempty"`
	IsExactMatch bool        `json:"is_exact_match,omitempty"`
}

// QueryAnalysis is produced by the advanced pipeline's query understanding
// step.
type QueryAnalysis struct {
	HasTemporalIntent bool     `json:"has_temporal_intent"`
	HasSpatialIntent  bool     `json:"has_spatial_intent"`
	ExpandedTerms     []string `json:"expanded_terms,omitempty"`
}

// SearchResponse is the inbound search contract consumed by the HTTP
// boundary.
type SearchResponse struct {
	Query           string         `json:"query"`
	Results         []SearchResult `json:"results"`
	Total           int            `json:"total"`
	Mode            SearchMode     `json:"mode"`
	QueryType       QueryType      `json:"query_type"`
	SemanticResults int            `json:"semantic_results"`
	KeywordResults  int            `json:"keyword_results"`
	Duration        time.Duration  `json:"duration_ms"`
	QueryAnalysis   *QueryAnalysis `json:"query_analysis,omitempty"`
	ExpandedQuery   string         `json:"expanded_query,omitempty"`
}

// VectorHit is a scored candidate from the vector store.
type VectorHit struct {
	Dataset *Dataset
	Score   float64
}

// PagedDatasets is one page of a repository listing.
type PagedDatasets struct {
	Items    []*Dataset `json:"items"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

// VectorStats summarises the embedding index.
type VectorStats struct {
	IndexedCount int    `json:"indexed_count"`
	TotalCount   int    `json:"total_count"`
	ModelName    string `json:"model_name,omitempty"`
	Dimensions   int    `json:"dimensions,omitempty"`
}

// SearchHistoryEntry records one executed search for reporting.
type SearchHistoryEntry struct {
	ID          string        `json:"id" badgerhold:"key"`
	Query       string        `json:"query"`
	QueryType   QueryType     `json:"query_type"`
	Mode        SearchMode    `json:"mode"`
	ResultCount int           `json:"result_count"`
	Duration    time.Duration `json:"duration_ms"`
	At          time.Time     `json:"at"`
}

// RAGSource is one retrieved document cited in a RAG answer.
type RAGSource struct {
	Identifier     string  `json:"id"`
	Title          string  `json:"title"`
	RelevanceScore float64 `json:"relevance_score"`
}

// RAGResponse is the outcome of a retrieval-augmented answer.
type RAGResponse struct {
	Question  string      `json:"question"`
	Answer    string      `json:"answer"`
	Sources   []RAGSource `json:"sources,omitempty"`
	Generated bool        `json:"generated"`
	Model     string      `json:"model,omitempty"`
	Intent    string      `json:"intent"`
}
