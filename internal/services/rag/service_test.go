package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/common"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/interfaces"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/services/guardrails"
)

type fakeVector struct {
	hits        []models.VectorHit
	err         error
	searchCalls int
}

func (f *fakeVector) AddDatasets(ctx context.Context, datasets []*models.Dataset, reindex bool) (*models.IndexingResult, error) {
	return &models.IndexingResult{}, nil
}

func (f *fakeVector) Search(ctx context.Context, query string, limit int, minScore float64) ([]models.VectorHit, error) {
	f.searchCalls++
	return f.hits, f.err
}

func (f *fakeVector) GetIndexedIDs(ctx context.Context) ([]string, error) { return nil, nil }

func (f *fakeVector) GetStats(ctx context.Context) (*models.VectorStats, error) {
	return &models.VectorStats{}, nil
}

func (f *fakeVector) Clear(ctx context.Context) error { return nil }

type fakeGenerator struct {
	answer string
	err    error
	down   bool
	prompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.answer, f.err
}

func (f *fakeGenerator) ModelName() string { return "fake-llm" }

func (f *fakeGenerator) IsAvailable(ctx context.Context) bool { return !f.down }

var (
	_ interfaces.VectorStore = (*fakeVector)(nil)
	_ interfaces.Generator   = (*fakeGenerator)(nil)
)

func testRAGConfig() *common.RAGConfig {
	return &common.RAGConfig{TopK: 5, MinRelevance: 0.3, MaxContextChars: 12000}
}

func hit(id, title string, score float64) models.VectorHit {
	return models.VectorHit{
		Dataset: &models.Dataset{
			Identifier:  id,
			Title:       title,
			AccessLevel: models.AccessLevelPublic,
		},
		Score: score,
	}
}

func TestAskAnswersNonSearchIntentsWithoutRetrieval(t *testing.T) {
	vector := &fakeVector{}
	svc := NewService(vector, nil, testRAGConfig(), arbor.NewLogger())

	resp, err := svc.Ask(context.Background(), "hello", guardrails.RoleAnonymous)
	require.NoError(t, err)

	assert.Equal(t, string(IntentGreeting), resp.Intent)
	assert.Equal(t, CannedResponse(IntentGreeting), resp.Answer)
	assert.Empty(t, resp.Sources)
	assert.False(t, resp.Generated)
	assert.Equal(t, 0, vector.searchCalls)
}

func TestAskNoResults(t *testing.T) {
	svc := NewService(&fakeVector{}, nil, testRAGConfig(), arbor.NewLogger())

	resp, err := svc.Ask(context.Background(), "obscure dataset nobody has", guardrails.RoleAnonymous)
	require.NoError(t, err)

	assert.Equal(t, noResultsAnswer, resp.Answer)
	assert.Empty(t, resp.Sources)
}

func TestAskRetrievalErrorPropagates(t *testing.T) {
	vector := &fakeVector{err: errors.New("index unavailable")}
	svc := NewService(vector, nil, testRAGConfig(), arbor.NewLogger())

	_, err := svc.Ask(context.Background(), "what rainfall data exists", guardrails.RoleAnonymous)
	require.Error(t, err)
}

func TestAskFallsBackWithoutGenerator(t *testing.T) {
	vector := &fakeVector{hits: []models.VectorHit{
		hit("a", "Daily Rainfall Gauge Series", 0.92),
		hit("b", "Catchment Precipitation Summaries", 0.81),
	}}
	svc := NewService(vector, nil, testRAGConfig(), arbor.NewLogger())

	resp, err := svc.Ask(context.Background(), "what rainfall data exists", guardrails.RoleAnonymous)
	require.NoError(t, err)

	assert.False(t, resp.Generated)
	assert.Empty(t, resp.Model)
	assert.Contains(t, resp.Answer, "Found 2 relevant datasets:")
	assert.Contains(t, resp.Answer, "1. Daily Rainfall Gauge Series (Relevance: 92%)")

	require.Len(t, resp.Sources, 2)
	assert.Equal(t, "a", resp.Sources[0].Identifier)
	assert.Equal(t, "Daily Rainfall Gauge Series", resp.Sources[0].Title)
	assert.InDelta(t, 0.92, resp.Sources[0].RelevanceScore, 1e-9)
}

func TestAskFallsBackWhenGeneratorDown(t *testing.T) {
	vector := &fakeVector{hits: []models.VectorHit{hit("a", "A", 0.9)}}
	generator := &fakeGenerator{down: true}
	svc := NewService(vector, generator, testRAGConfig(), arbor.NewLogger())

	resp, err := svc.Ask(context.Background(), "what rainfall data exists", guardrails.RoleAnonymous)
	require.NoError(t, err)

	assert.False(t, resp.Generated)
	assert.Contains(t, resp.Answer, "Found 1 relevant datasets:")
}

func TestAskFallsBackOnGenerationFailure(t *testing.T) {
	vector := &fakeVector{hits: []models.VectorHit{hit("a", "A", 0.9)}}
	generator := &fakeGenerator{err: errors.New("model crashed")}
	svc := NewService(vector, generator, testRAGConfig(), arbor.NewLogger())

	resp, err := svc.Ask(context.Background(), "what rainfall data exists", guardrails.RoleAnonymous)
	require.NoError(t, err)

	assert.False(t, resp.Generated)
	assert.Empty(t, resp.Model)
	assert.Contains(t, resp.Answer, "Found 1 relevant datasets:")
}

func TestAskGeneratesGroundedAnswer(t *testing.T) {
	vector := &fakeVector{hits: []models.VectorHit{
		hit("a", "Daily Rainfall Gauge Series", 0.92),
	}}
	generator := &fakeGenerator{answer: "The catalogue holds daily rainfall gauge data [Dataset 1]."}
	svc := NewService(vector, generator, testRAGConfig(), arbor.NewLogger())

	resp, err := svc.Ask(context.Background(), "what rainfall data exists", guardrails.RoleAnonymous)
	require.NoError(t, err)

	assert.True(t, resp.Generated)
	assert.Equal(t, "fake-llm", resp.Model)
	assert.Equal(t, "The catalogue holds daily rainfall gauge data [Dataset 1].", resp.Answer)

	// The prompt carries the rendered context and the question.
	assert.Contains(t, generator.prompt, "--- DATASET 1 (Relevance: 92%) ---")
	assert.Contains(t, generator.prompt, "Title: Daily Rainfall Gauge Series")
	assert.Contains(t, generator.prompt, "Question: what rainfall data exists")
}

func TestAskFiltersSourcesByRole(t *testing.T) {
	restricted := hit("res", "Restricted Series", 0.95)
	restricted.Dataset.AccessLevel = models.AccessLevelRestricted
	open := hit("pub", "Public Series", 0.85)

	vector := &fakeVector{hits: []models.VectorHit{restricted, open}}
	svc := NewService(vector, nil, testRAGConfig(), arbor.NewLogger())

	resp, err := svc.Ask(context.Background(), "what series data exists", guardrails.RoleAnonymous)
	require.NoError(t, err)

	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "pub", resp.Sources[0].Identifier)
	assert.NotContains(t, resp.Answer, "Restricted Series")
}

func TestAskRedactsPII(t *testing.T) {
	vector := &fakeVector{hits: []models.VectorHit{hit("a", "A", 0.9)}}
	generator := &fakeGenerator{answer: "Contact curator@example.org for the archive."}
	svc := NewService(vector, generator, testRAGConfig(), arbor.NewLogger())

	resp, err := svc.Ask(context.Background(), "who curates the archive data", guardrails.RoleAnonymous)
	require.NoError(t, err)

	assert.Equal(t, "Contact [EMAIL REDACTED] for the archive.", resp.Answer)
}

func TestBuildContextBudget(t *testing.T) {
	hits := []models.VectorHit{
		hit("a", "First", 0.9),
		hit("b", "Second", 0.8),
		hit("c", "Third", 0.7),
	}
	hits[1].Dataset.Abstract = strings.Repeat("x", 500)

	full := buildContext(hits, 0)
	assert.Contains(t, full, "--- DATASET 1 (Relevance: 90%) ---")
	assert.Contains(t, full, "--- DATASET 3 (Relevance: 70%) ---")

	// The oversized second block stops the assembly; later datasets are
	// dropped even though they would fit.
	tight := buildContext(hits, 100)
	assert.Contains(t, tight, "Title: First")
	assert.NotContains(t, tight, "Title: Second")
	assert.NotContains(t, tight, "Title: Third")
}

func TestBuildContextIncludesKeywords(t *testing.T) {
	h := hit("a", "Moth Trap Counts", 0.88)
	h.Dataset.Abstract = "Nightly light-trap counts."
	h.Dataset.Keywords = []string{"moths", "invertebrates"}

	block := buildContext([]models.VectorHit{h}, 0)
	assert.Contains(t, block, "Abstract: Nightly light-trap counts.")
	assert.Contains(t, block, "Keywords: moths, invertebrates")
}
