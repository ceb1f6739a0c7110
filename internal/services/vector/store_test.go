package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/interfaces"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

type fakeEmbedder struct {
	vectors    map[string][]float32
	batchErr   error
	queryErr   error
	batchCalls int
	down       bool
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.vectors[text], nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.batchCalls++
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = f.vectors[text]
	}
	return out, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

func (f *fakeEmbedder) Dimensions() int { return 3 }

func (f *fakeEmbedder) IsAvailable(ctx context.Context) bool { return !f.down }

type fakeEmbeddingStore struct {
	embedded   []*models.Dataset
	total      int
	updateErrs map[string]error
	updates    []string
}

func (f *fakeEmbeddingStore) GetMissingEmbeddings(ctx context.Context) ([]*models.Dataset, error) {
	return nil, nil
}

func (f *fakeEmbeddingStore) GetEmbedded(ctx context.Context) ([]*models.Dataset, error) {
	return f.embedded, nil
}

func (f *fakeEmbeddingStore) UpdateEmbedding(ctx context.Context, id string, embedding []float32, model string) error {
	if err := f.updateErrs[id]; err != nil {
		return err
	}
	f.updates = append(f.updates, id)
	return nil
}

func (f *fakeEmbeddingStore) ClearEmbeddings(ctx context.Context) error { return nil }

func (f *fakeEmbeddingStore) Count(ctx context.Context) (int, error) { return f.total, nil }

var (
	_ interfaces.EmbeddingService = (*fakeEmbedder)(nil)
	_ interfaces.EmbeddingStore   = (*fakeEmbeddingStore)(nil)
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"scaled parallel", []float32{1, 1}, []float32{5, 5}, 1.0},
		{"mismatched lengths", []float32{1, 2}, []float32{1, 2, 3}, 0.0},
		{"empty", nil, nil, 0.0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, cosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func embeddableDataset(id, title string) *models.Dataset {
	return &models.Dataset{Identifier: id, Title: title}
}

func TestAddDatasetsSkipsEmbedded(t *testing.T) {
	store := &fakeEmbeddingStore{}
	embedder := &fakeEmbedder{vectors: map[string][]float32{}}
	fresh := embeddableDataset("fresh", "Fresh")
	done := embeddableDataset("done", "Done")
	done.Embedding = []float32{0.1}
	embedder.vectors[fresh.EmbedText()] = []float32{1, 0, 0}

	s := NewStore(store, embedder, 10, arbor.NewLogger())
	result, err := s.AddDatasets(context.Background(), []*models.Dataset{fresh, done}, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"fresh"}, result.Indexed)
	assert.Equal(t, []string{"done"}, result.Skipped)
	assert.Empty(t, result.Failed)
	assert.Equal(t, []string{"fresh"}, store.updates)

	// The in-memory record now carries the vector and model.
	assert.Equal(t, []float32{1, 0, 0}, fresh.Embedding)
	assert.Equal(t, "fake-embed", fresh.EmbeddingModel)
}

func TestAddDatasetsReindexReembedsEverything(t *testing.T) {
	store := &fakeEmbeddingStore{}
	done := embeddableDataset("done", "Done")
	done.Embedding = []float32{0.1}
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		done.EmbedText(): {0, 1, 0},
	}}

	s := NewStore(store, embedder, 10, arbor.NewLogger())
	result, err := s.AddDatasets(context.Background(), []*models.Dataset{done}, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"done"}, result.Indexed)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, []float32{0, 1, 0}, done.Embedding)
}

func TestAddDatasetsBatching(t *testing.T) {
	store := &fakeEmbeddingStore{}
	embedder := &fakeEmbedder{vectors: map[string][]float32{}}
	var datasets []*models.Dataset
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		ds := embeddableDataset(id, id)
		embedder.vectors[ds.EmbedText()] = []float32{1}
		datasets = append(datasets, ds)
	}

	s := NewStore(store, embedder, 2, arbor.NewLogger())
	result, err := s.AddDatasets(context.Background(), datasets, false)
	require.NoError(t, err)

	assert.Len(t, result.Indexed, 5)
	assert.Equal(t, 3, embedder.batchCalls)
}

func TestAddDatasetsEmbedFailureFailsWholeBatch(t *testing.T) {
	store := &fakeEmbeddingStore{}
	embedder := &fakeEmbedder{batchErr: errors.New("model not loaded")}
	datasets := []*models.Dataset{
		embeddableDataset("a", "A"),
		embeddableDataset("b", "B"),
	}

	s := NewStore(store, embedder, 10, arbor.NewLogger())
	result, err := s.AddDatasets(context.Background(), datasets, false)
	require.NoError(t, err)

	assert.Empty(t, result.Indexed)
	assert.Len(t, result.Failed, 2)
	assert.Contains(t, result.Failed["a"], "model not loaded")
}

func TestAddDatasetsStoreFailureFailsSingleID(t *testing.T) {
	store := &fakeEmbeddingStore{updateErrs: map[string]error{
		"bad": errors.New("write conflict"),
	}}
	embedder := &fakeEmbedder{vectors: map[string][]float32{}}
	good := embeddableDataset("good", "Good")
	bad := embeddableDataset("bad", "Bad")
	embedder.vectors[good.EmbedText()] = []float32{1}
	embedder.vectors[bad.EmbedText()] = []float32{1}

	s := NewStore(store, embedder, 10, arbor.NewLogger())
	result, err := s.AddDatasets(context.Background(), []*models.Dataset{good, bad}, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"good"}, result.Indexed)
	assert.Equal(t, map[string]string{"bad": "write conflict"}, result.Failed)
}

func TestSearchRanksAndFilters(t *testing.T) {
	near := embeddableDataset("near", "Near")
	near.Embedding = []float32{1, 0}
	mid := embeddableDataset("mid", "Mid")
	mid.Embedding = []float32{1, 1}
	far := embeddableDataset("far", "Far")
	far.Embedding = []float32{0, 1}

	store := &fakeEmbeddingStore{embedded: []*models.Dataset{far, near, mid}}
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"query": {1, 0},
	}}

	s := NewStore(store, embedder, 10, arbor.NewLogger())
	hits, err := s.Search(context.Background(), "query", 10, 0.5)
	require.NoError(t, err)

	// far scores 0 and falls under the floor; the rest rank by similarity.
	require.Len(t, hits, 2)
	assert.Equal(t, "near", hits[0].Dataset.Identifier)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, "mid", hits[1].Dataset.Identifier)
	assert.InDelta(t, 0.7071, hits[1].Score, 1e-3)
}

func TestSearchHonoursLimit(t *testing.T) {
	var embedded []*models.Dataset
	for _, id := range []string{"a", "b", "c"} {
		ds := embeddableDataset(id, id)
		ds.Embedding = []float32{1, 0}
		embedded = append(embedded, ds)
	}
	store := &fakeEmbeddingStore{embedded: embedded}
	embedder := &fakeEmbedder{vectors: map[string][]float32{"query": {1, 0}}}

	s := NewStore(store, embedder, 10, arbor.NewLogger())
	hits, err := s.Search(context.Background(), "query", 2, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestSearchEmbedErrorPropagates(t *testing.T) {
	store := &fakeEmbeddingStore{}
	embedder := &fakeEmbedder{queryErr: errors.New("backend down")}

	s := NewStore(store, embedder, 10, arbor.NewLogger())
	_, err := s.Search(context.Background(), "query", 5, 0)
	require.Error(t, err)
}

func TestGetStats(t *testing.T) {
	indexed := embeddableDataset("a", "A")
	indexed.Embedding = []float32{1}
	store := &fakeEmbeddingStore{embedded: []*models.Dataset{indexed}, total: 4}
	embedder := &fakeEmbedder{}

	s := NewStore(store, embedder, 10, arbor.NewLogger())
	stats, err := s.GetStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.IndexedCount)
	assert.Equal(t, 4, stats.TotalCount)
	assert.Equal(t, "fake-embed", stats.ModelName)
	assert.Equal(t, 3, stats.Dimensions)
}

func TestIsAvailable(t *testing.T) {
	s := NewStore(&fakeEmbeddingStore{}, &fakeEmbedder{down: true}, 10, arbor.NewLogger())
	assert.False(t, s.IsAvailable(context.Background()))
}
