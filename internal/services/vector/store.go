// Package vector maintains the embedding index and answers similarity
// queries. Embeddings live on the dataset records themselves; similarity
// is computed in process over the embedded set.
package vector

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/interfaces"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// Store implements the VectorStore interface over an EmbeddingStore and an
// embedding backend.
type Store struct {
	store     interfaces.EmbeddingStore
	embedder  interfaces.EmbeddingService
	batchSize int
	logger    arbor.ILogger
}

// NewStore creates a vector store. batchSize bounds how many texts are
// embedded per round trip.
func NewStore(store interfaces.EmbeddingStore, embedder interfaces.EmbeddingService, batchSize int, logger arbor.ILogger) *Store {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &Store{
		store:     store,
		embedder:  embedder,
		batchSize: batchSize,
		logger:    logger,
	}
}

// AddDatasets embeds and indexes datasets in batches. Unless reindex is
// set, datasets already carrying an embedding are skipped. A failed embed
// call fails its whole batch; store failures fail individual ids.
func (s *Store) AddDatasets(ctx context.Context, datasets []*models.Dataset, reindex bool) (*models.IndexingResult, error) {
	start := time.Now()
	result := &models.IndexingResult{
		Failed: make(map[string]string),
	}

	pending := make([]*models.Dataset, 0, len(datasets))
	for _, ds := range datasets {
		if !reindex && len(ds.Embedding) > 0 {
			result.Skipped = append(result.Skipped, ds.Identifier)
			continue
		}
		pending = append(pending, ds)
	}

	for batchStart := 0; batchStart < len(pending); batchStart += s.batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		batchEnd := batchStart + s.batchSize
		if batchEnd > len(pending) {
			batchEnd = len(pending)
		}
		batch := pending[batchStart:batchEnd]

		texts := make([]string, len(batch))
		for i, ds := range batch {
			texts[i] = ds.EmbedText()
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			s.logger.Warn().Int("batch_size", len(batch)).Err(err).Msg("Embedding batch failed")
			for _, ds := range batch {
				result.Failed[ds.Identifier] = err.Error()
			}
			continue
		}

		for i, ds := range batch {
			if err := s.store.UpdateEmbedding(ctx, ds.Identifier, vectors[i], s.embedder.ModelName()); err != nil {
				result.Failed[ds.Identifier] = err.Error()
				continue
			}
			ds.Embedding = vectors[i]
			ds.EmbeddingModel = s.embedder.ModelName()
			result.Indexed = append(result.Indexed, ds.Identifier)
		}
	}

	result.Duration = time.Since(start)
	s.logger.Info().
		Int("indexed", len(result.Indexed)).
		Int("skipped", len(result.Skipped)).
		Int("failed", len(result.Failed)).
		Dur("duration", result.Duration).
		Msg("Vector indexing completed")
	return result, nil
}

// Search embeds the query once and ranks the embedded datasets by cosine
// similarity, best first. Results below minScore are dropped.
func (s *Store) Search(ctx context.Context, query string, limit int, minScore float64) ([]models.VectorHit, error) {
	if limit <= 0 {
		limit = 1
	}

	queryVec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	embedded, err := s.store.GetEmbedded(ctx)
	if err != nil {
		return nil, err
	}

	// Score a wider candidate pool, then cut to the requested limit.
	candidateLimit := limit * 10

	hits := make([]models.VectorHit, 0, len(embedded))
	for _, ds := range embedded {
		score := cosineSimilarity(queryVec, ds.Embedding)
		if score < minScore {
			continue
		}
		hits = append(hits, models.VectorHit{Dataset: ds, Score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > candidateLimit {
		hits = hits[:candidateLimit]
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// GetIndexedIDs lists identifiers that currently carry an embedding
func (s *Store) GetIndexedIDs(ctx context.Context) ([]string, error) {
	embedded, err := s.store.GetEmbedded(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(embedded))
	for i, ds := range embedded {
		ids[i] = ds.Identifier
	}
	return ids, nil
}

// GetStats summarises index size and model
func (s *Store) GetStats(ctx context.Context) (*models.VectorStats, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	indexed, err := s.GetIndexedIDs(ctx)
	if err != nil {
		return nil, err
	}
	return &models.VectorStats{
		IndexedCount: len(indexed),
		TotalCount:   total,
		ModelName:    s.embedder.ModelName(),
		Dimensions:   s.embedder.Dimensions(),
	}, nil
}

// Clear unsets every stored embedding
func (s *Store) Clear(ctx context.Context) error {
	return s.store.ClearEmbeddings(ctx)
}

// IsAvailable reports whether the embedding backend can be reached.
func (s *Store) IsAvailable(ctx context.Context) bool {
	return s.embedder.IsAvailable(ctx)
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched dimensions or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ interfaces.VectorStore = (*Store)(nil)
