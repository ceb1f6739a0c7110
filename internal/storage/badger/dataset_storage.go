package badger

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/interfaces"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// DatasetStorage implements the DatasetRepository and EmbeddingStore
// interfaces for Badger.
type DatasetStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewDatasetStorage creates a new DatasetStorage instance
func NewDatasetStorage(db *BadgerDB, logger arbor.ILogger) *DatasetStorage {
	return &DatasetStorage{
		db:     db,
		logger: logger,
	}
}

func (s *DatasetStorage) Get(ctx context.Context, identifier string) (*models.Dataset, error) {
	var ds models.Dataset
	if err := s.db.Store().Get(identifier, &ds); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.NewStoreError(fmt.Sprintf("dataset not found: %s", identifier), err)
		}
		return nil, models.NewStoreError("failed to get dataset", err)
	}
	return &ds, nil
}

func (s *DatasetStorage) Exists(ctx context.Context, identifier string) (bool, error) {
	var ds models.Dataset
	err := s.db.Store().Get(identifier, &ds)
	if err == badgerhold.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, models.NewStoreError("failed to check dataset", err)
	}
	return true, nil
}

// Save upserts one dataset. The raw source document is dropped before
// persistence; it can always be refetched from the cache.
func (s *DatasetStorage) Save(ctx context.Context, dataset *models.Dataset) error {
	if dataset.Identifier == "" {
		return models.NewValidationError("dataset identifier is required")
	}

	now := time.Now()
	if dataset.CreatedAt.IsZero() {
		if existing, err := s.Get(ctx, dataset.Identifier); err == nil {
			dataset.CreatedAt = existing.CreatedAt
		} else {
			dataset.CreatedAt = now
		}
	}
	dataset.UpdatedAt = now

	stored := *dataset
	stored.RawDocument = ""

	if err := s.db.Store().Upsert(stored.Identifier, &stored); err != nil {
		return models.NewStoreError("failed to save dataset", err)
	}
	return nil
}

// SaveMany upserts a batch. Failures are collected per identifier so one
// bad record cannot sink the batch.
func (s *DatasetStorage) SaveMany(ctx context.Context, datasets []*models.Dataset) (*models.BulkResult, error) {
	result := &models.BulkResult{
		Saved:  make([]string, 0, len(datasets)),
		Failed: make(map[string]string),
	}

	for _, ds := range datasets {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.Save(ctx, ds); err != nil {
			s.logger.Warn().Str("identifier", ds.Identifier).Err(err).Msg("Bulk save: dataset failed")
			result.Failed[ds.Identifier] = err.Error()
			continue
		}
		result.Saved = append(result.Saved, ds.Identifier)
	}
	return result, nil
}

func (s *DatasetStorage) Delete(ctx context.Context, identifier string) error {
	if err := s.db.Store().Delete(identifier, &models.Dataset{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return models.NewStoreError("failed to delete dataset", err)
	}
	return nil
}

func (s *DatasetStorage) GetAllIdentifiers(ctx context.Context) ([]string, error) {
	var datasets []models.Dataset
	if err := s.db.Store().Find(&datasets, nil); err != nil {
		return nil, models.NewStoreError("failed to list datasets", err)
	}
	ids := make([]string, len(datasets))
	for i := range datasets {
		ids[i] = datasets[i].Identifier
	}
	return ids, nil
}

func (s *DatasetStorage) GetPaged(ctx context.Context, offset, limit int) (*models.PagedDatasets, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}

	query := badgerhold.Where("Identifier").Ne("").SortBy("Identifier")
	if offset > 0 {
		query = query.Skip(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var datasets []models.Dataset
	if err := s.db.Store().Find(&datasets, query); err != nil {
		return nil, models.NewStoreError("failed to page datasets", err)
	}

	items := make([]*models.Dataset, len(datasets))
	for i := range datasets {
		items[i] = &datasets[i]
	}

	page := 0
	if limit > 0 {
		page = offset / limit
	}
	return &models.PagedDatasets{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: limit,
	}, nil
}

// Search matches the query as a literal, case-insensitive substring of
// title or abstract. Keywords rank results in hybrid search but do not
// widen this match. Ordering follows identifier order, which keeps
// keyword ranks stable across runs.
func (s *DatasetStorage) Search(ctx context.Context, query string, limit int) ([]*models.Dataset, error) {
	// Escape regex special characters in query to treat it as literal text
	regex, err := regexp.Compile("(?i)" + regexp.QuoteMeta(query))
	if err != nil {
		return nil, models.NewStoreError("invalid query", err)
	}

	q := badgerhold.Where("Title").RegExp(regex).
		Or(badgerhold.Where("Abstract").RegExp(regex))
	q = q.SortBy("Identifier")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var datasets []models.Dataset
	if err := s.db.Store().Find(&datasets, q); err != nil {
		return nil, models.NewStoreError("search failed", err)
	}

	results := make([]*models.Dataset, len(datasets))
	for i := range datasets {
		results[i] = &datasets[i]
	}
	return results, nil
}

func (s *DatasetStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Dataset{}, nil)
	if err != nil {
		return 0, models.NewStoreError("failed to count datasets", err)
	}
	return int(count), nil
}

// GetMissingEmbeddings returns datasets without a stored embedding.
func (s *DatasetStorage) GetMissingEmbeddings(ctx context.Context) ([]*models.Dataset, error) {
	return s.findByEmbedding(false)
}

// GetEmbedded returns datasets that carry an embedding, for in-memory
// similarity scans.
func (s *DatasetStorage) GetEmbedded(ctx context.Context) ([]*models.Dataset, error) {
	return s.findByEmbedding(true)
}

func (s *DatasetStorage) findByEmbedding(embedded bool) ([]*models.Dataset, error) {
	match := func(ra *badgerhold.RecordAccess) (bool, error) {
		vec, ok := ra.Field().([]float32)
		if !ok {
			return !embedded, nil
		}
		return (len(vec) > 0) == embedded, nil
	}

	var datasets []models.Dataset
	if err := s.db.Store().Find(&datasets, badgerhold.Where("Embedding").MatchFunc(match)); err != nil {
		return nil, models.NewStoreError("failed to scan embeddings", err)
	}

	results := make([]*models.Dataset, len(datasets))
	for i := range datasets {
		results[i] = &datasets[i]
	}
	return results, nil
}

// UpdateEmbedding stores a freshly computed vector on an existing dataset.
func (s *DatasetStorage) UpdateEmbedding(ctx context.Context, identifier string, embedding []float32, model string) error {
	ds, err := s.Get(ctx, identifier)
	if err != nil {
		return err
	}
	ds.Embedding = embedding
	ds.EmbeddingModel = model
	ds.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(ds.Identifier, ds); err != nil {
		return models.NewStoreError("failed to update embedding", err)
	}
	return nil
}

// ClearEmbeddings removes every stored vector without touching the records.
func (s *DatasetStorage) ClearEmbeddings(ctx context.Context) error {
	embedded, err := s.GetEmbedded(ctx)
	if err != nil {
		return err
	}
	for _, ds := range embedded {
		if err := ctx.Err(); err != nil {
			return err
		}
		ds.Embedding = nil
		ds.EmbeddingModel = ""
		if err := s.db.Store().Upsert(ds.Identifier, ds); err != nil {
			return models.NewStoreError("failed to clear embedding", err)
		}
	}
	return nil
}

var (
	_ interfaces.DatasetRepository = (*DatasetStorage)(nil)
	_ interfaces.EmbeddingStore    = (*DatasetStorage)(nil)
)
