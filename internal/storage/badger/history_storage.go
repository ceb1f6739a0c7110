package badger

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/common"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/interfaces"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// HistoryStorage implements the SearchHistoryStore interface for Badger
type HistoryStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewHistoryStorage creates a new HistoryStorage instance
func NewHistoryStorage(db *BadgerDB, logger arbor.ILogger) *HistoryStorage {
	return &HistoryStorage{
		db:     db,
		logger: logger,
	}
}

func (s *HistoryStorage) Record(ctx context.Context, entry *models.SearchHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = common.NewID()
	}
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	if err := s.db.Store().Upsert(entry.ID, entry); err != nil {
		return models.NewStoreError("failed to record search", err)
	}
	return nil
}

func (s *HistoryStorage) Recent(ctx context.Context, limit int) ([]*models.SearchHistoryEntry, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("At").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []models.SearchHistoryEntry
	if err := s.db.Store().Find(&entries, query); err != nil {
		return nil, models.NewStoreError("failed to load search history", err)
	}

	results := make([]*models.SearchHistoryEntry, len(entries))
	for i := range entries {
		results[i] = &entries[i]
	}
	return results, nil
}

var _ interfaces.SearchHistoryStore = (*HistoryStorage)(nil)
