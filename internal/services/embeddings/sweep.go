package embeddings

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/interfaces"
)

// Sweeper periodically embeds datasets that are missing a vector, so
// records ingested while the model was unreachable catch up without a
// manual reindex.
type Sweeper struct {
	store    interfaces.EmbeddingStore
	embedder interfaces.EmbeddingService
	schedule string
	logger   arbor.ILogger

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// NewSweeper creates a background embedding sweep on the given cron
// schedule. An empty schedule disables the sweep.
func NewSweeper(store interfaces.EmbeddingStore, embedder interfaces.EmbeddingService, schedule string, logger arbor.ILogger) *Sweeper {
	return &Sweeper{
		store:    store,
		embedder: embedder,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the cron entry and begins sweeping.
func (s *Sweeper) Start() error {
	if s.schedule == "" {
		s.logger.Debug().Msg("Embedding sweep disabled (no schedule)")
		return nil
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.schedule, func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().Str("schedule", s.schedule).Msg("Embedding sweep started")
	return nil
}

// Stop halts the cron scheduler. A sweep in flight finishes first.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
}

// RunOnce embeds every dataset currently missing a vector. Overlapping
// runs are collapsed: a tick that arrives mid-sweep is skipped.
func (s *Sweeper) RunOnce(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Debug().Msg("Embedding sweep already running, skipping tick")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if !s.embedder.IsAvailable(ctx) {
		s.logger.Debug().Msg("Embedding backend unavailable, sweep skipped")
		return
	}

	missing, err := s.store.GetMissingEmbeddings(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Embedding sweep: failed to list missing embeddings")
		return
	}
	if len(missing) == 0 {
		return
	}

	embedded := 0
	for _, ds := range missing {
		if ctx.Err() != nil {
			break
		}
		vec, err := s.embedder.EmbedQuery(ctx, ds.EmbedText())
		if err != nil {
			s.logger.Warn().Str("identifier", ds.Identifier).Err(err).Msg("Embedding sweep: embed failed")
			continue
		}
		if err := s.store.UpdateEmbedding(ctx, ds.Identifier, vec, s.embedder.ModelName()); err != nil {
			s.logger.Warn().Str("identifier", ds.Identifier).Err(err).Msg("Embedding sweep: store failed")
			continue
		}
		embedded++
	}

	s.logger.Info().
		Int("missing", len(missing)).
		Int("embedded", embedded).
		Msg("Embedding sweep completed")
}
