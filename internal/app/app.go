// Package app wires configuration, storage, the catalogue client, and the
// search stack into one composition root shared by every CLI command.
package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/client"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/common"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/interfaces"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/parsers"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/pipeline"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/resources"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/services/embeddings"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/services/rag"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/services/search"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/services/vector"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	DB       *badger.BadgerDB
	Datasets *badger.DatasetStorage
	History  *badger.HistoryStorage

	// Harvesting
	Factory   *resources.Factory
	Catalogue *client.CatalogueClient
	Parsers   *parsers.Registry
	Formats   []client.Format
	Pipeline  *pipeline.Pipeline
	Runner    *pipeline.ResumableRunner

	// Search stack
	Embedder interfaces.EmbeddingService
	Vector   *vector.Store
	Sweeper  *embeddings.Sweeper
	Search   *search.Service
	RAG      *rag.Service
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := a.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := a.initHarvesting(); err != nil {
		a.DB.Close()
		return nil, fmt.Errorf("failed to initialize harvesting: %w", err)
	}
	if err := a.initSearchStack(); err != nil {
		a.DB.Close()
		return nil, fmt.Errorf("failed to initialize search stack: %w", err)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("badger_path", cfg.Storage.Badger.Path).
		Msg("Application initialization complete")
	return a, nil
}

func (a *App) initStorage() error {
	db, err := badger.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.DB = db
	a.Datasets = badger.NewDatasetStorage(db, a.Logger)
	a.History = badger.NewHistoryStorage(db, a.Logger)

	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")
	return nil
}

func (a *App) initHarvesting() error {
	var cache *resources.DiskCache
	if a.Config.Cache.Enabled {
		var err error
		cache, err = resources.NewDiskCache(a.Config.Cache.Dir, a.Config.Cache.TTL, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize fetch cache: %w", err)
		}
	}

	httpOpts := []resources.HTTPOption{
		resources.WithTimeout(a.Config.Catalogue.RequestTimeout),
		resources.WithRetryPolicy(&resources.RetryPolicy{
			MaxAttempts:    a.Config.Catalogue.MaxRetries,
			InitialBackoff: a.Config.Catalogue.RetryBaseDelay,
			MaxBackoff:     resources.NewRetryPolicy().MaxBackoff,
		}),
	}
	if a.Config.Catalogue.Username != "" {
		httpOpts = append(httpOpts, resources.WithBasicAuth(a.Config.Catalogue.Username, a.Config.Catalogue.Password))
	}

	a.Factory = resources.NewFactory(cache, a.Logger, httpOpts...)
	a.Catalogue = client.NewCatalogueClient(a.Factory, &a.Config.Catalogue, a.Logger)
	a.Parsers = parsers.NewRegistry()

	formats, err := client.ParseFormats(a.Config.Catalogue.Formats)
	if err != nil {
		return err
	}
	a.Formats = formats

	a.Pipeline = pipeline.NewPipeline(a.Catalogue, a.Parsers, a.Datasets, &a.Config.Pipeline, formats, a.Logger)
	a.Runner = pipeline.NewResumableRunner(a.Pipeline, a.Config.Pipeline.CheckpointPath, a.Logger)

	a.Logger.Debug().
		Str("catalogue", a.Config.Catalogue.BaseURL).
		Bool("cache", cache != nil).
		Msg("Harvesting layer initialized")
	return nil
}

func (a *App) initSearchStack() error {
	embedder, err := embeddings.NewOllamaService(&a.Config.Embeddings, a.Logger)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Embedding backend misconfigured, semantic search disabled")
		a.Embedder = embeddings.NewAbsentService()
	} else {
		a.Embedder = embedder
	}

	a.Vector = vector.NewStore(a.Datasets, a.Embedder, a.Config.Embeddings.BatchSize, a.Logger)
	a.Sweeper = embeddings.NewSweeper(a.Datasets, a.Embedder, a.Config.Embeddings.Schedule, a.Logger)
	a.Search = search.NewService(a.Datasets, a.Vector, &a.Config.Search, a.Logger).
		WithHistory(a.History)

	var generator interfaces.Generator
	if a.Config.RAG.Model != "" {
		gen, err := rag.NewOllamaGenerator(a.Config.Embeddings.Host, a.Config.RAG.Model, a.Logger)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Answer generator misconfigured, using dataset listings")
		} else {
			generator = gen
		}
	}
	a.RAG = rag.NewService(a.Vector, generator, &a.Config.RAG, a.Logger)

	a.Logger.Debug().
		Str("embedding_model", a.Config.Embeddings.Model).
		Str("rag_model", a.Config.RAG.Model).
		Msg("Search stack initialized")
	return nil
}

// EmbeddingsAvailable probes the embedding backend.
func (a *App) EmbeddingsAvailable(ctx context.Context) bool {
	return a.Embedder.IsAvailable(ctx)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.Sweeper != nil {
		a.Sweeper.Stop()
	}
	if a.DB != nil {
		if err := a.DB.RunGC(); err != nil {
			a.Logger.Debug().Err(err).Msg("Value log GC failed")
		}
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Debug().Msg("Storage closed")
	}
	return nil
}
