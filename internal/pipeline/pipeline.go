// Package pipeline drives dataset harvesting end to end: fetch from the
// catalogue, parse into canonical records, and store in batches. Runs are
// resumable through a JSON checkpoint.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/client"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/common"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/interfaces"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/parsers"
)

const defaultBatchSize = 20

// Fetcher is the catalogue surface the pipeline consumes.
type Fetcher interface {
	FetchAll(ctx context.Context, datasetIDs []string, formats []client.Format, progress client.ProgressFunc) []*models.DatasetRecord
}

// Pipeline runs datasets through fetch, parse, and store stages.
type Pipeline struct {
	fetcher  Fetcher
	registry *parsers.Registry
	repo     interfaces.DatasetRepository
	config   *common.PipelineConfig
	formats  []client.Format
	progress client.ProgressFunc
	logger   arbor.ILogger
}

// NewPipeline assembles a pipeline over the given fetcher, parser registry,
// and repository.
func NewPipeline(fetcher Fetcher, registry *parsers.Registry, repo interfaces.DatasetRepository, config *common.PipelineConfig, formats []client.Format, logger arbor.ILogger) *Pipeline {
	return &Pipeline{
		fetcher:  fetcher,
		registry: registry,
		repo:     repo,
		config:   config,
		formats:  formats,
		logger:   logger,
	}
}

// WithProgress forwards fetch progress events to fn.
func (p *Pipeline) WithProgress(fn client.ProgressFunc) *Pipeline {
	p.progress = fn
	return p
}

// Run processes the given dataset ids. Per-dataset failures are recorded in
// the result; the returned error is non-nil only when the run aborts, either
// by context or because stop-on-error is set.
func (p *Pipeline) Run(ctx context.Context, datasetIDs []string) (*models.PipelineResult, error) {
	result := &models.PipelineResult{
		FailuresByStage: make(map[models.Stage]int),
		StartedAt:       time.Now().UTC(),
	}
	defer func() { result.Duration = time.Since(result.StartedAt) }()

	p.logger.Info().
		Int("datasets", len(datasetIDs)).
		Int("formats", len(p.formats)).
		Msg("Pipeline run starting")

	records := p.fetcher.FetchAll(ctx, datasetIDs, p.formats, p.progress)

	batch := make([]*models.Dataset, 0, p.batchSize())
	batchMeta := make(map[string]*models.ProcessedDataset, p.batchSize())

	flush := func() error {
		if err := p.storeBatch(ctx, batch, batchMeta, result); err != nil {
			return err
		}
		batch = batch[:0]
		batchMeta = make(map[string]*models.ProcessedDataset, p.batchSize())
		return nil
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		processed := &models.ProcessedDataset{
			DatasetID: record.DatasetID,
			FromCache: record.FromCache,
		}
		start := time.Now()

		if record.Err != nil {
			p.fail(result, processed, models.StageFetch, record.Err, start)
			if p.config.StopOnError {
				if ferr := flush(); ferr != nil {
					return result, ferr
				}
				return result, fmt.Errorf("dataset %s: %w", record.DatasetID, record.Err)
			}
			continue
		}

		dataset, err := p.parseRecord(record)
		if err != nil {
			p.fail(result, processed, models.StageParse, err, start)
			if p.config.StopOnError {
				if ferr := flush(); ferr != nil {
					return result, ferr
				}
				return result, fmt.Errorf("dataset %s: %w", record.DatasetID, err)
			}
			continue
		}

		processed.StageCompleted = models.StageParse
		processed.Duration = time.Since(start)
		batch = append(batch, dataset)
		batchMeta[dataset.Identifier] = processed

		if len(batch) >= p.batchSize() {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}

	if err := flush(); err != nil {
		return result, err
	}

	p.logger.Info().
		Int("successful", len(result.Successful)).
		Int("failed", len(result.Failed)).
		Int("cache_hits", result.CacheHits).
		Msg("Pipeline run finished")
	return result, nil
}

// parseRecord turns fetched payloads into a dataset. The JSON payload is
// authoritative; the GEMINI XML payload serves as fallback when JSON is
// absent or unparseable.
func (p *Pipeline) parseRecord(record *models.DatasetRecord) (*models.Dataset, error) {
	attempts := []struct {
		key    string
		format string
	}{
		{string(client.FormatJSON), "catalogue_json"},
		{string(client.FormatXML), "iso19115"},
	}

	var lastErr error
	for _, attempt := range attempts {
		fetched, ok := record.Results[attempt.key]
		if !ok || fetched == nil {
			continue
		}
		dataset, err := p.registry.Parse(fetched.Content, attempt.format, fetched.Metadata.ContentType)
		if err != nil {
			lastErr = err
			p.logger.Debug().
				Str("dataset_id", record.DatasetID).
				Str("format", attempt.key).
				Err(err).
				Msg("Payload parse failed, trying next format")
			continue
		}
		dataset.RawDocument = string(fetched.Content)
		attachSupportingFiles(dataset, record.SupportingFiles)
		return dataset, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, models.NewParseError("record has no parseable payload", nil)
}

// attachSupportingFiles adds archive entries the metadata record did not
// already list as supporting documents.
func attachSupportingFiles(dataset *models.Dataset, files []string) {
	known := make(map[string]struct{}, len(dataset.SupportingDocs))
	for _, doc := range dataset.SupportingDocs {
		known[doc.Filename] = struct{}{}
	}
	for _, name := range files {
		if _, ok := known[name]; ok {
			continue
		}
		dataset.SupportingDocs = append(dataset.SupportingDocs, models.SupportingDocument{Filename: name})
	}
}

// storeBatch commits parsed datasets and folds per-dataset store outcomes
// into the result.
func (p *Pipeline) storeBatch(ctx context.Context, batch []*models.Dataset, meta map[string]*models.ProcessedDataset, result *models.PipelineResult) error {
	if len(batch) == 0 {
		return nil
	}

	bulk, err := p.repo.SaveMany(ctx, batch)
	if err != nil {
		return fmt.Errorf("store batch of %d: %w", len(batch), err)
	}

	for _, id := range bulk.Saved {
		processed := meta[id]
		processed.StageCompleted = models.StageComplete
		result.Successful = append(result.Successful, *processed)
		if processed.FromCache {
			result.CacheHits++
		}
	}
	for id, msg := range bulk.Failed {
		processed := meta[id]
		processed.ErrorStage = models.StageStore
		processed.ErrorMessage = msg
		result.Failed = append(result.Failed, *processed)
		result.FailuresByStage[models.StageStore]++
	}
	return nil
}

func (p *Pipeline) fail(result *models.PipelineResult, processed *models.ProcessedDataset, stage models.Stage, err error, start time.Time) {
	processed.ErrorStage = stage
	processed.ErrorMessage = err.Error()
	processed.Duration = time.Since(start)
	result.Failed = append(result.Failed, *processed)
	result.FailuresByStage[stage]++

	p.logger.Warn().
		Str("dataset_id", processed.DatasetID).
		Str("stage", string(stage)).
		Err(err).
		Msg("Dataset failed")
}

func (p *Pipeline) batchSize() int {
	if p.config.BatchSize > 0 {
		return p.config.BatchSize
	}
	return defaultBatchSize
}
