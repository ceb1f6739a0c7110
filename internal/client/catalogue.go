// Package client fetches dataset metadata from the remote catalogue with
// bounded concurrency and request spacing.
package client

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/common"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/resources"
)

// Format names a catalogue record representation.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "gemini"
)

// ContentType returns the Accept header value for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatXML:
		return "application/xml"
	}
	return ""
}

// ParseFormats maps config format names onto Format values. Unknown names
// are rejected so a typo fails the run up front.
func ParseFormats(names []string) ([]Format, error) {
	if len(names) == 0 {
		return []Format{FormatJSON, FormatXML}, nil
	}
	formats := make([]Format, 0, len(names))
	for _, name := range names {
		switch name {
		case "json":
			formats = append(formats, FormatJSON)
		case "xml", "gemini":
			formats = append(formats, FormatXML)
		default:
			return nil, fmt.Errorf("unknown catalogue format %q", name)
		}
	}
	return formats, nil
}

// ProgressFunc receives fetch progress events. For each dataset a
// "fetching" event arrives strictly before its "completed" or "failed"
// event.
type ProgressFunc func(models.FetchProgress)

// CatalogueClient fetches dataset records in one or more formats. A
// semaphore bounds in-flight fetches and a rate limiter enforces the
// minimum spacing between requests.
type CatalogueClient struct {
	factory *resources.Factory
	config  *common.CatalogueConfig
	limiter *rate.Limiter
	logger  arbor.ILogger
}

// NewCatalogueClient creates a client over the given resource factory.
func NewCatalogueClient(factory *resources.Factory, config *common.CatalogueConfig, logger arbor.ILogger) *CatalogueClient {
	limit := rate.Inf
	if config.RequestDelay > 0 {
		limit = rate.Every(config.RequestDelay)
	}
	return &CatalogueClient{
		factory: factory,
		config:  config,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// RecordURL builds the catalogue URL for a dataset in the given format.
func (c *CatalogueClient) RecordURL(datasetID string, format Format) string {
	if format == FormatXML {
		return fmt.Sprintf("%s/id/%s.xml?format=gemini", c.config.BaseURL, datasetID)
	}
	return fmt.Sprintf("%s/id/%s?format=%s", c.config.BaseURL, datasetID, format)
}

// SupportingDocsURL builds the supporting-documents archive URL.
func (c *CatalogueClient) SupportingDocsURL(datasetID string) string {
	return fmt.Sprintf("%s/%s.zip", c.config.SupportingURL, datasetID)
}

// FetchDataset fetches one dataset in every requested format. Any single
// format failing marks the whole record failed. The record counts as a
// cache hit when any format was served from cache.
func (c *CatalogueClient) FetchDataset(ctx context.Context, datasetID string, formats []Format) *models.DatasetRecord {
	record := &models.DatasetRecord{
		DatasetID: datasetID,
		Results:   make(map[string]*models.FetchResult, len(formats)),
	}

	for _, format := range formats {
		result, err := c.fetchFormat(ctx, datasetID, format)
		if err != nil {
			record.Err = fmt.Errorf("format %s: %w", format, err)
			return record
		}
		record.Results[string(format)] = result
		record.FromCache = record.FromCache || result.FromCache
	}

	// The archive is optional; a missing one never fails the record.
	if c.config.FetchSupportingDocs {
		names, err := c.fetchSupportingFilenames(ctx, datasetID)
		if err != nil {
			c.logger.Debug().
				Str("dataset_id", datasetID).
				Err(err).
				Msg("No supporting documents archive")
		} else {
			record.SupportingFiles = names
		}
	}
	return record
}

func (c *CatalogueClient) fetchFormat(ctx context.Context, datasetID string, format Format) (*models.FetchResult, error) {
	url := c.RecordURL(datasetID, format)
	resource, err := c.factory.ForIdentifier(url, resources.WithHeader("Accept", format.ContentType()))
	if err != nil {
		return nil, err
	}

	result := resource.Fetch(ctx)
	if !result.Success {
		if result.Error != nil {
			return nil, result.Error
		}
		return nil, models.NewTransportError(fmt.Sprintf("fetch %s failed", url), nil)
	}
	return result, nil
}

// FetchAll fetches every dataset concurrently and returns records in input
// order. Partial failures are recorded per dataset, never fatal.
func (c *CatalogueClient) FetchAll(ctx context.Context, datasetIDs []string, formats []Format, progress ProgressFunc) []*models.DatasetRecord {
	total := len(datasetIDs)
	records := make([]*models.DatasetRecord, total)

	sem := make(chan struct{}, c.concurrency())
	var progressMu sync.Mutex
	var wg sync.WaitGroup

	emit := func(update models.FetchProgress) {
		if progress == nil {
			return
		}
		progressMu.Lock()
		progress(update)
		progressMu.Unlock()
	}

	for i, datasetID := range datasetIDs {
		wg.Add(1)
		go func(index int, id string) {
			defer wg.Done()

			emit(models.FetchProgress{
				DatasetID: id,
				Current:   index,
				Total:     total,
				Status:    models.FetchStatusFetching,
			})

			record := c.fetchThrottled(ctx, id, formats, sem)
			records[index] = record

			update := models.FetchProgress{
				DatasetID: id,
				Current:   index + 1,
				Total:     total,
				Status:    models.FetchStatusCompleted,
				FromCache: record.FromCache,
			}
			if record.Err != nil {
				update.Status = models.FetchStatusFailed
				update.Error = record.Err.Error()
			}
			emit(update)
		}(i, datasetID)
	}

	wg.Wait()
	return records
}

// FetchAllStream fetches concurrently and delivers each record as it
// completes. A dispatcher claims concurrency slots in input order, so with
// one slot the records arrive in input order. The channel is closed once
// every dataset has been reported.
func (c *CatalogueClient) FetchAllStream(ctx context.Context, datasetIDs []string, formats []Format) <-chan *models.DatasetRecord {
	out := make(chan *models.DatasetRecord)
	sem := make(chan struct{}, c.concurrency())

	go func() {
		var wg sync.WaitGroup
		for _, datasetID := range datasetIDs {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				out <- &models.DatasetRecord{DatasetID: datasetID, Err: ctx.Err()}
				continue
			}
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				out <- c.fetchLimited(ctx, id, formats)
				<-sem
			}(datasetID)
		}
		wg.Wait()
		close(out)
	}()
	return out
}

func (c *CatalogueClient) fetchThrottled(ctx context.Context, datasetID string, formats []Format, sem chan struct{}) *models.DatasetRecord {
	select {
	case sem <- struct{}{}:
		defer func() { <-sem }()
	case <-ctx.Done():
		return &models.DatasetRecord{DatasetID: datasetID, Err: ctx.Err()}
	}
	return c.fetchLimited(ctx, datasetID, formats)
}

// fetchLimited waits out the request spacing and fetches. Callers hold a
// concurrency slot already.
func (c *CatalogueClient) fetchLimited(ctx context.Context, datasetID string, formats []Format) *models.DatasetRecord {
	if err := c.limiter.Wait(ctx); err != nil {
		return &models.DatasetRecord{DatasetID: datasetID, Err: err}
	}

	start := time.Now()
	record := c.FetchDataset(ctx, datasetID, formats)
	c.logger.Trace().
		Str("dataset_id", datasetID).
		Dur("duration", time.Since(start)).
		Bool("from_cache", record.FromCache).
		Msg("Dataset fetched")
	return record
}

// FetchSupportingDocs fetches the supporting-documents ZIP for a dataset.
func (c *CatalogueClient) FetchSupportingDocs(ctx context.Context, datasetID string) ([]byte, error) {
	resource, err := c.factory.ForIdentifier(c.SupportingDocsURL(datasetID))
	if err != nil {
		return nil, err
	}
	result := resource.Fetch(ctx)
	if !result.Success {
		return nil, result.Error
	}
	return result.Content, nil
}

// fetchSupportingFilenames lists the entries of the supporting-documents
// ZIP, skipping directories.
func (c *CatalogueClient) fetchSupportingFilenames(ctx context.Context, datasetID string) ([]string, error) {
	data, err := c.FetchSupportingDocs(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, models.NewParseError(fmt.Sprintf("supporting documents archive for %s", datasetID), err)
	}
	names := make([]string, 0, len(reader.File))
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		names = append(names, f.Name)
	}
	return names, nil
}

// DatasetExists probes the catalogue for a dataset without fetching it.
func (c *CatalogueClient) DatasetExists(ctx context.Context, datasetID string) bool {
	resource, err := c.factory.ForIdentifier(c.RecordURL(datasetID, FormatJSON))
	if err != nil {
		return false
	}
	return resource.Exists(ctx)
}

// CacheStats reports the disk cache contents, if caching is enabled.
func (c *CatalogueClient) CacheStats() (models.CacheStats, bool) {
	cache := c.factory.Cache()
	if cache == nil {
		return models.CacheStats{}, false
	}
	stats, err := cache.Stats()
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to read cache stats")
		return models.CacheStats{}, false
	}
	return stats, true
}

func (c *CatalogueClient) concurrency() int {
	if c.config.Concurrency > 0 {
		return c.config.Concurrency
	}
	return 3
}
