// Package resources provides a uniform fetch abstraction over remote and
// local sources, with an optional content-addressed on-disk cache.
package resources

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// Resource is an opaque fetchable source. Identifier must be stable and
// unique across the process (URL, absolute path, or zip://path#entry).
type Resource interface {
	Identifier() string
	Exists(ctx context.Context) bool
	Fetch(ctx context.Context) *models.FetchResult
}

// MetadataProvider is implemented by resources that can describe themselves
// without fetching the content.
type MetadataProvider interface {
	Metadata(ctx context.Context) (*models.ResourceMetadata, error)
}

// Streamer is implemented by resources that can deliver content
// incrementally.
type Streamer interface {
	Stream(ctx context.Context, chunkSize int) (io.ReadCloser, error)
}

// Factory builds the right resource variant for an identifier and wraps it
// with the disk cache when one is configured.
type Factory struct {
	cache    *DiskCache
	httpOpts []HTTPOption
	logger   arbor.ILogger
}

// NewFactory creates a resource factory. cache may be nil to disable
// transparent caching.
func NewFactory(cache *DiskCache, logger arbor.ILogger, httpOpts ...HTTPOption) *Factory {
	return &Factory{
		cache:    cache,
		httpOpts: httpOpts,
		logger:   logger,
	}
}

// Cache exposes the configured disk cache; nil when caching is disabled.
func (f *Factory) Cache() *DiskCache {
	return f.cache
}

// ForIdentifier maps an identifier to a concrete variant:
// http/https URLs, zip://path#entry archives, otherwise a local file path.
// Extra HTTP options are applied after the factory defaults.
func (f *Factory) ForIdentifier(identifier string, extra ...HTTPOption) (Resource, error) {
	var inner Resource
	switch {
	case strings.HasPrefix(identifier, "http://"), strings.HasPrefix(identifier, "https://"):
		opts := make([]HTTPOption, 0, len(f.httpOpts)+len(extra))
		opts = append(opts, f.httpOpts...)
		opts = append(opts, extra...)
		inner = NewHTTPResource(identifier, f.logger, opts...)
	case strings.HasPrefix(identifier, "zip://"):
		rest := strings.TrimPrefix(identifier, "zip://")
		path, entry, ok := strings.Cut(rest, "#")
		if !ok || path == "" || entry == "" {
			return nil, fmt.Errorf("invalid zip identifier %q (expected zip://path#entry)", identifier)
		}
		inner = NewZipEntryResource(path, entry)
	case identifier == "":
		return nil, fmt.Errorf("empty resource identifier")
	default:
		inner = NewLocalFileResource(identifier)
	}

	if f.cache != nil {
		return NewCachedResource(inner, f.cache, f.logger), nil
	}
	return inner, nil
}
