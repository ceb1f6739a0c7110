package resources

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// DiskCache is a content-addressed file cache. Each entry is a pair of
// files under a two-character shard directory:
//
//	<dir>/<key[:2]>/<key>.content
//	<dir>/<key[:2]>/<key>.meta
//
// where key is the SHA-256 hex of the resource identifier. The content
// file is written before the meta file, both via temp-file rename, so a
// readable meta file always implies complete content.
type DiskCache struct {
	dir    string
	ttl    time.Duration
	logger arbor.ILogger
}

type cacheEntryMeta struct {
	Identifier string                  `json:"identifier"`
	CachedAt   time.Time               `json:"cached_at"`
	Metadata   models.ResourceMetadata `json:"metadata"`
}

// NewDiskCache creates a cache rooted at dir. A zero ttl means entries
// never expire.
func NewDiskCache(dir string, ttl time.Duration, logger arbor.ILogger) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &DiskCache{dir: dir, ttl: ttl, logger: logger}, nil
}

// Key returns the cache key for an identifier.
func (c *DiskCache) Key(identifier string) string {
	sum := sha256.Sum256([]byte(identifier))
	return hex.EncodeToString(sum[:])
}

func (c *DiskCache) entryPaths(identifier string) (contentPath, metaPath string) {
	key := c.Key(identifier)
	shard := filepath.Join(c.dir, key[:2])
	return filepath.Join(shard, key+".content"), filepath.Join(shard, key+".meta")
}

// Get returns the cached result for an identifier, or nil when the entry
// is absent, expired, or unreadable.
func (c *DiskCache) Get(identifier string) *models.FetchResult {
	contentPath, metaPath := c.entryPaths(identifier)

	metaBytes, err := os.ReadFile(metaPath)
	if err != nil {
		return nil
	}
	var meta cacheEntryMeta
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		c.logger.Debug().Str("identifier", identifier).Err(err).Msg("Corrupt cache meta, treating as miss")
		return nil
	}

	if c.ttl > 0 && time.Since(meta.CachedAt) > c.ttl {
		return nil
	}

	content, err := os.ReadFile(contentPath)
	if err != nil {
		return nil
	}

	return &models.FetchResult{
		Content:   content,
		Metadata:  meta.Metadata,
		Success:   true,
		FromCache: true,
	}
}

// Put stores a successful fetch result. Failed results are never cached.
func (c *DiskCache) Put(identifier string, result *models.FetchResult) error {
	if result == nil || !result.Success {
		return nil
	}

	contentPath, metaPath := c.entryPaths(identifier)
	if err := os.MkdirAll(filepath.Dir(contentPath), 0o755); err != nil {
		return fmt.Errorf("creating cache shard: %w", err)
	}

	if err := writeFileAtomic(contentPath, result.Content); err != nil {
		return fmt.Errorf("writing cache content: %w", err)
	}

	metaBytes, err := json.Marshal(cacheEntryMeta{
		Identifier: identifier,
		CachedAt:   time.Now().UTC(),
		Metadata:   result.Metadata,
	})
	if err != nil {
		return fmt.Errorf("encoding cache meta: %w", err)
	}
	if err := writeFileAtomic(metaPath, metaBytes); err != nil {
		return fmt.Errorf("writing cache meta: %w", err)
	}
	return nil
}

// Invalidate removes the entry for an identifier. Missing entries are not
// an error.
func (c *DiskCache) Invalidate(identifier string) error {
	contentPath, metaPath := c.entryPaths(identifier)
	// Meta first: a content file with no meta is an invisible entry.
	for _, path := range []string{metaPath, contentPath} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing cache entry: %w", err)
		}
	}
	return nil
}

// Stats walks the cache and counts entries and content bytes.
func (c *DiskCache) Stats() (models.CacheStats, error) {
	var stats models.CacheStats
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if !strings.HasSuffix(path, ".content") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		stats.Entries++
		stats.TotalBytes += info.Size()
		return nil
	})
	return stats, err
}

// Clear removes every entry while keeping the cache root.
func (c *DiskCache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(c.dir, e.Name())); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// CachedResource wraps another resource with the disk cache. Fetch serves
// from cache when a valid entry exists; FetchFresh always goes to the
// origin and refreshes the entry.
type CachedResource struct {
	inner  Resource
	cache  *DiskCache
	logger arbor.ILogger
}

// NewCachedResource wraps inner with transparent caching.
func NewCachedResource(inner Resource, cache *DiskCache, logger arbor.ILogger) *CachedResource {
	return &CachedResource{inner: inner, cache: cache, logger: logger}
}

func (r *CachedResource) Identifier() string {
	return r.inner.Identifier()
}

func (r *CachedResource) Exists(ctx context.Context) bool {
	if r.cache.Get(r.Identifier()) != nil {
		return true
	}
	return r.inner.Exists(ctx)
}

func (r *CachedResource) Fetch(ctx context.Context) *models.FetchResult {
	if cached := r.cache.Get(r.Identifier()); cached != nil {
		r.logger.Trace().Str("identifier", r.Identifier()).Msg("Cache hit")
		return cached
	}
	return r.FetchFresh(ctx)
}

// FetchFresh bypasses the cache read, fetches from the origin, and stores
// the result on success.
func (r *CachedResource) FetchFresh(ctx context.Context) *models.FetchResult {
	result := r.inner.Fetch(ctx)
	if result.Success {
		if err := r.cache.Put(r.Identifier(), result); err != nil {
			r.logger.Warn().Str("identifier", r.Identifier()).Err(err).Msg("Failed to write cache entry")
		}
	}
	return result
}

// Invalidate drops the cache entry for this resource.
func (r *CachedResource) Invalidate() error {
	return r.cache.Invalidate(r.Identifier())
}
