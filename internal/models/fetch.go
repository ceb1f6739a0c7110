package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ResourceMetadata carries fetch-time metadata alongside the content.
type ResourceMetadata struct {
	ContentType  string            `json:"content_type,omitempty"`
	Size         int64             `json:"size,omitempty"`
	LastModified *time.Time        `json:"last_modified,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Encoding     string            `json:"encoding,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// FetchResult is the outcome of fetching a resource.
type FetchResult struct {
	Content   []byte           `json:"-"`
	Metadata  ResourceMetadata `json:"metadata"`
	Success   bool             `json:"success"`
	Error     error            `json:"-"`
	FromCache bool             `json:"from_cache"`
}

// ContentHash returns the SHA-256 hex digest of the fetched content.
func (r *FetchResult) ContentHash() string {
	sum := sha256.Sum256(r.Content)
	return hex.EncodeToString(sum[:])
}

// FetchFailure builds a failed result carrying the error.
func FetchFailure(err error) *FetchResult {
	return &FetchResult{Success: false, Error: err}
}

// CacheStats summarises the on-disk cache contents.
type CacheStats struct {
	Entries    int   `json:"entries"`
	TotalBytes int64 `json:"total_bytes"`
}
