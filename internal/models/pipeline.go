package models

import (
	"time"
)

// Stage is a node in the per-dataset pipeline state machine.
type Stage string

const (
	StageFetch    Stage = "fetch"
	StageParse    Stage = "parse"
	StageStore    Stage = "store"
	StageComplete Stage = "complete"
)

// FetchStatus labels progress events emitted while harvesting.
type FetchStatus string

const (
	FetchStatusFetching  FetchStatus = "fetching"
	FetchStatusCompleted FetchStatus = "completed"
	FetchStatusFailed    FetchStatus = "failed"
)

// FetchProgress is delivered to progress callbacks as each dataset moves
// through the catalogue client. Events are ordered per dataset: fetching
// strictly before completed or failed.
type FetchProgress struct {
	DatasetID string      `json:"dataset_id"`
	Current   int         `json:"current"`
	Total     int         `json:"total"`
	Status    FetchStatus `json:"status"`
	FromCache bool        `json:"from_cache"`
	Error     string      `json:"error,omitempty"`
}

// DatasetRecord is one dataset's fetched payloads keyed by format name.
// SupportingFiles lists entries found in the supporting-documents archive
// when that harvest is enabled.
type DatasetRecord struct {
	DatasetID       string
	Results         map[string]*FetchResult
	SupportingFiles []string
	FromCache       bool
	Err             error
}

// ProcessedDataset records the pipeline outcome for a single dataset.
type ProcessedDataset struct {
	DatasetID      string        `json:"dataset_id"`
	StageCompleted Stage         `json:"stage_completed"`
	ErrorStage     Stage         `json:"error_stage,omitempty"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	Duration       time.Duration `json:"duration_ms"`
	FromCache      bool          `json:"from_cache"`
}

// PipelineResult summarises a pipeline run.
type PipelineResult struct {
	Successful      []ProcessedDataset `json:"successful"`
	Failed          []ProcessedDataset `json:"failed"`
	FailuresByStage map[Stage]int      `json:"failures_by_stage"`
	CacheHits       int                `json:"cache_hits"`
	Duration        time.Duration      `json:"duration_ms"`
	StartedAt       time.Time          `json:"started_at"`
}

// SuccessRate returns the fraction of datasets that completed.
func (r *PipelineResult) SuccessRate() float64 {
	total := len(r.Successful) + len(r.Failed)
	if total == 0 {
		return 0
	}
	return float64(len(r.Successful)) / float64(total)
}

// CacheHitRate returns the fraction of successful datasets served from cache.
func (r *PipelineResult) CacheHitRate() float64 {
	if len(r.Successful) == 0 {
		return 0
	}
	return float64(r.CacheHits) / float64(len(r.Successful))
}

// BulkResult reports per-identifier outcomes of an unordered bulk upsert.
type BulkResult struct {
	Saved  []string          `json:"saved"`
	Failed map[string]string `json:"failed,omitempty"`
}

// IndexingResult reports the outcome of a vector indexing run.
type IndexingResult struct {
	Indexed  []string          `json:"indexed"`
	Skipped  []string          `json:"skipped,omitempty"`
	Failed   map[string]string `json:"failed,omitempty"`
	Duration time.Duration     `json:"duration_ms"`
}
