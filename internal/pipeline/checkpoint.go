package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// ResumableRunner wraps a pipeline with checkpoint persistence: ids already
// recorded are skipped, and progress is written back only when the run
// terminates cleanly.
type ResumableRunner struct {
	pipeline *Pipeline
	path     string
	logger   arbor.ILogger
}

// NewResumableRunner wraps pipeline with a checkpoint at path. An empty
// path disables checkpointing.
func NewResumableRunner(pipeline *Pipeline, path string, logger arbor.ILogger) *ResumableRunner {
	return &ResumableRunner{
		pipeline: pipeline,
		path:     path,
		logger:   logger,
	}
}

// Run executes the pipeline over the ids not yet checkpointed. On clean
// termination the merged checkpoint is written atomically; an aborted run
// leaves the previous checkpoint untouched.
func (r *ResumableRunner) Run(ctx context.Context, datasetIDs []string) (*models.PipelineResult, error) {
	checkpoint, err := r.load()
	if err != nil {
		return nil, err
	}

	pending := checkpoint.FilterPending(datasetIDs)
	skipped := len(datasetIDs) - len(pending)
	if skipped > 0 {
		r.logger.Info().
			Int("skipped", skipped).
			Int("pending", len(pending)).
			Msg("Resuming from checkpoint")
	}
	if len(pending) == 0 {
		return &models.PipelineResult{
			FailuresByStage: make(map[models.Stage]int),
		}, nil
	}

	result, runErr := r.pipeline.Run(ctx, pending)
	if runErr != nil {
		return result, runErr
	}

	checkpoint.Merge(result)
	if err := r.save(checkpoint); err != nil {
		return result, err
	}
	return result, nil
}

// ClearCheckpoint removes the checkpoint file so the next run starts fresh.
func (r *ResumableRunner) ClearCheckpoint() error {
	if r.path == "" {
		return nil
	}
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove checkpoint %s: %w", r.path, err)
	}
	return nil
}

func (r *ResumableRunner) load() (*models.Checkpoint, error) {
	checkpoint := models.NewCheckpoint()
	if r.path == "" {
		return checkpoint, nil
	}

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return checkpoint, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint %s: %w", r.path, err)
	}
	if err := json.Unmarshal(data, checkpoint); err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", r.path, err)
	}
	return checkpoint, nil
}

// save writes the checkpoint with a temp-file rename so a crash mid-write
// never corrupts it.
func (r *ResumableRunner) save(checkpoint *models.Checkpoint) error {
	if r.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("create checkpoint temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close checkpoint temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace checkpoint %s: %w", r.path, err)
	}

	r.logger.Debug().
		Str("path", r.path).
		Int("processed", len(checkpoint.ProcessedIDs)).
		Int("failed", len(checkpoint.FailedIDs)).
		Msg("Checkpoint saved")
	return nil
}
