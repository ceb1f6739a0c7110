package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/common"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

func newTestRunner(t *testing.T, fetcher Fetcher, repo *fakeRepo) (*ResumableRunner, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	p := newTestPipeline(fetcher, repo, &common.PipelineConfig{})
	return NewResumableRunner(p, path, arbor.NewLogger()), path
}

func TestRunnerSavesCheckpointAfterCleanRun(t *testing.T) {
	fetcher := &fakeFetcher{records: []*models.DatasetRecord{
		jsonRecord("a"),
		{DatasetID: "bad", Err: errors.New("unreachable")},
	}}
	runner, path := newTestRunner(t, fetcher, &fakeRepo{})

	result, err := runner.Run(context.Background(), []string{"a", "bad"})
	require.NoError(t, err)
	assert.Len(t, result.Successful, 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"a"`)
	assert.Contains(t, string(data), `"bad"`)
}

func TestRunnerSkipsCheckpointedIDs(t *testing.T) {
	first := &fakeFetcher{records: []*models.DatasetRecord{jsonRecord("a")}}
	runner, path := newTestRunner(t, first, &fakeRepo{})
	_, err := runner.Run(context.Background(), []string{"a"})
	require.NoError(t, err)

	// A second run over the same id plus a new one only processes the new
	// one: the fetcher serves exactly that record.
	second := &fakeFetcher{records: []*models.DatasetRecord{jsonRecord("b")}}
	repo := &fakeRepo{}
	p := newTestPipeline(second, repo, &common.PipelineConfig{})
	resumed := NewResumableRunner(p, path, arbor.NewLogger())

	result, err := resumed.Run(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, result.Successful, 1)
	assert.Equal(t, "b", result.Successful[0].DatasetID)
	assert.Equal(t, [][]string{{"b"}}, repo.batches)
}

func TestRunnerAllSeenSkipsPipeline(t *testing.T) {
	fetcher := &fakeFetcher{records: []*models.DatasetRecord{jsonRecord("a")}}
	runner, path := newTestRunner(t, fetcher, &fakeRepo{})
	_, err := runner.Run(context.Background(), []string{"a"})
	require.NoError(t, err)

	repo := &fakeRepo{}
	p := newTestPipeline(&fakeFetcher{}, repo, &common.PipelineConfig{})
	resumed := NewResumableRunner(p, path, arbor.NewLogger())

	result, err := resumed.Run(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, result.Successful)
	assert.Empty(t, result.Failed)
	assert.Empty(t, repo.batches)
}

func TestRunnerAbortedRunLeavesCheckpointUntouched(t *testing.T) {
	fetcher := &fakeFetcher{records: []*models.DatasetRecord{jsonRecord("a")}}
	repo := &fakeRepo{batchErr: errors.New("store offline")}
	runner, path := newTestRunner(t, fetcher, repo)

	_, err := runner.Run(context.Background(), []string{"a"})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunnerFailedIDsRetryOnNextRun(t *testing.T) {
	failing := &fakeFetcher{records: []*models.DatasetRecord{
		{DatasetID: "flaky", Err: errors.New("503")},
	}}
	runner, path := newTestRunner(t, failing, &fakeRepo{})
	_, err := runner.Run(context.Background(), []string{"flaky"})
	require.NoError(t, err)

	// The checkpoint records the failure, so the id is not re-pended...
	recovered := &fakeFetcher{records: []*models.DatasetRecord{jsonRecord("flaky")}}
	p := newTestPipeline(recovered, &fakeRepo{}, &common.PipelineConfig{})
	resumed := NewResumableRunner(p, path, arbor.NewLogger())

	result, err := resumed.Run(context.Background(), []string{"flaky"})
	require.NoError(t, err)
	assert.Empty(t, result.Successful)

	// ...until the checkpoint is cleared.
	require.NoError(t, resumed.ClearCheckpoint())
	result, err = resumed.Run(context.Background(), []string{"flaky"})
	require.NoError(t, err)
	assert.Len(t, result.Successful, 1)
}

func TestRunnerClearCheckpoint(t *testing.T) {
	runner, path := newTestRunner(t, &fakeFetcher{}, &fakeRepo{})

	require.NoError(t, os.WriteFile(path, []byte(`{"processed_ids":["a"],"failed_ids":[]}`), 0o644))
	require.NoError(t, runner.ClearCheckpoint())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing twice is fine.
	assert.NoError(t, runner.ClearCheckpoint())
}

func TestRunnerCorruptCheckpointIsAnError(t *testing.T) {
	runner, path := newTestRunner(t, &fakeFetcher{}, &fakeRepo{})
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))

	_, err := runner.Run(context.Background(), []string{"a"})
	require.Error(t, err)
}

func TestRunnerEmptyPathDisablesCheckpointing(t *testing.T) {
	fetcher := &fakeFetcher{records: []*models.DatasetRecord{jsonRecord("a")}}
	p := newTestPipeline(fetcher, &fakeRepo{}, &common.PipelineConfig{})
	runner := NewResumableRunner(p, "", arbor.NewLogger())

	result, err := runner.Run(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Len(t, result.Successful, 1)
	assert.NoError(t, runner.ClearCheckpoint())
}
