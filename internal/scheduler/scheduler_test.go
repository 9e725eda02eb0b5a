package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/pkg/logger"
)

type testJob struct {
	name     string
	schedule string
	calls    atomic.Int32
	failures int32
	err      error
}

func (j *testJob) Name() string     { return j.name }
func (j *testJob) Schedule() string { return j.schedule }

func (j *testJob) Run(ctx context.Context) error {
	n := j.calls.Add(1)
	if n <= j.failures {
		return j.err
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(logger.NewNop(), WithRetry(2, time.Millisecond))
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&testJob{name: "b", schedule: "@daily"}))
	require.NoError(t, s.AddJob(&testJob{name: "a", schedule: "0 0 6 * * *"}))
	assert.Error(t, s.AddJob(&testJob{name: "a", schedule: "@daily"}), "duplicate name")
	assert.Error(t, s.AddJob(&testJob{name: "c", schedule: "not a schedule"}))

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("b"))
	assert.Equal(t, []string{"a"}, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("b"))
}

func TestRunJobSyncRetries(t *testing.T) {
	s := newTestScheduler()
	job := &testJob{name: "flaky", schedule: "@daily", failures: 2, err: errors.New("transient")}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync(context.Background(), "flaky")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)

	stats := s.GetJobStats()["flaky"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1.0, stats.SuccessRate)
	assert.NotNil(t, stats.LastSuccess)
}

func TestRunJobSyncGivesUp(t *testing.T) {
	s := newTestScheduler()
	job := &testJob{name: "broken", schedule: "@daily", failures: 100, err: errors.New("down")}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync(context.Background(), "broken")
	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, "down", result.Error)
}

func TestFatalConfigurationIsNotRetried(t *testing.T) {
	s := newTestScheduler()
	job := &testJob{
		name:     "misconfigured",
		schedule: "@daily",
		failures: 100,
		err:      fmt.Errorf("%w: missing store", contracts.ErrFatalConfiguration),
	}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync(context.Background(), "misconfigured")
	assert.ErrorIs(t, err, contracts.ErrFatalConfiguration)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, int32(1), job.calls.Load())
}

func TestRunJobUnknown(t *testing.T) {
	s := newTestScheduler()
	assert.Error(t, s.RunJob("nope"))
	_, err := s.RunJobSync(context.Background(), "nope")
	assert.Error(t, err)
	_, err = s.NextRun("nope")
	assert.Error(t, err)
}

func TestNextRunAfterStart(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&testJob{name: "daily", schedule: "0 0 6 * * *"}))

	s.Start()
	defer s.Stop()

	next, err := s.NextRun("daily")
	require.NoError(t, err)
	assert.True(t, next.After(time.Now()))
	assert.Equal(t, 6, next.Hour())
}

func TestJobHistoryLimit(t *testing.T) {
	var h JobHistory
	for i := 0; i < historyLimit+10; i++ {
		h.AddResult(JobResult{JobName: "x", Success: i%2 == 0})
	}
	assert.Len(t, h.Results, historyLimit)
	assert.Len(t, h.GetLatestResults(5), 5)
	assert.Empty(t, h.GetLatestResults(0))
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
	assert.Equal(t, historyLimit/2, h.FailureCount())
	// last index is odd
	assert.Equal(t, 1, h.ConsecutiveFailures())
	assert.Nil(t, h.LastBatch())
}

func TestNextRunBeforeStart(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&testJob{name: "daily", schedule: "0 0 6 * * *"}))

	next, err := s.NextRun("daily")
	require.NoError(t, err)
	assert.True(t, next.After(time.Now()))
	assert.Equal(t, 6, next.Hour())
}

type batchJob struct {
	testJob
	summary contracts.RunSummary
}

func (j *batchJob) LastBatch() (contracts.RunSummary, bool) {
	return j.summary, true
}

func TestJobStatsTrackBatchesAndStreaks(t *testing.T) {
	s := New(logger.NewNop(), WithRetry(0, 0))
	job := &batchJob{
		testJob: testJob{name: "scoring", schedule: "@daily", failures: 2, err: errors.New("store down")},
		summary: contracts.RunSummary{RunID: "run-1", Total: 4, Updated: 3, Failed: 1},
	}
	require.NoError(t, s.AddJob(job))

	for i := 0; i < 2; i++ {
		_, err := s.RunJobSync(context.Background(), "scoring")
		require.Error(t, err)
	}
	stats := s.GetJobStats()["scoring"]
	assert.Equal(t, 2, stats.ConsecutiveFailures)
	assert.Nil(t, stats.LastSuccess)
	require.NotNil(t, stats.LastBatch)
	assert.Equal(t, "run-1", stats.LastBatch.RunID)

	result, err := s.RunJobSync(context.Background(), "scoring")
	require.NoError(t, err)
	require.NotNil(t, result.Batch)
	assert.Equal(t, 3, result.Batch.Updated)

	stats = s.GetJobStats()["scoring"]
	assert.Equal(t, 0, stats.ConsecutiveFailures)
	assert.Equal(t, 2, stats.FailureCount)
	assert.NotNil(t, stats.LastSuccess)
	assert.NotNil(t, stats.LastFailure)
}
