package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/portfolio-dashboard/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	removes  int
	runs     int32
	failures int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(context.Context) (int, error) {
	n := atomic.AddInt32(&j.runs, 1)
	if n <= atomic.LoadInt32(&j.failures) {
		return 0, errors.New("transient")
	}
	return j.removes, nil
}

func TestAddJob(t *testing.T) {
	s := New(logger.Nop())

	require.NoError(t, s.AddJob(&countingJob{name: "sweep", schedule: "@every 3s"}))
	assert.Error(t, s.AddJob(&countingJob{name: "sweep", schedule: "@every 3s"}), "duplicate name")
	assert.Error(t, s.AddJob(&countingJob{name: "bad", schedule: "not a schedule"}))

	assert.Equal(t, []string{"sweep"}, s.GetAllJobs())
}

func TestRunRecordsRemovedAndFailures(t *testing.T) {
	s := New(logger.Nop())
	job := &countingJob{name: "sweep", schedule: "@every 1m", removes: 4, failures: 1}
	require.NoError(t, s.AddJob(job))

	failed := s.run(job)
	assert.True(t, failed.Failed())
	assert.Equal(t, "transient", failed.Error)

	ok := s.run(job)
	assert.False(t, ok.Failed())
	assert.Equal(t, 4, ok.Removed)
	s.run(job)

	stats := s.GetJobStats()["sweep"]
	assert.Equal(t, "@every 1m", stats.Schedule)
	assert.Equal(t, 3, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, 8, stats.TotalRemoved)
	assert.NotNil(t, stats.LastRun)
	assert.Empty(t, stats.LastError)
}

func TestFailedRunIsNotRetried(t *testing.T) {
	s := New(logger.Nop())
	job := &countingJob{name: "broken", schedule: "@every 1m", failures: 10}
	require.NoError(t, s.AddJob(job))

	s.run(job)
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.runs))
	assert.Equal(t, "transient", s.GetJobStats()["broken"].LastError)
}

func TestScheduledExecution(t *testing.T) {
	s := New(logger.Nop())
	job := &countingJob{name: "tick", schedule: "@every 1s"}
	require.NoError(t, s.AddJob(job))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&job.runs) > 0
	}, 3*time.Second, 50*time.Millisecond)
}

func TestHistoryWindowKeepsLifetimeCounters(t *testing.T) {
	h := &history{}
	for i := 0; i < recentRuns+10; i++ {
		r := Run{Removed: 1}
		if i%2 == 1 {
			r.Error = "boom"
		}
		h.record(r)
	}

	assert.Len(t, h.recent, recentRuns)
	assert.Equal(t, recentRuns+10, h.runs)
	assert.Equal(t, (recentRuns+10)/2, h.failures)
	assert.Equal(t, recentRuns+10, h.removed)

	last, ok := h.last()
	require.True(t, ok)
	assert.True(t, last.Failed())
}
