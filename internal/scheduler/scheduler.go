package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/portfolio-dashboard/pkg/logger"
)

// Scheduler runs maintenance jobs on their cron schedules.
// A failed pass is only logged; the next tick is the retry.
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	jobs    map[string]Job
	history map[string]*history
	mu      sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a stopped scheduler
func New(log *logger.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		logger:  log,
		jobs:    make(map[string]Job),
		history: make(map[string]*history),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddJob registers a job under its unique name
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	if _, err := s.cron.AddFunc(job.Schedule(), func() { s.run(job) }); err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = job
	s.history[name] = &history{}

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// run executes one pass of job and records it
func (s *Scheduler) run(job Job) Run {
	name := job.Name()
	start := time.Now()

	removed, err := job.Run(s.ctx)

	r := Run{
		StartedAt: start,
		Duration:  time.Since(start),
		Removed:   removed,
	}
	if err != nil {
		r.Error = err.Error()
	}

	s.mu.Lock()
	if h, ok := s.history[name]; ok {
		h.record(r)
	}
	s.mu.Unlock()

	log := s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"removed":  removed,
		"duration": r.Duration,
	})
	switch {
	case err != nil:
		log.WithError(err).Warn("Job failed")
	case removed > 0:
		log.Debug("Job completed")
	}

	return r
}

// GetAllJobs returns the registered job names, sorted
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// JobStats summarises a job's lifetime
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	FailureCount int        `json:"failure_count"`
	TotalRemoved int        `json:"total_removed"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}

// GetJobStats returns statistics for every registered job
func (s *Scheduler) GetJobStats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats, len(s.history))
	for name, h := range s.history {
		st := JobStats{
			JobName:      name,
			Schedule:     s.jobs[name].Schedule(),
			TotalRuns:    h.runs,
			FailureCount: h.failures,
			TotalRemoved: h.removed,
		}
		if last, ok := h.last(); ok {
			t := last.StartedAt
			st.LastRun = &t
			st.LastError = last.Error
		}
		stats[name] = st
	}

	return stats
}
