package scheduler

import (
	"context"
	"time"
)

// Job is a maintenance task that evicts stale in-memory state
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string

	// Schedule is a cron expression with seconds, e.g. "@every 3s"
	Schedule() string

	// Run performs one pass and reports how many entries it removed
	Run(ctx context.Context) (removed int, err error)
}

// Run is the outcome of one pass
type Run struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Removed   int           `json:"removed"`
	Error     string        `json:"error,omitempty"`
}

// Failed reports whether the pass returned an error
func (r Run) Failed() bool {
	return r.Error != ""
}

// recentRuns bounds the per-job window; sweeps fire every few seconds
const recentRuns = 50

// history keeps lifetime counters plus a short window of recent runs
type history struct {
	runs     int
	failures int
	removed  int
	recent   []Run
}

func (h *history) record(r Run) {
	h.runs++
	h.removed += r.Removed
	if r.Failed() {
		h.failures++
	}

	h.recent = append(h.recent, r)
	if len(h.recent) > recentRuns {
		h.recent = h.recent[len(h.recent)-recentRuns:]
	}
}

func (h *history) last() (Run, bool) {
	if len(h.recent) == 0 {
		return Run{}, false
	}
	return h.recent[len(h.recent)-1], true
}
