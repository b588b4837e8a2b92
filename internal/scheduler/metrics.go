package scheduler

import (
	"time"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

type Metrics struct {
	TotalJobs        int   `json:"total_jobs"`
	ActiveJobs       int   `json:"active_jobs"`
	RunningJobs      int   `json:"running_jobs"`
	FailingJobs      int   `json:"failing_jobs"`
	JobsWithFailures int   `json:"jobs_with_failures"`
	TotalRuns        int64 `json:"total_runs"`
	TotalFailures    int64 `json:"total_failures"`
	TotalSkipped     int64 `json:"total_skipped"`
}

func (s *Scheduler) GetMetrics() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var m Metrics
	for _, j := range s.jobs {
		j.mu.Lock()
		m.TotalJobs++
		if j.active {
			m.ActiveJobs++
		}
		if j.inProgress.Load() {
			m.RunningJobs++
		}
		if j.lastFailed {
			m.FailingJobs++
		}
		if j.failCount > 0 {
			m.JobsWithFailures++
		}
		m.TotalRuns += j.runCount
		m.TotalFailures += j.failCount
		m.TotalSkipped += j.skipCount
		j.mu.Unlock()
	}
	return m
}

type StuckJob struct {
	MonitorID domain.MonitorID `json:"monitor_id"`
	Running   time.Duration    `json:"running"`
}

type Health struct {
	Healthy bool       `json:"healthy"`
	Stuck   []StuckJob `json:"stuck,omitempty"`
}

// Health reports jobs whose current tick has been running for longer than
// StuckAfter.
func (s *Scheduler) Health() Health {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := Health{Healthy: true}
	for id, j := range s.jobs {
		if !j.inProgress.Load() {
			continue
		}
		j.mu.Lock()
		started := j.lastStartedAt
		j.mu.Unlock()
		if started.IsZero() {
			continue
		}
		if d := now.Sub(started); d > s.opts.StuckAfter {
			h.Stuck = append(h.Stuck, StuckJob{MonitorID: id, Running: d})
		}
	}
	h.Healthy = len(h.Stuck) == 0
	return h
}
