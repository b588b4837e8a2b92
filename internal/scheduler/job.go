package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

// every is a fixed-interval cron schedule. Unlike cron.Every it keeps
// sub-second intervals.
type every time.Duration

func (e every) Next(t time.Time) time.Time { return t.Add(time.Duration(e)) }

type job struct {
	inProgress atomic.Bool

	mu            sync.Mutex
	monitor       *domain.Monitor
	entry         cron.EntryID
	active        bool
	runCount      int64
	failCount     int64
	skipCount     int64
	lastStartedAt time.Time
	lastRunAt     time.Time
	lastFailedAt  time.Time
	lastError     string
	lastFailed    bool
}

func (j *job) target() *domain.Monitor {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.monitor.Clone()
}

func (j *job) skipped() {
	j.mu.Lock()
	j.skipCount++
	j.mu.Unlock()
}

func (j *job) started(at time.Time) {
	j.mu.Lock()
	j.lastStartedAt = at
	j.mu.Unlock()
}

func (j *job) finished(at time.Time, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runCount++
	j.lastRunAt = at
	j.lastFailed = err != nil
	if err != nil {
		j.failCount++
		j.lastFailedAt = at
		j.lastError = err.Error()
	}
}

func (j *job) snapshot() domain.Job {
	j.mu.Lock()
	defer j.mu.Unlock()
	return domain.Job{
		MonitorID:     j.monitor.ID,
		Name:          j.monitor.Name,
		Type:          j.monitor.Type,
		Interval:      j.monitor.Interval,
		Active:        j.active,
		InProgress:    j.inProgress.Load(),
		RunCount:      j.runCount,
		FailCount:     j.failCount,
		SkipCount:     j.skipCount,
		LastStartedAt: j.lastStartedAt,
		LastRunAt:     j.lastRunAt,
		LastFailedAt:  j.lastFailedAt,
		LastError:     j.lastError,
	}
}
