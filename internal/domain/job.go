package domain

import "time"

// Job is a point-in-time view of one monitor's scheduling state.
type Job struct {
	MonitorID     MonitorID     `json:"monitor_id"`
	Name          string        `json:"name"`
	Type          MonitorType   `json:"type"`
	Interval      time.Duration `json:"interval"`
	Active        bool          `json:"active"`
	InProgress    bool          `json:"in_progress"`
	RunCount      int64         `json:"run_count"`
	FailCount     int64         `json:"fail_count"`
	SkipCount     int64         `json:"skip_count"`
	LastStartedAt time.Time     `json:"last_started_at,omitempty"`
	LastRunAt     time.Time     `json:"last_run_at,omitempty"`
	LastFailedAt  time.Time     `json:"last_failed_at,omitempty"`
	LastError     string        `json:"last_error,omitempty"`
}
