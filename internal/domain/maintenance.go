package domain

import "time"

// MaintenanceWindow suppresses probing of a monitor between Start and End.
// A non-zero Repeat shifts the window forward by that period indefinitely.
type MaintenanceWindow struct {
	ID        string        `json:"id"`
	MonitorID MonitorID     `json:"monitor_id"`
	Active    bool          `json:"active"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	Repeat    time.Duration `json:"repeat,omitempty"`
}

func (w MaintenanceWindow) Covers(now time.Time) bool {
	if !w.Active || !w.End.After(w.Start) || now.Before(w.Start) {
		return false
	}
	if w.Repeat <= 0 {
		return now.Before(w.End)
	}
	// align to the latest occurrence that started at or before now
	periods := now.Sub(w.Start) / w.Repeat
	start := w.Start.Add(periods * w.Repeat)
	return now.Before(start.Add(w.End.Sub(w.Start)))
}
