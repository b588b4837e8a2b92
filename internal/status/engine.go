package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimeengine/internal/domain"
	"github.com/hamed0406/uptimeengine/internal/repo"
)

// Sink accepts check records for deferred persistence. It must not block.
type Sink interface {
	AddToBuffer(record any)
}

// Outcome is what one probe result did to its monitor.
type Outcome struct {
	Monitor       *domain.Monitor
	Result        domain.ProbeResult
	StatusChanged bool
	PrevStatus    domain.Status
	// Paused is set when the monitor was paused while this result was in
	// flight; its status was left alone.
	Paused        bool
	Timestamp     time.Time
}

// Engine turns probe results into checks, stats and hysteresis-smoothed
// monitor status.
type Engine struct {
	monitors repo.MonitorStore
	stats    repo.StatsStore
	sink     Sink
	bus      *Bus
	log      *zap.Logger
	now      func() time.Time
}

func NewEngine(monitors repo.MonitorStore, stats repo.StatsStore, sink Sink, bus *Bus, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if bus == nil {
		bus = NewBus()
	}
	return &Engine{monitors: monitors, stats: stats, sink: sink, bus: bus, log: log, now: time.Now}
}

func (e *Engine) Bus() *Bus { return e.bus }

func (e *Engine) UpdateStatus(ctx context.Context, res domain.ProbeResult) (Outcome, error) {
	m, err := e.monitors.GetMonitorByID(ctx, res.MonitorID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load monitor %s: %w", res.MonitorID, err)
	}
	now := e.now().UTC()

	e.sink.AddToBuffer(buildCheck(m, res, now))

	if err := e.recordStats(ctx, m.ID, res, now); err != nil {
		// stats are an aggregate view; the status decision must still happen
		e.log.Error("stats_update_error", zap.String("monitor_id", string(m.ID)), zap.Error(err))
	}

	prev := m.Status
	size := m.WindowSize()
	window := Push(m.StatusWindow, res.Status, size)
	next, changed := Evaluate(window, size, m.StatusWindowThreshold, prev)

	err = e.monitors.UpdateStatus(ctx, m.ID, next, window)
	if errors.Is(err, domain.ErrMonitorInactive) {
		e.log.Debug("status_skipped_paused", zap.String("monitor_id", string(m.ID)))
		return Outcome{Monitor: m, Result: res, PrevStatus: prev, Paused: true, Timestamp: now}, nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("persist status %s: %w", m.ID, err)
	}
	m.StatusWindow = window
	m.Status = next

	out := Outcome{Monitor: m, Result: res, StatusChanged: changed, PrevStatus: prev, Timestamp: now}
	if changed {
		e.log.Info("status_changed",
			zap.String("monitor_id", string(m.ID)),
			zap.String("from", prev.String()),
			zap.String("to", next.String()))
		e.bus.Publish(Event{MonitorID: m.ID, Name: m.Name, From: prev, To: next, At: now})
	}
	return out, nil
}

func (e *Engine) recordStats(ctx context.Context, id domain.MonitorID, res domain.ProbeResult, now time.Time) error {
	s, err := e.stats.GetStats(ctx, id)
	if err != nil {
		return err
	}
	s.MonitorID = id
	s.Record(res.Status, res.ResponseTime, now)
	return e.stats.UpsertStats(ctx, s)
}

// Push appends v and drops the oldest samples beyond size. A size below one
// keeps only v.
func Push(window []bool, v bool, size int) []bool {
	size = max(size, 1)
	window = append(window, v)
	if len(window) > size {
		window = append([]bool(nil), window[len(window)-size:]...)
	}
	return window
}

// Evaluate applies the hysteresis rule to a window. Nothing changes until the
// window is full. A failure rate strictly above threshold takes a monitor
// down; a rate at or below it brings it up. The bias toward recovery is
// intentional.
func Evaluate(window []bool, size int, threshold float64, current domain.Status) (domain.Status, bool) {
	if size <= 0 || len(window) < size {
		return current, false
	}
	failures := 0
	for _, ok := range window {
		if !ok {
			failures++
		}
	}
	rate := float64(failures) / float64(len(window))

	switch {
	case rate > threshold && current != domain.StatusDown:
		return domain.StatusDown, true
	case rate <= threshold && current != domain.StatusUp:
		return domain.StatusUp, true
	}
	return current, false
}

func buildCheck(m *domain.Monitor, res domain.ProbeResult, now time.Time) any {
	c := domain.Check{
		ID:           uuid.NewString(),
		MonitorID:    m.ID,
		Type:         m.Type,
		Status:       res.Status,
		StatusCode:   res.Code,
		ResponseTime: res.ResponseTime,
		Message:      res.Message,
		Timings:      res.Timings,
		CreatedAt:    now,
	}
	switch m.Type {
	case domain.TypePageSpeed:
		pc := domain.PageSpeedCheck{Check: c}
		if r, ok := res.Payload.(domain.PageSpeedReport); ok {
			pc.Accessibility = r.Accessibility
			pc.BestPractices = r.BestPractices
			pc.SEO = r.SEO
			pc.Performance = r.Performance
			pc.Audits = r.Audits
		}
		return pc
	case domain.TypeHardware:
		hc := domain.HardwareCheck{Check: c}
		if hm, ok := res.Payload.(domain.HardwareMetrics); ok {
			hc.HardwareMetrics = hm
		}
		return hc
	}
	return c
}
