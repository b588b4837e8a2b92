package notify

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/uptimeengine/internal/domain"
	"github.com/hamed0406/uptimeengine/internal/repo"
	"github.com/hamed0406/uptimeengine/internal/status"
)

const (
	metricCPU         = "cpu"
	metricMemory      = "memory"
	metricDisk        = "disk"
	metricTemperature = "temperature"
)

// Dispatcher decides whether an outcome warrants an alert and fans it out to
// the monitor's channels.
type Dispatcher struct {
	settings domain.SettingsProvider
	alerts   repo.AlertStateStore
	sender   Sender
	log      *zap.Logger
	now      func() time.Time
	rand     func() float64
}

func NewDispatcher(settings domain.SettingsProvider, alerts repo.AlertStateStore, sender Sender, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		settings: settings,
		alerts:   alerts,
		sender:   sender,
		log:      log,
		now:      time.Now,
		rand:     rand.Float64,
	}
}

// HandleNotifications reports whether an alert went out to every channel.
// A false result with a nil error means nothing was due.
func (d *Dispatcher) HandleNotifications(ctx context.Context, out status.Outcome) (bool, error) {
	m := out.Monitor
	if m == nil || len(m.Notifications) == 0 {
		return false, nil
	}
	s, err := d.settings.Settings(ctx)
	if err != nil {
		return false, fmt.Errorf("load settings: %w", err)
	}
	pol := policyFor(s.Backoff, m.Backoff)
	now := d.now().UTC()

	if m.Type == domain.TypeHardware {
		if hw, ok := out.Result.Payload.(domain.HardwareMetrics); ok {
			return d.handleHardware(ctx, m, hw, pol, now)
		}
	}
	return d.handleTransition(ctx, out, pol, now)
}

func (d *Dispatcher) handleTransition(ctx context.Context, out status.Outcome, pol policy, now time.Time) (bool, error) {
	m := out.Monitor
	if !out.StatusChanged || out.PrevStatus == domain.StatusUnknown {
		return false, nil
	}
	recovery := out.PrevStatus == domain.StatusDown && m.Status == domain.StatusUp
	if !recovery && !pol.allow(m.Backoff, now) {
		d.log.Info("notification_suppressed",
			zap.String("monitor_id", string(m.ID)),
			zap.Duration("current_delay", m.Backoff.CurrentDelay))
		return false, nil
	}

	sent, err := d.fanOut(ctx, m, statusMessage(m, out.Result, now))
	if recovery {
		// recoveries never extend the delay of the outage alerts
		return sent, err
	}
	pol.advance(&m.Backoff, now, d.rand)
	if serr := d.alerts.SaveBackoff(ctx, m.ID, m.Backoff); serr != nil {
		err = multierr.Append(err, fmt.Errorf("save backoff: %w", serr))
	}
	return sent, err
}

// handleHardware counts consecutive breaches per metric. A metric alerts when
// its counter runs out, after which the counter starts over. Counters are
// saved on every check; the time gate applies only once something fires.
func (d *Dispatcher) handleHardware(ctx context.Context, m *domain.Monitor, hw domain.HardwareMetrics, pol policy, now time.Time) (bool, error) {
	start := domain.DeriveMetricThresholds(m)
	if m.AlertCounters == (domain.AlertCounters{}) {
		m.AlertCounters = start
	}
	c := &m.AlertCounters
	var breached []string
	step := func(name string, counter *int, initial int, limit, value float64) {
		if limit <= 0 || value <= limit {
			*counter = initial
			return
		}
		*counter--
		if *counter <= 0 {
			breached = append(breached, name)
			*counter = initial
		}
	}
	step(metricCPU, &c.CPU, start.CPU, m.Thresholds.CPU, hw.CPU.UsagePercent)
	step(metricMemory, &c.Memory, start.Memory, m.Thresholds.Memory, hw.Memory.UsagePercent)
	step(metricDisk, &c.Disk, start.Disk, m.Thresholds.Disk, hw.MaxDiskUsage())
	step(metricTemperature, &c.Temperature, start.Temperature, m.Thresholds.Temperature, hw.CPU.Temperature)

	var err error
	if serr := d.alerts.SaveAlertCounters(ctx, m.ID, m.AlertCounters); serr != nil {
		err = fmt.Errorf("save alert counters: %w", serr)
	}
	if len(breached) == 0 {
		return false, err
	}
	if !pol.allow(m.Backoff, now) {
		d.log.Info("notification_suppressed",
			zap.String("monitor_id", string(m.ID)), zap.Strings("metrics", breached))
		return false, err
	}

	sent, serr := d.fanOut(ctx, m, hardwareMessage(m, hw, breached, now))
	err = multierr.Append(err, serr)
	pol.advance(&m.Backoff, now, d.rand)
	if serr := d.alerts.SaveBackoff(ctx, m.ID, m.Backoff); serr != nil {
		err = multierr.Append(err, fmt.Errorf("save backoff: %w", serr))
	}
	return sent, err
}

// fanOut sends to every channel at once and waits for all of them. One
// channel failing never stops the others.
func (d *Dispatcher) fanOut(ctx context.Context, m *domain.Monitor, msg Message) (bool, error) {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs error
	)
	for _, n := range m.Notifications {
		n := n
		g.Go(func() error {
			if err := d.sender.Send(ctx, n, msg); err != nil {
				d.log.Warn("notification_failed",
					zap.String("monitor_id", string(m.ID)),
					zap.String("channel", string(n.Type)),
					zap.Error(err))
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s %s: %w", n.Type, n.ID, err))
				mu.Unlock()
				return nil
			}
			d.log.Info("notification_sent",
				zap.String("monitor_id", string(m.ID)),
				zap.String("channel", string(n.Type)))
			return nil
		})
	}
	_ = g.Wait()
	return errs == nil, errs
}
