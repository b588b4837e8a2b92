package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimeengine/internal/domain"
	"github.com/hamed0406/uptimeengine/internal/status"
)

type Prober interface {
	RequestStatus(ctx context.Context, m *domain.Monitor) (domain.ProbeResult, error)
}

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, res domain.ProbeResult) (status.Outcome, error)
}

type Notifier interface {
	HandleNotifications(ctx context.Context, out status.Outcome) (bool, error)
}

// Pipeline is one scheduler tick: probe, fold the result into status, alert.
type Pipeline struct {
	prober   Prober
	status   StatusUpdater
	notifier Notifier
	log      *zap.Logger
}

func NewPipeline(p Prober, s StatusUpdater, n Notifier, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{prober: p, status: s, notifier: n, log: log}
}

// Run returns an error only for faults that should count against the job.
// Alert delivery problems are logged by the notifier and here, nothing more.
func (p *Pipeline) Run(ctx context.Context, m *domain.Monitor) error {
	res, err := p.prober.RequestStatus(ctx, m)
	if err != nil {
		return fmt.Errorf("probe %s: %w", m.ID, err)
	}
	out, err := p.status.UpdateStatus(ctx, res)
	if err != nil {
		return fmt.Errorf("update status %s: %w", m.ID, err)
	}
	p.log.Debug("monitor_checked",
		zap.String("monitor_id", string(m.ID)),
		zap.Bool("up", res.Status),
		zap.Int("code", res.Code),
		zap.Float64("response_time_ms", res.ResponseTime),
		zap.String("status", out.Monitor.Status.String()))
	if out.Paused {
		return nil
	}

	if _, err := p.notifier.HandleNotifications(ctx, out); err != nil {
		p.log.Warn("notification_error", zap.String("monitor_id", string(m.ID)), zap.Error(err))
	}
	return nil
}
