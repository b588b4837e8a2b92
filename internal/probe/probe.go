package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

// Handler probes one protocol. Implementations never return errors: every
// network failure is folded into a down result.
type Handler interface {
	Probe(ctx context.Context, m *domain.Monitor) domain.ProbeResult
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, m *domain.Monitor) domain.ProbeResult

func (f HandlerFunc) Probe(ctx context.Context, m *domain.Monitor) domain.ProbeResult {
	return f(ctx, m)
}

// Prober dispatches a monitor to the handler registered for its type.
// It performs no persistence and never mutates the monitor.
type Prober struct {
	handlers map[domain.MonitorType]Handler
	now      func() time.Time
}

func New(handlers map[domain.MonitorType]Handler) *Prober {
	hs := make(map[domain.MonitorType]Handler, len(handlers))
	for t, h := range handlers {
		hs[t] = h
	}
	return &Prober{handlers: hs, now: time.Now}
}

// RequestStatus runs one probe. The error is reserved for faults that are not
// about the target at all: a malformed monitor or an unregistered type.
func (p *Prober) RequestStatus(ctx context.Context, m *domain.Monitor) (domain.ProbeResult, error) {
	if err := m.Validate(); err != nil {
		return domain.ProbeResult{}, err
	}
	h, ok := p.handlers[m.Type]
	if !ok {
		return domain.ProbeResult{}, fmt.Errorf("%w: no handler for type %q", domain.ErrInvalidMonitor, m.Type)
	}
	res := h.Probe(ctx, m)
	res.MonitorID = m.ID
	res.Type = m.Type
	if res.CheckedAt.IsZero() {
		res.CheckedAt = p.now().UTC()
	}
	return res, nil
}

func down(code int, msg string, elapsed time.Duration) domain.ProbeResult {
	return domain.ProbeResult{Status: false, Code: code, Message: msg, ResponseTime: ms(elapsed)}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Options configures the default handler set.
type Options struct {
	HTTPTimeout   time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
	Settings      domain.SettingsProvider
	// Privileged selects raw ICMP sockets for ping; otherwise UDP pings are used.
	Privileged bool
	// Docker overrides the Engine API client; nil connects from the environment.
	Docker ContainerInspector
}

// NewDefault wires a handler for every monitor type.
func NewDefault(opts Options) *Prober {
	h := NewHTTPChecker(opts.HTTPTimeout)
	docker := &DockerChecker{Inspector: opts.Docker}
	if opts.Docker == nil {
		docker = NewDockerChecker()
	}
	handlers := map[domain.MonitorType]Handler{
		domain.TypeHTTP:      h,
		domain.TypePing:      NewPingChecker(opts.Privileged),
		domain.TypePort:      NewPortChecker(),
		domain.TypeDocker:    docker,
		domain.TypeGame:      NewGameChecker(),
		domain.TypePageSpeed: NewPageSpeedChecker(h, opts.Settings),
		domain.TypeHardware:  NewHardwareChecker(h),
	}
	return New(WithRetry(handlers, opts.RetryAttempts, opts.RetryBackoff))
}
