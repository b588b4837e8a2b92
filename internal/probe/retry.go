package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

// Retry re-runs Inner while it fails to get any response at all. A response
// that came back down (bad status, failed match) is final.
type Retry struct {
	Inner    Handler
	Attempts int
	Backoff  time.Duration
}

func (r *Retry) Probe(ctx context.Context, m *domain.Monitor) domain.ProbeResult {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last domain.ProbeResult
	for i := 0; i < attempts; i++ {
		last = r.Inner.Probe(ctx, m)
		if last.Status || last.Code != domain.CodeNoResponse {
			return last
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return last
		case <-time.After(r.Backoff):
		}
	}
	if attempts > 1 {
		last.Message = fmt.Sprintf("%s (after %d attempts)", last.Message, attempts)
	}
	return last
}

// WithRetry wraps every handler in h with the same retry policy.
func WithRetry(h map[domain.MonitorType]Handler, attempts int, backoff time.Duration) map[domain.MonitorType]Handler {
	if attempts <= 1 {
		return h
	}
	out := make(map[domain.MonitorType]Handler, len(h))
	for t, inner := range h {
		out[t] = &Retry{Inner: inner, Attempts: attempts, Backoff: backoff}
	}
	return out
}
