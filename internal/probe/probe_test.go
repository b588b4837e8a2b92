package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

func constHandler(res domain.ProbeResult) Handler {
	return HandlerFunc(func(context.Context, *domain.Monitor) domain.ProbeResult { return res })
}

func TestProber_DispatchesByType(t *testing.T) {
	p := New(map[domain.MonitorType]Handler{
		domain.TypePort: constHandler(domain.ProbeResult{Status: true, Code: domain.CodeOK}),
	})
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return at }

	res, err := p.RequestStatus(context.Background(), &domain.Monitor{ID: "m1", Type: domain.TypePort})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Status || res.MonitorID != "m1" || res.Type != domain.TypePort {
		t.Fatalf("result not filled in: %+v", res)
	}
	if !res.CheckedAt.Equal(at) {
		t.Fatalf("want checked_at %v, got %v", at, res.CheckedAt)
	}
}

func TestProber_InvalidMonitorIsError(t *testing.T) {
	p := New(map[domain.MonitorType]Handler{})

	if _, err := p.RequestStatus(context.Background(), nil); !errors.Is(err, domain.ErrInvalidMonitor) {
		t.Fatalf("nil monitor: want ErrInvalidMonitor, got %v", err)
	}
	if _, err := p.RequestStatus(context.Background(), &domain.Monitor{ID: "m1", Type: domain.TypeGame}); !errors.Is(err, domain.ErrInvalidMonitor) {
		t.Fatalf("unregistered type: want ErrInvalidMonitor, got %v", err)
	}
}

func TestProber_DoesNotMutateMonitor(t *testing.T) {
	p := New(map[domain.MonitorType]Handler{
		domain.TypeHTTP: constHandler(domain.ProbeResult{Status: false, Code: 500}),
	})
	m := &domain.Monitor{ID: "m1", Type: domain.TypeHTTP, StatusWindow: []bool{true}, Status: domain.StatusUp}
	before := m.Clone()
	if _, err := p.RequestStatus(context.Background(), m); err != nil {
		t.Fatal(err)
	}
	if m.Status != before.Status || len(m.StatusWindow) != 1 || !m.StatusWindow[0] {
		t.Fatalf("monitor mutated: %+v", m)
	}
}

// scripted returns results in order and counts calls.
type scripted struct {
	results []domain.ProbeResult
	calls   int
}

func (s *scripted) Probe(context.Context, *domain.Monitor) domain.ProbeResult {
	r := s.results[min(s.calls, len(s.results)-1)]
	s.calls++
	return r
}

func TestRetry_SucceedsAfterTransportFailure(t *testing.T) {
	inner := &scripted{results: []domain.ProbeResult{
		{Code: domain.CodeNoResponse, Message: "dial: refused"},
		{Status: true, Code: 200, Message: "200 OK"},
	}}
	r := &Retry{Inner: inner, Attempts: 3, Backoff: time.Millisecond}
	out := r.Probe(context.Background(), &domain.Monitor{})
	if !out.Status || inner.calls != 2 {
		t.Fatalf("want success on 2nd call, got %+v after %d calls", out, inner.calls)
	}
}

func TestRetry_DoesNotRetryHTTPFailure(t *testing.T) {
	inner := &scripted{results: []domain.ProbeResult{{Code: 503, Message: "503"}}}
	r := &Retry{Inner: inner, Attempts: 3}
	out := r.Probe(context.Background(), &domain.Monitor{})
	if out.Status || inner.calls != 1 {
		t.Fatalf("a real response must not be retried, calls=%d", inner.calls)
	}
}

func TestRetry_AllFailAnnotates(t *testing.T) {
	inner := &scripted{results: []domain.ProbeResult{{Code: domain.CodeNoResponse, Message: "timeout"}}}
	r := &Retry{Inner: inner, Attempts: 2}
	out := r.Probe(context.Background(), &domain.Monitor{})
	if out.Status || inner.calls != 2 {
		t.Fatalf("want 2 failing calls, got %d", inner.calls)
	}
	if out.Message != "timeout (after 2 attempts)" {
		t.Fatalf("unexpected message %q", out.Message)
	}
}

func TestRetry_StopsOnCancel(t *testing.T) {
	inner := &scripted{results: []domain.ProbeResult{{Code: domain.CodeNoResponse}}}
	r := &Retry{Inner: inner, Attempts: 5, Backoff: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Probe(ctx, &domain.Monitor{})
	if inner.calls != 1 {
		t.Fatalf("want a single call after cancel, got %d", inner.calls)
	}
}

func TestWithRetry_SingleAttemptKeepsHandlers(t *testing.T) {
	h := map[domain.MonitorType]Handler{domain.TypeHTTP: constHandler(domain.ProbeResult{})}
	if got := WithRetry(h, 1, 0); got[domain.TypeHTTP] != h[domain.TypeHTTP] {
		t.Fatalf("handler should not be wrapped for a single attempt")
	}
	if _, ok := WithRetry(h, 3, 0)[domain.TypeHTTP].(*Retry); !ok {
		t.Fatalf("handler should be wrapped")
	}
}
