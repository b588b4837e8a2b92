package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

func httpMonitor(url string) *domain.Monitor {
	return &domain.Monitor{ID: "m1", Type: domain.TypeHTTP, URL: url}
}

func TestHTTPChecker_StatusOK(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	}))
	defer s.Close()

	chk := NewHTTPChecker(2 * time.Second)
	out := chk.Probe(context.Background(), httpMonitor(s.URL))
	if !out.Status {
		t.Fatalf("want success, got %+v", out)
	}
	if out.Code != 200 {
		t.Fatalf("want status 200, got %d", out.Code)
	}
	if !strings.HasPrefix(out.Message, "200") {
		t.Fatalf("want message to start with 200, got %q", out.Message)
	}
	if out.ResponseTime < 0 || out.Timings.Total < 0 {
		t.Fatalf("timings should be >= 0, got %+v", out)
	}
	if out.Payload != "ok" {
		t.Fatalf("want text payload, got %#v", out.Payload)
	}
}

func TestHTTPChecker_Status500(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", 500)
	}))
	defer s.Close()

	out := NewHTTPChecker(2*time.Second).Probe(context.Background(), httpMonitor(s.URL))
	if out.Status {
		t.Fatalf("want failure, got %+v", out)
	}
	if out.Code != 500 {
		t.Fatalf("want status 500, got %d", out.Code)
	}
}

func TestHTTPChecker_RedirectStatusCountsAsUp(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer s.Close()

	out := NewHTTPChecker(2*time.Second).Probe(context.Background(), httpMonitor(s.URL))
	if !out.Status || out.Code != http.StatusNotModified {
		t.Fatalf("want up with 304, got %+v", out)
	}
}

func TestHTTPChecker_TimeoutIsNoResponse(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(200)
	}))
	defer s.Close()

	out := NewHTTPChecker(50*time.Millisecond).Probe(context.Background(), httpMonitor(s.URL))
	if out.Status {
		t.Fatalf("want failure due to timeout, got %+v", out)
	}
	if out.Code != domain.CodeNoResponse {
		t.Fatalf("want code %d on transport error, got %d", domain.CodeNoResponse, out.Code)
	}
	if out.Message == "" {
		t.Fatalf("want non-empty error message")
	}
}

func TestHTTPChecker_SendsBearerSecret(t *testing.T) {
	var got string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer s.Close()

	m := httpMonitor(s.URL)
	m.Secret = "tok"
	NewHTTPChecker(2*time.Second).Probe(context.Background(), m)
	if got != "Bearer tok" {
		t.Fatalf("want bearer header, got %q", got)
	}
}

func TestHTTPChecker_IgnoreTLSFromMonitor(t *testing.T) {
	s := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer s.Close()

	chk := NewHTTPChecker(2 * time.Second)
	m := httpMonitor(s.URL)
	if out := chk.Probe(context.Background(), m); out.Status {
		t.Fatalf("self-signed cert should fail verification, got %+v", out)
	}
	m.IgnoreTLS = true
	if out := chk.Probe(context.Background(), m); !out.Status {
		t.Fatalf("ignore_tls should bypass verification, got %+v", out)
	}
}

func TestHTTPChecker_BodyMismatchIsMatchFailed(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"health":{"state":"degraded"}}`))
	}))
	defer s.Close()

	chk := NewHTTPChecker(2 * time.Second)
	m := httpMonitor(s.URL)
	m.JSONPath = "health.state"
	m.ExpectedValue = "ok"

	out := chk.Probe(context.Background(), m)
	if out.Status || out.Code != domain.CodeMatchFailed {
		t.Fatalf("want match failure, got %+v", out)
	}

	m.ExpectedValue = "degraded"
	if out := chk.Probe(context.Background(), m); !out.Status || out.Code != 200 {
		t.Fatalf("want match success, got %+v", out)
	}
}

func TestHTTPChecker_DNSFailureIsDiagnosed(t *testing.T) {
	chk := NewHTTPChecker(2 * time.Second)
	chk.DiagnoseDNS = func(ctx context.Context, host string) DNSStatus {
		return DNSStatus{Domain: host, Class: DNSNXDomain}
	}
	out := chk.Probe(context.Background(), httpMonitor("http://no-such-host.invalid"))
	if out.Status || out.Code != domain.CodeNoResponse {
		t.Fatalf("want no-response failure, got %+v", out)
	}
	if !strings.Contains(out.Message, "dns="+DNSNXDomain) {
		t.Fatalf("want dns class in message, got %q", out.Message)
	}
}
