package probe

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"strings"
	"sync"
	"time"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

const maxBodyBytes = 1 << 20

type HTTPChecker struct {
	Client         *http.Client
	InsecureClient *http.Client // used when the monitor asks to skip TLS verification
	// DiagnoseDNS runs on DNS transport failures to refine the message.
	// Nil disables the extra lookups.
	DiagnoseDNS func(ctx context.Context, host string) DNSStatus
}

func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	insecure := http.DefaultTransport.(*http.Transport).Clone()
	insecure.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	return &HTTPChecker{
		Client:         &http.Client{Timeout: timeout},
		InsecureClient: &http.Client{Timeout: timeout, Transport: insecure},
		DiagnoseDNS: func(ctx context.Context, host string) DNSStatus {
			return DiagnoseDNS(ctx, nil, host)
		},
	}
}

// Probe issues a GET against m.URL. TLS bypass and bearer auth are taken from
// the monitor passed in; nothing is looked up again.
func (h *HTTPChecker) Probe(ctx context.Context, m *domain.Monitor) domain.ProbeResult {
	res, body := h.fetch(ctx, m.URL, m.Secret, m.IgnoreTLS)
	if !res.Status || (m.ExpectedValue == "" && m.JSONPath == "") {
		return res
	}
	ok, msg := matchBody(body, m)
	if !ok {
		res.Status = false
		res.Code = domain.CodeMatchFailed
		res.Message = msg
	}
	return res
}

// fetch performs the request and returns the normalized result plus the raw
// body (nil on transport failure). Other handlers build on it.
func (h *HTTPChecker) fetch(ctx context.Context, target, secret string, ignoreTLS bool) (domain.ProbeResult, []byte) {
	tr := &traceTimes{}
	ctx = httptrace.WithClientTrace(ctx, tr.clientTrace())

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return down(domain.CodeNoResponse, err.Error(), 0), nil
	}
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}

	client := h.Client
	if ignoreTLS && h.InsecureClient != nil {
		client = h.InsecureClient
	}
	resp, err := client.Do(req)
	if err != nil {
		res := down(domain.CodeNoResponse, err.Error(), time.Since(start))
		if h.DiagnoseDNS != nil && isDNSError(err) {
			dns := h.DiagnoseDNS(ctx, extractHost(target))
			res.Message = strings.TrimSpace(fmt.Sprintf("%s dns=%s", res.Message, dns.Class))
		}
		res.Timings = tr.timings(time.Since(start))
		return res, nil
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	elapsed := time.Since(start)

	res := domain.ProbeResult{
		Status:       resp.StatusCode >= 200 && resp.StatusCode < 400,
		Code:         resp.StatusCode,
		Message:      resp.Status,
		ResponseTime: ms(elapsed),
		Timings:      tr.timings(elapsed),
	}
	if readErr != nil {
		res.Status = false
		res.Message = "read body: " + readErr.Error()
		return res, nil
	}
	res.Payload = payloadOf(resp.Header.Get("Content-Type"), body)
	return res, body
}

func payloadOf(contentType string, body []byte) any {
	if strings.Contains(contentType, "json") {
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			return v
		}
	}
	const maxText = 1024
	if len(body) > maxText {
		return string(body[:maxText])
	}
	return string(body)
}

// traceTimes collects connection phase timestamps. Dial callbacks may fire on
// other goroutines, hence the mutex.
type traceTimes struct {
	mu                  sync.Mutex
	dnsStart, dnsDone   time.Time
	connStart, connDone time.Time
	tlsStart, tlsDone   time.Time
	start, firstByte    time.Time
}

func (t *traceTimes) set(dst *time.Time) {
	t.mu.Lock()
	*dst = time.Now()
	t.mu.Unlock()
}

func (t *traceTimes) clientTrace() *httptrace.ClientTrace {
	t.start = time.Now()
	return &httptrace.ClientTrace{
		DNSStart:             func(httptrace.DNSStartInfo) { t.set(&t.dnsStart) },
		DNSDone:              func(httptrace.DNSDoneInfo) { t.set(&t.dnsDone) },
		ConnectStart:         func(string, string) { t.set(&t.connStart) },
		ConnectDone:          func(string, string, error) { t.set(&t.connDone) },
		TLSHandshakeStart:    func() { t.set(&t.tlsStart) },
		TLSHandshakeDone:     func(tls.ConnectionState, error) { t.set(&t.tlsDone) },
		GotFirstResponseByte: func() { t.set(&t.firstByte) },
	}
}

func (t *traceTimes) timings(total time.Duration) domain.Timings {
	t.mu.Lock()
	defer t.mu.Unlock()
	span := func(a, b time.Time) float64 {
		if a.IsZero() || b.IsZero() {
			return 0
		}
		return ms(b.Sub(a))
	}
	return domain.Timings{
		DNS:   span(t.dnsStart, t.dnsDone),
		TCP:   span(t.connStart, t.connDone),
		TLS:   span(t.tlsStart, t.tlsDone),
		TTFB:  span(t.start, t.firstByte),
		Total: ms(total),
	}
}
