package probe

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

const portTimeout = 5 * time.Second

type PortChecker struct {
	Timeout time.Duration
}

func NewPortChecker() *PortChecker {
	return &PortChecker{Timeout: portTimeout}
}

func (p *PortChecker) Probe(ctx context.Context, m *domain.Monitor) domain.ProbeResult {
	addr := net.JoinHostPort(hostOf(m), strconv.Itoa(m.Port))
	d := net.Dialer{Timeout: p.Timeout}

	start := time.Now()
	conn, err := d.DialContext(ctx, "tcp", addr)
	elapsed := time.Since(start)
	if err != nil {
		return down(domain.CodeNoResponse, err.Error(), elapsed)
	}
	_ = conn.Close()
	return domain.ProbeResult{
		Status:       true,
		Code:         domain.CodeOK,
		Message:      "port open",
		ResponseTime: ms(elapsed),
		Timings:      domain.Timings{TCP: ms(elapsed), Total: ms(elapsed)},
	}
}

// hostOf prefers the explicit host and falls back to the URL's hostname.
func hostOf(m *domain.Monitor) string {
	if m.Host != "" {
		return m.Host
	}
	return extractHost(m.URL)
}
