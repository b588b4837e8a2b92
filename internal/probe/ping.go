package probe

import (
	"context"
	"fmt"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

const pingTimeout = 5 * time.Second

// PingFunc sends one echo request and reports whether a reply came back.
type PingFunc func(ctx context.Context, host string, timeout time.Duration) (alive bool, rtt time.Duration, err error)

type PingChecker struct {
	Timeout time.Duration
	Ping    PingFunc
}

func NewPingChecker(privileged bool) *PingChecker {
	return &PingChecker{Timeout: pingTimeout, Ping: icmpPing(privileged)}
}

func (p *PingChecker) Probe(ctx context.Context, m *domain.Monitor) domain.ProbeResult {
	start := time.Now()
	alive, rtt, err := p.Ping(ctx, hostOf(m), p.Timeout)
	if err != nil {
		return down(domain.CodeNoResponse, err.Error(), time.Since(start))
	}
	if !alive {
		return down(domain.CodeNoResponse, "no echo reply", time.Since(start))
	}
	return domain.ProbeResult{
		Status:       true,
		Code:         domain.CodeOK,
		Message:      "echo reply",
		ResponseTime: ms(rtt),
		Timings:      domain.Timings{Total: ms(rtt)},
	}
}

func icmpPing(privileged bool) PingFunc {
	return func(ctx context.Context, host string, timeout time.Duration) (bool, time.Duration, error) {
		pinger, err := probing.NewPinger(host)
		if err != nil {
			return false, 0, fmt.Errorf("resolve %s: %w", host, err)
		}
		pinger.Count = 1
		pinger.Timeout = timeout
		pinger.SetPrivileged(privileged)

		done := make(chan error, 1)
		go func() { done <- pinger.Run() }()
		select {
		case <-ctx.Done():
			pinger.Stop()
			<-done
			return false, 0, ctx.Err()
		case err := <-done:
			if err != nil {
				return false, 0, err
			}
		}
		st := pinger.Statistics()
		return st.PacketsRecv > 0, st.AvgRtt, nil
	}
}
