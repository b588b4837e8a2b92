package probe

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/rumblefrog/go-a2s"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

// GameInfo is the subset of an A2S_INFO reply kept as the probe payload.
type GameInfo struct {
	Name       string `json:"name"`
	Map        string `json:"map"`
	Game       string `json:"game"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"max_players"`
}

// GameQueryFunc asks a game server for its info.
type GameQueryFunc func(ctx context.Context, addr string, timeout time.Duration) (GameInfo, error)

type GameChecker struct {
	Timeout time.Duration
	Query   GameQueryFunc
}

func NewGameChecker() *GameChecker {
	return &GameChecker{Timeout: 5 * time.Second, Query: a2sQuery}
}

func (g *GameChecker) Probe(ctx context.Context, m *domain.Monitor) domain.ProbeResult {
	host := hostOf(m)
	if host == "" || m.Port <= 0 {
		return down(domain.CodeNoResponse, "game monitor needs host and port", 0)
	}
	addr := net.JoinHostPort(host, strconv.Itoa(m.Port))

	start := time.Now()
	info, err := g.Query(ctx, addr, g.Timeout)
	elapsed := time.Since(start)
	if err != nil {
		return down(domain.CodeNoResponse, err.Error(), elapsed)
	}
	return domain.ProbeResult{
		Status:       true,
		Code:         domain.CodeOK,
		Message:      info.Name,
		ResponseTime: ms(elapsed),
		Payload:      info,
	}
}

// a2sQuery speaks the Source query protocol. The library call is blocking and
// bounded by its own timeout, so ctx is only checked up front.
func a2sQuery(ctx context.Context, addr string, timeout time.Duration) (GameInfo, error) {
	if err := ctx.Err(); err != nil {
		return GameInfo{}, err
	}
	client, err := a2s.NewClient(addr, a2s.TimeoutOption(timeout))
	if err != nil {
		return GameInfo{}, err
	}
	defer client.Close()

	info, err := client.QueryInfo()
	if err != nil {
		return GameInfo{}, err
	}
	return GameInfo{
		Name:       info.Name,
		Map:        info.Map,
		Game:       info.Game,
		Players:    int(info.Players),
		MaxPlayers: int(info.MaxPlayers),
	}, nil
}
