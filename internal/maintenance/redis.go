package maintenance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

const keyPrefix = "maintenance:windows:"

// Redis keeps one hash per monitor, field = window ID, value = JSON window.
type Redis struct {
	client *redis.Client
	log    *zap.Logger
	now    func() time.Time
}

// NewRedis connects with a redis:// URL and pings the server.
func NewRedis(ctx context.Context, url string, log *zap.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Redis{client: client, log: log, now: time.Now}, nil
}

func (r *Redis) Close() error { return r.client.Close() }

func key(id domain.MonitorID) string { return keyPrefix + string(id) }

func (r *Redis) Add(ctx context.Context, w domain.MaintenanceWindow) (domain.MaintenanceWindow, error) {
	w = withID(w)
	b, err := json.Marshal(w)
	if err != nil {
		return w, err
	}
	if err := r.client.HSet(ctx, key(w.MonitorID), w.ID, b).Err(); err != nil {
		return w, fmt.Errorf("store window %s: %w", w.ID, err)
	}
	return w, nil
}

func (r *Redis) Remove(ctx context.Context, id domain.MonitorID, windowID string) error {
	return r.client.HDel(ctx, key(id), windowID).Err()
}

func (r *Redis) List(ctx context.Context, id domain.MonitorID) ([]domain.MaintenanceWindow, error) {
	raw, err := r.client.HGetAll(ctx, key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("load windows for %s: %w", id, err)
	}
	out := make([]domain.MaintenanceWindow, 0, len(raw))
	for field, v := range raw {
		var w domain.MaintenanceWindow
		if err := json.Unmarshal([]byte(v), &w); err != nil {
			r.log.Warn("maintenance_window_corrupt",
				zap.String("monitor_id", string(id)), zap.String("window_id", field), zap.Error(err))
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (r *Redis) IsInMaintenanceWindow(ctx context.Context, id domain.MonitorID) (bool, error) {
	ws, err := r.List(ctx, id)
	if err != nil {
		return false, err
	}
	return covered(ws, r.now()), nil
}
