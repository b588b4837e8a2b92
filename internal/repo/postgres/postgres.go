package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimeengine/internal/domain"
	"github.com/hamed0406/uptimeengine/internal/repo"
)

var _ repo.MonitorStore = (*Store)(nil)
var _ repo.CheckStore = (*Store)(nil)
var _ repo.StatsStore = (*Store)(nil)
var _ repo.AlertStateStore = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the tables the engine needs if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// monitorSpec is the operator-owned part of a monitor, stored as jsonb.
type monitorSpec struct {
	URL                   string                `json:"url,omitempty"`
	Host                  string                `json:"host,omitempty"`
	Port                  int                   `json:"port,omitempty"`
	ContainerRef          string                `json:"container_ref,omitempty"`
	GameType              string                `json:"game_type,omitempty"`
	IgnoreTLS             bool                  `json:"ignore_tls,omitempty"`
	ExpectedValue         string                `json:"expected_value,omitempty"`
	MatchMethod           domain.MatchMethod    `json:"match_method,omitempty"`
	JSONPath              string                `json:"json_path,omitempty"`
	StatusWindowSize      int                   `json:"status_window_size"`
	StatusWindowThreshold float64               `json:"status_window_threshold"`
	Thresholds            domain.Thresholds     `json:"thresholds"`
	AlertThreshold        int                   `json:"alert_threshold"`
	Notifications         []domain.Notification `json:"notifications,omitempty"`
}

func specOf(m *domain.Monitor) monitorSpec {
	return monitorSpec{
		URL:                   m.URL,
		Host:                  m.Host,
		Port:                  m.Port,
		ContainerRef:          m.ContainerRef,
		GameType:              m.GameType,
		IgnoreTLS:             m.IgnoreTLS,
		ExpectedValue:         m.ExpectedValue,
		MatchMethod:           m.MatchMethod,
		JSONPath:              m.JSONPath,
		StatusWindowSize:      m.StatusWindowSize,
		StatusWindowThreshold: m.StatusWindowThreshold,
		Thresholds:            m.Thresholds,
		AlertThreshold:        m.AlertThreshold,
		Notifications:         m.Notifications,
	}
}

func (sp monitorSpec) apply(m *domain.Monitor) {
	m.URL = sp.URL
	m.Host = sp.Host
	m.Port = sp.Port
	m.ContainerRef = sp.ContainerRef
	m.GameType = sp.GameType
	m.IgnoreTLS = sp.IgnoreTLS
	m.ExpectedValue = sp.ExpectedValue
	m.MatchMethod = sp.MatchMethod
	m.JSONPath = sp.JSONPath
	m.StatusWindowSize = sp.StatusWindowSize
	m.StatusWindowThreshold = sp.StatusWindowThreshold
	m.Thresholds = sp.Thresholds
	m.AlertThreshold = sp.AlertThreshold
	m.Notifications = sp.Notifications
}

// ---- MonitorStore ----

const monitorColumns = `id, name, type, is_active, interval_ms, secret, status, status_window,
       spec, backoff, alert_counters, created_at`

func (s *Store) Add(ctx context.Context, m *domain.Monitor) error {
	if m.ID == "" {
		m.ID = domain.MonitorID(makeID())
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO monitors (`+monitorColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		string(m.ID), m.Name, string(m.Type), m.IsActive, m.Interval.Milliseconds(), m.Secret,
		string(m.Status), windowOrEmpty(m.StatusWindow), specOf(m), m.Backoff, m.AlertCounters, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert monitor: %w", err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, m *domain.Monitor) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE monitors
		    SET name=$2, type=$3, is_active=$4, interval_ms=$5, secret=$6, status=$7,
		        status_window=$8, spec=$9, backoff=$10, alert_counters=$11
		  WHERE id=$1`,
		string(m.ID), m.Name, string(m.Type), m.IsActive, m.Interval.Milliseconds(), m.Secret,
		string(m.Status), windowOrEmpty(m.StatusWindow), specOf(m), m.Backoff, m.AlertCounters,
	)
	if err != nil {
		return fmt.Errorf("update monitor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMonitorNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id domain.MonitorID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM monitors WHERE id=$1`, string(id)); err != nil {
		return fmt.Errorf("delete monitor: %w", err)
	}
	return nil
}

func (s *Store) GetAllMonitors(ctx context.Context) ([]*domain.Monitor, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+monitorColumns+`
		   FROM monitors
		  ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list monitors: %w", err)
	}
	defer rows.Close()

	var out []*domain.Monitor
	for rows.Next() {
		m, err := scanMonitor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan monitor: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) GetMonitorByID(ctx context.Context, id domain.MonitorID) (*domain.Monitor, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+monitorColumns+` FROM monitors WHERE id=$1`, string(id))
	m, err := scanMonitor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMonitorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get monitor: %w", err)
	}
	return m, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id domain.MonitorID, status domain.Status, window []bool) error {
	err := s.execOne(ctx, "update status",
		`UPDATE monitors SET status=$2, status_window=$3 WHERE id=$1 AND is_active`,
		string(id), string(status), windowOrEmpty(window))
	if !errors.Is(err, domain.ErrMonitorNotFound) {
		return err
	}
	var exists bool
	if qerr := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM monitors WHERE id=$1)`, string(id)).Scan(&exists); qerr != nil {
		return fmt.Errorf("update status: %w", qerr)
	}
	if exists {
		return domain.ErrMonitorInactive
	}
	return err
}

// SetActive flips the active flag. Deactivating also forgets the status and
// window in the same statement.
func (s *Store) SetActive(ctx context.Context, id domain.MonitorID, active bool) error {
	return s.execOne(ctx, "set active",
		`UPDATE monitors SET
		   status        = CASE WHEN is_active AND NOT $2::boolean THEN '' ELSE status END,
		   status_window = CASE WHEN is_active AND NOT $2::boolean THEN '{}' ELSE status_window END,
		   is_active     = $2
		 WHERE id=$1`, string(id), active)
}

func (s *Store) execOne(ctx context.Context, what, q string, args ...any) error {
	tag, err := s.pool.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMonitorNotFound
	}
	return nil
}

func scanMonitor(row pgx.Row) (*domain.Monitor, error) {
	var (
		m          domain.Monitor
		id, typ    string
		status     string
		intervalMS int64
		spec       monitorSpec
	)
	err := row.Scan(&id, &m.Name, &typ, &m.IsActive, &intervalMS, &m.Secret, &status,
		&m.StatusWindow, &spec, &m.Backoff, &m.AlertCounters, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.ID = domain.MonitorID(id)
	m.Type = domain.MonitorType(typ)
	m.Status = domain.Status(status)
	m.Interval = time.Duration(intervalMS) * time.Millisecond
	spec.apply(&m)
	return &m, nil
}

func windowOrEmpty(w []bool) []bool {
	if w == nil {
		return []bool{}
	}
	return w
}

// ID format similar to memory store: 20060102Thhmmss.nnnnnnnnn
func makeID() string {
	now := time.Now().UTC()
	return now.Format("20060102T150405.") + fmt.Sprintf("%09d", now.Nanosecond())
}
