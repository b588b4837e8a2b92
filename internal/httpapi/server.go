package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimeengine/internal/domain"
	apimw "github.com/hamed0406/uptimeengine/internal/httpapi/middleware"
	"github.com/hamed0406/uptimeengine/internal/maintenance"
	"github.com/hamed0406/uptimeengine/internal/repo"
	"github.com/hamed0406/uptimeengine/internal/scheduler"
)

// Monitors is the lifecycle surface the API drives.
type Monitors interface {
	Add(ctx context.Context, m *domain.Monitor) error
	Update(ctx context.Context, m *domain.Monitor) error
	Pause(ctx context.Context, id domain.MonitorID) error
	Resume(ctx context.Context, id domain.MonitorID) error
	Delete(ctx context.Context, id domain.MonitorID) error
}

// Jobs is the read side of the scheduler.
type Jobs interface {
	GetJobs() []domain.Job
	GetJob(id domain.MonitorID) (domain.Job, error)
	GetMetrics() scheduler.Metrics
	Health() scheduler.Health
}

type Server struct {
	Logger      *zap.Logger
	Monitors    Monitors
	Store       repo.MonitorStore
	Jobs        Jobs
	Maintenance maintenance.Store // nil disables the maintenance routes
}

func NewServer(l *zap.Logger, mons Monitors, store repo.MonitorStore, jobs Jobs, maint maintenance.Store) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Monitors: mons, Store: store, Jobs: jobs, Maintenance: maint}
}

// Limits are per-IP request budgets; RPM <= 0 disables the limit.
type Limits struct {
	PublicRPM, PublicBurst int
	AdminRPM, AdminBurst   int
}

// Router builds the operator API. With no allowed origins CORS is open.
func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, lim Limits) http.Handler {
	r := chi.NewRouter()
	if len(allowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(apimw.RateLimit(lim.PublicRPM, lim.PublicBurst), apimw.RequireAny(keys))
			r.Get("/jobs", s.handleListJobs)
			r.Get("/jobs/metrics", s.handleJobMetrics)
			r.Get("/jobs/health", s.handleJobHealth)
			r.Get("/jobs/{id}", s.handleGetJob)
			r.Get("/monitors", s.handleListMonitors)
			r.Get("/monitors/{id}", s.handleGetMonitor)
			r.Get("/monitors/{id}/maintenance", s.handleListMaintenance)
		})
		r.Group(func(r chi.Router) {
			r.Use(apimw.RateLimit(lim.AdminRPM, lim.AdminBurst), apimw.RequireAdmin(keys))
			r.Post("/monitors", s.handleAddMonitor)
			r.Put("/monitors/{id}", s.handleUpdateMonitor)
			r.Delete("/monitors/{id}", s.handleDeleteMonitor)
			r.Post("/monitors/{id}/pause", s.handlePause)
			r.Post("/monitors/{id}/resume", s.handleResume)
			r.Post("/monitors/{id}/maintenance", s.handleAddMaintenance)
			r.Delete("/monitors/{id}/maintenance/{windowID}", s.handleRemoveMaintenance)
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func monitorID(r *http.Request) domain.MonitorID {
	return domain.MonitorID(chi.URLParam(r, "id"))
}

// fail maps lifecycle errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, op string, id domain.MonitorID, err error) {
	switch {
	case errors.Is(err, domain.ErrMonitorNotFound), errors.Is(err, scheduler.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidMonitor):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, scheduler.ErrJobExists):
		writeError(w, http.StatusConflict, "already exists")
	default:
		s.Logger.Error(op+"_error", zap.String("monitor_id", string(id)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, op+" failed")
	}
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Jobs.GetJobs())
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.Jobs.GetJob(monitorID(r))
	if err != nil {
		s.fail(w, "get_job", monitorID(r), err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleJobMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Jobs.GetMetrics())
}

func (s *Server) handleJobHealth(w http.ResponseWriter, r *http.Request) {
	h := s.Jobs.Health()
	code := http.StatusOK
	if !h.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, h)
}

func (s *Server) handleListMonitors(w http.ResponseWriter, r *http.Request) {
	ms, err := s.Store.GetAllMonitors(r.Context())
	if err != nil {
		s.fail(w, "list_monitors", "", err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

func (s *Server) handleGetMonitor(w http.ResponseWriter, r *http.Request) {
	m, err := s.Store.GetMonitorByID(r.Context(), monitorID(r))
	if err != nil {
		s.fail(w, "get_monitor", monitorID(r), err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// monitorPayload lets the secret through, which the monitor JSON hides.
type monitorPayload struct {
	domain.Monitor
	Secret string `json:"secret"`
}

func decodeMonitor(r *http.Request) (*domain.Monitor, error) {
	var p monitorPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return nil, err
	}
	m := p.Monitor.Clone()
	m.Secret = p.Secret
	if m.URL != "" {
		if !isValidHTTPURL(m.URL) {
			return nil, errors.New("url must be absolute http(s)")
		}
		m.URL = normalizeHTTPURL(m.URL)
	}
	if m.Interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	return m, nil
}

func (s *Server) handleAddMonitor(w http.ResponseWriter, r *http.Request) {
	m, err := decodeMonitor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad payload: "+err.Error())
		return
	}
	if m.ID == "" {
		m.ID = domain.MonitorID(uuid.NewString())
	}
	m.CreatedAt = time.Now().UTC()
	if err := s.Monitors.Add(r.Context(), m); err != nil {
		s.fail(w, "add_monitor", m.ID, err)
		return
	}
	s.Logger.Info("added_monitor", zap.String("monitor_id", string(m.ID)), zap.String("type", string(m.Type)))
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleUpdateMonitor(w http.ResponseWriter, r *http.Request) {
	m, err := decodeMonitor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad payload: "+err.Error())
		return
	}
	m.ID = monitorID(r)
	if err := s.Monitors.Update(r.Context(), m); err != nil {
		s.fail(w, "update_monitor", m.ID, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMonitor(w http.ResponseWriter, r *http.Request) {
	id := monitorID(r)
	if err := s.Monitors.Delete(r.Context(), id); err != nil {
		s.fail(w, "delete_monitor", id, err)
		return
	}
	s.Logger.Info("deleted_monitor", zap.String("monitor_id", string(id)))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	id := monitorID(r)
	if err := s.Monitors.Pause(r.Context(), id); err != nil {
		s.fail(w, "pause", id, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "active": false})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	id := monitorID(r)
	if err := s.Monitors.Resume(r.Context(), id); err != nil {
		s.fail(w, "resume", id, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "active": true})
}

func (s *Server) handleListMaintenance(w http.ResponseWriter, r *http.Request) {
	if s.Maintenance == nil {
		writeError(w, http.StatusNotImplemented, "maintenance windows disabled")
		return
	}
	ws, err := s.Maintenance.List(r.Context(), monitorID(r))
	if err != nil {
		s.fail(w, "list_maintenance", monitorID(r), err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (s *Server) handleAddMaintenance(w http.ResponseWriter, r *http.Request) {
	if s.Maintenance == nil {
		writeError(w, http.StatusNotImplemented, "maintenance windows disabled")
		return
	}
	var win domain.MaintenanceWindow
	if err := json.NewDecoder(r.Body).Decode(&win); err != nil || !win.End.After(win.Start) {
		writeError(w, http.StatusBadRequest, "bad payload: end must be after start")
		return
	}
	win.MonitorID = monitorID(r)
	saved, err := s.Maintenance.Add(r.Context(), win)
	if err != nil {
		s.fail(w, "add_maintenance", win.MonitorID, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleRemoveMaintenance(w http.ResponseWriter, r *http.Request) {
	if s.Maintenance == nil {
		writeError(w, http.StatusNotImplemented, "maintenance windows disabled")
		return
	}
	if err := s.Maintenance.Remove(r.Context(), monitorID(r), chi.URLParam(r, "windowID")); err != nil {
		s.fail(w, "remove_maintenance", monitorID(r), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func isValidHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// normalizeHTTPURL lowercases the host, drops default ports and a bare
// trailing slash.
func normalizeHTTPURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if p := u.Port(); p != "" && !(u.Scheme == "http" && p == "80") && !(u.Scheme == "https" && p == "443") {
		host += ":" + p
	}
	u.Host = host
	if u.Path == "/" {
		u.Path = ""
	}
	return u.String()
}
