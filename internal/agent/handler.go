package agent

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/uptimeengine/internal/httpapi/middleware"
)

type envelope struct {
	Data any `json:"data"`
}

// Handler serves the metrics endpoint polled by hardware monitors. With an
// empty secret the endpoint is open.
func Handler(c Collector, secret string, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	var keys apimw.Keys
	if secret != "" {
		keys.Public = []string{secret}
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.With(apimw.RequireAny(keys)).Get("/api/v1/metrics", func(w http.ResponseWriter, r *http.Request) {
		m := c.Collect(r.Context())
		if len(m.Errors) > 0 {
			log.Warn("agent_partial_metrics", zap.Int("errors", len(m.Errors)))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(envelope{Data: m})
	})
	return r
}
