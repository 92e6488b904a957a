// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"onboarding-engine/internal/common/config"
	"onboarding-engine/internal/common/logger"
	"onboarding-engine/internal/onboarding"
)

// HealthCheck probes one backing dependency for the health endpoint.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// Server is the HTTP surface over the onboarding engine.
type Server struct {
	engine *onboarding.Engine
	logger logger.Logger
	http   *http.Server
	checks []HealthCheck
}

func NewServer(cfg config.ServerConfig, engine *onboarding.Engine, log logger.Logger) *Server {
	s := &Server{
		engine: engine,
		logger: log.WithFields(map[string]interface{}{"component": "api"}),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Duration(cfg.WriteTimeout) * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Post("/answers", s.handleSubmitAnswer)
			r.Post("/rewind", s.handleRewind)
			r.Get("/search", s.handleLiveSearch)
			r.Get("/results", s.handleResults)
		})
	})

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}
	return s
}

// AddHealthCheck registers a dependency probe for /healthz. Must be called
// before the server starts serving.
func (s *Server) AddHealthCheck(name string, ping func(ctx context.Context) error) {
	s.checks = append(s.checks, HealthCheck{Name: name, Ping: ping})
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", map[string]interface{}{
		"addr": s.http.Addr,
	})
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(s.checks))
	for _, check := range s.checks {
		if err := check.Ping(ctx); err != nil {
			components[check.Name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		components[check.Name] = "up"
	}

	body := map[string]interface{}{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(components) > 0 {
		body["components"] = components
	}
	writeJSON(w, status, body)
}
