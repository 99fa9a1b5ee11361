package server

import (
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pixelgate/pixelgate/internal/observability"
	"github.com/pixelgate/pixelgate/internal/server/handlers"
)

func (s *Server) registerRoutes() {
	health := s.opts.Health
	s.router.Get("/health", health.Handler(handlers.ProbeAggregate))
	s.router.Get("/health/live", health.Handler(handlers.ProbeLive))
	s.router.Get("/health/ready", health.Handler(handlers.ProbeReady))
	s.router.Get("/health/startup", health.Handler(handlers.ProbeStartup))

	var tracker handlers.AdmissionTracker
	if s.opts.Images != nil {
		tracker = s.opts.Images.Tracker
	}
	s.router.Get("/version", handlers.VersionHandler(s.opts.Identity, s.opts.Build, tracker))
	s.router.Get("/metrics", MetricsHandler)

	if s.opts.Images != nil {
		s.router.Route("/v1", func(r chi.Router) {
			r.Post("/images", s.opts.Images.Generate)
			r.Get("/quota", s.opts.Images.Quota)
		})
	}

	s.registerAdminEndpoint()
}

// registerAdminEndpoint exposes signal delivery over HTTP when a token is set.
func (s *Server) registerAdminEndpoint() {
	logger := observability.ServerLogger
	if s.opts.AdminToken == "" {
		if logger != nil {
			logger.Debug("Admin signal endpoint disabled (no admin token configured)")
		}
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: s.opts.AdminToken,
		RateLimit: 10,
		RateBurst: 5,
	})
	s.router.Post("/admin/signal", handler.ServeHTTP)

	if logger != nil {
		logger.Info("Admin signal endpoint enabled",
			zap.String("path", "/admin/signal"),
			zap.String("rate_limit", "10/min, burst 5"))
	}
}
