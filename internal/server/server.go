package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	apperrors "github.com/pixelgate/pixelgate/internal/errors"
	"github.com/pixelgate/pixelgate/internal/observability"
	"github.com/pixelgate/pixelgate/internal/server/handlers"
	servermw "github.com/pixelgate/pixelgate/internal/server/middleware"
)

// Options configures the HTTP server. Zero timeouts fall back to defaults.
type Options struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	Images   *handlers.ImageHandler
	Health   *handlers.HealthManager
	Identity *appidentity.Identity
	Build    handlers.BuildInfo

	// AdminToken enables POST /admin/signal when non-empty.
	AdminToken string
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	opts   Options
}

// New creates a new HTTP server instance
func New(opts Options) *Server {
	if opts.Health == nil {
		opts.Health = handlers.NewHealthManager(opts.Build.Version)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)

	// RequestID → Metrics → Recovery
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestMetrics)
	r.Use(servermw.Recovery)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewNotFoundError("The requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"))
	})

	s := &Server{router: r, opts: opts}

	handlers.SetHTTPErrorResponder(HandleError)
	s.registerRoutes()

	return s
}

// Addr is the host:port the server listens on.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.Addr(),
		Handler:      s.router,
		ReadTimeout:  orDefault(s.opts.ReadTimeout, 30*time.Second),
		WriteTimeout: orDefault(s.opts.WriteTimeout, 90*time.Second),
		IdleTimeout:  orDefault(s.opts.IdleTimeout, 120*time.Second),
	}

	if logger := observability.ServerLogger; logger != nil {
		logger.Info("Starting HTTP server",
			zap.String("addr", s.Addr()),
			zap.Duration("write_timeout", s.server.WriteTimeout))
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if logger := observability.ServerLogger; logger != nil {
		logger.Info("Shutting down HTTP server")
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Port() int {
	return s.opts.Port
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
