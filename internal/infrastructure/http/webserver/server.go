// Package webserver provides the web frontend HTTP server implementation
package webserver

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/surpriseme/recipes/internal/application/search"
	"github.com/surpriseme/recipes/internal/infrastructure/config"
	"github.com/surpriseme/recipes/internal/infrastructure/http/middleware"
	"github.com/surpriseme/recipes/internal/infrastructure/monitoring"
	"github.com/surpriseme/recipes/pkg/healthcheck"
)

// maxBodyBytes bounds form and JSON bodies
const maxBodyBytes = 1 << 20

// WebServer represents the web frontend HTTP server
type WebServer struct {
	config      *config.Config
	logger      *zap.Logger
	server      *http.Server
	router      *chi.Mux
	service     *search.Service
	sessions    *SessionStore
	renderer    *Renderer
	healthCheck *healthcheck.Registry
	metrics     *monitoring.MetricsCollector
}

// Dependencies groups what NewWebServer needs. Metrics may be nil.
type Dependencies struct {
	Config      *config.Config
	Logger      *zap.Logger
	Service     *search.Service
	Sessions    *SessionStore
	HealthCheck *healthcheck.Registry
	Metrics     *monitoring.MetricsCollector
}

// NewWebServer creates a new web frontend server instance. Templates come
// from the binary unless server.templates_dir points at a directory.
func NewWebServer(deps Dependencies) (*WebServer, error) {
	cfg := deps.Config

	var source fs.FS = EmbeddedTemplates()
	if dir := cfg.Server.TemplatesDir; dir != "" {
		source = os.DirFS(dir)
		deps.Logger.Info("Loading templates from disk", zap.String("dir", dir))
	}

	renderer, err := NewRenderer(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	deps.Logger.Debug("Templates parsed", zap.Strings("templates", renderer.Names()))

	s := &WebServer{
		config:      cfg,
		logger:      deps.Logger,
		service:     deps.Service,
		sessions:    deps.Sessions,
		renderer:    renderer,
		healthCheck: deps.HealthCheck,
		metrics:     deps.Metrics,
	}

	s.router = s.setupRoutes()

	var handler http.Handler = s.router
	if cfg.Monitoring.EnableTracing {
		handler = otelhttp.NewHandler(handler, "surprise-web")
	}

	s.server = &http.Server{
		Addr:           cfg.Address(),
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return s, nil
}

// setupRoutes configures the web frontend routes
func (s *WebServer) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	mon := s.config.Monitoring

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger, mon.HealthCheckPath, mon.ReadinessPath, mon.LivenessPath, mon.MetricsPath))
	r.Use(middleware.Recovery(s.logger))
	if s.metrics != nil {
		r.Use(s.metrics.HTTPMiddleware)
	}
	if s.config.Server.EnableCompression {
		r.Use(middleware.Compression(middleware.DefaultCompressionConfig()))
	}
	r.Use(middleware.Security(s.config.IsProduction()))

	// Operational endpoints carry no session.
	if s.healthCheck != nil {
		r.Get(mon.HealthCheckPath, s.healthCheck.Handler())
		r.Get(mon.ReadinessPath, s.healthCheck.ReadyHandler())
		r.Get(mon.LivenessPath, s.healthCheck.LiveHandler())
	}
	if s.metrics != nil && mon.EnableMetrics {
		r.Handle(mon.MetricsPath, s.metrics.Handler())
	}

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Post("/api/search", s.handleAPISearch)

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware)

		r.Get("/", s.handleHome)
		r.Post("/search", s.handleSearch)

		r.Route("/htmx", func(r chi.Router) {
			r.Post("/meal", s.handleMealSelected)
			r.Post("/allergies", s.handleAllergyToggled)
			r.Post("/diets", s.handleDietToggled)
			r.Post("/cook-time", s.handleCookTimeChanged)
		})
	})

	return r
}

// Handler exposes the routed handler, mainly for tests
func (s *WebServer) Handler() http.Handler {
	return s.server.Handler
}

// ReloadTemplates re-parses the page templates
func (s *WebServer) ReloadTemplates() error {
	return s.renderer.Reload()
}

// Start starts the web frontend HTTP server
func (s *WebServer) Start() error {
	s.logger.Info("Starting web server",
		zap.String("address", s.server.Addr),
		zap.String("environment", s.config.App.Environment),
	)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the web server
func (s *WebServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down web server")
	return s.server.Shutdown(ctx)
}
