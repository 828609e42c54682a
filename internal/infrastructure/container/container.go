// Package container wires the web frontend together with Uber FX
package container

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/surpriseme/recipes/internal/application/search"
	"github.com/surpriseme/recipes/internal/infrastructure/config"
	"github.com/surpriseme/recipes/internal/infrastructure/edamam"
	"github.com/surpriseme/recipes/internal/infrastructure/hotreload"
	"github.com/surpriseme/recipes/internal/infrastructure/http/webserver"
	"github.com/surpriseme/recipes/internal/infrastructure/monitoring"
	"github.com/surpriseme/recipes/internal/ports/outbound"
	"github.com/surpriseme/recipes/pkg/healthcheck"
	"github.com/surpriseme/recipes/pkg/logger"
)

// upstreamProbeTimeout bounds the optional reachability probe
const upstreamProbeTimeout = 5 * time.Second

// Module provides every dependency of the web frontend. configPath may be
// empty to use the default search locations.
func Module(configPath string) fx.Option {
	return fx.Options(
		ConfigModule(configPath),
		LoggerModule,
		MonitoringModule,
		SearchModule,
		HTTPModule,
		LifecycleModule,
	)
}

// ConfigModule provides configuration
func ConfigModule(configPath string) fx.Option {
	return fx.Provide(func() (*config.Config, error) {
		return config.Load(configPath)
	})
}

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug || cfg.IsDevelopment(),
			Service:     cfg.App.Name,
		})
	},
)

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	func(m *monitoring.MetricsCollector) search.Metrics { return m },
	func(cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		return monitoring.NewTracingProvider(context.Background(), monitoring.TracingConfig{
			ServiceName:    cfg.App.Name,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
			Insecure:       !cfg.IsProduction(),
			SamplingRate:   cfg.Monitoring.SamplingRate,
			Enabled:        cfg.Monitoring.EnableTracing,
		}, log)
	},
)

// SearchModule provides the search API client and the search service
var SearchModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) *edamam.Client {
		return edamam.NewClient(edamam.Config{
			BaseURL: cfg.Search.BaseURL,
			Credentials: edamam.Credentials{
				AppID:  cfg.Search.AppID,
				AppKey: cfg.Search.AppKey,
			},
			Timeout: cfg.Search.Timeout,
		}, log)
	},
	func(c *edamam.Client) outbound.RecipeSearcher { return c },
	func(searcher outbound.RecipeSearcher, metrics search.Metrics, log *zap.Logger) *search.Service {
		return search.NewService(searcher, log, search.WithMetrics(metrics))
	},
)

// HTTPModule provides the session store, health checks and web server
var HTTPModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) *webserver.SessionStore {
		return webserver.NewSessionStore(cfg.Session, log)
	},
	func(cfg *config.Config, log *zap.Logger) *healthcheck.Registry {
		return healthcheck.New(cfg.App.Version, log)
	},
	func(
		cfg *config.Config,
		log *zap.Logger,
		service *search.Service,
		sessions *webserver.SessionStore,
		hc *healthcheck.Registry,
		metrics *monitoring.MetricsCollector,
	) (*webserver.WebServer, error) {
		return webserver.NewWebServer(webserver.Dependencies{
			Config:      cfg,
			Logger:      log,
			Service:     service,
			Sessions:    sessions,
			HealthCheck: hc,
			Metrics:     metrics,
		})
	},
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterHealthChecks,
	RegisterLifecycleHooks,
)

// RegisterHealthChecks registers the checks reported on the health endpoints
func RegisterHealthChecks(cfg *config.Config, hc *healthcheck.Registry, client *edamam.Client) {
	hc.Register("system", healthcheck.CheckerFunc(func(ctx context.Context) healthcheck.Result {
		return healthcheck.Result{
			Status:  healthcheck.StatusHealthy,
			Message: "System operational",
			Details: map[string]interface{}{
				"service":     cfg.App.Name,
				"version":     cfg.App.Version,
				"environment": cfg.App.Environment,
			},
		}
	}))

	hc.Register("search_credentials", healthcheck.CheckerFunc(func(ctx context.Context) healthcheck.Result {
		if client.HasCredentials() {
			return healthcheck.Result{Status: healthcheck.StatusHealthy, Message: "Search credentials configured"}
		}
		return healthcheck.Result{Status: healthcheck.StatusDegraded, Message: "Search credentials missing, searches will fail"}
	}))

	if cfg.Monitoring.CheckUpstream {
		hc.Register("search_api", healthcheck.HTTPProbe{
			URL:                  cfg.Search.BaseURL,
			Client:               &http.Client{Timeout: upstreamProbeTimeout},
			TolerateClientErrors: true,
		})
	}
}

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	server *webserver.WebServer,
	sessions *webserver.SessionStore,
	tracing *monitoring.TracingProvider,
) {
	ctx, cancel := context.WithCancel(context.Background())
	var watcher *hotreload.TemplateWatcher

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("Starting Surprise Me",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("address", cfg.Address()),
			)

			go sessions.Run(ctx)

			if dir := cfg.Server.TemplatesDir; dir != "" {
				w, err := hotreload.NewTemplateWatcher(dir, server.ReloadTemplates, log)
				if err != nil {
					return err
				}
				watcher = w
				watcher.Start(ctx)
			}

			go func() {
				if err := server.Start(); err != nil {
					log.Fatal("Web server failed", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			log.Info("Shutting down Surprise Me")
			cancel()

			if watcher != nil {
				if err := watcher.Close(); err != nil {
					log.Warn("Failed to close template watcher", zap.Error(err))
				}
			}

			if err := server.Shutdown(stopCtx); err != nil {
				log.Error("Failed to shutdown web server", zap.Error(err))
			}

			if err := tracing.Shutdown(stopCtx); err != nil {
				log.Error("Failed to shutdown tracing", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}
