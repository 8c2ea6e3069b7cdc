package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"siggate/internal/api"
	"siggate/internal/config"
	"siggate/internal/governance"
	"siggate/internal/keystore"
	"siggate/internal/logger"
	"siggate/internal/models"
	"siggate/internal/observability"
	"siggate/internal/pipeline"
	"siggate/internal/signature"
	"siggate/internal/version"

	"github.com/redis/go-redis/v9"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetInfo())
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	log, closer, err := logger.Setup(cfg.Logging, version.GetInfo())
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, version.GetInfo())
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	keys, err := initializeKeystore(cfg)
	if err != nil {
		slog.Error("Failed to initialize keystore", "error", err)
		os.Exit(1)
	}
	if keys != nil {
		defer keys.Close()
	}

	windows, err := initializeWindowStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize governance store", "error", err)
		os.Exit(1)
	}
	defer windows.Close()

	gate := governance.NewGate(
		governance.NewRateLimiter(windows),
		governance.NewConcurrencyLimiter(),
	)

	engine := signature.NewEngine(cfg.Auth.RequiredComponents...)

	pipelineOpts := []pipeline.Option{}
	if !cfg.Auth.Enabled {
		pipelineOpts = append(pipelineOpts, pipeline.WithAuthDisabled())
		slog.Warn("Request authentication is disabled")
	}
	if cfg.Auth.DebugHeaders {
		pipelineOpts = append(pipelineOpts, pipeline.WithDebugHeaders())
		slog.Warn("Signature debug headers are enabled; disable in production")
	}
	if cfg.Metrics.Enabled {
		pipelineMetrics, err := observability.NewPipelineMetrics()
		if err != nil {
			slog.Error("Failed to create pipeline metrics", "error", err)
			os.Exit(1)
		}
		pipelineOpts = append(pipelineOpts, pipeline.WithMetrics(pipelineMetrics))
	}

	p := pipeline.New(engine, keys, gate, resolvePolicies(cfg.Governance), pipelineOpts...)

	handlers, err := api.NewHandlers(cfg.Upstream)
	if err != nil {
		slog.Error("Failed to initialize handlers", "error", err)
		os.Exit(1)
	}

	routeOpts := []api.RouteOption{}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}

	router, err := api.SetupRoutes(handlers, p, cfg.Governance, routeOpts...)
	if err != nil {
		slog.Error("Failed to setup routes", "error", err)
		os.Exit(1)
	}

	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Starting gateway",
			"addr", server.Addr,
			"upstream", cfg.Upstream.URL,
			"auth_enabled", cfg.Auth.Enabled,
			"governed_endpoints", len(cfg.Governance.Endpoints),
		)

		var err error
		if cfg.Server.TLSEnabled {
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("Metrics server shutdown failed", "error", err)
		}
	}
}

// initializeKeystore builds the configured keystore backend. Returns nil
// when authentication is disabled.
func initializeKeystore(cfg *models.Config) (keystore.Keystore, error) {
	if !cfg.Auth.Enabled {
		return nil, nil
	}
	return keystore.NewFactory().Create(cfg.Auth.Keystore)
}

// initializeWindowStore builds the configured rate-limit window store.
func initializeWindowStore(cfg *models.Config) (governance.WindowStore, error) {
	switch cfg.Governance.Store.Type {
	case models.GovernanceStoreRedis:
		rc := cfg.Governance.Store.Redis
		return governance.NewRedisStore(&redis.Options{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
			PoolSize: rc.PoolSize,
		})
	default:
		return governance.NewMemoryStore(), nil
	}
}

// resolvePolicies converts the declared endpoint configuration into the
// pipeline's policy map once at startup.
func resolvePolicies(cfg models.GovernanceConfig) map[string]governance.Policy {
	policies := make(map[string]governance.Policy, len(cfg.Endpoints))
	for _, ep := range cfg.Endpoints {
		policy := governance.Policy{}
		if ep.Rate != nil {
			policy.Rate = &governance.RateLimit{Limit: ep.Rate.Limit, Window: ep.Rate.Window}
		}
		if ep.Concurrency != nil {
			policy.Concurrency = &governance.ConcurrencyLimit{Limit: ep.Concurrency.Limit}
		}
		policies[ep.Name] = policy
	}
	return policies
}
