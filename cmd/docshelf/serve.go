package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	goutils "github.com/jkaninda/go-utils"

	"github.com/docshelfhq/docshelf/internal/config"
	"github.com/docshelfhq/docshelf/internal/events"
	"github.com/docshelfhq/docshelf/internal/httpapi"
	"github.com/docshelfhq/docshelf/internal/maintenance"
	"github.com/docshelfhq/docshelf/internal/observability"
	"github.com/docshelfhq/docshelf/internal/ratelimit"
)

var (
	serveConfigPath string
	serveAddr       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Docshelf API server",
	RunE:  runServe,
}

func init() {
	// Register flags on both root and serve so that `docshelf --config path`
	// and `docshelf serve --config path` both work.
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringVar(&serveConfigPath, "config", config.DefaultConfigPath(), "path to config file")
		cmd.Flags().StringVar(&serveAddr, "listen", "", "override HTTP listen address (e.g. :8080)")
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	logger := newLogger()

	cfg, err := config.Load(goutils.Env("DOCSHELF_CONFIG", serveConfigPath))
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	logger.Info("starting docshelf", slog.String("config", serveConfigPath), slog.String("version", version))
	observability.ServiceVersion = version

	ws, err := initWorkspace(cfg)
	if err != nil {
		return fmt.Errorf("initializing workspace: %w", err)
	}
	if err := ws.EnsureAll(); err != nil {
		return fmt.Errorf("preparing workspace: %w", err)
	}

	obs, err := observability.New(cfg.Observability, logger)
	if err != nil {
		return fmt.Errorf("initializing observability: %w", err)
	}
	defer func() {
		if obs != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			obs.Shutdown(shutdownCtx)
		}
	}()

	store, err := initStore(cfg, ws, logger, obs.MetricsOrNil())
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	if err := store.Migrate(context.Background()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("storage ready", slog.String("driver", store.Driver()))

	// Signal-aware context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Event hub for the per-tenant WebSocket stream.
	hub := events.NewHub()
	if metrics := obs.MetricsOrNil(); metrics != nil {
		hub.OnSubscribe = func() { metrics.EventSubscribers.Inc() }
		hub.OnUnsubscribe = func() { metrics.EventSubscribers.Dec() }
		hub.OnPublish = func(eventType string) { metrics.EventsPublished.WithLabelValues(eventType).Inc() }
	}

	// Per-tenant rate limiter.
	var limiter *ratelimit.Limiter
	if cfg.Server.RatePerTenant > 0 {
		limiter = ratelimit.NewLimiter(ratelimit.Config{
			RatePerSecond: cfg.Server.RatePerTenant,
			BurstSize:     cfg.Server.RateBurst,
		})
	}

	// Readiness checks.
	if obs != nil && obs.Health != nil {
		obs.Health.AddCheck("database", func(ctx context.Context) error {
			_, err := store.Tenants().List(ctx)
			return err
		})
	}

	// Background maintenance.
	if cfg.Maintenance != nil && cfg.Maintenance.Enabled {
		runner := maintenance.New(store, ws, obs.MetricsOrNil(), logger, cfg.Maintenance)
		cancelMaint, err := runner.Start(ctx)
		if err != nil {
			return fmt.Errorf("starting maintenance runner: %w", err)
		}
		defer cancelMaint()
	}

	apiCfg := httpapi.Config{
		ListenAddr: cfg.Server.ListenAddr(),
		EnableDocs: true,
		APIKey:     cfg.Server.APIKey,
		AdminToken: cfg.Server.AdminToken,
		Workspace:  ws,
		Metrics:    obs.MetricsOrNil(),
	}
	if metrics := obs.MetricsOrNil(); metrics != nil {
		apiCfg.MetricsRegistry = metrics.Registry
	}
	if obs != nil {
		apiCfg.HealthChecker = obs.Health
		if ts := obs.TracerOrNil(); ts != nil {
			apiCfg.Tracer = ts.Tracer()
		}
	}

	server := httpapi.NewServer(apiCfg, store, limiter, hub, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Stop(shutdownCtx)
}
