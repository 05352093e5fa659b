package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/snkrtools/snkr-price-watch/internal/api/handlers"
	"github.com/snkrtools/snkr-price-watch/internal/api/middleware"
	"github.com/snkrtools/snkr-price-watch/internal/config"
	"github.com/snkrtools/snkr-price-watch/internal/engine"
	"github.com/snkrtools/snkr-price-watch/internal/notify"
	"github.com/snkrtools/snkr-price-watch/internal/scraper"
	"github.com/snkrtools/snkr-price-watch/internal/store"
	"github.com/snkrtools/snkr-price-watch/internal/telemetry"
	"github.com/snkrtools/snkr-price-watch/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and monitoring engine",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, Version)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}

	st, err := store.NewPostgresStore(ctx, cfg.Database.DSN(), cfg.Database.PoolSize)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer st.Close()

	sc := scraper.NewClient(
		engine.NewStoreCredentials(st),
		scraper.WithBaseURL(cfg.Monitor.MarketURL),
		scraper.WithRateLimit(cfg.Monitor.RateLimit.PerSecond, cfg.Monitor.RateLimit.Burst),
		scraper.WithLogger(log),
	)

	dispatcher := notify.NewDispatcher(
		notify.WithSendTimeout(cfg.Monitor.NotifyTimeout),
		notify.WithLogger(log),
	)

	monitor := engine.NewMonitor(st, sc, dispatcher,
		engine.WithLogger(log),
		engine.WithMinInterval(cfg.Monitor.MinInterval),
		engine.WithScrapeTimeout(cfg.Monitor.ScrapeTimeout),
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Use(middleware.Recovery(log))
	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Metrics())

	health := handlers.NewHealthHandler(st)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("snkr-price-watch", Version))
	handlers.RegisterProductRoutes(api, handlers.NewProductsHandler(st, monitor))
	handlers.RegisterSizeRoutes(api, handlers.NewSizesHandler(st))
	handlers.RegisterNotificationRoutes(api, handlers.NewNotificationsHandler(st))
	handlers.RegisterSettingsRoutes(api, handlers.NewSettingsHandler(st))
	handlers.RegisterMonitorRoutes(api, handlers.NewMonitorHandler(monitor))

	var scheduler *engine.Scheduler
	if cfg.Monitor.HistoryRetentionDays > 0 {
		retention := time.Duration(cfg.Monitor.HistoryRetentionDays) * 24 * time.Hour
		scheduler, err = engine.NewScheduler(st, retention, cfg.Monitor.PruneInterval, log)
		if err != nil {
			return fmt.Errorf("creating scheduler: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	if cfg.Monitor.Autostart {
		if err := monitor.Start(ctx); err != nil {
			return fmt.Errorf("starting monitor: %w", err)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", "addr", addr, "version", Version)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	if monitor.IsRunning() {
		if err := monitor.Stop(); err != nil {
			log.Error("stopping monitor", "err", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("shutting down tracing", "err", err)
	}

	log.Info("server stopped")
	return nil
}
