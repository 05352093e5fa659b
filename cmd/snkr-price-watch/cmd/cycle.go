package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snkrtools/snkr-price-watch/internal/config"
	"github.com/snkrtools/snkr-price-watch/internal/engine"
	"github.com/snkrtools/snkr-price-watch/internal/notify"
	"github.com/snkrtools/snkr-price-watch/internal/scraper"
	"github.com/snkrtools/snkr-price-watch/internal/store"
	"github.com/snkrtools/snkr-price-watch/pkg/logger"
)

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run one monitoring cycle and exit",
	Long: "Scrapes every active product once, persists price changes, and " +
		"sends any notifications the configured rules produce. Useful for " +
		"cron-driven setups that do not keep the server running.",
	RunE: runCycle,
}

func init() {
	rootCmd.AddCommand(cycleCmd)
}

func runCycle(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
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
		engine.WithScrapeTimeout(cfg.Monitor.ScrapeTimeout),
	)

	if err := monitor.RunCycle(ctx); err != nil {
		return fmt.Errorf("running cycle: %w", err)
	}

	log.Info("cycle complete")
	return nil
}
