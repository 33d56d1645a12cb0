package commands

// Command to run the swap collector standalone
// Periodically pulls the whale feed into Postgres and purges old rows
// Useful for keeping history without running the bot

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"whale-tracker/internal/clients_api/whalefeed"
	"whale-tracker/internal/infra/config"
	"whale-tracker/internal/infra/log"
	"whale-tracker/internal/ingest"
	"whale-tracker/internal/store"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run the swap collector",
	Long:  `Periodically pull the whale swap feed into the database and purge rows past retention.`,
	RunE:  runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log.LogInfo("Starting swap collector...")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	feed := whalefeed.NewClient(cfg.Feed.URL, cfg.Feed.RequestTimeout)
	opts := ingest.Options{
		Calls:         cfg.App.IngestCalls,
		CallDelay:     time.Duration(cfg.App.IngestDelay) * time.Second,
		RetentionDays: cfg.App.RetentionDays,
	}
	collector := ingest.NewCollector(feed, store.NewSwapRepo(db), opts)

	interval := time.Duration(cfg.App.IngestInterval) * time.Second
	log.LogSuccess("Collector is running", zap.Duration("interval", interval))

	collector.RunLoop(ctx, interval)

	log.LogSuccess("Collector stopped gracefully")
	return nil
}
