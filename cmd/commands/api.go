package commands

// Command to run the read API standalone
// Serves the collected swap history over HTTP with rate limiting

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"whale-tracker/internal/api"
	"whale-tracker/internal/infra/config"
	"whale-tracker/internal/infra/log"
	"whale-tracker/internal/store"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Run the read API",
	Long:  `Serve the collected swap history over HTTP. The bot can poll this endpoint as its feed.`,
	RunE:  runAPI,
}

func runAPI(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log.LogInfo("Starting read API...")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	server := api.NewServer(cfg.API, store.NewSwapRepo(db), db)
	return server.Run(ctx)
}
