package commands

// Command to run the Telegram bot with the notification dispatcher
// Starts the command handler and the monitoring loop together
// Implements graceful shutdown for proper termination

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"whale-tracker/bot_monitor"
	"whale-tracker/internal/clients_api/whalefeed"
	"whale-tracker/internal/filters"
	"whale-tracker/internal/infra/config"
	"whale-tracker/internal/infra/log"
	"whale-tracker/internal/store"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot and whale monitor",
	Long:  `Run the Telegram bot together with the swap monitoring loop that delivers per-user whale alerts.`,
	RunE:  runBot,
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log.LogInfo("Starting Whale Tracker bot...")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	users := store.NewUserRepo(db)
	filterRepo := store.NewFilterRepo(db)
	swapRepo := store.NewSwapRepo(db)

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		log.LogError("Failed to initialize Telegram bot", zap.Error(err))
		return fmt.Errorf("failed to initialize bot: %w", err)
	}
	log.LogSuccess("Bot authorized", zap.String("username", bot.Self.UserName))

	feed := whalefeed.NewClient(cfg.Feed.URL, cfg.Feed.RequestTimeout)
	oracle := buildOracle(cfg)
	engine := filters.NewEngine(oracle, filters.NewProcessedSet())
	transport := bot_monitor.NewTelegramTransport(bot)

	pollInterval := cfg.App.PollIntervalDuration()
	dispatcher := bot_monitor.NewDispatcher(feed, users, filterRepo, engine, oracle, transport, pollInterval)
	handler := bot_monitor.NewCommandHandler(bot, transport, users, filterRepo, swapRepo, pollInterval)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		handler.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		dispatcher.Run(ctx)
	}()

	log.LogSuccess("Whale Tracker is running", zap.Duration("pollInterval", pollInterval))

	<-ctx.Done()
	log.LogInfo("Shutdown signal received, gracefully stopping...")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.LogSuccess("Whale Tracker stopped gracefully")
	case <-time.After(10 * time.Second):
		log.LogWarn("Timeout waiting for workers to stop")
	}

	return nil
}
