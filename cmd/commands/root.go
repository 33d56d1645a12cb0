package commands

// Root command for Cobra CLI
// Registers all subcommands (bot, ingest, api)

import (
	"github.com/spf13/cobra"

	"whale-tracker/internal/infra/config"
)

var rootCmd = &cobra.Command{
	Use:   "whale-tracker",
	Short: "Whale Tracker - Telegram bot for monitoring Solana whale swap activity",
	Long: `Whale Tracker is a Go-based Telegram bot that watches a feed of large Solana swaps,
filters them per user (whitelists, blacklists, value and market-cap thresholds) and
delivers buy/sell alerts with live market data.`,
	Version: "1.0.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(apiCmd)
}
