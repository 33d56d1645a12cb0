package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "whale",
		Password: "secret",
		Name:     "whale_tracker",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=whale password=secret dbname=whale_tracker sslmode=require",
		cfg.DSN())
}

func TestPollIntervalDuration(t *testing.T) {
	assert.Equal(t, 45*time.Second, AppConfig{PollInterval: 45}.PollIntervalDuration())
}

func TestLoadConfigFlagOverride(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")

	// Flags live on a caller-owned set; LoadConfig never parses arguments
	// itself, so subcommand flags stay with their command.
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	t.Cleanup(func() { commandFlags = nil })
	require.NoError(t, flags.Parse([]string{"--poll-interval", "77", "--feed-url", "http://feed.test/api/swaps"}))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 77, cfg.App.PollInterval)
	assert.Equal(t, "http://feed.test/api/swaps", cfg.Feed.URL)
	assert.Equal(t, "test-token", cfg.Telegram.BotToken)
}

func TestLoadConfigUnsetFlagsKeepDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	t.Cleanup(func() { commandFlags = nil })
	require.NoError(t, flags.Parse(nil))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.App.PollInterval)
}
