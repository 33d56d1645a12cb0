package config

// Configuration is layered: defaults, then config.yaml, then .env, then
// environment variables, then command-line flags.

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Database DatabaseConfig `mapstructure:"database"`
	API      APIConfig      `mapstructure:"api"`
	App      AppConfig      `mapstructure:"app"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
}

// FeedConfig points at the ingestion source that serves the swap batches.
type FeedConfig struct {
	URL            string `mapstructure:"url"`
	RequestTimeout int    `mapstructure:"request_timeout"` // seconds
}

// OracleConfig holds the market-data provider endpoints. Empty URLs fall
// back to the public endpoints; BirdeyeAPIKey may be empty for the free tier.
type OracleConfig struct {
	JupiterURL      string `mapstructure:"jupiter_url"`
	BirdeyeURL      string `mapstructure:"birdeye_url"`
	BirdeyeAPIKey   string `mapstructure:"birdeye_api_key"`
	DexScreenerURL  string `mapstructure:"dexscreener_url"`
	CoinGeckoURL    string `mapstructure:"coingecko_url"`
	ProviderTimeout int    `mapstructure:"provider_timeout"` // seconds, per provider
	CacheTTL        int    `mapstructure:"cache_ttl"`        // seconds
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// DSN returns the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type APIConfig struct {
	ListenAddr    string `mapstructure:"listen_addr"`
	RateLimitRPM  int    `mapstructure:"rate_limit_rpm"`
	WindowMinutes int    `mapstructure:"window_minutes"` // default /api/swaps lookback
}

type AppConfig struct {
	PollInterval   int `mapstructure:"poll_interval"`    // seconds between monitoring cycles
	IngestInterval int `mapstructure:"ingest_interval"`  // seconds between collector runs
	IngestCalls    int `mapstructure:"ingest_calls"`     // feed calls per collector run
	IngestDelay    int `mapstructure:"ingest_delay"`     // seconds between feed calls
	RetentionDays  int `mapstructure:"retention_days"`   // swap row retention
}

// PollIntervalDuration converts the configured seconds to a Duration.
func (c AppConfig) PollIntervalDuration() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

// LoadConfig reads configuration in priority order:
// 1. built-in defaults
// 2. config.yaml
// 3. .env file
// 4. environment variables
// 5. flags
func LoadConfig() (*Config, error) {
	godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.ReadInConfig() // missing config.yaml is fine

	v.AutomaticEnv()
	setupEnvAliases(v)
	setupFlags(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Telegram.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required (TELEGRAM_BOT_TOKEN)")
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("feed.url", "http://localhost:3000/api/swaps")
	v.SetDefault("feed.request_timeout", 10)

	v.SetDefault("oracle.jupiter_url", "https://price.jup.ag/v4")
	v.SetDefault("oracle.birdeye_url", "https://public-api.birdeye.so")
	v.SetDefault("oracle.dexscreener_url", "https://api.dexscreener.com")
	v.SetDefault("oracle.coingecko_url", "https://api.coingecko.com")
	v.SetDefault("oracle.provider_timeout", 3)
	v.SetDefault("oracle.cache_ttl", 300)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "whale")
	v.SetDefault("database.password", "whale")
	v.SetDefault("database.name", "whale_tracker")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("api.rate_limit_rpm", 120)
	v.SetDefault("api.window_minutes", 120)

	v.SetDefault("app.poll_interval", 30)
	v.SetDefault("app.ingest_interval", 60)
	v.SetDefault("app.ingest_calls", 3)
	v.SetDefault("app.ingest_delay", 20)
	v.SetDefault("app.retention_days", 7)
}

func setupEnvAliases(v *viper.Viper) {
	aliases := map[string]string{
		"telegram.bot_token":     "TELEGRAM_BOT_TOKEN",
		"feed.url":               "WHALE_FEED_URL",
		"oracle.birdeye_api_key": "BIRDEYE_API_KEY",
		"database.host":          "DB_HOST",
		"database.port":          "DB_PORT",
		"database.user":          "DB_USER",
		"database.password":      "DB_PASSWORD",
		"database.name":          "DB_NAME",
		"database.ssl_mode":      "DB_SSL_MODE",
		"api.listen_addr":        "API_LISTEN_ADDR",
		"app.poll_interval":      "POLLING_INTERVAL",
	}
	for key, env := range aliases {
		v.BindEnv(key, env)
	}
}

// commandFlags is the flag set RegisterFlags declared on; the CLI layer
// owns parsing, LoadConfig only reads the values back.
var commandFlags *pflag.FlagSet

// RegisterFlags declares the config overrides on the given flag set,
// typically a cobra root's persistent flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.Int("poll-interval", 30, "seconds between monitoring cycles")
	flags.String("feed-url", "", "ingestion source URL")
	flags.String("listen-addr", "", "read API listen address")
	commandFlags = flags
}

func setupFlags(v *viper.Viper) {
	if commandFlags == nil {
		return
	}

	bindings := map[string]string{
		"poll-interval": "app.poll_interval",
		"feed-url":      "feed.url",
		"listen-addr":   "api.listen_addr",
	}
	for name, key := range bindings {
		if f := commandFlags.Lookup(name); f != nil && f.Changed {
			v.BindPFlag(key, f)
		}
	}
}
