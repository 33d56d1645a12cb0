package filters

// Package filters holds the per-user notification decision logic: filter
// row normalization, the processed-swap set, and the decision engine.

import (
	"strconv"

	"whale-tracker/internal/store"
)

// Config is the normalized view of a user's filter rows. Zero thresholds
// mean "not set".
type Config struct {
	Tokens               []string
	Blacklist            []string
	WhaleBlacklist       []string
	MinPurchaseUSD       float64
	MaxMarketCapUSD      float64
	MonitorAll           bool
	NotificationsEnabled bool
}

// DefaultConfig returns the configuration of a user with no rows:
// monitoring all tokens, but notifications off until explicitly enabled.
func DefaultConfig() Config {
	return Config{
		MonitorAll:           true,
		NotificationsEnabled: false,
	}
}

// Normalize folds filter rows into a Config. Rows must arrive in insertion
// order; for singleton types the last row wins. List rows all contribute,
// duplicates included. Unknown filter types are skipped. A nil or empty
// slice yields the defaults.
func Normalize(rows []store.FilterRecord) Config {
	config := DefaultConfig()

	for _, row := range rows {
		switch row.FilterType {
		case store.FilterTokenWhitelist:
			config.Tokens = append(config.Tokens, row.FilterValue)
		case store.FilterTokenBlacklist:
			config.Blacklist = append(config.Blacklist, row.FilterValue)
		case store.FilterWhaleBlacklist:
			config.WhaleBlacklist = append(config.WhaleBlacklist, row.FilterValue)
		case store.FilterMinPurchase:
			if v, err := strconv.ParseFloat(row.FilterValue, 64); err == nil {
				config.MinPurchaseUSD = v
			}
		case store.FilterMaxMarketCap:
			if v, err := strconv.ParseFloat(row.FilterValue, 64); err == nil {
				config.MaxMarketCapUSD = v
			}
		case store.FilterMonitorAll:
			config.MonitorAll = row.FilterValue == "true"
		case store.FilterNotificationsEnabled:
			config.NotificationsEnabled = row.FilterValue == "true"
		}
	}

	return config
}
