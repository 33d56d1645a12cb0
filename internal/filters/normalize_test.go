package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"whale-tracker/internal/store"
)

func row(filterType, value string) store.FilterRecord {
	return store.FilterRecord{FilterType: filterType, FilterValue: value}
}

func TestNormalizeEmpty(t *testing.T) {
	assert.Equal(t, DefaultConfig(), Normalize(nil))
	assert.Equal(t, DefaultConfig(), Normalize([]store.FilterRecord{}))
}

func TestNormalizeLists(t *testing.T) {
	cfg := Normalize([]store.FilterRecord{
		row(store.FilterTokenWhitelist, "BONK"),
		row(store.FilterTokenWhitelist, "PUMP"),
		row(store.FilterTokenBlacklist, "SCAM"),
		row(store.FilterWhaleBlacklist, "FeePayer111"),
	})

	assert.Equal(t, []string{"BONK", "PUMP"}, cfg.Tokens)
	assert.Equal(t, []string{"SCAM"}, cfg.Blacklist)
	assert.Equal(t, []string{"FeePayer111"}, cfg.WhaleBlacklist)
}

func TestNormalizeSingletonLastWins(t *testing.T) {
	cfg := Normalize([]store.FilterRecord{
		row(store.FilterMinPurchase, "1000"),
		row(store.FilterMinPurchase, "5000"),
		row(store.FilterMonitorAll, "true"),
		row(store.FilterMonitorAll, "false"),
		row(store.FilterNotificationsEnabled, "false"),
		row(store.FilterNotificationsEnabled, "true"),
	})

	assert.Equal(t, float64(5000), cfg.MinPurchaseUSD)
	assert.False(t, cfg.MonitorAll)
	assert.True(t, cfg.NotificationsEnabled)
}

func TestNormalizeBadValues(t *testing.T) {
	cfg := Normalize([]store.FilterRecord{
		row(store.FilterMinPurchase, "not-a-number"),
		row(store.FilterMaxMarketCap, "1e6"),
		row(store.FilterNotificationsEnabled, "TRUE"),
		row("some_future_type", "ignored"),
	})

	assert.Zero(t, cfg.MinPurchaseUSD)
	assert.Equal(t, float64(1_000_000), cfg.MaxMarketCapUSD)
	// Only the exact lowercase literal enables notifications.
	assert.False(t, cfg.NotificationsEnabled)
}
