package filters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whale-tracker/internal/clients_api/pricing"
	"whale-tracker/internal/clients_api/whalefeed"
)

// fakeOracle serves canned market data keyed by mint.
type fakeOracle struct {
	data map[string]pricing.TokenMarketData
}

func (f *fakeOracle) TokenData(ctx context.Context, mint, symbol string) pricing.TokenMarketData {
	if f.data == nil {
		return pricing.TokenMarketData{Mint: mint}
	}
	d, ok := f.data[mint]
	if !ok {
		return pricing.TokenMarketData{Mint: mint}
	}
	return d
}

func newTestEngine(data map[string]pricing.TokenMarketData) *Engine {
	return NewEngine(&fakeOracle{data: data}, NewProcessedSet())
}

func leg(mint, symbol string, amount float64) *whalefeed.TokenLeg {
	return &whalefeed.TokenLeg{
		Mint:     mint,
		Amount:   amount,
		Metadata: whalefeed.TokenMetadata{Symbol: symbol},
	}
}

func buySwap(signature string) *whalefeed.Swap {
	return &whalefeed.Swap{
		Signature:   signature,
		Timestamp:   1700000000000,
		FeePayer:    "WhaLe1111111111111111111111111111111111111",
		InputToken:  leg(whalefeed.WrappedSOLMint, "SOL", 2),
		OutputToken: leg("TokenXmint11111111111111111111111111111111", "TOKENX", 5000),
	}
}

func enabledConfig() Config {
	cfg := DefaultConfig()
	cfg.NotificationsEnabled = true
	return cfg
}

func TestShouldNotifyDisabledNotifications(t *testing.T) {
	engine := newTestEngine(nil)
	cfg := DefaultConfig()

	assert.False(t, engine.ShouldNotify(context.Background(), buySwap("sig1"), cfg))
	assert.False(t, engine.ShouldNotify(context.Background(), nil, enabledConfig()))
}

func TestShouldNotifyMonitorAllPasses(t *testing.T) {
	engine := newTestEngine(nil)

	assert.True(t, engine.ShouldNotify(context.Background(), buySwap("sig1"), enabledConfig()))
}

func TestShouldNotifyDeduplicates(t *testing.T) {
	engine := newTestEngine(nil)
	cfg := enabledConfig()
	swap := buySwap("sig1")

	require.True(t, engine.ShouldNotify(context.Background(), swap, cfg))
	assert.False(t, engine.ShouldNotify(context.Background(), swap, cfg))
}

func TestShouldNotifySharedSetAcrossUsers(t *testing.T) {
	// One committed notification suppresses the swap for every later user
	// sharing the same engine.
	engine := newTestEngine(nil)
	swap := buySwap("sig1")

	require.True(t, engine.ShouldNotify(context.Background(), swap, enabledConfig()))
	assert.False(t, engine.ShouldNotify(context.Background(), swap, enabledConfig()))
}

func TestShouldNotifySOLStablecoinConversion(t *testing.T) {
	engine := newTestEngine(nil)
	cfg := enabledConfig()

	swap := &whalefeed.Swap{
		Signature:   "conv1",
		FeePayer:    "payer",
		InputToken:  leg(whalefeed.WrappedSOLMint, "SOL", 100),
		OutputToken: leg("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", "USDC", 15000),
	}
	assert.False(t, engine.ShouldNotify(context.Background(), swap, cfg))

	reverse := &whalefeed.Swap{
		Signature:   "conv2",
		FeePayer:    "payer",
		InputToken:  leg("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", "USDT", 15000),
		OutputToken: leg(whalefeed.WrappedSOLMint, "SOL", 100),
	}
	assert.False(t, engine.ShouldNotify(context.Background(), reverse, cfg))
}

func TestShouldNotifyStablecoinToStablecoinConversion(t *testing.T) {
	engine := newTestEngine(nil)
	cfg := enabledConfig()

	// Rebalancing between stablecoins is never a trade signal, even under
	// monitor-all with no blacklist.
	swap := &whalefeed.Swap{
		Signature:   "conv3",
		FeePayer:    "payer",
		InputToken:  leg("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", "USDC", 50000),
		OutputToken: leg("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", "USDT", 49990),
	}
	assert.False(t, engine.ShouldNotify(context.Background(), swap, cfg))

	// A stablecoin leg against a regular token still passes.
	trade := &whalefeed.Swap{
		Signature:   "conv4",
		FeePayer:    "payer",
		InputToken:  leg("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", "USDC", 1000),
		OutputToken: leg("TokenXmint11111111111111111111111111111111", "TOKENX", 5000),
	}
	assert.True(t, engine.ShouldNotify(context.Background(), trade, cfg))
}

func TestShouldNotifySpamMintPrefix(t *testing.T) {
	engine := newTestEngine(nil)

	swap := buySwap("spam1")
	swap.OutputToken.Mint = "XsSpamMint1111111111111111111111111111111"
	assert.False(t, engine.ShouldNotify(context.Background(), swap, enabledConfig()))
}

func TestShouldNotifyStaticBlacklist(t *testing.T) {
	engine := newTestEngine(nil)

	swap := buySwap("static1")
	swap.OutputToken.Mint = "EJhqXKJEncSx1HJjS5ZpKdiKGGgLiRgNPvo8JZvw5Guj"
	assert.False(t, engine.ShouldNotify(context.Background(), swap, enabledConfig()))
}

func TestShouldNotifyWhitelist(t *testing.T) {
	cfgA := enabledConfig()
	cfgA.MonitorAll = false
	cfgA.Tokens = []string{"tokenx"}

	cfgB := enabledConfig()
	cfgB.MonitorAll = false
	cfgB.Tokens = []string{"BONK"}

	// Separate engines so the shared-set commit does not mask the filter.
	assert.True(t, newTestEngine(nil).ShouldNotify(context.Background(), buySwap("wl1"), cfgA))
	assert.False(t, newTestEngine(nil).ShouldNotify(context.Background(), buySwap("wl1"), cfgB))
}

func TestShouldNotifyEmptyWhitelistFailsClosed(t *testing.T) {
	engine := newTestEngine(nil)
	cfg := enabledConfig()
	cfg.MonitorAll = false

	assert.False(t, engine.ShouldNotify(context.Background(), buySwap("wl2"), cfg))
}

func TestShouldNotifyWhitelistByMint(t *testing.T) {
	engine := newTestEngine(nil)
	cfg := enabledConfig()
	cfg.MonitorAll = false
	cfg.Tokens = []string{"TokenXmint11111111111111111111111111111111"}

	assert.True(t, engine.ShouldNotify(context.Background(), buySwap("wl3"), cfg))
}

func TestShouldNotifyBlacklist(t *testing.T) {
	engine := newTestEngine(nil)
	cfg := enabledConfig()
	cfg.Blacklist = []string{"TOKENX"}

	assert.False(t, engine.ShouldNotify(context.Background(), buySwap("bl1"), cfg))
}

func TestShouldNotifyWhaleBlacklist(t *testing.T) {
	engine := newTestEngine(nil)
	cfg := enabledConfig()
	cfg.WhaleBlacklist = []string{"whale1111111111111111111111111111111111111"}

	// Case-insensitive match against the fee payer.
	assert.False(t, engine.ShouldNotify(context.Background(), buySwap("wb1"), cfg))
}

func TestShouldNotifyMinPurchase(t *testing.T) {
	oracle := map[string]pricing.TokenMarketData{
		whalefeed.WrappedSOLMint: {Price: 150},
	}
	cfg := enabledConfig()
	cfg.MinPurchaseUSD = 500

	// 2 SOL at $150 is $300, below the threshold.
	assert.False(t, newTestEngine(oracle).ShouldNotify(context.Background(), buySwap("mp1"), cfg))

	cfg.MinPurchaseUSD = 250
	assert.True(t, newTestEngine(oracle).ShouldNotify(context.Background(), buySwap("mp2"), cfg))
}

func TestShouldNotifyMaxMarketCapFailsClosed(t *testing.T) {
	cfg := enabledConfig()
	cfg.MaxMarketCapUSD = 1_000_000

	// Unknown market cap rejects while the filter is active.
	assert.False(t, newTestEngine(nil).ShouldNotify(context.Background(), buySwap("mc1"), cfg))

	oracle := map[string]pricing.TokenMarketData{
		"TokenXmint11111111111111111111111111111111": {Price: 0.01, MarketCap: 500_000},
	}
	assert.True(t, newTestEngine(oracle).ShouldNotify(context.Background(), buySwap("mc2"), cfg))

	oracle["TokenXmint11111111111111111111111111111111"] = pricing.TokenMarketData{Price: 0.01, MarketCap: 5_000_000}
	assert.False(t, newTestEngine(oracle).ShouldNotify(context.Background(), buySwap("mc3"), cfg))
}

func TestIsBuy(t *testing.T) {
	engine := newTestEngine(nil)

	assert.True(t, engine.IsBuy(buySwap("b1")))

	sell := &whalefeed.Swap{
		InputToken:  leg("TokenXmint11111111111111111111111111111111", "TOKENX", 5000),
		OutputToken: leg(whalefeed.WrappedSOLMint, "SOL", 2),
	}
	assert.False(t, engine.IsBuy(sell))

	toStable := &whalefeed.Swap{
		InputToken:  leg("TokenXmint11111111111111111111111111111111", "TOKENX", 5000),
		OutputToken: leg("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", "USDC", 100),
	}
	assert.False(t, engine.IsBuy(toStable))

	noOutput := &whalefeed.Swap{InputToken: leg(whalefeed.WrappedSOLMint, "SOL", 2)}
	assert.False(t, engine.IsBuy(noOutput))
}

func TestRelevantLeg(t *testing.T) {
	engine := newTestEngine(nil)

	buy := buySwap("r1")
	assert.Equal(t, buy.OutputToken, engine.RelevantLeg(buy))

	sell := &whalefeed.Swap{
		InputToken:  leg("TokenXmint11111111111111111111111111111111", "TOKENX", 5000),
		OutputToken: leg(whalefeed.WrappedSOLMint, "SOL", 2),
	}
	assert.Equal(t, sell.InputToken, engine.RelevantLeg(sell))
}

func TestSwapValueUSD(t *testing.T) {
	oracle := map[string]pricing.TokenMarketData{
		whalefeed.WrappedSOLMint: {Price: 150},
	}
	engine := newTestEngine(oracle)

	// Input leg is 2 SOL, output token has no price: input wins at $300.
	assert.InDelta(t, 300, engine.SwapValueUSD(context.Background(), buySwap("v1")), 0.0001)

	stable := &whalefeed.Swap{
		InputToken:  leg("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", "USDC", 1234.5),
		OutputToken: leg("TokenXmint11111111111111111111111111111111", "TOKENX", 5000),
	}
	assert.InDelta(t, 1234.5, engine.SwapValueUSD(context.Background(), stable), 0.0001)

	unpriced := &whalefeed.Swap{
		InputToken:  leg("MintA1111111111111111111111111111111111111", "AAA", 10),
		OutputToken: leg("MintB1111111111111111111111111111111111111", "BBB", 20),
	}
	assert.Zero(t, engine.SwapValueUSD(context.Background(), unpriced))
}

func TestSwapValueUSDFallbackSOLPrice(t *testing.T) {
	// No oracle price for SOL: the fixed fallback keeps the valuation
	// from collapsing to zero.
	engine := newTestEngine(nil)

	assert.InDelta(t, 2*140, engine.SwapValueUSD(context.Background(), buySwap("v2")), 0.0001)
}

func TestLegSymbolPrefersMetadata(t *testing.T) {
	withMeta := leg(whalefeed.WrappedSOLMint, "WSOL", 1)
	assert.Equal(t, "WSOL", legSymbol(withMeta))

	noMeta := leg(whalefeed.WrappedSOLMint, "", 1)
	assert.Equal(t, "SOL", legSymbol(noMeta))

	unknown := leg("UnknownMint111111111111111111111111111111", "", 1)
	assert.Equal(t, "", legSymbol(unknown))
}
