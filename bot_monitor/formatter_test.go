package bot_monitor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"whale-tracker/internal/clients_api/whalefeed"
)

func alertSwap() *whalefeed.Swap {
	return &whalefeed.Swap{
		Signature: "sig-abc",
		FeePayer:  "WhaleFeePayer11111111111111111111111111111",
		InputToken: &whalefeed.TokenLeg{
			Mint:     whalefeed.WrappedSOLMint,
			Amount:   10,
			Metadata: whalefeed.TokenMetadata{Symbol: "SOL"},
		},
		OutputToken: &whalefeed.TokenLeg{
			Mint:     "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
			Amount:   1234567.89,
			Metadata: whalefeed.TokenMetadata{Symbol: "BONK"},
		},
	}
}

func TestFormatNotificationBuy(t *testing.T) {
	swap := alertSwap()
	msg := FormatNotification(swap, true, swap.OutputToken, 1500, 45_000_000)

	assert.True(t, strings.HasPrefix(msg, "🟢 BUY Alert!"))
	assert.Contains(t, msg, "[WhaleFee...](https://solscan.io/account/WhaleFeePayer11111111111111111111111111111)")
	assert.Contains(t, msg, "[BONK](https://dexscreener.com/solana/DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263)")
	assert.Contains(t, msg, "📊 Amount: 1,234,567.89")
	assert.Contains(t, msg, "💵 Value: $1,500")
	assert.Contains(t, msg, "🏦 Market Cap: $45.0M")
	assert.Contains(t, msg, "https://solscan.io/tx/sig-abc")
	assert.Contains(t, msg, "#WhaleAlert #BONK")
}

func TestFormatNotificationSell(t *testing.T) {
	swap := alertSwap()
	msg := FormatNotification(swap, false, swap.InputToken, 300, 0)

	assert.True(t, strings.HasPrefix(msg, "🔴 SELL Alert!"))
	assert.Contains(t, msg, "🏦 Market Cap: Unknown")
	assert.Contains(t, msg, "#WhaleAlert #SOL")
}

func TestExtractMintRoundTrip(t *testing.T) {
	swap := alertSwap()
	msg := FormatNotification(swap, true, swap.OutputToken, 1500, 45_000_000)

	assert.Equal(t, swap.OutputToken.Mint, ExtractMint(msg))
	assert.Equal(t, "", ExtractMint("no contract address here"))
}

func TestFormatMarketCap(t *testing.T) {
	assert.Equal(t, "$2.5B", FormatMarketCap(2_500_000_000))
	assert.Equal(t, "$45.0M", FormatMarketCap(45_000_000))
	assert.Equal(t, "$850K", FormatMarketCap(850_000))
	assert.Equal(t, "Unknown", FormatMarketCap(0))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1,234,567.89", formatAmount(1234567.89))
	assert.Equal(t, "1,000", formatAmount(1000))
	assert.Equal(t, "0.5", formatAmount(0.5))
	assert.Equal(t, "42", formatAmount(42))
	assert.Equal(t, "-1,500", formatAmount(-1500))
}

func TestAbbreviate(t *testing.T) {
	assert.Equal(t, "short", abbreviate("short"))
	assert.Equal(t, "WhaleFee...", abbreviate("WhaleFeePayer11111111111111111111111111111"))
}
