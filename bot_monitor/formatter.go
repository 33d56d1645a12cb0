package bot_monitor

import (
	"fmt"
	"math"
	"strings"

	"whale-tracker/internal/clients_api/whalefeed"
)

// FormatNotification renders the alert message for a matched swap.
// relevant is the leg the alert is about; marketCap of 0 renders as
// "Unknown". The message is Telegram Markdown.
func FormatNotification(swap *whalefeed.Swap, isBuy bool, relevant *whalefeed.TokenLeg, usdValue, marketCap float64) string {
	direction := "🔴 SELL"
	if isBuy {
		direction = "🟢 BUY"
	}

	symbol := "Unknown"
	mint := ""
	amount := "Unknown"
	if relevant != nil {
		if s := legDisplaySymbol(relevant); s != "" {
			symbol = s
		}
		mint = relevant.Mint
		amount = formatAmount(relevant.Amount)
	}

	whale := abbreviate(swap.FeePayer)

	var b strings.Builder
	fmt.Fprintf(&b, "%s Alert!\n\n", direction)
	fmt.Fprintf(&b, "🐋 Whale: [%s](https://solscan.io/account/%s)\n", whale, swap.FeePayer)
	fmt.Fprintf(&b, "💰 Token: [%s](https://dexscreener.com/solana/%s)\n", symbol, mint)
	fmt.Fprintf(&b, "📋 CA: `%s`\n", mint)
	fmt.Fprintf(&b, "📊 Amount: %s\n", amount)
	fmt.Fprintf(&b, "💵 Value: $%s\n", formatAmount(math.Round(usdValue)))
	fmt.Fprintf(&b, "🏦 Market Cap: %s\n", FormatMarketCap(marketCap))
	fmt.Fprintf(&b, "🔗 [View Transaction](https://solscan.io/tx/%s)\n\n", swap.Signature)
	fmt.Fprintf(&b, "#WhaleAlert #%s", symbol)

	return b.String()
}

// FormatMarketCap scales a cap to a $xB/$xM/$xK label, "Unknown" for 0.
func FormatMarketCap(marketCap float64) string {
	switch {
	case marketCap >= 1_000_000_000:
		return fmt.Sprintf("$%.1fB", marketCap/1_000_000_000)
	case marketCap >= 1_000_000:
		return fmt.Sprintf("$%.1fM", marketCap/1_000_000)
	case marketCap > 0:
		return fmt.Sprintf("$%dK", int64(math.Round(marketCap/1000)))
	default:
		return "Unknown"
	}
}

// ExtractMint parses the contract address back out of a formatted alert.
func ExtractMint(message string) string {
	start := strings.Index(message, "📋 CA: `")
	if start < 0 {
		return ""
	}
	rest := message[start+len("📋 CA: `"):]
	end := strings.Index(rest, "`")
	if end < 0 {
		return ""
	}
	return rest[:end]
}

func legDisplaySymbol(leg *whalefeed.TokenLeg) string {
	if leg.Metadata.Symbol != "" {
		return leg.Metadata.Symbol
	}
	if sym, ok := whalefeed.SymbolForMint(leg.Mint); ok {
		return sym
	}
	return ""
}

func abbreviate(address string) string {
	if len(address) <= 8 {
		return address
	}
	return address[:8] + "..."
}

// formatAmount renders a number with thousands separators and up to two
// decimal places, trimming trailing zeros.
func formatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "Unknown"
	}

	negative := v < 0
	v = math.Abs(v)

	whole := int64(v)
	frac := v - float64(whole)

	digits := fmt.Sprintf("%d", whole)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)
	out := strings.Join(groups, ",")

	if frac >= 0.005 {
		fracStr := strings.TrimRight(fmt.Sprintf("%.2f", frac)[1:], "0")
		if fracStr != "." {
			out += fracStr
		}
	}

	if negative {
		out = "-" + out
	}
	return out
}
