package filters

import (
	"context"
	"strings"

	"whale-tracker/internal/clients_api/pricing"
	"whale-tracker/internal/clients_api/whalefeed"
)

// Oracle is the slice of the pricing oracle the engine needs.
type Oracle interface {
	TokenData(ctx context.Context, mint, symbol string) pricing.TokenMarketData
}

// fallbackSOLPrice values SOL legs when the oracle has no price. A zero
// SOL valuation would mask real trades behind the minimum-purchase filter.
const fallbackSOLPrice = 140

// spamMintPrefix marks a family of junk tokens minted with this address
// prefix.
const spamMintPrefix = "Xs"

// pairStablecoins is the set used for SOL<->stablecoin conversion
// suppression and for USD valuation.
var pairStablecoins = map[string]struct{}{
	"USDC": {}, "USDT": {}, "BUSD": {}, "USD1": {}, "DAI": {}, "FRAX": {},
}

// buyStablecoins is the narrower set used for direction detection: a swap
// whose output is one of these is a sell into stable value.
var buyStablecoins = map[string]struct{}{
	"USDC": {}, "USDT": {}, "BUSD": {}, "USD1": {},
}

// staticBlacklist holds known-bad mints suppressed for every user.
var staticBlacklist = map[string]struct{}{
	"EJhqXKJEncSx1HJjS5ZpKdiKGGgLiRgNPvo8JZvw5Guj": {},
}

// Engine decides whether a swap should notify a given user. The oracle and
// the processed set are injected so tests can isolate them and so one set
// is shared across all users of a dispatcher.
type Engine struct {
	oracle    Oracle
	processed *ProcessedSet
}

func NewEngine(oracle Oracle, processed *ProcessedSet) *Engine {
	return &Engine{oracle: oracle, processed: processed}
}

// Processed exposes the shared set, mainly for tests.
func (e *Engine) Processed() *ProcessedSet {
	return e.processed
}

// ShouldNotify runs the filter chain against one swap for one user's
// config. When the decision is positive the swap is committed to the
// processed set, so the same swap cannot notify twice. Every failure mode
// resolves to false; the engine never errors.
func (e *Engine) ShouldNotify(ctx context.Context, swap *whalefeed.Swap, config Config) bool {
	if swap == nil || !config.NotificationsEnabled {
		return false
	}

	identity := swap.Identity()
	if e.processed.Contains(identity) {
		return false
	}

	inputSymbol := swap.InputSymbol()
	outputSymbol := swap.OutputSymbol()

	// SOL<->stablecoin and stablecoin<->stablecoin swaps are conversions,
	// not directional trades.
	inputStable := isPairStablecoin(inputSymbol)
	outputStable := isPairStablecoin(outputSymbol)
	if (inputSymbol == "SOL" && outputStable) ||
		(outputSymbol == "SOL" && inputStable) ||
		(inputStable && outputStable) {
		return false
	}

	if hasSpamLeg(swap.InputToken) || hasSpamLeg(swap.OutputToken) {
		return false
	}

	if isStaticBlacklisted(swap.InputToken) || isStaticBlacklisted(swap.OutputToken) {
		return false
	}

	relevant := e.RelevantLeg(swap)
	if relevant == nil {
		return false
	}

	if config.MonitorAll {
		if !passesBlacklist(relevant, config.Blacklist) {
			return false
		}
	} else {
		if !matchesWhitelist(relevant, config.Tokens) {
			return false
		}
	}

	if !passesWhaleBlacklist(swap.FeePayer, config.WhaleBlacklist) {
		return false
	}

	if config.MinPurchaseUSD > 0 {
		if e.SwapValueUSD(ctx, swap) < config.MinPurchaseUSD {
			return false
		}
	}

	if config.MaxMarketCapUSD > 0 {
		data := e.oracle.TokenData(ctx, relevant.Mint, legSymbol(relevant))
		// An unknown cap fails closed while this filter is active.
		if data.MarketCap == 0 || data.MarketCap > config.MaxMarketCapUSD {
			return false
		}
	}

	e.processed.Add(identity)
	return true
}

// IsBuy reports whether the swap acquires a non-base asset: the output leg
// exists and is neither SOL nor a stablecoin.
func (e *Engine) IsBuy(swap *whalefeed.Swap) bool {
	symbol := swap.OutputSymbol()
	if swap.OutputToken == nil {
		return false
	}
	if _, stable := buyStablecoins[symbol]; stable {
		return false
	}
	return symbol != "SOL"
}

// RelevantLeg picks the leg the user-facing filters apply to: the acquired
// token on a buy, the disposed token otherwise.
func (e *Engine) RelevantLeg(swap *whalefeed.Swap) *whalefeed.TokenLeg {
	if e.IsBuy(swap) {
		return swap.OutputToken
	}
	return swap.InputToken
}

// SwapValueUSD estimates the trade size in USD: input leg first, output
// leg as fallback, 0 when neither is valuable.
func (e *Engine) SwapValueUSD(ctx context.Context, swap *whalefeed.Swap) float64 {
	if v := e.legValueUSD(ctx, swap.InputToken); v > 0 {
		return v
	}
	if v := e.legValueUSD(ctx, swap.OutputToken); v > 0 {
		return v
	}
	return 0
}

func (e *Engine) legValueUSD(ctx context.Context, leg *whalefeed.TokenLeg) float64 {
	if leg == nil {
		return 0
	}
	symbol := legSymbol(leg)
	if symbol == "" {
		return 0
	}

	if isPairStablecoin(symbol) {
		return leg.Amount
	}

	if symbol == "SOL" {
		data := e.oracle.TokenData(ctx, whalefeed.WrappedSOLMint, "SOL")
		price := data.Price
		if price == 0 {
			price = fallbackSOLPrice
		}
		return leg.Amount * price
	}

	if leg.Mint != "" {
		data := e.oracle.TokenData(ctx, leg.Mint, symbol)
		if data.Price > 0 {
			return leg.Amount * data.Price
		}
	}
	return 0
}

func legSymbol(leg *whalefeed.TokenLeg) string {
	if leg == nil {
		return ""
	}
	if leg.Metadata.Symbol != "" {
		return leg.Metadata.Symbol
	}
	if sym, ok := whalefeed.SymbolForMint(leg.Mint); ok {
		return sym
	}
	return ""
}

func isPairStablecoin(symbol string) bool {
	_, ok := pairStablecoins[symbol]
	return ok
}

func hasSpamLeg(leg *whalefeed.TokenLeg) bool {
	return leg != nil && strings.HasPrefix(leg.Mint, spamMintPrefix)
}

func isStaticBlacklisted(leg *whalefeed.TokenLeg) bool {
	if leg == nil {
		return false
	}
	_, ok := staticBlacklist[leg.Mint]
	return ok
}

// matchesWhitelist reports whether the leg matches an allowed entry by
// symbol or mint. An empty whitelist matches nothing: filter mode without
// entries fails closed.
func matchesWhitelist(leg *whalefeed.TokenLeg, allowed []string) bool {
	if len(allowed) == 0 {
		return false
	}
	symbol := strings.ToLower(legSymbol(leg))
	mint := strings.ToLower(leg.Mint)
	for _, entry := range allowed {
		lower := strings.ToLower(entry)
		if lower == symbol || lower == mint {
			return true
		}
	}
	return false
}

// passesBlacklist is the monitor-all counterpart: an empty blacklist
// allows everything.
func passesBlacklist(leg *whalefeed.TokenLeg, blocked []string) bool {
	if len(blocked) == 0 {
		return true
	}
	symbol := strings.ToLower(legSymbol(leg))
	mint := strings.ToLower(leg.Mint)
	for _, entry := range blocked {
		lower := strings.ToLower(entry)
		if lower == symbol || lower == mint {
			return false
		}
	}
	return true
}

func passesWhaleBlacklist(feePayer string, blocked []string) bool {
	for _, entry := range blocked {
		if strings.EqualFold(entry, feePayer) {
			return false
		}
	}
	return true
}
