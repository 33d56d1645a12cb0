package pricing

import (
	"context"
	"strings"
	"sync"
	"time"

	"whale-tracker/internal/infra/log"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Quote is one provider's partial view of a token. Zero fields mean the
// provider had no answer, not a zero value.
type Quote struct {
	Price          float64
	MarketCap      float64
	PriceChange24h float64
}

// Provider is a single market-data source.
type Provider interface {
	Name() string
	Quote(ctx context.Context, mint string) (Quote, error)
}

// TokenMarketData is the merged view the rest of the app consumes.
type TokenMarketData struct {
	Mint           string
	Price          float64
	MarketCap      float64
	PriceChange24h float64
	FetchedAt      time.Time
}

// Circulating supplies for majors, in whole tokens. Provider-reported
// market caps for these disagree with circulating supply, so the cap is
// computed from price times this table instead.
var knownSupplies = map[string]float64{
	"SOL":   542_300_000,
	"USDC":  72_400_000_000,
	"USDT":  169_100_000_000,
	"GUN":   1_121_166_667,
	"CPOOL": 808_900_000,
	"PUMP":  1_000_000_000_000,
}

// launchpadSupply covers pump.fun and bonk launchpad mints, which all fix
// supply at one billion tokens.
const launchpadSupply = 1_000_000_000

func knownSupply(mint, symbol string) (float64, bool) {
	if supply, ok := knownSupplies[symbol]; ok {
		return supply, true
	}
	if strings.HasSuffix(mint, "pump") || strings.HasSuffix(mint, "bonk") {
		return launchpadSupply, true
	}
	return 0, false
}

// cacheTTL is how long a quote stays fresh.
const defaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	data      TokenMarketData
	expiresAt time.Time
}

// Oracle merges quotes from the configured providers and caches the result
// per mint. Lookups never return an error; a token nobody prices comes back
// with zero fields, which the filtering layer treats as unknown.
type Oracle struct {
	jupiter   *JupiterClient
	providers []Provider // in priority order, jupiter first

	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry

	providerTimeout time.Duration
}

// OracleOption tweaks oracle construction.
type OracleOption func(*Oracle)

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) OracleOption {
	return func(o *Oracle) { o.now = now }
}

// WithCacheTTL overrides the default five-minute cache lifetime.
func WithCacheTTL(ttl time.Duration) OracleOption {
	return func(o *Oracle) { o.ttl = ttl }
}

// NewOracle wires the provider set. jupiter is also consulted directly for
// the known-supply fast path; the remaining providers fill in behind it.
func NewOracle(jupiter *JupiterClient, birdeye *BirdeyeClient, dexScreener *DexScreenerClient, coinGecko *CoinGeckoClient, providerTimeout time.Duration, opts ...OracleOption) *Oracle {
	if providerTimeout <= 0 {
		providerTimeout = 3 * time.Second
	}
	o := &Oracle{
		jupiter:         jupiter,
		providers:       []Provider{jupiter, birdeye, dexScreener, coinGecko},
		ttl:             defaultCacheTTL,
		now:             time.Now,
		cache:           make(map[string]cacheEntry),
		providerTimeout: providerTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// TokenData returns the merged market data for mint, serving from cache
// when fresh. symbol is only consulted for the known-supply table. A batch
// of provider failures still produces (and caches) a zeroed result so a
// dead provider set cannot stall the notification loop.
func (o *Oracle) TokenData(ctx context.Context, mint, symbol string) TokenMarketData {
	if data, ok := o.cached(mint); ok {
		return data
	}

	var data TokenMarketData
	if supply, ok := knownSupply(mint, symbol); ok {
		data = o.fetchKnownSupply(ctx, mint, supply)
	} else {
		data = o.fetchAll(ctx, mint)
	}

	o.store(mint, data)
	return data
}

// SOLPrice returns the current SOL price in USD, or 0 when unavailable.
func (o *Oracle) SOLPrice(ctx context.Context) float64 {
	return o.TokenData(ctx, "So11111111111111111111111111111111111111112", "SOL").Price
}

func (o *Oracle) cached(mint string) (TokenMarketData, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.cache[mint]
	if !ok || o.now().After(entry.expiresAt) {
		return TokenMarketData{}, false
	}
	return entry.data, true
}

func (o *Oracle) store(mint string, data TokenMarketData) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cache[mint] = cacheEntry{data: data, expiresAt: o.now().Add(o.ttl)}
}

// fetchKnownSupply asks Jupiter alone and derives the market cap from the
// fixed circulating supply.
func (o *Oracle) fetchKnownSupply(ctx context.Context, mint string, supply float64) TokenMarketData {
	fetchCtx, cancel := context.WithTimeout(ctx, o.providerTimeout)
	defer cancel()

	price, err := o.jupiter.Price(fetchCtx, mint)
	if err != nil {
		log.LogDebug("Jupiter price lookup failed", zap.String("mint", mint), zap.Error(err))
	}

	return TokenMarketData{
		Mint:      mint,
		Price:     price,
		MarketCap: price * supply,
		FetchedAt: o.now(),
	}
}

// fetchAll queries every provider concurrently and merges by priority:
// for each field the first provider in order with a non-zero value wins.
func (o *Oracle) fetchAll(ctx context.Context, mint string) TokenMarketData {
	quotes := make([]Quote, len(o.providers))

	g, groupCtx := errgroup.WithContext(ctx)
	for i, p := range o.providers {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(groupCtx, o.providerTimeout)
			defer cancel()

			quote, err := p.Quote(fetchCtx, mint)
			if err != nil {
				log.LogDebug("Provider quote failed",
					zap.String("provider", p.Name()),
					zap.String("mint", mint),
					zap.Error(err))
				return nil // a failed provider must not cancel the others
			}
			quotes[i] = quote
			return nil
		})
	}
	g.Wait()

	data := TokenMarketData{Mint: mint, FetchedAt: o.now()}
	for _, q := range quotes {
		if data.Price == 0 {
			data.Price = q.Price
		}
		if data.MarketCap == 0 {
			data.MarketCap = q.MarketCap
		}
		if data.PriceChange24h == 0 {
			data.PriceChange24h = q.PriceChange24h
		}
	}

	return data
}
