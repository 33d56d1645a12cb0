package whalefeed

import (
	"fmt"
	"strings"
)

// TokenMetadata carries the display attributes attached to a swap leg.
type TokenMetadata struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// TokenLeg is one side of a swap. Amount is already scaled to whole tokens.
type TokenLeg struct {
	Mint     string        `json:"mint"`
	Amount   float64       `json:"amount"`
	Metadata TokenMetadata `json:"metadata"`
}

// Swap is a single whale trade from the feed. Either leg may be nil when the
// upstream parser could not resolve it.
type Swap struct {
	ID          string    `json:"id"`
	Timestamp   int64     `json:"timestamp"` // unix milliseconds
	FeePayer    string    `json:"feePayer"`
	Source      string    `json:"source"`
	Signature   string    `json:"signature"`
	Description string    `json:"description"`
	WhaleAsset  string    `json:"whaleAsset"`
	WhaleSymbol string    `json:"whaleSymbol"`
	InputToken  *TokenLeg `json:"inputToken"`
	OutputToken *TokenLeg `json:"outputToken"`
}

// Identity returns the deduplication key for the swap. The signature is
// preferred; swaps without one fall back to timestamp plus fee payer.
func (s *Swap) Identity() string {
	if s.Signature != "" {
		return s.Signature
	}
	return fmt.Sprintf("%d|%s", s.Timestamp, s.FeePayer)
}

// InputSymbol returns the input leg's symbol, consulting the known-token
// table when the feed metadata is missing, or "" when the leg is absent.
func (s *Swap) InputSymbol() string {
	return legSymbol(s.InputToken)
}

// OutputSymbol returns the output leg's symbol, or "" when the leg is absent.
func (s *Swap) OutputSymbol() string {
	return legSymbol(s.OutputToken)
}

func legSymbol(leg *TokenLeg) string {
	if leg == nil {
		return ""
	}
	if leg.Metadata.Symbol != "" {
		return leg.Metadata.Symbol
	}
	if known, ok := KnownSymbols[leg.Mint]; ok {
		return known
	}
	return ""
}

// WrappedSOLMint is the canonical wrapped SOL mint address.
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

// KnownSymbols maps frequently traded mints to their canonical symbols,
// covering tokens the feed ships without usable metadata.
var KnownSymbols = map[string]string{
	WrappedSOLMint: "SOL",
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": "USDC",
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": "USDT",
	"Ey59PH7Z4BFU4HjyKnyMdWt5GGN76KazTAwQihoUXRnk": "LAUNCHCOIN",
	"pumpCmXqMfrsAkQ5r49WcJnRayYRqmXz6ae8H7H9Dfn":  "PUMP",
	"HeLp6NuQkmYB4pYWo2zYs22mESHXPQYzXbB8n4V98jwC": "ai16z",
	"HUMA1821qVDKta3u2ovmfDQeW2fSQouSKE8fkF44wvGw": "HUMA",
	"USD1ttGY1N17NEEHLmELoaybftRBUSErhqYiQzvEmuB":  "USD1",
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So":  "mSOL",
	"bSo13r4TkiE4KumL71LsHTPpL2euBYLFx6h9HP3piy1":  "bSOL",
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": "BONK",
	"7vfCXTUXx5WJV5JADk17DUJ4ksgau7utNKj4b963voxs": "ETH",
	"9n4nbM75f5Ui33ZbPYXn59EwSgE8CGsHtAeTH5YFeJ9E": "BTC",
	"5oVNBeEEQvYi1cX3ir8Dx5n1P7pdxydbGF2X4TxVusJm": "INF",
	"A9mUU4qviSctJVPJdBJWkb28deg915LYJKrzQ19ji3FM": "USDCet",
	"3NZ9JMVBmGAqocybic2c7LQCJScmgsAZ6vQqTDzcqmJh": "WBTC",
}

// SymbolForMint resolves a mint to its canonical symbol when known.
func SymbolForMint(mint string) (string, bool) {
	sym, ok := KnownSymbols[mint]
	return sym, ok
}

// MintForSymbol does the reverse lookup against the known-token table.
// Symbols are matched case-insensitively.
func MintForSymbol(symbol string) (string, bool) {
	for mint, sym := range KnownSymbols {
		if strings.EqualFold(sym, symbol) {
			return mint, true
		}
	}
	return "", false
}
