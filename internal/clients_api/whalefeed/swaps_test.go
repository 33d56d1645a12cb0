package whalefeed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapIdentity(t *testing.T) {
	withSig := &Swap{Signature: "abc123", Timestamp: 1700000000000, FeePayer: "payer"}
	assert.Equal(t, "abc123", withSig.Identity())

	withoutSig := &Swap{Timestamp: 1700000000000, FeePayer: "payer"}
	assert.Equal(t, "1700000000000|payer", withoutSig.Identity())
}

func TestLegSymbolPriority(t *testing.T) {
	// Feed metadata wins over the known-token table.
	withMeta := &Swap{InputToken: &TokenLeg{
		Mint:     WrappedSOLMint,
		Metadata: TokenMetadata{Symbol: "WSOL"},
	}}
	assert.Equal(t, "WSOL", withMeta.InputSymbol())

	fallback := &Swap{InputToken: &TokenLeg{Mint: WrappedSOLMint}}
	assert.Equal(t, "SOL", fallback.InputSymbol())

	unknown := &Swap{InputToken: &TokenLeg{Mint: "NobodyKnowsThisMint"}}
	assert.Equal(t, "", unknown.InputSymbol())

	missing := &Swap{}
	assert.Equal(t, "", missing.OutputSymbol())
}

func TestMintForSymbol(t *testing.T) {
	mint, ok := MintForSymbol("usdc")
	require.True(t, ok)
	assert.Equal(t, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", mint)

	_, ok = MintForSymbol("NOSUCHTOKEN")
	assert.False(t, ok)
}
