// Package market defines the uniform Market capability and the three
// adapter families that implement it: constant-product AMM pairs,
// wrap/unwrap markets, and the lending-collateral market.
package market

import (
	"context"

	"github.com/ostium-labs/arbbot/internal/primitives"
)

// Market is the capability set every market on a graph edge must implement.
// This package provides three families (AMM pair, wrap, lending); callers
// program entirely against this interface, including reading
// MinerRewardPercentage, and never type-switch on the concrete adapter.
type Market interface {
	// Tokens returns the market's two endpoints, in no particular order.
	Tokens() (primitives.Address, primitives.Address)
	// MarketAddress returns the on-chain address this market trades through.
	MarketAddress() primitives.Address
	// DeltaContracts lists addresses whose event logs imply this market
	// must be refreshed on the next delta update.
	DeltaContracts() []primitives.Address
	// ProtocolTag identifies the adapter family for logging/diagnostics.
	ProtocolTag() string
	// MinerRewardPercentage is the fraction (0..100) of profit paid to the
	// block proposer when this market is the cheaper leg of a bundle; the
	// zero value's ok is false when the market has no such policy.
	MinerRewardPercentage() (pct primitives.U256, ok bool)

	// GetTokensOut returns the amount of tokenOut a swap of amountIn of
	// tokenIn would produce at current cached state; 0 on token mismatch.
	GetTokensOut(tokenIn, tokenOut primitives.Address, amountIn primitives.U256) primitives.U256
	// GetTokensIn returns the amount of tokenIn required to receive
	// amountOut of tokenOut at current cached state; 0 on token mismatch
	// or if the requested amountOut is unreachable.
	GetTokensIn(tokenIn, tokenOut primitives.Address, amountOut primitives.U256) primitives.U256

	// SellTokens encodes the call(s) that perform the swap, crediting the
	// output to recipient. Returns ErrBadToken if tokenIn is neither
	// endpoint.
	SellTokens(tokenIn primitives.Address, amountIn primitives.U256, recipient primitives.Address) ([]Call, error)
	// ReceiveDirectly reports whether this market can receive token
	// directly from an upstream swap's output, vs. needing a transfer call.
	ReceiveDirectly(token primitives.Address) bool
	// ToFirstMarket returns the call(s) needed to move amount of token into
	// this market before swapping, or nil if none are needed.
	ToFirstMarket(token primitives.Address, amount primitives.U256) []Call
	// PrepareReceive returns call(s) needed before this market can receive
	// token (e.g. an approval), or nil if none are needed.
	PrepareReceive(token primitives.Address) []Call

	// Update refreshes this market's cached pricing state from the chain.
	Update(ctx context.Context) error
}

// hasToken reports whether token is one of a, b.
func hasToken(token, a, b primitives.Address) bool {
	return token == a || token == b
}
