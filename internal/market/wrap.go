package market

import (
	"context"

	"github.com/ostium-labs/arbbot/internal/primitives"
)

var (
	depositSelector = primitives.Selector("deposit()")
	withdrawSelector = primitives.Selector("withdraw(uint256)")
)

// Wrap is the native<->wrapped-native 1:1 market adapter.
type Wrap struct {
	marketAddress primitives.Address
	native primitives.Address
	wrapped primitives.Address
}

var _ Market = (*Wrap)(nil)

// NewWrap constructs a wrap adapter for the given wrapped-native contract.
func NewWrap(marketAddress, native, wrapped primitives.Address) *Wrap {
	return &Wrap{marketAddress: marketAddress, native: native, wrapped: wrapped}
}

func (w *Wrap) Tokens() (primitives.Address, primitives.Address) { return w.native, w.wrapped }
func (w *Wrap) MarketAddress() primitives.Address { return w.marketAddress }
func (w *Wrap) ProtocolTag() string { return "wrap" }

// DeltaContracts is empty: a wrap market never needs refresh.
func (w *Wrap) DeltaContracts() []primitives.Address { return nil }

// MinerRewardPercentage: wrap markets have no such policy.
func (w *Wrap) MinerRewardPercentage() (primitives.U256, bool) { return primitives.U256{}, false }

// GetTokensOut and GetTokensIn are the identity function: wrapping never
// changes the amount.
func (w *Wrap) GetTokensOut(tokenIn, tokenOut primitives.Address, amountIn primitives.U256) primitives.U256 {
	if !hasToken(tokenIn, w.native, w.wrapped) || !hasToken(tokenOut, w.native, w.wrapped) || tokenIn == tokenOut {
		return primitives.U256{}
	}
	return amountIn
}

func (w *Wrap) GetTokensIn(tokenIn, tokenOut primitives.Address, amountOut primitives.U256) primitives.U256 {
	if !hasToken(tokenIn, w.native, w.wrapped) || !hasToken(tokenOut, w.native, w.wrapped) || tokenIn == tokenOut {
		return primitives.U256{}
	}
	return amountOut
}

// SellTokens encodes deposit() (a ValueCall) when selling native, or
// withdraw(amount) (a plain call) when selling wrapped.
func (w *Wrap) SellTokens(tokenIn primitives.Address, amountIn primitives.U256, recipient primitives.Address) ([]Call, error) {
	switch tokenIn {
	case w.native:
		return []Call{NewValueCall(CallTypeValue, w.marketAddress, depositSelector, amountIn)}, nil
	case w.wrapped:
		payload := make([]byte, 32)
		amountIn.Big().FillBytes(payload)
		call, err := NewCall(w.marketAddress, withdrawSelector, payload)
		if err != nil {
			return nil, err
		}
		return []Call{call}, nil
	default:
		return nil, ErrBadToken
	}
}

// ToFirstMarket: none needed, the wrap contract is called directly.
func (w *Wrap) ToFirstMarket(primitives.Address, primitives.U256) []Call { return nil }

// PrepareReceive is a no-op.
func (w *Wrap) PrepareReceive(primitives.Address) []Call { return nil }

// ReceiveDirectly is always true.
func (w *Wrap) ReceiveDirectly(primitives.Address) bool { return true }

// Update is a no-op: the 1:1 rate never changes.
func (w *Wrap) Update(context.Context) error { return nil }
