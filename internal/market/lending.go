package market

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/ostium-labs/arbbot/internal/primitives"
)

const lendingABIJSON = `[
 {"constant":true,"inputs":[],"name":"exchangeRateCurrent","outputs":[{"name":"","type":"uint256"}],"type":"function"},
 {"constant":false,"inputs":[],"name":"mint","outputs":[],"payable":true,"type":"function"},
 {"constant":false,"inputs":[{"name":"redeemTokens","type":"uint256"}],"name":"redeem","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

var (
	parsedLendingABI abi.ABI
	parsedLendingABIOnce sync.Once
	mintSelector = primitives.Selector("mint()")
	redeemSelector = primitives.Selector("redeem(uint256)")
)

func lendingABI() abi.ABI {
	parsedLendingABIOnce.Do(func() {
		parsed, err := abi.JSON(strings.NewReader(lendingABIJSON))
		if err != nil {
			panic(fmt.Errorf("market: parse lending ABI: %w", err))
		}
		parsedLendingABI = parsed
	})
	return parsedLendingABI
}

// exchangeRateScale is the fixed-point scale of the accruing exchange rate: 1e18.
var exchangeRateScale = primitives.Ether

// Lending is the native<->interest-bearing-collateral market adapter,
// e.g. a Compound-style cToken.
type Lending struct {
	marketAddress primitives.Address
	native primitives.Address
	collateral primitives.Address
	executorSentinel primitives.Address
	reader ChainReader

	mu sync.RWMutex
	rate primitives.U256 // scaled by exchangeRateScale
}

var _ Market = (*Lending)(nil)

// NewLending constructs a lending adapter. executorSentinel is the executor
// contract address, returned from DeltaContracts as the "always update"
// sentinel.
func NewLending(marketAddress, native, collateral, executorSentinel primitives.Address, reader ChainReader) *Lending {
	return &Lending{
		marketAddress: marketAddress,
		native: native,
		collateral: collateral,
		executorSentinel: executorSentinel,
		reader: reader,
	}
}

func (l *Lending) Tokens() (primitives.Address, primitives.Address) { return l.native, l.collateral }
func (l *Lending) MarketAddress() primitives.Address { return l.marketAddress }
func (l *Lending) ProtocolTag() string { return "lending" }

// DeltaContracts returns the executor sentinel: the lending rate accrues
// every block regardless of whose logs appeared, so it always updates.
func (l *Lending) DeltaContracts() []primitives.Address {
	return []primitives.Address{l.executorSentinel}
}

// MinerRewardPercentage: the lending adapter has no such policy.
func (l *Lending) MinerRewardPercentage() (primitives.U256, bool) { return primitives.U256{}, false }

func (l *Lending) exchangeRate() primitives.U256 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rate
}

func (l *Lending) GetTokensOut(tokenIn, tokenOut primitives.Address, amountIn primitives.U256) primitives.U256 {
	rate := l.exchangeRate()
	switch {
	case tokenIn == l.native && tokenOut == l.collateral:
		return amountIn.Mul(exchangeRateScale).Div(rate)
	case tokenIn == l.collateral && tokenOut == l.native:
		return amountIn.Mul(rate).Div(exchangeRateScale)
	default:
		return primitives.U256{}
	}
}

// GetTokensIn is the exact inverse of GetTokensOut's integer division,
// reusing the same scaled-rate formula in the opposite direction; the
// lending adapter's rounding, like the AMM's, is plain integer division
// (no separate "round up" rule is specified for this family).
func (l *Lending) GetTokensIn(tokenIn, tokenOut primitives.Address, amountOut primitives.U256) primitives.U256 {
	rate := l.exchangeRate()
	switch {
	case tokenIn == l.native && tokenOut == l.collateral:
		return amountOut.Mul(rate).Div(exchangeRateScale)
	case tokenIn == l.collateral && tokenOut == l.native:
		return amountOut.Mul(exchangeRateScale).Div(rate)
	default:
		return primitives.U256{}
	}
}

// SellTokens encodes mint() (a ValueCall) for native->collateral, or
// redeem(amount) (a plain call) for collateral->native.
func (l *Lending) SellTokens(tokenIn primitives.Address, amountIn primitives.U256, recipient primitives.Address) ([]Call, error) {
	switch tokenIn {
	case l.native:
		return []Call{NewValueCall(CallTypeValue, l.marketAddress, mintSelector, amountIn)}, nil
	case l.collateral:
		payload, err := lendingABI().Pack("redeem", amountIn.Big())
		if err != nil {
			return nil, fmt.Errorf("market: pack redeem call: %w", err)
		}
		call, err := NewCall(l.marketAddress, redeemSelector, payload[4:])
		if err != nil {
			return nil, err
		}
		return []Call{call}, nil
	default:
		return nil, ErrBadToken
	}
}

// ToFirstMarket: none needed, mint/redeem are called directly on the market.
func (l *Lending) ToFirstMarket(primitives.Address, primitives.U256) []Call { return nil }

// PrepareReceive is a no-op.
func (l *Lending) PrepareReceive(primitives.Address) []Call { return nil }

// ReceiveDirectly is true for both endpoints.
func (l *Lending) ReceiveDirectly(token primitives.Address) bool {
	return hasToken(token, l.native, l.collateral)
}

// Update reads the accruing "current exchange rate" view and overwrites the
// cached rate.
func (l *Lending) Update(ctx context.Context) error {
	out, err := callView(ctx, l.reader, lendingABI(), l.marketAddress, "exchangeRateCurrent", nil)
	if err != nil {
		return fmt.Errorf("market: lending %s exchangeRateCurrent: %w", l.marketAddress, err)
	}
	if len(out) < 1 {
		return fmt.Errorf("market: lending exchangeRateCurrent returned no output")
	}
	rate, ok := toBig(out[0])
	if !ok {
		return fmt.Errorf("market: lending exchangeRateCurrent: unexpected output type")
	}
	l.mu.Lock()
	l.rate = primitives.NewU256FromBig(rate)
	l.mu.Unlock()
	return nil
}
