package market

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/ostium-labs/arbbot/internal/primitives"
)

const pairABIJSON = `[
 {"constant":true,"inputs":[],"name":"getReserves","outputs":[{"name":"_reserve0","type":"uint112"},{"name":"_reserve1","type":"uint112"},{"name":"_blockTimestampLast","type":"uint32"}],"type":"function"},
 {"constant":false,"inputs":[{"name":"amount0Out","type":"uint256"},{"name":"amount1Out","type":"uint256"},{"name":"to","type":"address"},{"name":"data","type":"bytes"}],"name":"swap","outputs":[],"type":"function"},
 {"constant":true,"inputs":[],"name":"token0","outputs":[{"name":"","type":"address"}],"type":"function"},
 {"constant":true,"inputs":[],"name":"token1","outputs":[{"name":"","type":"address"}],"type":"function"}
]`

var (
	parsedPairABI abi.ABI
	parsedPairABIOnce sync.Once
)

func pairABI() abi.ABI {
	parsedPairABIOnce.Do(func() {
		parsed, err := abi.JSON(strings.NewReader(pairABIJSON))
		if err != nil {
			panic(fmt.Errorf("market: parse pair ABI: %w", err))
		}
		parsedPairABI = parsed
	})
	return parsedPairABI
}

var swapSelector = primitives.Selector("swap(uint256,uint256,address,bytes)")
var erc20TransferSelector = primitives.Selector("transfer(address,uint256)")

// AMMPair is the constant-product (0.3% fee) market adapter.
type AMMPair struct {
	pairAddress primitives.Address
	tokenI primitives.Address
	tokenJ primitives.Address
	reader ChainReader

	mu sync.RWMutex
	reserveI primitives.U256
	reserveJ primitives.U256
}

var _ Market = (*AMMPair)(nil)

// NewAMMPair constructs an AMM adapter for an on-chain Uniswap-V2-shaped pair.
func NewAMMPair(pairAddress, tokenI, tokenJ primitives.Address, reader ChainReader) *AMMPair {
	return &AMMPair{
		pairAddress: pairAddress,
		tokenI: tokenI,
		tokenJ: tokenJ,
		reader: reader,
	}
}

func (p *AMMPair) Tokens() (primitives.Address, primitives.Address) { return p.tokenI, p.tokenJ }
func (p *AMMPair) MarketAddress() primitives.Address { return p.pairAddress }
func (p *AMMPair) ProtocolTag() string { return "amm-pair" }

// DeltaContracts returns just the pair address: a pair needs refresh only
// if its own logs appeared in the previous block.
func (p *AMMPair) DeltaContracts() []primitives.Address {
	return []primitives.Address{p.pairAddress}
}

// MinerRewardPercentage is 99: 99% of a round trip's profit is paid to the
// proposer, 1% is kept.
func (p *AMMPair) MinerRewardPercentage() (primitives.U256, bool) {
	return primitives.NewU256FromUint64(99), true
}

func (p *AMMPair) reserves() (reserveI, reserveJ primitives.U256) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reserveI, p.reserveJ
}

// reservesFor returns (reserveIn, reserveOut) for the direction tokenIn->tokenOut.
func (p *AMMPair) reservesFor(tokenIn, tokenOut primitives.Address) (reserveIn, reserveOut primitives.U256, ok bool) {
	if !hasToken(tokenIn, p.tokenI, p.tokenJ) || !hasToken(tokenOut, p.tokenI, p.tokenJ) || tokenIn == tokenOut {
		return primitives.U256{}, primitives.U256{}, false
	}
	ri, rj := p.reserves()
	if tokenIn == p.tokenI {
		return ri, rj, true
	}
	return rj, ri, true
}

// AMMOut computes floor((amountIn*997*reserveOut) / (reserveIn*1000 + amountIn*997)),
// the constant-product-with-fee output formula shared by Uniswap-V2-style
// pairs. It is exported standalone so tests can exercise the formula's
// invariants directly without constructing a full adapter.
func AMMOut(reserveIn, reserveOut, amountIn primitives.U256) primitives.U256 {
	if reserveIn.Zero() || reserveOut.Zero() {
		return primitives.U256{}
	}
	amountInWithFee := amountIn.Mul(primitives.NewU256FromUint64(997))
	numerator := amountInWithFee.Mul(reserveOut)
	denominator := reserveIn.Mul(primitives.NewU256FromUint64(1000)).Add(amountInWithFee)
	return numerator.Div(denominator)
}

// AMMIn computes floor((reserveIn*amountOut*1000) / ((reserveOut-amountOut)*997)) + 1,
// the inverse of AMMOut; 0 if reserveOut <= amountOut.
func AMMIn(reserveIn, reserveOut, amountOut primitives.U256) primitives.U256 {
	if reserveOut.Cmp(amountOut) <= 0 {
		return primitives.U256{}
	}
	denomBase, ok := reserveOut.SubGuarded(amountOut)
	if !ok {
		return primitives.U256{}
	}
	numerator := reserveIn.Mul(amountOut).Mul(primitives.NewU256FromUint64(1000))
	denominator := denomBase.Mul(primitives.NewU256FromUint64(997))
	if numerator.Zero() || denominator.Zero() {
		return primitives.U256{}
	}
	return numerator.Div(denominator).Add(primitives.NewU256FromUint64(1))
}

func (p *AMMPair) GetTokensOut(tokenIn, tokenOut primitives.Address, amountIn primitives.U256) primitives.U256 {
	reserveIn, reserveOut, ok := p.reservesFor(tokenIn, tokenOut)
	if !ok {
		return primitives.U256{}
	}
	return AMMOut(reserveIn, reserveOut, amountIn)
}

func (p *AMMPair) GetTokensIn(tokenIn, tokenOut primitives.Address, amountOut primitives.U256) primitives.U256 {
	reserveIn, reserveOut, ok := p.reservesFor(tokenIn, tokenOut)
	if !ok {
		return primitives.U256{}
	}
	return AMMIn(reserveIn, reserveOut, amountOut)
}

// SellTokens emits a single call to swap(amount0Out, amount1Out, recipient, "")
// with the output-side amount set on the side matching tokenOut.
func (p *AMMPair) SellTokens(tokenIn primitives.Address, amountIn primitives.U256, recipient primitives.Address) ([]Call, error) {
	if tokenIn != p.tokenI && tokenIn != p.tokenJ {
		return nil, ErrBadToken
	}
	tokenOut := p.tokenJ
	if tokenIn == p.tokenJ {
		tokenOut = p.tokenI
	}
	amountOut := p.GetTokensOut(tokenIn, tokenOut, amountIn)

	amount0Out, amount1Out := primitives.U256{}, primitives.U256{}
	if tokenOut == p.tokenI {
		amount0Out = amountOut
	} else {
		amount1Out = amountOut
	}

	payload, err := pairABI().Pack("swap", amount0Out.Big(), amount1Out.Big(), recipient, []byte{})
	if err != nil {
		return nil, fmt.Errorf("market: pack swap call: %w", err)
	}
	// Drop the 4-byte selector pairABI.Pack prefixes; Call carries it separately.
	call, err := NewCall(p.pairAddress, swapSelector, payload[4:])
	if err != nil {
		return nil, err
	}
	return []Call{call}, nil
}

// ToFirstMarket moves amount of token from the executor to the pair, since
// this AMM pulls from its own balance rather than from the caller.
func (p *AMMPair) ToFirstMarket(token primitives.Address, amount primitives.U256) []Call {
	payload, err := erc20TransferABI().Pack("transfer", p.pairAddress, amount.Big())
	if err != nil {
		panic(fmt.Errorf("market: pack transfer call: %w", err))
	}
	call, err := NewCall(token, erc20TransferSelector, payload[4:])
	if err != nil {
		panic(err)
	}
	return []Call{call}
}

// PrepareReceive is a no-op for the AMM adapter.
func (p *AMMPair) PrepareReceive(primitives.Address) []Call { return nil }

// ReceiveDirectly is true iff token is one of the pair's endpoints.
func (p *AMMPair) ReceiveDirectly(token primitives.Address) bool {
	return hasToken(token, p.tokenI, p.tokenJ)
}

// SetReserves seeds the cached reserves directly, bypassing Update. It
// exists for tests that need a pair with known reserves without a live
// ChainReader.
func (p *AMMPair) SetReserves(reserveI, reserveJ primitives.U256) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reserveI = reserveI
	p.reserveJ = reserveJ
}

// Update reads on-chain reserves and overwrites the cached values.
func (p *AMMPair) Update(ctx context.Context) error {
	out, err := callView(ctx, p.reader, pairABI(), p.pairAddress, "getReserves", nil)
	if err != nil {
		return fmt.Errorf("market: amm %s getReserves: %w", p.pairAddress, err)
	}
	return p.applyReserves(out)
}

func (p *AMMPair) applyReserves(out []interface{}) error {
	if len(out) < 2 {
		return fmt.Errorf("market: amm getReserves returned %d outputs, want >= 2", len(out))
	}
	r0, ok0 := toBig(out[0])
	r1, ok1 := toBig(out[1])
	if !ok0 || !ok1 {
		return fmt.Errorf("market: amm getReserves: unexpected output types")
	}
	p.mu.Lock()
	p.reserveI = primitives.NewU256FromBig(r0)
	p.reserveJ = primitives.NewU256FromBig(r1)
	p.mu.Unlock()
	return nil
}

var erc20TransferABIParsed abi.ABI
var erc20TransferABIOnce sync.Once

func erc20TransferABI() abi.ABI {
	erc20TransferABIOnce.Do(func() {
		const j = `[{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}]`
		parsed, err := abi.JSON(strings.NewReader(j))
		if err != nil {
			panic(err)
		}
		erc20TransferABIParsed = parsed
	})
	return erc20TransferABIParsed
}
