// Package relay composes CrossedMarket opportunities into signed multicall
// transactions and submits them to Flashbots-style relays.
package relay

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ostium-labs/arbbot/internal/arbitrage"
	"github.com/ostium-labs/arbbot/internal/config"
	"github.com/ostium-labs/arbbot/internal/market"
	"github.com/ostium-labs/arbbot/internal/multicall"
	"github.com/ostium-labs/arbbot/internal/primitives"
)

const executorABIJSON = `[{"constant":false,"inputs":[{"name":"words","type":"bytes32[]"}],"name":"ostium","outputs":[],"type":"function"}]`

var (
	executorABIParsed abi.ABI
	executorABIOnce sync.Once
)

func executorABI() abi.ABI {
	executorABIOnce.Do(func() {
		parsed, err := abi.JSON(strings.NewReader(executorABIJSON))
		if err != nil {
			panic(fmt.Errorf("relay: parse executor ABI: %w", err))
		}
		executorABIParsed = parsed
	})
	return executorABIParsed
}

// Transaction pairs a built *types.Transaction with the bookkeeping needed
// for bundle scoring.
type Transaction struct {
	Raw *types.Transaction
	DeltaCoinbase primitives.U256
	EstimatedGas uint64
}

// minerRewardPercentage returns the declared reward share, or 100 (no
// restriction) if the market declares none — an undeclared reward share
// is treated as unconstrained.
func minerRewardPercentage(m interface {
	MinerRewardPercentage() (primitives.U256, bool)
}) primitives.U256 {
	pct, ok := m.MinerRewardPercentage()
	if !ok {
		return primitives.NewU256FromUint64(100)
	}
	return pct
}

func minU256(a, b primitives.U256) primitives.U256 {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Compose builds the executor transaction for one CrossedMarket: assembles
// the ask/bid call sequence and encodes it into an unsigned transaction
// (nonce 0); signing is left to the caller. estimatedGas is the gas limit
// to attach and the basis of the gas price.
func Compose(crossed arbitrage.CrossedMarket, addresses config.AddressBook, executorNativeBalance primitives.U256, estimatedGas uint64) (Transaction, error) {
	var calls []market.Call

	if pre := crossed.Ask.ToFirstMarket(crossed.Origin, crossed.Volume); pre != nil {
		calls = append(calls, pre...)
	}

	sell1, err := crossed.Ask.SellTokens(crossed.Origin, crossed.Volume, crossed.Bid.MarketAddress())
	if err != nil {
		return Transaction{}, fmt.Errorf("relay: ask sell_tokens: %w", err)
	}
	calls = append(calls, sell1...)

	intermediate := crossed.Ask.GetTokensOut(crossed.Origin, crossed.Intermediary, crossed.Volume)

	sell2, err := crossed.Bid.SellTokens(crossed.Intermediary, intermediate, addresses.Executor)
	if err != nil {
		return Transaction{}, fmt.Errorf("relay: bid sell_tokens: %w", err)
	}
	calls = append(calls, sell2...)

	askPct := minerRewardPercentage(crossed.Ask)
	bidPct := minerRewardPercentage(crossed.Bid)
	minerPct := minU256(askPct, bidPct)
	minerPayment := crossed.Profit.Mul(minerPct).Div(primitives.NewU256FromUint64(100))

	payWithWeth := executorNativeBalance.LessThan(minerPayment)

	header := multicall.Header{
		PayWithWeth: payWithWeth,
		BurnGastoken: false,
		EthToCoinbase: minerPayment,
		DesiredBlock: 0,
	}

	words, err := multicall.Encode(header, calls)
	if err != nil {
		return Transaction{}, fmt.Errorf("relay: encode multicall: %w", err)
	}

	data, err := executorABI().Pack("ostium", words)
	if err != nil {
		return Transaction{}, fmt.Errorf("relay: pack ostium call: %w", err)
	}

	// gas_price = miner_payment / (estimated_gas * 100 / 90), step 7.
	denom := primitives.NewU256FromUint64(estimatedGas).
		Mul(primitives.NewU256FromUint64(100)).
		Div(primitives.NewU256FromUint64(90))
	gasPrice := minerPayment.Div(denom)

	executor := addresses.Executor
	tx := types.NewTx(&types.LegacyTx{
		To: &executor,
		Gas: estimatedGas,
		GasPrice: gasPrice.Big(),
		Data: data,
	})

	return Transaction{
		Raw: tx,
		DeltaCoinbase: minerPayment,
		EstimatedGas: estimatedGas,
	}, nil
}
