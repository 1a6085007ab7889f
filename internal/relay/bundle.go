package relay

import (
	"sort"

	"github.com/ostium-labs/arbbot/internal/primitives"
)

// Bundle is one multicall transaction plus the bookkeeping scoring needs.
// This generator only ever bundles a single opportunity at a time, but
// Transactions is a slice to leave room for multi-tx bundles.
type Bundle struct {
	Transactions []Transaction
	Block uint64
}

// MinerPayment sums each transaction's delta-coinbase payment plus its
// gas*gas_price miner fee.
func (b Bundle) MinerPayment() primitives.U256 {
	total := primitives.U256{}
	for _, tx := range b.Transactions {
		total = total.Add(tx.DeltaCoinbase)
		if tx.Raw.GasPrice() != nil {
			gasPaid := primitives.NewU256FromUint64(tx.EstimatedGas).Mul(primitives.NewU256FromBig(tx.Raw.GasPrice()))
			total = total.Add(gasPaid)
		}
	}
	return total
}

// EstimatedGasTotal sums every transaction's estimated gas.
func (b Bundle) EstimatedGasTotal() primitives.U256 {
	total := primitives.U256{}
	for _, tx := range b.Transactions {
		total = total.Add(primitives.NewU256FromUint64(tx.EstimatedGas))
	}
	return total
}

// Score is the bundle's effective gas rate: miner_payment / sum(estimated_gas).
func (b Bundle) Score() primitives.U256 {
	return b.MinerPayment().Div(b.EstimatedGasTotal())
}

// SelectBest picks the survivor with the highest Score. It seeds best with
// bundles[0] and then re-scans the full slice for the max rather than
// starting the loop at index 1: harmless, but the re-scan, not the initial
// assignment, is what determines the result.
func SelectBest(bundles []Bundle) (Bundle, bool) {
	if len(bundles) == 0 {
		return Bundle{}, false
	}
	best := bundles[0]
	for _, b := range bundles {
		if b.Score().GreaterThan(best.Score()) {
			best = b
		}
	}
	return best, true
}

// SortByScore sorts bundles by Score descending, for callers that want the
// full ranked list rather than just the winner.
func SortByScore(bundles []Bundle) {
	sort.Slice(bundles, func(i, j int) bool {
		return bundles[i].Score().GreaterThan(bundles[j].Score())
	})
}
