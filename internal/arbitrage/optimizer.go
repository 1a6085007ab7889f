package arbitrage

import (
	"github.com/ostium-labs/arbbot/internal/market"
	"github.com/ostium-labs/arbbot/internal/primitives"
)

// orderProfit computes max(0, bid.GetTokensOut(Y,O, ask.GetTokensOut(O,Y,v)) - v),
// the round-trip profit function for volume v (step 3).
func orderProfit(ask, bid market.Market, origin, intermediary primitives.Address, v primitives.U256) primitives.U256 {
	intermediateOut := ask.GetTokensOut(origin, intermediary, v)
	returned := bid.GetTokensOut(intermediary, origin, intermediateOut)
	profit, ok := returned.SubGuarded(v)
	if !ok {
		return primitives.U256{}
	}
	return profit
}

// optimizeVolume finds v* approximating argmax orderProfit via a two-phase
// ladder-then-binary-ascent procedure. The ladder deliberately brackets at
// the first non-increasing step rather than scanning every rung, trading
// global optimality for a bounded number of quote calls per edge.
func optimizeVolume(ask, bid market.Market, origin, intermediary primitives.Address) (profit, volume primitives.U256) {
	ladder := volumeLadder()
	profits := make([]primitives.U256, len(ladder))
	for i, v := range ladder {
		profits[i] = orderProfit(ask, bid, origin, intermediary, v)
	}

	low, high := bracket(ladder, profits)
	return refine(ask, bid, origin, intermediary, low, high)
}

// bracket locates the first ladder index i where profit is non-increasing
// and returns the surrounding ladder values. If profit increases across
// the whole ladder, it brackets the last two rungs.
func bracket(ladder []primitives.U256, profits []primitives.U256) (low, high primitives.U256) {
	for i := 1; i < len(profits); i++ {
		if profits[i].Cmp(profits[i-1]) <= 0 {
			lowIdx := i - 1
			highIdx := i + 1
			if highIdx >= len(ladder) {
				highIdx = len(ladder) - 1
			}
			return ladder[lowIdx], ladder[highIdx]
		}
	}
	return ladder[len(ladder)-2], ladder[len(ladder)-1]
}

// refine is the binary gradient ascent of step 4, reproduced literally:
// at each step, nudge toward whichever neighbor of mid has higher profit,
// terminating on a local peak or once the bracket's profit spread collapses
// below precision.
func refine(ask, bid market.Market, origin, intermediary primitives.Address, low, high primitives.U256) (profit, volume primitives.U256) {
	mid := low.Add(high).Div(primitives.NewU256FromUint64(2))

	for i := 0; i < maxRefinementIterations; i++ {
		if absDiff(orderProfit(ask, bid, origin, intermediary, high), orderProfit(ask, bid, origin, intermediary, low)).LessThan(refinementPrecision) {
			break
		}

		profitMid := orderProfit(ask, bid, origin, intermediary, mid)
		profitStepUp := orderProfit(ask, bid, origin, intermediary, mid.Add(refinementStep))
		stepDownVolume, ok := mid.SubGuarded(refinementStep)
		if !ok {
			stepDownVolume = primitives.U256{}
		}
		profitStepDown := orderProfit(ask, bid, origin, intermediary, stepDownVolume)

		switch {
		case profitMid.LessThan(profitStepUp):
			low = mid
		case profitMid.LessThan(profitStepDown):
			high = mid
		default:
			return profitMid, mid
		}
		mid = low.Add(high).Div(primitives.NewU256FromUint64(2))
	}

	return orderProfit(ask, bid, origin, intermediary, mid), mid
}

func absDiff(a, b primitives.U256) primitives.U256 {
	if d, ok := a.SubGuarded(b); ok {
		return d
	}
	d, _ := b.SubGuarded(a)
	return d
}
