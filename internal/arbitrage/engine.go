// Package arbitrage enumerates two-market round trips over a market graph
// and optimizes their volume.
package arbitrage

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ostium-labs/arbbot/internal/graph"
	"github.com/ostium-labs/arbbot/internal/market"
	"github.com/ostium-labs/arbbot/internal/primitives"
	"github.com/ostium-labs/arbbot/pkg/observability"
)

// CrossedMarket is one emitted arbitrage opportunity (step 5).
type CrossedMarket struct {
	Origin primitives.Address
	Intermediary primitives.Address
	Ask market.Market
	Bid market.Market
	Volume primitives.U256
	Profit primitives.U256
}

// Engine holds the tunables a search pass needs beyond the graph itself.
type Engine struct {
	logger *observability.Logger
}

// New builds an Engine.
func New(logger *observability.Logger) *Engine {
	return &Engine{logger: logger}
}

// Search runs one full search pass over g for the given origin tokens,
///: candidate edges are scanned in parallel against a
// mutex-guarded results sink, and the graph itself is never mutated
// during the pass. Results are sorted by profit descending.
func (e *Engine) Search(ctx context.Context, g *graph.MarketGraph, origins []primitives.Address) ([]CrossedMarket, error) {
	var (
		mu sync.Mutex
		results []CrossedMarket
	)

	grp, ctx := errgroup.WithContext(ctx)
	for _, origin := range origins {
		origin := origin
		for _, intermediary := range g.Neighbors(origin) {
			intermediary := intermediary
			edge, ok := g.Edge(origin, intermediary)
			if !ok || len(edge.Markets) < 2 {
				continue
			}

			grp.Go(func() error {
				crossed, found := e.evaluateCandidate(origin, intermediary, edge.Markets)
				if !found {
					return nil
				}
				mu.Lock()
				results = append(results, crossed)
				mu.Unlock()
				return nil
			})
		}
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Profit.GreaterThan(results[j].Profit)
	})

	for _, r := range results {
		e.logger.Debug(ctx, "arbitrage: crossed market found", map[string]interface{}{
			"origin": r.Origin.Hex(),
			"intermediary": r.Intermediary.Hex(),
			"profit_eth": primitives.FormatEther(r.Profit),
			"volume_eth": primitives.FormatEther(r.Volume),
		})
	}
	return results, nil
}

// evaluateCandidate implements steps 2-5 for one (origin,intermediary)
// candidate edge.
func (e *Engine) evaluateCandidate(origin, intermediary primitives.Address, markets []market.Market) (CrossedMarket, bool) {
	ask, askOk := bestAsk(origin, intermediary, markets)
	bid, bidOk := bestBid(origin, intermediary, markets)
	if !askOk || !bidOk {
		return CrossedMarket{}, false
	}

	probeProfit := orderProfit(ask, bid, origin, intermediary, probeSize)
	if probeProfit.Cmp(primitives.U256{}) <= 0 {
		return CrossedMarket{}, false
	}

	profit, volume := optimizeVolume(ask, bid, origin, intermediary)
	if profit.Cmp(minProfitThreshold) <= 0 {
		return CrossedMarket{}, false
	}

	return CrossedMarket{
		Origin: origin,
		Intermediary: intermediary,
		Ask: ask,
		Bid: bid,
		Volume: volume,
		Profit: profit,
	}, true
}

// bestAsk picks the adapter on the edge maximizing get_tokens_out(O,Y,probe)
// (step 2). Per the zero-quote-skip decision (see DESIGN.md), adapters
// quoting zero are skipped entirely rather than allowed to win on an empty
// pool; ties keep the lower-indexed adapter (stable selection).
func bestAsk(origin, intermediary primitives.Address, markets []market.Market) (market.Market, bool) {
	var best market.Market
	var bestOut primitives.U256
	found := false
	for _, m := range markets {
		out := m.GetTokensOut(origin, intermediary, probeSize)
		if out.Cmp(primitives.U256{}) <= 0 {
			continue
		}
		if !found || out.GreaterThan(bestOut) {
			best, bestOut, found = m, out, true
		}
	}
	return best, found
}

// bestBid picks the cheapest buyer of Y for O: the adapter minimizing
// get_tokens_in(Y,O,probe) (step 2). Zero quotes are skipped under the
// same rationale as bestAsk — a zero quote here means the adapter cannot
// source the probe amount at all, not that it is free.
func bestBid(origin, intermediary primitives.Address, markets []market.Market) (market.Market, bool) {
	var best market.Market
	var bestIn primitives.U256
	found := false
	for _, m := range markets {
		in := m.GetTokensIn(intermediary, origin, probeSize)
		if in.Cmp(primitives.U256{}) <= 0 {
			continue
		}
		if !found || in.LessThan(bestIn) {
			best, bestIn, found = m, in, true
		}
	}
	return best, found
}
