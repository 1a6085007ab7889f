// Package graph implements the market multigraph: nodes are token
// addresses, edges carry an ordered list of Market adapters trading that
// token pair.
package graph

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ostium-labs/arbbot/internal/market"
	"github.com/ostium-labs/arbbot/internal/primitives"
	"github.com/ostium-labs/arbbot/pkg/observability"
)

// pairKey canonicalizes an unordered token pair for map lookups.
type pairKey [2]primitives.Address

func newPairKey(a, b primitives.Address) pairKey {
	if bytesLess(a, b) {
		return pairKey{a, b}
	}
	return pairKey{b, a}
}

func bytesLess(a, b primitives.Address) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// TokenMarkets is the edge weight: an ordered, non-empty list of markets
// trading a given unordered token pair.
type TokenMarkets struct {
	TokenI, TokenJ primitives.Address
	Markets []market.Market
}

// MarketGraph is the undirected multigraph of token pairs. The
// graph owns all adapters; callers mutate them only through the graph's
// update methods, never by reaching into a TokenMarkets directly during a
// search pass.
type MarketGraph struct {
	logger *observability.Logger

	edges map[pairKey]*TokenMarkets
	neighbors map[primitives.Address]map[primitives.Address]struct{}
}

// New constructs an empty graph.
func New(logger *observability.Logger) *MarketGraph {
	return &MarketGraph{
		logger: logger,
		edges: make(map[pairKey]*TokenMarkets),
		neighbors: make(map[primitives.Address]map[primitives.Address]struct{}),
	}
}

// AddMarket inserts m onto the edge for its token pair, creating the edge
// and both endpoint nodes if they don't exist yet. No self-loops are
// permitted (invariant i != j on TokenPair).
func (g *MarketGraph) AddMarket(m market.Market) error {
	a, b := m.Tokens()
	if a == b {
		return fmt.Errorf("graph: market %s has identical tokens %s", m.MarketAddress(), a)
	}
	key := newPairKey(a, b)
	edge, ok := g.edges[key]
	if !ok {
		edge = &TokenMarkets{TokenI: a, TokenJ: b}
		g.edges[key] = edge
		g.link(a, b)
	}
	edge.Markets = append(edge.Markets, m)
	return nil
}

func (g *MarketGraph) link(a, b primitives.Address) {
	if g.neighbors[a] == nil {
		g.neighbors[a] = make(map[primitives.Address]struct{})
	}
	if g.neighbors[b] == nil {
		g.neighbors[b] = make(map[primitives.Address]struct{})
	}
	g.neighbors[a][b] = struct{}{}
	g.neighbors[b][a] = struct{}{}
}

// Edge returns the TokenMarkets for the unordered pair (a,b), if any.
func (g *MarketGraph) Edge(a, b primitives.Address) (*TokenMarkets, bool) {
	edge, ok := g.edges[newPairKey(a, b)]
	return edge, ok
}

// Neighbors returns every token with at least one market against origin,
// sorted for deterministic iteration order across runs.
func (g *MarketGraph) Neighbors(origin primitives.Address) []primitives.Address {
	set := g.neighbors[origin]
	out := make([]primitives.Address, 0, len(set))
	for addr := range set {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return bytesLess(out[i], out[j]) })
	return out
}

// AllMarkets returns every adapter in the graph, in no particular order.
func (g *MarketGraph) AllMarkets() []market.Market {
	out := make([]market.Market, 0)
	for _, edge := range g.edges {
		out = append(out, edge.Markets...)
	}
	return out
}

// UpdateAll awaits every adapter's Update concurrently. Individual
// failures are logged and do not cancel siblings — a transient RPC
// error on one market should not prevent the others from refreshing.
// Failures are not reported to the caller: UpdateAll returns nil even when
// some adapters kept their previous cached state.
func (g *MarketGraph) UpdateAll(ctx context.Context) error {
	markets := g.AllMarkets()
	grp, ctx := errgroup.WithContext(ctx)
	for _, m := range markets {
		m := m
		grp.Go(func() error {
			if err := m.Update(ctx); err != nil {
				g.logger.Warn(ctx, "market update failed", map[string]interface{}{
					"market": m.MarketAddress().Hex(),
					"error": err.Error(),
				})
			}
			return nil
		})
	}
	return grp.Wait()
}

// UpdateDelta refreshes every market whose DeltaContracts intersects
// logAddresses (the set of addresses that emitted logs in the previous
// block) OR whose DeltaContracts contains executorSentinel, the "always
// update" marker used by markets like the lending adapter that have no
// on-chain log to key off of.
func (g *MarketGraph) UpdateDelta(ctx context.Context, logAddresses map[primitives.Address]struct{}, executorSentinel primitives.Address) error {
	var toUpdate []market.Market
	for _, m := range g.AllMarkets() {
		for _, addr := range m.DeltaContracts() {
			if addr == executorSentinel {
				toUpdate = append(toUpdate, m)
				break
			}
			if _, hit := logAddresses[addr]; hit {
				toUpdate = append(toUpdate, m)
				break
			}
		}
	}

	grp, ctx := errgroup.WithContext(ctx)
	for _, m := range toUpdate {
		m := m
		grp.Go(func() error {
			if err := m.Update(ctx); err != nil {
				g.logger.Warn(ctx, "market delta update failed", map[string]interface{}{
					"market": m.MarketAddress().Hex(),
					"error": err.Error(),
				})
			}
			return nil
		})
	}
	return grp.Wait()
}
