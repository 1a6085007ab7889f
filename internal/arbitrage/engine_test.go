package arbitrage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ostium-labs/arbbot/internal/config"
	"github.com/ostium-labs/arbbot/internal/graph"
	"github.com/ostium-labs/arbbot/internal/market"
	"github.com/ostium-labs/arbbot/internal/primitives"
	"github.com/ostium-labs/arbbot/pkg/observability"
)

func ether(n uint64) primitives.U256 {
	return primitives.NewU256FromUint64(n).Mul(primitives.Ether)
}

func testLogger() *observability.Logger {
	return observability.NewLogger(config.ObservabilityConfig{ServiceName: "arbbot-test", LogLevel: "error", LogFormat: "json"})
}

var (
	originToken = primitives.Address{0x01}
	intermediaryToken = primitives.Address{0x02}
)

func buildEdge(t *testing.T, reservesA, reservesB [2]primitives.U256) *graph.MarketGraph {
	t.Helper()
	g := graph.New(testLogger())

	pairA := market.NewAMMPair(primitives.Address{0xA1}, originToken, intermediaryToken, nil)
	pairA.SetReserves(reservesA[0], reservesA[1])
	require.NoError(t, g.AddMarket(pairA))

	pairB := market.NewAMMPair(primitives.Address{0xA2}, originToken, intermediaryToken, nil)
	pairB.SetReserves(reservesB[0], reservesB[1])
	require.NoError(t, g.AddMarket(pairB))

	return g
}

// TestTrivialNoArb checks that two identical markets never cross.
func TestTrivialNoArb(t *testing.T) {
	g := buildEdge(t, [2]primitives.U256{ether(1000), ether(1000)}, [2]primitives.U256{ether(1000), ether(1000)})

	e := New(testLogger())
	results, err := e.Search(context.Background(), g, []primitives.Address{originToken})
	require.NoError(t, err)
	assert.Empty(t, results)
}

// TestCrossedArbWithKnownMaximum checks a cheap-Y/expensive-Y pair that is
// genuinely crossed, and asserts the optimized profit and volume land in
// the expected range.
func TestCrossedArbWithKnownMaximum(t *testing.T) {
	// ask-market: O=1000 ETHER, Y=1100 ETHER (cheap Y).
	// bid-market: stored as (tokenI=O, tokenJ=Y) reserves, but the bid
	// market is "expensive O" i.e. Y=1000 ETHER, O=1100 ETHER.
	g := buildEdge(t, [2]primitives.U256{ether(1000), ether(1100)}, [2]primitives.U256{ether(1100), ether(1000)})

	e := New(testLogger())
	results, err := e.Search(context.Background(), g, []primitives.Address{originToken})
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	assert.True(t, got.Profit.GreaterThan(primitives.Finney))
	assert.True(t, !got.Volume.LessThan(primitives.NewU256FromUint64(10).Mul(primitives.Finney)))
	assert.True(t, !got.Volume.GreaterThan(ether(50)))
}

// TestFilterThreshold checks the same crossed topology with the price gap
// narrowed from 10% to 0.4%: the round trip is still profitable at the
// probe size, but the optimized profit (about 0.49 FINNEY) sits below the
// FINNEY threshold, so it gets filtered out entirely.
func TestFilterThreshold(t *testing.T) {
	g := buildEdge(t,
		[2]primitives.U256{ether(1000), ether(1004)},
		[2]primitives.U256{ether(1004), ether(1000)},
	)

	e := New(testLogger())
	results, err := e.Search(context.Background(), g, []primitives.Address{originToken})
	require.NoError(t, err)
	assert.Empty(t, results)
}

// TestProfitAtOptimumBeatsProbe checks that optimizeVolume finds a volume
// whose profit is at least as good as the naive probe-size order.
func TestProfitAtOptimumBeatsProbe(t *testing.T) {
	ask := market.NewAMMPair(primitives.Address{0xA1}, originToken, intermediaryToken, nil)
	ask.SetReserves(ether(1000), ether(1100))
	bid := market.NewAMMPair(primitives.Address{0xA2}, originToken, intermediaryToken, nil)
	bid.SetReserves(ether(1100), ether(1000))

	probeProfit := orderProfit(ask, bid, originToken, intermediaryToken, probeSize)
	profit, _ := optimizeVolume(ask, bid, originToken, intermediaryToken)

	assert.True(t, !profit.LessThan(probeProfit))
}
