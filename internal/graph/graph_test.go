package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ostium-labs/arbbot/internal/config"
	"github.com/ostium-labs/arbbot/internal/market"
	"github.com/ostium-labs/arbbot/internal/primitives"
	"github.com/ostium-labs/arbbot/pkg/observability"
)

type updateRecorder struct {
	market.Market
	updated *bool
}

func (r updateRecorder) Update(ctx context.Context) error {
	*r.updated = true
	return r.Market.Update(ctx)
}

func testLogger() *observability.Logger {
	return observability.NewLogger(config.ObservabilityConfig{ServiceName: "arbbot-test", LogLevel: "error", LogFormat: "json"})
}

// TestUpdateDeltaTriggersOnlyMatchingMarket checks that of three AMM pairs,
// a wrap market, and a stand-in for the lending market (a market declaring
// only the always-update sentinel), a delta update whose logs contain only
// one pair's address refreshes exactly that pair and the stand-in.
func TestUpdateDeltaTriggersOnlyMatchingMarket(t *testing.T) {
	g := New(testLogger())

	tokenO := primitives.Address{0x01}
	tokenY := primitives.Address{0x02}
	tokenZ := primitives.Address{0x03}
	executorSentinel := primitives.Address{0xEE}

	p1Addr := primitives.Address{0xA1}
	p2Addr := primitives.Address{0xA2}
	p3Addr := primitives.Address{0xA3}

	p1 := market.NewAMMPair(p1Addr, tokenO, tokenY, nil)
	p2 := market.NewAMMPair(p2Addr, tokenO, tokenY, nil)
	p3 := market.NewAMMPair(p3Addr, tokenO, tokenZ, nil)
	p1.SetReserves(primitives.NewU256FromUint64(1), primitives.NewU256FromUint64(1))
	p2.SetReserves(primitives.NewU256FromUint64(1), primitives.NewU256FromUint64(1))
	p3.SetReserves(primitives.NewU256FromUint64(1), primitives.NewU256FromUint64(1))

	wrap := market.NewWrap(tokenO, tokenO, tokenY)

	var p1Updated, p2Updated, p3Updated, wrapUpdated, sentinelUpdated bool
	require.NoError(t, g.AddMarket(updateRecorder{p1, &p1Updated}))
	require.NoError(t, g.AddMarket(updateRecorder{p2, &p2Updated}))
	require.NoError(t, g.AddMarket(updateRecorder{p3, &p3Updated}))
	require.NoError(t, g.AddMarket(updateRecorder{wrap, &wrapUpdated}))

	// A market that declares only the always-update executor sentinel (the
	// lending adapter's real DeltaContracts value) must refresh on every
	// delta pass regardless of which logs appeared.
	require.NoError(t, g.AddMarket(updateRecorder{sentinelMarket{wrap, executorSentinel}, &sentinelUpdated}))

	logAddresses := map[primitives.Address]struct{}{p2Addr: {}}
	require.NoError(t, g.UpdateDelta(context.Background(), logAddresses, executorSentinel))

	assert.False(t, p1Updated)
	assert.True(t, p2Updated)
	assert.False(t, p3Updated)
	assert.False(t, wrapUpdated)
	assert.True(t, sentinelUpdated)
}

type sentinelMarket struct {
	market.Market
	sentinel primitives.Address
}

func (s sentinelMarket) DeltaContracts() []primitives.Address {
	return []primitives.Address{s.sentinel}
}

// TestNeighborsAndEdge checks basic graph wiring used by the arbitrage scan.
func TestNeighborsAndEdge(t *testing.T) {
	g := New(testLogger())
	tokenO := primitives.Address{0x01}
	tokenY := primitives.Address{0x02}

	pair := market.NewAMMPair(primitives.Address{0xA1}, tokenO, tokenY, nil)
	require.NoError(t, g.AddMarket(pair))

	neighbors := g.Neighbors(tokenO)
	require.Len(t, neighbors, 1)
	assert.Equal(t, tokenY, neighbors[0])

	edge, ok := g.Edge(tokenO, tokenY)
	require.True(t, ok)
	assert.Len(t, edge.Markets, 1)
}
