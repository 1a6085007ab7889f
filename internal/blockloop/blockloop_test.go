package blockloop

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ostium-labs/arbbot/internal/arbitrage"
	"github.com/ostium-labs/arbbot/internal/config"
	"github.com/ostium-labs/arbbot/internal/gasoracle"
	"github.com/ostium-labs/arbbot/internal/graph"
	"github.com/ostium-labs/arbbot/internal/market"
	"github.com/ostium-labs/arbbot/internal/primitives"
	"github.com/ostium-labs/arbbot/internal/relay"
	"github.com/ostium-labs/arbbot/internal/wallet"
	"github.com/ostium-labs/arbbot/pkg/observability"
)

func testLogger() *observability.Logger {
	return observability.NewLogger(config.ObservabilityConfig{ServiceName: "arbbot-test", LogLevel: "error", LogFormat: "json"})
}

func ether(n uint64) primitives.U256 {
	return primitives.NewU256FromUint64(n).Mul(primitives.Ether)
}

// fakeClient implements headSubscriber with in-memory state so processBlock
// and search can run without a live node.
type fakeClient struct {
	header *types.Header
	logs []types.Log
	syncing *ethereum.SyncProgress
	balance *big.Int
	nonce uint64
}

func (f *fakeClient) SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error) {
	return nil, nil
}
func (f *fakeClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return f.header, nil
}
func (f *fakeClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return f.logs, nil
}
func (f *fakeClient) SyncProgress(ctx context.Context) (*ethereum.SyncProgress, error) {
	return f.syncing, nil
}
func (f *fakeClient) BalanceAt(ctx context.Context, account primitives.Address, blockNumber *big.Int) (*big.Int, error) {
	return f.balance, nil
}
func (f *fakeClient) NonceAt(ctx context.Context, account primitives.Address, blockNumber *big.Int) (uint64, error) {
	return f.nonce, nil
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		header: &types.Header{Number: big.NewInt(100)},
		balance: big.NewInt(0),
	}
}

// newGasOracle builds an Oracle with a populated fake mempool so Read never
// needs the *ethclient.Client fallback path, which a fake can't stand in for
// from outside the gasoracle package.
func newGasOracle(t *testing.T) *gasoracle.Oracle {
	t.Helper()
	return gasoracle.New(fakeTxPool{pendingGasPricesWei: []int64{1, 2, 3}}, nil, testLogger(), &observability.MetricsProvider{})
}

type fakeTxPool struct {
	pendingGasPricesWei []int64
}

func (f fakeTxPool) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	pending := map[string]map[string]json.RawMessage{"0xsender": {}}
	for i, wei := range f.pendingGasPricesWei {
		pending["0xsender"][string(rune('a'+i))] = json.RawMessage(`{"gasPrice":"0x` + big.NewInt(wei).Text(16) + `"}`)
	}
	raw, err := json.Marshal(map[string]interface{}{"pending": pending})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, result)
}

func newLoop(t *testing.T, client headSubscriber, g *graph.MarketGraph, relayURL string) *Loop {
	t.Helper()
	executor, err := wallet.New("a8cc72b6a413343939c859d7f48f665812a293679c2eb6fcb3ab861d84c07cae")
	require.NoError(t, err)
	relaySigner, err := wallet.New("a8cc72b6a413343939c859d7f48f665812a293679c2eb6fcb3ab861d84c07cae")
	require.NoError(t, err)

	addresses := config.AddressBook{
		Executor: primitives.Address{0xEE},
		OriginTokens: []primitives.Address{originToken},
	}
	relayCfg := config.RelayConfig{SimulationRelayURL: relayURL, SimulateOnly: true}

	relayClient := relay.NewClient(http.DefaultClient, relaySigner, testLogger(), &observability.MetricsProvider{})

	return New(
		testLogger(),
		&observability.MetricsProvider{},
		nil,
		g,
		arbitrage.New(testLogger()),
		newGasOracle(t),
		relayClient,
		executor,
		addresses,
		relayCfg,
		big.NewInt(1),
	)
}

var (
	originToken = primitives.Address{0x01}
	intermediaryToken = primitives.Address{0x02}
)

// TestProcessBlockDefersOnSyncing checks that a syncing node skips the
// search entirely and leaves needsFullUpdate set for the next pass.
func TestProcessBlockDefersOnSyncing(t *testing.T) {
	g := graph.New(testLogger())
	l := newLoop(t, nil, g, "")
	l.client = &fakeClient{
		header: &types.Header{Number: big.NewInt(1)},
		syncing: &ethereum.SyncProgress{CurrentBlock: 1, HighestBlock: 10},
	}

	err := l.processBlock(context.Background())
	require.NoError(t, err)
	assert.True(t, l.needsFullUpdate)
}

// TestProcessBlockFullUpdateClearsFlag checks the happy path with no
// opportunities: needsFullUpdate starts true (fresh Loop) and is cleared
// after one successful pass.
func TestProcessBlockFullUpdateClearsFlag(t *testing.T) {
	g := graph.New(testLogger())
	pairA := market.NewAMMPair(primitives.Address{0xA1}, originToken, intermediaryToken, nil)
	pairA.SetReserves(ether(1000), ether(1000))
	require.NoError(t, g.AddMarket(pairA))

	l := newLoop(t, nil, g, "")
	l.client = newFakeClient()

	require.True(t, l.needsFullUpdate)
	err := l.processBlock(context.Background())
	require.NoError(t, err)
	assert.False(t, l.needsFullUpdate)
}

// TestSearchSubmitsBestSurvivorInSimulateOnlyMode checks step 4 wiring
// end to end: a genuinely crossed pair of AMM markets is composed, signed,
// simulated against a fake relay, and selected as the best survivor, with no
// production send since SimulateOnly is set.
func TestSearchSubmitsBestSurvivorInSimulateOnlyMode(t *testing.T) {
	var simulateCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		simulateCalls++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"result":{}}`))
	}))
	defer srv.Close()

	g := graph.New(testLogger())
	pairA := market.NewAMMPair(primitives.Address{0xA1}, originToken, intermediaryToken, nil)
	pairA.SetReserves(ether(1000), ether(1100))
	require.NoError(t, g.AddMarket(pairA))
	pairB := market.NewAMMPair(primitives.Address{0xA2}, originToken, intermediaryToken, nil)
	pairB.SetReserves(ether(1100), ether(1000))
	require.NoError(t, g.AddMarket(pairB))

	l := newLoop(t, nil, g, srv.URL)
	l.client = newFakeClient()

	err := l.processBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, simulateCalls)
}
