// Package gasoracle derives a four-tier gas price summary from the node's
// pending mempool content, falling back to the node's own suggestion when
// the mempool is empty.
package gasoracle

import (
	"context"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/ostium-labs/arbbot/internal/primitives"
	"github.com/ostium-labs/arbbot/pkg/observability"
)

// maxSample bounds how many of the sorted pending gas prices feed the tiers:
// only the top 250 (by price) are kept before deriving the tier cutoffs.
const maxSample = 250

// Summary is the four-tier gas price reading for one block.
type Summary struct {
	Ludicrous primitives.U256
	High primitives.U256
	Medium primitives.U256
	Low primitives.U256
}

// rpcTxPoolTx is the subset of fields geth's txpool_content RPC response
// carries per pending transaction.
type rpcTxPoolTx struct {
	GasPrice *hexutil.Big `json:"gasPrice"`
}

// TxPoolReader is the subset of the node's JSON-RPC surface the oracle
// needs: a raw txpool_content call, keyed by sender address then nonce.
type TxPoolReader interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

var _ TxPoolReader = (*rpc.Client)(nil)

// GasPriceSuggester is the fallback path when the mempool is empty.
type GasPriceSuggester interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// Oracle computes a Summary per block.
type Oracle struct {
	pool TxPoolReader
	client GasPriceSuggester
	logger *observability.Logger
	metrics *observability.MetricsProvider
}

// New constructs an Oracle. pool issues the raw txpool_content call (many
// public nodes do not serve it); a nil pool, one whose call errors, or an
// empty pending pool falls through to the client's gas price suggestion. metrics
// may be a zero-value *observability.MetricsProvider when metrics are
// disabled.
func New(pool TxPoolReader, client *ethclient.Client, logger *observability.Logger, metrics *observability.MetricsProvider) *Oracle {
	return &Oracle{pool: pool, client: client, logger: logger, metrics: metrics}
}

// Read computes the current Summary.
func (o *Oracle) Read(ctx context.Context) (Summary, error) {
	prices := o.pendingGasPrices(ctx)
	if len(prices) == 0 {
		return o.fallback(ctx)
	}

	sort.Sort(sort.Reverse(bigIntSlice(prices)))
	if len(prices) > maxSample {
		prices = prices[:maxSample]
	}

	high := prices[0]
	medium := prices[len(prices)/2]
	low := prices[len(prices)-1]
	ludicrous := new(big.Int).Mul(high, big.NewInt(3))

	o.metrics.RecordGasTiers(ctx, ludicrous.Int64(), high.Int64(), medium.Int64(), low.Int64())

	return Summary{
		Ludicrous: primitives.NewU256FromBig(ludicrous),
		High: primitives.NewU256FromBig(high),
		Medium: primitives.NewU256FromBig(medium),
		Low: primitives.NewU256FromBig(low),
	}, nil
}

func (o *Oracle) pendingGasPrices(ctx context.Context) []*big.Int {
	if o.pool == nil {
		return nil
	}
	var content struct {
		Pending map[string]map[string]rpcTxPoolTx `json:"pending"`
	}
	if err := o.pool.CallContext(ctx, &content, "txpool_content"); err != nil {
		o.logger.Warn(ctx, "gasoracle: txpool content unavailable, falling back", map[string]interface{}{"error": err.Error()})
		return nil
	}

	var prices []*big.Int
	for _, byNonce := range content.Pending {
		for _, tx := range byNonce {
			if tx.GasPrice != nil {
				prices = append(prices, tx.GasPrice.ToInt())
			}
		}
	}
	return prices
}

// fallback is the no-mempool tier derivation: ludicrous=2E,
// high=E+4, medium=E+2, low=E, in wei.
func (o *Oracle) fallback(ctx context.Context) (Summary, error) {
	estimated, err := o.client.SuggestGasPrice(ctx)
	if err != nil {
		return Summary{}, err
	}
	e := primitives.NewU256FromBig(estimated)
	summary := Summary{
		Ludicrous: e.Add(e),
		High: e.Add(primitives.NewU256FromUint64(4)),
		Medium: e.Add(primitives.NewU256FromUint64(2)),
		Low: e,
	}
	o.metrics.RecordGasTiers(ctx, summary.Ludicrous.Big().Int64(), summary.High.Big().Int64(), summary.Medium.Big().Int64(), summary.Low.Big().Int64())
	return summary, nil
}

type bigIntSlice []*big.Int

func (s bigIntSlice) Len() int { return len(s) }
func (s bigIntSlice) Less(i, j int) bool { return s[i].Cmp(s[j]) < 0 }
func (s bigIntSlice) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
