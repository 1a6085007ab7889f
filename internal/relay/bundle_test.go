package relay

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ostium-labs/arbbot/internal/primitives"
)

func txWithGasPrice(gasPrice int64) *types.Transaction {
	return types.NewTx(&types.LegacyTx{GasPrice: big.NewInt(gasPrice), Gas: 100000})
}

func TestBundleScore(t *testing.T) {
	b := Bundle{
		Transactions: []Transaction{
			{Raw: txWithGasPrice(10), DeltaCoinbase: primitives.NewU256FromUint64(1000), EstimatedGas: 100000},
		},
	}
	// miner_payment = 1000 + 100000*10 = 1001000; estimated_gas = 100000.
	assert.Equal(t, "10", b.Score().String())
}

// TestSelectBestReScansFirst checks that the result is determined by the
// full re-scan, not the seed assignment, by using an input where
// bundles[0] is NOT the max.
func TestSelectBestReScansFirst(t *testing.T) {
	low := Bundle{Transactions: []Transaction{{Raw: txWithGasPrice(1), DeltaCoinbase: primitives.U256{}, EstimatedGas: 100000}}}
	high := Bundle{Transactions: []Transaction{{Raw: txWithGasPrice(50), DeltaCoinbase: primitives.U256{}, EstimatedGas: 100000}}}

	best, ok := SelectBest([]Bundle{low, high})
	require.True(t, ok)
	assert.Equal(t, "50", best.Score().String())
}

func TestSelectBestEmpty(t *testing.T) {
	_, ok := SelectBest(nil)
	assert.False(t, ok)
}
