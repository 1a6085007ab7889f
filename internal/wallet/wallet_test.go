package wallet

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConstructWallet checks that a known private key derives a known
// address.
func TestConstructWallet(t *testing.T) {
	w, err := New("a8cc72b6a413343939c859d7f48f665812a293679c2eb6fcb3ab861d84c07cae")
	require.NoError(t, err)
	assert.Equal(t, "0xb553a515f6370fa73819cb5fcf4c5ce8826f6829", w.Address())
}

func TestConstructWalletAcceptsHexPrefix(t *testing.T) {
	w, err := New("0xa8cc72b6a413343939c859d7f48f665812a293679c2eb6fcb3ab861d84c07cae")
	require.NoError(t, err)
	assert.Equal(t, "0xb553a515f6370fa73819cb5fcf4c5ce8826f6829", w.Address())
}

func TestConstructWalletInvalidKeyErrors(t *testing.T) {
	_, err := New("not-hex")
	assert.Error(t, err)
}

func TestSignTransactionsUsesSequentialNonces(t *testing.T) {
	w, err := New("a8cc72b6a413343939c859d7f48f665812a293679c2eb6fcb3ab861d84c07cae")
	require.NoError(t, err)

	to := w.PublicKey
	txs := []*types.Transaction{
		types.NewTx(&types.LegacyTx{To: &to, Gas: 21000, GasPrice: big.NewInt(1)}),
		types.NewTx(&types.LegacyTx{To: &to, Gas: 21000, GasPrice: big.NewInt(1)}),
		types.NewTx(&types.LegacyTx{To: &to, Gas: 21000, GasPrice: big.NewInt(1)}),
	}

	signed, err := w.SignTransactions(txs, 7, big.NewInt(1))
	require.NoError(t, err)
	require.Len(t, signed, 3)
	assert.Equal(t, uint64(7), signed[0].Nonce())
	assert.Equal(t, uint64(8), signed[1].Nonce())
	assert.Equal(t, uint64(9), signed[2].Nonce())
}
