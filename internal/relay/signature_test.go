package relay

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ostium-labs/arbbot/internal/primitives"
	"github.com/ostium-labs/arbbot/internal/wallet"
)

// TestSignBodyMatchesReferenceComputation recomputes the signature header
// independently here via the same keccak-prefixed EIP-191 steps and checks
// it matches signBody's output exactly.
func TestSignBodyMatchesReferenceComputation(t *testing.T) {
	w, err := wallet.New("a8cc72b6a413343939c859d7f48f665812a293679c2eb6fcb3ab861d84c07cae")
	require.NoError(t, err)

	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"eth_callBundle","params":[{}]}`)

	innerDigest := primitives.Keccak256(body)
	innerHex := "0x" + fmt.Sprintf("%x", innerDigest[:])
	outerDigest := primitives.Keccak256([]byte("\x19Ethereum Signed Message:\n66"), []byte(innerHex))
	sig, err := w.Sign(outerDigest)
	require.NoError(t, err)
	want := fmt.Sprintf("%s:0x%x", w.Address(), sig[:])

	got, err := signBody(body, w)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
