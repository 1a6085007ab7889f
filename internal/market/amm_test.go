package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ostium-labs/arbbot/internal/primitives"
)

func ether(n uint64) primitives.U256 {
	return primitives.NewU256FromUint64(n).Mul(primitives.Ether)
}

// TestAMMInverse checks that quoting in then back out never lets a trader
// recover more than they put in, within a small rounding tolerance: for
// y = AMMOut(x) and x' = AMMIn(y), x' >= x and x'-x <= 2.
func TestAMMInverse(t *testing.T) {
	reserveIn := ether(1000)
	reserveOut := ether(1100)
	x := ether(1)

	y := AMMOut(reserveIn, reserveOut, x)
	require.False(t, y.Zero())

	xPrime := AMMIn(reserveIn, reserveOut, y)
	require.GreaterOrEqual(t, xPrime.Cmp(x), 0)

	slack := xPrime.Sub(x)
	assert.LessOrEqual(t, slack.Big().Int64(), int64(2))
}

// TestAMMMonotoneInInput checks that a larger input quotes a larger (or
// equal) output.
func TestAMMMonotoneInInput(t *testing.T) {
	reserveIn := ether(1000)
	reserveOut := ether(1000)

	x1 := primitives.NewU256FromUint64(10).Mul(primitives.Finney)
	x2 := ether(1)

	y1 := AMMOut(reserveIn, reserveOut, x1)
	y2 := AMMOut(reserveIn, reserveOut, x2)

	assert.LessOrEqual(t, y1.Cmp(y2), 0)
}

func TestAMMOutZeroReserve(t *testing.T) {
	assert.True(t, AMMOut(primitives.U256{}, ether(10), ether(1)).Zero())
	assert.True(t, AMMOut(ether(10), primitives.U256{}, ether(1)).Zero())
}

func TestAMMInOverflowGuardReturnsZero(t *testing.T) {
	reserveIn := ether(1000)
	reserveOut := ether(10)
	amountOut := ether(10) // reserveOut <= amountOut
	assert.True(t, AMMIn(reserveIn, reserveOut, amountOut).Zero())
}

func TestAMMPairSellTokensBadToken(t *testing.T) {
	tokenA := primitives.Address{1}
	tokenB := primitives.Address{2}
	other := primitives.Address{3}
	pair := NewAMMPair(primitives.Address{9}, tokenA, tokenB, nil)

	_, err := pair.SellTokens(other, ether(1), primitives.Address{4})
	assert.ErrorIs(t, err, ErrBadToken)
}
