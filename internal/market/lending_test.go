package market

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ostium-labs/arbbot/internal/primitives"
)

func TestLendingRounding(t *testing.T) {
	native := primitives.Address{1}
	collateral := primitives.Address{2}
	executor := primitives.Address{3}
	l := NewLending(primitives.Address{9}, native, collateral, executor, nil)
	l.rate = primitives.NewU256FromUint64(2).Mul(primitives.Ether) // E = 2e18

	amountIn := primitives.NewU256FromUint64(10).Mul(primitives.Ether)
	out := l.GetTokensOut(native, collateral, amountIn)
	assert.Equal(t, 0, out.Cmp(primitives.NewU256FromUint64(5).Mul(primitives.Ether)))

	back := l.GetTokensOut(collateral, native, out)
	assert.Equal(t, 0, back.Cmp(amountIn))
}

func TestLendingDeltaContractsSentinel(t *testing.T) {
	executor := primitives.Address{3}
	l := NewLending(primitives.Address{9}, primitives.Address{1}, primitives.Address{2}, executor, nil)
	assert.Equal(t, []primitives.Address{executor}, l.DeltaContracts())
}
