package market

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ostium-labs/arbbot/internal/primitives"
)

// TestWrapIsIdentity checks that wrapping and unwrapping never change amount.
func TestWrapIsIdentity(t *testing.T) {
	native := primitives.Address{1}
	wrapped := primitives.Address{2}
	w := NewWrap(wrapped, native, wrapped)

	amount := primitives.NewU256FromUint64(12345)
	assert.Equal(t, 0, w.GetTokensOut(native, wrapped, amount).Cmp(amount))
	assert.Equal(t, 0, w.GetTokensIn(native, wrapped, amount).Cmp(amount))
	assert.Equal(t, 0, w.GetTokensOut(wrapped, native, amount).Cmp(amount))
}

func TestWrapSellTokensBadToken(t *testing.T) {
	native := primitives.Address{1}
	wrapped := primitives.Address{2}
	other := primitives.Address{3}
	w := NewWrap(wrapped, native, wrapped)

	_, err := w.SellTokens(other, primitives.NewU256FromUint64(1), primitives.Address{4})
	assert.ErrorIs(t, err, ErrBadToken)
}
