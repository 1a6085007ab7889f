package multicall

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ostium-labs/arbbot/internal/market"
	"github.com/ostium-labs/arbbot/internal/primitives"
)

// TestHeaderEncoding checks that pay_with_weth set, 5 ether to coinbase and
// desired block 17000000 encode as (5e18<<128) + (17000000<<64) + 2, and
// that the word decodes back to the same header.
func TestHeaderEncoding(t *testing.T) {
	ethToCoinbase := new(big.Int).Mul(big.NewInt(5), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	h := Header{
		PayWithWeth: true,
		BurnGastoken: false,
		EthToCoinbase: primitives.NewU256FromBig(ethToCoinbase),
		DesiredBlock: 17000000,
	}

	want := new(big.Int).Lsh(ethToCoinbase, 128)
	want.Add(want, new(big.Int).Lsh(big.NewInt(17000000), 64))
	want.Add(want, big.NewInt(2))

	word := h.Word()
	got := new(big.Int).SetBytes(word[:])
	assert.Equal(t, 0, got.Cmp(want))

	roundTripped := DecodeHeader(word)
	assert.Equal(t, h.PayWithWeth, roundTripped.PayWithWeth)
	assert.Equal(t, h.BurnGastoken, roundTripped.BurnGastoken)
	assert.Equal(t, h.DesiredBlock, roundTripped.DesiredBlock)
	assert.Equal(t, 0, h.EthToCoinbase.Cmp(roundTripped.EthToCoinbase))
}

// TestEncodeDecodeRoundTrip checks that Decode(Encode(...)) recovers the
// original header and calls.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	target := primitives.Address{0xAB, 0xCD}
	method := primitives.Selector("swap(uint256,uint256,address,bytes)")
	payload := make([]byte, 64)
	payload[31] = 7
	payload[63] = 9

	plainCall, err := market.NewCall(target, method, payload)
	require.NoError(t, err)

	valueCall := market.NewValueCall(market.CallTypeValue, target, primitives.Selector("deposit()"), primitives.NewU256FromUint64(123456))

	header := Header{PayWithWeth: false, BurnGastoken: true, EthToCoinbase: primitives.U256{}, DesiredBlock: 0}
	words, err := Encode(header, []market.Call{plainCall, valueCall})
	require.NoError(t, err)

	decodedHeader, decodedCalls, err := Decode(words)
	require.NoError(t, err)

	assert.Equal(t, header.BurnGastoken, decodedHeader.BurnGastoken)
	require.Len(t, decodedCalls, 2)

	assert.Equal(t, plainCall.Target, decodedCalls[0].Target)
	assert.Equal(t, plainCall.Method, decodedCalls[0].Method)
	assert.Equal(t, plainCall.Payload, decodedCalls[0].Payload)

	assert.Equal(t, valueCall.Target, decodedCalls[1].Target)
	assert.Equal(t, valueCall.Method, decodedCalls[1].Method)
	assert.Equal(t, 0, valueCall.Value.Cmp(decodedCalls[1].Value))
}
