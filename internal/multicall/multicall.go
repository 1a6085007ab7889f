// Package multicall encodes (and, for testing, decodes) the word vector
// consumed by the on-chain executor's entry-point. The encoding is
// pure bit arithmetic over fixed 32-byte words; it uses only math/big and
// encoding/binary, since no library anywhere in the retrieval pack performs
// raw word-level ABI construction of this shape (every example instead
// delegates to accounts/abi.Pack against a known Solidity signature, which
// does not apply here — the executor's call envelope is not an ABI-encoded
// argument list, it's the executor's own bit-packed header format).
package multicall

import (
	"fmt"
	"math/big"

	"github.com/ostium-labs/arbbot/internal/market"
	"github.com/ostium-labs/arbbot/internal/primitives"
)

// Header is the multicall header (word 0), /.
type Header struct {
	PayWithWeth bool
	BurnGastoken bool
	EthToCoinbase primitives.U256 // u128
	DesiredBlock uint64
}

// Word returns the header's big-endian 32-byte encoding.
func (h Header) Word() [32]byte {
	w := new(big.Int)
	if h.PayWithWeth {
		w.SetBit(w, 1, 1)
	}
	if h.BurnGastoken {
		w.SetBit(w, 2, 1)
	}
	desired := new(big.Int).Lsh(new(big.Int).SetUint64(h.DesiredBlock), 64)
	w.Or(w, desired)
	coinbase := new(big.Int).Lsh(h.EthToCoinbase.Big(), 128)
	w.Or(w, coinbase)
	var out [32]byte
	w.FillBytes(out[:])
	return out
}

// DecodeHeader is the inverse of Word, used by tests to check the encoding
// round-trips.
func DecodeHeader(word [32]byte) Header {
	w := new(big.Int).SetBytes(word[:])
	mask64 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 64), big.NewInt(1))
	desiredBlock := new(big.Int).Rsh(w, 64)
	desiredBlock.And(desiredBlock, mask64)
	coinbase := new(big.Int).Rsh(w, 128)
	return Header{
		PayWithWeth: w.Bit(1) == 1,
		BurnGastoken: w.Bit(2) == 1,
		DesiredBlock: desiredBlock.Uint64(),
		EthToCoinbase: primitives.NewU256FromBig(coinbase),
	}
}

// callTypeCode returns the shift multiplier for a call's type:
// Call=0, ValueCall=1<<198, AssertOwnerBalance=3<<198.
func callTypeCode(t market.CallType) *big.Int {
	return new(big.Int).Lsh(big.NewInt(int64(t)), 198)
}

// callHeaderWord encodes one call's header word: selector in the
// top 4 bytes, target address in the low 20 bytes, with the call-type code
// and input-size field OR'd into the zero padding in between.
func callHeaderWord(c market.Call) [32]byte {
	w := new(big.Int).SetBytes(c.Target[:])
	w.Or(w, callTypeCode(c.Type))

	inputWords := big.NewInt(int64(len(c.Payload) / 32))
	w.Or(w, new(big.Int).Lsh(inputWords, 180))

	selector := new(big.Int).SetBytes(c.Method[:])
	w.Or(w, new(big.Int).Lsh(selector, 224))

	var out [32]byte
	w.FillBytes(out[:])
	return out
}

// DecodedCallHeader is what decodeCallHeaderWord recovers.
type DecodedCallHeader struct {
	Method [4]byte
	Target primitives.Address
	Type market.CallType
	InputWords uint64
}

func decodeCallHeaderWord(word [32]byte) DecodedCallHeader {
	w := new(big.Int).SetBytes(word[:])

	var target primitives.Address
	mask160 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 160), big.NewInt(1))
	addrInt := new(big.Int).And(w, mask160)
	addrInt.FillBytes(target[:])

	typeCode := new(big.Int).Rsh(w, 198)
	typeCode.And(typeCode, big.NewInt(0x3))

	inputWords := new(big.Int).Rsh(w, 180)
	inputWords.And(inputWords, new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 18), big.NewInt(1)))

	selector := new(big.Int).Rsh(w, 224)
	var method [4]byte
	selBytes := selector.Bytes()
	copy(method[4-len(selBytes):], selBytes)

	return DecodedCallHeader{
		Method: method,
		Target: target,
		Type: market.CallType(typeCode.Uint64()),
		InputWords: inputWords.Uint64(),
	}
}

// Encode serializes the full word vector for a multicall: the header word
// followed by each call's header word and its payload/value words, in
// order.
func Encode(header Header, calls []market.Call) ([][32]byte, error) {
	words := [][32]byte{header.Word()}
	for i, c := range calls {
		words = append(words, callHeaderWord(c))
		switch c.Type {
		case market.CallTypePlain:
			if len(c.Payload)%32 != 0 {
				return nil, fmt.Errorf("multicall: call %d payload length %d not divisible by 32", i, len(c.Payload))
			}
			for off := 0; off < len(c.Payload); off += 32 {
				var w [32]byte
				copy(w[:], c.Payload[off:off+32])
				words = append(words, w)
			}
		case market.CallTypeValue, market.CallTypeAssertOwnerBalance:
			var w [32]byte
			c.Value.Big().FillBytes(w[:])
			words = append(words, w)
		default:
			return nil, fmt.Errorf("multicall: call %d has unknown call type %d", i, c.Type)
		}
	}
	return words, nil
}

// Decode is the inverse of Encode, used by tests to check the round trip:
// exact byte equality for Call, value equality for ValueCall.
func Decode(words [][32]byte) (Header, []market.Call, error) {
	if len(words) == 0 {
		return Header{}, nil, fmt.Errorf("multicall: empty word vector")
	}
	header := DecodeHeader(words[0])

	var calls []market.Call
	i := 1
	for i < len(words) {
		decoded := decodeCallHeaderWord(words[i])
		i++
		switch decoded.Type {
		case market.CallTypePlain:
			payload := make([]byte, 0, int(decoded.InputWords)*32)
			for n := uint64(0); n < decoded.InputWords; n++ {
				if i >= len(words) {
					return Header{}, nil, fmt.Errorf("multicall: truncated payload for call at word %d", i)
				}
				payload = append(payload, words[i][:]...)
				i++
			}
			call, err := market.NewCall(decoded.Target, decoded.Method, payload)
			if err != nil {
				return Header{}, nil, err
			}
			calls = append(calls, call)
		case market.CallTypeValue, market.CallTypeAssertOwnerBalance:
			if i >= len(words) {
				return Header{}, nil, fmt.Errorf("multicall: missing value word for call")
			}
			value := primitives.NewU256FromBig(new(big.Int).SetBytes(words[i][:]))
			i++
			calls = append(calls, market.NewValueCall(decoded.Type, decoded.Target, decoded.Method, value))
		default:
			return Header{}, nil, fmt.Errorf("multicall: unknown call type %d", decoded.Type)
		}
	}
	return header, calls, nil
}
