package market

import (
	"errors"
	"fmt"

	"github.com/ostium-labs/arbbot/internal/primitives"
)

// ErrBadToken is returned by SellTokens when token_in matches neither of
// the market's two endpoints ("bad token argument").
var ErrBadToken = errors.New("market: token is not one of this market's endpoints")

// CallType selects how a Call is encoded in the multicall payload.
// The numeric values match the shift multiplier baked into the call-type
// code field of the per-call header word, so they must not be renumbered.
type CallType uint8

const (
	// CallTypePlain is a plain call whose payload is appended as 32-byte words.
	CallTypePlain CallType = 0
	// CallTypeValue is a value-bearing call; its value is appended as one word.
	CallTypeValue CallType = 1
	// CallTypeAssertOwnerBalance asserts the executor's balance of a token;
	// also value-bearing in the sense that one word follows the header.
	CallTypeAssertOwnerBalance CallType = 3
)

// Call is one sub-call of a multicall payload.
type Call struct {
	Target primitives.Address
	Method [4]byte
	Type CallType
	Value primitives.U256 // required iff Type == CallTypeValue
	Payload []byte // length divisible by 32 for CallTypePlain
}

// NewCall builds a plain Call, validating the payload-length invariant.
func NewCall(target primitives.Address, method [4]byte, payload []byte) (Call, error) {
	if len(payload)%32 != 0 {
		return Call{}, fmt.Errorf("market: call payload length %d not divisible by 32", len(payload))
	}
	return Call{Target: target, Method: method, Type: CallTypePlain, Payload: payload}, nil
}

// NewValueCall builds a value-bearing Call (ValueCall or AssertOwnerBalance).
func NewValueCall(callType CallType, target primitives.Address, method [4]byte, value primitives.U256) Call {
	if callType != CallTypeValue && callType != CallTypeAssertOwnerBalance {
		panic("market: NewValueCall requires a value-bearing CallType")
	}
	return Call{Target: target, Method: method, Type: callType, Value: value}
}
