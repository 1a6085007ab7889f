// Package primitives provides the fixed-width integer, address, and
// hashing building blocks shared by every other package: U256 arithmetic,
// ether/gwei/finney unit constants, and keccak-based hashing.
package primitives

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Address is a 20-byte chain identifier. It is a thin alias over
// go-ethereum's common.Address so every adapter and the RPC layer share one
// representation without per-call conversions.
type Address = common.Address

// ParseAddress parses a 40-hex-digit string, with or without a "0x" prefix,
// case-insensitively,.
func ParseAddress(s string) (Address, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(trimmed) != 40 {
		return Address{}, fmt.Errorf("address %q: want 40 hex digits, got %d", s, len(trimmed))
	}
	if !common.IsHexAddress(trimmed) {
		return Address{}, fmt.Errorf("address %q: not valid hex", s)
	}
	return common.HexToAddress(trimmed), nil
}

// Keccak256 hashes data with the chain's keccak256 function.
func Keccak256(data...[]byte) common.Hash {
	return crypto.Keccak256Hash(data...)
}

// Selector returns the 4-byte function selector for a Solidity method
// signature, e.g. "swap(uint256,uint256,address,bytes)".
func Selector(signature string) [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(signature))[:4])
	return sel
}

// U256 is the canonical 256-bit unsigned integer type. It wraps
// holiman/uint256.Int, the type used for reserve/balance arithmetic
// throughout the retrieved coreth forks, rather than rolling a bespoke
// 256-bit type.
type U256 struct {
	inner uint256.Int
}

// NewU256FromUint64 builds a U256 from a uint64.
func NewU256FromUint64(v uint64) U256 {
	var u U256
	u.inner.SetUint64(v)
	return u
}

// NewU256FromBig converts a *big.Int, which must be non-negative and fit in
// 256 bits; panics otherwise since that indicates a programming error, not
// a runtime condition callers should handle.
func NewU256FromBig(b *big.Int) U256 {
	if b.Sign() < 0 {
		panic("primitives: negative value has no U256 representation")
	}
	var u U256
	overflow := u.inner.SetFromBig(b)
	if overflow {
		panic("primitives: value overflows 256 bits")
	}
	return u
}

// Zero reports whether u is 0.
func (u U256) Zero() bool { return u.inner.IsZero() }

// Big returns u as a *big.Int.
func (u U256) Big() *big.Int { return u.inner.ToBig() }

// Uint64 returns the low 64 bits of u; callers must know the value fits.
func (u U256) Uint64() uint64 { return u.inner.Uint64() }

// Cmp compares u to other: -1, 0, or 1.
func (u U256) Cmp(other U256) int { return u.inner.Cmp(&other.inner) }

// LessThan reports whether u < other.
func (u U256) LessThan(other U256) bool { return u.Cmp(other) < 0 }

// GreaterThan reports whether u > other.
func (u U256) GreaterThan(other U256) bool { return u.Cmp(other) > 0 }

// Add returns u + other. Overflow is a programming bug and panics.
func (u U256) Add(other U256) U256 {
	var out U256
	if out.inner.AddOverflow(&u.inner, &other.inner) {
		panic("primitives: U256 addition overflow")
	}
	return out
}

// Sub returns u - other. Underflow is a programming bug and panics;
// SubGuarded returns (0, false) instead of panicking so call sites
// that need the saturating behavior don't have to pre-check with Cmp.
func (u U256) Sub(other U256) U256 {
	out, ok := u.SubGuarded(other)
	if !ok {
		panic("primitives: U256 subtraction underflow")
	}
	return out
}

// SubGuarded returns (u-other, true) iff u >= other, else (0, false).
func (u U256) SubGuarded(other U256) (U256, bool) {
	if u.LessThan(other) {
		return U256{}, false
	}
	var out U256
	out.inner.Sub(&u.inner, &other.inner)
	return out, true
}

// Mul returns u * other.
func (u U256) Mul(other U256) U256 {
	var out U256
	if out.inner.MulOverflow(&u.inner, &other.inner) {
		panic("primitives: U256 multiplication overflow")
	}
	return out
}

// Div returns u / other (floor division); div-by-zero returns zero, matching
// the AMM formulas' "0 if either side equals 0" convention rather than
// panicking, since a zero reserve is a reachable runtime state.
func (u U256) Div(other U256) U256 {
	if other.Zero() {
		return U256{}
	}
	var out U256
	out.inner.Div(&u.inner, &other.inner)
	return out
}

// String renders u in base 10.
func (u U256) String() string { return u.inner.Dec() }

// etherDivisor is 10^18, used only for the human-readable log rendering
// below — all pricing and profit arithmetic stays in wei-denominated U256.
var etherDivisor = decimal.New(1, 18)

// FormatEther renders u, interpreted as wei, as a decimal ether amount for
// structured logging (e.g. "1.2345"), never for arithmetic.
func FormatEther(u U256) string {
	return decimal.NewFromBigInt(u.Big(), 0).DivRound(etherDivisor, 8).String()
}

// Ether, Gwei, and Finney are the wei-denominated unit constants used
// throughout the engine's probe ladder and profit threshold.
var (
	Wei = NewU256FromUint64(1)
	Gwei = mustPow10(9)
	Finney = mustPow10(15)
	Ether = mustPow10(18)
)

func mustPow10(exp int) U256 {
	b := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
	return NewU256FromBig(b)
}
