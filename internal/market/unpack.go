package market

import "math/big"

// toBig extracts a *big.Int from an ABI-unpacked value, which may come back
// as *big.Int (uint256) directly depending on abigen's generated type for
// the field width.
func toBig(v interface{}) (*big.Int, bool) {
	switch t := v.(type) {
	case *big.Int:
		return t, true
	case big.Int:
		return &t, true
	default:
		return nil, false
	}
}
