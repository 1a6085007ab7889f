package arbitrage

import "github.com/ostium-labs/arbbot/internal/primitives"

// probeSize is the fixed-size probe used to pick best-ask/best-bid before
// volume optimization: 10 FINNEY (0.01 ether).
var probeSize = primitives.NewU256FromUint64(10).Mul(primitives.Finney)

// minProfitThreshold is the minimum optimized profit for a CrossedMarket to
// be emitted (step 5): FINNEY (0.001 ether).
var minProfitThreshold = primitives.Finney

// volumeLadder is the fixed log-spaced bracketing ladder (step 4):
// 10, 100..900 FINNEY; 1..10, 20..50 ETHER.
func volumeLadder() []primitives.U256 {
	var ladder []primitives.U256
	ladder = append(ladder, primitives.NewU256FromUint64(10).Mul(primitives.Finney))
	for n := uint64(100); n <= 900; n += 100 {
		ladder = append(ladder, primitives.NewU256FromUint64(n).Mul(primitives.Finney))
	}
	for n := uint64(1); n <= 10; n++ {
		ladder = append(ladder, primitives.NewU256FromUint64(n).Mul(primitives.Ether))
	}
	for n := uint64(20); n <= 50; n += 10 {
		ladder = append(ladder, primitives.NewU256FromUint64(n).Mul(primitives.Ether))
	}
	return ladder
}

// refinementStep and refinementPrecision are the binary-ascent tuning
// constants (step 4), both in wei.
var (
	refinementStep = primitives.NewU256FromUint64(1_000_000_000)
	refinementPrecision = primitives.NewU256FromUint64(10)
)

// maxRefinementIterations bounds the binary-ascent loop; the termination
// conditions in refine should always fire well before this, it exists only
// to guarantee the search pass itself always terminates.
const maxRefinementIterations = 200
