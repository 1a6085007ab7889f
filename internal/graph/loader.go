package graph

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/ostium-labs/arbbot/internal/market"
	"github.com/ostium-labs/arbbot/internal/primitives"
)

// flashQueryBatchSize and flashQueryMaxBatches bound the bulk factory scan
//: batch size 250, cap 250 batches.
const (
	flashQueryBatchSize = 250
	flashQueryMaxBatches = 250
)

// factoryABIJSON exposes just the view needed to learn how many pairs a
// factory has created.
const factoryABIJSON = `[{"constant":true,"inputs":[],"name":"allPairsLength","outputs":[{"name":"","type":"uint256"}],"type":"function"}]`

// flashQueryABIJSON is the "flash-query" helper contract's batch pair-range
// view: given a factory and [start,stop), it returns parallel arrays of
// token0, token1, and pair address for every pair index in range.
const flashQueryABIJSON = `[{"constant":true,"inputs":[{"name":"factory","type":"address"},{"name":"start","type":"uint256"},{"name":"stop","type":"uint256"}],"name":"getPairsByIndexRange","outputs":[{"name":"token0s","type":"address[]"},{"name":"token1s","type":"address[]"},{"name":"pairs","type":"address[]"}],"type":"function"}]`

// ChainReader is the subset of ethclient.Client the loader needs.
type ChainReader = market.ChainReader

// PairTriple is one (token0, token1, pair) result from the flash-query helper.
type PairTriple struct {
	TokenI, TokenJ, Pair primitives.Address
}

var (
	factoryABI abi.ABI
	flashQueryABI abi.ABI
)

func init() {
	var err error
	factoryABI, err = abi.JSON(strings.NewReader(factoryABIJSON))
	if err != nil {
		panic(fmt.Errorf("graph: parse factory ABI: %w", err))
	}
	flashQueryABI, err = abi.JSON(strings.NewReader(flashQueryABIJSON))
	if err != nil {
		panic(fmt.Errorf("graph: parse flash-query ABI: %w", err))
	}
}

// ScanFactory enumerates every pair a factory has created, via the
// flash-query helper contract, in fixed-size batches (step 1).
func ScanFactory(ctx context.Context, reader ChainReader, flashQuery, factory primitives.Address) ([]PairTriple, error) {
	length, err := allPairsLength(ctx, reader, factory)
	if err != nil {
		return nil, fmt.Errorf("graph: allPairsLength for %s: %w", factory, err)
	}

	var out []PairTriple
	for batch := 0; batch < flashQueryMaxBatches; batch++ {
		start := batch * flashQueryBatchSize
		if uint64(start) >= length {
			break
		}
		stop := start + flashQueryBatchSize
		if uint64(stop) > length {
			stop = int(length)
		}

		triples, err := fetchPairRange(ctx, reader, flashQuery, factory, start, stop)
		if err != nil {
			return nil, fmt.Errorf("graph: fetch pair range [%d,%d) on %s: %w", start, stop, factory, err)
		}
		out = append(out, triples...)
	}
	return out, nil
}

func allPairsLength(ctx context.Context, reader ChainReader, factory primitives.Address) (uint64, error) {
	data, err := factoryABI.Pack("allPairsLength")
	if err != nil {
		return 0, err
	}
	result, err := reader.CallContract(ctx, ethereum.CallMsg{To: &factory, Data: data}, nil)
	if err != nil {
		return 0, err
	}
	out, err := factoryABI.Unpack("allPairsLength", result)
	if err != nil {
		return 0, err
	}
	n, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("graph: allPairsLength: unexpected output type")
	}
	return n.Uint64(), nil
}

func fetchPairRange(ctx context.Context, reader ChainReader, flashQuery, factory primitives.Address, start, stop int) ([]PairTriple, error) {
	data, err := flashQueryABI.Pack("getPairsByIndexRange", factory, big.NewInt(int64(start)), big.NewInt(int64(stop)))
	if err != nil {
		return nil, err
	}
	result, err := reader.CallContract(ctx, ethereum.CallMsg{To: &flashQuery, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	out, err := flashQueryABI.Unpack("getPairsByIndexRange", result)
	if err != nil {
		return nil, err
	}
	token0s, ok0 := out[0].([]primitives.Address)
	token1s, ok1 := out[1].([]primitives.Address)
	pairs, ok2 := out[2].([]primitives.Address)
	if !ok0 || !ok1 || !ok2 {
		return nil, fmt.Errorf("graph: getPairsByIndexRange: unexpected output types")
	}
	if len(token0s) != len(token1s) || len(token0s) != len(pairs) {
		return nil, fmt.Errorf("graph: getPairsByIndexRange: mismatched array lengths")
	}

	triples := make([]PairTriple, len(pairs))
	for i := range pairs {
		triples[i] = PairTriple{TokenI: token0s[i], TokenJ: token1s[i], Pair: pairs[i]}
	}
	return triples, nil
}

// Blacklist reports whether a pair-triple should be dropped because either
// token or the pair address itself is blacklisted (step 2).
func Blacklist(t PairTriple, tokenBlacklist, poolBlacklist []primitives.Address) bool {
	for _, tok := range tokenBlacklist {
		if t.TokenI == tok || t.TokenJ == tok {
			return true
		}
	}
	for _, pool := range poolBlacklist {
		if t.Pair == pool {
			return true
		}
	}
	return false
}
