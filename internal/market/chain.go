package market

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/ostium-labs/arbbot/internal/primitives"
)

// ChainReader is the subset of ethclient.Client the adapters need to read
// on-chain state. It is an interface (rather than taking *ethclient.Client
// directly) so tests can supply a fake, the same seam internal/web3's
// erc20_helpers.go uses around its own *ethclient.Client field.
type ChainReader interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// callView packs a view call against target using parsedABI, executes it at
// blockNumber (nil for latest), and unpacks the outputs.
func callView(ctx context.Context, reader ChainReader, parsedABI abi.ABI, target primitives.Address, method string, blockNumber *big.Int, args ...interface{}) ([]interface{}, error) {
	data, err := parsedABI.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	if reader == nil {
		return nil, fmt.Errorf("market: no chain reader for %s on %s", method, target)
	}
	result, err := reader.CallContract(ctx, ethereum.CallMsg{To: &target, Data: data}, blockNumber)
	if err != nil {
		return nil, err
	}
	return parsedABI.Unpack(method, result)
}
