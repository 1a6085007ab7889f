package graph

import (
	"context"
	"fmt"

	"github.com/ostium-labs/arbbot/internal/config"
	"github.com/ostium-labs/arbbot/internal/market"
	"github.com/ostium-labs/arbbot/internal/primitives"
)

// BulkLoad performs the startup construction described in: scan every
// configured factory for pairs, drop blacklisted ones, insert an AMM
// adapter per surviving pair, then insert the one wrap adapter and one
// lending adapter. flashQuery is the address of the flash-query helper
// contract used to batch-read each factory's pairs.
func BulkLoad(ctx context.Context, g *MarketGraph, reader ChainReader, flashQuery primitives.Address, addresses config.AddressBook) error {
	for _, factory := range addresses.Factories {
		triples, err := ScanFactory(ctx, reader, flashQuery, factory)
		if err != nil {
			return fmt.Errorf("graph: scan factory %s: %w", factory, err)
		}
		for _, t := range triples {
			if Blacklist(t, addresses.TokenBlacklist, addresses.PoolBlacklist) {
				continue
			}
			pair := market.NewAMMPair(t.Pair, t.TokenI, t.TokenJ, reader)
			if err := g.AddMarket(pair); err != nil {
				return fmt.Errorf("graph: add pair %s: %w", t.Pair, err)
			}
		}
	}

	wrap := market.NewWrap(addresses.WrappedNative, addresses.Native, addresses.WrappedNative)
	if err := g.AddMarket(wrap); err != nil {
		return fmt.Errorf("graph: add wrap market: %w", err)
	}

	lending := market.NewLending(addresses.CollateralNative, addresses.Native, addresses.CollateralNative, addresses.Executor, reader)
	if err := g.AddMarket(lending); err != nil {
		return fmt.Errorf("graph: add lending market: %w", err)
	}

	return nil
}
