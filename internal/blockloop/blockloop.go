// Package blockloop drives the per-block search-and-submit cycle: subscribe
// to new heads, refresh the market graph (full or delta), run the
// arbitrage engine, simulate candidate bundles, and submit the winner.
package blockloop

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ostium-labs/arbbot/internal/arbitrage"
	"github.com/ostium-labs/arbbot/internal/config"
	"github.com/ostium-labs/arbbot/internal/gasoracle"
	"github.com/ostium-labs/arbbot/internal/graph"
	"github.com/ostium-labs/arbbot/internal/primitives"
	"github.com/ostium-labs/arbbot/internal/relay"
	"github.com/ostium-labs/arbbot/internal/wallet"
	"github.com/ostium-labs/arbbot/pkg/observability"
)

// headSubscriber is the subset of *ethclient.Client the loop depends on.
// Narrowed to an interface so tests can drive processBlock without a live
// node.
type headSubscriber interface {
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	SyncProgress(ctx context.Context) (*ethereum.SyncProgress, error)
	BalanceAt(ctx context.Context, account primitives.Address, blockNumber *big.Int) (*big.Int, error)
	NonceAt(ctx context.Context, account primitives.Address, blockNumber *big.Int) (uint64, error)
}

var _ headSubscriber = (*ethclient.Client)(nil)

// slowPassThreshold is the per-block budget a full search-and-submit pass is
// expected to fit inside; a pass running longer than this risks falling
// behind the chain's own block cadence.
const slowPassThreshold = 3 * time.Second

// Loop is the top-level per-block driver: it owns the node connection, the
// market graph, and the arbitrage/relay collaborators, and drives one
// search-and-submit pass per new block header.
type Loop struct {
	logger *observability.Logger
	perf *observability.PerformanceLogger
	metrics *observability.MetricsProvider
	client headSubscriber
	graph *graph.MarketGraph
	engine *arbitrage.Engine
	gasOracle *gasoracle.Oracle
	relayClient *relay.Client
	executor wallet.LocalWallet
	addresses config.AddressBook
	relayCfg config.RelayConfig
	origins []primitives.Address
	chainID *big.Int

	needsFullUpdate bool

	stopChan chan struct{}
	wg sync.WaitGroup
}

// New constructs a Loop. metrics may be a zero-value
// *observability.MetricsProvider when metrics are disabled.
func New(
	logger *observability.Logger,
	metrics *observability.MetricsProvider,
	client *ethclient.Client,
	g *graph.MarketGraph,
	engine *arbitrage.Engine,
	gasOracle *gasoracle.Oracle,
	relayClient *relay.Client,
	executor wallet.LocalWallet,
	addresses config.AddressBook,
	relayCfg config.RelayConfig,
	chainID *big.Int,
) *Loop {
	return &Loop{
		logger: logger,
		perf: observability.NewPerformanceLogger(logger),
		metrics: metrics,
		client: client,
		graph: g,
		engine: engine,
		gasOracle: gasOracle,
		relayClient: relayClient,
		executor: executor,
		addresses: addresses,
		relayCfg: relayCfg,
		origins: addresses.OriginTokens,
		chainID: chainID,
		needsFullUpdate: true,
		stopChan: make(chan struct{}),
	}
}

// Start subscribes to new block headers and begins the block loop.
func (l *Loop) Start(ctx context.Context) error {
	headers := make(chan *types.Header)
	sub, err := l.client.SubscribeNewHead(ctx, headers)
	if err != nil {
		return fmt.Errorf("blockloop: subscribe new heads: %w", err)
	}

	l.logger.Info(ctx, "waiting for first block header", nil)
	l.wg.Add(1)
	go l.run(ctx, headers, sub)
	return nil
}

// Stop halts the block loop and waits for the in-flight pass to finish.
func (l *Loop) Stop() {
	close(l.stopChan)
	l.wg.Wait()
}

func (l *Loop) run(ctx context.Context, headers <-chan *types.Header, sub ethereum.Subscription) {
	defer l.wg.Done()
	defer sub.Unsubscribe()

	for {
		select {
		case <-l.stopChan:
			return
		case err := <-sub.Err():
			l.logger.Error(ctx, "blockloop: head subscription error", err, nil)
			l.needsFullUpdate = true
		case <-headers:
			start := time.Now()
			err := l.processBlock(ctx)
			elapsed := time.Since(start)
			l.perf.LogDuration(ctx, "block_pass", elapsed, nil)
			l.perf.LogSlowOperation(ctx, "block_pass", elapsed, slowPassThreshold, nil)
			outcome := "ok"
			if err != nil {
				outcome = "error"
				l.logger.Error(ctx, "blockloop: block pass failed", err, nil)
			}
			l.metrics.RecordBlockPass(ctx, outcome, elapsed)
		}
	}
}

// blockSnapshot is everything fetched in parallel at the top of a pass
// (step 1, "Within a block" ordering guarantee).
type blockSnapshot struct {
	header *types.Header
	logs []types.Log
	syncing *ethereum.SyncProgress
	gas gasoracle.Summary
}

// fetchSnapshot fetches the latest header, then fans out the logs/sync/gas
// reads in parallel (step 1). The header is fetched first because
// the logs query needs its hash to scope to exactly that block.
func (l *Loop) fetchSnapshot(ctx context.Context) (blockSnapshot, error) {
	header, err := l.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return blockSnapshot{}, fmt.Errorf("fetch latest header: %w", err)
	}
	headerHash := header.Hash()

	var snap blockSnapshot
	snap.header = header
	grp, ctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		logs, err := l.client.FilterLogs(ctx, ethereum.FilterQuery{BlockHash: &headerHash})
		if err != nil {
			return fmt.Errorf("fetch latest logs: %w", err)
		}
		snap.logs = logs
		return nil
	})
	grp.Go(func() error {
		progress, err := l.client.SyncProgress(ctx)
		if err != nil {
			return fmt.Errorf("fetch sync progress: %w", err)
		}
		snap.syncing = progress
		return nil
	})
	grp.Go(func() error {
		summary, err := l.gasOracle.Read(ctx)
		if err != nil {
			return fmt.Errorf("fetch gas summary: %w", err)
		}
		snap.gas = summary
		return nil
	})

	if err := grp.Wait(); err != nil {
		return blockSnapshot{}, err
	}
	return snap, nil
}

// processBlock runs one full iteration of steps 1-5.
func (l *Loop) processBlock(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, "blockloop.processBlock")
	defer span.End()

	snap, err := l.fetchSnapshot(ctx)
	if err != nil {
		observability.RecordError(ctx, err)
		return err
	}

	if snap.syncing != nil {
		l.logger.Warn(ctx, "blockloop: node is syncing, deferring search", map[string]interface{}{
			"current_block": snap.syncing.CurrentBlock,
			"highest_block": snap.syncing.HighestBlock,
		})
		l.needsFullUpdate = true
		return nil
	}

	if l.needsFullUpdate {
		if err := l.graph.UpdateAll(ctx); err != nil {
			return fmt.Errorf("update_all: %w", err)
		}
	} else {
		logAddresses := make(map[primitives.Address]struct{}, len(snap.logs))
		for _, log := range snap.logs {
			logAddresses[log.Address] = struct{}{}
		}
		if err := l.graph.UpdateDelta(ctx, logAddresses, l.addresses.Executor); err != nil {
			return fmt.Errorf("update_delta: %w", err)
		}
	}

	if err := l.search(ctx, snap); err != nil {
		return err
	}

	l.needsFullUpdate = false
	return nil
}

// search runs the arbitrage engine, simulates every candidate, and submits
// the best survivor (step 4).
func (l *Loop) search(ctx context.Context, snap blockSnapshot) error {
	passID := uuid.New().String()

	crossed, err := l.engine.Search(ctx, l.graph, l.origins)
	if err != nil {
		return fmt.Errorf("arbitrage search: %w", err)
	}
	l.metrics.RecordCrossedMarkets(ctx, len(crossed))
	if len(crossed) == 0 {
		l.logger.Info(ctx, "no opportunities discovered", map[string]interface{}{
			"block": snap.header.Number.Uint64(),
			"pass_id": passID,
		})
		return nil
	}

	balance, err := l.client.BalanceAt(ctx, l.executor.PublicKey, nil)
	if err != nil {
		return fmt.Errorf("fetch executor balance: %w", err)
	}
	executorNativeBalance := primitives.NewU256FromBig(balance)

	const provisionalGas = 500000

	// Nonce is obtained fresh from the chain for this submission, not
	// cached across submissions, to avoid races with external transactions
	// from the same key ("Shared resources").
	nonce, err := l.client.NonceAt(ctx, l.executor.PublicKey, nil)
	if err != nil {
		return fmt.Errorf("fetch executor nonce: %w", err)
	}

	var survivors []relay.Bundle
	for _, c := range crossed {
		tx, err := relay.Compose(c, l.addresses, executorNativeBalance, provisionalGas)
		if err != nil {
			l.logger.Warn(ctx, "blockloop: compose failed", map[string]interface{}{"error": err.Error(), "pass_id": passID})
			continue
		}

		signed, err := l.executor.SignTransactions([]*types.Transaction{tx.Raw}, nonce, l.chainID)
		if err != nil {
			l.logger.Warn(ctx, "blockloop: sign failed", map[string]interface{}{"error": err.Error(), "pass_id": passID})
			continue
		}
		tx.Raw = signed[0]

		bundle := relay.Bundle{Transactions: []relay.Transaction{tx}, Block: snap.header.Number.Uint64()}

		if _, err := l.relayClient.Submit(ctx, l.relayCfg.SimulationRelayURL, bundle, relay.ModeSimulate); err != nil {
			l.logger.Warn(ctx, "blockloop: simulation failed, dropping bundle", map[string]interface{}{"error": err.Error(), "pass_id": passID})
			continue
		}
		survivors = append(survivors, bundle)
	}

	best, ok := relay.SelectBest(survivors)
	if !ok {
		l.logger.Info(ctx, "no surviving bundles after simulation", map[string]interface{}{"pass_id": passID})
		return nil
	}

	if best.Score().LessThan(snap.gas.Low) {
		l.logger.Warn(ctx, "blockloop: best bundle below observed low gas price, unlikely to be included", map[string]interface{}{"pass_id": passID})
	}

	if l.relayCfg.SimulateOnly {
		return nil
	}

	l.logger.Info(ctx, "submitting best bundle to production relays", map[string]interface{}{
		"pass_id": passID,
		"miner_eth": primitives.FormatEther(best.MinerPayment()),
	})
	l.relayClient.SubmitToAll(ctx, l.relayCfg.ProductionRelayURLs, best)
	return nil
}
