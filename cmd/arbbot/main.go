// Command arbbot drives the per-block arbitrage search-and-submit loop:
// it loads configuration, builds the initial market graph from the
// configured factories, and then reacts to every new block header until
// told to stop.
package main

import (
	"context"
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/ostium-labs/arbbot/internal/arbitrage"
	"github.com/ostium-labs/arbbot/internal/blockloop"
	"github.com/ostium-labs/arbbot/internal/config"
	"github.com/ostium-labs/arbbot/internal/gasoracle"
	"github.com/ostium-labs/arbbot/internal/graph"
	"github.com/ostium-labs/arbbot/internal/relay"
	"github.com/ostium-labs/arbbot/internal/wallet"
	"github.com/ostium-labs/arbbot/pkg/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("arbbot: load config: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracing, err := observability.NewTracingProvider(cfg.Observability)
	if err != nil {
		log.Fatalf("arbbot: start tracing provider: %v", err)
	}
	defer func() {
		if err := tracing.Shutdown(context.Background()); err != nil {
			logger.Warn(ctx, "arbbot: tracing shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	metrics, err := observability.NewMetricsProvider(cfg.Observability)
	if err != nil {
		log.Fatalf("arbbot: start metrics provider: %v", err)
	}
	defer func() {
		if err := metrics.Shutdown(context.Background()); err != nil {
			logger.Warn(ctx, "arbbot: metrics shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()
	if cfg.Observability.MetricsPort != 0 {
		go func() {
			if err := metrics.StartMetricsServer(cfg.Observability.MetricsPort); err != nil {
				logger.Error(ctx, "arbbot: metrics server stopped", err, nil)
			}
		}()
	}

	client, err := ethclient.DialContext(ctx, cfg.Node.WebSocketURL)
	if err != nil {
		log.Fatalf("arbbot: dial node: %v", err)
	}
	defer client.Close()

	// Signing parameters fix chain_id to mainnet (1); this engine never
	// targets a test or alternate chain, so the id is a literal rather
	// than a value read back from the node.
	chainID := big.NewInt(1)

	executor, err := wallet.New(cfg.Wallet.ExecutorPrivateKeyHex)
	if err != nil {
		log.Fatalf("arbbot: load executor wallet: %v", err)
	}
	relaySigner, err := wallet.New(cfg.Wallet.RelayPrivateKeyHex)
	if err != nil {
		log.Fatalf("arbbot: load relay identity wallet: %v", err)
	}

	g := graph.New(logger)
	logger.Info(ctx, "scanning configured factories", map[string]interface{}{
		"factories": len(cfg.Addresses.Factories),
	})
	loadCtx, loadCancel := context.WithTimeout(ctx, 5*time.Minute)
	if err := graph.BulkLoad(loadCtx, g, client, cfg.Addresses.FlashQueryHelper, cfg.Addresses); err != nil {
		loadCancel()
		log.Fatalf("arbbot: bulk load market graph: %v", err)
	}
	loadCancel()

	engine := arbitrage.New(logger)
	oracle := gasoracle.New(client.Client(), client, logger, metrics)
	relayClient := relay.NewClient(nil, relaySigner, logger, metrics)

	loop := blockloop.New(
		logger,
		metrics,
		client,
		g,
		engine,
		oracle,
		relayClient,
		executor,
		cfg.Addresses,
		cfg.Relay,
		chainID,
	)

	if err := loop.Start(ctx); err != nil {
		log.Fatalf("arbbot: start block loop: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info(ctx, "shutting down", nil)
	loop.Stop()
}
