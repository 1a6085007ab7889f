// Package config loads the arbitrage bundle generator's environment-variable
// configuration and its address-book constants.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Config holds all configuration for the arbitrage bundle generator.
type Config struct {
	Node NodeConfig
	Wallet WalletConfig
	Relay RelayConfig
	Observability ObservabilityConfig
	Addresses AddressBook
}

// NodeConfig describes how to reach the EVM node.
type NodeConfig struct {
	// WebSocketURL is the node's WS JSON-RPC endpoint (WEB_SOCKET).
	WebSocketURL string
}

// WalletConfig carries the two distinct signing identities the system uses:
// the executor key that owns the on-chain contract, and the relay identity
// key used only to sign the X-Flashbots-Signature header.
type WalletConfig struct {
	// ExecutorPrivateKeyHex is the 0x-prefixed 64-hex-digit executor key (PRIVATE_KEY).
	ExecutorPrivateKeyHex string
	// RelayPrivateKeyHex is the 0x-prefixed 64-hex-digit relay identity key (FLASHBOTS_KEY).
	RelayPrivateKeyHex string
}

// RelayConfig controls where bundles are simulated and sent.
type RelayConfig struct {
	// SimulationRelayURL is used for eth_callBundle (SIMULATION_RELAY).
	SimulationRelayURL string
	// SimulateOnly suppresses eth_sendBundle to production relays (SIMULATE_ONLY).
	SimulateOnly bool
	// ProductionRelayURLs are hard-coded, fanned out to in Send mode.
	ProductionRelayURLs []string
}

// ObservabilityConfig configures the structured logger, the Jaeger trace
// exporter, and the Prometheus metrics endpoint.
type ObservabilityConfig struct {
	ServiceName string
	ServiceVersion string
	LogLevel string
	LogFormat string
	// JaegerEndpoint is the Jaeger collector's HTTP endpoint
	// (OTEL_EXPORTER_JAEGER_ENDPOINT). Tracing stays on the global no-op
	// provider when unset.
	JaegerEndpoint string
	// MetricsPort serves /metrics for Prometheus scraping (METRICS_PORT).
	MetricsPort int
}

// AddressBook is the constant address set baked into the configuration
// layer: native sentinel, wrapped-native, collateral-native,
// executor, flash-loan provider, factories, and the blacklist/origin lists.
type AddressBook struct {
	// Native is the sentinel value used in place of a real address for the
	// chain's native asset (the zero address, by convention).
	Native common.Address
	// WrappedNative is the wrapped-native ERC-20 token (e.g. WETH).
	WrappedNative common.Address
	// CollateralNative is the interest-bearing collateral token for the
	// lending adapter (e.g. cETH/cNative).
	CollateralNative common.Address
	// Executor is the on-chain multicall executor contract.
	Executor common.Address
	// FlashLoanProvider is the flash-loan source the executor may draw on.
	FlashLoanProvider common.Address
	// FlashQueryHelper is the batch pair-reader contract ScanFactory calls
	// through (step 1).
	FlashQueryHelper common.Address
	// Factories lists the constant-product-AMM factory addresses to scan
	// at startup (names six).
	Factories []common.Address
	// TokenBlacklist excludes pairs where either token is listed.
	TokenBlacklist []common.Address
	// PoolBlacklist excludes specific pair addresses outright.
	PoolBlacklist []common.Address
	// OriginTokens are the origin addresses the arbitrage engine searches
	// from; wrapped-native by default.
	OriginTokens []common.Address
}

const (
	envWebSocket = "WEB_SOCKET"
	envPrivateKey = "PRIVATE_KEY"
	envFlashbotsKey = "FLASHBOTS_KEY"
	envSimulationRelay = "SIMULATION_RELAY"
	envSimulateOnly = "SIMULATE_ONLY"
)

// productionRelayURLs are hard-coded for Send mode.
var productionRelayURLs = []string{
	"https://relay.flashbots.net/",
	"https://mev-relay.ethermine.org/",
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Node: NodeConfig{
			WebSocketURL: getEnv(envWebSocket, ""),
		},
		Wallet: WalletConfig{
			ExecutorPrivateKeyHex: getEnv(envPrivateKey, ""),
			RelayPrivateKeyHex: getEnv(envFlashbotsKey, ""),
		},
		Relay: RelayConfig{
			SimulationRelayURL: getEnv(envSimulationRelay, ""),
			SimulateOnly: os.Getenv(envSimulateOnly) != "",
			ProductionRelayURLs: productionRelayURLs,
		},
		Observability: ObservabilityConfig{
			ServiceName: getEnv("OTEL_SERVICE_NAME", "arbbot"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
			JaegerEndpoint: getEnv("OTEL_EXPORTER_JAEGER_ENDPOINT", ""),
			MetricsPort: getEnvInt("METRICS_PORT", 9090),
		},
		Addresses: DefaultAddressBook(),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Node.WebSocketURL == "" {
		return fmt.Errorf("%s is required", envWebSocket)
	}
	if err := validatePrivateKeyHex(envPrivateKey, c.Wallet.ExecutorPrivateKeyHex); err != nil {
		return err
	}
	if err := validatePrivateKeyHex(envFlashbotsKey, c.Wallet.RelayPrivateKeyHex); err != nil {
		return err
	}
	if c.Relay.SimulationRelayURL == "" {
		return fmt.Errorf("%s is required", envSimulationRelay)
	}
	return nil
}

func validatePrivateKeyHex(envName, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", envName)
	}
	trimmed := strings.TrimPrefix(value, "0x")
	if len(trimmed) != 64 {
		return fmt.Errorf("%s must be a 0x-prefixed 64-hex-digit key", envName)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
