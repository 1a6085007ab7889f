package relay

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ostium-labs/arbbot/internal/wallet"
	"github.com/ostium-labs/arbbot/pkg/observability"
)

// Per-relay submission cap: bursts of relayRateBurst requests, refilling at
// relayRateLimit/sec. A relay that gets hammered every block from a buggy
// retry path is the failure mode this guards against, not normal operation.
const (
	relayRateLimit rate.Limit = 5
	relayRateBurst = 10
)

// Mode selects which JSON-RPC method a submission uses (step 2).
type Mode int

const (
	ModeSimulate Mode = iota
	ModeSend
)

type bundleParams struct {
	Txs []string `json:"txs"`
	BlockNumber string `json:"blockNumber"`
	StateBlockNumber string `json:"stateBlockNumber,omitempty"`
}

type jsonRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID int `json:"id"`
	Method string `json:"method"`
	Params []bundleParams `json:"params"`
}

// Client submits bundles to Flashbots-style relays.
type Client struct {
	httpClient *http.Client
	signer wallet.LocalWallet
	logger *observability.Logger
	metrics *observability.MetricsProvider

	limiterMu sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewClient builds a relay Client. signer is the relay identity wallet used
// only to sign the request body, never the transactions themselves. metrics
// may be a zero-value *observability.MetricsProvider when metrics are
// disabled.
func NewClient(httpClient *http.Client, signer wallet.LocalWallet, logger *observability.Logger, metrics *observability.MetricsProvider) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		signer: signer,
		logger: logger,
		metrics: metrics,
		limiters: make(map[string]*rate.Limiter),
	}
}

// limiterFor returns the per-relayURL token bucket, creating it on first use.
func (c *Client) limiterFor(relayURL string) *rate.Limiter {
	c.limiterMu.Lock()
	defer c.limiterMu.Unlock()
	l, ok := c.limiters[relayURL]
	if !ok {
		l = rate.NewLimiter(relayRateLimit, relayRateBurst)
		c.limiters[relayURL] = l
	}
	return l
}

// body builds the JSON request for one bundle (step 2).
func body(b Bundle, mode Mode) ([]byte, error) {
	txs := make([]string, len(b.Transactions))
	for i, tx := range b.Transactions {
		raw, err := tx.Raw.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("relay: marshal transaction %d: %w", i, err)
		}
		txs[i] = "0x" + hex.EncodeToString(raw)
	}

	params := bundleParams{
		Txs: txs,
		BlockNumber: fmt.Sprintf("0x%x", b.Block+1),
	}
	method := "eth_sendBundle"
	if mode == ModeSimulate {
		method = "eth_callBundle"
		params.StateBlockNumber = fmt.Sprintf("0x%x", b.Block)
	}

	req := jsonRPCRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: []bundleParams{params}}
	return json.Marshal(req)
}

// modeLabel renders mode for metrics/log attributes.
func modeLabel(mode Mode) string {
	if mode == ModeSimulate {
		return "simulate"
	}
	return "send"
}

// Submit POSTs bundle b to relayURL in the given Mode, signing the body
// with the relay identity key and attaching it as X-Flashbots-Signature
// (steps 3-4). A non-200 response is a submission failure; the
// response body becomes the error message.
func (c *Client) Submit(ctx context.Context, relayURL string, b Bundle, mode Mode) (string, error) {
	result, err := c.submit(ctx, relayURL, b, mode)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.metrics.RecordBundleSubmission(ctx, modeLabel(mode), outcome)
	return result, err
}

func (c *Client) submit(ctx context.Context, relayURL string, b Bundle, mode Mode) (string, error) {
	if !c.limiterFor(relayURL).Allow() {
		c.logger.Warn(ctx, "relay: submission rate-limited, dropping", map[string]interface{}{"relay": relayURL})
		return "", fmt.Errorf("relay %s: rate limited", relayURL)
	}

	payload, err := body(b, mode)
	if err != nil {
		return "", err
	}

	sigHeader, err := signBody(payload, c.signer)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, relayURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("relay: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Flashbots-Signature", sigHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("relay: submit to %s: %w", relayURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("relay: read response from %s: %w", relayURL, err)
	}

	if resp.StatusCode != http.StatusOK {
		switch mode {
		case ModeSimulate:
			c.logger.Warn(ctx, "relay: simulation rejected", map[string]interface{}{"relay": relayURL, "body": string(respBody)})
		case ModeSend:
			c.logger.Error(ctx, "relay: send rejected", fmt.Errorf("%s", respBody), map[string]interface{}{"relay": relayURL})
		}
		return "", fmt.Errorf("relay %s: %s", relayURL, respBody)
	}

	return string(respBody), nil
}

// SubmitToAll fans out Send-mode submissions to every relay in relayURLs
// concurrently; each failure is logged independently and does not abort
// the others (submission policy, "await all" fan-out).
func (c *Client) SubmitToAll(ctx context.Context, relayURLs []string, b Bundle) {
	grp, ctx := errgroup.WithContext(ctx)
	for _, url := range relayURLs {
		url := url
		grp.Go(func() error {
			if _, err := c.Submit(ctx, url, b, ModeSend); err != nil {
				c.logger.Error(ctx, "relay: bundle send failed", err, map[string]interface{}{"relay": url})
			}
			return nil
		})
	}
	_ = grp.Wait()
}
