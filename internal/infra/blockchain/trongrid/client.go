// Package trongrid implements the chain.Client contract against the TronGrid
// HTTP API. It is the only place raw on-chain integer amounts (sun, TRC20
// minimal units) are converted to canonical decimal amounts; both TRX and
// USDT carry 6 decimals.
package trongrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gabapcia/tronwatch/internal/chain"
	transporthttp "github.com/gabapcia/tronwatch/internal/pkg/transport/http"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	// DefaultBaseURL is the TronGrid mainnet endpoint.
	DefaultBaseURL = "https://api.trongrid.io"

	// DefaultUSDTContract is the TRC20 USDT contract on Tron mainnet.
	DefaultUSDTContract = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"

	// apiKeyHeader carries the TronGrid PRO API key.
	apiKeyHeader = "TRON-PRO-API-KEY"

	// tokenDecimals is the decimal scale shared by TRX and TRC20 USDT.
	tokenDecimals = 6
)

type client struct {
	http         *retryablehttp.Client
	baseURL      string
	apiKey       string
	usdtContract string
}

// Compile-time check that the adapter satisfies the consumed contract.
var _ chain.Client = (*client)(nil)

// config holds the adapter settings.
type config struct {
	http         *retryablehttp.Client
	apiKey       string
	usdtContract string
}

// Option customizes the adapter.
type Option func(*config)

// WithAPIKey sets the TronGrid PRO API key sent with every request.
func WithAPIKey(key string) Option {
	return func(c *config) {
		c.apiKey = key
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *retryablehttp.Client) Option {
	return func(c *config) {
		c.http = h
	}
}

// WithUSDTContract overrides the USDT contract address, e.g. for testnets.
func WithUSDTContract(contract string) Option {
	return func(c *config) {
		c.usdtContract = contract
	}
}

// NewClient creates a TronGrid adapter rooted at baseURL. An empty baseURL
// selects mainnet.
func NewClient(baseURL string, opts ...Option) *client {
	cfg := config{
		http:         transporthttp.NewClient(),
		usdtContract: DefaultUSDTContract,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &client{
		http:         cfg.http,
		baseURL:      baseURL,
		apiKey:       cfg.apiKey,
		usdtContract: cfg.usdtContract,
	}
}

// get issues an authenticated GET and decodes the JSON response into out.
// Transport and decoding failures are tagged chain.ErrUnavailable.
func (c *client) get(ctx context.Context, path string, query map[string]string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", chain.ErrUnavailable, err)
	}

	q := req.URL.Query()
	for key, value := range query {
		q.Set(key, value)
	}
	req.URL.RawQuery = q.Encode()

	return c.do(req, out)
}

// post issues an authenticated POST with a JSON body and decodes the JSON
// response into out.
func (c *client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %v", chain.ErrUnavailable, err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", chain.ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// do executes the request with shared headers and decodes the response.
func (c *client) do(req *retryablehttp.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", chain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", chain.ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d: %s", chain.ErrUnavailable, resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", chain.ErrUnavailable, err)
	}

	return nil
}
