package config

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/boostify/btf2300-sdk-go/pkg/contracts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Config holds all SDK settings. Use Validate to fill implicit defaults and
// to check for required fields. Everything the SDK needs is read from Config
// at construction time.
type Config struct {
	// Network selects the target chain. Default: Polygon.
	Network Network `json:"network" yaml:"network" mapstructure:"network"`
	// Endpoints are the JSON-RPC URLs in initial preference order.
	// Default: Network.RPCURLs.
	Endpoints []string `json:"endpoints" yaml:"endpoints" mapstructure:"endpoints"`
	// Contracts overrides the embedded address book for Network.ChainID.
	Contracts *contracts.Addresses `json:"contracts,omitempty" yaml:"contracts,omitempty" mapstructure:"contracts"`
	// PrivateKey is the hex-encoded ECDSA key of a server-side signer
	// (optional; browser-style wallets are injected as providers instead).
	PrivateKey string `json:"private_key" yaml:"private_key" mapstructure:"private_key"`
	// LighthouseURL is the HTTP gateway used to fetch Filecoin-backed content
	// and IPFS content when no node is configured.
	// Default: https://gateway.lighthouse.storage/ipfs/
	LighthouseURL string `json:"lighthouse_url" yaml:"lighthouse_url" mapstructure:"lighthouse_url"`
	// IpfsURL is the Kubo HTTP API endpoint used to read ipfs:// metadata,
	// e.g. http://127.0.0.1:5001. Optional.
	IpfsURL string `json:"ipfs_url" yaml:"ipfs_url" mapstructure:"ipfs_url"`
	// Debug enables verbose logging.
	Debug bool `json:"debug" yaml:"debug" mapstructure:"debug"`
	// Timeouts configures per-operation timeouts. See Timeouts.WithDefaults.
	Timeouts Timeouts `json:"timeouts" yaml:"timeouts" mapstructure:"timeouts"`
	// Retries is the number of attempts made against each endpoint before
	// moving to the next one. Default: 2.
	Retries int `json:"retries" yaml:"retries" mapstructure:"retries"`
	// EndpointCooldown is how long a failed endpoint stays demoted. Default: 30s.
	EndpointCooldown time.Duration `json:"endpoint_cooldown" yaml:"endpoint_cooldown" mapstructure:"endpoint_cooldown"`
	// CacheTTL holds per-record cache lifetimes. See CacheTTL.WithDefaults.
	CacheTTL CacheTTL `json:"cache_ttl" yaml:"cache_ttl" mapstructure:"cache_ttl"`
	// CacheSize bounds the number of cached reads. Default: 4096.
	CacheSize int `json:"cache_size" yaml:"cache_size" mapstructure:"cache_size"`
	// DeadlineWindow is added to the current time to form transaction
	// deadlines. Default: 1h.
	DeadlineWindow time.Duration `json:"deadline_window" yaml:"deadline_window" mapstructure:"deadline_window"`
	// SlippagePercent is used when a write does not specify one. Default: 0.5.
	SlippagePercent float64 `json:"slippage_percent" yaml:"slippage_percent" mapstructure:"slippage_percent"`
	// PoolFeeBps is the swap fee the local quote calculator assumes. Default: 30.
	PoolFeeBps uint `json:"pool_fee_bps" yaml:"pool_fee_bps" mapstructure:"pool_fee_bps"`
	// GasBufferPercent is added on top of eth_estimateGas. Default: 20.
	GasBufferPercent uint `json:"gas_buffer_percent" yaml:"gas_buffer_percent" mapstructure:"gas_buffer_percent"`

	privateKey *ecdsa.PrivateKey
}

// Timeouts controls SDK operation deadlines.
// Zero values will be replaced by defaults in WithDefaults.
type Timeouts struct {
	Dial        time.Duration `json:"dial" yaml:"dial" mapstructure:"dial"`                         // endpoint dial
	RPCAttempt  time.Duration `json:"rpc_attempt" yaml:"rpc_attempt" mapstructure:"rpc_attempt"`    // one JSON-RPC attempt
	ReceiptWait time.Duration `json:"receipt_wait" yaml:"receipt_wait" mapstructure:"receipt_wait"` // wait for a receipt
	ReceiptPoll time.Duration `json:"receipt_poll" yaml:"receipt_poll" mapstructure:"receipt_poll"` // initial poll interval
	Metadata    time.Duration `json:"metadata" yaml:"metadata" mapstructure:"metadata"`             // metadata document fetch
}

// WithDefaults returns a copy of t with zero values replaced by defaults:
//
//	Dial:        5s
//	RPCAttempt:  10s
//	ReceiptWait: 3m
//	ReceiptPoll: 2s
//	Metadata:    30s
func (t Timeouts) WithDefaults() Timeouts {
	tt := t
	if tt.Dial == 0 {
		tt.Dial = 5 * time.Second
	}
	if tt.RPCAttempt == 0 {
		tt.RPCAttempt = 10 * time.Second
	}
	if tt.ReceiptWait == 0 {
		tt.ReceiptWait = 3 * time.Minute
	}
	if tt.ReceiptPoll == 0 {
		tt.ReceiptPoll = 2 * time.Second
	}
	if tt.Metadata == 0 {
		tt.Metadata = 30 * time.Second
	}
	return tt
}

// CacheTTL is the per-record cache lifetime table.
type CacheTTL struct {
	Artist    time.Duration `json:"artist" yaml:"artist" mapstructure:"artist"`
	Song      time.Duration `json:"song" yaml:"song" mapstructure:"song"`
	Balance   time.Duration `json:"balance" yaml:"balance" mapstructure:"balance"`
	Pool      time.Duration `json:"pool" yaml:"pool" mapstructure:"pool"`
	Counts    time.Duration `json:"counts" yaml:"counts" mapstructure:"counts"`
	Royalties time.Duration `json:"royalties" yaml:"royalties" mapstructure:"royalties"`
	Metadata  time.Duration `json:"metadata" yaml:"metadata" mapstructure:"metadata"`
}

// WithDefaults returns a copy of c with zero values replaced by defaults:
//
//	Artist:    5m
//	Song:      5m
//	Balance:   30s
//	Pool:      60s
//	Counts:    2m
//	Royalties: 30s
//	Metadata:  30m
func (c CacheTTL) WithDefaults() CacheTTL {
	cc := c
	if cc.Artist == 0 {
		cc.Artist = 5 * time.Minute
	}
	if cc.Song == 0 {
		cc.Song = 5 * time.Minute
	}
	if cc.Balance == 0 {
		cc.Balance = 30 * time.Second
	}
	if cc.Pool == 0 {
		cc.Pool = 60 * time.Second
	}
	if cc.Counts == 0 {
		cc.Counts = 2 * time.Minute
	}
	if cc.Royalties == 0 {
		cc.Royalties = 30 * time.Second
	}
	if cc.Metadata == 0 {
		cc.Metadata = 30 * time.Minute
	}
	return cc
}

// Validate normalizes the configuration by applying implicit defaults and
// verifies required fields. It fails when no endpoint is known, when numeric
// settings are out of range, or when PrivateKey is set but cannot be parsed.
func (c *Config) Validate() error {

	if c.Network.ChainID == 0 {
		c.Network = Polygon
	}

	if len(c.Endpoints) == 0 {
		c.Endpoints = append([]string(nil), c.Network.RPCURLs...)
	}
	c.Endpoints = dedupe(c.Endpoints)
	if len(c.Endpoints) == 0 {
		return errors.New("at least one RPC endpoint is required")
	}

	if c.LighthouseURL == "" {
		c.LighthouseURL = "https://gateway.lighthouse.storage/ipfs/"
	}

	c.Timeouts = c.Timeouts.WithDefaults()
	c.CacheTTL = c.CacheTTL.WithDefaults()

	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", c.Retries)
	}
	if c.Retries == 0 {
		c.Retries = 2
	}
	if c.EndpointCooldown == 0 {
		c.EndpointCooldown = 30 * time.Second
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 4096
	}
	if c.DeadlineWindow == 0 {
		c.DeadlineWindow = time.Hour
	}
	if math.IsNaN(c.SlippagePercent) || c.SlippagePercent < 0 || c.SlippagePercent >= 100 {
		return fmt.Errorf("slippage percent must be in [0, 100), got %v", c.SlippagePercent)
	}
	if c.SlippagePercent == 0 {
		c.SlippagePercent = 0.5
	}
	if c.PoolFeeBps >= 10_000 {
		return fmt.Errorf("pool fee must be below 10000 bps, got %d", c.PoolFeeBps)
	}
	if c.PoolFeeBps == 0 {
		c.PoolFeeBps = 30
	}
	if c.GasBufferPercent == 0 {
		c.GasBufferPercent = 20
	}

	if c.PrivateKey != "" {
		if _, err := c.RequirePrivateKey(); err != nil {
			return err
		}
	}

	return nil
}

// HasPrivateKey reports whether a server-side signing key is configured.
func (c *Config) HasPrivateKey() bool {
	return c.PrivateKey != ""
}

// GetPrivateKey returns the parsed signing key, or nil when none is set or it
// is invalid. The parsed key is cached after the first successful call.
func (c *Config) GetPrivateKey() *ecdsa.PrivateKey {
	key, err := c.RequirePrivateKey()
	if err != nil {
		return nil
	}
	return key
}

// RequirePrivateKey is like GetPrivateKey but reports why no key is available.
func (c *Config) RequirePrivateKey() (*ecdsa.PrivateKey, error) {
	if c.privateKey != nil {
		return c.privateKey, nil
	}
	if c.PrivateKey == "" {
		return nil, errors.New("private key is required for this operation")
	}
	key, err := parsePrivateKey(c.PrivateKey)
	if err != nil {
		return nil, err
	}
	c.privateKey = key
	return key, nil
}

func parsePrivateKey(keyHex string) (*ecdsa.PrivateKey, error) {
	keyHex = strings.TrimPrefix(strings.TrimSpace(keyHex), "0x")
	if len(keyHex) != 64 {
		return nil, fmt.Errorf("private key must be 32 bytes (64 hex characters), got %d", len(keyHex))
	}
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// ChainIDHex returns the chain id in the 0x-prefixed form wallets expect.
func (n Network) ChainIDHex() string {
	return hexutil.EncodeUint64(n.ChainID)
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
