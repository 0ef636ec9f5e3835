package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// TestConfigValidate_AppliesDefaults verifies that Validate fills every
// implicit default on a zero Config.
func TestConfigValidate_AppliesDefaults(t *testing.T) {
	cfg := &Config{}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	if cfg.Network.ChainID != 137 {
		t.Fatalf("expected default Polygon network, got %#v", cfg.Network)
	}
	if len(cfg.Endpoints) != 1 || cfg.Endpoints[0] != "https://polygon-rpc.com" {
		t.Fatalf("unexpected endpoints: %v", cfg.Endpoints)
	}
	if cfg.LighthouseURL != "https://gateway.lighthouse.storage/ipfs/" {
		t.Fatalf("unexpected LighthouseURL: %s", cfg.LighthouseURL)
	}
	if cfg.Retries != 2 || cfg.EndpointCooldown != 30*time.Second {
		t.Fatalf("unexpected retry settings: %d %v", cfg.Retries, cfg.EndpointCooldown)
	}
	if cfg.CacheSize != 4096 || cfg.DeadlineWindow != time.Hour {
		t.Fatalf("unexpected cache/deadline: %d %v", cfg.CacheSize, cfg.DeadlineWindow)
	}
	if cfg.SlippagePercent != 0.5 || cfg.PoolFeeBps != 30 || cfg.GasBufferPercent != 20 {
		t.Fatalf("unexpected trade defaults: %v %d %d", cfg.SlippagePercent, cfg.PoolFeeBps, cfg.GasBufferPercent)
	}
	if cfg.Timeouts.RPCAttempt != 10*time.Second {
		t.Fatalf("timeouts not defaulted: %#v", cfg.Timeouts)
	}
	if cfg.CacheTTL.Pool != 60*time.Second {
		t.Fatalf("cache ttl not defaulted: %#v", cfg.CacheTTL)
	}
}

func TestConfigValidate_DedupesEndpoints(t *testing.T) {
	in := []string{"http://a", " http://a", "", "http://b"}
	cfg := &Config{Endpoints: in}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if strings.Join(cfg.Endpoints, ",") != "http://a,http://b" {
		t.Fatalf("unexpected endpoints: %v", cfg.Endpoints)
	}
	if in[1] != " http://a" {
		t.Fatal("Validate mutated the caller's slice")
	}
}

func TestConfigValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "no endpoints on custom network", cfg: Config{Network: Network{ChainID: 5}}},
		{name: "negative retries", cfg: Config{Retries: -1}},
		{name: "slippage too high", cfg: Config{SlippagePercent: 100}},
		{name: "NaN slippage", cfg: Config{SlippagePercent: math.NaN()}},
		{name: "infinite slippage", cfg: Config{SlippagePercent: math.Inf(1)}},
		{name: "fee too high", cfg: Config{PoolFeeBps: 10_000}},
		{name: "bad key", cfg: Config{PrivateKey: "123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestTimeouts_WithDefaults_KeepsExplicit(t *testing.T) {
	got := Timeouts{RPCAttempt: time.Second}.WithDefaults()
	if got.RPCAttempt != time.Second {
		t.Fatalf("RPCAttempt overwritten: %v", got.RPCAttempt)
	}
	if got.ReceiptWait != 3*time.Minute || got.ReceiptPoll != 2*time.Second || got.Dial != 5*time.Second {
		t.Fatalf("unexpected defaults: %#v", got)
	}
}

func TestConfig_PrivateKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate test key: %v", err)
	}
	hexKey := common.Bytes2Hex(crypto.FromECDSA(key))

	cfg := &Config{PrivateKey: "0x" + hexKey}
	if !cfg.HasPrivateKey() {
		t.Fatal("HasPrivateKey() = false")
	}
	k1 := cfg.GetPrivateKey()
	k2 := cfg.GetPrivateKey()
	if k1 == nil || k1 != k2 {
		t.Fatal("GetPrivateKey() should return the cached instance")
	}
	if crypto.PubkeyToAddress(k1.PublicKey) != crypto.PubkeyToAddress(key.PublicKey) {
		t.Fatal("parsed key does not match")
	}

	empty := &Config{}
	if _, err := empty.RequirePrivateKey(); err == nil || err.Error() != "private key is required for this operation" {
		t.Fatalf("unexpected error: %v", err)
	}
	if empty.GetPrivateKey() != nil {
		t.Fatal("expected nil key")
	}
}

func TestParsePrivateKey(t *testing.T) {
	tests := []struct {
		name   string
		keyHex string
		errMsg string
	}{
		{name: "too short", keyHex: "123", errMsg: "private key must be 32 bytes (64 hex characters), got 3"},
		{name: "too long", keyHex: strings.Repeat("a", 128), errMsg: "private key must be 32 bytes (64 hex characters), got 128"},
		{name: "invalid hex", keyHex: strings.Repeat("z", 64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parsePrivateKey(tt.keyHex)
			if err == nil {
				t.Fatal("parsePrivateKey() expected error, got nil")
			}
			if tt.errMsg != "" && err.Error() != tt.errMsg {
				t.Errorf("error = %q, want %q", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestNetwork_Presets(t *testing.T) {
	if Polygon.ChainIDHex() != "0x89" {
		t.Fatalf("Polygon chain id hex = %s", Polygon.ChainIDHex())
	}
	if Amoy.ChainIDHex() != "0x13882" {
		t.Fatalf("Amoy chain id hex = %s", Amoy.ChainIDHex())
	}
	n, ok := NetworkByChainID(31337)
	if !ok || n.Name != "Hardhat" {
		t.Fatalf("NetworkByChainID(31337) = %#v, %v", n, ok)
	}
	if _, ok := NetworkByChainID(1); ok {
		t.Fatal("unexpected preset for chain 1")
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "btf.yaml")
	body := `
network:
  chain_id: 31337
endpoints:
  - http://127.0.0.1:8545
contracts:
  artist_token: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
  dex: "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"
  royalties: "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"
cache_ttl:
  pool: 15s
slippage_percent: 1.5
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BTF_RETRIES", "4")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Network.Name != "Hardhat" {
		t.Fatalf("preset not applied: %#v", cfg.Network)
	}
	if cfg.Contracts == nil || cfg.Contracts.DEX != common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512") {
		t.Fatalf("contracts not decoded: %#v", cfg.Contracts)
	}
	if cfg.CacheTTL.Pool != 15*time.Second || cfg.CacheTTL.Artist != 5*time.Minute {
		t.Fatalf("cache ttl: %#v", cfg.CacheTTL)
	}
	if cfg.SlippagePercent != 1.5 {
		t.Fatalf("slippage = %v", cfg.SlippagePercent)
	}
	if cfg.Retries != 4 {
		t.Fatalf("env override not applied: retries = %d", cfg.Retries)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
