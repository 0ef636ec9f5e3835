// Package config provides configuration management for the BTF-2300 SDK.
//
// This package defines the Config structure that controls all SDK behavior:
// target network, JSON-RPC endpoints, contract addresses, storage gateways,
// cache lifetimes, transaction defaults and timeouts.
//
// # Basic Configuration
//
// The zero Config targets Polygon mainnet through its public RPC URL:
//
//	cfg := &config.Config{}
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
// # Network Selection
//
// Three predefined networks are available:
//
//	config.Polygon - Polygon PoS mainnet (ChainID: 137)
//	config.Amoy    - Polygon Amoy testnet (ChainID: 80002)
//	config.Hardhat - local development node (ChainID: 31337)
//
// A Network also carries what a wallet needs to add the chain when it does
// not know it yet: name, native currency, RPC URLs and explorer URL.
//
// # RPC Endpoints
//
// Endpoints lists JSON-RPC URLs in initial preference order. The endpoint
// pool reorders them at runtime by health. Duplicates are dropped:
//
//	cfg.Endpoints = []string{
//		"https://polygon-rpc.com",
//		"https://polygon-bor-rpc.publicnode.com",
//	}
//
// Retries is the number of attempts per endpoint, EndpointCooldown how long
// a failing endpoint stays demoted.
//
// # Contract Addresses
//
// Addresses come from an embedded address book keyed by chain id. Chains
// without a real deployment (Amoy and Hardhat today) need an override:
//
//	cfg.Network = config.Hardhat
//	cfg.Contracts = &contracts.Addresses{
//		ArtistToken: common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
//		DEX:         common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"),
//		Royalties:   common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"),
//	}
//
// # Private Key
//
// A private key is only needed for server-side signing. Interactive wallets
// are injected into the SDK as providers instead. The key is hex-encoded,
// with or without "0x":
//
//	cfg.PrivateKey = "YOUR_PRIVATE_KEY"
//
// # Cache Lifetimes
//
// CacheTTL controls how long each kind of read is served from memory:
//
//	Artist 5m, Song 5m, Balance 30s, Pool 60s, Counts 2m, Royalties 30s, Metadata 30m
//
// Quotes are never cached.
//
// # Timeouts
//
//	cfg.Timeouts = config.Timeouts{
//		RPCAttempt:  5 * time.Second,  // one JSON-RPC attempt
//		ReceiptWait: 5 * time.Minute,  // transaction confirmation
//	}
//
// Zero values are replaced with defaults via WithDefaults().
//
// # Loading From Files
//
// Load reads YAML, JSON or TOML and applies BTF_* environment overrides
// (dots become underscores):
//
//	cfg, err := config.Load("btf.yaml")
//
//	BTF_NETWORK_CHAIN_ID=80002 BTF_ENDPOINTS=http://a,http://b ./btf-gateway
//
// # Thread Safety
//
// Config instances should be created once and not modified after passing
// them to sdk.New.
package config
