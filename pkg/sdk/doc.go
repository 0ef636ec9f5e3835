// Package sdk provides the high-level entry point for reading and trading
// BTF-2300 artist and song tokens.
//
// A Client hides the endpoint failover, read caching, wallet handling and
// transaction lifecycle behind one value built from a config.Config.
//
// # Quick Start
//
//	import (
//		"github.com/boostify/btf2300-sdk-go/pkg/config"
//		"github.com/boostify/btf2300-sdk-go/pkg/sdk"
//	)
//
//	func main() {
//		cfg := &config.Config{
//			Network:   config.Polygon,
//			Endpoints: []string{"https://polygon-rpc.com", "https://rpc.ankr.com/polygon"},
//		}
//
//		client, err := sdk.New(cfg)
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer client.Close()
//
//		pool := client.GetPoolInfo(ctx, tokenID)
//		switch pool.Status {
//		case blockchain.StatusOK:
//			fmt.Println(pool.Value.TokenReserve, pool.Value.BaseReserve)
//		case blockchain.StatusEmpty:
//			fmt.Println("no pool for this token")
//		case blockchain.StatusUnavailable:
//			log.Printf("chain unavailable: %v", pool.Err)
//		}
//	}
//
// # Architecture
//
// The Client coordinates several subsystems:
//
//   - rpcpool: ranked JSON-RPC endpoints with per-attempt timeouts and cooldowns
//   - cache: TTL read cache with de-duplication of concurrent identical reads
//   - blockchain: typed contract reads and the transaction primitives
//   - wallet: injected or server-side signer, network switching
//   - orchestrator: buy, sell, liquidity and royalty writes with receipt tracking
//   - storage: IPFS and Lighthouse metadata documents
//
// # Reads
//
// Every read returns a blockchain.Result. Status separates a record that does
// not exist (StatusEmpty) from a chain that could not be reached
// (StatusUnavailable), so callers never mistake an outage for a zero balance.
// Results are cached per kind with the TTLs in config.CacheTTL.
//
// GetArtistProfile and GetSongMetadata additionally resolve the record's
// metadata URI. A document that cannot be fetched leaves the metadata nil.
//
// # Writes
//
// Writes need a signer. Pass one with WithProvider, or set Config.PrivateKey
// to sign server-side:
//
//	res := client.BuyFromPool(ctx, orchestrator.BuyFromPoolParams{
//		TokenID:    tokenID,
//		BaseAmount: "10",
//	})
//	if !res.Success {
//		log.Printf("buy failed: %s", res.ErrorMessage)
//	}
//
// A write never returns a Go error. Its TransactionResult carries the hash
// on success, or "0x0" and a message on failure. After confirmation the
// cached reads of the traded token and the signer are invalidated.
//
// # Quotes
//
// QuoteBuy and QuoteSell estimate swaps locally from the cached pool state
// with Config.PoolFeeBps. They are meant for display; the orchestrator asks
// the contract for the authoritative quote.
//
// # Configuration
//
// Required configuration fields:
//   - Network: target chain (config.Polygon, config.Amoy or config.Hardhat)
//   - Endpoints: at least one JSON-RPC URL, in preference order
//
// Optional fields:
//   - Contracts: override the known deployment addresses
//   - PrivateKey: server-side signer for writes
//   - IpfsURL: Kubo API used for ipfs:// documents
//   - LighthouseURL: Lighthouse gateway
//   - Timeouts, Retries, EndpointCooldown: failover tuning
//   - CacheTTL, CacheSize: read cache tuning
//   - DeadlineWindow, SlippagePercent, GasBufferPercent: write defaults
//
// config.Load reads the same fields from a file and BTF_* environment
// variables.
//
// # Observability
//
// Logging goes through the global zap logger; Debug switches it to debug
// level. WithRegisterer enables Prometheus metrics for RPC attempts, cache
// lookups and transactions. WithObserver receives every state transition of
// every write.
//
// # Thread Safety
//
// A Client is safe for concurrent use. Share one instance across goroutines.
//
// # See Also
//
// For runnable programs, see the examples/ directory in the repository:
//   - examples/quick-start: reads and metadata
//   - examples/healthcheck: endpoint and chain status
//   - examples/buy-from-pool: a pool purchase with a server-side signer
package sdk
