// Package blockchain provides the read gateway for the BTF-2300 contracts.
//
// The gateway talks to three contracts resolved from the contracts package:
//
//   - ArtistToken (ERC-1155): artist registrations, songs, balances, counts
//   - DEX: constant-product pools pairing a song token with the base currency
//   - Royalties: per-token royalty pools and claimable amounts
//
// # Architecture
//
// Every accessor packs calldata with the embedded ABI, sends eth_call through
// an endpoint pool (see rpcpool) and unpacks the answer into a model record.
// Reads with a lifetime in config.CacheTTL go through the read cache first:
//
//	caller -> Gateway.GetPoolInfo -> cache (hit?) -> rpcpool -> node
//
// Quotes (GetExpectedTokensOut, GetExpectedBaseOut), IsPaused and receipts
// are never cached.
//
// # Tagged Results
//
// Reads never return an error. They return a Result that tells "no data"
// apart from "the chain could not be reached":
//
//	res := gw.GetArtist(ctx, big.NewInt(1))
//	switch res.Status {
//	case blockchain.StatusOK:
//		fmt.Println(res.Value.Name)
//	case blockchain.StatusEmpty:
//		fmt.Println("not registered")
//	case blockchain.StatusUnavailable:
//		log.Println("try again later:", res.Err)
//	}
//
// Value always holds a usable sentinel: zero balances, zero-valued records.
// Failures are logged through zap with the operation arguments.
//
// Empty records are not cached, so an artist registered a second ago is
// visible on the next read.
//
// # Token Ids
//
// Song reads accept either a song index or a full token id:
//
//	gw.GetSong(ctx, big.NewInt(7))              // reads token 2000000007
//	gw.GetSong(ctx, big.NewInt(2_000_000_007)) // same
//
// # Units
//
// All amounts on chain are base units with 18 decimals. ToBaseUnits and
// FromBaseUnits convert between human amounts and base units:
//
//	wei, _ := blockchain.ToBaseUnits("10")       // 10000000000000000000
//	blockchain.FromBaseUnits(wei).String()       // "10"
//
// # Chain Primitives
//
// ChainID, TransactionReceipt, PendingNonceAt, SuggestGasPrice, EstimateGas
// and SendTransaction return plain errors. They back the server-side signer
// and receipt polling in the orchestrator.
//
// # Thread Safety
//
// Gateway is safe for concurrent use. Records handed out are copies.
package blockchain
