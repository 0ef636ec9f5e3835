// Package model defines the plain records exchanged by the SDK: artist, song,
// pool and royalty state read from the BTF-2300 contracts, the outcome of
// write operations, and the metadata documents referenced by on-chain URIs.
//
// All integer quantities are base units (*big.Int, 18 decimals for the base
// currency). Records handed out by the SDK are deep copies: mutating one never
// affects the cache or another caller.
//
// # Records
//
//	ArtistRecord      artists(uint256)             ArtistID == 0 means unregistered
//	SongRecord        songs(uint256)               TokenID == 0 means missing
//	PoolRecord        getPoolInfo(uint256)         see Initialized
//	TokenCounts       getCurrentTokenCounts()
//	RoyaltyPoolRecord getRoyaltyPoolInfo(uint256)
//
// # Write results
//
// TransactionResult mirrors what a UI needs after a write:
//
//	{"success":true,"id":"0xabc..."}
//	{"success":false,"id":"0x0","errorMessage":"network switch rejected"}
//
// ID is FailedTxID when no transaction was ever submitted.
package model
