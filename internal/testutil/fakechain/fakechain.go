// Package fakechain runs an in-memory JSON-RPC node that answers the eth_*
// methods the SDK uses, backed by BTF-2300 contract state set from tests.
package fakechain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/boostify/btf2300-sdk-go/pkg/contracts"
	"github.com/boostify/btf2300-sdk-go/pkg/model"
	"github.com/boostify/btf2300-sdk-go/pkg/rpcpool"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// Default contract addresses of the fake deployment.
var (
	ArtistTokenAddr = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	DEXAddr         = common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")
	RoyaltiesAddr   = common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0")
)

// RevertError is a JSON-RPC error response with code 3, the way nodes
// report reverted calls.
type RevertError struct{ Reason string }

func (e *RevertError) Error() string  { return "execution reverted: " + e.Reason }
func (e *RevertError) ErrorCode() int { return 3 }

// Chain is the fake node. All setters and getters are safe for concurrent
// use with running RPC calls.
type Chain struct {
	chainID uint64
	abis    *contracts.ABIs
	server  *rpc.Server

	mu             sync.Mutex
	calls          map[string]int
	failures       map[string]error
	down           map[string]bool
	artists        map[string]model.ArtistRecord
	songs          map[string]model.SongRecord
	balances       map[string]*big.Int
	lpBalances     map[string]*big.Int
	pools          map[string]model.PoolRecord
	claimable      map[string]*big.Int
	royaltyPools   map[string]model.RoyaltyPoolRecord
	artistByWallet map[common.Address]*big.Int
	artistSongs    map[string][]*big.Int
	counts         model.TokenCounts
	paused         bool
	native         map[common.Address]*big.Int
	nonces         map[common.Address]uint64
	gasPrice       *big.Int
	receipts       map[common.Hash]*types.Receipt
	pendingPolls   map[common.Hash]int
	receiptDelay   int
	revertSends    bool
	sent           []*types.Transaction
}

// New starts a fake node for chainID.
func New(chainID uint64) (*Chain, error) {
	abis, err := contracts.LoadABIs()
	if err != nil {
		return nil, err
	}
	c := &Chain{
		chainID:        chainID,
		abis:           abis,
		calls:          map[string]int{},
		failures:       map[string]error{},
		down:           map[string]bool{},
		artists:        map[string]model.ArtistRecord{},
		songs:          map[string]model.SongRecord{},
		balances:       map[string]*big.Int{},
		lpBalances:     map[string]*big.Int{},
		pools:          map[string]model.PoolRecord{},
		claimable:      map[string]*big.Int{},
		royaltyPools:   map[string]model.RoyaltyPoolRecord{},
		artistByWallet: map[common.Address]*big.Int{},
		artistSongs:    map[string][]*big.Int{},
		native:         map[common.Address]*big.Int{},
		nonces:         map[common.Address]uint64{},
		gasPrice:       big.NewInt(30_000_000_000),
		receipts:       map[common.Hash]*types.Receipt{},
		pendingPolls:   map[common.Hash]int{},
	}
	c.server = rpc.NewServer()
	if err := c.server.RegisterName("eth", &ethService{c: c}); err != nil {
		return nil, fmt.Errorf("register eth service: %w", err)
	}
	return c, nil
}

// Addresses returns the fake deployment.
func (c *Chain) Addresses() contracts.Addresses {
	return contracts.Addresses{ArtistToken: ArtistTokenAddr, DEX: DEXAddr, Royalties: RoyaltiesAddr}
}

// ChainID returns the chain id the node reports.
func (c *Chain) ChainID() uint64 { return c.chainID }

// Client returns an in-process client.
func (c *Chain) Client() *rpc.Client {
	return rpc.DialInProc(c.server)
}

// Dialer returns an rpcpool.Dialer that connects every URL to this node.
// URLs marked with SetDown fail every call with a transport error.
func (c *Chain) Dialer() rpcpool.Dialer {
	return func(_ context.Context, url string) (rpcpool.Caller, error) {
		return &endpoint{url: url, chain: c, client: c.Client()}, nil
	}
}

// Close stops the server.
func (c *Chain) Close() { c.server.Stop() }

type endpoint struct {
	url    string
	chain  *Chain
	client *rpc.Client
}

func (e *endpoint) CallContext(ctx context.Context, result any, method string, args ...any) error {
	e.chain.mu.Lock()
	down := e.chain.down[e.url]
	e.chain.mu.Unlock()
	if down {
		return fmt.Errorf("dial tcp %s: connection refused", e.url)
	}
	return e.client.CallContext(ctx, result, method, args...)
}

func (e *endpoint) Close() { e.client.Close() }

// SetDown makes url fail (or recover) at the transport level.
func (c *Chain) SetDown(url string, down bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.down[url] = down
}

// Calls returns how often name was served. name is either an RPC method
// ("eth_call") or "eth_call:" followed by a contract function name.
func (c *Chain) Calls(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}

// Fail makes name (same keys as Calls) answer with err until cleared with a
// nil err.
func (c *Chain) Fail(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failures, name)
		return
	}
	c.failures[name] = err
}

func (c *Chain) SetArtist(a model.ArtistRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.artists[a.ArtistID.String()] = a.Clone()
}

func (c *Chain) SetSong(s model.SongRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.songs[s.TokenID.String()] = s.Clone()
}

func (c *Chain) SetBalance(tokenID *big.Int, holder common.Address, v *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[holderKey(tokenID, holder)] = new(big.Int).Set(v)
}

func (c *Chain) SetLPBalance(tokenID *big.Int, provider common.Address, v *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lpBalances[holderKey(tokenID, provider)] = new(big.Int).Set(v)
}

func (c *Chain) SetPool(tokenID *big.Int, p model.PoolRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pools[tokenID.String()] = p.Clone()
}

func (c *Chain) SetClaimable(tokenID *big.Int, holder common.Address, v *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.claimable[holderKey(tokenID, holder)] = new(big.Int).Set(v)
}

func (c *Chain) SetRoyaltyPool(tokenID *big.Int, r model.RoyaltyPoolRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.royaltyPools[tokenID.String()] = r.Clone()
}

func (c *Chain) SetCounts(tc model.TokenCounts) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = tc.Clone()
}

func (c *Chain) SetArtistByWallet(wallet common.Address, artistID *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.artistByWallet[wallet] = new(big.Int).Set(artistID)
}

func (c *Chain) SetArtistSongs(artistID *big.Int, ids ...*big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.artistSongs[artistID.String()] = ids
}

func (c *Chain) SetPaused(p bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = p
}

func (c *Chain) SetNativeBalance(addr common.Address, v *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.native[addr] = new(big.Int).Set(v)
}

// SetReceiptDelay makes every new transaction report "pending" for polls
// receipt lookups before its receipt appears.
func (c *Chain) SetReceiptDelay(polls int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receiptDelay = polls
}

// RevertTransactions makes submitted transactions mine with status 0.
func (c *Chain) RevertTransactions(revert bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revertSends = revert
}

// AddReceipt mines hash with status (types.ReceiptStatusSuccessful or
// types.ReceiptStatusFailed). Used when a test signer bypasses
// eth_sendRawTransaction.
func (c *Chain) AddReceipt(hash common.Hash, status uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receipts[hash] = newReceipt(hash, status)
	c.pendingPolls[hash] = c.receiptDelay
}

// Sent returns the raw transactions received so far.
func (c *Chain) Sent() []*types.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*types.Transaction(nil), c.sent...)
}

// count records a call and returns the injected failure for it, if any.
// The caller must hold c.mu.
func (c *Chain) count(names ...string) error {
	for _, n := range names {
		c.calls[n]++
	}
	for _, n := range names {
		if err, ok := c.failures[n]; ok {
			return err
		}
	}
	return nil
}

func newReceipt(hash common.Hash, status uint64) *types.Receipt {
	return &types.Receipt{
		Type:              types.LegacyTxType,
		Status:            status,
		CumulativeGasUsed: 21_000,
		Logs:              []*types.Log{},
		TxHash:            hash,
		GasUsed:           21_000,
		EffectiveGasPrice: big.NewInt(30_000_000_000),
		BlockHash:         common.HexToHash("0x01"),
		BlockNumber:       big.NewInt(1),
	}
}

func holderKey(tokenID *big.Int, holder common.Address) string {
	return tokenID.String() + ":" + strings.ToLower(holder.Hex())
}

func nz(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
