package wallet

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/boostify/btf2300-sdk-go/internal/testutil/fakechain"
	"github.com/boostify/btf2300-sdk-go/pkg/blockchain"
	"github.com/boostify/btf2300-sdk-go/pkg/cache"
	"github.com/boostify/btf2300-sdk-go/pkg/config"
	"github.com/boostify/btf2300-sdk-go/pkg/rpcpool"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func newKeyed(t *testing.T) (*KeyedProvider, *fakechain.Chain) {
	t.Helper()
	chain, err := fakechain.New(137)
	require.NoError(t, err)
	t.Cleanup(chain.Close)

	pool, err := rpcpool.New(rpcpool.Options{Endpoints: []string{"http://node"}, Dialer: chain.Dialer(), AttemptTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	c, err := cache.New(cache.Options{})
	require.NoError(t, err)
	gw, err := blockchain.NewGateway(pool, c, chain.Addresses(), config.CacheTTL{})
	require.NoError(t, err)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	p, err := NewKeyedProvider(key, gw, 20)
	require.NoError(t, err)
	return p, chain
}

func TestKeyedProvider_SignAndSend(t *testing.T) {
	p, chain := newKeyed(t)
	ctx := context.Background()

	signer, err := NewSession(p, config.Polygon).EnsureSession(ctx)
	require.NoError(t, err)
	require.Equal(t, p.Account(), signer.Account)

	value := big.NewInt(1e18)
	hash, err := signer.SignAndSend(ctx, CallSpec{To: fakechain.DEXAddr, Data: []byte{0xde, 0xad, 0xbe, 0xef}, Value: value})
	require.NoError(t, err)

	sent := chain.Sent()
	require.Len(t, sent, 1)
	tx := sent[0]
	require.Equal(t, hash, tx.Hash())
	require.Equal(t, uint64(0), tx.Nonce())
	require.Equal(t, uint64(120_000), tx.Gas(), "estimate plus 20% buffer")
	require.Equal(t, value, tx.Value())
	require.Equal(t, fakechain.DEXAddr, *tx.To())
	require.Equal(t, big.NewInt(137), tx.ChainId())

	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(137)), tx)
	require.NoError(t, err)
	require.Equal(t, p.Account(), from)

	_, err = signer.SignAndSend(ctx, CallSpec{To: fakechain.DEXAddr})
	require.NoError(t, err)
	require.Equal(t, uint64(1), chain.Sent()[1].Nonce())
}

func TestKeyedProvider_CannotLeaveItsChain(t *testing.T) {
	p, chain := newKeyed(t)
	_, err := NewSession(p, config.Amoy).EnsureSession(context.Background())
	require.ErrorIs(t, err, ErrNetworkSwitchRejected)
	require.Empty(t, chain.Sent())
}

func TestKeyedProvider_EstimateFailureSendsNothing(t *testing.T) {
	p, chain := newKeyed(t)
	chain.SetPaused(true)

	_, err := p.SignAndSend(context.Background(), CallSpec{To: fakechain.DEXAddr, ChainID: 137})
	require.ErrorContains(t, err, "estimate gas")
	require.True(t, rpcpool.IsRPCError(err))
	require.Empty(t, chain.Sent())
}

func TestNewKeyedProvider_RequiresKey(t *testing.T) {
	_, err := NewKeyedProvider(nil, nil, 0)
	require.Error(t, err)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	_, err = NewKeyedProvider(key, nil, 0)
	require.Error(t, err)
}
