package sdk

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boostify/btf2300-sdk-go/internal/testutil/fakechain"
	"github.com/boostify/btf2300-sdk-go/pkg/blockchain"
	"github.com/boostify/btf2300-sdk-go/pkg/config"
	"github.com/boostify/btf2300-sdk-go/pkg/contracts"
	"github.com/boostify/btf2300-sdk-go/pkg/model"
	"github.com/boostify/btf2300-sdk-go/pkg/orchestrator"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const testCID = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func newTestConfig(chain *fakechain.Chain) *config.Config {
	addrs := chain.Addresses()
	return &config.Config{
		Network:   config.Polygon,
		Endpoints: []string{"http://primary", "http://backup"},
		Contracts: &addrs,
		Timeouts: config.Timeouts{
			RPCAttempt:  time.Second,
			ReceiptPoll: 5 * time.Millisecond,
			ReceiptWait: 2 * time.Second,
		},
	}
}

func newTestClient(t *testing.T, cfg *config.Config, chain *fakechain.Chain, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithDialer(chain.Dialer())}, opts...)
	c, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func newChain(t *testing.T, id uint64) *fakechain.Chain {
	t.Helper()
	chain, err := fakechain.New(id)
	require.NoError(t, err)
	t.Cleanup(chain.Close)
	return chain
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	_, err = New(&config.Config{SlippagePercent: 100})
	require.ErrorContains(t, err, "invalid config")

	// The Amoy deployment is not known yet.
	_, err = New(&config.Config{Network: config.Amoy})
	require.Error(t, err)

	_, err = New(&config.Config{PrivateKey: "not-hex"})
	require.Error(t, err)
}

func TestClient_ReadsThroughFailover(t *testing.T) {
	chain := newChain(t, 137)
	tokenID := big.NewInt(1)
	chain.SetPool(tokenID, model.PoolRecord{
		TokenReserve:  big.NewInt(1000),
		BaseReserve:   e18(5),
		TotalLPTokens: big.NewInt(70),
		Active:        true,
	})
	chain.SetDown("http://primary", true)

	c := newTestClient(t, newTestConfig(chain), chain)
	res := c.GetPoolInfo(context.Background(), tokenID)
	require.Equal(t, blockchain.StatusOK, res.Status)
	require.Equal(t, big.NewInt(1000), res.Value.TokenReserve)

	eps := c.Endpoints()
	require.Len(t, eps, 2)
	require.Equal(t, "http://backup", eps[0].URL)
	require.False(t, eps[1].Healthy)
}

func TestClient_QuoteBuyAndSell(t *testing.T) {
	chain := newChain(t, 137)
	tokenID := big.NewInt(1)
	chain.SetPool(tokenID, model.PoolRecord{
		TokenReserve: big.NewInt(1000),
		BaseReserve:  e18(5),
		Active:       true,
	})
	c := newTestClient(t, newTestConfig(chain), chain)
	ctx := context.Background()

	buy := c.QuoteBuy(ctx, tokenID, e18(1))
	require.True(t, buy.OK())
	// floor(1e18*9970*1000 / (5e18*10000 + 1e18*9970))
	require.Equal(t, big.NewInt(166), buy.Value.AmountOut)
	// 0.5% default slippage, rounded down.
	require.Equal(t, big.NewInt(165), buy.Value.MinAmountOut)
	require.Equal(t, "0.005", buy.Value.SpotPrice.String())
	require.True(t, buy.Value.PriceImpact.IsPositive())

	sell := c.QuoteSell(ctx, tokenID, big.NewInt(100))
	require.True(t, sell.OK())
	require.Equal(t, 1, sell.Value.AmountOut.Sign())
	require.Equal(t, -1, sell.Value.MinAmountOut.Cmp(sell.Value.AmountOut))

	// The local quote agrees with the contract when fees match.
	onChain := c.GetExpectedTokensOut(ctx, tokenID, e18(1))
	require.True(t, onChain.OK())
	require.Equal(t, onChain.Value, buy.Value.AmountOut)

	liq := c.LiquidityFor(ctx, tokenID, big.NewInt(100))
	require.True(t, liq.OK())
	require.Equal(t, new(big.Int).Quo(e18(5), big.NewInt(10)), liq.Value)

	// Pool reads are cached, so the three local quotes read it once.
	require.Equal(t, 1, chain.Calls("eth_call:getPoolInfo"))
}

func TestClient_QuoteEmptyPool(t *testing.T) {
	chain := newChain(t, 137)
	c := newTestClient(t, newTestConfig(chain), chain)

	q := c.QuoteBuy(context.Background(), big.NewInt(9), e18(1))
	require.Equal(t, blockchain.StatusEmpty, q.Status)
	require.Equal(t, 0, q.Value.AmountOut.Sign())
}

func TestClient_QuoteUnavailable(t *testing.T) {
	chain := newChain(t, 137)
	chain.SetDown("http://primary", true)
	chain.SetDown("http://backup", true)
	c := newTestClient(t, newTestConfig(chain), chain)

	q := c.QuoteSell(context.Background(), big.NewInt(1), big.NewInt(5))
	require.Equal(t, blockchain.StatusUnavailable, q.Status)
	require.Error(t, q.Err)
}

func TestClient_WriteWithPrivateKey(t *testing.T) {
	chain := newChain(t, 137)
	tokenID := big.NewInt(1)
	chain.SetPool(tokenID, model.PoolRecord{
		TokenReserve: big.NewInt(1000),
		BaseReserve:  e18(5),
		Active:       true,
	})

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	cfg := newTestConfig(chain)
	cfg.PrivateKey = hexutil.Encode(crypto.FromECDSA(key))

	var events []orchestrator.Event
	c := newTestClient(t, cfg, chain, WithObserver(func(e orchestrator.Event) {
		events = append(events, e)
	}))

	res := c.BuyFromPool(context.Background(), orchestrator.BuyFromPoolParams{
		TokenID:    tokenID,
		BaseAmount: "1",
	})
	require.True(t, res.Success, res.ErrorMessage)

	sent := chain.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, sent[0].Hash().Hex(), res.ID)
	require.Equal(t, e18(1), sent[0].Value())
	require.Equal(t, orchestrator.Confirmed, events[len(events)-1].State)
}

func TestClient_WriteWithoutWallet(t *testing.T) {
	chain := newChain(t, 137)
	c := newTestClient(t, newTestConfig(chain), chain)

	res := c.ClaimRoyalties(context.Background(), big.NewInt(1))
	require.False(t, res.Success)
	require.Equal(t, model.FailedTxID, res.ID)
	require.Contains(t, res.ErrorMessage, "wallet unavailable")
	require.Empty(t, chain.Sent())
}

func TestClient_Health(t *testing.T) {
	chain := newChain(t, 137)
	chain.SetPaused(true)
	c := newTestClient(t, newTestConfig(chain), chain)

	h := c.Health(context.Background())
	require.True(t, h.OK)
	require.Equal(t, uint64(137), h.ChainID)
	require.True(t, h.Paused)
	require.Len(t, h.Endpoints, 2)
	require.Empty(t, h.Error)
}

func TestClient_HealthWrongChain(t *testing.T) {
	chain := newChain(t, 1)
	c := newTestClient(t, newTestConfig(chain), chain)

	h := c.Health(context.Background())
	require.False(t, h.OK)
	require.Equal(t, uint64(1), h.ChainID)
	require.Equal(t, uint64(137), h.ExpectedChainID)
	require.NotEmpty(t, h.Error)
}

func TestClient_HealthUnavailable(t *testing.T) {
	chain := newChain(t, 137)
	chain.SetDown("http://primary", true)
	chain.SetDown("http://backup", true)
	c := newTestClient(t, newTestConfig(chain), chain)

	h := c.Health(context.Background())
	require.False(t, h.OK)
	require.Contains(t, h.Error, "connection refused")
}

func TestClient_SongMetadata(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, testCID) {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Night Drive","image":"ipfs://img","attributes":[{"trait_type":"genre","value":"synthwave"}]}`))
	}))
	defer srv.Close()

	chain := newChain(t, 137)
	chain.SetSong(model.SongRecord{
		TokenID:     contracts.SongTokenID(big.NewInt(1)),
		ArtistID:    big.NewInt(1),
		Title:       "Night Drive",
		MetadataURI: "ipfs://" + testCID,
		Active:      true,
	})
	cfg := newTestConfig(chain)
	cfg.LighthouseURL = srv.URL + "/ipfs/"
	c := newTestClient(t, cfg, chain)
	ctx := context.Background()

	for n := 0; n < 2; n++ {
		res := c.GetSongMetadata(ctx, big.NewInt(1))
		require.True(t, res.OK())
		require.Equal(t, "Night Drive", res.Value.Song.Title)
		require.NotNil(t, res.Value.Metadata)
		genre, ok := res.Value.Metadata.Trait("genre")
		require.True(t, ok)
		require.Equal(t, "synthwave", genre)

		// Callers own their copy; the cached document stays intact.
		res.Value.Metadata.Attributes[0].Value = "changed"
	}
	require.Equal(t, int32(1), hits.Load())
}

func TestClient_ArtistProfileUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	chain := newChain(t, 137)
	chain.SetArtist(model.ArtistRecord{
		ArtistID:   big.NewInt(7),
		Name:       "Nova",
		ProfileURI: "ipfs://" + testCID,
		Active:     true,
	})
	cfg := newTestConfig(chain)
	cfg.LighthouseURL = srv.URL + "/ipfs/"
	c := newTestClient(t, cfg, chain)

	res := c.GetArtistProfile(context.Background(), big.NewInt(7))
	require.True(t, res.OK())
	require.Equal(t, "Nova", res.Value.Artist.Name)
	require.Nil(t, res.Value.Profile)

	missing := c.GetArtistProfile(context.Background(), big.NewInt(8))
	require.Equal(t, blockchain.StatusEmpty, missing.Status)
}

func TestClient_Metrics(t *testing.T) {
	chain := newChain(t, 137)
	reg := prometheus.NewRegistry()
	c := newTestClient(t, newTestConfig(chain), chain, WithRegisterer(reg))
	require.NotNil(t, c.Metrics())

	c.GetTokenCounts(context.Background())
	c.GetTokenCounts(context.Background())
	require.Equal(t, uint64(1), c.CacheStats().Hits)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["btf2300_rpc_requests_total"])
	require.True(t, names["btf2300_cache_lookups_total"])
}

func TestClient_NoMetricsByDefault(t *testing.T) {
	chain := newChain(t, 137)
	c := newTestClient(t, newTestConfig(chain), chain)
	require.Nil(t, c.Metrics())
	require.Equal(t, uint64(137), c.Config().Network.ChainID)
	require.NotNil(t, c.Session())
}
