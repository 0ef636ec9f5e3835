package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/boostify/btf2300-sdk-go/pkg/cache"
	"github.com/boostify/btf2300-sdk-go/pkg/contracts"
	"github.com/boostify/btf2300-sdk-go/pkg/model"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// catalogFanOut bounds concurrent song reads in GetArtistCatalog.
const catalogFanOut = 8

// GetArtist reads artists(artistID). The result is StatusEmpty when the
// artist is not registered.
func (g *Gateway) GetArtist(ctx context.Context, artistID *big.Int) Result[model.ArtistRecord] {
	return read(ctx, g, readSpec[model.ArtistRecord]{
		op:  "read artist",
		key: cache.Key("artist", artistID),
		ttl: g.ttl.Artist,
		fetch: func(ctx context.Context) (model.ArtistRecord, error) {
			vals, err := g.call(ctx, g.addrs.ArtistToken, &g.abis.ArtistToken, "artists", artistID)
			if err != nil {
				return model.ArtistRecord{}, err
			}
			o := outputs{method: "artists", vals: vals}
			rec := model.ArtistRecord{
				ArtistID:      o.bigInt(0),
				Wallet:        o.address(1),
				Name:          o.str(2),
				ProfileURI:    o.str(3),
				TotalEarnings: o.bigInt(4),
				TotalSongs:    o.bigInt(5),
				Verified:      o.boolean(6),
				Active:        o.boolean(7),
				RegisteredAt:  o.unix(8),
			}
			return rec, o.err
		},
		empty:  func(a model.ArtistRecord) bool { return a.ArtistID == nil || a.ArtistID.Sign() == 0 },
		clone:  model.ArtistRecord.Clone,
		fields: []zap.Field{zap.Stringer("artistId", artistID)},
	})
}

// GetSong reads songs(tokenId). id may be a song index (below
// contracts.SongPrefix) or a full song token id. The result is StatusEmpty
// when the song does not exist.
func (g *Gateway) GetSong(ctx context.Context, id *big.Int) Result[model.SongRecord] {
	var tokenID *big.Int
	if id != nil {
		tokenID = contracts.SongTokenID(id)
	}
	return read(ctx, g, readSpec[model.SongRecord]{
		op:  "read song",
		key: cache.Key("song", tokenID),
		ttl: g.ttl.Song,
		fetch: func(ctx context.Context) (model.SongRecord, error) {
			vals, err := g.call(ctx, g.addrs.ArtistToken, &g.abis.ArtistToken, "songs", tokenID)
			if err != nil {
				return model.SongRecord{}, err
			}
			o := outputs{method: "songs", vals: vals}
			rec := model.SongRecord{
				TokenID:         o.bigInt(0),
				ArtistID:        o.bigInt(1),
				Title:           o.str(2),
				MetadataURI:     o.str(3),
				TotalSupply:     o.bigInt(4),
				AvailableSupply: o.bigInt(5),
				PricePerToken:   o.bigInt(6),
				Active:          o.boolean(7),
				TotalEarnings:   o.bigInt(8),
				CreatedAt:       o.unix(9),
			}
			return rec, o.err
		},
		empty:  func(s model.SongRecord) bool { return s.TokenID == nil || s.TokenID.Sign() == 0 },
		clone:  model.SongRecord.Clone,
		fields: []zap.Field{zap.Stringer("tokenId", tokenID)},
	})
}

// GetBalance reads balanceOf(holder, tokenID). On failure Value is zero.
func (g *Gateway) GetBalance(ctx context.Context, tokenID *big.Int, holder common.Address) Result[*big.Int] {
	return read(ctx, g, readSpec[*big.Int]{
		op:  "read balance",
		key: cache.Key("balance", tokenID, holder),
		ttl: g.ttl.Balance,
		fetch: func(ctx context.Context) (*big.Int, error) {
			return g.uint256(ctx, g.addrs.ArtistToken, &g.abis.ArtistToken, "balanceOf", holder, tokenID)
		},
		clone:    cloneBig,
		fallback: zeroBig,
		fields:   []zap.Field{zap.Stringer("tokenId", tokenID), zap.Stringer("holder", holder)},
	})
}

// GetPoolInfo reads getPoolInfo(tokenID). The result is StatusEmpty when
// the pool was never initialized.
func (g *Gateway) GetPoolInfo(ctx context.Context, tokenID *big.Int) Result[model.PoolRecord] {
	return read(ctx, g, readSpec[model.PoolRecord]{
		op:  "read pool info",
		key: cache.Key("pool", tokenID),
		ttl: g.ttl.Pool,
		fetch: func(ctx context.Context) (model.PoolRecord, error) {
			vals, err := g.call(ctx, g.addrs.DEX, &g.abis.DEX, "getPoolInfo", tokenID)
			if err != nil {
				return model.PoolRecord{}, err
			}
			o := outputs{method: "getPoolInfo", vals: vals}
			rec := model.PoolRecord{
				TokenReserve:   o.bigInt(0),
				BaseReserve:    o.bigInt(1),
				TotalLPTokens:  o.bigInt(2),
				FeeAccumulated: o.bigInt(3),
				Active:         o.boolean(4),
			}
			return rec, o.err
		},
		empty:  func(p model.PoolRecord) bool { return !p.Initialized() },
		clone:  model.PoolRecord.Clone,
		fields: []zap.Field{zap.Stringer("tokenId", tokenID)},
	})
}

// GetExpectedTokensOut asks the DEX how many tokens baseAmount buys right
// now. Quotes are never cached.
func (g *Gateway) GetExpectedTokensOut(ctx context.Context, tokenID, baseAmount *big.Int) Result[*big.Int] {
	return read(ctx, g, readSpec[*big.Int]{
		op: "quote tokens out",
		fetch: func(ctx context.Context) (*big.Int, error) {
			return g.uint256(ctx, g.addrs.DEX, &g.abis.DEX, "getExpectedTokensOut", tokenID, baseAmount)
		},
		fallback: zeroBig,
		fields:   []zap.Field{zap.Stringer("tokenId", tokenID), zap.Stringer("baseAmount", baseAmount)},
	})
}

// GetExpectedBaseOut asks the DEX how much base currency tokenAmount sells
// for right now. Quotes are never cached.
func (g *Gateway) GetExpectedBaseOut(ctx context.Context, tokenID, tokenAmount *big.Int) Result[*big.Int] {
	return read(ctx, g, readSpec[*big.Int]{
		op: "quote base out",
		fetch: func(ctx context.Context) (*big.Int, error) {
			return g.uint256(ctx, g.addrs.DEX, &g.abis.DEX, "getExpectedEthOut", tokenID, tokenAmount)
		},
		fallback: zeroBig,
		fields:   []zap.Field{zap.Stringer("tokenId", tokenID), zap.Stringer("tokenAmount", tokenAmount)},
	})
}

// GetClaimableRoyalties reads getClaimableAmount(tokenID, holder) and
// converts it to base currency. On failure Value is zero.
func (g *Gateway) GetClaimableRoyalties(ctx context.Context, tokenID *big.Int, holder common.Address) Result[decimal.Decimal] {
	raw := read(ctx, g, readSpec[*big.Int]{
		op:  "read claimable royalties",
		key: cache.Key("royalties", tokenID, holder),
		ttl: g.ttl.Royalties,
		fetch: func(ctx context.Context) (*big.Int, error) {
			return g.uint256(ctx, g.addrs.Royalties, &g.abis.Royalties, "getClaimableAmount", tokenID, holder)
		},
		fallback: zeroBig,
		fields:   []zap.Field{zap.Stringer("tokenId", tokenID), zap.Stringer("holder", holder)},
	})
	return Result[decimal.Decimal]{Value: FromBaseUnits(raw.Value), Status: raw.Status, Err: raw.Err}
}

// GetTokenCounts reads getCurrentTokenCounts().
func (g *Gateway) GetTokenCounts(ctx context.Context) Result[model.TokenCounts] {
	return read(ctx, g, readSpec[model.TokenCounts]{
		op:  "read token counts",
		key: cache.Key("counts"),
		ttl: g.ttl.Counts,
		fetch: func(ctx context.Context) (model.TokenCounts, error) {
			vals, err := g.call(ctx, g.addrs.ArtistToken, &g.abis.ArtistToken, "getCurrentTokenCounts")
			if err != nil {
				return model.TokenCounts{}, err
			}
			o := outputs{method: "getCurrentTokenCounts", vals: vals}
			return model.TokenCounts{
				Artists:  o.bigInt(0),
				Songs:    o.bigInt(1),
				Catalogs: o.bigInt(2),
				Licenses: o.bigInt(3),
			}, o.err
		},
		clone: model.TokenCounts.Clone,
	})
}

// GetArtistIDByWallet reads artistIdByWallet(wallet). The result is
// StatusEmpty when the wallet has no artist registration.
func (g *Gateway) GetArtistIDByWallet(ctx context.Context, wallet common.Address) Result[*big.Int] {
	return read(ctx, g, readSpec[*big.Int]{
		op:  "read artist id by wallet",
		key: cache.Key("artistByWallet", wallet),
		ttl: g.ttl.Artist,
		fetch: func(ctx context.Context) (*big.Int, error) {
			return g.uint256(ctx, g.addrs.ArtistToken, &g.abis.ArtistToken, "artistIdByWallet", wallet)
		},
		empty:    func(v *big.Int) bool { return v.Sign() == 0 },
		clone:    cloneBig,
		fallback: zeroBig,
		fields:   []zap.Field{zap.Stringer("wallet", wallet)},
	})
}

// GetArtistSongs reads getArtistSongs(artistID): the artist's song token ids.
func (g *Gateway) GetArtistSongs(ctx context.Context, artistID *big.Int) Result[[]*big.Int] {
	return read(ctx, g, readSpec[[]*big.Int]{
		op:  "read artist songs",
		key: cache.Key("artistSongs", artistID),
		ttl: g.ttl.Artist,
		fetch: func(ctx context.Context) ([]*big.Int, error) {
			vals, err := g.call(ctx, g.addrs.ArtistToken, &g.abis.ArtistToken, "getArtistSongs", artistID)
			if err != nil {
				return nil, err
			}
			o := outputs{method: "getArtistSongs", vals: vals}
			return o.bigInts(0), o.err
		},
		clone:  cloneBigs,
		fields: []zap.Field{zap.Stringer("artistId", artistID)},
	})
}

// GetArtistCatalog reads every song of an artist concurrently. Songs that
// no longer exist are skipped; any failed song read fails the whole result.
func (g *Gateway) GetArtistCatalog(ctx context.Context, artistID *big.Int) Result[[]model.SongRecord] {
	ids := g.GetArtistSongs(ctx, artistID)
	if !ids.OK() {
		return Result[[]model.SongRecord]{Status: ids.Status, Err: ids.Err}
	}

	songs := make([]model.SongRecord, len(ids.Value))
	found := make([]bool, len(ids.Value))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(catalogFanOut)
	for i, id := range ids.Value {
		i, id := i, id
		eg.Go(func() error {
			res := g.GetSong(ectx, id)
			switch res.Status {
			case StatusOK:
				songs[i], found[i] = res.Value, true
			case StatusUnavailable:
				return fmt.Errorf("song %s: %w", id, res.Err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Result[[]model.SongRecord]{Status: StatusUnavailable, Err: err}
	}

	out := make([]model.SongRecord, 0, len(songs))
	for i, s := range songs {
		if found[i] {
			out = append(out, s)
		}
	}
	return Result[[]model.SongRecord]{Value: out, Status: StatusOK}
}

// GetLPBalance reads getLPBalance(tokenID, provider).
func (g *Gateway) GetLPBalance(ctx context.Context, tokenID *big.Int, provider common.Address) Result[*big.Int] {
	return read(ctx, g, readSpec[*big.Int]{
		op:  "read LP balance",
		key: cache.Key("lp", tokenID, provider),
		ttl: g.ttl.Balance,
		fetch: func(ctx context.Context) (*big.Int, error) {
			return g.uint256(ctx, g.addrs.DEX, &g.abis.DEX, "getLPBalance", tokenID, provider)
		},
		clone:    cloneBig,
		fallback: zeroBig,
		fields:   []zap.Field{zap.Stringer("tokenId", tokenID), zap.Stringer("provider", provider)},
	})
}

// GetRoyaltyPoolInfo reads getRoyaltyPoolInfo(tokenID).
func (g *Gateway) GetRoyaltyPoolInfo(ctx context.Context, tokenID *big.Int) Result[model.RoyaltyPoolRecord] {
	return read(ctx, g, readSpec[model.RoyaltyPoolRecord]{
		op:  "read royalty pool",
		key: cache.Key("royaltyPool", tokenID),
		ttl: g.ttl.Royalties,
		fetch: func(ctx context.Context) (model.RoyaltyPoolRecord, error) {
			vals, err := g.call(ctx, g.addrs.Royalties, &g.abis.Royalties, "getRoyaltyPoolInfo", tokenID)
			if err != nil {
				return model.RoyaltyPoolRecord{}, err
			}
			o := outputs{method: "getRoyaltyPoolInfo", vals: vals}
			return model.RoyaltyPoolRecord{
				TotalReceived:   o.bigInt(0),
				ArtistClaimed:   o.bigInt(1),
				HoldersClaimed:  o.bigInt(2),
				PlatformClaimed: o.bigInt(3),
				Undistributed:   o.bigInt(4),
			}, o.err
		},
		clone:  model.RoyaltyPoolRecord.Clone,
		fields: []zap.Field{zap.Stringer("tokenId", tokenID)},
	})
}

// IsPaused reads paused() on the token contract. Not cached.
func (g *Gateway) IsPaused(ctx context.Context) Result[bool] {
	return read(ctx, g, readSpec[bool]{
		op: "read paused",
		fetch: func(ctx context.Context) (bool, error) {
			vals, err := g.call(ctx, g.addrs.ArtistToken, &g.abis.ArtistToken, "paused")
			if err != nil {
				return false, err
			}
			o := outputs{method: "paused", vals: vals}
			return o.boolean(0), o.err
		},
	})
}

// GetNativeBalance reads the base-currency balance of addr.
func (g *Gateway) GetNativeBalance(ctx context.Context, addr common.Address) Result[*big.Int] {
	return read(ctx, g, readSpec[*big.Int]{
		op:  "read native balance",
		key: cache.Key("native", addr),
		ttl: g.ttl.Balance,
		fetch: func(ctx context.Context) (*big.Int, error) {
			var out hexutil.Big
			if err := g.rpc.Call(ctx, &out, "eth_getBalance", addr, "latest"); err != nil {
				return nil, err
			}
			return out.ToInt(), nil
		},
		clone:    cloneBig,
		fallback: zeroBig,
		fields:   []zap.Field{zap.Stringer("address", addr)},
	})
}

// Invalidate drops every cached read a write touching tokenID by holder
// may have changed.
func (g *Gateway) Invalidate(tokenID *big.Int, holder common.Address) {
	g.cache.Invalidate(cache.Key("pool", tokenID))
	g.cache.Invalidate(cache.Key("song", contracts.SongTokenID(tokenID)))
	g.cache.Invalidate(cache.Key("balance", tokenID, holder))
	g.cache.Invalidate(cache.Key("lp", tokenID, holder))
	g.cache.Invalidate(cache.Key("royalties", tokenID, holder))
	g.cache.Invalidate(cache.Key("royaltyPool", tokenID))
	g.cache.Invalidate(cache.Key("native", holder))
}

func (g *Gateway) uint256(ctx context.Context, to common.Address, contract *abi.ABI, method string, args ...any) (*big.Int, error) {
	vals, err := g.call(ctx, to, contract, method, args...)
	if err != nil {
		return nil, err
	}
	o := outputs{method: method, vals: vals}
	return o.bigInt(0), o.err
}

func cloneBigs(in []*big.Int) []*big.Int {
	out := make([]*big.Int, len(in))
	for i, v := range in {
		out[i] = cloneBig(v)
	}
	return out
}
