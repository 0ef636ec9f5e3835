package contracts

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestLoadABIs(t *testing.T) {
	abis, err := LoadABIs()
	require.NoError(t, err)

	for _, name := range []string{"artists", "songs", "balanceOf", "getCurrentTokenCounts", "buyTokens", "paused"} {
		_, ok := abis.ArtistToken.Methods[name]
		require.Truef(t, ok, "ArtistToken missing %s", name)
	}
	for _, name := range []string{"getPoolInfo", "getExpectedTokensOut", "getExpectedEthOut", "buyTokens", "sellTokens", "addLiquidity", "removeLiquidity"} {
		_, ok := abis.DEX.Methods[name]
		require.Truef(t, ok, "DEX missing %s", name)
	}
	_, ok := abis.Royalties.Methods["claimHolderRoyalties"]
	require.True(t, ok)
	require.True(t, abis.DEX.Methods["buyTokens"].IsPayable())
	require.Len(t, abis.ArtistToken.Methods["songs"].Outputs, 10)
}

func TestResolve(t *testing.T) {
	a, err := Resolve(137, nil)
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0xdDcB670fA7eedc85Da3923beDca8dfe225f7146E"), a.DEX)

	_, err = Resolve(80002, nil)
	require.True(t, errors.Is(err, ErrUnsupportedChain), "placeholder deployment must not resolve")

	_, err = Resolve(1, nil)
	require.ErrorIs(t, err, ErrUnsupportedChain)

	override := &Addresses{
		ArtistToken: common.HexToAddress("0x01"),
		DEX:         common.HexToAddress("0x02"),
		Royalties:   common.HexToAddress("0x03"),
	}
	a, err = Resolve(31337, override)
	require.NoError(t, err)
	require.Equal(t, *override, a)

	_, err = Resolve(31337, &Addresses{DEX: common.HexToAddress("0x02")})
	require.Error(t, err)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		id   int64
		want Kind
	}{
		{0, KindUnknown},
		{42, KindUnknown},
		{1_000_000_001, KindArtist},
		{2_000_000_000, KindSong},
		{3_000_000_005, KindCatalog},
		{4_000_000_000, KindLicense},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			require.Equal(t, tt.want, KindOf(big.NewInt(tt.id)))
		})
	}
}

func TestSongTokenID(t *testing.T) {
	require.Equal(t, "2000000007", SongTokenID(big.NewInt(7)).String())
	require.Equal(t, "2000000007", SongTokenID(big.NewInt(2_000_000_007)).String())
	require.Equal(t, "2000000000", SongTokenID(nil).String())
}
