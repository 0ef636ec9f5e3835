package sdk

import (
	"context"
	"math/big"

	"github.com/boostify/btf2300-sdk-go/pkg/blockchain"
	"github.com/boostify/btf2300-sdk-go/pkg/cache"
	"github.com/boostify/btf2300-sdk-go/pkg/model"
	"go.uber.org/zap"
)

// ArtistProfile is an artist record with its profile document.
type ArtistProfile struct {
	Artist  model.ArtistRecord   `json:"artist"`
	Profile *model.TokenMetadata `json:"profile,omitempty"`
}

// SongDetails is a song record with its metadata document.
type SongDetails struct {
	Song     model.SongRecord     `json:"song"`
	Metadata *model.TokenMetadata `json:"metadata,omitempty"`
}

// GetArtistProfile reads the artist and resolves its profileURI. A profile
// that cannot be fetched leaves Profile nil; the status only reflects the
// on-chain record.
func (c *Client) GetArtistProfile(ctx context.Context, artistID *big.Int) blockchain.Result[ArtistProfile] {
	res := c.GetArtist(ctx, artistID)
	out := blockchain.Result[ArtistProfile]{Value: ArtistProfile{Artist: res.Value}, Status: res.Status, Err: res.Err}
	if res.OK() {
		out.Value.Profile = c.metadata(ctx, res.Value.ProfileURI)
	}
	return out
}

// GetSongMetadata reads the song and resolves its metadataURI.
func (c *Client) GetSongMetadata(ctx context.Context, id *big.Int) blockchain.Result[SongDetails] {
	res := c.GetSong(ctx, id)
	out := blockchain.Result[SongDetails]{Value: SongDetails{Song: res.Value}, Status: res.Status, Err: res.Err}
	if res.OK() {
		out.Value.Metadata = c.metadata(ctx, res.Value.MetadataURI)
	}
	return out
}

// metadata fetches and caches the document at uri and returns a private
// copy. Failures are logged and yield nil.
func (c *Client) metadata(ctx context.Context, uri string) *model.TokenMetadata {
	if uri == "" {
		return nil
	}
	md, err := cache.GetOrCompute(ctx, c.cache, cache.Key("metadata", uri), c.cfg.CacheTTL.Metadata,
		func(ctx context.Context) (model.TokenMetadata, error) {
			return c.storage.ReadMetadata(ctx, uri)
		})
	if err != nil {
		zap.L().Error("Failed to resolve metadata", zap.String("uri", uri), zap.Error(err))
		return nil
	}
	md = md.Clone()
	return &md
}
