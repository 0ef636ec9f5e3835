package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// FailedTxID is the transaction id reported when a write fails before a
// transaction hash exists.
const FailedTxID = "0x0"

// ArtistRecord is the on-chain artist registration. An ArtistID of zero means
// the artist is not registered.
type ArtistRecord struct {
	ArtistID      *big.Int       `json:"artistId"`
	Wallet        common.Address `json:"walletAddress"`
	Name          string         `json:"artistName"`
	ProfileURI    string         `json:"profileURI"`
	TotalEarnings *big.Int       `json:"totalEarnings"`
	TotalSongs    *big.Int       `json:"totalSongs"`
	Verified      bool           `json:"isVerified"`
	Active        bool           `json:"isActive"`
	RegisteredAt  time.Time      `json:"registeredAt"`
}

// Clone returns a deep copy so callers can never alias cached integers.
func (a ArtistRecord) Clone() ArtistRecord {
	a.ArtistID = cloneInt(a.ArtistID)
	a.TotalEarnings = cloneInt(a.TotalEarnings)
	a.TotalSongs = cloneInt(a.TotalSongs)
	return a
}

// SongRecord is the on-chain song token. A TokenID of zero means the song
// does not exist.
type SongRecord struct {
	TokenID         *big.Int  `json:"tokenId"`
	ArtistID        *big.Int  `json:"artistId"`
	Title           string    `json:"title"`
	MetadataURI     string    `json:"metadataURI"`
	TotalSupply     *big.Int  `json:"totalSupply"`
	AvailableSupply *big.Int  `json:"availableSupply"`
	PricePerToken   *big.Int  `json:"pricePerToken"`
	Active          bool      `json:"isActive"`
	TotalEarnings   *big.Int  `json:"totalEarnings"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (s SongRecord) Clone() SongRecord {
	s.TokenID = cloneInt(s.TokenID)
	s.ArtistID = cloneInt(s.ArtistID)
	s.TotalSupply = cloneInt(s.TotalSupply)
	s.AvailableSupply = cloneInt(s.AvailableSupply)
	s.PricePerToken = cloneInt(s.PricePerToken)
	s.TotalEarnings = cloneInt(s.TotalEarnings)
	return s
}

// PoolRecord is the state of a constant-product pool pairing a token with
// the chain's base currency.
type PoolRecord struct {
	TokenReserve   *big.Int `json:"tokenReserve"`
	BaseReserve    *big.Int `json:"ethReserve"`
	TotalLPTokens  *big.Int `json:"totalLPTokens"`
	FeeAccumulated *big.Int `json:"feeAccumulated"`
	Active         bool     `json:"isActive"`
}

func (p PoolRecord) Clone() PoolRecord {
	p.TokenReserve = cloneInt(p.TokenReserve)
	p.BaseReserve = cloneInt(p.BaseReserve)
	p.TotalLPTokens = cloneInt(p.TotalLPTokens)
	p.FeeAccumulated = cloneInt(p.FeeAccumulated)
	return p
}

// Initialized reports whether the pool ever received liquidity.
func (p PoolRecord) Initialized() bool {
	return p.Active || isPositive(p.TokenReserve) || isPositive(p.BaseReserve)
}

// TokenCounts holds the number of minted ids per namespace.
type TokenCounts struct {
	Artists  *big.Int `json:"artists"`
	Songs    *big.Int `json:"songs"`
	Catalogs *big.Int `json:"catalogs"`
	Licenses *big.Int `json:"licenses"`
}

func (c TokenCounts) Clone() TokenCounts {
	c.Artists = cloneInt(c.Artists)
	c.Songs = cloneInt(c.Songs)
	c.Catalogs = cloneInt(c.Catalogs)
	c.Licenses = cloneInt(c.Licenses)
	return c
}

// RoyaltyPoolRecord summarises royalty flows for one token.
type RoyaltyPoolRecord struct {
	TotalReceived   *big.Int `json:"totalReceived"`
	ArtistClaimed   *big.Int `json:"artistClaimed"`
	HoldersClaimed  *big.Int `json:"holdersClaimed"`
	PlatformClaimed *big.Int `json:"platformClaimed"`
	Undistributed   *big.Int `json:"undistributed"`
}

func (r RoyaltyPoolRecord) Clone() RoyaltyPoolRecord {
	r.TotalReceived = cloneInt(r.TotalReceived)
	r.ArtistClaimed = cloneInt(r.ArtistClaimed)
	r.HoldersClaimed = cloneInt(r.HoldersClaimed)
	r.PlatformClaimed = cloneInt(r.PlatformClaimed)
	r.Undistributed = cloneInt(r.Undistributed)
	return r
}

// TransactionResult is the outcome of every write operation. ID is the
// transaction hash, or FailedTxID when nothing was submitted.
type TransactionResult struct {
	Success      bool   `json:"success"`
	ID           string `json:"id"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Failed builds an unsuccessful result. An empty id is replaced by FailedTxID.
func Failed(id string, msg string) TransactionResult {
	if id == "" {
		id = FailedTxID
	}
	return TransactionResult{ID: id, ErrorMessage: msg}
}

// TokenMetadata is the ERC-1155 style JSON document referenced by
// profileURI and metadataURI.
type TokenMetadata struct {
	Name         string      `json:"name"`
	Description  string      `json:"description,omitempty"`
	Image        string      `json:"image,omitempty"`
	AnimationURL string      `json:"animation_url,omitempty"`
	ExternalURL  string      `json:"external_url,omitempty"`
	Attributes   []Attribute `json:"attributes,omitempty"`
}

// Attribute is one trait of a metadata document.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// Clone returns a copy whose Attributes do not share storage with m.
func (m TokenMetadata) Clone() TokenMetadata {
	if m.Attributes != nil {
		m.Attributes = append([]Attribute(nil), m.Attributes...)
	}
	return m
}

// Trait returns the value of the named attribute.
func (m *TokenMetadata) Trait(name string) (any, bool) {
	for _, a := range m.Attributes {
		if a.TraitType == name {
			return a.Value, true
		}
	}
	return nil, false
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func isPositive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}
