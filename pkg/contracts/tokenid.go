package contracts

import "math/big"

// Token id namespaces. Every BTF-2300 token id is prefix + sequence number.
const (
	ArtistPrefix  uint64 = 1_000_000_000
	SongPrefix    uint64 = 2_000_000_000
	CatalogPrefix uint64 = 3_000_000_000
	LicensePrefix uint64 = 4_000_000_000
)

// Kind classifies a token id by its namespace.
type Kind int

const (
	KindUnknown Kind = iota
	KindArtist
	KindSong
	KindCatalog
	KindLicense
)

func (k Kind) String() string {
	switch k {
	case KindArtist:
		return "artist"
	case KindSong:
		return "song"
	case KindCatalog:
		return "catalog"
	case KindLicense:
		return "license"
	default:
		return "unknown"
	}
}

// KindOf returns the namespace id belongs to.
func KindOf(id *big.Int) Kind {
	if id == nil || id.Sign() <= 0 {
		return KindUnknown
	}
	if !id.IsUint64() {
		return KindLicense
	}
	v := id.Uint64()
	switch {
	case v >= LicensePrefix:
		return KindLicense
	case v >= CatalogPrefix:
		return KindCatalog
	case v >= SongPrefix:
		return KindSong
	case v >= ArtistPrefix:
		return KindArtist
	default:
		return KindUnknown
	}
}

// SongTokenID maps a song index or an already-prefixed song token id to the
// token id used on chain. Values below SongPrefix are treated as indexes.
func SongTokenID(id *big.Int) *big.Int {
	prefix := new(big.Int).SetUint64(SongPrefix)
	if id == nil {
		return prefix
	}
	if id.Cmp(prefix) < 0 {
		return prefix.Add(prefix, id)
	}
	return new(big.Int).Set(id)
}
