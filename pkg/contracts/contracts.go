// Package contracts carries the BTF-2300 contract ABIs and the per-chain
// deployment address book. Both are embedded in the binary so the SDK has no
// runtime dependency on generated bindings.
package contracts

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

//go:embed abi/*.json
var abiFS embed.FS

//go:embed networks.json
var networksJSON []byte

// ErrUnsupportedChain is returned by Resolve when no usable deployment is
// known for the requested chain and no override was supplied.
var ErrUnsupportedChain = errors.New("no BTF-2300 deployment for chain")

// Addresses holds the three contract addresses of one deployment.
type Addresses struct {
	ArtistToken common.Address `json:"artistToken" yaml:"artist_token" mapstructure:"artist_token"`
	DEX         common.Address `json:"dex" yaml:"dex" mapstructure:"dex"`
	Royalties   common.Address `json:"royalties" yaml:"royalties" mapstructure:"royalties"`
}

// Complete reports whether every address is set.
func (a Addresses) Complete() bool {
	zero := common.Address{}
	return a.ArtistToken != zero && a.DEX != zero && a.Royalties != zero
}

// ABIs groups the parsed contract interfaces.
type ABIs struct {
	ArtistToken abi.ABI
	DEX         abi.ABI
	Royalties   abi.ABI
}

var loadABIs = sync.OnceValues(func() (*ABIs, error) {
	var out ABIs
	for name, dst := range map[string]*abi.ABI{
		"ArtistToken": &out.ArtistToken,
		"DEX":         &out.DEX,
		"Royalties":   &out.Royalties,
	} {
		raw, err := abiFS.ReadFile("abi/" + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("read %s abi: %w", name, err)
		}
		parsed, err := abi.JSON(strings.NewReader(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("parse %s abi: %w", name, err)
		}
		*dst = parsed
	}
	return &out, nil
})

// LoadABIs parses the embedded ABIs. The result is computed once and shared;
// callers must not mutate it.
func LoadABIs() (*ABIs, error) {
	return loadABIs()
}

var loadBook = sync.OnceValues(func() (map[uint64]Addresses, error) {
	var raw map[string]Addresses
	if err := json.Unmarshal(networksJSON, &raw); err != nil {
		return nil, fmt.Errorf("decode address book: %w", err)
	}
	book := make(map[uint64]Addresses, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("address book key %q: %w", k, err)
		}
		book[id] = v
	}
	return book, nil
})

// Known returns the embedded deployment for chainID, including placeholder
// (all-zero) entries for chains the contracts are not yet deployed on.
func Known(chainID uint64) (Addresses, bool) {
	book, err := loadBook()
	if err != nil {
		return Addresses{}, false
	}
	a, ok := book[chainID]
	return a, ok
}

// Resolve picks the deployment for chainID. A complete override always wins.
// Chains that are unknown or only carry placeholder addresses yield
// ErrUnsupportedChain rather than silently pointing at another network.
func Resolve(chainID uint64, override *Addresses) (Addresses, error) {
	if override != nil {
		if !override.Complete() {
			return Addresses{}, fmt.Errorf("contract override for chain %d is incomplete", chainID)
		}
		return *override, nil
	}
	a, ok := Known(chainID)
	if !ok || !a.Complete() {
		return Addresses{}, fmt.Errorf("%w %d", ErrUnsupportedChain, chainID)
	}
	return a, nil
}
