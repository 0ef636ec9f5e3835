package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/boostify/btf2300-sdk-go/pkg/cache"
	"github.com/boostify/btf2300-sdk-go/pkg/config"
	"github.com/boostify/btf2300-sdk-go/pkg/contracts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is carried by StatusEmpty results.
	ErrNotFound = errors.New("not found")
	// ErrDecode is returned when a contract answer cannot be decoded, most
	// often because no contract is deployed at the configured address.
	ErrDecode = errors.New("decode contract response")
	// ErrInvalidArgument is returned for reads called with a nil id or
	// amount.
	ErrInvalidArgument = errors.New("invalid argument")
)

// RPC executes one JSON-RPC request. *rpcpool.Pool implements it.
type RPC interface {
	Call(ctx context.Context, result any, method string, args ...any) error
}

// Status tags a read result.
type Status int

const (
	// StatusOK means Value holds live or cached chain data.
	StatusOK Status = iota
	// StatusEmpty means the chain answered and the record does not exist.
	StatusEmpty
	// StatusUnavailable means the read failed; Value is the sentinel.
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	default:
		return "unavailable"
	}
}

// Result is what every accessor returns. Err carries the diagnostic for
// StatusEmpty and StatusUnavailable and is nil otherwise.
type Result[T any] struct {
	Value  T
	Status Status
	Err    error
}

// OK reports whether Value holds real data.
func (r Result[T]) OK() bool {
	return r.Status == StatusOK
}

// Gateway reads BTF-2300 contract state. It is safe for concurrent use.
type Gateway struct {
	rpc   RPC
	cache *cache.Cache
	abis  *contracts.ABIs
	addrs contracts.Addresses
	ttl   config.CacheTTL
}

// NewGateway wires a Gateway. ttl zero values fall back to the
// config.CacheTTL defaults.
func NewGateway(rpc RPC, c *cache.Cache, addrs contracts.Addresses, ttl config.CacheTTL) (*Gateway, error) {
	if rpc == nil {
		return nil, errors.New("rpc is required")
	}
	if c == nil {
		return nil, errors.New("cache is required")
	}
	abis, err := contracts.LoadABIs()
	if err != nil {
		return nil, err
	}
	return &Gateway{rpc: rpc, cache: c, abis: abis, addrs: addrs, ttl: ttl.WithDefaults()}, nil
}

// Addresses returns the contract addresses the gateway reads from.
func (g *Gateway) Addresses() contracts.Addresses {
	return g.addrs
}

// ABIs returns the parsed contract interfaces.
func (g *Gateway) ABIs() *contracts.ABIs {
	return g.abis
}

// CacheStats exposes the read cache counters.
func (g *Gateway) CacheStats() cache.Stats {
	return g.cache.Stats()
}

// callArgs is the eth_call transaction object.
type callArgs struct {
	From  *common.Address `json:"from,omitempty"`
	To    *common.Address `json:"to"`
	Data  hexutil.Bytes   `json:"data,omitempty"`
	Value *hexutil.Big    `json:"value,omitempty"`
}

// call packs method with args, runs eth_call against the latest block and
// unpacks the outputs.
func (g *Gateway) call(ctx context.Context, to common.Address, contract *abi.ABI, method string, args ...any) ([]any, error) {
	for i, a := range args {
		if v, ok := a.(*big.Int); ok && v == nil {
			return nil, fmt.Errorf("%w: %s argument %d is nil", ErrInvalidArgument, method, i)
		}
	}
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	var out hexutil.Bytes
	if err := g.rpc.Call(ctx, &out, "eth_call", callArgs{To: &to, Data: data}, "latest"); err != nil {
		return nil, fmt.Errorf("eth_call %s: %w", method, err)
	}
	if len(out) == 0 && len(contract.Methods[method].Outputs) > 0 {
		return nil, fmt.Errorf("%w: %s returned no data from %s", ErrDecode, method, to.Hex())
	}
	vals, err := contract.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, method, err)
	}
	return vals, nil
}

// readSpec describes one cached read. ttl zero disables caching.
type readSpec[T any] struct {
	op       string
	key      string
	ttl      time.Duration
	fetch    func(context.Context) (T, error)
	empty    func(T) bool
	clone    func(T) T
	fallback func() T
	fields   []zap.Field
}

// read runs spec through the cache and turns the outcome into a Result.
// Empty values are not cached so that newly created records show up
// without waiting for a TTL.
func read[T any](ctx context.Context, g *Gateway, spec readSpec[T]) Result[T] {
	fetch := spec.fetch
	if spec.empty != nil {
		fetch = func(ctx context.Context) (T, error) {
			v, err := spec.fetch(ctx)
			if err == nil && spec.empty(v) {
				return v, cache.ErrSkipStore
			}
			return v, err
		}
	}

	var (
		v   T
		err error
	)
	if spec.ttl > 0 {
		v, err = cache.GetOrCompute(ctx, g.cache, spec.key, spec.ttl, fetch)
	} else {
		v, err = fetch(ctx)
		if errors.Is(err, cache.ErrSkipStore) {
			err = nil
		}
	}

	if err != nil {
		zap.L().Error("Failed to "+spec.op, append(spec.fields, zap.Error(err))...)
		var sentinel T
		if spec.fallback != nil {
			sentinel = spec.fallback()
		}
		return Result[T]{Value: sentinel, Status: StatusUnavailable, Err: err}
	}
	if spec.clone != nil {
		v = spec.clone(v)
	}
	if spec.empty != nil && spec.empty(v) {
		return Result[T]{Value: v, Status: StatusEmpty, Err: fmt.Errorf("%s: %w", spec.op, ErrNotFound)}
	}
	return Result[T]{Value: v, Status: StatusOK}
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

func zeroBig() *big.Int { return new(big.Int) }
