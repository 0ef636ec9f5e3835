// Package wallet manages the signing session for write operations: it makes
// sure a wallet provider is present, has an unlocked account and is on the
// target network, switching or adding the network when needed.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrWalletUnavailable means no provider is injected or it exposes no
	// account.
	ErrWalletUnavailable = errors.New("wallet unavailable")
	// ErrNetworkSwitchRejected means the provider refused to switch to or
	// add the target network.
	ErrNetworkSwitchRejected = errors.New("network switch rejected")
)

// EIP-1193 provider error codes.
const (
	CodeUserRejected      = 4001
	CodeUnsupportedMethod = 4200
	CodeChainDisconnected = 4901
	CodeUnrecognizedChain = 4902
)

// ProviderError is an error reported by a wallet provider.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// HasCode reports whether err is a ProviderError with code.
func HasCode(err error, code int) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == code
}

// NativeCurrency is the wallet_addEthereumChain currency object.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// AddChainParams is the wallet_addEthereumChain parameter object.
type AddChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

// CallSpec is a contract call to sign and submit.
type CallSpec struct {
	From    common.Address
	To      common.Address
	Data    []byte
	Value   *big.Int
	ChainID uint64
}

// Provider is the wallet capability the SDK needs. Browser wallets are
// bridged to it by the embedding application; KeyedProvider implements it
// with a local key.
type Provider interface {
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	ChainID(ctx context.Context) (uint64, error)
	SwitchChain(ctx context.Context, chainID uint64) error
	AddChain(ctx context.Context, params AddChainParams) error
	SignAndSend(ctx context.Context, call CallSpec) (common.Hash, error)
}
