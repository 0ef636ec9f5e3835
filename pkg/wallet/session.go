package wallet

import (
	"context"
	"fmt"

	"github.com/boostify/btf2300-sdk-go/pkg/config"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Signer is an account on the target network, ready to submit calls.
type Signer struct {
	Account  common.Address
	ChainID  uint64
	provider Provider
}

// SignAndSend submits call from the signer's account on its chain.
func (s *Signer) SignAndSend(ctx context.Context, call CallSpec) (common.Hash, error) {
	call.From = s.Account
	call.ChainID = s.ChainID
	return s.provider.SignAndSend(ctx, call)
}

// Session binds a provider to the target network.
type Session struct {
	provider Provider
	network  config.Network
}

// NewSession returns a Session for network. provider may be nil, in which
// case every EnsureSession fails with ErrWalletUnavailable.
func NewSession(provider Provider, network config.Network) *Session {
	return &Session{provider: provider, network: network}
}

// Network returns the target network.
func (s *Session) Network() config.Network {
	return s.network
}

// EnsureSession returns a Signer on the target network. It requests
// account access, then switches the provider to the target chain when it
// is on another one, adding the chain first if the provider does not know
// it. It never retries; a refusal surfaces as ErrNetworkSwitchRejected.
//
// The chain id is read on every call, so a session already on the right
// network never prompts.
func (s *Session) EnsureSession(ctx context.Context) (*Signer, error) {
	if s.provider == nil {
		return nil, ErrWalletUnavailable
	}

	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWalletUnavailable, err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: no accounts", ErrWalletUnavailable)
	}

	current, err := s.provider.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read chain id: %w", ErrWalletUnavailable, err)
	}
	if current != s.network.ChainID {
		if err := s.switchNetwork(ctx, current); err != nil {
			return nil, err
		}
	}

	return &Signer{Account: accounts[0], ChainID: s.network.ChainID, provider: s.provider}, nil
}

func (s *Session) switchNetwork(ctx context.Context, current uint64) error {
	target := s.network.ChainID
	zap.L().Debug("Switching wallet network", zap.Uint64("from", current), zap.Uint64("to", target))

	err := s.provider.SwitchChain(ctx, target)
	if HasCode(err, CodeUnrecognizedChain) {
		zap.L().Debug("Wallet does not know target network, adding it", zap.Uint64("chainId", target))
		if err := s.provider.AddChain(ctx, s.addChainParams()); err != nil {
			return fmt.Errorf("%w: add chain %d: %w", ErrNetworkSwitchRejected, target, err)
		}
		// Some wallets switch as part of adding, others do not.
		now, cerr := s.provider.ChainID(ctx)
		if cerr == nil && now == target {
			return nil
		}
		err = s.provider.SwitchChain(ctx, target)
	}
	if err != nil {
		return fmt.Errorf("%w: switch to chain %d: %w", ErrNetworkSwitchRejected, target, err)
	}

	now, err := s.provider.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("%w: read chain id: %w", ErrWalletUnavailable, err)
	}
	if now != target {
		return fmt.Errorf("%w: wallet still on chain %d", ErrNetworkSwitchRejected, now)
	}
	return nil
}

func (s *Session) addChainParams() AddChainParams {
	n := s.network
	p := AddChainParams{
		ChainID:   n.ChainIDHex(),
		ChainName: n.Name,
		NativeCurrency: NativeCurrency{
			Name:     n.Currency.Name,
			Symbol:   n.Currency.Symbol,
			Decimals: n.Currency.Decimals,
		},
		RPCURLs: append([]string(nil), n.RPCURLs...),
	}
	if n.ExplorerURL != "" {
		p.BlockExplorerURLs = []string{n.ExplorerURL}
	}
	return p
}
