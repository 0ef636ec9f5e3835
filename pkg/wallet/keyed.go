package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/boostify/btf2300-sdk-go/pkg/blockchain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// Chain is what KeyedProvider needs from the node. *blockchain.Gateway
// implements it.
type Chain interface {
	ChainID(ctx context.Context) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg blockchain.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error)
}

// KeyedProvider is a Provider backed by a local ECDSA key, for server-side
// signing. It cannot switch networks: it signs for whatever chain the node
// reports. Submissions are serialized so nonces are assigned in order.
type KeyedProvider struct {
	key          *ecdsa.PrivateKey
	account      common.Address
	chain        Chain
	gasBufferPct uint64

	mu        sync.Mutex
	nextNonce uint64
	haveNonce bool
}

// NewKeyedProvider builds a provider signing with key. gasBufferPercent is
// added on top of every gas estimate.
func NewKeyedProvider(key *ecdsa.PrivateKey, chain Chain, gasBufferPercent uint) (*KeyedProvider, error) {
	if key == nil {
		return nil, errors.New("private key is required")
	}
	if chain == nil {
		return nil, errors.New("chain is required")
	}
	addr := blockchain.GetAddressFromPrivateKeyECDSA(key)
	if addr == nil {
		return nil, errors.New("failed to derive address from private key")
	}
	return &KeyedProvider{key: key, account: *addr, chain: chain, gasBufferPct: uint64(gasBufferPercent)}, nil
}

// Account returns the signing address.
func (p *KeyedProvider) Account() common.Address {
	return p.account
}

func (p *KeyedProvider) RequestAccounts(context.Context) ([]common.Address, error) {
	return []common.Address{p.account}, nil
}

func (p *KeyedProvider) ChainID(ctx context.Context) (uint64, error) {
	return p.chain.ChainID(ctx)
}

// SwitchChain succeeds only when the node already is on chainID.
func (p *KeyedProvider) SwitchChain(ctx context.Context, chainID uint64) error {
	current, err := p.chain.ChainID(ctx)
	if err != nil {
		return err
	}
	if current != chainID {
		return &ProviderError{Code: CodeChainDisconnected, Message: fmt.Sprintf("node serves chain %d, not %d", current, chainID)}
	}
	return nil
}

func (p *KeyedProvider) AddChain(context.Context, AddChainParams) error {
	return &ProviderError{Code: CodeUnsupportedMethod, Message: "keyed signer cannot add networks"}
}

// SignAndSend estimates gas, signs an EIP-155 transaction and submits it.
func (p *KeyedProvider) SignAndSend(ctx context.Context, call CallSpec) (common.Hash, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	chainID := call.ChainID
	if chainID == 0 {
		id, err := p.chain.ChainID(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("get chain id: %w", err)
		}
		chainID = id
	}

	nonce, err := p.chain.PendingNonceAt(ctx, p.account)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get nonce: %w", err)
	}
	if p.haveNonce && p.nextNonce > nonce {
		nonce = p.nextNonce
	}

	value := call.Value
	if value == nil {
		value = new(big.Int)
	}
	gas, err := p.chain.EstimateGas(ctx, blockchain.CallMsg{From: p.account, To: call.To, Data: call.Data, Value: value})
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
	}
	gas += gas * p.gasBufferPct / 100

	gasPrice, err := p.chain.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get gas price: %w", err)
	}

	to := call.To
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Value:    value,
		Data:     call.Data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(new(big.Int).SetUint64(chainID)), p.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}

	hash, err := p.chain.SendTransaction(ctx, signed)
	if err != nil {
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}
	p.nextNonce, p.haveNonce = nonce+1, true

	zap.L().Debug("Transaction submitted",
		zap.String("hash", hash.Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gas))
	return hash, nil
}
