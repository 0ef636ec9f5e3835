package blockchain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// CallMsg describes a contract call for gas estimation.
type CallMsg struct {
	From  common.Address
	To    common.Address
	Data  []byte
	Value *big.Int
}

// ChainID returns the chain id reported by the node.
func (g *Gateway) ChainID(ctx context.Context) (uint64, error) {
	var id hexutil.Uint64
	if err := g.rpc.Call(ctx, &id, "eth_chainId"); err != nil {
		zap.L().Error("Failed to get chain ID", zap.Error(err))
		return 0, err
	}
	return uint64(id), nil
}

// TransactionReceipt returns the receipt of hash, or nil without error while
// the transaction is still pending. Receipts are never cached.
func (g *Gateway) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	var raw json.RawMessage
	if err := g.rpc.Call(ctx, &raw, "eth_getTransactionReceipt", hash); err != nil {
		return nil, err
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var r types.Receipt
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("%w: receipt %s: %w", ErrDecode, hash.Hex(), err)
	}
	return &r, nil
}

// PendingNonceAt returns the next nonce for account including pending
// transactions.
func (g *Gateway) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var nonce hexutil.Uint64
	if err := g.rpc.Call(ctx, &nonce, "eth_getTransactionCount", account, "pending"); err != nil {
		return 0, err
	}
	return uint64(nonce), nil
}

// SuggestGasPrice returns the node's legacy gas price suggestion.
func (g *Gateway) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	var price hexutil.Big
	if err := g.rpc.Call(ctx, &price, "eth_gasPrice"); err != nil {
		return nil, err
	}
	return price.ToInt(), nil
}

// EstimateGas asks the node how much gas msg needs. A reverting call fails
// here with the node's JSON-RPC error.
func (g *Gateway) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) {
	args := callArgs{From: &msg.From, To: &msg.To, Data: msg.Data}
	if msg.Value != nil && msg.Value.Sign() > 0 {
		args.Value = (*hexutil.Big)(msg.Value)
	}
	var gas hexutil.Uint64
	if err := g.rpc.Call(ctx, &gas, "eth_estimateGas", args); err != nil {
		return 0, err
	}
	return uint64(gas), nil
}

// SendTransaction submits a signed transaction and returns its hash.
func (g *Gateway) SendTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode transaction: %w", err)
	}
	var hash common.Hash
	if err := g.rpc.Call(ctx, &hash, "eth_sendRawTransaction", hexutil.Bytes(raw)); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}
