package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/boostify/btf2300-sdk-go/pkg/blockchain"
	"github.com/boostify/btf2300-sdk-go/pkg/model"
	"github.com/boostify/btf2300-sdk-go/pkg/quote"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Base currency amounts (fields typed any) accept what
// blockchain.ToBaseUnits accepts: decimal strings, float64, int64, int
// and decimal.Decimal. Token amounts are whole units.

// BuyDirectParams buys newly issued tokens from the token contract.
type BuyDirectParams struct {
	TokenID *big.Int
	Amount  *big.Int
	// MaxPricePerToken caps the unit price in base currency. The attached
	// value is Amount * MaxPricePerToken.
	MaxPricePerToken any
}

// BuyFromPoolParams swaps base currency for tokens in the pool.
type BuyFromPoolParams struct {
	TokenID    *big.Int
	BaseAmount any
	// MinTokensOut is the expected output the slippage bound is applied
	// to. When nil, a live on-chain quote is fetched just before submission.
	MinTokensOut *big.Int
	// SlippagePercent overrides the configured tolerance.
	SlippagePercent *float64
}

// SellToPoolParams swaps tokens for base currency in the pool.
type SellToPoolParams struct {
	TokenID     *big.Int
	TokenAmount *big.Int
	// MinBaseOut is the expected base currency output. When nil or "", a
	// live on-chain quote is used.
	MinBaseOut      any
	SlippagePercent *float64
}

// AddLiquidityParams deposits tokens and base currency into the pool.
type AddLiquidityParams struct {
	TokenID     *big.Int
	TokenAmount *big.Int
	BaseAmount  any
	// MinLPTokens defaults to zero.
	MinLPTokens *big.Int
}

// RemoveLiquidityParams burns LP tokens for the underlying reserves.
type RemoveLiquidityParams struct {
	TokenID       *big.Int
	LPTokenAmount *big.Int
	MinTokens     *big.Int
	MinBaseOut    any
}

// BuyDirect buys tokens at the issuer price.
func (o *Orchestrator) BuyDirect(ctx context.Context, p BuyDirectParams) model.TransactionResult {
	return o.run(ctx, OpBuyDirect, p.TokenID, func(ctx context.Context) (call, error) {
		if err := requirePositive("token id", p.TokenID); err != nil {
			return call{}, err
		}
		if err := requirePositive("amount", p.Amount); err != nil {
			return call{}, err
		}
		price, err := blockchain.ToBaseUnits(p.MaxPricePerToken)
		if err != nil {
			return call{}, fmt.Errorf("max price per token: %w", err)
		}
		value := new(big.Int).Mul(price, p.Amount)
		abis := o.chain.ABIs()
		return o.pack(o.chain.Addresses().ArtistToken, &abis.ArtistToken, value,
			"buyTokens", p.TokenID, p.Amount, price, o.deadline())
	})
}

// BuyFromPool buys tokens from the pool with BaseAmount attached.
func (o *Orchestrator) BuyFromPool(ctx context.Context, p BuyFromPoolParams) model.TransactionResult {
	return o.run(ctx, OpBuyFromPool, p.TokenID, func(ctx context.Context) (call, error) {
		if err := requirePositive("token id", p.TokenID); err != nil {
			return call{}, err
		}
		slippage, err := o.slippageOr(p.SlippagePercent)
		if err != nil {
			return call{}, err
		}
		value, err := blockchain.ToBaseUnits(p.BaseAmount)
		if err != nil {
			return call{}, fmt.Errorf("base amount: %w", err)
		}
		if value.Sign() == 0 {
			return call{}, errors.New("base amount must be positive")
		}
		expected := p.MinTokensOut
		if expected == nil {
			if expected, err = liveQuote(o.chain.GetExpectedTokensOut(ctx, p.TokenID, value)); err != nil {
				return call{}, err
			}
		}
		abis := o.chain.ABIs()
		return o.pack(o.chain.Addresses().DEX, &abis.DEX, value,
			"buyTokens", p.TokenID, quote.MinOut(expected, slippage), o.deadline())
	})
}

// SellToPool sells TokenAmount tokens to the pool.
func (o *Orchestrator) SellToPool(ctx context.Context, p SellToPoolParams) model.TransactionResult {
	return o.run(ctx, OpSellToPool, p.TokenID, func(ctx context.Context) (call, error) {
		if err := requirePositive("token id", p.TokenID); err != nil {
			return call{}, err
		}
		if err := requirePositive("token amount", p.TokenAmount); err != nil {
			return call{}, err
		}
		slippage, err := o.slippageOr(p.SlippagePercent)
		if err != nil {
			return call{}, err
		}
		var expected *big.Int
		if isUnset(p.MinBaseOut) {
			if expected, err = liveQuote(o.chain.GetExpectedBaseOut(ctx, p.TokenID, p.TokenAmount)); err != nil {
				return call{}, err
			}
		} else if expected, err = blockchain.ToBaseUnits(p.MinBaseOut); err != nil {
			return call{}, fmt.Errorf("min base out: %w", err)
		}
		abis := o.chain.ABIs()
		return o.pack(o.chain.Addresses().DEX, &abis.DEX, nil,
			"sellTokens", p.TokenID, p.TokenAmount, quote.MinOut(expected, slippage), o.deadline())
	})
}

// AddLiquidity deposits TokenAmount tokens and BaseAmount base currency.
func (o *Orchestrator) AddLiquidity(ctx context.Context, p AddLiquidityParams) model.TransactionResult {
	return o.run(ctx, OpAddLiquidity, p.TokenID, func(ctx context.Context) (call, error) {
		if err := requirePositive("token id", p.TokenID); err != nil {
			return call{}, err
		}
		if err := requirePositive("token amount", p.TokenAmount); err != nil {
			return call{}, err
		}
		value, err := blockchain.ToBaseUnits(p.BaseAmount)
		if err != nil {
			return call{}, fmt.Errorf("base amount: %w", err)
		}
		if value.Sign() == 0 {
			return call{}, errors.New("base amount must be positive")
		}
		minLP := p.MinLPTokens
		if minLP == nil {
			minLP = new(big.Int)
		}
		abis := o.chain.ABIs()
		return o.pack(o.chain.Addresses().DEX, &abis.DEX, value,
			"addLiquidity", p.TokenID, p.TokenAmount, minLP, o.deadline())
	})
}

// RemoveLiquidity burns LPTokenAmount LP tokens.
func (o *Orchestrator) RemoveLiquidity(ctx context.Context, p RemoveLiquidityParams) model.TransactionResult {
	return o.run(ctx, OpRemoveLiquidity, p.TokenID, func(ctx context.Context) (call, error) {
		if err := requirePositive("token id", p.TokenID); err != nil {
			return call{}, err
		}
		if err := requirePositive("LP token amount", p.LPTokenAmount); err != nil {
			return call{}, err
		}
		minTokens := p.MinTokens
		if minTokens == nil {
			minTokens = new(big.Int)
		}
		minBase := new(big.Int)
		if !isUnset(p.MinBaseOut) {
			var err error
			if minBase, err = blockchain.ToBaseUnits(p.MinBaseOut); err != nil {
				return call{}, fmt.Errorf("min base out: %w", err)
			}
		}
		abis := o.chain.ABIs()
		return o.pack(o.chain.Addresses().DEX, &abis.DEX, nil,
			"removeLiquidity", p.TokenID, p.LPTokenAmount, minTokens, minBase, o.deadline())
	})
}

// ClaimRoyalties claims the holder share of royalties for tokenID.
func (o *Orchestrator) ClaimRoyalties(ctx context.Context, tokenID *big.Int) model.TransactionResult {
	return o.run(ctx, OpClaimRoyalties, tokenID, func(ctx context.Context) (call, error) {
		if err := requirePositive("token id", tokenID); err != nil {
			return call{}, err
		}
		abis := o.chain.ABIs()
		return o.pack(o.chain.Addresses().Royalties, &abis.Royalties, nil, "claimHolderRoyalties", tokenID)
	})
}

func (o *Orchestrator) pack(to common.Address, contract *abi.ABI, value *big.Int, method string, args ...any) (call, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return call{}, fmt.Errorf("encode %s: %w", method, err)
	}
	if value == nil {
		value = new(big.Int)
	}
	return call{to: to, data: data, value: value}, nil
}

// liveQuote turns an on-chain quote into the expected output.
func liveQuote(r blockchain.Result[*big.Int]) (*big.Int, error) {
	if r.Status == blockchain.StatusUnavailable {
		return nil, fmt.Errorf("pool quote unavailable: %w", r.Err)
	}
	if r.Value == nil || r.Value.Sign() == 0 {
		return nil, errors.New("pool quote is zero: no liquidity for this amount")
	}
	return r.Value, nil
}

func requirePositive(name string, v *big.Int) error {
	if v == nil || v.Sign() <= 0 {
		return fmt.Errorf("%s must be positive", name)
	}
	return nil
}

func isUnset(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
