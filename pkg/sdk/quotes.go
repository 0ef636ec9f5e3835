package sdk

import (
	"context"
	"math/big"

	"github.com/boostify/btf2300-sdk-go/pkg/blockchain"
	"github.com/boostify/btf2300-sdk-go/pkg/quote"
	"github.com/shopspring/decimal"
)

// Quote is a local constant-product estimate against the cached pool
// state. The on-chain quote (GetExpectedTokensOut / GetExpectedBaseOut)
// stays authoritative.
type Quote struct {
	AmountIn     *big.Int        `json:"amountIn"`
	AmountOut    *big.Int        `json:"amountOut"`
	MinAmountOut *big.Int        `json:"minAmountOut"`
	SpotPrice    decimal.Decimal `json:"spotPrice"`
	PriceImpact  decimal.Decimal `json:"priceImpact"`
}

// QuoteBuy estimates the tokens baseIn buys, with the configured fee and
// slippage tolerance. The status is the pool read's status.
func (c *Client) QuoteBuy(ctx context.Context, tokenID, baseIn *big.Int) blockchain.Result[Quote] {
	pool := c.GetPoolInfo(ctx, tokenID)
	q := Quote{AmountIn: baseIn, AmountOut: new(big.Int), MinAmountOut: new(big.Int)}
	if pool.OK() {
		q.AmountOut = quote.TokensOut(pool.Value, baseIn, c.cfg.PoolFeeBps)
		q.MinAmountOut = quote.MinOut(q.AmountOut, c.cfg.SlippagePercent)
		q.SpotPrice = quote.SpotPrice(pool.Value)
		q.PriceImpact = quote.PriceImpact(pool.Value, baseIn, c.cfg.PoolFeeBps)
	}
	return blockchain.Result[Quote]{Value: q, Status: pool.Status, Err: pool.Err}
}

// QuoteSell estimates the base currency tokenIn sells for.
func (c *Client) QuoteSell(ctx context.Context, tokenID, tokenIn *big.Int) blockchain.Result[Quote] {
	pool := c.GetPoolInfo(ctx, tokenID)
	q := Quote{AmountIn: tokenIn, AmountOut: new(big.Int), MinAmountOut: new(big.Int)}
	if pool.OK() {
		q.AmountOut = quote.BaseOut(pool.Value, tokenIn, c.cfg.PoolFeeBps)
		q.MinAmountOut = quote.MinOut(q.AmountOut, c.cfg.SlippagePercent)
		q.SpotPrice = quote.SpotPrice(pool.Value)
	}
	return blockchain.Result[Quote]{Value: q, Status: pool.Status, Err: pool.Err}
}

// LiquidityFor returns the base currency to pair with tokenAmount when
// adding liquidity at the current pool ratio.
func (c *Client) LiquidityFor(ctx context.Context, tokenID, tokenAmount *big.Int) blockchain.Result[*big.Int] {
	pool := c.GetPoolInfo(ctx, tokenID)
	v := new(big.Int)
	if pool.OK() {
		v = quote.LiquidityBaseFor(pool.Value, tokenAmount)
	}
	return blockchain.Result[*big.Int]{Value: v, Status: pool.Status, Err: pool.Err}
}
