// Package quote computes constant-product pool quotes locally.
//
// All amounts are integers: the base currency in base units (18 decimals)
// and tokens in whole ERC-1155 units. Divisions floor, so a local quote
// never promises more than the pool contract pays out.
package quote

import (
	"math"
	"math/big"

	"github.com/boostify/btf2300-sdk-go/pkg/blockchain"
	"github.com/boostify/btf2300-sdk-go/pkg/model"
	"github.com/shopspring/decimal"
)

// MaxFeeBps is the exclusive upper bound for a pool fee.
const MaxFeeBps = 10_000

// divisionPrecision is the number of decimal places kept by price and
// impact divisions.
const divisionPrecision = 18

var (
	bps     = big.NewInt(MaxFeeBps)
	hundred = decimal.NewFromInt(100)
)

// Output returns the amount a constant-product pool pays for amountIn:
//
//	floor(in*(10000-fee)*reserveOut / (reserveIn*10000 + in*(10000-fee)))
//
// The result is zero when any input is non-positive or feeBps is not below
// MaxFeeBps. It never decreases as amountIn grows and is always strictly
// below reserveOut.
func Output(amountIn, reserveIn, reserveOut *big.Int, feeBps uint) *big.Int {
	if !positive(amountIn) || !positive(reserveIn) || !positive(reserveOut) || feeBps >= MaxFeeBps {
		return new(big.Int)
	}
	inWithFee := new(big.Int).Mul(amountIn, big.NewInt(int64(MaxFeeBps-feeBps)))
	num := new(big.Int).Mul(inWithFee, reserveOut)
	den := new(big.Int).Mul(reserveIn, bps)
	den.Add(den, inWithFee)
	return num.Quo(num, den)
}

// TokensOut quotes the tokens bought with baseIn.
func TokensOut(pool model.PoolRecord, baseIn *big.Int, feeBps uint) *big.Int {
	return Output(baseIn, pool.BaseReserve, pool.TokenReserve, feeBps)
}

// BaseOut quotes the base currency received for tokenIn.
func BaseOut(pool model.PoolRecord, tokenIn *big.Int, feeBps uint) *big.Int {
	return Output(tokenIn, pool.TokenReserve, pool.BaseReserve, feeBps)
}

// MinOut applies a slippage tolerance to a quote:
//
//	floor(quoted * (1 - slippagePct/100))
//
// Negative and NaN tolerances count as zero; tolerances of 100 or more give zero.
func MinOut(quoted *big.Int, slippagePct float64) *big.Int {
	if !positive(quoted) {
		return new(big.Int)
	}
	if math.IsNaN(slippagePct) || slippagePct <= 0 {
		return new(big.Int).Set(quoted)
	}
	if slippagePct >= 100 {
		return new(big.Int)
	}
	keep := hundred.Sub(decimal.NewFromFloat(slippagePct)).Div(hundred)
	return decimal.NewFromBigInt(quoted, 0).Mul(keep).Floor().BigInt()
}

// SpotPrice is the marginal price of one token in base currency, ignoring
// fees. It is zero for an empty pool.
func SpotPrice(pool model.PoolRecord) decimal.Decimal {
	if !positive(pool.TokenReserve) || !positive(pool.BaseReserve) {
		return decimal.Zero
	}
	return blockchain.FromBaseUnits(pool.BaseReserve).
		DivRound(decimal.NewFromBigInt(pool.TokenReserve, 0), divisionPrecision)
}

// PriceImpact is the percentage by which the execution price of buying
// with baseIn falls short of the spot price, fee included. It is zero when
// nothing would be received.
func PriceImpact(pool model.PoolRecord, baseIn *big.Int, feeBps uint) decimal.Decimal {
	out := TokensOut(pool, baseIn, feeBps)
	if out.Sign() == 0 {
		return decimal.Zero
	}
	// effective/spot = (out/baseIn) / (tokenReserve/baseReserve)
	num := decimal.NewFromBigInt(new(big.Int).Mul(out, pool.BaseReserve), 0)
	den := decimal.NewFromBigInt(new(big.Int).Mul(baseIn, pool.TokenReserve), 0)
	ratio := num.DivRound(den, divisionPrecision)
	return decimal.NewFromInt(1).Sub(ratio).Mul(hundred)
}

// LiquidityBaseFor returns the base currency to deposit alongside
// tokenAmount so the pool ratio is kept, rounded up. It is zero for an
// empty pool, where the first provider sets the price.
func LiquidityBaseFor(pool model.PoolRecord, tokenAmount *big.Int) *big.Int {
	if !positive(tokenAmount) || !positive(pool.TokenReserve) || !positive(pool.BaseReserve) {
		return new(big.Int)
	}
	num := new(big.Int).Mul(tokenAmount, pool.BaseReserve)
	q, r := new(big.Int).QuoRem(num, pool.TokenReserve, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

func positive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}
