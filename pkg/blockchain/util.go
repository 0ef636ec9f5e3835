package blockchain

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Decimals is the precision of the base currency and of every BTF-2300
// amount expressed in base units.
const Decimals = 18

// GetAddressFromPrivateKeyECDSA derives the Ethereum address from the given
// ECDSA private key. It returns nil if the key is nil or its public part cannot
// be asserted to *ecdsa.PublicKey.
func GetAddressFromPrivateKeyECDSA(privateKeyECDSA *ecdsa.PrivateKey) *common.Address {
	if privateKeyECDSA == nil {
		return nil
	}
	publicKeyECDSA, ok := privateKeyECDSA.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil
	}
	addr := crypto.PubkeyToAddress(*publicKeyECDSA)
	return &addr
}

// ToBaseUnits converts a base-currency amount to base units (amount * 10^18).
//
// Supported input types for iamount: string, float64, int64, int,
// decimal.Decimal, *decimal.Decimal. Negative amounts and amounts with more
// than 18 fractional digits are rejected.
func ToBaseUnits(iamount any) (*big.Int, error) {
	var amount decimal.Decimal
	switch v := iamount.(type) {
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			zap.L().Error("Failed to convert string to decimal", zap.String("amount", v), zap.Error(err))
			return nil, fmt.Errorf("invalid amount %q: %w", v, err)
		}
		amount = d
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid amount %v", v)
		}
		amount = decimal.NewFromFloat(v)
	case int64:
		amount = decimal.NewFromInt(v)
	case int:
		amount = decimal.NewFromInt(int64(v))
	case decimal.Decimal:
		amount = v
	case *decimal.Decimal:
		if v == nil {
			return nil, errors.New("nil amount")
		}
		amount = *v
	default:
		return nil, fmt.Errorf("unsupported amount type %T", iamount)
	}

	if amount.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative, got %s", amount)
	}
	units := amount.Shift(Decimals)
	if !units.IsInteger() {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, Decimals)
	}
	return units.BigInt(), nil
}

// FromBaseUnits converts base units to a base-currency decimal. nil is zero.
func FromBaseUnits(value *big.Int) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -Decimals)
}
