package blockchain

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// outputs reads positional ABI outputs, remembering the first mismatch.
type outputs struct {
	method string
	vals   []any
	err    error
}

func (o *outputs) at(i int) any {
	if o.err != nil {
		return nil
	}
	if i >= len(o.vals) {
		o.err = fmt.Errorf("%w: %s: missing output %d", ErrDecode, o.method, i)
		return nil
	}
	return o.vals[i]
}

func (o *outputs) mismatch(i int, want string) {
	if o.err == nil {
		o.err = fmt.Errorf("%w: %s: output %d is %T, want %s", ErrDecode, o.method, i, o.vals[i], want)
	}
}

func (o *outputs) bigInt(i int) *big.Int {
	v := o.at(i)
	if o.err != nil {
		return new(big.Int)
	}
	b, ok := v.(*big.Int)
	if !ok {
		o.mismatch(i, "*big.Int")
		return new(big.Int)
	}
	return b
}

func (o *outputs) address(i int) common.Address {
	v := o.at(i)
	if o.err != nil {
		return common.Address{}
	}
	a, ok := v.(common.Address)
	if !ok {
		o.mismatch(i, "common.Address")
	}
	return a
}

func (o *outputs) str(i int) string {
	v := o.at(i)
	if o.err != nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		o.mismatch(i, "string")
	}
	return s
}

func (o *outputs) boolean(i int) bool {
	v := o.at(i)
	if o.err != nil {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		o.mismatch(i, "bool")
	}
	return b
}

func (o *outputs) bigInts(i int) []*big.Int {
	v := o.at(i)
	if o.err != nil {
		return nil
	}
	s, ok := v.([]*big.Int)
	if !ok {
		o.mismatch(i, "[]*big.Int")
	}
	return s
}

// unix converts a uint256 timestamp; zero stays the zero time.
func (o *outputs) unix(i int) time.Time {
	v := o.bigInt(i)
	if v.Sign() == 0 || !v.IsInt64() {
		return time.Time{}
	}
	return time.Unix(v.Int64(), 0).UTC()
}
