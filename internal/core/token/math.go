package token

import (
	"github.com/holiman/uint256"
)

// seedReflected returns the genesis reflected supply for a true supply:
// the largest multiple of supply not exceeding 2^128. Keeping the seed at
// 128 bits guarantees every rate product stays below 2^192 and never
// overflows a uint256.
func seedReflected(supply uint64) *uint256.Int {
	// 2^128 - (2^128 mod supply)
	max128 := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	rem := new(uint256.Int).Mod(max128, uint256.NewInt(supply))
	return max128.Sub(max128, rem)
}

// toReflected converts a true amount into reflected units at the current
// rate rTotal/denom. roundUp selects ceiling division; debits round up so
// an account is never charged fewer reflected units than its true amount
// is worth, credits round down so an account never receives more.
func toReflected(amount uint64, rTotal *uint256.Int, denom uint64, roundUp bool) (*uint256.Int, error) {
	if denom == 0 {
		return nil, ErrArithmetic
	}
	num, overflow := new(uint256.Int).MulOverflow(rTotal, uint256.NewInt(amount))
	if overflow {
		return nil, ErrArithmetic
	}
	d := uint256.NewInt(denom)
	q, rem := new(uint256.Int).DivMod(num, d, new(uint256.Int))
	if roundUp && !rem.IsZero() {
		q.AddUint64(q, 1)
	}
	return q, nil
}

// toTrue converts a reflected amount back to true units at the current
// rate, rounding down.
func toTrue(r *uint256.Int, rTotal *uint256.Int, denom uint64) (uint64, error) {
	if rTotal.IsZero() {
		return 0, ErrArithmetic
	}
	num, overflow := new(uint256.Int).MulOverflow(r, uint256.NewInt(denom))
	if overflow {
		return 0, ErrArithmetic
	}
	q := new(uint256.Int).Div(num, rTotal)
	if !q.IsUint64() {
		return 0, ErrArithmetic
	}
	return q.Uint64(), nil
}

// bpsOf computes amount * bps / 10000 without intermediate overflow,
// rounding down.
func bpsOf(amount uint64, bps uint32) uint64 {
	b := uint64(bps)
	return amount/10000*b + amount%10000*b/10000
}
