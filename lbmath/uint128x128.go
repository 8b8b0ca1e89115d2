// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lbmath

import (
	"math/big"

	"github.com/holiman/uint256"
)

const (
	logScaleOffset = 127
	maxPowExponent = 0x100000
)

var (
	logScale        = new(uint256.Int).Lsh(uint256.NewInt(1), logScaleOffset)
	logScaleSquared = new(uint256.Int).Lsh(uint256.NewInt(1), 2*logScaleOffset)
	twoLogScale     = new(uint256.Int).Lsh(uint256.NewInt(1), logScaleOffset+1)
)

// Log2 returns the binary logarithm of a 128.128 fixed-point number as a
// signed 128.128 fixed-point number.
//
// The integer part comes from the most significant bit, the fractional part
// from iterative squaring with 127 fractional bits of precision.
func Log2(x *uint256.Int) (*big.Int, error) {
	if x.IsZero() {
		return nil, ErrLogUnderflow
	}
	if x.IsUint64() && x.Uint64() == 1 {
		return new(big.Int).Lsh(big.NewInt(-ScaleOffset), ScaleOffset), nil
	}

	// Work in 129.127 so that the squares below never overflow.
	v := new(uint256.Int).Rsh(x, 1)

	negative := false
	if v.Lt(logScale) {
		negative = true
		v.Div(logScaleSquared, v)
	}

	n := MostSignificantBit(new(uint256.Int).Rsh(v, logScaleOffset))
	result := new(big.Int).Lsh(big.NewInt(int64(n)), logScaleOffset)
	y := new(uint256.Int).Rsh(v, n)

	if !y.Eq(logScale) {
		delta := new(big.Int).Lsh(big.NewInt(1), logScaleOffset-1)
		for delta.Sign() > 0 {
			y.Mul(y, y)
			y.Rsh(y, logScaleOffset)
			if !y.Lt(twoLogScale) {
				result.Add(result, delta)
				y.Rsh(y, 1)
			}
			delta.Rsh(delta, 1)
		}
	}

	if negative {
		result.Neg(result)
	}
	return result.Lsh(result, 1), nil
}

// Pow returns x^y where x is a 128.128 fixed-point number. Exponents are
// limited to |y| < 2^20, which covers every bin id offset.
func Pow(x *uint256.Int, y int64) (*uint256.Int, error) {
	if y == 0 {
		return new(uint256.Int).Set(Scale), nil
	}

	invert := y < 0
	absY := uint64(y)
	if invert {
		absY = uint64(-y)
	}
	if absY >= maxPowExponent {
		return nil, ErrPowUnderflow
	}

	squared := new(uint256.Int).Set(x)
	if squared.Gt(MaxUint128) {
		squared.Div(MaxUint256, squared)
		invert = !invert
	}

	result := new(uint256.Int).Set(Scale)
	for bit := uint(0); bit < 20; bit++ {
		if absY&(1<<bit) != 0 {
			result.Mul(result, squared)
			result.Rsh(result, ScaleOffset)
		}
		squared.Mul(squared, squared)
		squared.Rsh(squared, ScaleOffset)
	}

	if result.IsZero() {
		return nil, ErrPowUnderflow
	}
	if invert {
		return new(uint256.Int).Div(MaxUint256, result), nil
	}
	return result, nil
}
