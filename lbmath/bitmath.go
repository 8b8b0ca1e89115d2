// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lbmath

import (
	"math/bits"

	"github.com/holiman/uint256"
)

// MostSignificantBit returns the index of the highest set bit of x.
// x must not be zero.
func MostSignificantBit(x *uint256.Int) uint {
	return uint(x.BitLen() - 1)
}

// LeastSignificantBit returns the index of the lowest set bit of x.
// x must not be zero.
func LeastSignificantBit(x *uint256.Int) uint {
	for i, limb := range x {
		if limb != 0 {
			return uint(i*64 + bits.TrailingZeros64(limb))
		}
	}
	return 256
}

// ClosestBitRight returns the highest set bit of x at or below bit.
func ClosestBitRight(x *uint256.Int, bit uint) (uint, bool) {
	shift := 255 - bit
	masked := new(uint256.Int).Lsh(x, shift)
	if masked.IsZero() {
		return 0, false
	}
	return MostSignificantBit(masked) - shift, true
}

// ClosestBitLeft returns the lowest set bit of x at or above bit.
func ClosestBitLeft(x *uint256.Int, bit uint) (uint, bool) {
	masked := new(uint256.Int).Rsh(x, bit)
	if masked.IsZero() {
		return 0, false
	}
	return LeastSignificantBit(masked) + bit, true
}
