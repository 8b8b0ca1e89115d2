// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package lbmath implements the fixed-point arithmetic used by the Liquidity
// Book engine: 256-bit multiply/divide with an explicit rounding direction,
// shift-based scaling, and log2/pow on unsigned 128.128 binary fixed-point
// numbers.
//
// Every division exists in a round-down and a round-up variant. Amounts a user
// receives are always rounded down, amounts a user pays are always rounded up.
// Overflow is never wrapped: it is returned as an error.
package lbmath

import (
	"errors"

	"github.com/holiman/uint256"
)

// Fixed-point scale and protocol-wide constants
const (
	// ScaleOffset is the number of fractional bits of a 128.128 price.
	ScaleOffset = 128

	// BasisPointMax is 100% expressed in basis points.
	BasisPointMax = 10_000

	// MaxProtocolShare caps the protocol share of fees at 25%.
	MaxProtocolShare = 2_500

	// RealIDShift is the bin id of the 1:1 price.
	RealIDShift = 1 << 23

	// MaxBinID is the largest valid 24-bit bin id.
	MaxBinID = 1<<24 - 1
)

var (
	// Scale is 1.0 in 128.128 fixed point.
	Scale = new(uint256.Int).Lsh(uint256.NewInt(1), ScaleOffset)

	// Precision is 1.0 in 1e18 fixed point, used for fees and distributions.
	Precision = uint256.NewInt(1e18)

	// SquaredPrecision is Precision^2.
	SquaredPrecision = new(uint256.Int).Mul(Precision, Precision)

	// MaxFee is the largest total fee a swap can be charged (10%).
	MaxFee = uint256.NewInt(1e17)

	// MaxLiquidityPerBin bounds price*x + y<<128 for a single bin so that
	// share and amount computations on the bin can never overflow.
	MaxLiquidityPerBin = uint256.MustFromDecimal("65251743116719673010965625540244653191619923014385985379600384103134737")

	// MaxUint128 is 2^128 - 1.
	MaxUint128 = new(uint256.Int).Sub(Scale, uint256.NewInt(1))

	// MaxUint256 is 2^256 - 1.
	MaxUint256 = new(uint256.Int).SetAllOne()
)

// Errors
var (
	ErrMulDivOverflow   = errors.New("lbmath: mul div overflow")
	ErrMulShiftOverflow = errors.New("lbmath: mul shift overflow")
	ErrDivisionByZero   = errors.New("lbmath: division by zero")
	ErrInvalidOffset    = errors.New("lbmath: shift offset out of range")
	ErrLogUnderflow     = errors.New("lbmath: log underflow")
	ErrPowUnderflow     = errors.New("lbmath: pow underflow")
)
