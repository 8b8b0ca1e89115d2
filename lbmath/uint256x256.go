// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lbmath

import (
	"github.com/holiman/uint256"
)

// MulDivRoundDown returns floor(x * y / denominator) computed with a 512-bit
// intermediate product.
func MulDivRoundDown(x, y, denominator *uint256.Int) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, ErrDivisionByZero
	}
	result, overflow := new(uint256.Int).MulDivOverflow(x, y, denominator)
	if overflow {
		return nil, ErrMulDivOverflow
	}
	return result, nil
}

// MulDivRoundUp returns ceil(x * y / denominator).
func MulDivRoundUp(x, y, denominator *uint256.Int) (*uint256.Int, error) {
	result, err := MulDivRoundDown(x, y, denominator)
	if err != nil {
		return nil, err
	}
	if !new(uint256.Int).MulMod(x, y, denominator).IsZero() {
		return increment(result, ErrMulDivOverflow)
	}
	return result, nil
}

// MulShiftRoundDown returns floor(x * y / 2^offset).
func MulShiftRoundDown(x, y *uint256.Int, offset uint) (*uint256.Int, error) {
	if offset >= 256 {
		return nil, ErrInvalidOffset
	}
	denominator := new(uint256.Int).Lsh(uint256.NewInt(1), offset)
	result, overflow := new(uint256.Int).MulDivOverflow(x, y, denominator)
	if overflow {
		return nil, ErrMulShiftOverflow
	}
	return result, nil
}

// MulShiftRoundUp returns ceil(x * y / 2^offset).
func MulShiftRoundUp(x, y *uint256.Int, offset uint) (*uint256.Int, error) {
	result, err := MulShiftRoundDown(x, y, offset)
	if err != nil {
		return nil, err
	}
	denominator := new(uint256.Int).Lsh(uint256.NewInt(1), offset)
	if !new(uint256.Int).MulMod(x, y, denominator).IsZero() {
		return increment(result, ErrMulShiftOverflow)
	}
	return result, nil
}

// ShiftDivRoundDown returns floor(x * 2^offset / y).
func ShiftDivRoundDown(x *uint256.Int, offset uint, y *uint256.Int) (*uint256.Int, error) {
	if offset >= 256 {
		return nil, ErrInvalidOffset
	}
	numerator := new(uint256.Int).Lsh(uint256.NewInt(1), offset)
	return MulDivRoundDown(x, numerator, y)
}

// ShiftDivRoundUp returns ceil(x * 2^offset / y).
func ShiftDivRoundUp(x *uint256.Int, offset uint, y *uint256.Int) (*uint256.Int, error) {
	if offset >= 256 {
		return nil, ErrInvalidOffset
	}
	numerator := new(uint256.Int).Lsh(uint256.NewInt(1), offset)
	return MulDivRoundUp(x, numerator, y)
}

func increment(x *uint256.Int, overflowErr error) (*uint256.Int, error) {
	result, overflow := new(uint256.Int).AddOverflow(x, uint256.NewInt(1))
	if overflow {
		return nil, overflowErr
	}
	return result, nil
}
