// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package price converts between bin ids and 128.128 fixed-point prices.
//
// The price of bin id is (1 + binStep/10000)^(id - 2^23), so id 2^23 is the
// 1:1 price and every step up multiplies the price by the base.
package price

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/luxfi/lbpair/lbmath"
)

var ErrIDOverflow = errors.New("price: id overflow")

// decimalPlaces bounds the precision of display conversions.
const decimalPlaces = 18

var scaleDecimal = decimal.NewFromBigInt(lbmath.Scale.ToBig(), 0)

// Base returns 1 + binStep/10000 in 128.128.
func Base(binStep uint16) *uint256.Int {
	step := new(uint256.Int).Lsh(uint256.NewInt(uint64(binStep)), lbmath.ScaleOffset)
	step.Div(step, uint256.NewInt(lbmath.BasisPointMax))
	return step.Add(step, lbmath.Scale)
}

// Exponent returns the signed distance of id from the 1:1 bin.
func Exponent(id uint32) int64 {
	return int64(id) - lbmath.RealIDShift
}

// GetPriceFromID returns the 128.128 price of bin id.
func GetPriceFromID(id uint32, binStep uint16) (*uint256.Int, error) {
	if id > lbmath.MaxBinID {
		return nil, fmt.Errorf("%w: %d", ErrIDOverflow, id)
	}
	return lbmath.Pow(Base(binStep), Exponent(id))
}

// GetIDFromPrice returns the bin id whose price is closest to price,
// truncating toward the 1:1 bin. Rounding can make it one off the exact
// inverse of GetPriceFromID.
func GetIDFromPrice(price *uint256.Int, binStep uint16) (uint32, error) {
	logPrice, err := lbmath.Log2(price)
	if err != nil {
		return 0, err
	}
	logBase, err := lbmath.Log2(Base(binStep))
	if err != nil {
		return 0, err
	}
	if logBase.Sign() == 0 {
		return 0, fmt.Errorf("%w: bin step %d", ErrIDOverflow, binStep)
	}

	realID := new(big.Int).Quo(logPrice, logBase)
	id := realID.Add(realID, big.NewInt(lbmath.RealIDShift))
	if id.Sign() < 0 || id.Cmp(big.NewInt(lbmath.MaxBinID)) > 0 {
		return 0, fmt.Errorf("%w: %s", ErrIDOverflow, id)
	}
	return uint32(id.Uint64()), nil
}

// ConvertDecimalPriceTo128x128 turns a 1e18-scaled price into 128.128.
func ConvertDecimalPriceTo128x128(price *uint256.Int) (*uint256.Int, error) {
	return lbmath.ShiftDivRoundDown(price, lbmath.ScaleOffset, lbmath.Precision)
}

// Convert128x128PriceToDecimal turns a 128.128 price into a 1e18-scaled one.
func Convert128x128PriceToDecimal(price *uint256.Int) (*uint256.Int, error) {
	return lbmath.MulShiftRoundDown(price, lbmath.Precision, lbmath.ScaleOffset)
}

// ToDecimal renders a 128.128 price for display.
func ToDecimal(price *uint256.Int) decimal.Decimal {
	return decimal.NewFromBigInt(price.ToBig(), 0).DivRound(scaleDecimal, decimalPlaces)
}

// FromDecimal converts a display price into 128.128, truncating.
func FromDecimal(d decimal.Decimal) (*uint256.Int, error) {
	if d.IsNegative() {
		return nil, fmt.Errorf("price: negative price %s", d)
	}
	v, overflow := uint256.FromBig(d.Mul(scaleDecimal).BigInt())
	if overflow {
		return nil, fmt.Errorf("price: %s overflows", d)
	}
	return v, nil
}
