// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fee computes swap, composition and protocol fees. Fees are 1e18
// fixed-point rates capped at lbmath.MaxFee, and every fee a user pays is
// rounded up.
package fee

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/luxfi/lbpair/lbmath"
)

var (
	ErrFeeTooLarge           = errors.New("fee: fee too large")
	ErrProtocolShareTooLarge = errors.New("fee: protocol share too large")
)

func verifyFee(fee *uint256.Int) error {
	if fee.Gt(lbmath.MaxFee) {
		return fmt.Errorf("%w: %s", ErrFeeTooLarge, fee.Dec())
	}
	return nil
}

// GetFeeAmountFrom returns the fee included in amountWithFees:
// ceil(amountWithFees * totalFee / 1e18).
func GetFeeAmountFrom(amountWithFees, totalFee *uint256.Int) (*uint256.Int, error) {
	if err := verifyFee(totalFee); err != nil {
		return nil, err
	}
	return lbmath.MulDivRoundUp(amountWithFees, totalFee, lbmath.Precision)
}

// GetFeeAmount returns the fee to add on top of amount so that the fee is
// totalFee of the sum: ceil(amount * totalFee / (1e18 - totalFee)).
func GetFeeAmount(amount, totalFee *uint256.Int) (*uint256.Int, error) {
	if err := verifyFee(totalFee); err != nil {
		return nil, err
	}
	denominator := new(uint256.Int).Sub(lbmath.Precision, totalFee)
	return lbmath.MulDivRoundUp(amount, totalFee, denominator)
}

// GetCompositionFee returns the fee charged on the imbalanced part of a
// deposit into the active bin:
// amountWithFees * totalFee * (totalFee + 1e18) / 1e36.
func GetCompositionFee(amountWithFees, totalFee *uint256.Int) (*uint256.Int, error) {
	if err := verifyFee(totalFee); err != nil {
		return nil, err
	}
	rate := new(uint256.Int).Add(totalFee, lbmath.Precision)
	rate.Mul(rate, totalFee)
	return lbmath.MulDivRoundDown(amountWithFees, rate, lbmath.SquaredPrecision)
}

// GetProtocolFeeAmount returns feeAmount * protocolShare / 10000.
func GetProtocolFeeAmount(feeAmount *uint256.Int, protocolShare uint64) (*uint256.Int, error) {
	if protocolShare > lbmath.MaxProtocolShare {
		return nil, fmt.Errorf("%w: %d", ErrProtocolShareTooLarge, protocolShare)
	}
	return lbmath.MulDivRoundDown(feeAmount, uint256.NewInt(protocolShare), uint256.NewInt(lbmath.BasisPointMax))
}
