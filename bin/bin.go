// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bin holds the per-bin accounting of the engine: liquidity and
// share computations for deposits and withdrawals, composition fees on
// deposits into the active bin, and the in/out/fee amounts of a swap
// through one bin.
package bin

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/luxfi/lbpair/fee"
	"github.com/luxfi/lbpair/lbmath"
	"github.com/luxfi/lbpair/packed"
	"github.com/luxfi/lbpair/params"
	"github.com/luxfi/lbpair/price"
)

var (
	ErrCompositionFactorFlawed    = errors.New("bin: composition factor flawed")
	ErrLiquidityOverflow          = errors.New("bin: liquidity overflow")
	ErrMaxLiquidityPerBinExceeded = errors.New("bin: max liquidity per bin exceeded")
)

// GetAmountOutOfBin returns the reserves redeemed by burning amountToBurn of
// totalSupply shares, rounded down.
func GetAmountOutOfBin(binReserves packed.Amounts, amountToBurn, totalSupply *uint256.Int) (packed.Amounts, error) {
	var out packed.Amounts
	if !binReserves.X.IsZero() {
		x, err := lbmath.MulDivRoundDown(amountToBurn, binReserves.XInt(), totalSupply)
		if err != nil {
			return packed.Amounts{}, err
		}
		if out.X, err = packed.ToUint128(x); err != nil {
			return packed.Amounts{}, err
		}
	}
	if !binReserves.Y.IsZero() {
		y, err := lbmath.MulDivRoundDown(amountToBurn, binReserves.YInt(), totalSupply)
		if err != nil {
			return packed.Amounts{}, err
		}
		if out.Y, err = packed.ToUint128(y); err != nil {
			return packed.Amounts{}, err
		}
	}
	return out, nil
}

// GetLiquidity returns price * x + y * 2^128, the value of the amounts
// in units of Y scaled by 2^128.
func GetLiquidity(amounts packed.Amounts, p *uint256.Int) (*uint256.Int, error) {
	liquidity := new(uint256.Int)
	if !amounts.X.IsZero() {
		var overflow bool
		if liquidity, overflow = new(uint256.Int).MulOverflow(amounts.XInt(), p); overflow {
			return nil, ErrLiquidityOverflow
		}
	}
	if !amounts.Y.IsZero() {
		y := new(uint256.Int).Lsh(amounts.YInt(), lbmath.ScaleOffset)
		var overflow bool
		if liquidity, overflow = new(uint256.Int).AddOverflow(liquidity, y); overflow {
			return nil, ErrLiquidityOverflow
		}
	}
	return liquidity, nil
}

// checkLiquidityCap rejects bins whose liquidity exceeds MaxLiquidityPerBin.
func checkLiquidityCap(binReserves packed.Amounts, p *uint256.Int) error {
	liquidity, err := GetLiquidity(binReserves, p)
	if err != nil {
		return err
	}
	if liquidity.Gt(lbmath.MaxLiquidityPerBin) {
		return ErrMaxLiquidityPerBinExceeded
	}
	return nil
}

// GetSharesAndEffectiveAmountsIn returns the shares minted for depositing
// amountsIn into a bin and the part of amountsIn actually absorbed. The
// absorbed amounts never exceed what the shares are worth, trimming Y first.
// An empty bin mints shares 1:1 with liquidity.
func GetSharesAndEffectiveAmountsIn(binReserves, amountsIn packed.Amounts, p, totalSupply *uint256.Int) (*uint256.Int, packed.Amounts, error) {
	userLiquidity, err := GetLiquidity(amountsIn, p)
	if err != nil {
		return nil, packed.Amounts{}, err
	}

	shares := userLiquidity
	effective := amountsIn
	if !totalSupply.IsZero() && !userLiquidity.IsZero() {
		binLiquidity, err := GetLiquidity(binReserves, p)
		if err != nil {
			return nil, packed.Amounts{}, err
		}
		if !binLiquidity.IsZero() {
			shares, effective, err = proportionalShares(amountsIn, p, totalSupply, userLiquidity, binLiquidity)
			if err != nil {
				return nil, packed.Amounts{}, err
			}
		}
	}

	total, err := binReserves.Add(effective)
	if err != nil {
		return nil, packed.Amounts{}, err
	}
	if err := checkLiquidityCap(total, p); err != nil {
		return nil, packed.Amounts{}, err
	}
	return shares, effective, nil
}

func proportionalShares(amountsIn packed.Amounts, p, totalSupply, userLiquidity, binLiquidity *uint256.Int) (*uint256.Int, packed.Amounts, error) {
	shares, err := lbmath.MulDivRoundDown(userLiquidity, totalSupply, binLiquidity)
	if err != nil {
		return nil, packed.Amounts{}, err
	}
	effectiveLiquidity, err := lbmath.MulDivRoundUp(shares, binLiquidity, totalSupply)
	if err != nil {
		return nil, packed.Amounts{}, err
	}
	if !userLiquidity.Gt(effectiveLiquidity) {
		return shares, amountsIn, nil
	}

	delta := new(uint256.Int).Sub(userLiquidity, effectiveLiquidity)
	x, y := amountsIn.XInt(), amountsIn.YInt()
	if !delta.Lt(lbmath.Scale) {
		deltaY := new(uint256.Int).Rsh(delta, lbmath.ScaleOffset)
		if deltaY.Gt(y) {
			deltaY.Set(y)
		}
		y.Sub(y, deltaY)
		delta.Sub(delta, deltaY.Lsh(deltaY, lbmath.ScaleOffset))
	}
	if !delta.Lt(p) {
		deltaX := new(uint256.Int).Div(delta, p)
		if deltaX.Gt(x) {
			deltaX.Set(x)
		}
		x.Sub(x, deltaX)
	}

	effective, err := packed.AmountsFromUint256(x, y)
	if err != nil {
		return nil, packed.Amounts{}, err
	}
	return shares, effective, nil
}

// VerifyAmounts checks that a deposit only adds Y below the active bin and
// only X above it.
func VerifyAmounts(amounts packed.Amounts, activeID, id uint32) error {
	if (id < activeID && !amounts.X.IsZero()) || (id > activeID && !amounts.Y.IsZero()) {
		return fmt.Errorf("%w: id=%d active=%d", ErrCompositionFactorFlawed, id, activeID)
	}
	return nil
}

// GetCompositionFees returns the fee charged for the implicit swap of a
// deposit into the active bin whose ratio differs from the bin's. The fee is
// taken on the side the depositor would have sold.
func GetCompositionFees(binReserves packed.Amounts, totalFee *uint256.Int, amountsIn packed.Amounts, totalSupply, shares *uint256.Int) (packed.Amounts, error) {
	if shares.IsZero() {
		return packed.Amounts{}, nil
	}

	reserves, err := binReserves.Add(amountsIn)
	if err != nil {
		return packed.Amounts{}, err
	}
	supply, overflow := new(uint256.Int).AddOverflow(totalSupply, shares)
	if overflow {
		return packed.Amounts{}, ErrLiquidityOverflow
	}
	received, err := GetAmountOutOfBin(reserves, shares, supply)
	if err != nil {
		return packed.Amounts{}, err
	}

	switch {
	case received.X.Cmp(amountsIn.X) > 0:
		feeY, err := excessFee(amountsIn.YInt(), received.YInt(), totalFee)
		if err != nil {
			return packed.Amounts{}, err
		}
		return packed.AmountsFromUint256(new(uint256.Int), feeY)
	case received.Y.Cmp(amountsIn.Y) > 0:
		feeX, err := excessFee(amountsIn.XInt(), received.XInt(), totalFee)
		if err != nil {
			return packed.Amounts{}, err
		}
		return packed.AmountsFromUint256(feeX, new(uint256.Int))
	}
	return packed.Amounts{}, nil
}

// excessFee charges the composition fee on deposited - received.
func excessFee(deposited, received, totalFee *uint256.Int) (*uint256.Int, error) {
	excess, underflow := new(uint256.Int).SubOverflow(deposited, received)
	if underflow {
		return nil, fmt.Errorf("%w: received %s of %s", ErrCompositionFactorFlawed, received.Dec(), deposited.Dec())
	}
	return fee.GetCompositionFee(excess, totalFee)
}

// IsEmpty reports whether the bin holds none of token X (x) or token Y (!x).
func IsEmpty(binReserves packed.Amounts, x bool) bool {
	return binReserves.Get(x).IsZero()
}

// SwapAmounts is the outcome of swapping through one bin.
type SwapAmounts struct {
	InWithFees packed.Amounts
	OutOfBin   packed.Amounts
	TotalFees  packed.Amounts
}

// GetAmounts fills as much of amountsInLeft as the bin at activeID can
// absorb. What the swapper pays is rounded up, what the bin gives is rounded
// down.
func GetAmounts(binReserves packed.Amounts, p *params.Parameters, binStep uint16, swapForY bool, activeID uint32, amountsInLeft packed.Amounts) (SwapAmounts, error) {
	binPrice, err := price.GetPriceFromID(activeID, binStep)
	if err != nil {
		return SwapAmounts{}, err
	}

	reserveOut := packed.ToUint256(binReserves.Get(!swapForY))
	var maxIn *uint256.Int
	if swapForY {
		maxIn, err = lbmath.ShiftDivRoundUp(reserveOut, lbmath.ScaleOffset, binPrice)
	} else {
		maxIn, err = lbmath.MulShiftRoundUp(reserveOut, binPrice, lbmath.ScaleOffset)
	}
	if err != nil {
		return SwapAmounts{}, err
	}
	if _, err := packed.ToUint128(maxIn); err != nil {
		return SwapAmounts{}, err
	}

	totalFee := p.TotalFee(binStep)
	maxFee, err := fee.GetFeeAmount(maxIn, totalFee)
	if err != nil {
		return SwapAmounts{}, err
	}
	maxIn.Add(maxIn, maxFee)

	amountIn := packed.ToUint256(amountsInLeft.Get(swapForY))
	var feeAmount, amountOut *uint256.Int
	if !amountIn.Lt(maxIn) {
		feeAmount = maxFee
		amountIn = maxIn
		amountOut = reserveOut
	} else {
		feeAmount, err = fee.GetFeeAmountFrom(amountIn, totalFee)
		if err != nil {
			return SwapAmounts{}, err
		}
		net := new(uint256.Int).Sub(amountIn, feeAmount)
		if swapForY {
			amountOut, err = lbmath.MulShiftRoundDown(net, binPrice, lbmath.ScaleOffset)
		} else {
			amountOut, err = lbmath.ShiftDivRoundDown(net, lbmath.ScaleOffset, binPrice)
		}
		if err != nil {
			return SwapAmounts{}, err
		}
		if amountOut.Gt(reserveOut) {
			amountOut = reserveOut
		}
	}

	in, err := oneSided(amountIn, swapForY)
	if err != nil {
		return SwapAmounts{}, err
	}
	out, err := oneSided(amountOut, !swapForY)
	if err != nil {
		return SwapAmounts{}, err
	}
	fees, err := oneSided(feeAmount, swapForY)
	if err != nil {
		return SwapAmounts{}, err
	}

	after, err := binReserves.Add(in)
	if err != nil {
		return SwapAmounts{}, err
	}
	if after, err = after.Sub(out); err != nil {
		return SwapAmounts{}, err
	}
	if err := checkLiquidityCap(after, binPrice); err != nil {
		return SwapAmounts{}, err
	}
	return SwapAmounts{InWithFees: in, OutOfBin: out, TotalFees: fees}, nil
}

// oneSided places v in the X slot when x is true, the Y slot otherwise.
func oneSided(v *uint256.Int, x bool) (packed.Amounts, error) {
	if x {
		return packed.AmountsFromUint256(v, new(uint256.Int))
	}
	return packed.AmountsFromUint256(new(uint256.Int), v)
}
