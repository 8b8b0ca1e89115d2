// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pair

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"lukechampine.com/uint128"

	"github.com/luxfi/lbpair/bin"
	"github.com/luxfi/lbpair/fee"
	"github.com/luxfi/lbpair/lbmath"
	"github.com/luxfi/lbpair/packed"
	"github.com/luxfi/lbpair/price"
)

// SwapResult is the outcome of a swap.
type SwapResult struct {
	AmountsOut packed.Amounts `json:"amounts_out"`
	ActiveID   uint32         `json:"active_id"`
	Effects    Effects        `json:"-"`
}

// Swap sells the unaccounted balance of token X (swapForY) or token Y held
// by the pair and sends the proceeds to to. Bins are crossed from the active
// bin towards lower ids when selling X and higher ids when selling Y.
func (p *Pair) Swap(env Env, swapForY bool, to common.Address) (SwapResult, error) {
	var result SwapResult
	effects, err := p.execute(env, true, func(tx *txn) error {
		reserves := tx.reserves()
		received, err := p.received(reserves)
		if err != nil {
			return err
		}
		amountsLeft := packed.Amounts{X: received.X}
		if !swapForY {
			amountsLeft = packed.Amounts{Y: received.Y}
		}
		if amountsLeft.IsZero() {
			return ErrInsufficientAmountIn
		}
		if reserves, err = reserves.Add(amountsLeft); err != nil {
			return err
		}

		protocolFees := tx.protocolFees()
		pp := tx.parameters()
		activeID := pp.ActiveID
		pp.UpdateReferences(env.Time)

		var amountsOut packed.Amounts
		for {
			binReserves := tx.bin(activeID)
			if !bin.IsEmpty(binReserves, !swapForY) {
				pp.UpdateVolatilityAccumulator(activeID)
				amounts, err := bin.GetAmounts(binReserves, &pp, p.cfg.BinStep, swapForY, activeID, amountsLeft)
				if err != nil {
					return fmt.Errorf("bin %d: %w", activeID, err)
				}
				if !amounts.InWithFees.IsZero() {
					if amountsLeft, err = amountsLeft.Sub(amounts.InWithFees); err != nil {
						return err
					}
					if amountsOut, err = amountsOut.Add(amounts.OutOfBin); err != nil {
						return err
					}

					inToBin := amounts.InWithFees
					pFees, err := amounts.TotalFees.ScalarMulDivBasisPointRoundDown(uint64(pp.ProtocolShare))
					if err != nil {
						return err
					}
					if !pFees.IsZero() {
						if protocolFees, err = protocolFees.Add(pFees); err != nil {
							return err
						}
						if inToBin, err = inToBin.Sub(pFees); err != nil {
							return err
						}
					}

					updated, err := binReserves.Add(inToBin)
					if err != nil {
						return err
					}
					if updated, err = updated.Sub(amounts.OutOfBin); err != nil {
						return err
					}
					tx.setBin(activeID, updated)

					p.log.Debug("swap",
						"pair", p.cfg.Address,
						"id", activeID,
						"amountsIn", amounts.InWithFees,
						"amountsOut", amounts.OutOfBin,
						"volatilityAccumulator", pp.VolatilityAccumulator,
						"totalFees", amounts.TotalFees,
						"protocolFees", pFees,
					)
				}
			}

			if amountsLeft.IsZero() {
				break
			}
			next, ok := tx.nextNonEmptyBin(swapForY, activeID)
			if !ok {
				return fmt.Errorf("%w: from bin %d", ErrOutOfLiquidity, activeID)
			}
			activeID = next
		}

		if amountsOut.IsZero() {
			return ErrInsufficientAmountOut
		}
		if reserves, err = reserves.Sub(amountsOut); err != nil {
			return err
		}
		tx.setReserves(reserves)
		tx.setProtocolFees(protocolFees)

		if pp, err = tx.oracle.Update(env.Time, pp, activeID); err != nil {
			return err
		}
		pp.ActiveID = activeID
		if err := tx.setParameters(pp); err != nil {
			return err
		}

		p.transferAmounts(tx, amountsOut, to)
		result = SwapResult{AmountsOut: amountsOut, ActiveID: activeID}
		return nil
	})
	if err != nil {
		return SwapResult{}, err
	}
	result.Effects = effects
	return result, nil
}

// SwapInQuote is the input needed for a desired output.
type SwapInQuote struct {
	AmountIn      uint128.Uint128
	AmountOutLeft uint128.Uint128
	Fee           uint128.Uint128
}

// GetSwapIn simulates buying amountOut. AmountOutLeft is what the pair's
// liquidity could not provide.
func (p *Pair) GetSwapIn(env Env, amountOut uint128.Uint128, swapForY bool) (SwapInQuote, error) {
	tx, err := p.view(env)
	if err != nil {
		return SwapInQuote{}, err
	}

	amountOutLeft := packed.ToUint256(amountOut)
	amountIn, totalFee := new(uint256.Int), new(uint256.Int)

	pp := tx.parameters()
	id := pp.ActiveID
	pp.UpdateReferences(env.Time)
	for {
		binReserve := packed.ToUint256(tx.bin(id).Get(!swapForY))
		if !binReserve.IsZero() {
			binPrice, err := price.GetPriceFromID(id, p.cfg.BinStep)
			if err != nil {
				return SwapInQuote{}, err
			}
			amountOutOfBin := binReserve
			if binReserve.Gt(amountOutLeft) {
				amountOutOfBin = amountOutLeft
			}
			pp.UpdateVolatilityAccumulator(id)

			var amountInWithoutFee *uint256.Int
			if swapForY {
				amountInWithoutFee, err = lbmath.ShiftDivRoundUp(amountOutOfBin, lbmath.ScaleOffset, binPrice)
			} else {
				amountInWithoutFee, err = lbmath.MulShiftRoundUp(amountOutOfBin, binPrice, lbmath.ScaleOffset)
			}
			if err != nil {
				return SwapInQuote{}, err
			}
			feeAmount, err := fee.GetFeeAmount(amountInWithoutFee, pp.TotalFee(p.cfg.BinStep))
			if err != nil {
				return SwapInQuote{}, err
			}

			amountIn.Add(amountIn, amountInWithoutFee)
			amountIn.Add(amountIn, feeAmount)
			amountOutLeft = new(uint256.Int).Sub(amountOutLeft, amountOutOfBin)
			totalFee.Add(totalFee, feeAmount)
		}

		if amountOutLeft.IsZero() {
			break
		}
		next, ok := tx.nextNonEmptyBin(swapForY, id)
		if !ok {
			break
		}
		id = next
	}

	quote := SwapInQuote{}
	if quote.AmountIn, err = packed.ToUint128(amountIn); err != nil {
		return SwapInQuote{}, err
	}
	if quote.AmountOutLeft, err = packed.ToUint128(amountOutLeft); err != nil {
		return SwapInQuote{}, err
	}
	if quote.Fee, err = packed.ToUint128(totalFee); err != nil {
		return SwapInQuote{}, err
	}
	return quote, nil
}

// SwapOutQuote is the output obtained for a given input.
type SwapOutQuote struct {
	AmountInLeft uint128.Uint128
	AmountOut    uint128.Uint128
	Fee          uint128.Uint128
}

// GetSwapOut simulates selling amountIn. AmountInLeft is the part the
// pair's liquidity could not absorb.
func (p *Pair) GetSwapOut(env Env, amountIn uint128.Uint128, swapForY bool) (SwapOutQuote, error) {
	tx, err := p.view(env)
	if err != nil {
		return SwapOutQuote{}, err
	}

	amountsInLeft := packed.Amounts{X: amountIn}
	if !swapForY {
		amountsInLeft = packed.Amounts{Y: amountIn}
	}
	var amountsOut, fees packed.Amounts

	pp := tx.parameters()
	id := pp.ActiveID
	pp.UpdateReferences(env.Time)
	for {
		binReserves := tx.bin(id)
		if !bin.IsEmpty(binReserves, !swapForY) {
			pp.UpdateVolatilityAccumulator(id)
			amounts, err := bin.GetAmounts(binReserves, &pp, p.cfg.BinStep, swapForY, id, amountsInLeft)
			if err != nil {
				return SwapOutQuote{}, err
			}
			if !amounts.InWithFees.IsZero() {
				if amountsInLeft, err = amountsInLeft.Sub(amounts.InWithFees); err != nil {
					return SwapOutQuote{}, err
				}
				if amountsOut, err = amountsOut.Add(amounts.OutOfBin); err != nil {
					return SwapOutQuote{}, err
				}
				if fees, err = fees.Add(amounts.TotalFees); err != nil {
					return SwapOutQuote{}, err
				}
			}
		}

		if amountsInLeft.IsZero() {
			break
		}
		next, ok := tx.nextNonEmptyBin(swapForY, id)
		if !ok {
			break
		}
		id = next
	}

	return SwapOutQuote{
		AmountInLeft: amountsInLeft.Get(swapForY),
		AmountOut:    amountsOut.Get(!swapForY),
		Fee:          fees.Get(swapForY),
	}, nil
}
