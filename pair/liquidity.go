// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pair

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/lbpair/bin"
	"github.com/luxfi/lbpair/lbmath"
	"github.com/luxfi/lbpair/packed"
	"github.com/luxfi/lbpair/price"
)

// MintResult is the outcome of a deposit.
type MintResult struct {
	AmountsReceived packed.Amounts   `json:"amounts_received"`
	AmountsLeft     packed.Amounts   `json:"amounts_left"`
	IDs             []uint32         `json:"ids"`
	AmountsInBins   []packed.Amounts `json:"amounts_in_bins"`
	LiquidityMinted []*uint256.Int   `json:"liquidity_minted"`
	Effects         Effects          `json:"-"`
}

// Mint deposits the unaccounted balances of both tokens into the bins named
// by configs and credits to with the shares. Whatever the distribution does
// not place is refunded to refundTo.
func (p *Pair) Mint(env Env, to common.Address, configs []bin.LiquidityConfig, refundTo common.Address) (MintResult, error) {
	var result MintResult
	effects, err := p.execute(env, true, func(tx *txn) error {
		if len(configs) == 0 {
			return ErrEmptyMarketConfigs
		}

		reserves := tx.reserves()
		received, err := p.received(reserves)
		if err != nil {
			return err
		}

		amountsLeft := received
		mint := ShareMint{To: to}
		result = MintResult{AmountsReceived: received}
		for _, cfg := range configs {
			maxAmountsIn, id, err := cfg.AmountsAndID(received)
			if err != nil {
				return err
			}
			if id > lbmath.MaxBinID {
				return fmt.Errorf("%w: %d", ErrIDOverflow, id)
			}

			shares, amountsIn, amountsInToBin, err := p.updateBin(tx, id, maxAmountsIn)
			if err != nil {
				return err
			}
			if amountsLeft, err = amountsLeft.Sub(amountsIn); err != nil {
				return err
			}

			tx.recordMint(id, shares)
			mint.IDs = append(mint.IDs, id)
			mint.Amounts = append(mint.Amounts, shares)
			result.IDs = append(result.IDs, id)
			result.AmountsInBins = append(result.AmountsInBins, amountsInToBin)
			result.LiquidityMinted = append(result.LiquidityMinted, shares)
		}

		deposited, err := received.Sub(amountsLeft)
		if err != nil {
			return err
		}
		if reserves, err = reserves.Add(deposited); err != nil {
			return err
		}
		tx.setReserves(reserves)

		tx.effects.Mints = append(tx.effects.Mints, mint)
		p.transferAmounts(tx, amountsLeft, refundTo)
		result.AmountsLeft = amountsLeft

		p.log.Debug("deposited to bins",
			"pair", p.cfg.Address,
			"to", to,
			"ids", mint.IDs,
			"received", received,
			"refunded", amountsLeft,
		)
		return nil
	})
	if err != nil {
		return MintResult{}, err
	}
	result.Effects = effects
	return result, nil
}

// updateBin adds up to maxAmountsIn to bin id. It returns the shares minted,
// the amounts taken from the depositor and the amounts added to the bin,
// which differ by the protocol share of any composition fee.
func (p *Pair) updateBin(tx *txn, id uint32, maxAmountsIn packed.Amounts) (*uint256.Int, packed.Amounts, packed.Amounts, error) {
	binReserves := tx.bin(id)
	binPrice, err := price.GetPriceFromID(id, p.cfg.BinStep)
	if err != nil {
		return nil, packed.Amounts{}, packed.Amounts{}, err
	}
	supply, err := tx.totalSupply(id)
	if err != nil {
		return nil, packed.Amounts{}, packed.Amounts{}, err
	}

	shares, amountsIn, err := bin.GetSharesAndEffectiveAmountsIn(binReserves, maxAmountsIn, binPrice, supply)
	if err != nil {
		return nil, packed.Amounts{}, packed.Amounts{}, fmt.Errorf("bin %d: %w", id, err)
	}
	amountsInToBin := amountsIn

	pp := tx.parameters()
	if id == pp.ActiveID {
		pp.UpdateReferences(tx.env.Time)
		pp.UpdateVolatilityAccumulator(id)

		fees, err := bin.GetCompositionFees(binReserves, pp.TotalFee(p.cfg.BinStep), amountsIn, supply, shares)
		if err != nil {
			return nil, packed.Amounts{}, packed.Amounts{}, fmt.Errorf("bin %d: %w", id, err)
		}
		if !fees.IsZero() {
			if shares, err = p.sharesAfterCompositionFees(binReserves, amountsIn, fees, binPrice, supply); err != nil {
				return nil, packed.Amounts{}, packed.Amounts{}, err
			}

			protocolCFees, err := fees.ScalarMulDivBasisPointRoundDown(uint64(pp.ProtocolShare))
			if err != nil {
				return nil, packed.Amounts{}, packed.Amounts{}, err
			}
			if !protocolCFees.IsZero() {
				if amountsInToBin, err = amountsInToBin.Sub(protocolCFees); err != nil {
					return nil, packed.Amounts{}, packed.Amounts{}, err
				}
				protocolFees, err := tx.protocolFees().Add(protocolCFees)
				if err != nil {
					return nil, packed.Amounts{}, packed.Amounts{}, err
				}
				tx.setProtocolFees(protocolFees)
			}

			if pp, err = tx.oracle.Update(tx.env.Time, pp, id); err != nil {
				return nil, packed.Amounts{}, packed.Amounts{}, err
			}
			if err := tx.setParameters(pp); err != nil {
				return nil, packed.Amounts{}, packed.Amounts{}, err
			}

			p.log.Debug("composition fees",
				"pair", p.cfg.Address,
				"id", id,
				"totalFees", fees,
				"protocolFees", protocolCFees,
			)
		}
	} else if err := bin.VerifyAmounts(amountsIn, pp.ActiveID, id); err != nil {
		return nil, packed.Amounts{}, packed.Amounts{}, err
	}

	if shares.IsZero() {
		return nil, packed.Amounts{}, packed.Amounts{}, fmt.Errorf("%w: id=%d", ErrZeroShares, id)
	}
	if amountsInToBin.IsZero() {
		return nil, packed.Amounts{}, packed.Amounts{}, fmt.Errorf("%w: id=%d", ErrZeroAmount, id)
	}

	if supply.IsZero() {
		tx.tree.Add(id)
	}
	updated, err := binReserves.Add(amountsInToBin)
	if err != nil {
		return nil, packed.Amounts{}, packed.Amounts{}, err
	}
	tx.setBin(id, updated)
	return shares, amountsIn, amountsInToBin, nil
}

// sharesAfterCompositionFees prices the deposit net of fees against the bin
// as it was before the deposit.
func (p *Pair) sharesAfterCompositionFees(binReserves, amountsIn, fees packed.Amounts, binPrice, supply *uint256.Int) (*uint256.Int, error) {
	net, err := amountsIn.Sub(fees)
	if err != nil {
		return nil, err
	}
	userLiquidity, err := bin.GetLiquidity(net, binPrice)
	if err != nil {
		return nil, err
	}
	binLiquidity, err := bin.GetLiquidity(binReserves, binPrice)
	if err != nil {
		return nil, err
	}
	if binLiquidity.IsZero() || supply.IsZero() {
		return userLiquidity, nil
	}
	return lbmath.MulDivRoundDown(userLiquidity, supply, binLiquidity)
}

// BurnResult is the outcome of a withdrawal.
type BurnResult struct {
	Amounts []packed.Amounts `json:"amounts"`
	Effects Effects          `json:"-"`
}

// Burn redeems amountsToBurn[i] shares of bin ids[i] owned by from and sends
// the tokens to to. A bin whose last share is burned is deleted.
func (p *Pair) Burn(env Env, from, to common.Address, ids []uint32, amountsToBurn []*uint256.Int) (BurnResult, error) {
	var result BurnResult
	effects, err := p.execute(env, true, func(tx *txn) error {
		if len(ids) == 0 || len(ids) != len(amountsToBurn) {
			return fmt.Errorf("%w: %d ids, %d amounts", ErrInvalidInput, len(ids), len(amountsToBurn))
		}
		if env.Sender != from {
			approved, err := tx.querier.IsApprovedForAll(from, env.Sender)
			if err != nil {
				return fmt.Errorf("failed to query approval: %w", err)
			}
			if !approved {
				return fmt.Errorf("%w: %s for %s", ErrSpenderNotApproved, env.Sender.Hex(), from.Hex())
			}
		}

		burn := ShareBurn{From: from}
		var amountsOut packed.Amounts
		for i, id := range ids {
			amountToBurn := amountsToBurn[i]
			if id > lbmath.MaxBinID {
				return fmt.Errorf("%w: %d", ErrIDOverflow, id)
			}
			if amountToBurn == nil || amountToBurn.IsZero() {
				return fmt.Errorf("%w: id=%d", ErrZeroAmount, id)
			}

			balance, err := tx.shareBalance(from, id)
			if err != nil {
				return err
			}
			if balance.Lt(amountToBurn) {
				return fmt.Errorf("%w: id=%d have=%s want=%s", ErrInsufficientShares, id, balance.Dec(), amountToBurn.Dec())
			}

			binReserves := tx.bin(id)
			supply, err := tx.totalSupply(id)
			if err != nil {
				return err
			}
			amountsOutFromBin, err := bin.GetAmountOutOfBin(binReserves, amountToBurn, supply)
			if err != nil {
				return fmt.Errorf("bin %d: %w", id, err)
			}
			if amountsOutFromBin.IsZero() {
				return fmt.Errorf("%w: id=%d", ErrZeroAmountsOut, id)
			}
			if binReserves, err = binReserves.Sub(amountsOutFromBin); err != nil {
				return err
			}

			if supply.Eq(amountToBurn) {
				tx.tree.Remove(id)
				binReserves = packed.Amounts{}
			}
			tx.setBin(id, binReserves)
			tx.recordBurn(from, id, amountToBurn)

			burn.IDs = append(burn.IDs, id)
			burn.Amounts = append(burn.Amounts, new(uint256.Int).Set(amountToBurn))
			result.Amounts = append(result.Amounts, amountsOutFromBin)
			if amountsOut, err = amountsOut.Add(amountsOutFromBin); err != nil {
				return err
			}
		}

		reserves, err := tx.reserves().Sub(amountsOut)
		if err != nil {
			return err
		}
		tx.setReserves(reserves)

		tx.effects.Burns = append(tx.effects.Burns, burn)
		p.transferAmounts(tx, amountsOut, to)

		p.log.Debug("withdrawn from bins",
			"pair", p.cfg.Address,
			"from", from,
			"to", to,
			"ids", burn.IDs,
			"amountsOut", amountsOut,
		)
		return nil
	})
	if err != nil {
		return BurnResult{}, err
	}
	result.Effects = effects
	return result, nil
}
