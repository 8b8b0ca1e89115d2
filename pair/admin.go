// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pair

import (
	"fmt"

	"lukechampine.com/uint128"

	"github.com/luxfi/lbpair/packed"
	"github.com/luxfi/lbpair/params"
)

// CollectProtocolFees sends the accrued protocol fees to the recipient,
// leaving one unit of every non-zero side in storage.
func (p *Pair) CollectProtocolFees(env Env) (packed.Amounts, Effects, error) {
	var collected packed.Amounts
	effects, err := p.execute(env, true, func(tx *txn) error {
		if env.Sender != p.cfg.ProtocolFeeRecipient {
			return ErrOnlyProtocolFeeRecipient
		}

		protocolFees := tx.protocolFees()
		ones := packed.Amounts{X: floorUnit(protocolFees.X), Y: floorUnit(protocolFees.Y)}
		var err error
		if collected, err = protocolFees.Sub(ones); err != nil {
			return err
		}
		if collected.IsZero() {
			return fmt.Errorf("%w: protocol fees %s", ErrNotEnoughFunds, protocolFees)
		}

		reserves, err := tx.reserves().Sub(collected)
		if err != nil {
			return err
		}
		tx.setProtocolFees(ones)
		tx.setReserves(reserves)
		p.transferAmounts(tx, collected, p.cfg.ProtocolFeeRecipient)

		p.log.Info("collected protocol fees",
			"pair", p.cfg.Address,
			"recipient", p.cfg.ProtocolFeeRecipient,
			"amounts", collected,
		)
		return nil
	})
	if err != nil {
		return packed.Amounts{}, Effects{}, err
	}
	return collected, effects, nil
}

func floorUnit(v uint128.Uint128) uint128.Uint128 {
	if !v.IsZero() {
		return uint128.From64(1)
	}
	return uint128.Zero
}

// IncreaseOracleLength grows the sample ring. The first call activates the
// oracle. Anyone may pay for a longer ring.
func (p *Pair) IncreaseOracleLength(env Env, newLength uint16) error {
	_, err := p.execute(env, true, func(tx *txn) error {
		pp := tx.parameters()
		if pp.OracleID == 0 {
			pp.OracleID = 1
			if err := tx.setParameters(pp); err != nil {
				return err
			}
		}
		if err := tx.oracle.IncreaseLength(pp.OracleID, newLength); err != nil {
			return err
		}

		p.log.Info("oracle length increased",
			"pair", p.cfg.Address,
			"oracleID", pp.OracleID,
			"newLength", newLength,
		)
		return nil
	})
	return err
}

// SetStaticFeeParameters replaces the static fee parameters. The volatility
// state and active id are kept.
func (p *Pair) SetStaticFeeParameters(env Env, s params.StaticFeeParameters) error {
	_, err := p.execute(env, true, func(tx *txn) error {
		if env.Sender != p.cfg.Factory {
			return ErrOnlyFactory
		}
		if err := s.Verify(p.cfg.BinStep); err != nil {
			return err
		}

		pp := tx.parameters()
		pp.SetStaticFeeParameters(s)
		if err := tx.setParameters(pp); err != nil {
			return err
		}

		p.log.Info("static fee parameters set",
			"pair", p.cfg.Address,
			"baseFactor", s.BaseFactor,
			"filterPeriod", s.FilterPeriod,
			"decayPeriod", s.DecayPeriod,
			"reductionFactor", s.ReductionFactor,
			"variableFeeControl", s.VariableFeeControl,
			"protocolShare", s.ProtocolShare,
			"maxVolatilityAccumulator", s.MaxVolatilityAccumulator,
		)
		return nil
	})
	return err
}

// ForceDecay moves the id reference to the active bin and decays the
// volatility reference.
func (p *Pair) ForceDecay(env Env) error {
	_, err := p.execute(env, true, func(tx *txn) error {
		if env.Sender != p.cfg.Factory {
			return ErrOnlyFactory
		}

		pp := tx.parameters()
		pp.ForceDecay()
		if err := tx.setParameters(pp); err != nil {
			return err
		}

		p.log.Info("forced decay",
			"pair", p.cfg.Address,
			"idReference", pp.IDReference,
			"volatilityReference", pp.VolatilityReference,
		)
		return nil
	})
	return err
}
