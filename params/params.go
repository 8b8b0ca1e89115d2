// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package params holds the pair parameter word: the static fee
// configuration, the volatility state that drives the variable fee, and the
// active bin and oracle cursors, all packed into one storage word.
package params

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/lbpair/lbmath"
	"github.com/luxfi/lbpair/packed"
)

var (
	ErrInvalidStaticFeeParameters = errors.New("params: invalid static fee parameters")
	ErrMaxTotalFeeExceeded        = errors.New("params: max total fee exceeded")
	ErrFieldOverflow              = errors.New("params: field overflow")
)

// Bit layout of the parameter word
const (
	offsetBaseFactor         = 0
	offsetFilterPeriod       = 16
	offsetDecayPeriod        = 28
	offsetReductionFactor    = 40
	offsetVariableFeeControl = 54
	offsetProtocolShare      = 78
	offsetMaxVolAcc          = 92
	offsetVolAcc             = 112
	offsetVolRef             = 132
	offsetIDRef              = 152
	offsetTimeOfLastUpdate   = 176
	offsetOracleID           = 216
	offsetActiveID           = 232

	widthBaseFactor         = 16
	widthFilterPeriod       = 12
	widthDecayPeriod        = 12
	widthReductionFactor    = 14
	widthVariableFeeControl = 24
	widthProtocolShare      = 14
	widthVolatility         = 20
	widthID                 = 24
	widthTime               = 40
	widthOracleID           = 16
)

// baseFeeScale turns baseFactor*binStep (bp^2) into a 1e18 rate.
var baseFeeScale = uint256.NewInt(1e10)

// StaticFeeParameters is the governance-controlled part of the parameters.
type StaticFeeParameters struct {
	BaseFactor               uint16 `json:"base_factor" yaml:"base_factor"`
	FilterPeriod             uint16 `json:"filter_period" yaml:"filter_period"`
	DecayPeriod              uint16 `json:"decay_period" yaml:"decay_period"`
	ReductionFactor          uint16 `json:"reduction_factor" yaml:"reduction_factor"`
	VariableFeeControl       uint32 `json:"variable_fee_control" yaml:"variable_fee_control"`
	ProtocolShare            uint16 `json:"protocol_share" yaml:"protocol_share"`
	MaxVolatilityAccumulator uint32 `json:"max_volatility_accumulator" yaml:"max_volatility_accumulator"`
}

// Parameters is the decoded parameter word.
type Parameters struct {
	StaticFeeParameters

	VolatilityAccumulator uint32
	VolatilityReference   uint32
	IDReference           uint32
	TimeOfLastUpdate      uint64
	OracleID              uint16
	ActiveID              uint32
}

type field struct {
	name   string
	value  uint64
	offset uint
	width  uint
}

func (p *Parameters) fields() []field {
	return []field{
		{"base factor", uint64(p.BaseFactor), offsetBaseFactor, widthBaseFactor},
		{"filter period", uint64(p.FilterPeriod), offsetFilterPeriod, widthFilterPeriod},
		{"decay period", uint64(p.DecayPeriod), offsetDecayPeriod, widthDecayPeriod},
		{"reduction factor", uint64(p.ReductionFactor), offsetReductionFactor, widthReductionFactor},
		{"variable fee control", uint64(p.VariableFeeControl), offsetVariableFeeControl, widthVariableFeeControl},
		{"protocol share", uint64(p.ProtocolShare), offsetProtocolShare, widthProtocolShare},
		{"max volatility accumulator", uint64(p.MaxVolatilityAccumulator), offsetMaxVolAcc, widthVolatility},
		{"volatility accumulator", uint64(p.VolatilityAccumulator), offsetVolAcc, widthVolatility},
		{"volatility reference", uint64(p.VolatilityReference), offsetVolRef, widthVolatility},
		{"id reference", uint64(p.IDReference), offsetIDRef, widthID},
		{"time of last update", p.TimeOfLastUpdate, offsetTimeOfLastUpdate, widthTime},
		{"oracle id", uint64(p.OracleID), offsetOracleID, widthOracleID},
		{"active id", uint64(p.ActiveID), offsetActiveID, widthID},
	}
}

// Decode unpacks a parameter word.
func Decode(h common.Hash) Parameters {
	w := packed.Word(h)
	return Parameters{
		StaticFeeParameters: StaticFeeParameters{
			BaseFactor:               uint16(packed.Bits(w, offsetBaseFactor, widthBaseFactor)),
			FilterPeriod:             uint16(packed.Bits(w, offsetFilterPeriod, widthFilterPeriod)),
			DecayPeriod:              uint16(packed.Bits(w, offsetDecayPeriod, widthDecayPeriod)),
			ReductionFactor:          uint16(packed.Bits(w, offsetReductionFactor, widthReductionFactor)),
			VariableFeeControl:       uint32(packed.Bits(w, offsetVariableFeeControl, widthVariableFeeControl)),
			ProtocolShare:            uint16(packed.Bits(w, offsetProtocolShare, widthProtocolShare)),
			MaxVolatilityAccumulator: uint32(packed.Bits(w, offsetMaxVolAcc, widthVolatility)),
		},
		VolatilityAccumulator: uint32(packed.Bits(w, offsetVolAcc, widthVolatility)),
		VolatilityReference:   uint32(packed.Bits(w, offsetVolRef, widthVolatility)),
		IDReference:           uint32(packed.Bits(w, offsetIDRef, widthID)),
		TimeOfLastUpdate:      packed.Bits(w, offsetTimeOfLastUpdate, widthTime),
		OracleID:              uint16(packed.Bits(w, offsetOracleID, widthOracleID)),
		ActiveID:              uint32(packed.Bits(w, offsetActiveID, widthID)),
	}
}

// Encode packs the parameters, failing if any field exceeds its width.
func (p Parameters) Encode() (common.Hash, error) {
	w := new(uint256.Int)
	for _, f := range p.fields() {
		if err := packed.SetBits(w, f.value, f.offset, f.width); err != nil {
			return common.Hash{}, fmt.Errorf("%w: %s: %v", ErrFieldOverflow, f.name, err)
		}
	}
	return packed.Hash(w), nil
}

// SetStaticFeeParameters replaces the static part, keeping the dynamic state.
func (p *Parameters) SetStaticFeeParameters(s StaticFeeParameters) {
	p.StaticFeeParameters = s
}

// BaseFee returns baseFactor * binStep * 1e10.
func (p *Parameters) BaseFee(binStep uint16) *uint256.Int {
	f := uint256.NewInt(uint64(p.BaseFactor) * uint64(binStep))
	return f.Mul(f, baseFeeScale)
}

// VariableFee returns ceil((volatilityAccumulator * binStep)^2 *
// variableFeeControl / 100).
func (p *Parameters) VariableFee(binStep uint16) *uint256.Int {
	return variableFee(p.VariableFeeControl, p.VolatilityAccumulator, binStep)
}

// TotalFee returns BaseFee + VariableFee.
func (p *Parameters) TotalFee(binStep uint16) *uint256.Int {
	total := p.BaseFee(binStep)
	return total.Add(total, p.VariableFee(binStep))
}

func variableFee(control, volatility uint32, binStep uint16) *uint256.Int {
	if control == 0 {
		return new(uint256.Int)
	}
	prod := uint256.NewInt(uint64(volatility) * uint64(binStep))
	f := new(uint256.Int).Mul(prod, prod)
	f.Mul(f, uint256.NewInt(uint64(control)))
	f.AddUint64(f, 99)
	return f.Div(f, uint256.NewInt(100))
}

// UpdateIDReference anchors the volatility measurement at the active bin.
func (p *Parameters) UpdateIDReference() {
	p.IDReference = p.ActiveID
}

// UpdateVolatilityReference decays the accumulator into the reference.
func (p *Parameters) UpdateVolatilityReference() {
	p.VolatilityReference = uint32(uint64(p.VolatilityAccumulator) * uint64(p.ReductionFactor) / lbmath.BasisPointMax)
}

// UpdateVolatilityAccumulator measures how far activeID moved from the
// reference, capped at the maximum accumulator.
func (p *Parameters) UpdateVolatilityAccumulator(activeID uint32) {
	delta := uint64(activeID) - uint64(p.IDReference)
	if activeID < p.IDReference {
		delta = uint64(p.IDReference) - uint64(activeID)
	}
	acc := uint64(p.VolatilityReference) + delta*lbmath.BasisPointMax
	p.VolatilityAccumulator = uint32(min(acc, uint64(p.MaxVolatilityAccumulator)))
}

// UpdateReferences refreshes the references once more than filterPeriod has
// elapsed since the last update. The volatility reference decays while
// elapsed time is below decayPeriod and resets afterwards.
func (p *Parameters) UpdateReferences(now uint64) {
	var dt uint64
	if now > p.TimeOfLastUpdate {
		dt = now - p.TimeOfLastUpdate
	}
	if dt > uint64(p.FilterPeriod) {
		p.UpdateIDReference()
		if dt < uint64(p.DecayPeriod) {
			p.UpdateVolatilityReference()
		} else {
			p.VolatilityReference = 0
		}
	}
	p.TimeOfLastUpdate = now
}

// ForceDecay resets the reference to the active bin and decays the
// volatility reference immediately.
func (p *Parameters) ForceDecay() {
	p.UpdateIDReference()
	p.UpdateVolatilityReference()
}
