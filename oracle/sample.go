// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/lbpair/packed"
)

const (
	offsetLength        = 0
	offsetCumulativeID  = 16
	offsetCumulativeVol = 80
	offsetCumulativeBin = 144
	offsetLifetime      = 208
	offsetCreatedAt     = 216

	widthLength     = 16
	widthCumulative = 64
	widthLifetime   = 8
	widthCreatedAt  = 40
)

// Sample is one oracle observation. Cumulative values are running sums of
// value*seconds and wrap modulo 2^64.
type Sample struct {
	OracleLength         uint16
	CumulativeID         uint64
	CumulativeVolatility uint64
	CumulativeBinCrossed uint64
	SampleLifetime       uint8
	CreatedAt            uint64
}

func DecodeSample(h common.Hash) Sample {
	w := packed.Word(h)
	return Sample{
		OracleLength:         uint16(packed.Bits(w, offsetLength, widthLength)),
		CumulativeID:         packed.Bits(w, offsetCumulativeID, widthCumulative),
		CumulativeVolatility: packed.Bits(w, offsetCumulativeVol, widthCumulative),
		CumulativeBinCrossed: packed.Bits(w, offsetCumulativeBin, widthCumulative),
		SampleLifetime:       uint8(packed.Bits(w, offsetLifetime, widthLifetime)),
		CreatedAt:            packed.Bits(w, offsetCreatedAt, widthCreatedAt),
	}
}

// Encode packs the sample. CreatedAt is truncated to 40 bits.
func (s Sample) Encode() (common.Hash, error) {
	fields := []struct {
		name          string
		value         uint64
		offset, width uint
	}{
		{"oracle length", uint64(s.OracleLength), offsetLength, widthLength},
		{"cumulative id", s.CumulativeID, offsetCumulativeID, widthCumulative},
		{"cumulative volatility", s.CumulativeVolatility, offsetCumulativeVol, widthCumulative},
		{"cumulative bins crossed", s.CumulativeBinCrossed, offsetCumulativeBin, widthCumulative},
		{"sample lifetime", uint64(s.SampleLifetime), offsetLifetime, widthLifetime},
		{"created at", s.CreatedAt & (1<<widthCreatedAt - 1), offsetCreatedAt, widthCreatedAt},
	}
	w := new(uint256.Int)
	for _, f := range fields {
		if err := packed.SetBits(w, f.value, f.offset, f.width); err != nil {
			return common.Hash{}, fmt.Errorf("oracle: sample %s: %w", f.name, err)
		}
	}
	return packed.Hash(w), nil
}

// LastUpdate is the time of the most recent write to the sample.
func (s Sample) LastUpdate() uint64 {
	return s.CreatedAt + uint64(s.SampleLifetime)
}

// written reports whether the slot ever held an observation, as opposed to
// a length marker left by IncreaseLength.
func (s Sample) written() bool {
	return s.CreatedAt != 0
}

// weightedAverage interpolates between s and next with integer weights.
func (s Sample) weightedAverage(next Sample, weightPrev, weightNext uint64) (cumID, cumVol, cumBin uint64) {
	avg := func(a, b uint64) uint64 {
		x := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(weightPrev))
		y := new(uint256.Int).Mul(uint256.NewInt(b), uint256.NewInt(weightNext))
		x.Add(x, y)
		return x.Div(x, uint256.NewInt(weightPrev+weightNext)).Uint64()
	}
	return avg(s.CumulativeID, next.CumulativeID),
		avg(s.CumulativeVolatility, next.CumulativeVolatility),
		avg(s.CumulativeBinCrossed, next.CumulativeBinCrossed)
}
