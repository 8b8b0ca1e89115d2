// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/lbpair/params"
	"github.com/luxfi/lbpair/state"
)

func newOracle() *Oracle {
	return New(state.NewAccount(state.NewMemoryDatabase(), common.HexToAddress("0x9010")))
}

func TestSampleEncoding(t *testing.T) {
	s := Sample{
		OracleLength:         65_535,
		CumulativeID:         ^uint64(0),
		CumulativeVolatility: 12_345,
		CumulativeBinCrossed: 1 << 63,
		SampleLifetime:       120,
		CreatedAt:            1<<40 - 1,
	}
	h, err := s.Encode()
	require.NoError(t, err)
	require.Equal(t, s, DecodeSample(h))
	require.Equal(t, uint64(1<<40-1+120), s.LastUpdate())

	s.CreatedAt = 1<<40 + 5
	h, err = s.Encode()
	require.NoError(t, err)
	require.Equal(t, uint64(5), DecodeSample(h).CreatedAt)
}

func TestIncreaseLength(t *testing.T) {
	require := require.New(t)
	o := newOracle()

	require.NoError(o.IncreaseLength(1, 3))
	for id := uint16(1); id <= 3; id++ {
		s, err := o.Sample(id)
		require.NoError(err)
		require.Equal(uint16(3), s.OracleLength)
		require.Zero(s.CreatedAt)
	}

	require.ErrorIs(o.IncreaseLength(1, 3), ErrNewLengthTooSmall)
	require.ErrorIs(o.IncreaseLength(1, 2), ErrNewLengthTooSmall)
	require.ErrorIs(o.IncreaseLength(0, 5), ErrInvalidOracleID)

	_, size, err := o.ActiveSize(1)
	require.NoError(err)
	require.Equal(uint16(1), size)
}

func TestUpdateInactive(t *testing.T) {
	o := newOracle()
	p := params.Parameters{ActiveID: 100}
	got, err := o.Update(1_000, p, 101)
	require.NoError(t, err)
	require.Equal(t, p, got)

	s := DecodeSample(o.store.Get(sampleKey(1)))
	require.Equal(t, Sample{}, s)
}

// runRing drives a three slot oracle through a full rotation:
//
//	t=1000 slot 2 created
//	t=1060 slot 2 updated, active id 100 -> 103
//	t=1200 slot 3 created
//	t=1400 slot 1 created, ring wrapped
func runRing(t *testing.T) (*Oracle, params.Parameters) {
	t.Helper()
	require := require.New(t)

	o := newOracle()
	require.NoError(o.IncreaseLength(1, 3))
	p := params.Parameters{ActiveID: 100, OracleID: 1}

	p, err := o.Update(1_000, p, 100)
	require.NoError(err)
	require.Equal(uint16(2), p.OracleID)

	p.VolatilityAccumulator = 5_000
	p, err = o.Update(1_060, p, 103)
	require.NoError(err)
	require.Equal(uint16(2), p.OracleID)
	p.ActiveID = 103

	// Same timestamp is a no-op.
	same, err := o.Update(1_060, p, 110)
	require.NoError(err)
	require.Equal(p, same)

	p, err = o.Update(1_200, p, 103)
	require.NoError(err)
	require.Equal(uint16(3), p.OracleID)
	return o, p
}

func TestUpdateAccumulates(t *testing.T) {
	require := require.New(t)
	o, _ := runRing(t)

	s2, err := o.Sample(2)
	require.NoError(err)
	require.Equal(Sample{
		OracleLength:         3,
		CumulativeID:         106_000,
		CumulativeVolatility: 300_000,
		CumulativeBinCrossed: 180,
		SampleLifetime:       60,
		CreatedAt:            1_000,
	}, s2)

	s3, err := o.Sample(3)
	require.NoError(err)
	require.Equal(Sample{
		OracleLength:         3,
		CumulativeID:         120_420,
		CumulativeVolatility: 1_000_000,
		CumulativeBinCrossed: 180,
		CreatedAt:            1_200,
	}, s3)
}

func TestGetSampleAt(t *testing.T) {
	o, p := runRing(t)

	tests := []struct {
		name string
		ts   uint64
		want Observation
	}{
		{"after latest", 1_300, Observation{1_200, 120_420, 1_000_000, 180}},
		{"exact sample", 1_060, Observation{1_060, 106_000, 300_000, 180}},
		{"interpolated", 1_130, Observation{1_130, 113_210, 650_000, 180}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := o.GetSampleAt(p.OracleID, tt.ts)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRingWrap(t *testing.T) {
	require := require.New(t)
	o, p := runRing(t)

	p, err := o.Update(1_400, p, 103)
	require.NoError(err)
	require.Equal(uint16(1), p.OracleID)

	_, size, err := o.ActiveSize(p.OracleID)
	require.NoError(err)
	require.Equal(uint16(3), size)

	_, err = o.GetSampleAt(p.OracleID, 1_000)
	require.ErrorIs(err, ErrLookUpTimestampTooOld)

	got, err := o.GetSampleAt(p.OracleID, 1_500)
	require.NoError(err)
	require.Equal(Observation{1_400, 141_020, 2_000_000, 180}, got)

	info, err := o.Info(p.OracleID)
	require.NoError(err)
	require.Equal(Info{
		SampleLifetime: MaxSampleLifetime,
		Size:           3,
		ActiveSize:     3,
		LastUpdated:    1_400,
		FirstTimestamp: 1_060,
	}, info)
}

func TestInfoInactive(t *testing.T) {
	info, err := newOracle().Info(0)
	require.NoError(t, err)
	require.Equal(t, Info{SampleLifetime: MaxSampleLifetime}, info)
}
