// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package oracle records time-weighted cumulative active id, volatility and
// bins crossed in a ring buffer of samples. Sample ids are 1-based; id 0
// means the oracle is inactive.
package oracle

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/lbpair/params"
	"github.com/luxfi/lbpair/state"
)

// MaxSampleLifetime is how long a sample absorbs updates before the next
// slot of the ring is used.
const MaxSampleLifetime = 120

var (
	ErrInvalidOracleID       = errors.New("oracle: invalid oracle id")
	ErrNewLengthTooSmall     = errors.New("oracle: new length too small")
	ErrLookUpTimestampTooOld = errors.New("oracle: look up timestamp too old")
)

var samplePrefix = []byte("orcl")

// Store is word storage for one pair.
type Store interface {
	Get(key common.Hash) common.Hash
	Set(key common.Hash, value common.Hash)
}

// Oracle is the sample ring of one pair.
type Oracle struct {
	store Store
}

func New(store Store) *Oracle {
	return &Oracle{store: store}
}

func sampleKey(oracleID uint16) common.Hash {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], oracleID)
	return state.Key(samplePrefix, b[:])
}

// Sample returns the sample stored at oracleID.
func (o *Oracle) Sample(oracleID uint16) (Sample, error) {
	if oracleID == 0 {
		return Sample{}, ErrInvalidOracleID
	}
	return DecodeSample(o.store.Get(sampleKey(oracleID))), nil
}

func (o *Oracle) setSample(oracleID uint16, s Sample) error {
	h, err := s.Encode()
	if err != nil {
		return err
	}
	o.store.Set(sampleKey(oracleID), h)
	return nil
}

// ActiveSize returns the sample at oracleID and the number of samples that
// hold observations. Before the ring wraps that is oracleID, afterwards the
// full length.
func (o *Oracle) ActiveSize(oracleID uint16) (Sample, uint16, error) {
	active, err := o.Sample(oracleID)
	if err != nil {
		return Sample{}, 0, err
	}
	size := active.OracleLength
	if oracleID != size {
		size = oracleID
		next, err := o.Sample(oracleID + 1)
		if err != nil {
			return Sample{}, 0, err
		}
		if next.written() {
			size = active.OracleLength
		}
	}
	return active, size, nil
}

// Update folds the time since the last update into the current sample and
// moves to the next slot once the sample is older than MaxSampleLifetime.
// The returned parameters carry the possibly advanced oracle id.
func (o *Oracle) Update(now uint64, p params.Parameters, newActiveID uint32) (params.Parameters, error) {
	oracleID := p.OracleID
	if oracleID == 0 {
		return p, nil
	}

	sample, err := o.Sample(oracleID)
	if err != nil {
		return p, err
	}
	createdAt := sample.CreatedAt
	lastUpdatedAt := sample.LastUpdate()
	if now <= lastUpdatedAt {
		return p, nil
	}

	dt := now - lastUpdatedAt
	deltaID := uint64(p.ActiveID) - uint64(newActiveID)
	if newActiveID > p.ActiveID {
		deltaID = uint64(newActiveID) - uint64(p.ActiveID)
	}
	sample.CumulativeID += uint64(p.ActiveID) * dt
	sample.CumulativeVolatility += uint64(p.VolatilityAccumulator) * dt
	sample.CumulativeBinCrossed += deltaID * dt

	lifetime := now - createdAt
	if lifetime > MaxSampleLifetime {
		if sample.OracleLength == 0 {
			return p, fmt.Errorf("%w: sample %d has no length", ErrInvalidOracleID, oracleID)
		}
		oracleID = oracleID%sample.OracleLength + 1
		lifetime = 0
		createdAt = now
		p.OracleID = oracleID
	}
	sample.SampleLifetime = uint8(lifetime)
	sample.CreatedAt = createdAt

	if err := o.setSample(oracleID, sample); err != nil {
		return p, err
	}
	return p, nil
}

// IncreaseLength grows the ring to newLength. New slots only carry the
// length until they are first written.
func (o *Oracle) IncreaseLength(oracleID, newLength uint16) error {
	sample, err := o.Sample(oracleID)
	if err != nil {
		return err
	}
	length := sample.OracleLength
	if length >= newLength {
		return fmt.Errorf("%w: %d >= %d", ErrNewLengthTooSmall, length, newLength)
	}

	for i := uint32(length); i < uint32(newLength); i++ {
		if err := o.setSample(uint16(i+1), Sample{OracleLength: newLength}); err != nil {
			return err
		}
	}
	sample.OracleLength = newLength
	return o.setSample(oracleID, sample)
}

// Observation is the cumulative state of the oracle at a point in time.
type Observation struct {
	LastUpdate           uint64
	CumulativeID         uint64
	CumulativeVolatility uint64
	CumulativeBinCrossed uint64
}

// GetSampleAt returns the cumulative values at ts, interpolating between the
// samples around it. When ts is after the latest sample, the latest sample
// is returned as is and LastUpdate tells the caller how far to extrapolate.
func (o *Oracle) GetSampleAt(oracleID uint16, ts uint64) (Observation, error) {
	active, size, err := o.ActiveSize(oracleID)
	if err != nil {
		return Observation{}, err
	}
	if size == 0 {
		return Observation{}, fmt.Errorf("%w: empty oracle", ErrInvalidOracleID)
	}

	oldest, err := o.Sample(oracleID%size + 1)
	if err != nil {
		return Observation{}, err
	}
	if oldest.LastUpdate() > ts {
		return Observation{}, fmt.Errorf("%w: %d < %d", ErrLookUpTimestampTooOld, ts, oldest.LastUpdate())
	}

	if active.LastUpdate() <= ts {
		return observe(active), nil
	}

	prev, next, err := o.binarySearch(oracleID, ts, size)
	if err != nil {
		return Observation{}, err
	}
	if prev == next {
		return observe(prev), nil
	}

	weightPrev := next.LastUpdate() - ts
	weightNext := ts - prev.LastUpdate()
	cumID, cumVol, cumBin := prev.weightedAverage(next, weightPrev, weightNext)
	return Observation{
		LastUpdate:           ts,
		CumulativeID:         cumID,
		CumulativeVolatility: cumVol,
		CumulativeBinCrossed: cumBin,
	}, nil
}

func observe(s Sample) Observation {
	return Observation{
		LastUpdate:           s.LastUpdate(),
		CumulativeID:         s.CumulativeID,
		CumulativeVolatility: s.CumulativeVolatility,
		CumulativeBinCrossed: s.CumulativeBinCrossed,
	}
}

// binarySearch finds the samples bracketing ts. Position 0 is the oldest
// sample, the slot after oracleID.
func (o *Oracle) binarySearch(oracleID uint16, ts uint64, length uint16) (Sample, Sample, error) {
	low, high := 0, int(length)-1
	var (
		sample   Sample
		id       uint16
		lastSeen uint64
	)
	for low <= high {
		mid := (low + high) / 2
		id = uint16((mid+int(oracleID))%int(length)) + 1

		var err error
		sample, err = o.Sample(id)
		if err != nil {
			return Sample{}, Sample{}, err
		}
		lastSeen = sample.LastUpdate()
		switch {
		case lastSeen > ts:
			high = mid - 1
		case lastSeen < ts:
			low = mid + 1
		default:
			return sample, sample, nil
		}
	}

	if ts < lastSeen {
		prevID := id - 1
		if id == 1 {
			prevID = length
		}
		prev, err := o.Sample(prevID)
		return prev, sample, err
	}
	next, err := o.Sample(id%length + 1)
	return sample, next, err
}

// Info summarises the oracle for queries.
type Info struct {
	SampleLifetime uint8  `json:"sample_lifetime"`
	Size           uint16 `json:"size"`
	ActiveSize     uint16 `json:"active_size"`
	LastUpdated    uint64 `json:"last_updated"`
	FirstTimestamp uint64 `json:"first_timestamp"`
}

// Info returns the ring geometry and covered time range. An inactive oracle
// reports only the sample lifetime.
func (o *Oracle) Info(oracleID uint16) (Info, error) {
	info := Info{SampleLifetime: MaxSampleLifetime}
	if oracleID == 0 {
		return info, nil
	}
	active, size, err := o.ActiveSize(oracleID)
	if err != nil {
		return info, err
	}
	info.Size = active.OracleLength
	info.ActiveSize = size
	if size == 0 {
		return info, nil
	}
	info.LastUpdated = active.LastUpdate()
	oldest, err := o.Sample(oracleID%size + 1)
	if err != nil {
		return info, err
	}
	info.FirstTimestamp = oldest.LastUpdate()
	return info, nil
}
