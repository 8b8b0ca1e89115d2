// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pair

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/shopspring/decimal"

	"github.com/luxfi/lbpair/lbmath"
	"github.com/luxfi/lbpair/oracle"
	"github.com/luxfi/lbpair/packed"
	"github.com/luxfi/lbpair/params"
	"github.com/luxfi/lbpair/price"
	"github.com/luxfi/lbpair/tree"
)

// BinInfo is the reserves of one bin.
type BinInfo struct {
	ID       uint32         `json:"id"`
	Reserves packed.Amounts `json:"reserves"`
}

// VariableFeeParameters is the dynamic part of the parameters.
type VariableFeeParameters struct {
	VolatilityAccumulator uint32 `json:"volatility_accumulator"`
	VolatilityReference   uint32 `json:"volatility_reference"`
	IDReference           uint32 `json:"id_reference"`
	TimeOfLastUpdate      uint64 `json:"time_of_last_update"`
}

// OracleSample is a cumulative oracle observation.
type OracleSample struct {
	CumulativeID         uint64 `json:"cumulative_id"`
	CumulativeVolatility uint64 `json:"cumulative_volatility"`
	CumulativeBinCrossed uint64 `json:"cumulative_bin_crossed"`
}

// PriceInfo is a bin price in 128.128 and decimal form.
type PriceInfo struct {
	Price   *uint256.Int    `json:"price"`
	Decimal decimal.Decimal `json:"decimal"`
}

// GetReserves returns the reserves available to swaps and withdrawals,
// excluding protocol fees.
func (p *Pair) GetReserves(env Env) (packed.Amounts, error) {
	tx, err := p.view(env)
	if err != nil {
		return packed.Amounts{}, err
	}
	return tx.reserves().Sub(tx.protocolFees())
}

func (p *Pair) GetProtocolFees(env Env) (packed.Amounts, error) {
	tx, err := p.view(env)
	if err != nil {
		return packed.Amounts{}, err
	}
	return tx.protocolFees(), nil
}

func (p *Pair) GetActiveID(env Env) (uint32, error) {
	tx, err := p.view(env)
	if err != nil {
		return 0, err
	}
	return tx.parameters().ActiveID, nil
}

// GetBin returns the reserves of bin id. Unused bins are empty.
func (p *Pair) GetBin(env Env, id uint32) (packed.Amounts, error) {
	if id > lbmath.MaxBinID {
		return packed.Amounts{}, fmt.Errorf("%w: %d", ErrIDOverflow, id)
	}
	tx, err := p.view(env)
	if err != nil {
		return packed.Amounts{}, err
	}
	return tx.bin(id), nil
}

func (p *Pair) GetBins(env Env, ids []uint32) ([]BinInfo, error) {
	tx, err := p.view(env)
	if err != nil {
		return nil, err
	}
	bins := make([]BinInfo, 0, len(ids))
	for _, id := range ids {
		if id > lbmath.MaxBinID {
			return nil, fmt.Errorf("%w: %d", ErrIDOverflow, id)
		}
		bins = append(bins, BinInfo{ID: id, Reserves: tx.bin(id)})
	}
	return bins, nil
}

// GetAllBins pages through the non-empty bins in ascending id order. Pages
// are zero based.
func (p *Pair) GetAllBins(env Env, page, pageSize uint32) ([]BinInfo, error) {
	if pageSize == 0 {
		return nil, fmt.Errorf("%w: zero page size", ErrInvalidInput)
	}
	tx, err := p.view(env)
	if err != nil {
		return nil, err
	}

	ids := tx.tree.IDs()
	start := uint64(page) * uint64(pageSize)
	if start >= uint64(len(ids)) {
		return []BinInfo{}, nil
	}
	end := min(start+uint64(pageSize), uint64(len(ids)))

	bins := make([]BinInfo, 0, end-start)
	for _, id := range ids[start:end] {
		bins = append(bins, BinInfo{ID: id, Reserves: tx.bin(id)})
	}
	return bins, nil
}

// GetNextNonEmptyBin returns the next non-empty bin after id in the swap
// direction, or tree.NotFoundRight / tree.NotFoundLeft when there is none.
func (p *Pair) GetNextNonEmptyBin(env Env, swapForY bool, id uint32) (uint32, error) {
	if id > lbmath.MaxBinID {
		return 0, fmt.Errorf("%w: %d", ErrIDOverflow, id)
	}
	tx, err := p.view(env)
	if err != nil {
		return 0, err
	}
	next, ok := tx.nextNonEmptyBin(swapForY, id)
	if !ok {
		if swapForY {
			return tree.NotFoundRight, nil
		}
		return tree.NotFoundLeft, nil
	}
	return next, nil
}

func (p *Pair) GetStaticFeeParameters(env Env) (params.StaticFeeParameters, error) {
	tx, err := p.view(env)
	if err != nil {
		return params.StaticFeeParameters{}, err
	}
	return tx.parameters().StaticFeeParameters, nil
}

func (p *Pair) GetVariableFeeParameters(env Env) (VariableFeeParameters, error) {
	tx, err := p.view(env)
	if err != nil {
		return VariableFeeParameters{}, err
	}
	pp := tx.parameters()
	return VariableFeeParameters{
		VolatilityAccumulator: pp.VolatilityAccumulator,
		VolatilityReference:   pp.VolatilityReference,
		IDReference:           pp.IDReference,
		TimeOfLastUpdate:      pp.TimeOfLastUpdate,
	}, nil
}

func (p *Pair) GetOracleParameters(env Env) (oracle.Info, error) {
	tx, err := p.view(env)
	if err != nil {
		return oracle.Info{}, err
	}
	return tx.oracle.Info(tx.parameters().OracleID)
}

// GetOracleSampleAt returns the cumulative values at ts. Past the latest
// sample the values are extrapolated with the current active id and the
// volatility accumulator as it would be at ts. An inactive oracle or a
// future ts gives zeros.
func (p *Pair) GetOracleSampleAt(env Env, ts uint64) (OracleSample, error) {
	tx, err := p.view(env)
	if err != nil {
		return OracleSample{}, err
	}
	pp := tx.parameters()
	if pp.OracleID == 0 || ts > env.Time {
		return OracleSample{}, nil
	}

	obs, err := tx.oracle.GetSampleAt(pp.OracleID, ts)
	if err != nil {
		return OracleSample{}, err
	}
	sample := OracleSample{
		CumulativeID:         obs.CumulativeID,
		CumulativeVolatility: obs.CumulativeVolatility,
		CumulativeBinCrossed: obs.CumulativeBinCrossed,
	}
	if obs.LastUpdate < ts {
		pp.UpdateReferences(ts)
		pp.UpdateVolatilityAccumulator(pp.ActiveID)
		dt := ts - obs.LastUpdate
		sample.CumulativeID += uint64(pp.ActiveID) * dt
		sample.CumulativeVolatility += uint64(pp.VolatilityAccumulator) * dt
	}
	return sample, nil
}

func (p *Pair) GetPriceFromID(id uint32) (PriceInfo, error) {
	pr, err := price.GetPriceFromID(id, p.cfg.BinStep)
	if err != nil {
		return PriceInfo{}, err
	}
	return PriceInfo{Price: pr, Decimal: price.ToDecimal(pr)}, nil
}

func (p *Pair) GetIDFromPrice(pr *uint256.Int) (uint32, error) {
	return price.GetIDFromPrice(pr, p.cfg.BinStep)
}

func (p *Pair) GetTokens() (Token, Token) { return p.cfg.TokenX, p.cfg.TokenY }

func (p *Pair) GetBinStep() uint16 { return p.cfg.BinStep }

func (p *Pair) GetFactory() common.Address { return p.cfg.Factory }
