// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pair

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/lbpair/bin"
	"github.com/luxfi/lbpair/packed"
	"github.com/luxfi/lbpair/params"
)

// ExecuteMsg is the JSON envelope of a state changing call. Exactly one
// field is set.
type ExecuteMsg struct {
	Swap                   *SwapMsg                    `json:"swap,omitempty"`
	Mint                   *MintMsg                    `json:"mint,omitempty"`
	Burn                   *BurnMsg                    `json:"burn,omitempty"`
	CollectProtocolFees    *struct{}                   `json:"collect_protocol_fees,omitempty"`
	IncreaseOracleLength   *IncreaseOracleLengthMsg    `json:"increase_oracle_length,omitempty"`
	SetStaticFeeParameters *params.StaticFeeParameters `json:"set_static_fee_parameters,omitempty"`
	ForceDecay             *struct{}                   `json:"force_decay,omitempty"`
}

type SwapMsg struct {
	SwapForY bool           `json:"swap_for_y"`
	To       common.Address `json:"to"`
}

type MintMsg struct {
	To               common.Address        `json:"to"`
	LiquidityConfigs []bin.LiquidityConfig `json:"liquidity_configs"`
	RefundTo         common.Address        `json:"refund_to"`
}

type BurnMsg struct {
	From          common.Address `json:"from"`
	To            common.Address `json:"to"`
	IDs           []uint32       `json:"ids"`
	AmountsToBurn []*uint256.Int `json:"amounts_to_burn"`
}

type IncreaseOracleLengthMsg struct {
	NewLength uint16 `json:"new_length"`
}

// QueryMsg is the JSON envelope of a read-only call. Exactly one field is
// set.
type QueryMsg struct {
	GetReserves              *struct{}             `json:"get_reserves,omitempty"`
	GetProtocolFees          *struct{}             `json:"get_protocol_fees,omitempty"`
	GetActiveID              *struct{}             `json:"get_active_id,omitempty"`
	GetBin                   *BinQuery             `json:"get_bin,omitempty"`
	GetBins                  *BinsQuery            `json:"get_bins,omitempty"`
	GetAllBins               *AllBinsQuery         `json:"get_all_bins,omitempty"`
	GetNextNonEmptyBin       *NextNonEmptyBinQuery `json:"get_next_non_empty_bin,omitempty"`
	GetStaticFeeParameters   *struct{}             `json:"get_static_fee_parameters,omitempty"`
	GetVariableFeeParameters *struct{}             `json:"get_variable_fee_parameters,omitempty"`
	GetOracleParameters      *struct{}             `json:"get_oracle_parameters,omitempty"`
	GetOracleSampleAt        *OracleSampleQuery    `json:"get_oracle_sample_at,omitempty"`
	GetPriceFromID           *BinQuery             `json:"get_price_from_id,omitempty"`
	GetIDFromPrice           *IDFromPriceQuery     `json:"get_id_from_price,omitempty"`
	GetSwapIn                *SwapInQuery          `json:"get_swap_in,omitempty"`
	GetSwapOut               *SwapOutQuery         `json:"get_swap_out,omitempty"`
	GetTokens                *struct{}             `json:"get_tokens,omitempty"`
	GetBinStep               *struct{}             `json:"get_bin_step,omitempty"`
	GetFactory               *struct{}             `json:"get_factory,omitempty"`
}

type BinQuery struct {
	ID uint32 `json:"id"`
}

type BinsQuery struct {
	IDs []uint32 `json:"ids"`
}

type AllBinsQuery struct {
	Page     uint32 `json:"page"`
	PageSize uint32 `json:"page_size"`
}

type NextNonEmptyBinQuery struct {
	SwapForY bool   `json:"swap_for_y"`
	ID       uint32 `json:"id"`
}

type OracleSampleQuery struct {
	LookupTimestamp uint64 `json:"lookup_timestamp"`
}

type IDFromPriceQuery struct {
	Price *uint256.Int `json:"price"`
}

// SwapInQuery and SwapOutQuery carry u128 amounts as decimal strings.
type SwapInQuery struct {
	AmountOut string `json:"amount_out"`
	SwapForY  bool   `json:"swap_for_y"`
}

type SwapOutQuery struct {
	AmountIn string `json:"amount_in"`
	SwapForY bool   `json:"swap_for_y"`
}

// Response is the result of an executed message.
type Response struct {
	Data    json.RawMessage `json:"data,omitempty"`
	Effects Effects         `json:"effects"`
}

type reservesResponse struct {
	ReserveX string `json:"reserve_x"`
	ReserveY string `json:"reserve_y"`
}

type activeIDResponse struct {
	ActiveID uint32 `json:"active_id"`
}

type binResponse struct {
	ID       uint32 `json:"id"`
	ReserveX string `json:"reserve_x"`
	ReserveY string `json:"reserve_y"`
}

type nextNonEmptyBinResponse struct {
	NextID uint32 `json:"next_id"`
}

type priceResponse struct {
	Price        *uint256.Int `json:"price"`
	DecimalPrice string       `json:"decimal_price"`
}

type idResponse struct {
	ID uint32 `json:"id"`
}

type swapInResponse struct {
	AmountIn      string `json:"amount_in"`
	AmountOutLeft string `json:"amount_out_left"`
	Fee           string `json:"fee"`
}

type swapOutResponse struct {
	AmountInLeft string `json:"amount_in_left"`
	AmountOut    string `json:"amount_out"`
	Fee          string `json:"fee"`
}

type tokensResponse struct {
	TokenX Token `json:"token_x"`
	TokenY Token `json:"token_y"`
}

type binStepResponse struct {
	BinStep uint16 `json:"bin_step"`
}

type factoryResponse struct {
	Factory common.Address `json:"factory"`
}

type collectResponse struct {
	CollectedX string `json:"collected_x"`
	CollectedY string `json:"collected_y"`
}

func reservesOf(a packed.Amounts) reservesResponse {
	return reservesResponse{ReserveX: a.X.String(), ReserveY: a.Y.String()}
}

func binInfo(b BinInfo) binResponse {
	return binResponse{ID: b.ID, ReserveX: b.Reserves.X.String(), ReserveY: b.Reserves.Y.String()}
}

func countSet(fields ...bool) int {
	n := 0
	for _, set := range fields {
		if set {
			n++
		}
	}
	return n
}

// Execute decodes an ExecuteMsg and runs it.
func (p *Pair) Execute(env Env, raw []byte) (*Response, error) {
	var msg ExecuteMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if countSet(msg.Swap != nil, msg.Mint != nil, msg.Burn != nil, msg.CollectProtocolFees != nil,
		msg.IncreaseOracleLength != nil, msg.SetStaticFeeParameters != nil, msg.ForceDecay != nil) != 1 {
		return nil, ErrUnknownMessage
	}

	var (
		data    any
		effects Effects
	)
	switch {
	case msg.Swap != nil:
		res, err := p.Swap(env, msg.Swap.SwapForY, msg.Swap.To)
		if err != nil {
			return nil, err
		}
		data, effects = res, res.Effects
	case msg.Mint != nil:
		res, err := p.Mint(env, msg.Mint.To, msg.Mint.LiquidityConfigs, msg.Mint.RefundTo)
		if err != nil {
			return nil, err
		}
		data, effects = res, res.Effects
	case msg.Burn != nil:
		res, err := p.Burn(env, msg.Burn.From, msg.Burn.To, msg.Burn.IDs, msg.Burn.AmountsToBurn)
		if err != nil {
			return nil, err
		}
		data, effects = res, res.Effects
	case msg.CollectProtocolFees != nil:
		collected, eff, err := p.CollectProtocolFees(env)
		if err != nil {
			return nil, err
		}
		data = collectResponse{CollectedX: collected.X.String(), CollectedY: collected.Y.String()}
		effects = eff
	case msg.IncreaseOracleLength != nil:
		if err := p.IncreaseOracleLength(env, msg.IncreaseOracleLength.NewLength); err != nil {
			return nil, err
		}
	case msg.SetStaticFeeParameters != nil:
		if err := p.SetStaticFeeParameters(env, *msg.SetStaticFeeParameters); err != nil {
			return nil, err
		}
	case msg.ForceDecay != nil:
		if err := p.ForceDecay(env); err != nil {
			return nil, err
		}
	}

	resp := &Response{Effects: effects}
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		resp.Data = encoded
	}
	return resp, nil
}

// Query decodes a QueryMsg, runs it and returns the JSON encoded answer.
func (p *Pair) Query(env Env, raw []byte) ([]byte, error) {
	var msg QueryMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if countSet(msg.GetReserves != nil, msg.GetProtocolFees != nil, msg.GetActiveID != nil,
		msg.GetBin != nil, msg.GetBins != nil, msg.GetAllBins != nil, msg.GetNextNonEmptyBin != nil,
		msg.GetStaticFeeParameters != nil, msg.GetVariableFeeParameters != nil,
		msg.GetOracleParameters != nil, msg.GetOracleSampleAt != nil, msg.GetPriceFromID != nil,
		msg.GetIDFromPrice != nil, msg.GetSwapIn != nil, msg.GetSwapOut != nil,
		msg.GetTokens != nil, msg.GetBinStep != nil, msg.GetFactory != nil) != 1 {
		return nil, ErrUnknownMessage
	}

	data, err := p.query(env, &msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(data)
}

func (p *Pair) query(env Env, msg *QueryMsg) (any, error) {
	switch {
	case msg.GetReserves != nil:
		r, err := p.GetReserves(env)
		if err != nil {
			return nil, err
		}
		return reservesOf(r), nil
	case msg.GetProtocolFees != nil:
		f, err := p.GetProtocolFees(env)
		if err != nil {
			return nil, err
		}
		return reservesOf(f), nil
	case msg.GetActiveID != nil:
		id, err := p.GetActiveID(env)
		if err != nil {
			return nil, err
		}
		return activeIDResponse{ActiveID: id}, nil
	case msg.GetBin != nil:
		r, err := p.GetBin(env, msg.GetBin.ID)
		if err != nil {
			return nil, err
		}
		return binInfo(BinInfo{ID: msg.GetBin.ID, Reserves: r}), nil
	case msg.GetBins != nil:
		return p.binsResponse(p.GetBins(env, msg.GetBins.IDs))
	case msg.GetAllBins != nil:
		return p.binsResponse(p.GetAllBins(env, msg.GetAllBins.Page, msg.GetAllBins.PageSize))
	case msg.GetNextNonEmptyBin != nil:
		id, err := p.GetNextNonEmptyBin(env, msg.GetNextNonEmptyBin.SwapForY, msg.GetNextNonEmptyBin.ID)
		if err != nil {
			return nil, err
		}
		return nextNonEmptyBinResponse{NextID: id}, nil
	case msg.GetStaticFeeParameters != nil:
		return p.GetStaticFeeParameters(env)
	case msg.GetVariableFeeParameters != nil:
		return p.GetVariableFeeParameters(env)
	case msg.GetOracleParameters != nil:
		return p.GetOracleParameters(env)
	case msg.GetOracleSampleAt != nil:
		return p.GetOracleSampleAt(env, msg.GetOracleSampleAt.LookupTimestamp)
	case msg.GetPriceFromID != nil:
		info, err := p.GetPriceFromID(msg.GetPriceFromID.ID)
		if err != nil {
			return nil, err
		}
		return priceResponse{Price: info.Price, DecimalPrice: info.Decimal.String()}, nil
	case msg.GetIDFromPrice != nil:
		if msg.GetIDFromPrice.Price == nil {
			return nil, fmt.Errorf("%w: missing price", ErrInvalidInput)
		}
		id, err := p.GetIDFromPrice(msg.GetIDFromPrice.Price)
		if err != nil {
			return nil, err
		}
		return idResponse{ID: id}, nil
	case msg.GetSwapIn != nil:
		amountOut, err := packed.ParseUint128(msg.GetSwapIn.AmountOut)
		if err != nil {
			return nil, fmt.Errorf("%w: amount_out: %v", ErrInvalidInput, err)
		}
		q, err := p.GetSwapIn(env, amountOut, msg.GetSwapIn.SwapForY)
		if err != nil {
			return nil, err
		}
		return swapInResponse{AmountIn: q.AmountIn.String(), AmountOutLeft: q.AmountOutLeft.String(), Fee: q.Fee.String()}, nil
	case msg.GetSwapOut != nil:
		amountIn, err := packed.ParseUint128(msg.GetSwapOut.AmountIn)
		if err != nil {
			return nil, fmt.Errorf("%w: amount_in: %v", ErrInvalidInput, err)
		}
		q, err := p.GetSwapOut(env, amountIn, msg.GetSwapOut.SwapForY)
		if err != nil {
			return nil, err
		}
		return swapOutResponse{AmountInLeft: q.AmountInLeft.String(), AmountOut: q.AmountOut.String(), Fee: q.Fee.String()}, nil
	case msg.GetTokens != nil:
		x, y := p.GetTokens()
		return tokensResponse{TokenX: x, TokenY: y}, nil
	case msg.GetBinStep != nil:
		return binStepResponse{BinStep: p.GetBinStep()}, nil
	default:
		return factoryResponse{Factory: p.GetFactory()}, nil
	}
}

func (p *Pair) binsResponse(bins []BinInfo, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	out := make([]binResponse, 0, len(bins))
	for _, b := range bins {
		out = append(out, binInfo(b))
	}
	return out, nil
}
