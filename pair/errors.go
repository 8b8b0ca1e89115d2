// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pair

import (
	"errors"

	"github.com/luxfi/lbpair/bin"
	"github.com/luxfi/lbpair/oracle"
	"github.com/luxfi/lbpair/params"
	"github.com/luxfi/lbpair/price"
)

// Input validation errors
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmptyMarketConfigs = errors.New("empty market configs")
	ErrZeroAmount         = errors.New("zero amount")
	ErrInvalidConfig      = errors.New("invalid pair config")
	ErrUnknownMessage     = errors.New("unknown message")
	ErrIDOverflow         = price.ErrIDOverflow
)

// Economic errors
var (
	ErrInsufficientAmountIn       = errors.New("insufficient amount in")
	ErrInsufficientAmountOut      = errors.New("insufficient amount out")
	ErrOutOfLiquidity             = errors.New("out of liquidity")
	ErrZeroShares                 = errors.New("zero shares")
	ErrZeroAmountsOut             = errors.New("zero amounts out")
	ErrNotEnoughFunds             = errors.New("not enough funds")
	ErrInsufficientShares         = errors.New("insufficient shares")
	ErrMaxTotalFeeExceeded        = params.ErrMaxTotalFeeExceeded
	ErrInvalidStaticFeeParameters = params.ErrInvalidStaticFeeParameters
	ErrCompositionFactorFlawed    = bin.ErrCompositionFactorFlawed
	ErrMaxLiquidityPerBinExceeded = bin.ErrMaxLiquidityPerBinExceeded
	ErrNewLengthTooSmall          = oracle.ErrNewLengthTooSmall
	ErrLookUpTimestampTooOld      = oracle.ErrLookUpTimestampTooOld
)

// Authorization and lifecycle errors
var (
	ErrOnlyFactory              = errors.New("only factory")
	ErrOnlyProtocolFeeRecipient = errors.New("only protocol fee recipient")
	ErrSpenderNotApproved       = errors.New("spender not approved")
	ErrReentrant                = errors.New("reentrant call")
	ErrNotInitialized           = errors.New("pair not initialized")
	ErrAlreadyInitialized       = errors.New("pair already initialized")
)
