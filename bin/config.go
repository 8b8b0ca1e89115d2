// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bin

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/luxfi/lbpair/lbmath"
	"github.com/luxfi/lbpair/packed"
)

var ErrInvalidDistribution = errors.New("bin: distribution exceeds precision")

// LiquidityConfig places a fraction of a deposit into one bin. Distributions
// are parts per 1e18 of the total deposited X and Y.
type LiquidityConfig struct {
	ID            uint32 `json:"id"`
	DistributionX uint64 `json:"distribution_x"`
	DistributionY uint64 `json:"distribution_y"`
}

// AmountsAndID returns the share of amountsIn this config places in its bin.
func (c LiquidityConfig) AmountsAndID(amountsIn packed.Amounts) (packed.Amounts, uint32, error) {
	if c.DistributionX > lbmath.Precision.Uint64() || c.DistributionY > lbmath.Precision.Uint64() {
		return packed.Amounts{}, 0, fmt.Errorf("%w: id=%d", ErrInvalidDistribution, c.ID)
	}
	x, err := lbmath.MulDivRoundDown(amountsIn.XInt(), uint256.NewInt(c.DistributionX), lbmath.Precision)
	if err != nil {
		return packed.Amounts{}, 0, err
	}
	y, err := lbmath.MulDivRoundDown(amountsIn.YInt(), uint256.NewInt(c.DistributionY), lbmath.Precision)
	if err != nil {
		return packed.Amounts{}, 0, err
	}
	amounts, err := packed.AmountsFromUint256(x, y)
	if err != nil {
		return packed.Amounts{}, 0, err
	}
	return amounts, c.ID, nil
}
