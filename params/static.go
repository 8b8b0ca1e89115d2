// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package params

import (
	"fmt"

	"github.com/luxfi/lbpair/lbmath"
)

// Verify checks the static parameters for a pair of the given bin step.
func (s StaticFeeParameters) Verify(binStep uint16) error {
	if s == (StaticFeeParameters{}) {
		return fmt.Errorf("%w: all parameters are zero", ErrInvalidStaticFeeParameters)
	}
	if s.ProtocolShare > lbmath.MaxProtocolShare {
		return fmt.Errorf("%w: protocol share %d", ErrInvalidStaticFeeParameters, s.ProtocolShare)
	}
	if s.FilterPeriod > s.DecayPeriod {
		return fmt.Errorf("%w: filter period %d above decay period %d",
			ErrInvalidStaticFeeParameters, s.FilterPeriod, s.DecayPeriod)
	}
	if s.ReductionFactor > lbmath.BasisPointMax {
		return fmt.Errorf("%w: reduction factor %d", ErrInvalidStaticFeeParameters, s.ReductionFactor)
	}

	// Width checks for fields narrower than their Go type.
	probe := Parameters{StaticFeeParameters: s}
	if _, err := probe.Encode(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStaticFeeParameters, err)
	}

	// The fee at full volatility must stay below the cap.
	probe.VolatilityAccumulator = s.MaxVolatilityAccumulator
	if total := probe.TotalFee(binStep); total.Gt(lbmath.MaxFee) {
		return fmt.Errorf("%w: %s at max volatility", ErrMaxTotalFeeExceeded, total.Dec())
	}
	return nil
}
