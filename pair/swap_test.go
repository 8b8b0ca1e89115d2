// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pair_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/luxfi/lbpair/lbmath"
	"github.com/luxfi/lbpair/packed"
	"github.com/luxfi/lbpair/pair"
)

const swapTime = genesis + 100

var (
	tenthToken = uint256.NewInt(1e17)
	// 1e17 less the 0.125% base fee, at a price of exactly 1
	tenthOut = uint256.NewInt(99_875_000_000_000_000)
	// a tenth of the base fee on 1e17
	tenthProtocolFee = uint256.NewInt(12_500_000_000_000)
)

func amountOf(a packed.Amounts, x bool) *uint256.Int {
	return packed.ToUint256(a.Get(x))
}

func TestSwapWithinActiveBin(t *testing.T) {
	tests := []struct {
		name     string
		swapForY bool
		in       pair.Token
		out      pair.Token
	}{
		{"x for y", true, tokenX, tokenY},
		{"y for x", false, tokenY, tokenX},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)
			f := newFixture(t)
			f.addLiquidity(t, genesis)

			f.send(test.in, tenthToken)
			res, err := f.pair.Swap(env(bob, swapTime), test.swapForY, bob)
			require.NoError(err)
			require.NoError(f.ledger.Apply(pairAddr, res.Effects))

			require.Equal(activeID, res.ActiveID)
			require.Equal(tenthOut, f.balance(t, test.out, bob))
			require.Equal(tenthOut, amountOf(res.AmountsOut, !test.swapForY))
			require.True(amountOf(res.AmountsOut, test.swapForY).IsZero())

			protocolFees, err := f.pair.GetProtocolFees(env(bob, swapTime))
			require.NoError(err)
			require.Equal(tenthProtocolFee, amountOf(protocolFees, test.swapForY))
			require.True(amountOf(protocolFees, !test.swapForY).IsZero())

			f.requireConsistent(t, swapTime)
		})
	}
}

func TestSwapCrossesBins(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	f.addLiquidity(t, genesis)

	three := new(uint256.Int).Mul(oneToken, uint256.NewInt(3))
	f.send(tokenX, three)
	res, err := f.pair.Swap(env(bob, swapTime), true, bob)
	require.NoError(err)
	require.NoError(f.ledger.Apply(pairAddr, res.Effects))

	require.Less(res.ActiveID, activeID)
	require.Greater(res.ActiveID, activeID-5)
	id, err := f.pair.GetActiveID(env(bob, swapTime))
	require.NoError(err)
	require.Equal(res.ActiveID, id)

	// every bin crossed now holds only X
	for crossed := res.ActiveID + 1; crossed <= activeID; crossed++ {
		reserves, err := f.pair.GetBin(env(bob, swapTime), crossed)
		require.NoError(err)
		require.True(reserves.Y.IsZero(), "bin %d", crossed)
		require.False(reserves.X.IsZero(), "bin %d", crossed)
	}

	variable, err := f.pair.GetVariableFeeParameters(env(bob, swapTime))
	require.NoError(err)
	require.NotZero(variable.VolatilityAccumulator)
	require.Equal(activeID, variable.IDReference)
	require.Equal(swapTime, variable.TimeOfLastUpdate)

	// prices fall as the swap moves down, so X bought less than 3e18 of Y
	require.True(f.balance(t, tokenY, bob).Lt(three))
	f.requireConsistent(t, swapTime)
}

func TestSwapErrorsLeaveStateUnchanged(t *testing.T) {
	tests := []struct {
		name string
		in   *uint256.Int
		err  error
	}{
		{"nothing sent", nil, pair.ErrInsufficientAmountIn},
		{"all fee", uint256.NewInt(1), pair.ErrInsufficientAmountOut},
		{"out of liquidity", uint256.MustFromDecimal("1000000000000000000000"), pair.ErrOutOfLiquidity},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)
			f := newFixture(t)
			f.addLiquidity(t, genesis)
			before, err := f.pair.GetReserves(env(bob, swapTime))
			require.NoError(err)

			if test.in != nil {
				f.send(tokenX, test.in)
			}
			_, err = f.pair.Swap(env(bob, swapTime), true, bob)
			require.ErrorIs(err, test.err)

			after, err := f.pair.GetReserves(env(bob, swapTime))
			require.NoError(err)
			require.Equal(before, after)
			id, err := f.pair.GetActiveID(env(bob, swapTime))
			require.NoError(err)
			require.Equal(activeID, id)
			variable, err := f.pair.GetVariableFeeParameters(env(bob, swapTime))
			require.NoError(err)
			require.Equal(genesis, variable.TimeOfLastUpdate)
		})
	}
}

func TestGetSwapOutMatchesSwap(t *testing.T) {
	for _, amount := range []uint64{1e17, 3e18} {
		require := require.New(t)
		f := newFixture(t)
		f.addLiquidity(t, genesis)

		quote, err := f.pair.GetSwapOut(env(bob, swapTime), uint128.From64(amount), true)
		require.NoError(err)
		require.True(quote.AmountInLeft.IsZero())

		f.send(tokenX, uint256.NewInt(amount))
		res, err := f.pair.Swap(env(bob, swapTime), true, bob)
		require.NoError(err)
		require.Equal(quote.AmountOut, res.AmountsOut.Y)
	}
}

func TestGetSwapOutPartialFill(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	f.addLiquidity(t, genesis)

	quote, err := f.pair.GetSwapOut(env(bob, swapTime), uint128.From64(1e19), false)
	require.NoError(err)
	require.False(quote.AmountInLeft.IsZero())
	require.False(quote.Fee.IsZero())

	// everything above the active bin, plus the active bin's X, is sold
	require.Equal(uint128.From64(6*perBin.Uint64()), quote.AmountOut)
}

func TestGetSwapIn(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	f.addLiquidity(t, genesis)

	quote, err := f.pair.GetSwapIn(env(bob, swapTime), uint128.FromBig(tenthOut.ToBig()), true)
	require.NoError(err)
	require.Equal(uint128.FromBig(tenthToken.ToBig()), quote.AmountIn)
	require.True(quote.AmountOutLeft.IsZero())
	require.Equal(uint128.From64(125_000_000_000_000), quote.Fee)

	huge := uint128.From64(1e19)
	quote, err = f.pair.GetSwapIn(env(bob, swapTime), huge, true)
	require.NoError(err)
	require.False(quote.AmountOutLeft.IsZero())
	require.Equal(huge.Sub64(6*perBin.Uint64()), quote.AmountOutLeft)
}

func TestPriceQueries(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	info, err := f.pair.GetPriceFromID(activeID)
	require.NoError(err)
	require.Equal(lbmath.Scale, info.Price)
	require.Equal("1", info.Decimal.String())

	id, err := f.pair.GetIDFromPrice(lbmath.Scale)
	require.NoError(err)
	require.Equal(activeID, id)

	above, err := f.pair.GetPriceFromID(activeID + 1)
	require.NoError(err)
	require.True(above.Price.Gt(info.Price))
}
