// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/lbpair/pair"
)

var (
	pairAddr = common.HexToAddress("0x0100000000000000000000000000000000000001")
	alice    = common.HexToAddress("0x0a")
	bob      = common.HexToAddress("0x0b")
	tokenX   = pair.NativeToken("ulux")
	tokenY   = pair.CustomToken(common.HexToAddress("0x0c"))
)

func TestTransfer(t *testing.T) {
	require := require.New(t)
	l := New()

	l.Mint(tokenX, alice, uint256.NewInt(100))
	require.NoError(l.Transfer(tokenX, alice, bob, uint256.NewInt(40)))

	balance, err := l.Balance(tokenX, alice)
	require.NoError(err)
	require.Equal(uint64(60), balance.Uint64())
	balance, err = l.Balance(tokenX, bob)
	require.NoError(err)
	require.Equal(uint64(40), balance.Uint64())

	require.ErrorIs(l.Transfer(tokenX, bob, alice, uint256.NewInt(41)), ErrInsufficientBalance)
	balance, err = l.Balance(tokenY, alice)
	require.NoError(err)
	require.True(balance.IsZero())
}

func TestApplyEffects(t *testing.T) {
	require := require.New(t)
	l := New()
	l.Mint(tokenX, pairAddr, uint256.NewInt(1_000))

	require.NoError(l.Apply(pairAddr, pair.Effects{
		Transfers: []pair.Transfer{{Token: tokenX, To: bob, Amount: uint256.NewInt(300)}},
		Mints: []pair.ShareMint{{
			To:      alice,
			IDs:     []uint32{7, 8},
			Amounts: []*uint256.Int{uint256.NewInt(10), uint256.NewInt(20)},
		}},
	}))

	shares, err := l.BalanceOf(alice, 8)
	require.NoError(err)
	require.Equal(uint64(20), shares.Uint64())
	supply, err := l.TotalSupply(7)
	require.NoError(err)
	require.Equal(uint64(10), supply.Uint64())
	balance, err := l.Balance(tokenX, pairAddr)
	require.NoError(err)
	require.Equal(uint64(700), balance.Uint64())

	require.NoError(l.Apply(pairAddr, pair.Effects{
		Burns: []pair.ShareBurn{{From: alice, IDs: []uint32{7}, Amounts: []*uint256.Int{uint256.NewInt(10)}}},
	}))
	supply, err = l.TotalSupply(7)
	require.NoError(err)
	require.True(supply.IsZero())
}

func TestApplyIsAtomic(t *testing.T) {
	tests := []struct {
		name    string
		effects pair.Effects
		err     error
	}{
		{
			name: "transfers exceed balance",
			effects: pair.Effects{
				Transfers: []pair.Transfer{
					{Token: tokenX, To: bob, Amount: uint256.NewInt(60)},
					{Token: tokenX, To: alice, Amount: uint256.NewInt(60)},
				},
				Mints: []pair.ShareMint{{To: alice, IDs: []uint32{1}, Amounts: []*uint256.Int{uint256.NewInt(5)}}},
			},
			err: ErrInsufficientBalance,
		},
		{
			name: "burn exceeds shares",
			effects: pair.Effects{
				Transfers: []pair.Transfer{{Token: tokenX, To: bob, Amount: uint256.NewInt(1)}},
				Burns:     []pair.ShareBurn{{From: bob, IDs: []uint32{1}, Amounts: []*uint256.Int{uint256.NewInt(1)}}},
			},
			err: ErrInsufficientShares,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)
			l := New()
			l.Mint(tokenX, pairAddr, uint256.NewInt(100))

			require.ErrorIs(l.Apply(pairAddr, test.effects), test.err)

			balance, err := l.Balance(tokenX, pairAddr)
			require.NoError(err)
			require.Equal(uint64(100), balance.Uint64())
			supply, err := l.TotalSupply(1)
			require.NoError(err)
			require.True(supply.IsZero())
		})
	}
}

func TestApprovals(t *testing.T) {
	require := require.New(t)
	l := New()

	approved, err := l.IsApprovedForAll(alice, bob)
	require.NoError(err)
	require.False(approved)

	l.ApproveForAll(alice, bob, true)
	approved, err = l.IsApprovedForAll(alice, bob)
	require.NoError(err)
	require.True(approved)

	approved, err = l.IsApprovedForAll(bob, alice)
	require.NoError(err)
	require.False(approved)
}
