// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pair

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Env is the caller and block time of one call.
type Env struct {
	Sender common.Address
	Time   uint64
}

// Querier reads the collaborators the pair does not own: token balances and
// the share ledger.
type Querier interface {
	// Balance returns owner's balance of token.
	Balance(token Token, owner common.Address) (*uint256.Int, error)
	// TotalSupply returns the outstanding shares of bin id.
	TotalSupply(id uint32) (*uint256.Int, error)
	// BalanceOf returns owner's shares of bin id.
	BalanceOf(owner common.Address, id uint32) (*uint256.Int, error)
	// IsApprovedForAll reports whether spender may burn owner's shares.
	IsApprovedForAll(owner, spender common.Address) (bool, error)
}

// Transfer moves Amount of Token from the pair to To.
type Transfer struct {
	Token  Token          `json:"token"`
	To     common.Address `json:"to"`
	Amount *uint256.Int   `json:"amount"`
}

// ShareMint credits To with Amounts[i] shares of bin IDs[i].
type ShareMint struct {
	To      common.Address `json:"to"`
	IDs     []uint32       `json:"ids"`
	Amounts []*uint256.Int `json:"amounts"`
}

// ShareBurn debits From by Amounts[i] shares of bin IDs[i].
type ShareBurn struct {
	From    common.Address `json:"from"`
	IDs     []uint32       `json:"ids"`
	Amounts []*uint256.Int `json:"amounts"`
}

// Effects are the outgoing instructions of a successful call. The host
// applies them in the same transaction that commits the pair's storage.
type Effects struct {
	Transfers []Transfer  `json:"transfers,omitempty"`
	Mints     []ShareMint `json:"mints,omitempty"`
	Burns     []ShareBurn `json:"burns,omitempty"`
}

func (e *Effects) transfer(token Token, to common.Address, amount *uint256.Int) {
	if amount.IsZero() {
		return
	}
	e.Transfers = append(e.Transfers, Transfer{Token: token, To: to, Amount: amount})
}
