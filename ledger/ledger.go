// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger is an in-memory host for one pair: a token bank and the
// bin share ledger. It answers the pair's queries and applies the effects
// of successful calls.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/lbpair/pair"
)

var (
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	ErrInsufficientShares  = errors.New("ledger: insufficient shares")
)

var _ pair.Querier = (*Ledger)(nil)

type Ledger struct {
	mu sync.RWMutex

	balances  map[pair.Token]map[common.Address]*uint256.Int
	shares    map[uint32]map[common.Address]*uint256.Int
	supply    map[uint32]*uint256.Int
	approvals map[common.Address]map[common.Address]bool
}

func New() *Ledger {
	return &Ledger{
		balances:  make(map[pair.Token]map[common.Address]*uint256.Int),
		shares:    make(map[uint32]map[common.Address]*uint256.Int),
		supply:    make(map[uint32]*uint256.Int),
		approvals: make(map[common.Address]map[common.Address]bool),
	}
}

func get[K comparable](m map[K]*uint256.Int, k K) *uint256.Int {
	if v, ok := m[k]; ok {
		return new(uint256.Int).Set(v)
	}
	return new(uint256.Int)
}

// Balance implements pair.Querier.
func (l *Ledger) Balance(token pair.Token, owner common.Address) (*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return get(l.balances[token], owner), nil
}

// TotalSupply implements pair.Querier.
func (l *Ledger) TotalSupply(id uint32) (*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return get(l.supply, id), nil
}

// BalanceOf implements pair.Querier.
func (l *Ledger) BalanceOf(owner common.Address, id uint32) (*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return get(l.shares[id], owner), nil
}

// IsApprovedForAll implements pair.Querier.
func (l *Ledger) IsApprovedForAll(owner, spender common.Address) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.approvals[owner][spender], nil
}

// ApproveForAll lets spender burn all of owner's shares.
func (l *Ledger) ApproveForAll(owner, spender common.Address, approved bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.approvals[owner] == nil {
		l.approvals[owner] = make(map[common.Address]bool)
	}
	l.approvals[owner][spender] = approved
}

// Mint creates amount of token for to.
func (l *Ledger) Mint(token pair.Token, to common.Address, amount *uint256.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(token, to, amount)
}

// Transfer moves amount of token from one account to another.
func (l *Ledger) Transfer(token pair.Token, from, to common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if get(l.balances[token], from).Lt(amount) {
		return fmt.Errorf("%w: %s of %s", ErrInsufficientBalance, from.Hex(), token)
	}
	l.debit(token, from, amount)
	l.credit(token, to, amount)
	return nil
}

// Apply executes the effects of one call made by the pair at from. Nothing
// is applied unless every transfer and burn is covered.
func (l *Ledger) Apply(from common.Address, effects pair.Effects) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	outgoing := make(map[pair.Token]*uint256.Int)
	for _, t := range effects.Transfers {
		if _, ok := outgoing[t.Token]; !ok {
			outgoing[t.Token] = new(uint256.Int)
		}
		outgoing[t.Token].Add(outgoing[t.Token], t.Amount)
	}
	for token, total := range outgoing {
		if get(l.balances[token], from).Lt(total) {
			return fmt.Errorf("%w: pair %s of %s", ErrInsufficientBalance, from.Hex(), token)
		}
	}

	burning := make(map[common.Address]map[uint32]*uint256.Int)
	for _, b := range effects.Burns {
		if burning[b.From] == nil {
			burning[b.From] = make(map[uint32]*uint256.Int)
		}
		for i, id := range b.IDs {
			total := get(burning[b.From], id)
			burning[b.From][id] = total.Add(total, b.Amounts[i])
		}
	}
	for owner, ids := range burning {
		for id, total := range ids {
			if get(l.shares[id], owner).Lt(total) {
				return fmt.Errorf("%w: %s in bin %d", ErrInsufficientShares, owner.Hex(), id)
			}
		}
	}

	for _, b := range effects.Burns {
		for i, id := range b.IDs {
			if l.shares[id] == nil {
				l.shares[id] = make(map[common.Address]*uint256.Int)
			}
			balance := get(l.shares[id], b.From)
			l.shares[id][b.From] = balance.Sub(balance, b.Amounts[i])
			supply := get(l.supply, id)
			l.supply[id] = supply.Sub(supply, b.Amounts[i])
		}
	}
	for _, m := range effects.Mints {
		for i, id := range m.IDs {
			if l.shares[id] == nil {
				l.shares[id] = make(map[common.Address]*uint256.Int)
			}
			balance := get(l.shares[id], m.To)
			l.shares[id][m.To] = balance.Add(balance, m.Amounts[i])
			supply := get(l.supply, id)
			l.supply[id] = supply.Add(supply, m.Amounts[i])
		}
	}
	for _, t := range effects.Transfers {
		l.debit(t.Token, from, t.Amount)
		l.credit(t.Token, t.To, t.Amount)
	}
	return nil
}

func (l *Ledger) credit(token pair.Token, to common.Address, amount *uint256.Int) {
	if l.balances[token] == nil {
		l.balances[token] = make(map[common.Address]*uint256.Int)
	}
	balance := get(l.balances[token], to)
	l.balances[token][to] = balance.Add(balance, amount)
}

func (l *Ledger) debit(token pair.Token, from common.Address, amount *uint256.Int) {
	balance := get(l.balances[token], from)
	l.balances[token][from] = balance.Sub(balance, amount)
}
