// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state provides the word-addressed storage the pair engine runs on:
// the StateDB interface, blake3 slot derivation, a journal that buffers the
// writes of one call, and a luxfi/database backed implementation.
package state

import (
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

// StateDB is the word storage shared with the host. An all-zero value means
// the slot is empty.
type StateDB interface {
	GetState(addr common.Address, key common.Hash) common.Hash
	SetState(addr common.Address, key common.Hash, value common.Hash)
}

// Key derives a storage slot from a prefix and any number of key parts.
func Key(prefix []byte, parts ...[]byte) common.Hash {
	h := blake3.New()
	h.Write(prefix)
	for _, part := range parts {
		h.Write(part)
	}
	var key common.Hash
	h.Digest().Read(key[:])
	return key
}

// Account scopes a StateDB to a single address.
type Account struct {
	db   StateDB
	addr common.Address
}

func NewAccount(db StateDB, addr common.Address) Account {
	return Account{db: db, addr: addr}
}

func (a Account) Address() common.Address { return a.addr }

func (a Account) Get(key common.Hash) common.Hash {
	return a.db.GetState(a.addr, key)
}

func (a Account) Set(key common.Hash, value common.Hash) {
	a.db.SetState(a.addr, key, value)
}
