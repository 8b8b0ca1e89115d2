// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"
	"sync"

	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
)

var _ BatchWriter = (*Database)(nil)

// Database is a StateDB persisted in a key-value store. A slot is stored
// under addr||key and empty slots are deleted.
//
// StateDB has no error returns, so the first backend failure is kept and
// reported by Err and by every later WriteBatch.
type Database struct {
	mu  sync.Mutex
	db  database.Database
	err error
}

func NewDatabase(db database.Database) *Database {
	return &Database{db: db}
}

// NewMemoryDatabase returns a Database over an in-memory store.
func NewMemoryDatabase() *Database {
	return NewDatabase(memdb.New())
}

func dbKey(addr common.Address, key common.Hash) []byte {
	k := make([]byte, 0, common.AddressLength+common.HashLength)
	k = append(k, addr[:]...)
	return append(k, key[:]...)
}

func (d *Database) GetState(addr common.Address, key common.Hash) common.Hash {
	v, err := d.db.Get(dbKey(addr, key))
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			d.setErr(err)
		}
		return common.Hash{}
	}
	return common.BytesToHash(v)
}

func (d *Database) SetState(addr common.Address, key common.Hash, value common.Hash) {
	var err error
	if value == (common.Hash{}) {
		err = d.db.Delete(dbKey(addr, key))
	} else {
		err = d.db.Put(dbKey(addr, key), value[:])
	}
	if err != nil {
		d.setErr(err)
	}
}

// WriteBatch applies writes in one database batch.
func (d *Database) WriteBatch(writes []Write) error {
	if err := d.Err(); err != nil {
		return err
	}
	batch := d.db.NewBatch()
	for _, w := range writes {
		var err error
		if w.Value == (common.Hash{}) {
			err = batch.Delete(dbKey(w.Addr, w.Key))
		} else {
			err = batch.Put(dbKey(w.Addr, w.Key), w.Value[:])
		}
		if err != nil {
			return err
		}
	}
	return batch.Write()
}

// Err returns the first backend error seen.
func (d *Database) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *Database) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err == nil {
		d.err = err
	}
}
