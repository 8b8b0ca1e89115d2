// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"github.com/luxfi/geth/common"
)

// Write is one buffered slot update.
type Write struct {
	Addr  common.Address
	Key   common.Hash
	Value common.Hash
}

// BatchWriter is implemented by backends that can apply a set of writes
// atomically.
type BatchWriter interface {
	WriteBatch(writes []Write) error
}

type slot struct {
	addr common.Address
	key  common.Hash
}

// Journal buffers writes over a parent StateDB. Reads see the buffered
// writes. Nothing reaches the parent until Commit.
type Journal struct {
	parent StateDB
	dirty  map[slot]common.Hash
	order  []slot
}

func NewJournal(parent StateDB) *Journal {
	return &Journal{
		parent: parent,
		dirty:  make(map[slot]common.Hash),
	}
}

func (j *Journal) GetState(addr common.Address, key common.Hash) common.Hash {
	if v, ok := j.dirty[slot{addr, key}]; ok {
		return v
	}
	return j.parent.GetState(addr, key)
}

func (j *Journal) SetState(addr common.Address, key common.Hash, value common.Hash) {
	s := slot{addr, key}
	if _, ok := j.dirty[s]; !ok {
		j.order = append(j.order, s)
	}
	j.dirty[s] = value
}

// Len returns the number of distinct slots written.
func (j *Journal) Len() int { return len(j.order) }

// Writes returns the buffered writes in first-write order.
func (j *Journal) Writes() []Write {
	writes := make([]Write, 0, len(j.order))
	for _, s := range j.order {
		writes = append(writes, Write{Addr: s.addr, Key: s.key, Value: j.dirty[s]})
	}
	return writes
}

// Commit flushes the buffered writes to the parent, atomically when the
// parent is a BatchWriter, and resets the journal.
func (j *Journal) Commit() error {
	writes := j.Writes()
	j.Discard()
	if bw, ok := j.parent.(BatchWriter); ok {
		return bw.WriteBatch(writes)
	}
	for _, w := range writes {
		j.parent.SetState(w.Addr, w.Key, w.Value)
	}
	return nil
}

// Discard drops every buffered write.
func (j *Journal) Discard() {
	j.dirty = make(map[slot]common.Hash)
	j.order = nil
}
