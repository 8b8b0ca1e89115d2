// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package tree indexes the non-empty bins of a pair in a three level bitmap:
// one root word, up to 256 mid words keyed by id>>16 and up to 65536 leaf
// words keyed by id>>8. A bit is set in a parent word iff the child word it
// covers is non-zero, so neighbour searches touch at most six words.
package tree

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/lbpair/lbmath"
	"github.com/luxfi/lbpair/packed"
	"github.com/luxfi/lbpair/state"
)

// Search results when no set id exists in the requested direction.
const (
	NotFoundRight uint32 = lbmath.MaxBinID
	NotFoundLeft  uint32 = 0
)

var (
	rootPrefix = []byte("tree0")
	midPrefix  = []byte("tree1")
	leafPrefix = []byte("tree2")
)

// Store is word storage for one pair.
type Store interface {
	Get(key common.Hash) common.Hash
	Set(key common.Hash, value common.Hash)
}

// Tree is a bitmap index over bin ids, persisted in a Store.
type Tree struct {
	store Store
}

func New(store Store) *Tree {
	return &Tree{store: store}
}

func rootKey() common.Hash {
	return state.Key(rootPrefix)
}

func midKey(index uint32) common.Hash {
	return state.Key(midPrefix, []byte{byte(index)})
}

func leafKey(index uint32) common.Hash {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(index))
	return state.Key(leafPrefix, b[:])
}

func (t *Tree) load(key common.Hash) *uint256.Int {
	return packed.Word(t.store.Get(key))
}

func (t *Tree) store256(key common.Hash, word *uint256.Int) {
	t.store.Set(key, packed.Hash(word))
}

func bit(i uint32) *uint256.Int {
	return new(uint256.Int).Lsh(uint256.NewInt(1), uint(i&0xff))
}

// unset is the mask with every bit but bit(i) set.
func unset(i uint32) *uint256.Int {
	return bit(i).Not(bit(i))
}

// Contains reports whether id is set.
func (t *Tree) Contains(id uint32) bool {
	if id > lbmath.MaxBinID {
		return false
	}
	leaves := t.load(leafKey(id >> 8))
	return !new(uint256.Int).And(leaves, bit(id)).IsZero()
}

// Add sets id and reports whether it was newly set. Ids above MaxBinID are
// never set.
func (t *Tree) Add(id uint32) bool {
	if id > lbmath.MaxBinID {
		return false
	}
	leafIndex := id >> 8
	leaves := t.load(leafKey(leafIndex))
	updated := new(uint256.Int).Or(leaves, bit(id))
	if updated.Eq(leaves) {
		return false
	}
	t.store256(leafKey(leafIndex), updated)
	if !leaves.IsZero() {
		return true
	}

	midIndex := leafIndex >> 8
	mids := t.load(midKey(midIndex))
	t.store256(midKey(midIndex), new(uint256.Int).Or(mids, bit(leafIndex)))
	if !mids.IsZero() {
		return true
	}

	root := t.load(rootKey())
	t.store256(rootKey(), root.Or(root, bit(midIndex)))
	return true
}

// Remove clears id and reports whether it was set.
func (t *Tree) Remove(id uint32) bool {
	if id > lbmath.MaxBinID {
		return false
	}
	leafIndex := id >> 8
	leaves := t.load(leafKey(leafIndex))
	updated := new(uint256.Int).And(leaves, unset(id))
	if updated.Eq(leaves) {
		return false
	}
	t.store256(leafKey(leafIndex), updated)
	if !updated.IsZero() {
		return true
	}

	midIndex := leafIndex >> 8
	mids := t.load(midKey(midIndex))
	mids.And(mids, unset(leafIndex))
	t.store256(midKey(midIndex), mids)
	if !mids.IsZero() {
		return true
	}

	root := t.load(rootKey())
	t.store256(rootKey(), root.And(root, unset(midIndex)))
	return true
}

// FindFirstRight returns the closest set id strictly below id. It finds
// nothing for ids above MaxBinID.
func (t *Tree) FindFirstRight(id uint32) (uint32, bool) {
	if id > lbmath.MaxBinID {
		return NotFoundRight, false
	}
	leafIndex := id >> 8
	if b := id & 0xff; b != 0 {
		leaves := t.load(leafKey(leafIndex))
		if found, ok := lbmath.ClosestBitRight(leaves, uint(b-1)); ok {
			return leafIndex<<8 | uint32(found), true
		}
	}

	midIndex := leafIndex >> 8
	if b := leafIndex & 0xff; b != 0 {
		mids := t.load(midKey(midIndex))
		if found, ok := lbmath.ClosestBitRight(mids, uint(b-1)); ok {
			return t.highestInLeaf(midIndex<<8 | uint32(found)), true
		}
	}

	if midIndex != 0 {
		root := t.load(rootKey())
		if found, ok := lbmath.ClosestBitRight(root, uint(midIndex-1)); ok {
			mids := t.load(midKey(uint32(found)))
			return t.highestInLeaf(uint32(found)<<8 | uint32(lbmath.MostSignificantBit(mids))), true
		}
	}
	return NotFoundRight, false
}

// FindFirstLeft returns the closest set id strictly above id.
func (t *Tree) FindFirstLeft(id uint32) (uint32, bool) {
	if id >= lbmath.MaxBinID {
		return NotFoundLeft, false
	}
	leafIndex := id >> 8
	if b := id & 0xff; b != 0xff {
		leaves := t.load(leafKey(leafIndex))
		if found, ok := lbmath.ClosestBitLeft(leaves, uint(b+1)); ok {
			return leafIndex<<8 | uint32(found), true
		}
	}

	midIndex := leafIndex >> 8
	if b := leafIndex & 0xff; b != 0xff {
		mids := t.load(midKey(midIndex))
		if found, ok := lbmath.ClosestBitLeft(mids, uint(b+1)); ok {
			return t.lowestInLeaf(midIndex<<8 | uint32(found)), true
		}
	}

	if midIndex != 0xff {
		root := t.load(rootKey())
		if found, ok := lbmath.ClosestBitLeft(root, uint(midIndex+1)); ok {
			mids := t.load(midKey(uint32(found)))
			return t.lowestInLeaf(uint32(found)<<8 | uint32(lbmath.LeastSignificantBit(mids))), true
		}
	}
	return NotFoundLeft, false
}

func (t *Tree) highestInLeaf(leafIndex uint32) uint32 {
	leaves := t.load(leafKey(leafIndex))
	return leafIndex<<8 | uint32(lbmath.MostSignificantBit(leaves))
}

func (t *Tree) lowestInLeaf(leafIndex uint32) uint32 {
	leaves := t.load(leafKey(leafIndex))
	return leafIndex<<8 | uint32(lbmath.LeastSignificantBit(leaves))
}

// IDs returns every set id in ascending order.
func (t *Tree) IDs() []uint32 {
	var ids []uint32
	id := uint32(0)
	if !t.Contains(0) {
		next, ok := t.FindFirstLeft(0)
		if !ok {
			return nil
		}
		id = next
	}
	for {
		ids = append(ids, id)
		next, ok := t.FindFirstLeft(id)
		if !ok {
			return ids
		}
		id = next
	}
}
