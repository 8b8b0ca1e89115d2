// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tree

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/lbpair/lbmath"
	"github.com/luxfi/lbpair/state"
)

func newTree() *Tree {
	return New(state.NewAccount(state.NewMemoryDatabase(), common.HexToAddress("0x9010")))
}

func TestAddRemoveContains(t *testing.T) {
	require := require.New(t)
	tr := newTree()

	require.False(tr.Contains(lbmath.RealIDShift))
	require.True(tr.Add(lbmath.RealIDShift))
	require.False(tr.Add(lbmath.RealIDShift))
	require.True(tr.Contains(lbmath.RealIDShift))
	require.False(tr.Contains(lbmath.RealIDShift + 1))

	require.True(tr.Remove(lbmath.RealIDShift))
	require.False(tr.Remove(lbmath.RealIDShift))
	require.False(tr.Contains(lbmath.RealIDShift))
	require.Empty(tr.IDs())
}

func TestFindNeighbours(t *testing.T) {
	tr := newTree()
	for _, id := range []uint32{0, 5, 255, 256, 70_000, lbmath.RealIDShift, lbmath.MaxBinID} {
		tr.Add(id)
	}

	tests := []struct {
		name    string
		from    uint32
		right   uint32
		rightOK bool
		left    uint32
		leftOK  bool
	}{
		{"bottom", 0, NotFoundRight, false, 5, true},
		{"same leaf", 5, 0, true, 255, true},
		{"leaf edge", 255, 5, true, 256, true},
		{"next leaf", 256, 255, true, 70_000, true},
		{"across mid words", 70_000, 256, true, lbmath.RealIDShift, true},
		{"unset id", 1_000_000, 70_000, true, lbmath.RealIDShift, true},
		{"top", lbmath.MaxBinID, lbmath.RealIDShift, true, NotFoundLeft, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			right, ok := tr.FindFirstRight(tt.from)
			require.Equal(t, tt.rightOK, ok)
			require.Equal(t, tt.right, right)

			left, ok := tr.FindFirstLeft(tt.from)
			require.Equal(t, tt.leftOK, ok)
			require.Equal(t, tt.left, left)
		})
	}
}

func TestRemoveClearsParents(t *testing.T) {
	require := require.New(t)
	tr := newTree()
	low, high := uint32(70_000), uint32(lbmath.RealIDShift+300)
	tr.Add(low)
	tr.Add(high)

	require.True(tr.Remove(high))
	id, ok := tr.FindFirstRight(lbmath.MaxBinID)
	require.True(ok)
	require.Equal(low, id)
	_, ok = tr.FindFirstLeft(low)
	require.False(ok)

	require.True(tr.Remove(low))
	_, ok = tr.FindFirstRight(lbmath.MaxBinID)
	require.False(ok)
	require.Empty(tr.IDs())
}

func TestOutOfRangeIDs(t *testing.T) {
	require := require.New(t)
	tr := newTree()
	tr.Add(lbmath.RealIDShift + 100)

	over := uint32(1<<24) + lbmath.RealIDShift + 100
	require.False(tr.Contains(over))
	require.False(tr.Add(over))
	require.False(tr.Remove(over))
	require.True(tr.Contains(lbmath.RealIDShift + 100))

	id, ok := tr.FindFirstRight(over)
	require.False(ok)
	require.Equal(NotFoundRight, id)
	id, ok = tr.FindFirstLeft(over)
	require.False(ok)
	require.Equal(NotFoundLeft, id)
	require.Equal([]uint32{lbmath.RealIDShift + 100}, tr.IDs())
}

func TestEmptyTree(t *testing.T) {
	tr := newTree()
	id, ok := tr.FindFirstRight(lbmath.RealIDShift)
	require.False(t, ok)
	require.Equal(t, NotFoundRight, id)

	id, ok = tr.FindFirstLeft(lbmath.RealIDShift)
	require.False(t, ok)
	require.Equal(t, NotFoundLeft, id)
}

// Parent bits track non-empty children through arbitrary add/remove
// sequences; checked against a sorted reference set.
func TestTreeMatchesReference(t *testing.T) {
	require := require.New(t)
	tr := newTree()
	rng := rand.New(rand.NewSource(7))
	ref := make(map[uint32]bool)

	// Cluster ids so leaf and mid words fill and empty repeatedly.
	randomID := func() uint32 {
		return uint32(lbmath.RealIDShift-2_000) + uint32(rng.Intn(4_000))
	}
	for i := 0; i < 2_000; i++ {
		id := randomID()
		if rng.Intn(3) == 0 {
			require.Equal(ref[id], tr.Remove(id))
			delete(ref, id)
		} else {
			require.Equal(!ref[id], tr.Add(id))
			ref[id] = true
		}
	}

	want := make([]uint32, 0, len(ref))
	for id := range ref {
		want = append(want, id)
	}
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
	require.Equal(want, tr.IDs())

	for i := 0; i < 500; i++ {
		from := randomID()
		idx := sort.Search(len(want), func(k int) bool { return want[k] >= from })

		right, ok := tr.FindFirstRight(from)
		if idx > 0 {
			require.True(ok)
			require.Equal(want[idx-1], right)
		} else {
			require.False(ok)
		}

		next := idx
		if next < len(want) && want[next] == from {
			next++
		}
		left, ok := tr.FindFirstLeft(from)
		if next < len(want) {
			require.True(ok)
			require.Equal(want[next], left)
		} else {
			require.False(ok)
		}
	}
}
