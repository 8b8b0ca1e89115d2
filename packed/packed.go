// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package packed provides the 256-bit word encodings shared by the pair
// storage: bit-field access for parameter and oracle sample words, and the
// Amounts pair of 128-bit token quantities.
package packed

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

var (
	ErrValueTooLarge = errors.New("packed: value does not fit field")
	ErrInvalidField  = errors.New("packed: invalid field")
)

// Word returns the storage word h as an integer.
func Word(h common.Hash) *uint256.Int {
	return new(uint256.Int).SetBytes32(h[:])
}

// Hash returns w as a big-endian storage word.
func Hash(w *uint256.Int) common.Hash {
	return common.Hash(w.Bytes32())
}

// Bits extracts the width-bit field at offset. width must be at most 64.
func Bits(word *uint256.Int, offset, width uint) uint64 {
	field := new(uint256.Int).Rsh(word, offset)
	if width < 64 {
		field.And(field, uint256.NewInt(1<<width-1))
	}
	return field.Uint64()
}

// SetBits overwrites the width-bit field at offset with value.
func SetBits(word *uint256.Int, value uint64, offset, width uint) error {
	if width == 0 || width > 64 || offset+width > 256 {
		return fmt.Errorf("%w: offset=%d width=%d", ErrInvalidField, offset, width)
	}
	if width < 64 && value>>width != 0 {
		return fmt.Errorf("%w: %d exceeds %d bits", ErrValueTooLarge, value, width)
	}

	mask := uint256.NewInt(^uint64(0))
	if width < 64 {
		mask.SetUint64(1<<width - 1)
	}
	mask.Lsh(mask, offset)
	word.And(word, new(uint256.Int).Not(mask))
	word.Or(word, new(uint256.Int).Lsh(uint256.NewInt(value), offset))
	return nil
}
