// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package packed

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"lukechampine.com/uint128"
)

var (
	ErrAmountsOverflow   = errors.New("packed: amounts overflow")
	ErrAmountsUnderflow  = errors.New("packed: amounts underflow")
	ErrUint128Overflow   = errors.New("packed: value exceeds 128 bits")
	ErrInvalidMultiplier = errors.New("packed: multiplier exceeds basis point max")
)

const basisPointMax = 10_000

// Amounts is a pair of token X and token Y quantities. Encoded into one word,
// X occupies the low 128 bits and Y the high 128 bits.
type Amounts struct {
	X uint128.Uint128
	Y uint128.Uint128
}

// NewAmounts builds Amounts from 64-bit quantities.
func NewAmounts(x, y uint64) Amounts {
	return Amounts{X: uint128.From64(x), Y: uint128.From64(y)}
}

// AmountsFromUint256 builds Amounts, rejecting components wider than 128 bits.
func AmountsFromUint256(x, y *uint256.Int) (Amounts, error) {
	x128, err := ToUint128(x)
	if err != nil {
		return Amounts{}, err
	}
	y128, err := ToUint128(y)
	if err != nil {
		return Amounts{}, err
	}
	return Amounts{X: x128, Y: y128}, nil
}

// DecodeAmounts unpacks a storage word.
func DecodeAmounts(h common.Hash) Amounts {
	w := Word(h)
	return Amounts{
		X: uint128.New(w[0], w[1]),
		Y: uint128.New(w[2], w[3]),
	}
}

// Encode packs the amounts into a storage word.
func (a Amounts) Encode() common.Hash {
	return Hash(&uint256.Int{a.X.Lo, a.X.Hi, a.Y.Lo, a.Y.Hi})
}

// Get returns X when x is true, Y otherwise.
func (a Amounts) Get(x bool) uint128.Uint128 {
	if x {
		return a.X
	}
	return a.Y
}

// XInt returns X as a 256-bit integer.
func (a Amounts) XInt() *uint256.Int { return ToUint256(a.X) }

// YInt returns Y as a 256-bit integer.
func (a Amounts) YInt() *uint256.Int { return ToUint256(a.Y) }

func (a Amounts) IsZero() bool {
	return a.X.IsZero() && a.Y.IsZero()
}

// Lt reports whether either component of a is below the matching one in b.
func (a Amounts) Lt(b Amounts) bool {
	return a.X.Cmp(b.X) < 0 || a.Y.Cmp(b.Y) < 0
}

// Gt reports whether either component of a is above the matching one in b.
func (a Amounts) Gt(b Amounts) bool {
	return a.X.Cmp(b.X) > 0 || a.Y.Cmp(b.Y) > 0
}

// Add returns a + b, failing if either component overflows 128 bits.
func (a Amounts) Add(b Amounts) (Amounts, error) {
	x := a.X.AddWrap(b.X)
	y := a.Y.AddWrap(b.Y)
	if x.Cmp(a.X) < 0 || y.Cmp(a.Y) < 0 {
		return Amounts{}, ErrAmountsOverflow
	}
	return Amounts{X: x, Y: y}, nil
}

// Sub returns a - b, failing if either component underflows.
func (a Amounts) Sub(b Amounts) (Amounts, error) {
	if a.X.Cmp(b.X) < 0 || a.Y.Cmp(b.Y) < 0 {
		return Amounts{}, ErrAmountsUnderflow
	}
	return Amounts{X: a.X.SubWrap(b.X), Y: a.Y.SubWrap(b.Y)}, nil
}

// ScalarMulDivBasisPointRoundDown scales both components by
// multiplier / 10000, rounding down.
func (a Amounts) ScalarMulDivBasisPointRoundDown(multiplier uint64) (Amounts, error) {
	if multiplier > basisPointMax {
		return Amounts{}, fmt.Errorf("%w: %d", ErrInvalidMultiplier, multiplier)
	}
	if multiplier == 0 {
		return Amounts{}, nil
	}
	m := uint256.NewInt(multiplier)
	bp := uint256.NewInt(basisPointMax)
	x := new(uint256.Int).Mul(a.XInt(), m)
	y := new(uint256.Int).Mul(a.YInt(), m)
	return AmountsFromUint256(x.Div(x, bp), y.Div(y, bp))
}

func (a Amounts) String() string {
	return fmt.Sprintf("(%s, %s)", a.X, a.Y)
}

type amountsJSON struct {
	X string `json:"x"`
	Y string `json:"y"`
}

func (a Amounts) MarshalJSON() ([]byte, error) {
	return json.Marshal(amountsJSON{X: a.X.String(), Y: a.Y.String()})
}

func (a *Amounts) UnmarshalJSON(data []byte) error {
	var raw amountsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	x, err := ParseUint128(raw.X)
	if err != nil {
		return err
	}
	y, err := ParseUint128(raw.Y)
	if err != nil {
		return err
	}
	a.X, a.Y = x, y
	return nil
}

// ToUint256 widens a 128-bit value.
func ToUint256(v uint128.Uint128) *uint256.Int {
	return &uint256.Int{v.Lo, v.Hi, 0, 0}
}

// ToUint128 narrows a 256-bit value, failing if it does not fit.
func ToUint128(v *uint256.Int) (uint128.Uint128, error) {
	if v[2] != 0 || v[3] != 0 {
		return uint128.Zero, fmt.Errorf("%w: %s", ErrUint128Overflow, v.Dec())
	}
	return uint128.New(v[0], v[1]), nil
}

// ParseUint128 parses a base-10 quantity. The empty string is zero.
func ParseUint128(s string) (uint128.Uint128, error) {
	if s == "" {
		return uint128.Zero, nil
	}
	b, ok := new(big.Int).SetString(s, 10)
	if !ok || b.Sign() < 0 {
		return uint128.Zero, fmt.Errorf("packed: invalid quantity %q", s)
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return uint128.Zero, fmt.Errorf("%w: %s", ErrUint128Overflow, s)
	}
	return ToUint128(v)
}
