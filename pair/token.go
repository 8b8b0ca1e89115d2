// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pair

import (
	"fmt"

	"github.com/luxfi/geth/common"
)

// TokenKind distinguishes chain-native coins from contract tokens.
type TokenKind string

const (
	TokenNative TokenKind = "native"
	TokenCustom TokenKind = "custom"
)

// Token is one side of the pair. Native tokens are identified by Denom,
// custom tokens by their contract Address.
type Token struct {
	Kind    TokenKind      `json:"kind" yaml:"kind"`
	Denom   string         `json:"denom,omitempty" yaml:"denom,omitempty"`
	Address common.Address `json:"address,omitempty" yaml:"address,omitempty"`
}

func NativeToken(denom string) Token {
	return Token{Kind: TokenNative, Denom: denom}
}

func CustomToken(addr common.Address) Token {
	return Token{Kind: TokenCustom, Address: addr}
}

func (t Token) IsNative() bool { return t.Kind == TokenNative }

// Verify checks that the variant carries its identifier.
func (t Token) Verify() error {
	switch t.Kind {
	case TokenNative:
		if t.Denom == "" {
			return fmt.Errorf("%w: native token without denom", ErrInvalidConfig)
		}
	case TokenCustom:
		if t.Address == (common.Address{}) {
			return fmt.Errorf("%w: custom token without address", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown token kind %q", ErrInvalidConfig, t.Kind)
	}
	return nil
}

func (t Token) String() string {
	if t.IsNative() {
		return t.Denom
	}
	return t.Address.Hex()
}
