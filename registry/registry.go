// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry keeps the pairs hosted by one ledger, at most one per
// token pair and bin step.
package registry

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/lbpair/pair"
)

var (
	ErrAddressTaken = errors.New("registry: address already used by a pair")
	ErrMarketTaken  = errors.New("registry: market already has a pair")
	ErrUnknownPair  = errors.New("registry: unknown pair")
)

// Market identifies a pair by its unordered tokens and bin step.
type Market struct {
	TokenA  pair.Token
	TokenB  pair.Token
	BinStep uint16
}

// NewMarket orders the tokens so that both orders name the same market.
func NewMarket(a, b pair.Token, binStep uint16) Market {
	if a.String() > b.String() {
		a, b = b, a
	}
	return Market{TokenA: a, TokenB: b, BinStep: binStep}
}

type Registry struct {
	mu sync.RWMutex

	// pairs is kept sorted by address for deterministic iteration
	pairs    []*pair.Pair
	byMarket map[Market]*pair.Pair
}

func New() *Registry {
	return &Registry{byMarket: make(map[Market]*pair.Pair)}
}

func marketOf(p *pair.Pair) Market {
	cfg := p.Config()
	return NewMarket(cfg.TokenX, cfg.TokenY, cfg.BinStep)
}

// Register adds p. Addresses and markets must be unused.
func (r *Registry) Register(p *pair.Pair) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	address := p.Config().Address
	market := marketOf(p)
	for _, registered := range r.pairs {
		if registered.Config().Address == address {
			return fmt.Errorf("%w: %s", ErrAddressTaken, address.Hex())
		}
	}
	if existing, ok := r.byMarket[market]; ok {
		return fmt.Errorf("%w: %s/%s step %d at %s", ErrMarketTaken,
			market.TokenA, market.TokenB, market.BinStep, existing.Config().Address.Hex())
	}

	r.pairs = append(r.pairs, p)
	sort.Sort(pairArray(r.pairs))
	r.byMarket[market] = p
	return nil
}

func (r *Registry) ByAddress(address common.Address) (*pair.Pair, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := sort.Search(len(r.pairs), func(i int) bool {
		a := r.pairs[i].Config().Address
		return bytes.Compare(a[:], address[:]) >= 0
	})
	if i < len(r.pairs) && r.pairs[i].Config().Address == address {
		return r.pairs[i], true
	}
	return nil, false
}

func (r *Registry) ByMarket(a, b pair.Token, binStep uint16) (*pair.Pair, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byMarket[NewMarket(a, b, binStep)]
	return p, ok
}

// Pairs returns the registered pairs ordered by address.
func (r *Registry) Pairs() []*pair.Pair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*pair.Pair(nil), r.pairs...)
}

// Execute routes an execute message to the pair at address.
func (r *Registry) Execute(address common.Address, env pair.Env, msg []byte) (*pair.Response, error) {
	p, ok := r.ByAddress(address)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPair, address.Hex())
	}
	return p.Execute(env, msg)
}

// Query routes a query message to the pair at address.
func (r *Registry) Query(address common.Address, env pair.Env, msg []byte) ([]byte, error) {
	p, ok := r.ByAddress(address)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPair, address.Hex())
	}
	return p.Query(env, msg)
}

type pairArray []*pair.Pair

func (p pairArray) Len() int      { return len(p) }
func (p pairArray) Swap(i, j int) { p[i], p[j] = p[j], p[i] }
func (p pairArray) Less(i, j int) bool {
	a, b := p[i].Config().Address, p[j].Config().Address
	return bytes.Compare(a[:], b[:]) < 0
}
