// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pair implements a Liquidity Book pair: reserves split into
// discrete price bins, swaps that walk the non-empty bins through a bitmap
// index, fungible bin shares for liquidity providers, a volatility driven
// variable fee and a time weighted oracle.
//
// The pair owns its storage but not its token balances or the share ledger.
// It measures deposits as balance minus tracked reserves, reads the ledger
// through a Querier, and returns every outgoing transfer, mint and burn as
// Effects for the host to apply together with the storage commit.
package pair

import (
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/luxfi/lbpair/oracle"
	"github.com/luxfi/lbpair/packed"
	"github.com/luxfi/lbpair/params"
	"github.com/luxfi/lbpair/state"
	"github.com/luxfi/lbpair/tree"
)

// Storage key prefixes for pair state
var (
	parametersPrefix   = []byte("prms")
	reservesPrefix     = []byte("rsrv")
	protocolFeesPrefix = []byte("pfee")
	binPrefix          = []byte("bins")
	initializedPrefix  = []byte("init")
)

var (
	parametersKey   = state.Key(parametersPrefix)
	reservesKey     = state.Key(reservesPrefix)
	protocolFeesKey = state.Key(protocolFeesPrefix)
	initializedKey  = state.Key(initializedPrefix)
	initializedFlag = common.Hash{31: 1}
)

func binKey(id uint32) common.Hash {
	return state.Key(binPrefix, []byte{byte(id >> 16), byte(id >> 8), byte(id)})
}

// Option configures a Pair.
type Option func(*Pair)

// WithLogger sets the logger used by the pair.
func WithLogger(l log.Logger) Option {
	return func(p *Pair) { p.log = l }
}

// Pair is one Liquidity Book market between TokenX and TokenY.
type Pair struct {
	// mu protects locked
	mu sync.Mutex

	// locked rejects calls that start while another is in flight
	locked bool

	cfg     Config
	db      state.StateDB
	querier Querier
	log     log.Logger
}

// New returns a pair over db. The pair must be initialized before use.
func New(cfg Config, db state.StateDB, querier Querier, opts ...Option) (*Pair, error) {
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	p := &Pair{
		cfg:     cfg,
		db:      db,
		querier: querier,
		log:     log.NewTestLogger(log.InfoLevel),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the configuration the pair was created with.
func (p *Pair) Config() Config { return p.cfg }

// =========================================================================
// Call context
// =========================================================================

// txn is the state of one call. Writes go to a journal that is committed
// only when the call succeeds.
type txn struct {
	env     Env
	journal *state.Journal
	store   state.Account
	tree    *tree.Tree
	oracle  *oracle.Oracle
	querier Querier

	// share ledger changes issued by this call, not yet applied by the host
	minted     map[uint32]*uint256.Int
	burned     map[uint32]*uint256.Int
	burnedFrom map[common.Address]map[uint32]*uint256.Int

	effects Effects
}

func (p *Pair) begin(env Env) *txn {
	journal := state.NewJournal(p.db)
	store := state.NewAccount(journal, p.cfg.Address)
	return &txn{
		env:        env,
		journal:    journal,
		store:      store,
		tree:       tree.New(store),
		oracle:     oracle.New(store),
		querier:    p.querier,
		minted:     make(map[uint32]*uint256.Int),
		burned:     make(map[uint32]*uint256.Int),
		burnedFrom: make(map[common.Address]map[uint32]*uint256.Int),
	}
}

// execute runs fn as one all-or-nothing call.
func (p *Pair) execute(env Env, requireInit bool, fn func(tx *txn) error) (Effects, error) {
	p.mu.Lock()
	if p.locked {
		p.mu.Unlock()
		return Effects{}, ErrReentrant
	}
	p.locked = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.locked = false
		p.mu.Unlock()
	}()

	tx := p.begin(env)
	if requireInit && !tx.initialized() {
		return Effects{}, ErrNotInitialized
	}
	if err := fn(tx); err != nil {
		tx.journal.Discard()
		return Effects{}, err
	}
	if err := tx.journal.Commit(); err != nil {
		return Effects{}, fmt.Errorf("failed to commit pair state: %w", err)
	}
	return tx.effects, nil
}

// view returns a read-only context. Nothing written to it is committed.
func (p *Pair) view(env Env) (*txn, error) {
	tx := p.begin(env)
	if !tx.initialized() {
		return nil, ErrNotInitialized
	}
	return tx, nil
}

// =========================================================================
// Storage
// =========================================================================

func (tx *txn) initialized() bool {
	return tx.store.Get(initializedKey) != (common.Hash{})
}

func (tx *txn) parameters() params.Parameters {
	return params.Decode(tx.store.Get(parametersKey))
}

func (tx *txn) setParameters(pp params.Parameters) error {
	h, err := pp.Encode()
	if err != nil {
		return err
	}
	tx.store.Set(parametersKey, h)
	return nil
}

func (tx *txn) reserves() packed.Amounts {
	return packed.DecodeAmounts(tx.store.Get(reservesKey))
}

func (tx *txn) setReserves(a packed.Amounts) {
	tx.store.Set(reservesKey, a.Encode())
}

func (tx *txn) protocolFees() packed.Amounts {
	return packed.DecodeAmounts(tx.store.Get(protocolFeesKey))
}

func (tx *txn) setProtocolFees(a packed.Amounts) {
	tx.store.Set(protocolFeesKey, a.Encode())
}

func (tx *txn) bin(id uint32) packed.Amounts {
	return packed.DecodeAmounts(tx.store.Get(binKey(id)))
}

func (tx *txn) setBin(id uint32, a packed.Amounts) {
	tx.store.Set(binKey(id), a.Encode())
}

// nextNonEmptyBin returns the next bin in the swap direction: lower ids when
// selling X for Y, higher ids otherwise.
func (tx *txn) nextNonEmptyBin(swapForY bool, id uint32) (uint32, bool) {
	if swapForY {
		return tx.tree.FindFirstRight(id)
	}
	return tx.tree.FindFirstLeft(id)
}

// =========================================================================
// Collaborator reads
// =========================================================================

// totalSupply returns the shares of id including this call's pending mints
// and burns.
func (tx *txn) totalSupply(id uint32) (*uint256.Int, error) {
	supply, err := tx.querier.TotalSupply(id)
	if err != nil {
		return nil, fmt.Errorf("failed to query total supply of %d: %w", id, err)
	}
	supply = new(uint256.Int).Set(supply)
	if m, ok := tx.minted[id]; ok {
		supply.Add(supply, m)
	}
	if b, ok := tx.burned[id]; ok {
		supply.Sub(supply, b)
	}
	return supply, nil
}

// shareBalance returns owner's shares of id net of this call's burns.
func (tx *txn) shareBalance(owner common.Address, id uint32) (*uint256.Int, error) {
	balance, err := tx.querier.BalanceOf(owner, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query shares of %s in %d: %w", owner.Hex(), id, err)
	}
	balance = new(uint256.Int).Set(balance)
	if b, ok := tx.burnedFrom[owner][id]; ok {
		balance.Sub(balance, b)
	}
	return balance, nil
}

func (tx *txn) recordMint(id uint32, amount *uint256.Int) {
	addTo(tx.minted, id, amount)
}

func (tx *txn) recordBurn(owner common.Address, id uint32, amount *uint256.Int) {
	addTo(tx.burned, id, amount)
	if tx.burnedFrom[owner] == nil {
		tx.burnedFrom[owner] = make(map[uint32]*uint256.Int)
	}
	addTo(tx.burnedFrom[owner], id, amount)
}

func addTo(m map[uint32]*uint256.Int, id uint32, amount *uint256.Int) {
	if cur, ok := m[id]; ok {
		cur.Add(cur, amount)
		return
	}
	m[id] = new(uint256.Int).Set(amount)
}

// received returns the token amounts held by the pair beyond its reserves.
func (p *Pair) received(reserves packed.Amounts) (packed.Amounts, error) {
	x, err := p.unaccounted(p.cfg.TokenX, reserves.XInt())
	if err != nil {
		return packed.Amounts{}, err
	}
	y, err := p.unaccounted(p.cfg.TokenY, reserves.YInt())
	if err != nil {
		return packed.Amounts{}, err
	}
	return packed.AmountsFromUint256(x, y)
}

func (p *Pair) unaccounted(token Token, reserve *uint256.Int) (*uint256.Int, error) {
	balance, err := p.querier.Balance(token, p.cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to query balance of %s: %w", token, err)
	}
	if balance.Lt(reserve) {
		return new(uint256.Int), nil
	}
	return new(uint256.Int).Sub(balance, reserve), nil
}

// transferAmounts emits the transfers of a to recipient.
func (p *Pair) transferAmounts(tx *txn, a packed.Amounts, to common.Address) {
	tx.effects.transfer(p.cfg.TokenX, to, a.XInt())
	tx.effects.transfer(p.cfg.TokenY, to, a.YInt())
}

// =========================================================================
// Initialization
// =========================================================================

// Initialize writes the initial parameters. Only the factory may call it,
// once.
func (p *Pair) Initialize(env Env) error {
	_, err := p.execute(env, false, func(tx *txn) error {
		if env.Sender != p.cfg.Factory {
			return ErrOnlyFactory
		}
		if tx.initialized() {
			return ErrAlreadyInitialized
		}

		pp := params.Parameters{
			StaticFeeParameters: p.cfg.StaticFeeParameters,
			ActiveID:            p.cfg.ActiveID,
			IDReference:         p.cfg.ActiveID,
			TimeOfLastUpdate:    env.Time,
		}
		if p.cfg.OracleLength > 0 {
			pp.OracleID = 1
			if err := tx.oracle.IncreaseLength(pp.OracleID, p.cfg.OracleLength); err != nil {
				return err
			}
		}
		if err := tx.setParameters(pp); err != nil {
			return err
		}
		tx.store.Set(initializedKey, initializedFlag)

		p.log.Info("pair initialized",
			"pair", p.cfg.Address,
			"tokenX", p.cfg.TokenX,
			"tokenY", p.cfg.TokenY,
			"binStep", p.cfg.BinStep,
			"activeID", p.cfg.ActiveID,
		)
		return nil
	})
	return err
}
