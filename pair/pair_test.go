// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pair_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/lbpair/bin"
	"github.com/luxfi/lbpair/lbmath"
	"github.com/luxfi/lbpair/ledger"
	"github.com/luxfi/lbpair/packed"
	"github.com/luxfi/lbpair/pair"
	"github.com/luxfi/lbpair/params"
	"github.com/luxfi/lbpair/state"
)

const (
	activeID uint32 = lbmath.RealIDShift
	binStep  uint16 = 25
	genesis  uint64 = 1_000
)

var (
	pairAddr    = common.HexToAddress("0x0100000000000000000000000000000000000001")
	factory     = common.HexToAddress("0xfa")
	feeReceiver = common.HexToAddress("0xfe")
	alice       = common.HexToAddress("0x0a")
	bob         = common.HexToAddress("0x0b")

	tokenX = pair.NativeToken("ulux")
	tokenY = pair.CustomToken(common.HexToAddress("0x0c"))

	staticFees = params.StaticFeeParameters{
		BaseFactor:               5_000,
		FilterPeriod:             30,
		DecayPeriod:              600,
		ReductionFactor:          5_000,
		VariableFeeControl:       40_000,
		ProtocolShare:            1_000,
		MaxVolatilityAccumulator: 350_000,
	}

	// 1e18, the unit the liquidity fixture deposits per bin
	oneToken = uint256.NewInt(1e18)
)

func testConfig() pair.Config {
	return pair.Config{
		Address:              pairAddr,
		TokenX:               tokenX,
		TokenY:               tokenY,
		BinStep:              binStep,
		ActiveID:             activeID,
		Factory:              factory,
		ProtocolFeeRecipient: feeReceiver,
		StaticFeeParameters:  staticFees,
	}
}

type fixture struct {
	pair   *pair.Pair
	ledger *ledger.Ledger
	db     *state.Database
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, testConfig(), nil)
}

// newFixtureWith builds an initialized pair. querier defaults to the ledger.
func newFixtureWith(t *testing.T, cfg pair.Config, querier pair.Querier) *fixture {
	t.Helper()
	require := require.New(t)

	l := ledger.New()
	if querier == nil {
		querier = l
	}
	db := state.NewDatabase(memdb.New())
	p, err := pair.New(cfg, db, querier)
	require.NoError(err)
	require.NoError(p.Initialize(pair.Env{Sender: factory, Time: genesis}))
	return &fixture{pair: p, ledger: l, db: db}
}

func env(sender common.Address, time uint64) pair.Env {
	return pair.Env{Sender: sender, Time: time}
}

// send moves tokens into the pair the way a user would before calling it.
func (f *fixture) send(token pair.Token, amount *uint256.Int) {
	f.ledger.Mint(token, pairAddr, amount)
}

func (f *fixture) balance(t *testing.T, token pair.Token, owner common.Address) *uint256.Int {
	t.Helper()
	b, err := f.ledger.Balance(token, owner)
	require.NoError(t, err)
	return b
}

func (f *fixture) shares(t *testing.T, owner common.Address, id uint32) *uint256.Int {
	t.Helper()
	s, err := f.ledger.BalanceOf(owner, id)
	require.NoError(t, err)
	return s
}

// spread returns configs that put a sixth of the deposit in each of the
// five bins on either side of the active bin and a sixth of both tokens in
// the active bin.
func spread() []bin.LiquidityConfig {
	sixth := lbmath.Precision.Uint64() / 6
	configs := make([]bin.LiquidityConfig, 0, 11)
	for id := activeID - 5; id <= activeID+5; id++ {
		c := bin.LiquidityConfig{ID: id}
		if id <= activeID {
			c.DistributionY = sixth
		}
		if id >= activeID {
			c.DistributionX = sixth
		}
		configs = append(configs, c)
	}
	return configs
}

// addLiquidity deposits 6e18 of each token through spread() for alice.
func (f *fixture) addLiquidity(t *testing.T, time uint64) pair.MintResult {
	t.Helper()
	require := require.New(t)

	six := new(uint256.Int).Mul(oneToken, uint256.NewInt(6))
	f.send(tokenX, six)
	f.send(tokenY, six)
	res, err := f.pair.Mint(env(alice, time), alice, spread(), alice)
	require.NoError(err)
	require.NoError(f.ledger.Apply(pairAddr, res.Effects))
	return res
}

// requireConsistent checks that bins and protocol fees add up to the
// reserves and that the pair holds exactly its reserves.
func (f *fixture) requireConsistent(t *testing.T, time uint64) {
	t.Helper()
	require := require.New(t)

	bins, err := f.pair.GetAllBins(env(alice, time), 0, 1_000)
	require.NoError(err)
	var sum packed.Amounts
	for _, b := range bins {
		require.False(b.Reserves.IsZero(), "indexed bin %d is empty", b.ID)
		sum, err = sum.Add(b.Reserves)
		require.NoError(err)
	}

	reserves, err := f.pair.GetReserves(env(alice, time))
	require.NoError(err)
	require.Equal(reserves, sum)

	protocolFees, err := f.pair.GetProtocolFees(env(alice, time))
	require.NoError(err)
	total, err := reserves.Add(protocolFees)
	require.NoError(err)
	require.Equal(total.XInt(), f.balance(t, tokenX, pairAddr))
	require.Equal(total.YInt(), f.balance(t, tokenY, pairAddr))
}

func TestInitialize(t *testing.T) {
	require := require.New(t)

	l := ledger.New()
	p, err := pair.New(testConfig(), state.NewMemoryDatabase(), l)
	require.NoError(err)

	_, err = p.GetActiveID(env(alice, genesis))
	require.ErrorIs(err, pair.ErrNotInitialized)
	_, err = p.Swap(env(alice, genesis), true, alice)
	require.ErrorIs(err, pair.ErrNotInitialized)

	require.ErrorIs(p.Initialize(env(alice, genesis)), pair.ErrOnlyFactory)
	require.NoError(p.Initialize(env(factory, genesis)))
	require.ErrorIs(p.Initialize(env(factory, genesis)), pair.ErrAlreadyInitialized)

	id, err := p.GetActiveID(env(alice, genesis))
	require.NoError(err)
	require.Equal(activeID, id)

	static, err := p.GetStaticFeeParameters(env(alice, genesis))
	require.NoError(err)
	require.Equal(staticFees, static)

	variable, err := p.GetVariableFeeParameters(env(alice, genesis))
	require.NoError(err)
	require.Equal(pair.VariableFeeParameters{IDReference: activeID, TimeOfLastUpdate: genesis}, variable)

	x, y := p.GetTokens()
	require.Equal(tokenX, x)
	require.Equal(tokenY, y)
	require.Equal(binStep, p.GetBinStep())
	require.Equal(factory, p.GetFactory())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*pair.Config)
		err    error
	}{
		{"missing address", func(c *pair.Config) { c.Address = common.Address{} }, pair.ErrInvalidConfig},
		{"identical tokens", func(c *pair.Config) { c.TokenY = c.TokenX }, pair.ErrInvalidConfig},
		{"zero bin step", func(c *pair.Config) { c.BinStep = 0 }, pair.ErrInvalidConfig},
		{"active id overflow", func(c *pair.Config) { c.ActiveID = lbmath.MaxBinID + 1 }, pair.ErrIDOverflow},
		{"missing factory", func(c *pair.Config) { c.Factory = common.Address{} }, pair.ErrInvalidConfig},
		{"native without denom", func(c *pair.Config) { c.TokenX = pair.NativeToken("") }, pair.ErrInvalidConfig},
		{"fee too large", func(c *pair.Config) { c.StaticFeeParameters.VariableFeeControl = 4_000_000 }, pair.ErrMaxTotalFeeExceeded},
		{"filter above decay", func(c *pair.Config) { c.StaticFeeParameters.FilterPeriod = 601 }, pair.ErrInvalidStaticFeeParameters},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := testConfig()
			test.modify(&cfg)
			_, err := pair.New(cfg, state.NewMemoryDatabase(), ledger.New())
			require.ErrorIs(t, err, test.err)
		})
	}
}

// reentrantQuerier calls back into the pair while the pair is querying it.
type reentrantQuerier struct {
	*ledger.Ledger
	pair *pair.Pair
	err  error
}

func (q *reentrantQuerier) Balance(token pair.Token, owner common.Address) (*uint256.Int, error) {
	if q.pair != nil {
		_, q.err = q.pair.Swap(env(bob, genesis), true, bob)
		return nil, q.err
	}
	return q.Ledger.Balance(token, owner)
}

func TestReentrantCallRejected(t *testing.T) {
	require := require.New(t)

	q := &reentrantQuerier{Ledger: ledger.New()}
	f := newFixtureWith(t, testConfig(), q)
	q.pair = f.pair

	_, err := f.pair.Swap(env(alice, genesis), true, alice)
	require.ErrorIs(err, pair.ErrReentrant)
	require.ErrorIs(q.err, pair.ErrReentrant)

	// the lock is released once the outer call returns
	q.pair = nil
	_, err = f.pair.Swap(env(alice, genesis), true, alice)
	require.ErrorIs(err, pair.ErrInsufficientAmountIn)
}

func TestStatePersistsAcrossInstances(t *testing.T) {
	require := require.New(t)

	f := newFixture(t)
	f.addLiquidity(t, genesis)
	require.NoError(f.db.Err())

	reopened, err := pair.New(testConfig(), f.db, f.ledger)
	require.NoError(err)
	reserves, err := reopened.GetReserves(env(alice, genesis))
	require.NoError(err)
	expected, err := f.pair.GetReserves(env(alice, genesis))
	require.NoError(err)
	require.Equal(expected, reserves)
	require.ErrorIs(reopened.Initialize(env(factory, genesis)), pair.ErrAlreadyInitialized)
}
