// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

var (
	stakerAddr = thor.BytesToAddress([]byte("staker"))
	tokenAddr  = thor.BytesToAddress([]byte("token"))

	genesisA = thor.BytesToAddress([]byte("genesis-a"))
	genesisB = thor.BytesToAddress([]byte("genesis-b"))

	alice = thor.BytesToAddress([]byte("alice"))
	bob   = thor.BytesToAddress([]byte("bob"))
	carol = thor.BytesToAddress([]byte("carol"))
)

func testRules() Rules {
	return Rules{
		MaxValidators:   2,
		SelfBondAmount:  big.NewInt(100),
		MinCommission:   5,
		FeeDistribution: [thor.FeeShares]uint32{4000, 3000, 1000, 2000},
		UnbondingPeriod: 7,
		EpochLength:     8,
	}
}

type testEnv struct {
	t      *testing.T
	state  *state.State
	token  *token.Token
	staker *Staker

	delegators []thor.Address
}

func newTestEnv(t *testing.T, rules Rules, genesis ...thor.Address) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db)
	tk := token.New(tokenAddr, st)
	s := New(stakerAddr, st, tk.Bind(stakerAddr))
	require.NoError(t, s.Initialize(genesis, rules))

	return &testEnv{
		t:          t,
		state:      st,
		token:      tk,
		staker:     s,
		delegators: []thor.Address{alice, bob, carol, genesisA, genesisB},
	}
}

// newDefaultEnv seeds genesisA and genesisB with the test rules.
func newDefaultEnv(t *testing.T) *testEnv {
	return newTestEnv(t, testRules(), genesisA, genesisB)
}

// fund mints amount to addr and lets the staker spend all of it.
func (e *testEnv) fund(addr thor.Address, amount int64) *testEnv {
	require.NoError(e.t, e.token.Mint(addr, big.NewInt(amount)))
	bal, err := e.token.BalanceOf(addr)
	require.NoError(e.t, err)
	require.NoError(e.t, e.token.Approve(addr, stakerAddr, bal))
	return e
}

func (e *testEnv) balance(addr thor.Address) int64 {
	bal, err := e.token.BalanceOf(addr)
	require.NoError(e.t, err)
	return bal.Int64()
}

func (e *testEnv) totalPower() int64 {
	power, err := e.staker.TotalPower()
	require.NoError(e.t, err)
	return power.Int64()
}

func (e *testEnv) power(addr thor.Address) int64 {
	val, err := e.staker.GetValidator(addr)
	require.NoError(e.t, err)
	require.NotNil(e.t, val, "validator %s not registered", addr)
	return val.Power().Int64()
}

// assertInvariants checks power consistency, the total power counter and escrow conservation.
func (e *testEnv) assertInvariants() {
	t := e.t
	t.Helper()

	validators, err := e.staker.Validators()
	require.NoError(t, err)

	sumPower := new(big.Int)
	expectedEscrow := new(big.Int)
	for _, addr := range validators {
		val, err := e.staker.GetValidator(addr)
		require.NoError(t, err)

		expected := new(big.Int)
		if val.IsActive() {
			expected.Add(expected, val.Locked())
			if !val.IsGenesisNode() {
				expectedEscrow.Add(expectedEscrow, val.Locked())
			}
		} else {
			assert.Nil(t, val.UnbondingAt(), "inactive validator %s is unbonding", addr)
		}
		for _, delegator := range e.delegators {
			del, err := e.staker.GetDelegation(delegator, addr)
			require.NoError(t, err)
			expectedEscrow.Add(expectedEscrow, del.Amount())
			if !del.IsUnbonding() {
				expected.Add(expected, del.Amount())
			}
		}
		assert.Zero(t, expected.Cmp(val.Power()), "validator %s power %v, expected %v", addr, val.Power(), expected)
		sumPower.Add(sumPower, val.Power())
	}

	total, err := e.staker.TotalPower()
	require.NoError(t, err)
	assert.Zero(t, sumPower.Cmp(total), "total power %v, sum of validators %v", total, sumPower)

	escrowed, err := e.staker.TotalEscrowed()
	require.NoError(t, err)
	custody, err := e.token.BalanceOf(stakerAddr)
	require.NoError(t, err)
	assert.Zero(t, escrowed.Cmp(custody), "escrowed %v, custody %v", escrowed, custody)
	assert.Zero(t, expectedEscrow.Cmp(custody), "expected escrow %v, custody %v", expectedEscrow, custody)
}

func assertRevert(t *testing.T, err error, kind reverts.Kind) {
	t.Helper()
	require.Error(t, err)
	got, ok := reverts.KindOf(err)
	require.True(t, ok, "not a revert: %v", err)
	assert.Equal(t, kind, got, "unexpected revert kind: %v", err)
}

type TestFunc func(t *testing.T)

type TestSequence struct {
	env *testEnv

	funcs []TestFunc
	mu    sync.Mutex
}

func NewSequence(env *testEnv) *TestSequence {
	return &TestSequence{funcs: make([]TestFunc, 0), env: env}
}

func (st *TestSequence) AddFunc(f TestFunc) *TestSequence {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.funcs = append(st.funcs, f)
	return st
}

func (st *TestSequence) Join(addr thor.Address, commission uint32) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker.Join(addr, commission); err != nil {
			t.Fatalf("failed to join validator %s: %v", addr, err)
		}
		t.Logf("joined validator %s", addr)
	})
}

func (st *TestSequence) AnnounceValidatorLeave(addr thor.Address, now uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker.AnnounceValidatorLeave(addr, now); err != nil {
			t.Fatalf("failed to announce leave of validator %s: %v", addr, err)
		}
		t.Logf("leave announced for validator %s", addr)
	})
}

func (st *TestSequence) ValidatorLeave(addr thor.Address, now uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker.ValidatorLeave(addr, now); err != nil {
			t.Fatalf("failed to leave validator %s: %v", addr, err)
		}
		t.Logf("validator %s left", addr)
	})
}

func (st *TestSequence) Delegate(delegator, validator thor.Address, amount int64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker.Delegate(delegator, validator, big.NewInt(amount)); err != nil {
			t.Fatalf("failed to delegate %d from %s to %s: %v", amount, delegator, validator, err)
		}
		t.Logf("delegated %d from %s to %s", amount, delegator, validator)
	})
}

func (st *TestSequence) AnnounceDelegatorLeave(delegator, validator thor.Address, now uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker.AnnounceDelegatorLeave(delegator, validator, now); err != nil {
			t.Fatalf("failed to announce leave of delegation %s/%s: %v", delegator, validator, err)
		}
		t.Logf("leave announced for delegation %s/%s", delegator, validator)
	})
}

func (st *TestSequence) DelegatorLeave(delegator, validator thor.Address, now uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker.DelegatorLeave(delegator, validator, now); err != nil {
			t.Fatalf("failed to leave delegation %s/%s: %v", delegator, validator, err)
		}
		t.Logf("delegation %s/%s left", delegator, validator)
	})
}

func (st *TestSequence) Redelegate(delegator, from, to thor.Address, amount int64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker.Redelegate(delegator, from, to, big.NewInt(amount)); err != nil {
			t.Fatalf("failed to redelegate %d from %s to %s: %v", amount, from, to, err)
		}
		t.Logf("redelegated %d from %s to %s", amount, from, to)
	})
}

// Run executes every step, checking the ledger invariants after each one.
func (st *TestSequence) Run(t *testing.T) {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, f := range st.funcs {
		f(t)
		st.env.assertInvariants()
	}

	t.Logf("All test functions executed successfully")
}

type ValidatorAssertions struct {
	staker *Staker
	addr   thor.Address

	active      *bool
	locked      *int64
	power       *int64
	unbondingAt *uint64
	unbonding   *bool
	commission  *uint32
	epochJoined *uint32
	genesisNode *bool
}

func AssertValidator(staker *Staker, addr thor.Address) *ValidatorAssertions {
	return &ValidatorAssertions{staker: staker, addr: addr}
}

func (va *ValidatorAssertions) Active(expected bool) *ValidatorAssertions {
	va.active = &expected
	return va
}

func (va *ValidatorAssertions) Locked(expected int64) *ValidatorAssertions {
	va.locked = &expected
	return va
}

func (va *ValidatorAssertions) Power(expected int64) *ValidatorAssertions {
	va.power = &expected
	return va
}

func (va *ValidatorAssertions) UnbondingAt(expected uint64) *ValidatorAssertions {
	va.unbondingAt = &expected
	return va
}

func (va *ValidatorAssertions) NotUnbonding() *ValidatorAssertions {
	f := false
	va.unbonding = &f
	return va
}

func (va *ValidatorAssertions) Commission(expected uint32) *ValidatorAssertions {
	va.commission = &expected
	return va
}

func (va *ValidatorAssertions) EpochJoined(expected uint32) *ValidatorAssertions {
	va.epochJoined = &expected
	return va
}

func (va *ValidatorAssertions) GenesisNode(expected bool) *ValidatorAssertions {
	va.genesisNode = &expected
	return va
}

func (va *ValidatorAssertions) Assert(t *testing.T) {
	t.Helper()
	validator, err := va.staker.GetValidator(va.addr)
	require.NoError(t, err, "failed to get validator %s", va.addr)
	require.NotNil(t, validator, "validator %s not registered", va.addr)

	if va.active != nil {
		assert.Equal(t, *va.active, validator.IsActive(), "validator %s active mismatch", va.addr)
		if !*va.active {
			assert.Nil(t, validator.Locked(), "inactive validator %s has a lock", va.addr)
		}
	}
	if va.locked != nil {
		require.NotNil(t, validator.Locked(), "validator %s has no lock", va.addr)
		assert.Equal(t, *va.locked, validator.Locked().Int64(), "validator %s locked mismatch", va.addr)
	}
	if va.power != nil {
		assert.Equal(t, *va.power, validator.Power().Int64(), "validator %s power mismatch", va.addr)
	}
	if va.unbondingAt != nil {
		require.NotNil(t, validator.UnbondingAt(), "validator %s is not unbonding", va.addr)
		assert.Equal(t, *va.unbondingAt, *validator.UnbondingAt(), "validator %s unbonding time mismatch", va.addr)
	}
	if va.unbonding != nil {
		assert.Equal(t, *va.unbonding, validator.IsUnbonding(), "validator %s unbonding mismatch", va.addr)
	}
	if va.commission != nil {
		assert.Equal(t, *va.commission, validator.Commission(), "validator %s commission mismatch", va.addr)
	}
	if va.epochJoined != nil {
		assert.Equal(t, *va.epochJoined, validator.EpochJoined(), "validator %s epoch joined mismatch", va.addr)
	}
	if va.genesisNode != nil {
		assert.Equal(t, *va.genesisNode, validator.IsGenesisNode(), "validator %s genesis flag mismatch", va.addr)
	}
}

type DelegationAssertions struct {
	staker    *Staker
	delegator thor.Address
	validator thor.Address

	amount      *int64
	unbondingAt *uint64
	unbonding   *bool
	epochJoined *uint32
}

func AssertDelegation(staker *Staker, delegator, validator thor.Address) *DelegationAssertions {
	return &DelegationAssertions{staker: staker, delegator: delegator, validator: validator}
}

func (da *DelegationAssertions) Amount(expected int64) *DelegationAssertions {
	da.amount = &expected
	return da
}

func (da *DelegationAssertions) UnbondingAt(expected uint64) *DelegationAssertions {
	da.unbondingAt = &expected
	return da
}

func (da *DelegationAssertions) NotUnbonding() *DelegationAssertions {
	f := false
	da.unbonding = &f
	return da
}

func (da *DelegationAssertions) EpochJoined(expected uint32) *DelegationAssertions {
	da.epochJoined = &expected
	return da
}

func (da *DelegationAssertions) Assert(t *testing.T) {
	t.Helper()
	del, err := da.staker.GetDelegation(da.delegator, da.validator)
	require.NoError(t, err, "failed to get delegation %s/%s", da.delegator, da.validator)

	if da.amount != nil {
		assert.Equal(t, *da.amount, del.Amount().Int64(), "delegation %s/%s amount mismatch", da.delegator, da.validator)
	}
	if da.unbondingAt != nil {
		require.NotNil(t, del.UnbondingAt(), "delegation %s/%s is not unbonding", da.delegator, da.validator)
		assert.Equal(t, *da.unbondingAt, *del.UnbondingAt(), "delegation %s/%s unbonding time mismatch", da.delegator, da.validator)
	}
	if da.unbonding != nil {
		assert.Equal(t, *da.unbonding, del.IsUnbonding(), "delegation %s/%s unbonding mismatch", da.delegator, da.validator)
	}
	if da.epochJoined != nil {
		assert.Equal(t, *da.epochJoined, del.EpochJoined(), "delegation %s/%s epoch joined mismatch", da.delegator, da.validator)
	}
}
