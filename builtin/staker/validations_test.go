// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/thor"
)

func TestInitialize_Defaults(t *testing.T) {
	env := newTestEnv(t, DefaultRules())

	rules, err := env.staker.Rules()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), rules.MaxValidators)
	assert.Equal(t, 0, rules.SelfBondAmount.Sign())
	assert.Equal(t, uint32(0), rules.MinCommission)
	assert.Equal(t, [thor.FeeShares]uint32{}, rules.FeeDistribution)
	assert.Equal(t, uint64(0), rules.UnbondingPeriod)
	assert.Equal(t, uint64(0), rules.EpochLength)

	validators, err := env.staker.Validators()
	require.NoError(t, err)
	assert.Empty(t, validators)
	assert.Equal(t, int64(0), env.totalPower())
}

func TestInitialize_Rules(t *testing.T) {
	env := newDefaultEnv(t)

	rules, err := env.staker.Rules()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), rules.MaxValidators)
	assert.Equal(t, int64(100), rules.SelfBondAmount.Int64())
	assert.Equal(t, uint32(5), rules.MinCommission)
	assert.Equal(t, [thor.FeeShares]uint32{4000, 3000, 1000, 2000}, rules.FeeDistribution)
	assert.Equal(t, uint64(7), rules.UnbondingPeriod)
	assert.Equal(t, uint64(8), rules.EpochLength)

	for _, addr := range []thor.Address{genesisA, genesisB} {
		AssertValidator(env.staker, addr).
			Active(true).
			Locked(100).
			Power(100).
			NotUnbonding().
			Commission(5).
			EpochJoined(0).
			GenesisNode(true).
			Assert(t)

		val, err := env.staker.GetValidator(addr)
		require.NoError(t, err)
		assert.Nil(t, val.EpochCollected())
	}

	validators, err := env.staker.Validators()
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{genesisA, genesisB}, validators)
	assert.Equal(t, int64(200), env.totalPower())

	escrowed, err := env.staker.TotalEscrowed()
	require.NoError(t, err)
	assert.Equal(t, 0, escrowed.Sign(), "genesis bonds are not escrowed")
	env.assertInvariants()
}

func TestInitialize_Rejects(t *testing.T) {
	env := newDefaultEnv(t)
	assert.Error(t, env.staker.Initialize(nil, testRules()), "second initialization")

	tests := []struct {
		name    string
		genesis []thor.Address
		rules   func(*Rules)
	}{
		{"duplicate validator", []thor.Address{genesisA, genesisA}, nil},
		{"zero validator", []thor.Address{{}}, nil},
		{"fee distribution sum", nil, func(r *Rules) { r.FeeDistribution = [thor.FeeShares]uint32{5000, 3000, 1000, 0} }},
		{"min commission above one", nil, func(r *Rules) { r.MinCommission = thor.BasisPoints + 1 }},
		{"negative self bond", nil, func(r *Rules) { r.SelfBondAmount = big.NewInt(-1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := testRules()
			if tt.rules != nil {
				tt.rules(&rules)
			}
			fresh := newTestEnv(t, DefaultRules())
			// a fresh staker on another address of the same state
			s := New(thor.BytesToAddress([]byte("other-staker")), fresh.state, fresh.token.Bind(stakerAddr))
			assert.Error(t, s.Initialize(tt.genesis, rules))

			validators, err := s.Validators()
			require.NoError(t, err)
			assert.Empty(t, validators)
		})
	}
}

func TestJoin(t *testing.T) {
	env := newDefaultEnv(t).fund(alice, 1000)
	require.NoError(t, env.staker.Join(alice, 5))

	AssertValidator(env.staker, alice).
		Active(true).
		Locked(100).
		Power(100).
		NotUnbonding().
		Commission(5).
		EpochJoined(1).
		GenesisNode(false).
		Assert(t)

	assert.Equal(t, int64(900), env.balance(alice))
	assert.Equal(t, int64(100), env.balance(stakerAddr))
	assert.Equal(t, int64(300), env.totalPower())

	validators, err := env.staker.Validators()
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{genesisA, genesisB, alice}, validators)
	env.assertInvariants()
}

func TestJoin_Rejects(t *testing.T) {
	tests := []struct {
		name       string
		caller     thor.Address
		prepare    func(env *testEnv)
		commission uint32
		kind       reverts.Kind
	}{
		{"already a validator", genesisA, func(env *testEnv) { env.fund(genesisA, 1000) }, 5, reverts.KindState},
		{"insufficient funds", alice, func(env *testEnv) { env.fund(alice, 99) }, 5, reverts.KindInsufficient},
		{"no allowance", alice, func(env *testEnv) {
			require.NoError(t, env.token.Mint(alice, big.NewInt(1000)))
		}, 5, reverts.KindInsufficient},
		{"commission below minimum", alice, func(env *testEnv) { env.fund(alice, 1000) }, 4, reverts.KindPolicy},
		{"commission above one", alice, func(env *testEnv) { env.fund(alice, 1000) }, thor.BasisPoints + 1, reverts.KindPolicy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newDefaultEnv(t)
			tt.prepare(env)
			balance := env.balance(tt.caller)

			assertRevert(t, env.staker.Join(tt.caller, tt.commission), tt.kind)

			assert.Equal(t, balance, env.balance(tt.caller), "balance must be untouched")
			assert.Equal(t, int64(0), env.balance(stakerAddr))
			assert.Equal(t, int64(200), env.totalPower())
			env.assertInvariants()
		})
	}
}

func TestValidatorLeave_Refund(t *testing.T) {
	env := newDefaultEnv(t).fund(alice, 1000)

	NewSequence(env).
		Join(alice, 10).
		AnnounceValidatorLeave(alice, 10).
		AddFunc(func(t *testing.T) {
			// power is kept while unbonding
			AssertValidator(env.staker, alice).Active(true).Power(100).UnbondingAt(17).Assert(t)
			assert.Equal(t, int64(300), env.totalPower())

			assertRevert(t, env.staker.AnnounceValidatorLeave(alice, 11), reverts.KindState)
			assertRevert(t, env.staker.ValidatorLeave(alice, 16), reverts.KindTiming)
		}).
		ValidatorLeave(alice, 17).
		Run(t)

	AssertValidator(env.staker, alice).Active(false).Power(0).NotUnbonding().GenesisNode(false).Assert(t)
	assert.Equal(t, int64(1000), env.balance(alice), "joined validator gets its bond back")
	assert.Equal(t, int64(0), env.balance(stakerAddr))
	assert.Equal(t, int64(200), env.totalPower())

	assertRevert(t, env.staker.ValidatorLeave(alice, 100), reverts.KindState)
	assertRevert(t, env.staker.AnnounceValidatorLeave(alice, 100), reverts.KindState)
}

func TestValidatorLeave_GenesisNoRefund(t *testing.T) {
	env := newDefaultEnv(t)

	NewSequence(env).
		AnnounceValidatorLeave(genesisA, 0).
		ValidatorLeave(genesisA, 7).
		Run(t)

	AssertValidator(env.staker, genesisA).Active(false).Power(0).GenesisNode(false).Assert(t)
	assert.Equal(t, int64(0), env.balance(genesisA), "genesis validator is never refunded")
	assert.Equal(t, int64(100), env.totalPower())
}

func TestValidatorRejoin(t *testing.T) {
	env := newDefaultEnv(t).fund(alice, 1000).fund(bob, 1000)

	NewSequence(env).
		Join(alice, 5).
		Delegate(bob, alice, 40).
		AnnounceValidatorLeave(alice, 0).
		ValidatorLeave(alice, 7).
		AddFunc(func(t *testing.T) {
			// the delegation that did not announce keeps contributing
			AssertValidator(env.staker, alice).Active(false).Power(40).Assert(t)
			_, err := env.staker.AdvanceEpoch()
			require.NoError(t, err)
		}).
		Join(alice, 20).
		Run(t)

	AssertValidator(env.staker, alice).
		Active(true).
		Locked(100).
		Power(140).
		Commission(20).
		EpochJoined(2).
		NotUnbonding().
		Assert(t)

	validators, err := env.staker.Validators()
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{genesisA, genesisB, alice}, validators)
}

func TestCancelValidatorLeave(t *testing.T) {
	env := newDefaultEnv(t)

	assertRevert(t, env.staker.CancelValidatorLeave(genesisA), reverts.KindState)
	assertRevert(t, env.staker.CancelValidatorLeave(alice), reverts.KindState)
	assertRevert(t, env.staker.AnnounceValidatorLeave(alice, 0), reverts.KindState)

	require.NoError(t, env.staker.AnnounceValidatorLeave(genesisA, 5))
	require.NoError(t, env.staker.CancelValidatorLeave(genesisA))

	AssertValidator(env.staker, genesisA).Active(true).Power(100).NotUnbonding().Assert(t)
	assertRevert(t, env.staker.ValidatorLeave(genesisA, 100), reverts.KindState)

	// announcing again starts a fresh period
	require.NoError(t, env.staker.AnnounceValidatorLeave(genesisA, 20))
	AssertValidator(env.staker, genesisA).UnbondingAt(27).Assert(t)
	env.assertInvariants()
}

func TestAnnounceValidatorLeave_Overflow(t *testing.T) {
	env := newDefaultEnv(t)
	assertRevert(t, env.staker.AnnounceValidatorLeave(genesisA, ^uint64(0)), reverts.KindPolicy)
	AssertValidator(env.staker, genesisA).NotUnbonding().Assert(t)
}

func TestZeroUnbondingPeriod(t *testing.T) {
	rules := testRules()
	rules.UnbondingPeriod = 0
	env := newTestEnv(t, rules, genesisA)

	require.NoError(t, env.staker.AnnounceValidatorLeave(genesisA, 42))
	require.NoError(t, env.staker.ValidatorLeave(genesisA, 42), "leaving at the unbonding time is allowed")
}

func TestActiveSet(t *testing.T) {
	env := newDefaultEnv(t).fund(alice, 1000).fund(bob, 1000)

	require.NoError(t, env.staker.Join(alice, 5))
	require.NoError(t, env.staker.Delegate(bob, genesisB, big.NewInt(50)))
	require.NoError(t, env.staker.Delegate(bob, alice, big.NewInt(20)))

	set, err := env.staker.ActiveSet()
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{genesisB, alice}, set, "ordered by power, truncated to max validators")

	require.NoError(t, env.staker.AnnounceValidatorLeave(genesisB, 0))
	set, err = env.staker.ActiveSet()
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{alice, genesisA}, set, "unbonding validators are excluded")

	// ties are broken by address
	require.NoError(t, env.staker.AnnounceDelegatorLeave(bob, alice, 0))
	set, err = env.staker.ActiveSet()
	require.NoError(t, err)
	expected := []thor.Address{genesisA, alice}
	if string(alice.Bytes()) < string(genesisA.Bytes()) {
		expected = []thor.Address{alice, genesisA}
	}
	assert.Equal(t, expected, set)

	empty := newTestEnv(t, DefaultRules(), genesisA)
	set, err = empty.staker.ActiveSet()
	require.NoError(t, err)
	assert.Empty(t, set, "max validators of zero yields an empty set")
}

func TestEpochBookkeeping(t *testing.T) {
	env := newDefaultEnv(t).fund(alice, 1000)

	for i := 0; i < 3; i++ {
		_, err := env.staker.AdvanceEpoch()
		require.NoError(t, err)
	}
	epoch, err := env.staker.Epoch()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), epoch)

	require.NoError(t, env.staker.Join(alice, 5))
	AssertValidator(env.staker, alice).EpochJoined(4).Assert(t)

	require.NoError(t, env.staker.SetEpochCollected(alice, 3))
	val, err := env.staker.GetValidator(alice)
	require.NoError(t, err)
	require.NotNil(t, val.EpochCollected())
	assert.Equal(t, uint32(3), *val.EpochCollected())

	assertRevert(t, env.staker.SetEpochCollected(bob, 3), reverts.KindTarget)
}

func TestJoin_ZeroCaller(t *testing.T) {
	rules := testRules()
	rules.SelfBondAmount = nil
	env := newTestEnv(t, rules, genesisA, genesisB)

	assertRevert(t, env.staker.Join(thor.Address{}, 5), reverts.KindState)
	require.NoError(t, env.staker.Join(alice, 5))

	validators, err := env.staker.Validators()
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{genesisA, genesisB, alice}, validators)

	val, err := env.staker.GetValidator(thor.Address{})
	require.NoError(t, err)
	assert.Nil(t, val)

	assertRevert(t, env.staker.Delegate(thor.Address{}, alice, big.NewInt(1)), reverts.KindState)
	assertRevert(t, env.staker.Redelegate(thor.Address{}, alice, genesisA, big.NewInt(1)), reverts.KindState)
	env.assertInvariants()
}
