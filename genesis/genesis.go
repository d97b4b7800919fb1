// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakeledger/builtin/staker"
	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/thor"
)

// Genesis is the initial state of the ledger.
type Genesis struct {
	LaunchTime uint64         `json:"launchTime" yaml:"launchTime"`
	Owner      thor.Address   `json:"owner" yaml:"owner"`
	Rules      Rules          `json:"rules" yaml:"rules"`
	Validators []thor.Address `json:"validators" yaml:"validators"`
	Accounts   []Account      `json:"accounts" yaml:"accounts"`
}

// Rules are the staker rules. Omitted fields are zero.
type Rules struct {
	MaxValidators   uint32                 `json:"maxValidators" yaml:"maxValidators"`
	SelfBondAmount  *HexOrDecimal256       `json:"selfBondAmount" yaml:"selfBondAmount"`
	MinCommission   uint32                 `json:"minCommission" yaml:"minCommission"`
	FeeDistribution [thor.FeeShares]uint32 `json:"feeDistribution" yaml:"feeDistribution"`
	UnbondingPeriod uint64                 `json:"unbondingPeriod" yaml:"unbondingPeriod"`
	EpochLength     uint64                 `json:"epochLength" yaml:"epochLength"`
}

// Account is an initial token balance.
type Account struct {
	Address thor.Address     `json:"address" yaml:"address"`
	Balance *HexOrDecimal256 `json:"balance" yaml:"balance"`
}

// StakerRules converts the rules for the staker.
func (r Rules) StakerRules() staker.Rules {
	return staker.Rules{
		MaxValidators:   r.MaxValidators,
		SelfBondAmount:  r.SelfBondAmount.Int(),
		MinCommission:   r.MinCommission,
		FeeDistribution: r.FeeDistribution,
		UnbondingPeriod: r.UnbondingPeriod,
		EpochLength:     r.EpochLength,
	}
}

// Load reads a genesis file, YAML when the extension is .yaml or .yml and JSON otherwise.
func Load(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON decodes a JSON genesis, rejecting unknown fields.
func ParseJSON(data []byte) (*Genesis, error) {
	var gen Genesis
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&gen); err != nil {
		return nil, errors.Wrap(err, "decode json genesis")
	}
	if err := gen.Validate(); err != nil {
		return nil, err
	}
	return &gen, nil
}

// ParseYAML decodes a YAML genesis, rejecting unknown fields.
func ParseYAML(data []byte) (*Genesis, error) {
	var gen Genesis
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&gen); err != nil {
		return nil, errors.Wrap(err, "decode yaml genesis")
	}
	if err := gen.Validate(); err != nil {
		return nil, err
	}
	return &gen, nil
}

// Validate checks the genesis can be applied.
func (g *Genesis) Validate() error {
	if err := g.Rules.StakerRules().Validate(); err != nil {
		return errors.WithMessage(err, "rules")
	}
	seen := make(map[thor.Address]struct{}, len(g.Validators))
	for _, v := range g.Validators {
		if v.IsZero() {
			return errors.New("validators: zero address")
		}
		if _, ok := seen[v]; ok {
			return errors.Errorf("validators: duplicate %s", v)
		}
		seen[v] = struct{}{}
	}
	for _, acc := range g.Accounts {
		if acc.Address.IsZero() {
			return errors.New("accounts: zero address")
		}
	}
	return nil
}

// ID returns the hash identifying the genesis.
func (g *Genesis) ID() (thor.Bytes32, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return thor.Bytes32{}, err
	}
	return thor.Blake2b(data), nil
}

// Apply writes the genesis into rt: the params owner, the token balances, then the staker rules and validators.
func (g *Genesis) Apply(rt *runtime.Runtime) error {
	return rt.Apply(func(c *runtime.Contracts) error {
		if !g.Owner.IsZero() {
			if err := c.Params.Init(g.Owner); err != nil {
				return errors.WithMessage(err, "params owner")
			}
		}
		for _, acc := range g.Accounts {
			if err := c.Token.Mint(acc.Address, acc.Balance.Int()); err != nil {
				return errors.WithMessagef(err, "account %s", acc.Address)
			}
		}
		if err := c.Staker.Initialize(g.Validators, g.Rules.StakerRules()); err != nil {
			return errors.WithMessage(err, "staker")
		}
		return nil
	})
}
