// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"gopkg.in/yaml.v3"
)

// HexOrDecimal256 marshals big.Int as hex or decimal.
// Both JSON numbers and strings are accepted, as are YAML scalars.
type HexOrDecimal256 math.HexOrDecimal256

func NewHexOrDecimal256(v *big.Int) *HexOrDecimal256 {
	return (*HexOrDecimal256)(new(big.Int).Set(v))
}

// Int returns the value as a big integer, zero when nil.
func (i *HexOrDecimal256) Int() *big.Int {
	if i == nil {
		return new(big.Int)
	}
	return new(big.Int).Set((*big.Int)(i))
}

func (i *HexOrDecimal256) parse(text string) error {
	bigint, ok := math.ParseBig256(text)
	if !ok || bigint.Sign() < 0 {
		return fmt.Errorf("invalid hex or decimal integer %q", text)
	}
	*i = HexOrDecimal256(*bigint)
	return nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (i *HexOrDecimal256) UnmarshalJSON(input []byte) error {
	var hex string
	if err := json.Unmarshal(input, &hex); err != nil {
		if err = (*big.Int)(i).UnmarshalJSON(input); err != nil {
			return err
		}
		if (*big.Int)(i).Sign() < 0 || (*big.Int)(i).BitLen() > 256 {
			return fmt.Errorf("integer %s out of 256 bit range", input)
		}
		return nil
	}
	return i.parse(hex)
}

// MarshalJSON implements the json.Marshaler interface.
func (i HexOrDecimal256) MarshalJSON() ([]byte, error) {
	decimal256 := math.HexOrDecimal256(i)
	text, err := decimal256.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (i *HexOrDecimal256) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected an integer scalar", node.Line)
	}
	return i.parse(node.Value)
}

// MarshalYAML implements the yaml.Marshaler interface.
func (i HexOrDecimal256) MarshalYAML() (any, error) {
	decimal256 := math.HexOrDecimal256(i)
	text, err := decimal256.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(text), nil
}
