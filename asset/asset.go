/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package asset

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// Asset is the ledger entity driven through its lifecycle.
// The ledger holds the authoritative copy; values of this type are transient read results.
type Asset struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
	Value int    `json:"value"`
}

func (a Asset) String() string {
	return fmt.Sprintf("[%s] owner=%s value=%d", a.ID, a.Owner, a.Value)
}

// ValueArg returns the value in the form passed to the contract as a transaction argument.
func (a Asset) ValueArg() string {
	return strconv.Itoa(a.Value)
}

// Equal reports whether two assets carry the same state.
func (a Asset) Equal(b Asset) bool {
	return a.ID == b.ID && a.Owner == b.Owner && a.Value == b.Value
}

// Marshal returns the JSON encoding used on the ledger.
func (a Asset) Marshal() ([]byte, error) {
	return json.Marshal(a)
}

// Unmarshal decodes an asset from the payload returned by the contract.
func Unmarshal(raw []byte) (Asset, error) {
	var a Asset
	if len(raw) == 0 {
		return a, errors.New("empty asset payload")
	}
	if err := json.Unmarshal(raw, &a); err != nil {
		return a, errors.Wrapf(err, "failed to unmarshal asset [%s]", string(raw))
	}
	return a, nil
}

// Plan describes one lifecycle run: the initial state of the asset and the state it is updated to.
type Plan struct {
	ID       string `mapstructure:"id"`
	Owner    string `mapstructure:"owner"`
	Value    int    `mapstructure:"value"`
	NewOwner string `mapstructure:"newOwner"`
	NewValue int    `mapstructure:"newValue"`
}

// Initial returns the asset as created by the plan.
func (p Plan) Initial() Asset {
	return Asset{ID: p.ID, Owner: p.Owner, Value: p.Value}
}

// Updated returns the asset as expected after the update step.
// An empty new owner leaves the owner unchanged, matching the contract.
func (p Plan) Updated() Asset {
	owner := p.NewOwner
	if len(owner) == 0 {
		owner = p.Owner
	}
	return Asset{ID: p.ID, Owner: owner, Value: p.NewValue}
}

// Validate checks that the plan can be executed.
func (p Plan) Validate() error {
	if len(p.ID) == 0 {
		return errors.New("asset id is required")
	}
	if len(p.Owner) == 0 {
		return errors.Errorf("owner is required for asset [%s]", p.ID)
	}
	return nil
}
