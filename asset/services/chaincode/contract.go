/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package chaincode

import (
	"github.com/hyperledger-labs/fabric-asset-client/asset"
	"github.com/pkg/errors"
)

const (
	CreateAssetFunction = "CreateAsset"
	ReadAssetFunction   = "ReadAsset"
	UpdateAssetFunction = "UpdateAsset"
	DeleteAssetFunction = "DeleteAsset"
)

// State is the subset of the world state used by the contract.
type State interface {
	GetState(key string) ([]byte, error)
	PutState(key string, value []byte) error
	DelState(key string) error
}

// ErrAssetNotFound is returned when the requested id has no state
var ErrAssetNotFound = errors.New("asset not found")

type notFoundError string

func (e notFoundError) Error() string { return "asset not found: " + string(e) }

func (e notFoundError) Is(target error) bool { return target == ErrAssetNotFound }

// Contract implements the asset management transactions on top of a State.
type Contract struct{}

// CreateAsset writes the asset, replacing any previous state under the same id.
func (Contract) CreateAsset(state State, id, owner string, value int) error {
	raw, err := asset.Asset{ID: id, Owner: owner, Value: value}.Marshal()
	if err != nil {
		return err
	}
	return state.PutState(id, raw)
}

func (Contract) ReadAsset(state State, id string) (*asset.Asset, error) {
	raw, err := get(state, id)
	if err != nil {
		return nil, err
	}
	a, err := asset.Unmarshal(raw)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAsset sets the value of an existing asset. An empty owner keeps the current one.
func (c Contract) UpdateAsset(state State, id, owner string, value int) error {
	a, err := c.ReadAsset(state, id)
	if err != nil {
		return err
	}
	if len(owner) != 0 {
		a.Owner = owner
	}
	a.Value = value
	raw, err := a.Marshal()
	if err != nil {
		return err
	}
	return state.PutState(id, raw)
}

func (Contract) DeleteAsset(state State, id string) error {
	if _, err := get(state, id); err != nil {
		return err
	}
	return state.DelState(id)
}

func get(state State, id string) ([]byte, error) {
	raw, err := state.GetState(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read asset")
	}
	if raw == nil {
		return nil, notFoundError(id)
	}
	return raw, nil
}
