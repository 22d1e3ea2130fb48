/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"encoding/json"

	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/logging"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("asset", "identity", "wallet")

var (
	// ErrNotFound is returned when no identity is stored under the label
	ErrNotFound = errors.New("identity not found")
	// ErrExists is returned when an identity is already stored under the label
	ErrExists = errors.New("identity already exists")
)

// Store maps identity labels to identities.
// Implementations hold at most one identity per label and are safe for concurrent use.
type Store interface {
	// Get returns the identity stored under the label, or ErrNotFound
	Get(ctx context.Context, label string) (*identity.Identity, error)
	// Put stores the identity if no identity exists under its label, otherwise it returns ErrExists
	Put(ctx context.Context, id *identity.Identity) error
	// List returns the stored labels
	List(ctx context.Context) ([]string, error)
}

// Exists reports whether an identity is stored under the label.
func Exists(ctx context.Context, s Store, label string) (bool, error) {
	_, err := s.Get(ctx, label)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

// entry is the on-disk form of an identity, compatible with the Fabric SDK wallets
type entry struct {
	Credentials credentials `json:"credentials"`
	MSPID       string      `json:"mspId"`
	Type        string      `json:"type"`
	Version     int         `json:"version"`
}

type credentials struct {
	Certificate string `json:"certificate"`
	PrivateKey  string `json:"privateKey"`
}

const entryVersion = 1

// Marshal encodes the identity in the wallet entry format.
func Marshal(id *identity.Identity) ([]byte, error) {
	raw, err := json.Marshal(&entry{
		Credentials: credentials{
			Certificate: string(id.Certificate),
			PrivateKey:  string(id.PrivateKey),
		},
		MSPID:   id.MSPID,
		Type:    identity.X509Type,
		Version: entryVersion,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal identity [%s]", id.Label)
	}
	return raw, nil
}

// Unmarshal decodes a wallet entry stored under the passed label.
func Unmarshal(label string, raw []byte) (*identity.Identity, error) {
	e := &entry{}
	if err := json.Unmarshal(raw, e); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal identity [%s]", label)
	}
	if e.Type != identity.X509Type {
		return nil, errors.Errorf("identity [%s] has unsupported type [%s]", label, e.Type)
	}
	return &identity.Identity{
		Label:       label,
		MSPID:       e.MSPID,
		Certificate: []byte(e.Credentials.Certificate),
		PrivateKey:  []byte(e.Credentials.PrivateKey),
	}, nil
}
