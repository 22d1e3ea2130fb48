/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"sort"
	"sync"

	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity"
	"github.com/pkg/errors"
)

type Memory struct {
	mu         sync.RWMutex
	identities map[string]identity.Identity
}

func NewMemory() *Memory {
	return &Memory{identities: map[string]identity.Identity{}}
}

func (m *Memory) Get(_ context.Context, label string) (*identity.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.identities[label]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "no identity [%s]", label)
	}
	return &id, nil
}

func (m *Memory) Put(_ context.Context, id *identity.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.identities[id.Label]; ok {
		return errors.Wrapf(ErrExists, "identity [%s]", id.Label)
	}
	m.identities[id.Label] = *id
	return nil
}

func (m *Memory) List(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	labels := make([]string, 0, len(m.identities))
	for l := range m.identities {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels, nil
}
