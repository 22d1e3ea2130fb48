/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity"
	"github.com/pkg/errors"
)

// Cached serves lookups from an in-memory cache in front of a backing store.
// Identities are immutable once stored, so entries never need invalidation.
type Cached struct {
	Store
	cache *ristretto.Cache[string, *identity.Identity]
}

// NewCached wraps the store with a cache of the passed maximum cost, one unit per identity.
func NewCached(s Store, maxCost int64) (*Cached, error) {
	if maxCost <= 0 {
		maxCost = 1024
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, *identity.Identity]{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
		// cost counts identities, not bytes
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create wallet cache")
	}
	return &Cached{Store: s, cache: c}, nil
}

func (c *Cached) Get(ctx context.Context, label string) (*identity.Identity, error) {
	if id, ok := c.cache.Get(label); ok {
		return id, nil
	}
	id, err := c.Store.Get(ctx, label)
	if err != nil {
		return nil, err
	}
	c.cache.Set(label, id, 1)
	return id, nil
}

func (c *Cached) Put(ctx context.Context, id *identity.Identity) error {
	if err := c.Store.Put(ctx, id); err != nil {
		return err
	}
	c.cache.Set(id.Label, id, 1)
	return nil
}

// Wait blocks until pending cache writes are applied.
func (c *Cached) Wait() {
	c.cache.Wait()
}

func (c *Cached) Close() {
	c.cache.Close()
}
