/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package memory

import (
	"context"
	"sync"

	"github.com/hashicorp/go-uuid"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/chaincode"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity/wallet"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/logging"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/metrics"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/network/driver"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("asset", "network", "memory")

// Connector opens sessions on a Ledger for identities held in a wallet.
type Connector struct {
	ledger  *Ledger
	store   wallet.Store
	metrics *metrics.Metrics
}

func NewConnector(ledger *Ledger, store wallet.Store, m *metrics.Metrics) *Connector {
	return &Connector{ledger: ledger, store: store, metrics: m}
}

func (c *Connector) Connect(ctx context.Context, label string) (driver.Session, error) {
	id, err := c.store.Get(ctx, label)
	if err != nil {
		if errors.Is(err, wallet.ErrNotFound) {
			return nil, errors.Wrapf(driver.ErrConnection, "an identity for [%s] does not exist in the wallet", label)
		}
		return nil, errors.Wrapf(driver.ErrConnection, "failed to load identity [%s]: %s", label, err)
	}
	if err := id.Validate(); err != nil {
		return nil, errors.Wrapf(driver.ErrConnection, "invalid identity [%s]: %s", label, err)
	}
	creator, err := id.Serialize()
	if err != nil {
		return nil, errors.Wrapf(driver.ErrConnection, "invalid identity [%s]: %s", label, err)
	}
	c.ledger.sessionOpened()
	if c.metrics != nil {
		c.metrics.SessionsOpen.Add(1)
	}
	logger.Debugf("session opened for [%s]", label)
	return &Session{connector: c, identity: id, creator: creator}, nil
}

type Session struct {
	connector *Connector
	identity  *identity.Identity
	creator   []byte

	mu     sync.RWMutex
	closed bool
}

func (s *Session) Channel(name string) driver.Channel {
	return &Channel{session: s, name: name}
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.connector.ledger.sessionClosed()
	if s.connector.metrics != nil {
		s.connector.metrics.SessionsOpen.Add(-1)
	}
	logger.Debugf("session closed for [%s]", s.identity.Label)
	return nil
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

type Channel struct {
	session *Session
	name    string
}

func (c *Channel) Contract(name string) driver.Contract {
	return &Contract{channel: c, name: name}
}

type Contract struct {
	channel *Channel
	name    string
}

func (c *Contract) Submit(ctx context.Context, function string, args ...string) (res []byte, err error) {
	done := c.channel.session.connector.metrics.Track(metrics.Submit, function)
	defer func() { done(err) }()

	txID, err := uuid.GenerateUUID()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate transaction id")
	}
	if err := c.check(ctx, driver.EndorseStage, function); err != nil {
		return nil, err
	}
	return c.channel.session.connector.ledger.submit(c.channel.name, c.name, c.proposal(txID, function, args))
}

func (c *Contract) Evaluate(ctx context.Context, function string, args ...string) (res []byte, err error) {
	done := c.channel.session.connector.metrics.Track(metrics.Evaluate, function)
	defer func() { done(err) }()

	if err := c.check(ctx, driver.EvaluateStage, function); err != nil {
		return nil, err
	}
	txID, err := uuid.GenerateUUID()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate transaction id")
	}
	return c.channel.session.connector.ledger.evaluate(c.channel.name, c.name, c.proposal(txID, function, args))
}

func (c *Contract) proposal(txID, function string, args []string) chaincode.Proposal {
	return chaincode.Proposal{
		TxID:      txID,
		ChannelID: c.channel.name,
		Creator:   c.channel.session.creator,
		Function:  function,
		Args:      args,
	}
}

func (c *Contract) check(ctx context.Context, stage driver.Stage, function string) error {
	if c.channel.session.isClosed() {
		return &driver.TransactionError{Stage: stage, Function: function, Code: "Unavailable", Err: errors.New("session closed")}
	}
	if err := ctx.Err(); err != nil {
		return &driver.TransactionError{Stage: stage, Function: function, Code: "Canceled", Err: err}
	}
	return nil
}
