/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fabric

import (
	"context"
	"crypto/x509"
	"time"

	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity/wallet"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/logging"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/metrics"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/network/driver"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/network/profile"
	"github.com/hyperledger/fabric-gateway/pkg/client"
	"github.com/hyperledger/fabric-gateway/pkg/hash"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

var logger = logging.MustGetLogger("asset", "network", "fabric")

// Timeouts bound the gateway calls. Zero leaves the call unbounded.
type Timeouts struct {
	Evaluate     time.Duration
	Endorse      time.Duration
	Submit       time.Duration
	CommitStatus time.Duration
}

type Options struct {
	// Discovery lets the gateway peer select the endorsers.
	// When disabled, endorsement is pinned to the organizations of the connection profile.
	Discovery bool
	// AsLocalhost dials the gateway peer on localhost. It only applies with discovery enabled.
	AsLocalhost bool
	Timeouts    Timeouts
}

// Connector opens gateway sessions described by a connection profile.
type Connector struct {
	profile *profile.Profile
	store   wallet.Store
	opts    Options
	metrics *metrics.Metrics
	// dialOptions are appended to the options of every gRPC client
	dialOptions []grpc.DialOption
}

func NewConnector(p *profile.Profile, store wallet.Store, opts Options, m *metrics.Metrics) *Connector {
	return &Connector{profile: p, store: store, opts: opts, metrics: m}
}

// Connect opens a session for the identity stored under label.
// The gRPC connection is established lazily, so connectivity problems surface with the first transaction.
func (c *Connector) Connect(ctx context.Context, label string) (driver.Session, error) {
	id, err := c.store.Get(ctx, label)
	if err != nil {
		if errors.Is(err, wallet.ErrNotFound) {
			return nil, errors.Wrapf(driver.ErrConnection, "an identity for [%s] does not exist in the wallet", label)
		}
		return nil, errors.Wrapf(driver.ErrConnection, "failed to load identity [%s]: %s", label, err)
	}
	gwID, err := id.GatewayIdentity()
	if err != nil {
		return nil, errors.Wrapf(driver.ErrConnection, "invalid identity [%s]: %s", label, err)
	}
	sign, err := id.Sign()
	if err != nil {
		return nil, errors.Wrapf(driver.ErrConnection, "invalid identity [%s]: %s", label, err)
	}

	endpoint, err := c.profile.GatewayPeer(c.opts.Discovery && c.opts.AsLocalhost)
	if err != nil {
		return nil, errors.Wrapf(driver.ErrConnection, "no gateway peer: %s", err)
	}
	creds, err := transportCredentials(endpoint)
	if err != nil {
		return nil, err
	}
	conn, err := grpc.NewClient(endpoint.Address, append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, c.dialOptions...)...)
	if err != nil {
		return nil, errors.Wrapf(driver.ErrConnection, "failed to create grpc client for [%s]: %s", endpoint.Address, err)
	}

	gw, err := client.Connect(gwID, c.connectOptions(sign, conn)...)
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(driver.ErrConnection, "failed to connect gateway: %s", err)
	}

	s := &Session{gateway: gw, conn: conn, metrics: c.metrics}
	if !c.opts.Discovery {
		s.endorsers = c.profile.EndorsingOrganizations()
	}
	if c.metrics != nil {
		c.metrics.SessionsOpen.Add(1)
	}
	logger.Infof("connected to gateway peer [%s] at [%s] as [%s]", endpoint.Name, endpoint.Address, label)
	return s, nil
}

func (c *Connector) connectOptions(sign func([]byte) ([]byte, error), conn *grpc.ClientConn) []client.ConnectOption {
	opts := []client.ConnectOption{
		client.WithSign(sign),
		client.WithHash(hash.SHA256),
		client.WithClientConnection(conn),
	}
	t := c.opts.Timeouts
	if t.Evaluate > 0 {
		opts = append(opts, client.WithEvaluateTimeout(t.Evaluate))
	}
	if t.Endorse > 0 {
		opts = append(opts, client.WithEndorseTimeout(t.Endorse))
	}
	if t.Submit > 0 {
		opts = append(opts, client.WithSubmitTimeout(t.Submit))
	}
	if t.CommitStatus > 0 {
		opts = append(opts, client.WithCommitStatusTimeout(t.CommitStatus))
	}
	return opts
}

func transportCredentials(e *profile.Endpoint) (credentials.TransportCredentials, error) {
	if !e.TLS {
		return insecure.NewCredentials(), nil
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(e.TLSRootPEM) {
		return nil, errors.Wrapf(driver.ErrConnection, "no valid tls ca certificate for peer [%s]", e.Name)
	}
	return credentials.NewClientTLSFromCert(pool, e.ServerName), nil
}
