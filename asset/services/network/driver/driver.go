/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package driver

import "context"

// Contract is a handle to a chaincode deployed on a channel.
type Contract interface {
	// Submit endorses, orders and waits for the commit of a transaction, returning its result.
	Submit(ctx context.Context, function string, args ...string) ([]byte, error)
	// Evaluate queries a single peer without ordering.
	Evaluate(ctx context.Context, function string, args ...string) ([]byte, error)
}

// Channel is a handle to a channel.
type Channel interface {
	Contract(name string) Contract
}

// Session is a live connection to the network bound to a single identity.
// Handles obtained from it are valid until Close is called.
type Session interface {
	Channel(name string) Channel
	// Close releases the session. Calling it more than once is allowed.
	Close() error
}

// Connector opens sessions for identities stored in a wallet.
type Connector interface {
	Connect(ctx context.Context, label string) (Session, error)
}
