/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package network

import (
	"sync"

	"github.com/hyperledger-labs/fabric-asset-client/asset/services/logging"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/network/driver"
)

var logger = logging.MustGetLogger("asset", "network")

// Guard releases a session exactly once, whichever way the flow that owns it terminates.
type Guard struct {
	session driver.Session
	once    sync.Once
	err     error
}

// NewGuard returns a guard for the session. A nil session yields a guard whose Release does nothing.
func NewGuard(session driver.Session) *Guard {
	return &Guard{session: session}
}

// Release closes the session on the first call and returns the outcome of that close on every call.
func (g *Guard) Release() error {
	g.once.Do(func() {
		if g.session == nil {
			return
		}
		if g.err = g.session.Close(); g.err != nil {
			logger.Warnf("failed to close session: %s", g.err)
			return
		}
		logger.Debugf("session released")
	})
	return g.err
}
