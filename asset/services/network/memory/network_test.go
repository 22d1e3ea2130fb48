/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package memory

import (
	"context"
	"testing"

	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity/ca"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity/provisioner"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity/wallet"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/metrics"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/network/driver"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Ledger, *Connector, *metrics.Metrics) {
	t.Helper()
	authority, err := ca.NewLocalAuthority("ca-org1", "admin", "adminpw", "org1")
	require.NoError(t, err)
	store := wallet.NewMemory()
	_, err = provisioner.New(store, authority, "Org1MSP").EnsureAdmin(context.Background(), provisioner.AdminSpec{Label: "admin", Secret: "adminpw"})
	require.NoError(t, err)

	ledger, err := NewLedger()
	require.NoError(t, err)
	ledger.Deploy("mychannel", "asset-management")
	m := metrics.NewMetrics(metrics.NewProvider())
	return ledger, NewConnector(ledger, store, m), m
}

func TestSubmitAndEvaluate(t *testing.T) {
	ctx := context.Background()
	ledger, connector, m := setup(t)

	session, err := connector.Connect(ctx, "admin")
	require.NoError(t, err)
	defer session.Close()
	contract := session.Channel("mychannel").Contract("asset-management")

	_, err = contract.Submit(ctx, "CreateAsset", "asset101", "Prakhar-Sharma", "111")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"asset101","owner":"Prakhar-Sharma","value":111}`, string(ledger.Get("mychannel", "asset-management", "asset101")))

	raw, err := contract.Evaluate(ctx, "ReadAsset", "asset101")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"asset101","owner":"Prakhar-Sharma","value":111}`, string(raw))

	_, err = contract.Submit(ctx, "DeleteAsset", "asset101")
	require.NoError(t, err)
	_, err = contract.Evaluate(ctx, "ReadAsset", "asset101")
	require.Error(t, err)
	assert.True(t, errors.Is(err, driver.ErrNotFound))

	summary := metrics.NewReporter(m).Summary()
	assert.Contains(t, summary, "Total requests 4")
	assert.Contains(t, summary, "Success ratio 75.00%")
}

func TestSubmitMissingAsset(t *testing.T) {
	ctx := context.Background()
	_, connector, _ := setup(t)
	session, err := connector.Connect(ctx, "admin")
	require.NoError(t, err)
	defer session.Close()
	contract := session.Channel("mychannel").Contract("asset-management")

	for _, fn := range []string{"UpdateAsset", "DeleteAsset"} {
		args := []string{"ghost"}
		if fn == "UpdateAsset" {
			args = append(args, "x", "1")
		}
		_, err = contract.Submit(ctx, fn, args...)
		require.Error(t, err)
		assert.True(t, errors.Is(err, driver.ErrEndorsement))
		var txErr *driver.TransactionError
		require.True(t, errors.As(err, &txErr))
		assert.Equal(t, []string{"asset not found: ghost"}, txErr.Details)
		assert.NotEmpty(t, txErr.TxID)
	}
}

func TestInjectedFaults(t *testing.T) {
	ctx := context.Background()
	ledger, connector, _ := setup(t)
	session, err := connector.Connect(ctx, "admin")
	require.NoError(t, err)
	defer session.Close()
	contract := session.Channel("mychannel").Contract("asset-management")

	for stage, sentinel := range map[driver.Stage]error{
		driver.EndorseStage: driver.ErrEndorsement,
		driver.SubmitStage:  driver.ErrOrdering,
		driver.CommitStage:  driver.ErrCommit,
	} {
		ledger.InjectFault("CreateAsset", stage)
		_, err = contract.Submit(ctx, "CreateAsset", "asset101", "a", "1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel), "stage %s", stage)
		assert.Nil(t, ledger.Get("mychannel", "asset-management", "asset101"), "stage %s", stage)
	}

	// faults are one-shot
	_, err = contract.Submit(ctx, "CreateAsset", "asset101", "a", "1")
	require.NoError(t, err)
}

func TestConnectUnknownIdentity(t *testing.T) {
	ledger, connector, _ := setup(t)
	_, err := connector.Connect(context.Background(), "appUser")
	require.Error(t, err)
	assert.True(t, errors.Is(err, driver.ErrConnection))
	opened, _ := ledger.Sessions()
	assert.Zero(t, opened)
}

func TestSessionClose(t *testing.T) {
	ctx := context.Background()
	ledger, connector, m := setup(t)
	session, err := connector.Connect(ctx, "admin")
	require.NoError(t, err)
	contract := session.Channel("mychannel").Contract("asset-management")

	require.NoError(t, session.Close())
	require.NoError(t, session.Close())
	opened, closed := ledger.Sessions()
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, closed)
	assert.Equal(t, float64(0), m.SessionsOpen.(interface{ Get() float64 }).Get())

	_, err = contract.Evaluate(ctx, "ReadAsset", "asset101")
	assert.True(t, errors.Is(err, driver.ErrEvaluation))
	assert.False(t, errors.Is(err, driver.ErrNotFound))
}

func TestUndeployedChaincode(t *testing.T) {
	ctx := context.Background()
	_, connector, _ := setup(t)
	session, err := connector.Connect(ctx, "admin")
	require.NoError(t, err)
	defer session.Close()

	_, err = session.Channel("otherchannel").Contract("asset-management").Submit(ctx, "CreateAsset", "a", "b", "1")
	assert.True(t, errors.Is(err, driver.ErrEndorsement))
}
