/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package runner

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperledger-labs/fabric-asset-client/asset/services/config"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity/ca"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity/provisioner"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity/wallet"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/logging"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/network/driver"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/network/memory"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadConfig(t *testing.T) *config.Configuration {
	t.Helper()
	t.Setenv(config.ConfigFileEnv, "")
	c, err := config.Load("testdata/memory.yaml")
	require.NoError(t, err)
	return c
}

func newExecutor(t *testing.T, c *config.Configuration) (*Executor, *logging.MockLogger) {
	t.Helper()
	e, err := NewExecutor(c)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, e.Close()) })
	logger := &logging.MockLogger{}
	require.NoError(t, e.C.Decorate(func(logging.Logger) logging.Logger { return logger }))
	return e, logger
}

func TestFlowOnMemoryNetwork(t *testing.T) {
	e, logger := newExecutor(t, loadConfig(t))

	err := e.Invoke(func(f *Flow, ledger *memory.Ledger, store wallet.Store, authority provisioner.CertificateAuthority) error {
		ctx := context.Background()
		results, err := f.Run(ctx)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, results[0].Report.Deleted)
		assert.Equal(t, "asset101", results[0].Plan.ID)

		labels, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"admin", "appUser"}, labels)
		opened, closed := ledger.Sessions()
		assert.Equal(t, 1, opened)
		assert.Equal(t, 1, closed)

		// identities are reused on the second run
		_, err = f.Run(ctx)
		require.NoError(t, err)
		enroll, register := authority.(*ca.LocalAuthority).Calls()
		assert.Equal(t, 2, enroll)
		assert.Equal(t, 1, register)
		return nil
	})
	require.NoError(t, err)

	assert.True(t, logger.Contains("INFO: Transaction has been submitted"))
	assert.True(t, logger.Contains("INFO: Updated asset details: [asset101] owner=Prakhar-Sharma-New value=222"))
	assert.True(t, logger.Contains("Total requests 6,"))
	assert.True(t, logger.Contains("Total requests 12,"))
	// the read after deletion is the only failed request of each run
	assert.True(t, logger.Contains("Success ratio 83.33%"))
}

func TestFlowConcurrent(t *testing.T) {
	c := loadConfig(t)
	c.Lifecycle.Flows = 4
	e, _ := newExecutor(t, c)

	require.NoError(t, e.Invoke(func(f *Flow, ledger *memory.Ledger) {
		results, err := f.Run(context.Background())
		require.NoError(t, err)
		require.Len(t, results, 4)
		ids := map[string]bool{}
		for _, r := range results {
			assert.True(t, strings.HasPrefix(r.Plan.ID, "asset101-"))
			assert.True(t, r.Report.Deleted)
			ids[r.Plan.ID] = true
		}
		assert.Len(t, ids, 4)
		opened, closed := ledger.Sessions()
		assert.Equal(t, 4, opened)
		assert.Equal(t, 4, closed)
	}))
}

func TestFlowSubmitFailure(t *testing.T) {
	e, logger := newExecutor(t, loadConfig(t))

	require.NoError(t, e.Invoke(func(f *Flow, ledger *memory.Ledger) {
		ledger.InjectFault("DeleteAsset", driver.SubmitStage)
		_, err := f.Run(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, driver.ErrOrdering))
		_, closed := ledger.Sessions()
		assert.Equal(t, 1, closed)
	}))
	assert.True(t, logger.Contains("ERROR: Failed to run the lifecycle of asset [asset101]"))
}

func TestFlowWrongAdminSecret(t *testing.T) {
	c := loadConfig(t)
	e, logger := newExecutor(t, c)
	require.NoError(t, e.C.Decorate(func(a provisioner.CertificateAuthority) (provisioner.CertificateAuthority, error) {
		return ca.NewLocalAuthority("ca-org1", "admin", "other-secret", "org1")
	}))

	require.NoError(t, e.Invoke(func(f *Flow, ledger *memory.Ledger) {
		_, err := f.Run(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ca.ErrAuthentication))
		opened, _ := ledger.Sessions()
		assert.Zero(t, opened)
	}))
	assert.True(t, logger.Contains(`ERROR: Failed to enroll admin user "admin"`))
}

func TestPersistentWallets(t *testing.T) {
	dir := t.TempDir()
	for _, w := range []config.WalletConfig{
		{Type: config.FilesystemWallet, Path: filepath.Join(dir, "wallet")},
		{Type: config.SQLiteWallet, DataSource: filepath.Join(dir, "wallet.db"), Table: "identities"},
		{Type: config.FilesystemWallet, Path: filepath.Join(dir, "cached"), Cache: config.CacheConfig{Enabled: true, MaxCost: 16}},
	} {
		t.Run(w.Type, func(t *testing.T) {
			c := loadConfig(t)
			c.Wallet = w
			e, _ := newExecutor(t, c)
			require.NoError(t, e.Invoke(func(f *Flow, store wallet.Store) {
				require.NoError(t, f.Provision(context.Background()))
				ok, err := wallet.Exists(context.Background(), store, "appUser")
				require.NoError(t, err)
				assert.True(t, ok)
			}))
		})
	}
}

func TestFabricDriverMissingProfile(t *testing.T) {
	c := loadConfig(t)
	c.Network.Driver = config.FabricDriver
	c.Network.ConnectionProfile = filepath.Join(t.TempDir(), "connection-org1.json")
	e, _ := newExecutor(t, c)
	err := e.Invoke(func(*Flow) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed connection profile")
}

func TestStdoutTracing(t *testing.T) {
	e, err := NewExecutor(loadConfig(t))
	require.NoError(t, err)
	var buf bytes.Buffer
	tp, err := e.stdoutTracerProvider(&buf)
	require.NoError(t, err)
	_, span := tp.Tracer("test").Start(context.Background(), "lifecycle")
	span.End()
	require.NoError(t, e.Close())
	assert.Contains(t, buf.String(), `"Name": "lifecycle"`)
}
