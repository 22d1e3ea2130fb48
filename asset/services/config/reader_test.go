/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadDefault checks the embedded defaults reproduce the reference run
func TestLoadDefault(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, FabricDriver, c.Network.Driver)
	assert.Equal(t, "mychannel", c.Network.Channel)
	assert.Equal(t, "asset-management", c.Network.Chaincode)
	assert.True(t, c.Network.Discovery.Enabled)
	assert.True(t, c.Network.Discovery.AsLocalhost)
	assert.Equal(t, "Org1MSP", c.Identity.MSPID)
	assert.Equal(t, "admin", c.Identity.Admin.Label)
	assert.Equal(t, "adminpw", c.Identity.Admin.Secret)
	assert.Equal(t, "appUser", c.Identity.User.Label)
	assert.Equal(t, "org1.department1", c.Identity.User.Affiliation)
	assert.Equal(t, 10*time.Second, c.CA.Timeout)
	assert.Equal(t, "asset101", c.Lifecycle.Asset.ID)
	assert.Equal(t, 111, c.Lifecycle.Asset.Value)
	assert.Equal(t, "Prakhar-Sharma-New", c.Lifecycle.Asset.NewOwner)
	assert.Equal(t, 222, c.Lifecycle.Asset.NewValue)
	assert.Equal(t,
		filepath.Join("..", "test-network", "organizations", "peerOrganizations", "org1.example.com", "connection-org1.json"),
		c.Network.ProfilePath(),
	)
}

func TestLoadMergesFile(t *testing.T) {
	c, err := Load("./testdata/memory.yaml")
	require.NoError(t, err)

	assert.Equal(t, MemoryDriver, c.Network.Driver)
	assert.Equal(t, "testchannel", c.Network.Channel)
	// untouched keys keep their defaults
	assert.Equal(t, "asset-management", c.Network.Chaincode)
	assert.Equal(t, MemoryWallet, c.Wallet.Type)
	assert.Equal(t, 4, c.Lifecycle.Flows)
	assert.Equal(t, "asset202", c.Lifecycle.Asset.ID)
	assert.Equal(t, "Prakhar-Sharma", c.Lifecycle.Asset.Owner)
	assert.Equal(t, DisabledMetrics, c.Metrics.Provider)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(ConfigFileEnv, "./testdata/memory.yaml")
	t.Setenv("ASSET_CLIENT_NETWORK_CHAINCODE", "basic")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, MemoryDriver, c.Network.Driver)
	assert.Equal(t, "basic", c.Network.Chaincode)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("./testdata/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "couldn't read the config file")

	_, err = Load("./testdata/invalid.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver [besu]")
}

func TestProfilePathOverride(t *testing.T) {
	n := NetworkConfig{ConnectionProfile: "/tmp/ccp.yaml", Root: "x", Domain: "y", Organization: "Org1"}
	assert.Equal(t, "/tmp/ccp.yaml", n.ProfilePath())
	n.ConnectionProfile = ""
	assert.Equal(t, filepath.Join("x", "organizations", "peerOrganizations", "y", "connection-org1.json"), n.ProfilePath())
}
