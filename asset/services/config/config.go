/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperledger-labs/fabric-asset-client/asset"
	"github.com/pkg/errors"
)

// Network drivers.
const (
	FabricDriver = "fabric"
	MemoryDriver = "memory"
)

// Wallet types.
const (
	FilesystemWallet = "filesystem"
	MemoryWallet     = "memory"
	SQLiteWallet     = "sqlite"
	PostgresWallet   = "postgres"
)

// Tracing exporters.
const (
	NoTracing     = "none"
	StdoutTracing = "stdout"
)

// Metrics providers.
const (
	PrometheusMetrics = "prometheus"
	DisabledMetrics   = "disabled"
	MemoryMetrics     = "memory"
)

type Configuration struct {
	App       AppConfig       `mapstructure:"app"`
	Network   NetworkConfig   `mapstructure:"network"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	CA        CAConfig        `mapstructure:"ca"`
	Identity  IdentityConfig  `mapstructure:"identity"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type AppConfig struct {
	Logging   string `mapstructure:"logging"`
	LogFormat string `mapstructure:"logFormat"`
	// Tracing selects where lifecycle spans are exported: none or stdout
	Tracing string `mapstructure:"tracing"`
}

type NetworkConfig struct {
	// Driver selects the ledger backend: fabric or memory
	Driver string `mapstructure:"driver"`
	// Root is the directory holding the organizations tree of the network
	Root string `mapstructure:"root"`
	// Organization is the short organization name, e.g. org1
	Organization string `mapstructure:"organization"`
	// Domain is the organization domain, e.g. org1.example.com
	Domain string `mapstructure:"domain"`
	// ConnectionProfile overrides the profile path derived from Root, Domain and Organization
	ConnectionProfile string          `mapstructure:"connectionProfile"`
	Channel           string          `mapstructure:"channel"`
	Chaincode         string          `mapstructure:"chaincode"`
	Discovery         DiscoveryConfig `mapstructure:"discovery"`
	Timeouts          TimeoutsConfig  `mapstructure:"timeouts"`
}

type DiscoveryConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	AsLocalhost bool `mapstructure:"asLocalhost"`
}

// TimeoutsConfig overrides the gateway defaults when set to a positive value.
type TimeoutsConfig struct {
	Evaluate     time.Duration `mapstructure:"evaluate"`
	Endorse      time.Duration `mapstructure:"endorse"`
	Submit       time.Duration `mapstructure:"submit"`
	CommitStatus time.Duration `mapstructure:"commitStatus"`
}

type WalletConfig struct {
	Type       string      `mapstructure:"type"`
	Path       string      `mapstructure:"path"`
	DataSource string      `mapstructure:"dataSource"`
	Table      string      `mapstructure:"table"`
	Cache      CacheConfig `mapstructure:"cache"`
}

type CacheConfig struct {
	Enabled bool  `mapstructure:"enabled"`
	MaxCost int64 `mapstructure:"maxCost"`
}

type CAConfig struct {
	// Name is the certificate authority key in the connection profile
	Name      string        `mapstructure:"name"`
	VerifyTLS bool          `mapstructure:"verifyTLS"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type IdentityConfig struct {
	MSPID string      `mapstructure:"mspID"`
	Admin AdminConfig `mapstructure:"admin"`
	User  UserConfig  `mapstructure:"user"`
}

type AdminConfig struct {
	Label    string `mapstructure:"label"`
	EnrollID string `mapstructure:"enrollID"`
	Secret   string `mapstructure:"secret"`
}

type UserConfig struct {
	Label       string `mapstructure:"label"`
	Affiliation string `mapstructure:"affiliation"`
	Role        string `mapstructure:"role"`
}

type LifecycleConfig struct {
	Asset asset.Plan `mapstructure:"asset"`
	// Flows is the number of independent lifecycles run, each on its own session
	Flows int `mapstructure:"flows"`
}

type MetricsConfig struct {
	Provider      string `mapstructure:"provider"`
	ListenAddress string `mapstructure:"listenAddress"`
}

// ProfilePath returns the connection profile location.
// Unless overridden, it follows organizations/peerOrganizations/<domain>/connection-<organization>.json under the network root.
func (c NetworkConfig) ProfilePath() string {
	if len(c.ConnectionProfile) != 0 {
		return c.ConnectionProfile
	}
	return filepath.Join(
		c.Root,
		"organizations",
		"peerOrganizations",
		c.Domain,
		fmt.Sprintf("connection-%s.json", strings.ToLower(c.Organization)),
	)
}

// Validate checks the settings every flow relies on.
func (c *Configuration) Validate() error {
	switch c.Network.Driver {
	case FabricDriver:
		if len(c.Network.ConnectionProfile) == 0 && (len(c.Network.Domain) == 0 || len(c.Network.Organization) == 0) {
			return errors.New("network: either connectionProfile or domain and organization must be set")
		}
		if len(c.CA.Name) == 0 {
			return errors.New("ca: name is required")
		}
	case MemoryDriver:
	default:
		return errors.Errorf("network: unknown driver [%s]", c.Network.Driver)
	}
	if len(c.Network.Channel) == 0 || len(c.Network.Chaincode) == 0 {
		return errors.New("network: channel and chaincode are required")
	}
	switch c.Wallet.Type {
	case FilesystemWallet:
		if len(c.Wallet.Path) == 0 {
			return errors.New("wallet: path is required for filesystem wallets")
		}
	case SQLiteWallet, PostgresWallet:
		if len(c.Wallet.DataSource) == 0 {
			return errors.Errorf("wallet: dataSource is required for %s wallets", c.Wallet.Type)
		}
	case MemoryWallet:
	default:
		return errors.Errorf("wallet: unknown type [%s]", c.Wallet.Type)
	}
	if len(c.Identity.MSPID) == 0 {
		return errors.New("identity: mspID is required")
	}
	if len(c.Identity.Admin.Label) == 0 || len(c.Identity.User.Label) == 0 {
		return errors.New("identity: admin and user labels are required")
	}
	switch c.App.Tracing {
	case "", NoTracing, StdoutTracing:
	default:
		return errors.Errorf("app: unknown tracing exporter [%s]", c.App.Tracing)
	}
	switch c.Metrics.Provider {
	case PrometheusMetrics, DisabledMetrics, MemoryMetrics:
	default:
		return errors.Errorf("metrics: unknown provider [%s]", c.Metrics.Provider)
	}
	if c.Lifecycle.Flows < 1 {
		return errors.Errorf("lifecycle: flows must be positive, got %d", c.Lifecycle.Flows)
	}
	return nil
}
