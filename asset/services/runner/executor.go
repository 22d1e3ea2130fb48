/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package runner

import (
	"context"
	stderrors "errors"
	"io"
	"os"

	"github.com/hyperledger-labs/fabric-asset-client/asset/services/config"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity/ca"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity/provisioner"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity/wallet"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity/wallet/db"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/logging"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/metrics"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/network/driver"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/network/fabric"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/network/memory"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/network/profile"
	fmetrics "github.com/hyperledger/fabric-lib-go/common/metrics"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/dig"
)

// Executor instantiates all dependencies of a flow
type Executor struct {
	C *dig.Container // Allow for overwriting dependencies

	closers []func() error
}

func NewExecutor(c *config.Configuration) (*Executor, error) {
	e := &Executor{C: dig.New()}

	err := stderrors.Join(
		e.C.Provide(func() *config.Configuration { return c }),
		e.C.Provide(func() logging.Logger { return logging.MustGetLogger("asset", "runner") }),
		e.C.Provide(func() (fmetrics.Provider, error) { return metrics.NewProviderFor(c.Metrics.Provider) }),
		e.C.Provide(func(p fmetrics.Provider) (*metrics.Metrics, metrics.Reporter) {
			m := metrics.NewMetrics(p)
			return m, metrics.NewReporter(m)
		}),
		e.C.Provide(e.newTracerProvider),
		e.C.Provide(e.newWallet),
		e.C.Provide(newMemoryLedger),
		e.C.Provide(newNetwork),
		e.C.Provide(func(store wallet.Store, authority provisioner.CertificateAuthority) *provisioner.Provisioner {
			return provisioner.New(store, authority, c.Identity.MSPID)
		}),
		e.C.Provide(NewFlow),
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Invoke runs f with dependencies resolved from the container.
func (e *Executor) Invoke(f interface{}) error {
	return e.C.Invoke(f)
}

// Close releases the resources created by the container, in reverse order.
func (e *Executor) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	e.closers = nil
	return stderrors.Join(errs...)
}

func (e *Executor) newTracerProvider(c *config.Configuration) (trace.TracerProvider, error) {
	if c.App.Tracing != config.StdoutTracing {
		return noop.NewTracerProvider(), nil
	}
	return e.stdoutTracerProvider(os.Stdout)
}

func (e *Executor) stdoutTracerProvider(w io.Writer) (trace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create stdout trace exporter")
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	e.closers = append(e.closers, func() error { return tp.Shutdown(context.Background()) })
	return tp, nil
}

func (e *Executor) newWallet(c *config.Configuration) (wallet.Store, error) {
	var store wallet.Store
	switch c.Wallet.Type {
	case config.FilesystemWallet:
		fs, err := wallet.NewFileSystem(c.Wallet.Path)
		if err != nil {
			return nil, err
		}
		store = fs
	case config.MemoryWallet:
		store = wallet.NewMemory()
	case config.SQLiteWallet, config.PostgresWallet:
		s, err := db.Open(c.Wallet.Type, c.Wallet.DataSource, c.Wallet.Table)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, s.Close)
		store = s
	default:
		return nil, errors.Errorf("unknown wallet type [%s]", c.Wallet.Type)
	}
	if !c.Wallet.Cache.Enabled {
		return store, nil
	}
	cached, err := wallet.NewCached(store, c.Wallet.Cache.MaxCost)
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, func() error { cached.Close(); return nil })
	return cached, nil
}

// newMemoryLedger returns the ledger used by the memory driver, with the configured chaincode deployed.
func newMemoryLedger(c *config.Configuration) (*memory.Ledger, error) {
	l, err := memory.NewLedger()
	if err != nil {
		return nil, err
	}
	l.Deploy(c.Network.Channel, c.Network.Chaincode)
	return l, nil
}

type networkOut struct {
	dig.Out

	Connector driver.Connector
	Authority provisioner.CertificateAuthority
}

// newNetwork builds the connector and the certificate authority of the configured driver.
func newNetwork(c *config.Configuration, store wallet.Store, m *metrics.Metrics, ledger *memory.Ledger) (networkOut, error) {
	switch c.Network.Driver {
	case config.MemoryDriver:
		authority, err := ca.NewLocalAuthority(c.CA.Name, c.Identity.Admin.EnrollID, c.Identity.Admin.Secret, affiliationRoot(c.Identity.User.Affiliation))
		if err != nil {
			return networkOut{}, err
		}
		return networkOut{Connector: memory.NewConnector(ledger, store, m), Authority: authority}, nil
	case config.FabricDriver:
		p, err := profile.Load(c.Network.ProfilePath())
		if err != nil {
			return networkOut{}, err
		}
		caProfile, roots, err := p.CertificateAuthority(c.CA.Name)
		if err != nil {
			return networkOut{}, err
		}
		var tlsRoots [][]byte
		if len(roots) != 0 {
			tlsRoots = append(tlsRoots, roots)
		}
		authority, err := ca.New(ca.Config{
			URL:          caProfile.URL,
			CAName:       caProfile.CAName,
			TLSRootCerts: tlsRoots,
			VerifyTLS:    c.CA.VerifyTLS || caProfile.HTTPOptions.Verify,
			Timeout:      c.CA.Timeout,
		}, m)
		if err != nil {
			return networkOut{}, err
		}
		connector := fabric.NewConnector(p, store, fabric.Options{
			Discovery:   c.Network.Discovery.Enabled,
			AsLocalhost: c.Network.Discovery.AsLocalhost,
			Timeouts:    fabric.Timeouts(c.Network.Timeouts),
		}, m)
		return networkOut{Connector: connector, Authority: authority}, nil
	default:
		return networkOut{}, errors.Errorf("unknown network driver [%s]", c.Network.Driver)
	}
}

func affiliationRoot(affiliation string) string {
	for i, r := range affiliation {
		if r == '.' {
			return affiliation[:i]
		}
	}
	return affiliation
}
