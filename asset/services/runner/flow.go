/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package runner

import (
	"context"

	"github.com/hashicorp/go-uuid"
	"github.com/hyperledger-labs/fabric-asset-client/asset"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/config"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity/provisioner"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/lifecycle"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/logging"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/metrics"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/network/driver"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/dig"
)

type FlowParams struct {
	dig.In

	Config         *config.Configuration
	Logger         logging.Logger
	Provisioner    *provisioner.Provisioner
	Connector      driver.Connector
	Reporter       metrics.Reporter
	TracerProvider trace.TracerProvider
}

// Flow provisions the identities, then runs the configured lifecycles.
type Flow struct {
	config         *config.Configuration
	logger         logging.Logger
	provisioner    *provisioner.Provisioner
	connector      driver.Connector
	reporter       metrics.Reporter
	tracerProvider trace.TracerProvider
}

func NewFlow(p FlowParams) *Flow {
	return &Flow{
		config:         p.Config,
		logger:         p.Logger,
		provisioner:    p.Provisioner,
		connector:      p.Connector,
		reporter:       p.Reporter,
		tracerProvider: p.TracerProvider,
	}
}

// Provision makes sure the admin and the application user are in the wallet.
func (f *Flow) Provision(ctx context.Context) error {
	id := f.config.Identity
	if _, err := f.provisioner.EnsureAdmin(ctx, provisioner.AdminSpec{
		Label:    id.Admin.Label,
		EnrollID: id.Admin.EnrollID,
		Secret:   id.Admin.Secret,
	}); err != nil {
		f.logger.Errorf("Failed to enroll admin user %q: %s", id.Admin.Label, err)
		return err
	}
	if _, err := f.provisioner.EnsureUser(ctx, id.Admin.Label, provisioner.UserSpec{
		Label:       id.User.Label,
		Affiliation: id.User.Affiliation,
		Role:        id.User.Role,
	}); err != nil {
		f.logger.Errorf("Failed to register user %q: %s", id.User.Label, err)
		return err
	}
	return nil
}

// Plans returns one plan per configured flow.
// With more than one flow, every plan gets its own asset id so the flows do not interfere.
func (f *Flow) Plans() ([]asset.Plan, error) {
	base := f.config.Lifecycle.Asset
	flows := f.config.Lifecycle.Flows
	if flows <= 1 {
		return []asset.Plan{base}, nil
	}
	plans := make([]asset.Plan, flows)
	for i := range plans {
		suffix, err := uuid.GenerateUUID()
		if err != nil {
			return nil, errors.Wrap(err, "failed to generate asset id")
		}
		plans[i] = base
		plans[i].ID = base.ID + "-" + suffix[:8]
	}
	return plans, nil
}

// Run provisions the identities and runs the lifecycles as the application user.
// Errors are logged here and returned to the caller.
func (f *Flow) Run(ctx context.Context) ([]*lifecycle.Result, error) {
	if err := f.Provision(ctx); err != nil {
		return nil, err
	}
	plans, err := f.Plans()
	if err != nil {
		f.logger.Errorf("Failed to prepare the lifecycle: %s", err)
		return nil, err
	}

	target := lifecycle.Target{Channel: f.config.Network.Channel, Chaincode: f.config.Network.Chaincode}
	results, err := lifecycle.RunConcurrent(ctx, f.connector, f.config.Identity.User.Label, target, plans, len(plans),
		lifecycle.WithLogger(f.logger),
		lifecycle.WithTracerProvider(f.tracerProvider),
	)
	for _, r := range results {
		if r != nil && r.Error != nil {
			f.logger.Errorf("Failed to run the lifecycle of asset [%s]: %s", r.Plan.ID, r.Error)
		}
	}
	f.logger.Infof("%s", f.reporter.Summary())
	return results, err
}
