/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package lifecycle

import (
	"context"
	"time"

	"github.com/hyperledger-labs/fabric-asset-client/asset"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/network"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/network/driver"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/pool"
)

// Target locates the contract on the network.
type Target struct {
	Channel   string
	Chaincode string
}

// Result is the outcome of one lifecycle flow.
type Result struct {
	Plan     asset.Plan
	Report   *Report
	Duration time.Duration
	Error    error
}

// RunSession opens a session for label, runs the plan on the target contract and releases the session.
// The session is released on every path once it was established.
func RunSession(ctx context.Context, connector driver.Connector, label string, target Target, plan asset.Plan, opts ...Option) (*Report, error) {
	session, err := connector.Connect(ctx, label)
	if err != nil {
		return nil, err
	}
	guard := network.NewGuard(session)
	defer func() {
		// close failures are logged by the guard
		_ = guard.Release()
	}()

	contract := session.Channel(target.Channel).Contract(target.Chaincode)
	return New(contract, opts...).Run(ctx, plan)
}

// RunConcurrent runs one independent flow per plan, each over its own session, with at most workers flows at a time.
// Results are returned in plan order, together with the joined errors of the failed flows.
func RunConcurrent(ctx context.Context, connector driver.Connector, label string, target Target, plans []asset.Plan, workers int, opts ...Option) ([]*Result, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make([]*Result, len(plans))
	p := pool.New().WithErrors().WithMaxGoroutines(workers)
	for i, plan := range plans {
		p.Go(func() error {
			start := time.Now()
			report, err := RunSession(ctx, connector, label, target, plan, opts...)
			results[i] = &Result{Plan: plan, Report: report, Duration: time.Since(start), Error: err}
			if err != nil {
				return errors.WithMessagef(err, "flow for asset [%s]", plan.ID)
			}
			return nil
		})
	}
	return results, p.Wait()
}
