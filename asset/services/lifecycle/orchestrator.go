/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package lifecycle

import (
	"context"
	"strconv"

	"github.com/hyperledger-labs/fabric-asset-client/asset"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/chaincode"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/logging"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/network/driver"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	// ErrInconsistentRead is returned when a read does not reflect the last committed transaction
	ErrInconsistentRead = errors.New("read does not reflect the last committed transaction")
	// ErrStillPresent is returned when the asset can still be read after its deletion committed
	ErrStillPresent = errors.New("asset still present after deletion")
)

type Status int

const (
	Found Status = iota
	NotFound
)

func (s Status) String() string {
	if s == Found {
		return "found"
	}
	return "not found"
}

// ReadResult is the outcome of a read. A missing asset is a result, not an error.
type ReadResult struct {
	Status Status
	Asset  asset.Asset
}

type Option func(*Orchestrator)

func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Orchestrator) { o.tracer = tp.Tracer("asset_lifecycle") }
}

// Orchestrator drives assets through the contract bound to a session.
type Orchestrator struct {
	contract driver.Contract
	logger   logging.Logger
	tracer   trace.Tracer
}

func New(contract driver.Contract, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		contract: contract,
		logger:   logging.MustGetLogger("asset", "lifecycle"),
		tracer:   noop.NewTracerProvider().Tracer("asset_lifecycle"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Create submits the asset and returns once the transaction committed.
func (o *Orchestrator) Create(ctx context.Context, a asset.Asset) error {
	return o.submit(ctx, chaincode.CreateAssetFunction, a.ID, a.ID, a.Owner, a.ValueArg())
}

// Update sets owner and value of an existing asset. An empty owner keeps the current one.
func (o *Orchestrator) Update(ctx context.Context, id, owner string, value int) error {
	return o.submit(ctx, chaincode.UpdateAssetFunction, id, id, owner, strconv.Itoa(value))
}

func (o *Orchestrator) Delete(ctx context.Context, id string) error {
	return o.submit(ctx, chaincode.DeleteAssetFunction, id, id)
}

// Read evaluates the asset on a single peer.
func (o *Orchestrator) Read(ctx context.Context, id string) (ReadResult, error) {
	ctx, span := o.tracer.Start(ctx, "read", trace.WithAttributes(attribute.String("asset.id", id)))
	defer span.End()

	raw, err := o.contract.Evaluate(ctx, chaincode.ReadAssetFunction, id)
	if err != nil {
		if errors.Is(err, driver.ErrNotFound) {
			span.SetAttributes(attribute.String("asset.status", NotFound.String()))
			return ReadResult{Status: NotFound}, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluate failed")
		return ReadResult{}, err
	}
	a, err := asset.Unmarshal(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid payload")
		return ReadResult{}, errors.WithMessagef(driver.NewEvaluateError(chaincode.ReadAssetFunction, err), "asset [%s]", id)
	}
	span.SetAttributes(attribute.String("asset.status", Found.String()))
	return ReadResult{Status: Found, Asset: a}, nil
}

func (o *Orchestrator) submit(ctx context.Context, function, id string, args ...string) error {
	ctx, span := o.tracer.Start(ctx, "submit", trace.WithAttributes(
		attribute.String("asset.id", id),
		attribute.String("function", function),
	))
	defer span.End()

	if _, err := o.contract.Submit(ctx, function, args...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		return err
	}
	return nil
}

// Step names a stage of a lifecycle run.
type Step string

const (
	CreateStep          Step = "create"
	ReadStep            Step = "read"
	UpdateStep          Step = "update"
	ReadUpdatedStep     Step = "read-updated"
	DeleteStep          Step = "delete"
	ReadAfterDeleteStep Step = "read-after-delete"
)

// Report describes a lifecycle run.
type Report struct {
	Plan    asset.Plan
	Created asset.Asset
	Updated asset.Asset
	Deleted bool
	// Steps lists the completed steps in execution order
	Steps []Step
}

// Run executes create, read, update, read, delete and read-after-delete in this order.
// Each step starts only after the previous one resolved; submit failures end the run.
func (o *Orchestrator) Run(ctx context.Context, plan asset.Plan) (*Report, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	ctx, span := o.tracer.Start(ctx, "lifecycle", trace.WithAttributes(attribute.String("asset.id", plan.ID)))
	defer span.End()

	report := &Report{Plan: plan}
	err := o.run(ctx, plan, report)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lifecycle failed")
	}
	return report, err
}

func (o *Orchestrator) run(ctx context.Context, plan asset.Plan, report *Report) error {
	initial := plan.Initial()
	if err := o.Create(ctx, initial); err != nil {
		return errors.WithMessagef(err, "failed to create asset [%s]", plan.ID)
	}
	report.Steps = append(report.Steps, CreateStep)
	o.logger.Infof("Transaction has been submitted")

	created, err := o.expect(ctx, initial)
	if err != nil {
		return err
	}
	report.Created = created
	report.Steps = append(report.Steps, ReadStep)
	o.logger.Infof("Asset details: %s", created)

	if err := o.Update(ctx, plan.ID, plan.NewOwner, plan.NewValue); err != nil {
		return errors.WithMessagef(err, "failed to update asset [%s]", plan.ID)
	}
	report.Steps = append(report.Steps, UpdateStep)
	o.logger.Infof("Asset has been updated successfully")

	updated, err := o.expect(ctx, plan.Updated())
	if err != nil {
		return err
	}
	report.Updated = updated
	report.Steps = append(report.Steps, ReadUpdatedStep)
	o.logger.Infof("Updated asset details: %s", updated)

	if err := o.Delete(ctx, plan.ID); err != nil {
		return errors.WithMessagef(err, "failed to delete asset [%s]", plan.ID)
	}
	report.Steps = append(report.Steps, DeleteStep)
	o.logger.Infof("Asset has been deleted successfully")

	res, err := o.Read(ctx, plan.ID)
	if err != nil {
		return errors.WithMessagef(err, "failed to read asset [%s] after deletion", plan.ID)
	}
	if res.Status == Found {
		return errors.Wrapf(ErrStillPresent, "asset %s", res.Asset)
	}
	report.Deleted = true
	report.Steps = append(report.Steps, ReadAfterDeleteStep)
	o.logger.Infof("Failed to Read asset: asset not found: %s", plan.ID)
	return nil
}

// expect reads the asset and checks it matches the state committed last.
func (o *Orchestrator) expect(ctx context.Context, want asset.Asset) (asset.Asset, error) {
	res, err := o.Read(ctx, want.ID)
	if err != nil {
		return asset.Asset{}, errors.WithMessagef(err, "failed to read asset [%s]", want.ID)
	}
	if res.Status == NotFound {
		return asset.Asset{}, errors.Wrapf(ErrInconsistentRead, "asset [%s] not found, expected %s", want.ID, want)
	}
	if !res.Asset.Equal(want) {
		return res.Asset, errors.Wrapf(ErrInconsistentRead, "got %s, expected %s", res.Asset, want)
	}
	return res.Asset, nil
}
