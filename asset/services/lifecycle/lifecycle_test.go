/*
Copyright IBM Corp All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package lifecycle_test

import (
	"context"
	"fmt"

	"github.com/hyperledger-labs/fabric-asset-client/asset"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity/ca"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity/provisioner"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity/wallet"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/lifecycle"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/logging"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/network/driver"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/network/memory"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var target = lifecycle.Target{Channel: "mychannel", Chaincode: "asset-management"}

var _ = Describe("Asset lifecycle on the memory network", func() {
	var (
		ctx       context.Context
		ledger    *memory.Ledger
		connector *memory.Connector
		logger    *logging.MockLogger
		plan      asset.Plan
	)

	BeforeEach(func() {
		ctx = context.Background()
		authority, err := ca.NewLocalAuthority("ca-org1", "admin", "adminpw", "org1.department1")
		Expect(err).NotTo(HaveOccurred())
		store := wallet.NewMemory()
		p := provisioner.New(store, authority, "Org1MSP")
		_, err = p.EnsureAdmin(ctx, provisioner.AdminSpec{Label: "admin", EnrollID: "admin", Secret: "adminpw"})
		Expect(err).NotTo(HaveOccurred())
		_, err = p.EnsureUser(ctx, "admin", provisioner.UserSpec{Label: "appUser", Affiliation: "org1.department1", Role: "client"})
		Expect(err).NotTo(HaveOccurred())

		ledger, err = memory.NewLedger()
		Expect(err).NotTo(HaveOccurred())
		ledger.Deploy(target.Channel, target.Chaincode)
		connector = memory.NewConnector(ledger, store, nil)
		logger = &logging.MockLogger{}
		plan = asset.Plan{ID: "asset101", Owner: "Prakhar-Sharma", Value: 111, NewOwner: "Prakhar-Sharma-New", NewValue: 222}
	})

	It("drives the asset from creation to deletion and releases the session", func() {
		report, err := lifecycle.RunSession(ctx, connector, "appUser", target, plan, lifecycle.WithLogger(logger))
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Created).To(Equal(asset.Asset{ID: "asset101", Owner: "Prakhar-Sharma", Value: 111}))
		Expect(report.Updated).To(Equal(asset.Asset{ID: "asset101", Owner: "Prakhar-Sharma-New", Value: 222}))
		Expect(report.Deleted).To(BeTrue())
		Expect(logger.Contains("Failed to Read asset: asset not found: asset101")).To(BeTrue())
		Expect(ledger.Get(target.Channel, target.Chaincode, "asset101")).To(BeNil())

		opened, closed := ledger.Sessions()
		Expect(opened).To(Equal(1))
		Expect(closed).To(Equal(1))
	})

	It("releases the session when a submit fails", func() {
		ledger.InjectFault("UpdateAsset", driver.CommitStage)
		report, err := lifecycle.RunSession(ctx, connector, "appUser", target, plan, lifecycle.WithLogger(logger))
		Expect(err).To(MatchError(driver.ErrCommit))
		Expect(report.Steps).To(Equal([]lifecycle.Step{lifecycle.CreateStep, lifecycle.ReadStep}))
		Expect(logger.Contains("Asset has been updated successfully")).To(BeFalse())

		_, closed := ledger.Sessions()
		Expect(closed).To(Equal(1))
	})

	It("performs no release when the session cannot be established", func() {
		_, err := lifecycle.RunSession(ctx, connector, "unknownUser", target, plan)
		Expect(err).To(MatchError(driver.ErrConnection))

		opened, closed := ledger.Sessions()
		Expect(opened).To(BeZero())
		Expect(closed).To(BeZero())
	})

	It("runs independent flows each over its own session", func() {
		var plans []asset.Plan
		for i := 0; i < 6; i++ {
			p := plan
			p.ID = fmt.Sprintf("asset%d", 200+i)
			plans = append(plans, p)
		}
		ledger.InjectFault("CreateAsset", driver.EndorseStage)

		results, err := lifecycle.RunConcurrent(ctx, connector, "appUser", target, plans, 3, lifecycle.WithLogger(logger))
		Expect(err).To(MatchError(driver.ErrEndorsement))
		Expect(results).To(HaveLen(6))

		failed := 0
		for i, r := range results {
			Expect(r.Plan.ID).To(Equal(plans[i].ID))
			if r.Error != nil {
				failed++
				continue
			}
			Expect(r.Report.Deleted).To(BeTrue())
		}
		Expect(failed).To(Equal(1))

		opened, closed := ledger.Sessions()
		Expect(opened).To(Equal(6))
		Expect(closed).To(Equal(6))
	})
})
