/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package lifecycle

import (
	"context"
	"time"

	"github.com/hyperledger-labs/fabric-asset-client/asset/services/config"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/metrics"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/runner"
	"github.com/hyperledger-labs/fabric-asset-client/cmd/assetctl/cobra/common"
	"github.com/spf13/cobra"
)

// Cmd returns the Cobra Command that runs the asset lifecycle.
func Cmd() *cobra.Command {
	var (
		configPath string
		flows      int
		assetID    string
	)
	cmd := &cobra.Command{
		Use:   "lifecycle",
		Short: "Create, read, update and delete an asset.",
		Long: `Provision the identities if needed, then create the asset, read it back, update it, read it again, delete it ` +
			`and check that it is gone. Every submitted transaction is awaited until it commits.`,
		Args: common.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			e, c, err := common.NewExecutor(configPath, func(c *config.Configuration) {
				if cmd.Flags().Changed("flows") {
					c.Lifecycle.Flows = flows
				}
				if len(assetID) != 0 {
					c.Lifecycle.Asset.ID = assetID
				}
			})
			if err != nil {
				return err
			}
			defer e.Close()

			if c.Metrics.Provider == config.PrometheusMetrics && len(c.Metrics.ListenAddress) != 0 {
				server, err := metrics.Serve(c.Metrics.ListenAddress)
				if err != nil {
					return err
				}
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = server.Stop(ctx)
				}()
			}

			return e.Invoke(func(f *runner.Flow) error {
				results, err := f.Run(cmd.Context())
				for _, r := range results {
					if r != nil && r.Error == nil {
						cmd.Printf("asset %s: created %s, updated %s, deleted in %v\n", r.Plan.ID, r.Report.Created, r.Report.Updated, r.Duration)
					}
				}
				return err
			})
		},
	}
	common.AddConfigFlag(cmd, &configPath)
	cmd.Flags().IntVar(&flows, "flows", 1, "number of independent lifecycles, each over its own session")
	cmd.Flags().StringVar(&assetID, "asset-id", "", "id of the asset, overrides the configuration")
	return cmd
}
