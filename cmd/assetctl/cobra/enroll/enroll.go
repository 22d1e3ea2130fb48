/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package enroll

import (
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/runner"
	"github.com/hyperledger-labs/fabric-asset-client/cmd/assetctl/cobra/common"
	"github.com/spf13/cobra"
)

// Cmd returns the Cobra Command that enrolls the admin and registers the application user.
func Cmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "enroll",
		Short: "Enroll the admin and register the application user.",
		Long:  `Enroll the admin and register the application user, storing both in the wallet. Identities already in the wallet are left untouched.`,
		Args:  common.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			e, c, err := common.NewExecutor(configPath)
			if err != nil {
				return err
			}
			defer e.Close()
			return e.Invoke(func(f *runner.Flow) error {
				if err := f.Provision(cmd.Context()); err != nil {
					return err
				}
				cmd.Printf("Identities [%s] and [%s] are available in the wallet\n", c.Identity.Admin.Label, c.Identity.User.Label)
				return nil
			})
		},
	}
	common.AddConfigFlag(cmd, &configPath)
	return cmd
}
