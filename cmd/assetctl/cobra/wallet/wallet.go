/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity/wallet"
	"github.com/hyperledger-labs/fabric-asset-client/cmd/assetctl/cobra/common"
	"github.com/spf13/cobra"
)

// Cmd returns the Cobra Command for wallet inspection.
func Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Inspect the wallet.",
	}
	cmd.AddCommand(listCmd())
	return cmd
}

func listCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the identities stored in the wallet.",
		Args:  common.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			e, _, err := common.NewExecutor(configPath)
			if err != nil {
				return err
			}
			defer e.Close()
			return e.Invoke(func(store wallet.Store) error {
				labels, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, label := range labels {
					id, err := store.Get(cmd.Context(), label)
					if err != nil {
						return err
					}
					cmd.Printf("%s\t%s\n", label, id.MSPID)
				}
				return nil
			})
		},
	}
	common.AddConfigFlag(cmd, &configPath)
	return cmd
}
