/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"os"

	"github.com/hyperledger-labs/fabric-asset-client/cmd/assetctl/cobra/enroll"
	"github.com/hyperledger-labs/fabric-asset-client/cmd/assetctl/cobra/lifecycle"
	"github.com/hyperledger-labs/fabric-asset-client/cmd/assetctl/cobra/version"
	"github.com/hyperledger-labs/fabric-asset-client/cmd/assetctl/cobra/wallet"
	"github.com/spf13/cobra"
)

// The main command describes the service and
// defaults to printing the help message.
var mainCmd = &cobra.Command{
	Use:   "assetctl",
	Short: "Drive an asset through its lifecycle on a Fabric network.",
}

func main() {
	mainCmd.AddCommand(lifecycle.Cmd())
	mainCmd.AddCommand(enroll.Cmd())
	mainCmd.AddCommand(wallet.Cmd())
	mainCmd.AddCommand(version.Cmd())

	// On failure Cobra prints the usage message and error string, so we only
	// need to exit with a non-0 status
	if mainCmd.Execute() != nil {
		os.Exit(1)
	}
}
