/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/config"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/logging"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/runner"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// AddConfigFlag registers the configuration file flag on cmd.
func AddConfigFlag(cmd *cobra.Command, path *string) {
	cmd.Flags().StringVarP(path, "config", "c", "", "configuration file merged over the defaults (env "+config.ConfigFileEnv+")")
}

// NewExecutor loads the configuration, applies overrides, initializes logging and wires the dependencies.
func NewExecutor(path string, overrides ...func(*config.Configuration)) (*runner.Executor, *config.Configuration, error) {
	c, err := config.Load(path)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "failed to load configuration")
	}
	for _, o := range overrides {
		o(c)
	}
	if err := c.Validate(); err != nil {
		return nil, nil, errors.WithMessage(err, "invalid configuration")
	}
	logging.Init(c.App.Logging, c.App.LogFormat)

	e, err := runner.NewExecutor(c)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "failed to wire dependencies")
	}
	return e, c, nil
}

// NoArgs rejects positional arguments.
func NoArgs(_ *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errors.New("trailing args detected")
	}
	return nil
}
