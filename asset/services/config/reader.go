/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"bytes"
	"embed"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

//go:embed resources/config.yaml
var embeddedFiles embed.FS

// ENV variables
const (
	EnvPrefix           = "ASSET_CLIENT"
	UseDefaultConfigEnv = EnvPrefix + "_USE_DEFAULT_CONFIG"
	ConfigFileEnv       = EnvPrefix + "_CONFIG_FILE"
)

// Load reads the embedded default configuration, merges the configuration file (if any) on top of it,
// then applies ASSET_CLIENT_* environment overrides.
// An empty configFile falls back to the ASSET_CLIENT_CONFIG_FILE variable.
func Load(configFile string) (*Configuration, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if os.Getenv(UseDefaultConfigEnv) != "false" {
		if err := loadDefaultConfig(v); err != nil {
			return nil, err
		}
	}

	if len(configFile) == 0 {
		configFile = os.Getenv(ConfigFileEnv)
	}
	if len(configFile) != 0 {
		if err := loadConfig(v, configFile); err != nil {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "cannot unmarshal the configuration")
	}
	if err := config.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid configuration")
	}
	return &config, nil
}

// loadConfig merges the passed configuration file.
func loadConfig(v *viper.Viper, configFile string) error {
	v.SetConfigFile(configFile)
	if err := v.MergeInConfig(); err != nil {
		return errors.Wrapf(err, "couldn't read the config file '%s'", configFile)
	}
	return nil
}

// loadDefaultConfig reads the embedded default configuration.
func loadDefaultConfig(v *viper.Viper) error {
	configuration, err := embeddedFiles.ReadFile("resources/config.yaml")
	if err != nil {
		return errors.Wrap(err, "couldn't find the default config file 'config.yaml'")
	}

	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(configuration)); err != nil {
		return errors.Wrap(err, "couldn't read the default config file 'config.yaml'")
	}
	return nil
}
