/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/exchsync/bybit/config"
)

// RootCmd is a main entry point. It's exported so bybitcheck could be easily extended without touching core functionality.
var RootCmd = &cobra.Command{
	Use:   "bybitcheck",
	Short: "Clock sync and stream routing diagnostics for the exchange API",
}

// flags
var (
	rootVerboseFlag bool
	rootTestnetFlag bool
	rootConfigFlag  string
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&rootVerboseFlag, "verbose", "v", false, "verbose output")
	RootCmd.PersistentFlags().BoolVarP(&rootTestnetFlag, "testnet", "t", false, "use testnet endpoints")
	RootCmd.PersistentFlags().StringVarP(&rootConfigFlag, "config", "c", "", "path to config, flag values are ignored when set")
}

// ConfigureVerbosity configures log verbosity based on parsed flags. Needs to be called by any subcommand.
func ConfigureVerbosity() {
	log.SetLevel(log.InfoLevel)
	if rootVerboseFlag {
		log.SetLevel(log.DebugLevel)
	}
}

// loadConfig returns validated config either from file or from flags
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Testnet = rootTestnetFlag
	if rootConfigFlag != "" {
		log.Warningf("using config from %s, flag values are ignored", rootConfigFlag)
		var err error
		cfg, err = config.ReadConfig(rootConfigFlag)
		if err != nil {
			return nil, err
		}
	}
	if err := cfg.EvalAndValidate(); err != nil {
		return nil, err
	}
	log.Debugf("Config: %+v", cfg.Public())
	return cfg, nil
}

// Execute is the main entry point for CLI interface
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
