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
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/exchsync/bybit/clocksync"
	"github.com/exchsync/bybit/session"
)

// flags
var timestampLocalFlag bool

func init() {
	RootCmd.AddCommand(timestampCmd)
	timestampCmd.Flags().BoolVarP(&timestampLocalFlag, "local", "l", false, "don't talk to the server, print local timestamp only")
}

var timestampCmd = &cobra.Command{
	Use:   "timestamp",
	Short: "Print request timestamp in milliseconds",
	Long:  "Print request timestamp in milliseconds. Falls back to local time if server time is unavailable.",
	Run: func(c *cobra.Command, args []string) {
		ConfigureVerbosity()
		if timestampLocalFlag {
			fmt.Println(clocksync.GenerateLocalTimestamp())
			return
		}
		cfg, err := loadConfig()
		if err != nil {
			log.Fatal(err)
		}
		s := session.New(cfg)
		fmt.Println(s.Timestamp(context.Background()))
	},
}
