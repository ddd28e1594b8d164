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
	"time"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/exchsync/bybit/clocksync"
	"github.com/exchsync/bybit/session"
)

// flags
var delayDumpFlag bool

func init() {
	RootCmd.AddCommand(delayCmd)
	delayCmd.Flags().BoolVarP(&delayDumpFlag, "dump", "d", false, "dump raw server time response")
}

func delayRun(ctx context.Context, s *session.Session) error {
	if delayDumpFlag {
		st, err := s.FetchServerTime(ctx)
		if err != nil {
			return fmt.Errorf("fetching server time: %w", err)
		}
		spew.Dump(st)
	}
	d, err := clocksync.GetDelay(ctx, s)
	if err != nil {
		return err
	}
	fmt.Printf("server %s: delay %v (%d ns)\n", s.BaseURL, d, d.Nanoseconds())
	return nil
}

var delayCmd = &cobra.Command{
	Use:   "delay",
	Short: "Print delay between exchange server clock and local clock",
	Run: func(c *cobra.Command, args []string) {
		ConfigureVerbosity()
		cfg, err := loadConfig()
		if err != nil {
			log.Fatal(err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout+time.Second)
		defer cancel()
		if err := delayRun(ctx, session.New(cfg)); err != nil {
			log.Fatal(err)
		}
	},
}
