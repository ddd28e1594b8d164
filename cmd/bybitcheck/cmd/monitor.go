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
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/exchsync/bybit/clocksync"
	"github.com/exchsync/bybit/config"
	"github.com/exchsync/bybit/session"
	"github.com/exchsync/bybit/stats"
	"github.com/exchsync/bybit/stream"
)

// flags
var monitorIntervalFlag time.Duration

func init() {
	RootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().DurationVarP(&monitorIntervalFlag, "interval", "i", 10*time.Second, "how often to check streams and produce a timestamp")
}

// monitorTick produces one timestamp and checks stream health
func monitorTick(ctx context.Context, s *session.Session, m *stream.Manager) {
	ts := s.Timestamp(ctx)
	log.Debugf("timestamp %d", ts)
	if !m.AllConnected() {
		log.Warningf("%v", m)
	}
}

func monitorRun(ctx context.Context, cfg *config.Config) error {
	st := stats.NewJSONStats()
	go st.Start(cfg.MonitoringPort)

	s := session.New(cfg)
	s.Clock = clocksync.New(st)

	urls, err := cfg.StreamURLs()
	if err != nil {
		return err
	}
	m := stream.NewManager(urls, cfg.PingInterval, func(string, []byte) {}, st)
	if err := m.ConnectAll(ctx); err != nil {
		return err
	}
	defer m.Close()

	ticker := time.NewTicker(monitorIntervalFlag)
	defer ticker.Stop()
	for {
		monitorTick(ctx, s, m)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Keep streams open and export clock sync and stream stats over http",
	Run: func(c *cobra.Command, args []string) {
		ConfigureVerbosity()
		cfg, err := loadConfig()
		if err != nil {
			log.Fatal(err)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := monitorRun(ctx, cfg); err != nil {
			log.Fatal(err)
		}
	},
}
