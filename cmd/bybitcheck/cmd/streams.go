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
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/exchsync/bybit/stream"
)

// flags
var (
	streamsURLFlag      string
	streamsTopicsFlag   []string
	streamsDurationFlag time.Duration
)

func init() {
	RootCmd.AddCommand(streamsCmd)
	streamsCmd.Flags().StringVarP(&streamsURLFlag, "url", "u", "", "url to route subscription by, only path is matched")
	streamsCmd.Flags().StringSliceVarP(&streamsTopicsFlag, "topic", "T", nil, "topic to subscribe to, can be repeated")
	streamsCmd.Flags().DurationVarP(&streamsDurationFlag, "duration", "d", 5*time.Second, "how long to listen")
}

// messageCounter counts frames per stream url
type messageCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func newMessageCounter() *messageCounter {
	return &messageCounter{counts: map[string]int{}}
}

func (m *messageCounter) handle(url string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[url]++
	log.Debugf("%s: %s", url, data)
}

func (m *messageCounter) get(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[url]
}

func streamsRun(ctx context.Context, urls []string, pingInterval time.Duration) error {
	counter := newMessageCounter()
	m := stream.NewManager(urls, pingInterval, counter.handle, nil)
	if err := m.ConnectAll(ctx); err != nil {
		return fmt.Errorf("connecting streams: %w", err)
	}
	defer m.Close()

	if streamsURLFlag != "" && len(streamsTopicsFlag) > 0 {
		if err := m.Subscribe(streamsURLFlag, streamsTopicsFlag...); err != nil {
			return fmt.Errorf("subscribing via %s: %w", streamsURLFlag, err)
		}
	}

	select {
	case <-ctx.Done():
	case <-time.After(streamsDurationFlag):
	}

	for _, c := range m.Conns() {
		fmt.Printf("%s connected: %v, topics: %v, messages: %d\n", c.URL(), c.IsConnected(), c.Topics(), counter.get(c.URL()))
	}
	fmt.Println(m)
	if !m.AllConnected() {
		return fmt.Errorf("not all streams are connected")
	}
	return nil
}

var streamsCmd = &cobra.Command{
	Use:   "streams",
	Short: "Connect to configured streams, optionally subscribe, and report their health",
	Run: func(c *cobra.Command, args []string) {
		ConfigureVerbosity()
		cfg, err := loadConfig()
		if err != nil {
			log.Fatal(err)
		}
		urls, err := cfg.StreamURLs()
		if err != nil {
			log.Fatal(err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout+streamsDurationFlag)
		defer cancel()
		if err := streamsRun(ctx, urls, cfg.PingInterval); err != nil {
			log.Fatal(err)
		}
	},
}
