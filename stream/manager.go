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

package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/exchsync/bybit/router"
)

// stats keys
const (
	statSubscribe      = "stream.subscribe"
	statSubscribeError = "stream.subscribe.error"
	statUnrouted       = "stream.unrouted"
	statConnected      = "stream.connected"
)

// StatsServer is a stats server interface
type StatsServer interface {
	SetCounter(key string, val int64)
	UpdateCounterBy(key string, count int64)
}

// Manager owns a set of stream connections and routes subscriptions to them
type Manager struct {
	urls         []string
	pingInterval time.Duration
	handler      MessageHandler
	stats        StatsServer

	mu    sync.RWMutex
	table router.Table[*Conn]
}

// NewManager returns a Manager for the given stream URLs. Nothing is dialed until ConnectAll.
// stats may be nil.
func NewManager(urls []string, pingInterval time.Duration, handler MessageHandler, stats StatsServer) *Manager {
	if stats == nil {
		stats = nopStats{}
	}
	return &Manager{
		urls:         urls,
		pingInterval: pingInterval,
		handler:      handler,
		stats:        stats,
	}
}

// ConnectAll dials all streams concurrently. If any dial fails, the ones that
// succeeded are closed and the first error is returned. Connections from an
// earlier successful call are closed once the new ones are in place.
func (m *Manager) ConnectAll(ctx context.Context) error {
	conns := make([]*Conn, len(m.urls))
	eg, ictx := errgroup.WithContext(ctx)
	for i, u := range m.urls {
		i, u := i, u
		eg.Go(func() error {
			c, err := Dial(ictx, u, m.pingInterval, m.handler)
			if err != nil {
				return err
			}
			conns[i] = c
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		for _, c := range conns {
			if c != nil {
				c.Close()
			}
		}
		return err
	}

	table := router.Table[*Conn]{}
	for _, c := range conns {
		table.Add(c.URL(), c)
	}
	m.mu.Lock()
	previous := m.table
	m.table = table
	m.mu.Unlock()
	for _, b := range previous {
		if err := b.Handler.Close(); err != nil {
			log.Debugf("closing replaced %s: %v", b.URL, err)
		}
	}
	m.report()
	return nil
}

// Conns returns managed connections in configuration order
func (m *Manager) Conns() []*Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conns := make([]*Conn, 0, len(m.table))
	for _, b := range m.table {
		conns = append(conns, b.Handler)
	}
	return conns
}

// Resolve returns the connection serving the path of url
func (m *Manager) Resolve(url string) (*Conn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.table.Resolve(url)
}

// Subscribe sends a subscription for topics down the connection whose
// endpoint path matches url, regardless of its host
func (m *Manager) Subscribe(url string, topics ...string) error {
	c, err := m.Resolve(url)
	if err != nil {
		m.stats.UpdateCounterBy(statUnrouted, 1)
		return err
	}
	if err := c.Subscribe(topics...); err != nil {
		m.stats.UpdateCounterBy(statSubscribeError, 1)
		return err
	}
	m.stats.UpdateCounterBy(statSubscribe, 1)
	return nil
}

// AllConnected reports whether every managed connection is alive
func (m *Manager) AllConnected() bool {
	connected := AllConnected(m.Conns())
	m.report()
	return connected
}

func (m *Manager) report() {
	var n int64
	for _, c := range m.Conns() {
		if c.IsConnected() {
			n++
		}
	}
	m.stats.SetCounter(statConnected, n)
}

// Close closes all connections
func (m *Manager) Close() {
	for _, c := range m.Conns() {
		if err := c.Close(); err != nil {
			log.Debugf("closing %s: %v", c.URL(), err)
		}
	}
	m.report()
}

// String describes managed connections
func (m *Manager) String() string {
	return fmt.Sprintf("%d streams, all connected: %v", len(m.Conns()), AllConnected(m.Conns()))
}

type nopStats struct{}

func (nopStats) SetCounter(string, int64) {}
func (nopStats) UpdateCounterBy(string, int64) {}
