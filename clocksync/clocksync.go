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

package clocksync

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// stats keys
const (
	statFetchOK           = "clocksync.fetch.ok"
	statFetchError        = "clocksync.fetch.error"
	statTimestampServer   = "clocksync.timestamp.server"
	statTimestampFallback = "clocksync.timestamp.fallback"
	statTimestampLocal    = "clocksync.timestamp.local"
	statDelayNS           = "clocksync.delay_ns"
)

// Default is the process-wide ClockSync used by package level functions
var Default = New(nil)

// entry holds the cached delay of one session. Its mutex serializes the
// first fetch, so concurrent callers for the same session wait for it.
type entry struct {
	mu    sync.Mutex
	delay time.Duration
	ok    bool
}

// ClockSync measures and caches the delay between server and local clocks.
// A delay is stored per session on first successful measurement and never
// recomputed until Forget or Reset is called.
type ClockSync struct {
	mu      sync.Mutex
	entries map[TimeFetcher]*entry
	stats   StatsServer
	now     func() time.Time
}

// New returns a ClockSync reporting to the given stats server, which may be nil
func New(stats StatsServer) *ClockSync {
	if stats == nil {
		stats = nopStats{}
	}
	return &ClockSync{
		entries: map[TimeFetcher]*entry{},
		stats:   stats,
		now:     time.Now,
	}
}

// noSession reports whether s is absent, including a nil pointer behind the interface
func noSession(s TimeFetcher) bool {
	if s == nil {
		return true
	}
	v := reflect.ValueOf(s)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// cacheable reports whether s can be used as a cache key without panicking
func cacheable(s TimeFetcher) bool {
	return reflect.ValueOf(s).Comparable()
}

func (c *ClockSync) entry(s TimeFetcher) (*entry, error) {
	if !cacheable(s) {
		return nil, &ClockFetchError{Err: fmt.Errorf("%w: %T", errUncacheableSession, s)}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, found := c.entries[s]
	if !found {
		e = &entry{}
		c.entries[s] = e
	}
	return e, nil
}

// Measure asks the server for its time once and returns server - local time.
// The result is not cached.
func (c *ClockSync) Measure(ctx context.Context, s TimeFetcher) (time.Duration, error) {
	if noSession(s) {
		return 0, &ClockFetchError{Err: errNoSession}
	}
	resp, err := s.FetchServerTime(ctx)
	if err != nil {
		c.stats.UpdateCounterBy(statFetchError, 1)
		ferr := &ClockFetchError{Err: err}
		log.Error(ferr)
		return 0, ferr
	}
	if resp == nil {
		c.stats.UpdateCounterBy(statFetchError, 1)
		ferr := &ClockFetchError{Message: "empty response", Code: -1}
		log.Error(ferr)
		return 0, ferr
	}
	if resp.Code != 0 {
		c.stats.UpdateCounterBy(statFetchError, 1)
		ferr := &ClockFetchError{Code: resp.Code, Message: resp.Message}
		log.Error(ferr)
		return 0, ferr
	}
	delay := time.Duration(resp.TimeNano - c.now().UnixNano())
	c.stats.UpdateCounterBy(statFetchOK, 1)
	log.Infof("calculated delay: %d nanoseconds", delay.Nanoseconds())
	return delay, nil
}

// GetDelay returns the cached delay for the session, measuring it on first use.
// Failures are not cached: the next call makes a new attempt.
func (c *ClockSync) GetDelay(ctx context.Context, s TimeFetcher) (time.Duration, error) {
	if noSession(s) {
		return 0, &ClockFetchError{Err: errNoSession}
	}
	e, err := c.entry(s)
	if err != nil {
		c.stats.UpdateCounterBy(statFetchError, 1)
		log.Error(err)
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ok {
		return e.delay, nil
	}
	delay, err := c.Measure(ctx, s)
	if err != nil {
		return 0, err
	}
	e.delay = delay
	e.ok = true
	c.stats.SetCounter(statDelayNS, delay.Nanoseconds())
	return delay, nil
}

// Cached returns the delay stored for the session without fetching
func (c *ClockSync) Cached(s TimeFetcher) (time.Duration, bool) {
	if noSession(s) || !cacheable(s) {
		return 0, false
	}
	c.mu.Lock()
	e, found := c.entries[s]
	c.mu.Unlock()
	if !found {
		return 0, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.delay, e.ok
}

// Forget drops the cached delay of one session
func (c *ClockSync) Forget(s TimeFetcher) {
	if noSession(s) || !cacheable(s) {
		return
	}
	c.mu.Lock()
	delete(c.entries, s)
	c.mu.Unlock()
}

// Reset drops all cached delays
func (c *ClockSync) Reset() {
	c.mu.Lock()
	c.entries = map[TimeFetcher]*entry{}
	c.mu.Unlock()
}

// GenerateLocalTimestamp returns the local time in milliseconds since epoch
func (c *ClockSync) GenerateLocalTimestamp() int64 {
	return c.now().UnixMilli()
}

// GenerateAuthenticatedTimestamp returns a millisecond timestamp adjusted by
// the session delay. Without a session, or when the delay can't be obtained,
// it falls back to the local clock. It never fails.
func (c *ClockSync) GenerateAuthenticatedTimestamp(ctx context.Context, s TimeFetcher) int64 {
	if noSession(s) {
		c.stats.UpdateCounterBy(statTimestampLocal, 1)
		log.Debug("no session available, using local time as request timestamp")
		return c.GenerateLocalTimestamp()
	}
	delay, err := c.GetDelay(ctx, s)
	if err != nil {
		c.stats.UpdateCounterBy(statTimestampFallback, 1)
		log.Warningf("failed to get server time delay, falling back to local time: %v", err)
		return c.GenerateLocalTimestamp()
	}
	c.stats.UpdateCounterBy(statTimestampServer, 1)
	return (c.now().UnixNano() + delay.Nanoseconds()) / int64(time.Millisecond)
}

// GenerateLocalTimestamp returns the local time in milliseconds since epoch
func GenerateLocalTimestamp() int64 {
	return time.Now().UnixMilli()
}

// GetDelay returns the session delay using the Default ClockSync
func GetDelay(ctx context.Context, s TimeFetcher) (time.Duration, error) {
	return Default.GetDelay(ctx, s)
}

// GenerateAuthenticatedTimestamp returns a timestamp using the Default ClockSync
func GenerateAuthenticatedTimestamp(ctx context.Context, s TimeFetcher) int64 {
	return Default.GenerateAuthenticatedTimestamp(ctx, s)
}

// Reset clears the Default ClockSync cache
func Reset() {
	Default.Reset()
}

type nopStats struct{}

func (nopStats) Reset() {}
func (nopStats) SetCounter(string, int64) {}
func (nopStats) UpdateCounterBy(string, int64) {}
