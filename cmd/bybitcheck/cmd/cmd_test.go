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
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/exchsync/bybit/config"
	"github.com/exchsync/bybit/router"
	"github.com/exchsync/bybit/skew"
)

func TestCheckAgainstThreshold(t *testing.T) {
	tests := []struct {
		testName      string
		value         time.Duration
		warnThreshold time.Duration
		failThreshold time.Duration
		wantStatus    status
		wantMsg       string
	}{
		{
			testName:      "below threshold",
			value:         time.Millisecond,
			warnThreshold: time.Second,
			failThreshold: 5 * time.Second,
			wantStatus:    OK,
			wantMsg:       "Delay is 1ms, we expect it to be within 1s",
		},
		{
			testName:      "warn threshold",
			value:         2 * time.Second,
			warnThreshold: time.Second,
			failThreshold: 5 * time.Second,
			wantStatus:    WARN,
			wantMsg:       "Delay is 2s, we expect it to be within 1s. too slow",
		},
		{
			testName:      "fail threshold",
			value:         6 * time.Second,
			warnThreshold: time.Second,
			failThreshold: 5 * time.Second,
			wantStatus:    FAIL,
			wantMsg:       "Delay is 6s, we expect it to be within 1s. too slow",
		},
	}
	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			st, msg := checkAgainstThreshold("Delay", tt.value, tt.warnThreshold, tt.failThreshold, "too slow")
			require.Equal(t, tt.wantStatus, st)
			require.Equal(t, tt.wantMsg, msg)
		})
	}

	t.Run("ints", func(t *testing.T) {
		st, msg := checkAgainstThreshold("Failed measurements", 1, 0, 5, "oh no")
		require.Equal(t, WARN, st)
		require.Equal(t, "Failed measurements is 1, we expect it to be within 0. oh no", msg)
	})
}

func TestProbeChecks(t *testing.T) {
	r := &skew.Result{
		Delays:  []float64{1e6, 2e6, 3e6},
		RTTs:    []float64{1e6, 1e6, 1e6},
		Mean:    -float64(3 * time.Second),
		Stddev:  1e6,
		MeanRTT: 1e6,
		OK:      false,
	}
	statuses, msgs := probeChecks(r, 5*time.Second)
	require.Equal(t, []status{WARN, OK, OK, OK, FAIL}, statuses)
	require.Len(t, msgs, 5)
	require.Contains(t, msgs[0], "Absolute mean delay is 3s")

	r.Mean = 0
	r.Failures = 1
	r.OK = true
	statuses, _ = probeChecks(r, 5*time.Second)
	require.Equal(t, []status{OK, OK, OK, WARN, OK}, statuses)
}

func TestStreamTable(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Streams = []string{"spot", "linear"}
	tbl, err := streamTable(cfg)
	require.NoError(t, err)
	require.Len(t, tbl, 2)

	name, err := tbl.Resolve("wss://elsewhere.example/v5/public/linear")
	require.NoError(t, err)
	require.Equal(t, "linear", name)

	_, err = tbl.Resolve("/v5/public/option")
	require.ErrorIs(t, err, router.ErrNoMatchingEndpoint)

	cfg.Streams = []string{"futures"}
	_, err = streamTable(cfg)
	require.Error(t, err)
}

func TestRouteRun(t *testing.T) {
	tbl := router.Table[string]{}
	tbl.Add("wss://a/spot", "spot")
	tbl.Add("wss://a/linear", "linear")

	var buf bytes.Buffer
	require.NoError(t, routeRun(&buf, tbl, []string{"b/linear", "b/option"}))
	out := buf.String()
	require.Contains(t, out, "wss://a/linear")
	require.Contains(t, out, "none")

	require.ErrorIs(t, routeRun(&buf, tbl, []string{"/nohost"}), router.ErrMalformedURL)
}

func TestSymbolRun(t *testing.T) {
	var buf bytes.Buffer
	symbolRun(&buf, []string{"BTCUSDH24", "BTC-30JUN23-30000-C"})
	out := buf.String()
	require.Contains(t, out, "inverse")
	require.Contains(t, out, "option")
}

func TestMessageCounter(t *testing.T) {
	m := newMessageCounter()
	m.handle("wss://a/spot", []byte("{}"))
	m.handle("wss://a/spot", []byte("{}"))
	require.Equal(t, 2, m.get("wss://a/spot"))
	require.Equal(t, 0, m.get("wss://a/linear"))
}
