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

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEvalAndValidate(t *testing.T) {
	c := &Config{}
	require.Equal(t, fmt.Errorf("bad config: 'domain' must be specified"), c.EvalAndValidate())

	c.Domain = "bybit"
	require.Equal(t, fmt.Errorf("bad config: 'tld' must be specified"), c.EvalAndValidate())

	c.TLD = "com"
	require.Equal(t, fmt.Errorf("bad config: 'timeout' must be between 0 and 1 minute"), c.EvalAndValidate())

	c.Timeout = 2 * time.Minute
	require.Equal(t, fmt.Errorf("bad config: 'timeout' must be between 0 and 1 minute"), c.EvalAndValidate())

	c.Timeout = time.Second
	require.Equal(t, fmt.Errorf("bad config: 'recvwindow' must be positive"), c.EvalAndValidate())

	c.RecvWindow = 5 * time.Second
	require.Equal(t, fmt.Errorf("bad config: 'pinginterval' must be positive"), c.EvalAndValidate())

	c.PingInterval = time.Second
	c.Streams = []string{"spot", "futures"}
	require.Equal(t, fmt.Errorf("bad config: unknown stream \"futures\""), c.EvalAndValidate())

	c.Streams = []string{"spot", "spot"}
	require.Equal(t, fmt.Errorf("bad config: duplicate stream \"spot\""), c.EvalAndValidate())

	c.Streams = []string{"spot", "private"}
	require.Equal(t, fmt.Errorf("bad config: 'private' stream requires 'apikey' and 'apisecret'"), c.EvalAndValidate())

	c.APIKey = "key"
	c.APISecret = "secret"
	require.Nil(t, c.EvalAndValidate())

	require.Nil(t, DefaultConfig().EvalAndValidate())
}

func TestURLs(t *testing.T) {
	c := DefaultConfig()
	require.Equal(t, "https://api.bybit.com", c.RESTURL())
	urls, err := c.StreamURLs()
	require.NoError(t, err)
	require.Equal(t, []string{"wss://stream.bybit.com/v5/public/spot", "wss://stream.bybit.com/v5/public/linear"}, urls)

	c.Testnet = true
	require.Equal(t, "https://api-testnet.bybit.com", c.RESTURL())
	u, err := c.StreamURL("private")
	require.NoError(t, err)
	require.Equal(t, "wss://stream-testnet.bybit.com/v5/private", u)

	_, err = c.StreamURL("nope")
	require.Error(t, err)
	c.Streams = []string{"nope"}
	_, err = c.StreamURLs()
	require.Error(t, err)
}

func TestPublic(t *testing.T) {
	c := DefaultConfig()
	c.APIKey = "key"
	c.APISecret = "secret"
	p := c.Public()
	require.Equal(t, "***", p.APIKey)
	require.Equal(t, "***", p.APISecret)
	require.Equal(t, "key", c.APIKey)
	require.Equal(t, "secret", c.APISecret)
	require.Equal(t, c.Streams, p.Streams)

	p.Streams[0] = "changed"
	require.Equal(t, "spot", c.Streams[0])

	empty := DefaultConfig().Public()
	require.Equal(t, "", empty.APIKey)
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bybit.yaml")
	data := `
testnet: true
timeout: 3s
recvwindow: 10s
streams:
  - linear
  - inverse
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	c, err := ReadConfig(path)
	require.NoError(t, err)
	want := DefaultConfig()
	want.Testnet = true
	want.Timeout = 3 * time.Second
	want.RecvWindow = 10 * time.Second
	want.Streams = []string{"linear", "inverse"}
	require.Equal(t, want, c)
	require.Nil(t, c.EvalAndValidate())
}

func TestReadConfigErrors(t *testing.T) {
	_, err := ReadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("unknownfield: 1\n"), 0644))
	_, err = ReadConfig(path)
	require.Error(t, err)
}
