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

// Package config holds client configuration: where to connect and how.
package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Stream names and the paths they live on
var streamPaths = map[string]string{
	"spot":    "/v5/public/spot",
	"linear":  "/v5/public/linear",
	"inverse": "/v5/public/inverse",
	"option":  "/v5/public/option",
	"private": "/v5/private",
}

// Defaults
const (
	DefaultDomain         = "bybit"
	DefaultTLD            = "com"
	DefaultTimeout        = 10 * time.Second
	DefaultRecvWindow     = 5 * time.Second
	DefaultPingInterval   = 20 * time.Second
	DefaultMonitoringPort = 21045
)

// Config represents configuration we expect to read from file
type Config struct {
	Testnet        bool          // use testnet hosts
	Domain         string        // exchange domain, like "bybit"
	TLD            string        // top level domain, like "com"
	APIKey         string        // key for private endpoints
	APISecret      string        // secret for private endpoints
	Timeout        time.Duration // http timeout for REST calls, server time included
	RecvWindow     time.Duration // how long the server accepts a signed request
	Streams        []string      // streams to connect to: spot, linear, inverse, option, private
	PingInterval   time.Duration // websocket heartbeat interval
	MonitoringPort int           // port for JSON and prometheus stats
}

// DefaultConfig returns mainnet config with public spot and linear streams
func DefaultConfig() *Config {
	return &Config{
		Domain:         DefaultDomain,
		TLD:            DefaultTLD,
		Timeout:        DefaultTimeout,
		RecvWindow:     DefaultRecvWindow,
		Streams:        []string{"spot", "linear"},
		PingInterval:   DefaultPingInterval,
		MonitoringPort: DefaultMonitoringPort,
	}
}

// EvalAndValidate makes sure config is valid
func (c *Config) EvalAndValidate() error {
	if c.Domain == "" {
		return fmt.Errorf("bad config: 'domain' must be specified")
	}
	if c.TLD == "" {
		return fmt.Errorf("bad config: 'tld' must be specified")
	}
	if c.Timeout <= 0 || c.Timeout > time.Minute {
		return fmt.Errorf("bad config: 'timeout' must be between 0 and 1 minute")
	}
	if c.RecvWindow <= 0 {
		return fmt.Errorf("bad config: 'recvwindow' must be positive")
	}
	if c.PingInterval <= 0 {
		return fmt.Errorf("bad config: 'pinginterval' must be positive")
	}
	seen := map[string]bool{}
	for _, s := range c.Streams {
		if _, ok := streamPaths[s]; !ok {
			return fmt.Errorf("bad config: unknown stream %q", s)
		}
		if seen[s] {
			return fmt.Errorf("bad config: duplicate stream %q", s)
		}
		seen[s] = true
		if s == "private" && (c.APIKey == "" || c.APISecret == "") {
			return fmt.Errorf("bad config: 'private' stream requires 'apikey' and 'apisecret'")
		}
	}
	return nil
}

func (c *Config) subdomain(kind string) string {
	if c.Testnet {
		return kind + "-testnet"
	}
	return kind
}

// RESTURL returns base URL of the REST API
func (c *Config) RESTURL() string {
	return fmt.Sprintf("https://%s.%s.%s", c.subdomain("api"), c.Domain, c.TLD)
}

// StreamURL returns websocket URL of a named stream
func (c *Config) StreamURL(name string) (string, error) {
	p, ok := streamPaths[name]
	if !ok {
		return "", fmt.Errorf("unknown stream %q", name)
	}
	return fmt.Sprintf("wss://%s.%s.%s%s", c.subdomain("stream"), c.Domain, c.TLD, p), nil
}

// StreamURLs returns websocket URLs of all configured streams, in order
func (c *Config) StreamURLs() ([]string, error) {
	urls := make([]string, 0, len(c.Streams))
	for _, s := range c.Streams {
		u, err := c.StreamURL(s)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// Public returns a copy of config which is safe to log: credentials are masked
func (c *Config) Public() Config {
	p := *c
	p.Streams = append([]string(nil), c.Streams...)
	if p.APIKey != "" {
		p.APIKey = "***"
	}
	if p.APISecret != "" {
		p.APISecret = "***"
	}
	return p
}

// ReadConfig reads config and unmarshals it from yaml into Config.
// Values missing from the file keep their defaults.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := DefaultConfig()
	err = yaml.UnmarshalStrict(data, c)
	return c, err
}
