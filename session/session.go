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

// Package session talks to the exchange REST API on behalf of the client.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/exchsync/bybit/clocksync"
	"github.com/exchsync/bybit/config"
)

const (
	serverTimePath = "/v5/market/time"

	// HeaderTimestamp carries the request timestamp in milliseconds
	HeaderTimestamp = "X-BAPI-TIMESTAMP"
	// HeaderRecvWindow carries how long the request stays valid, in milliseconds
	HeaderRecvWindow = "X-BAPI-RECV-WINDOW"
)

var (
	errAPI        = errors.New("invalid response from API")
	errNilSession = errors.New("nil session")
)

// serverTimeResponse is the JSON returned by the server time endpoint
type serverTimeResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		TimeSecond string `json:"timeSecond"`
		TimeNano   string `json:"timeNano"`
	} `json:"result"`
	Time int64 `json:"time"`
}

// Session is an HTTP session against the exchange REST API.
// It implements clocksync.TimeFetcher.
type Session struct {
	Client     *http.Client
	BaseURL    string
	RecvWindow time.Duration
	// Clock is the ClockSync timestamps are produced with, clocksync.Default if nil
	Clock *clocksync.ClockSync
}

// New returns a Session configured from cfg
func New(cfg *config.Config) *Session {
	return &Session{
		Client:     &http.Client{Timeout: cfg.Timeout},
		BaseURL:    cfg.RESTURL(),
		RecvWindow: cfg.RecvWindow,
	}
}

func (s *Session) clock() *clocksync.ClockSync {
	if s.Clock != nil {
		return s.Clock
	}
	return clocksync.Default
}

func (s *Session) url(path string, query url.Values) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSuffix(s.BaseURL, "/") + path)
	if err != nil {
		return nil, fmt.Errorf("cannot parse url, is BaseURL (%v) set correctly: %w", s.BaseURL, err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u, nil
}

// FetchServerTime asks the exchange for its time. A non-zero return code is
// reported in the result, not as an error.
func (s *Session) FetchServerTime(ctx context.Context) (*clocksync.ServerTime, error) {
	if s == nil {
		return nil, errNilSession
	}
	u, err := s.url(serverTimePath, nil)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(http.StatusText(resp.StatusCode))
	}
	var r serverTimeResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: %v", errAPI, err)
	}
	st := &clocksync.ServerTime{Code: r.RetCode, Message: r.RetMsg}
	if r.RetCode != 0 {
		return st, nil
	}
	st.TimeNano, err = strconv.ParseInt(r.Result.TimeNano, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad timeNano %q", errAPI, r.Result.TimeNano)
	}
	return st, nil
}

// Timestamp returns a server adjusted request timestamp in milliseconds
func (s *Session) Timestamp(ctx context.Context) int64 {
	return s.clock().GenerateAuthenticatedTimestamp(ctx, s)
}

// NewRequest builds a request to the REST API carrying timestamp and recv window
// headers. Signing is left to the caller.
func (s *Session) NewRequest(ctx context.Context, method, path string, query url.Values) (*http.Request, error) {
	u, err := s.url(path, query)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(s.Timestamp(ctx), 10))
	req.Header.Set(HeaderRecvWindow, strconv.FormatInt(s.RecvWindow.Milliseconds(), 10))
	return req, nil
}
