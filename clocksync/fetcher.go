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
)

//go:generate mockgen -source=fetcher.go -destination=fetcher_mock.go -package=clocksync

// ServerTime is what the exchange reports when asked for its time
type ServerTime struct {
	// Code is the application level return code, 0 means success
	Code int
	// Message is the server provided explanation of Code
	Message string
	// TimeNano is the server time in nanoseconds since epoch
	TimeNano int64
}

// TimeFetcher is a session capable of asking the exchange for its time.
// Sessions are cached by identity, so implementations should be pointer types.
// A nil pointer counts as no session. Sessions of uncomparable types are never
// cached and get local timestamps.
type TimeFetcher interface {
	FetchServerTime(ctx context.Context) (*ServerTime, error)
}

// StatsServer is a stats server interface
type StatsServer interface {
	// Reset atomically sets all the counters to 0
	Reset()
	SetCounter(key string, val int64)
	UpdateCounterBy(key string, count int64)
}
