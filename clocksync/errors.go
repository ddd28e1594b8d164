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
	"errors"
	"fmt"
)

var (
	errNoSession          = errors.New("no session provided")
	errUncacheableSession = errors.New("session type is not comparable")
)

// ClockFetchError is returned when the server time could not be obtained,
// either because the call failed or because the server reported an error
type ClockFetchError struct {
	Code    int
	Message string
	Err     error
}

func (e *ClockFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("error retrieving server time: %v", e.Err)
	}
	return fmt.Sprintf("error retrieving server time: %s (code %d)", e.Message, e.Code)
}

// Unwrap returns the underlying transport error, if any
func (e *ClockFetchError) Unwrap() error {
	return e.Err
}
