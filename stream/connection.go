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

// Package stream manages websocket stream connections and routes
// subscriptions to the connection serving the requested endpoint.
package stream

//go:generate mockgen -source=connection.go -destination=connection_mock.go -package=stream

// Connection is anything that can tell whether it is still connected
type Connection interface {
	IsConnected() bool
}

// AllConnected returns true if every connection reports itself connected.
// It stops at the first disconnected one, and is true for an empty list.
func AllConnected[C Connection](conns []C) bool {
	for _, c := range conns {
		if !c.IsConnected() {
			return false
		}
	}
	return true
}
