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

/*
Package clocksync keeps request timestamps close to the exchange clock.

The delay between the exchange server clock and the local clock is measured once
per session and cached for the lifetime of the ClockSync that measured it:

	delay = server_time_ns - local_time_ns

Authenticated timestamps are produced by adding the cached delay to the local
clock. When the server time cannot be fetched, timestamps silently fall back to
the local clock, so signing a request never fails because of clock sync.

The package level functions operate on Default, a process-wide ClockSync.
*/
package clocksync
