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

// Package lookup finds records in slices by key.
package lookup

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrNotFound is returned when no record matches the target
var ErrNotFound = errors.New("record not found")

// FindIndex returns the position of the first record whose key equals the key
// of target. Callers are expected to know the record is present.
func FindIndex[R any, K comparable](records []R, target R, key func(R) K) (int, error) {
	want := key(target)
	for i, r := range records {
		if key(r) == want {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %v", ErrNotFound, want)
}

// FindIndexByField is FindIndex for decoded JSON objects, comparing the values
// stored under field. Records lacking the field or holding uncomparable values
// never match.
func FindIndexByField(records []map[string]any, target map[string]any, field string) (int, error) {
	want, ok := target[field]
	if !ok || !isComparable(want) {
		return -1, fmt.Errorf("%w: target has no usable %q", ErrNotFound, field)
	}
	for i, r := range records {
		v, ok := r[field]
		if ok && isComparable(v) && v == want {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s=%v", ErrNotFound, field, want)
}

// isComparable checks the value, not just its type: a struct or array whose
// interface fields hold slices or maps would panic on ==
func isComparable(v any) bool {
	return v == nil || reflect.ValueOf(v).Comparable()
}
