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

// Package router picks the stream handler responsible for a URL.
//
// URLs are compared by their path component only, so the same endpoint on
// mainnet and testnet (or with a different scheme) resolves to the same handler.
package router

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	log "github.com/sirupsen/logrus"
)

var (
	// ErrNoMatchingEndpoint is returned when no table entry has the target path
	ErrNoMatchingEndpoint = errors.New("no matching endpoint")
	// ErrMalformedURL is returned when a URL has no host part
	ErrMalformedURL = errors.New("malformed url")
)

// Endpoint is a URL split into scheme, host and path.
// Path keeps everything after the host verbatim, query string included.
type Endpoint struct {
	Scheme string
	Host   string
	Path   string
}

// String joins the endpoint back into a URL
func (e Endpoint) String() string {
	if e.Scheme == "" {
		return e.Host + e.Path
	}
	return e.Scheme + "://" + e.Host + e.Path
}

// Parse splits raw into (scheme://)?(host)(path).
// The scheme is optional, the host runs up to the first '/' or whitespace
// and must not be empty.
func Parse(raw string) (Endpoint, error) {
	var e Endpoint
	rest := raw
	if i := strings.Index(rest, "://"); i > 0 && isScheme(rest[:i]) {
		e.Scheme = rest[:i]
		rest = rest[i+3:]
	}
	end := strings.IndexFunc(rest, func(r rune) bool {
		return r == '/' || unicode.IsSpace(r)
	})
	if end < 0 {
		end = len(rest)
	}
	if end == 0 {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrMalformedURL, raw)
	}
	e.Host = rest[:end]
	e.Path = rest[end:]
	return e, nil
}

func isScheme(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// SamePath reports whether both URLs parse and have identical paths
func SamePath(a, b string) bool {
	ea, err := Parse(a)
	if err != nil {
		return false
	}
	eb, err := Parse(b)
	if err != nil {
		return false
	}
	return ea.Path == eb.Path
}

// Binding ties a stream URL to its handler
type Binding[H any] struct {
	URL     string
	Handler H
}

// Table is an ordered list of bindings. URLs are expected to have unique paths;
// if they don't, the first binding wins.
type Table[H any] []Binding[H]

// Add appends a binding to the table
func (t *Table[H]) Add(url string, handler H) {
	*t = append(*t, Binding[H]{URL: url, Handler: handler})
}

// Resolve returns the handler bound to the target URL path
func (t Table[H]) Resolve(target string) (H, error) {
	return Resolve(target, t)
}

// Resolve returns the handler of the first binding whose path equals the path
// of target. Scheme and host are ignored.
func Resolve[H any](target string, table Table[H]) (H, error) {
	var zero H
	te, err := Parse(target)
	if err != nil {
		return zero, err
	}
	for _, b := range table {
		be, err := Parse(b.URL)
		if err != nil {
			log.Debugf("skipping malformed endpoint %q: %v", b.URL, err)
			continue
		}
		if be.Path == te.Path {
			log.Debugf("routing %s to %s", target, b.URL)
			return b.Handler, nil
		}
	}
	return zero, fmt.Errorf("%w for %q", ErrNoMatchingEndpoint, target)
}
