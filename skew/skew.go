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

// Package skew checks whether the local clock is close enough to the exchange
// clock for signed requests to be accepted.
package skew

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/eclesh/welford"
	log "github.com/sirupsen/logrus"

	"github.com/exchsync/bybit/clocksync"
)

// DefaultCheck is the expression a probe must satisfy by default
const DefaultCheck = "abs(mean(delay)) + 2 * stddev(delay) + mean(rtt) < recvwindow"

// CheckHelp describes what can be used in check expressions
const CheckHelp = `supported variables (all in ns):
  delay (list of measured server - local delays)
  rtt (list of round trip times of the server time calls)
  recvwindow (how long the server accepts a request)
supported functions:
  abs(value), mean(values), stddev(values), max(values), min(values)`

var supportedVariables = []string{
	"delay",
	"rtt",
	"recvwindow",
}

func isSupportedVar(varName string) bool {
	for _, v := range supportedVariables {
		if v == varName {
			return true
		}
	}
	return false
}

func mean(input []float64) float64 {
	s := welford.New()
	for _, v := range input {
		s.Add(v)
	}
	return s.Mean()
}

// stddev of a single sample is 0
func stddev(input []float64) float64 {
	if len(input) < 2 {
		return 0
	}
	s := welford.New()
	for _, v := range input {
		s.Add(v)
	}
	return s.Stddev()
}

func listArg(name string, args []interface{}) ([]float64, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%s: wrong number of arguments: want 1, got %d", name, len(args))
	}
	vals, ok := args[0].([]float64)
	if !ok {
		return nil, fmt.Errorf("%s: argument must be a list", name)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("%s: empty list", name)
	}
	return vals, nil
}

// all the functions we support in expressions
var functions = map[string]govaluate.ExpressionFunction{
	"abs": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("abs: wrong number of arguments: want 1, got %d", len(args))
		}
		val, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("abs: argument must be a number")
		}
		return math.Abs(val), nil
	},
	"mean": func(args ...interface{}) (interface{}, error) {
		vals, err := listArg("mean", args)
		if err != nil {
			return nil, err
		}
		return mean(vals), nil
	},
	"stddev": func(args ...interface{}) (interface{}, error) {
		vals, err := listArg("stddev", args)
		if err != nil {
			return nil, err
		}
		return stddev(vals), nil
	},
	"max": func(args ...interface{}) (interface{}, error) {
		vals, err := listArg("max", args)
		if err != nil {
			return nil, err
		}
		m := vals[0]
		for _, v := range vals[1:] {
			m = math.Max(m, v)
		}
		return m, nil
	},
	"min": func(args ...interface{}) (interface{}, error) {
		vals, err := listArg("min", args)
		if err != nil {
			return nil, err
		}
		m := vals[0]
		for _, v := range vals[1:] {
			m = math.Min(m, v)
		}
		return m, nil
	},
}

func prepareExpression(exprStr string) (*govaluate.EvaluableExpression, error) {
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(exprStr, functions)
	if err != nil {
		return nil, err
	}
	for _, v := range expr.Vars() {
		if !isSupportedVar(v) {
			return nil, fmt.Errorf("unsupported variable %q", v)
		}
	}
	return expr, nil
}

// Probe takes repeated uncached delay measurements against one session
type Probe struct {
	Clock      *clocksync.ClockSync
	Samples    int
	Interval   time.Duration
	RecvWindow time.Duration
	Check      string
}

// Result is a summary of probe measurements, values in ns
type Result struct {
	Delays   []float64
	RTTs     []float64
	Failures int
	Mean     float64
	Stddev   float64
	MeanRTT  float64
	OK       bool
}

// Run measures delay Samples times and evaluates Check against the measurements
func (p *Probe) Run(ctx context.Context, s clocksync.TimeFetcher) (*Result, error) {
	if p.Samples <= 0 {
		return nil, fmt.Errorf("number of samples must be positive")
	}
	check := p.Check
	if check == "" {
		check = DefaultCheck
	}
	expr, err := prepareExpression(check)
	if err != nil {
		return nil, fmt.Errorf("preparing check %q: %w", check, err)
	}
	cs := p.Clock
	if cs == nil {
		cs = clocksync.Default
	}

	res := &Result{}
	for i := 0; i < p.Samples; i++ {
		if i > 0 && p.Interval > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.Interval):
			}
		}
		start := time.Now()
		d, err := cs.Measure(ctx, s)
		rtt := time.Since(start)
		if err != nil {
			res.Failures++
			log.Debugf("sample %d failed: %v", i, err)
			continue
		}
		res.Delays = append(res.Delays, float64(d.Nanoseconds()))
		res.RTTs = append(res.RTTs, float64(rtt.Nanoseconds()))
	}
	if len(res.Delays) == 0 {
		return res, fmt.Errorf("all %d samples failed", p.Samples)
	}
	res.Mean = mean(res.Delays)
	res.Stddev = stddev(res.Delays)
	res.MeanRTT = mean(res.RTTs)

	v, err := expr.Evaluate(map[string]interface{}{
		"delay":      res.Delays,
		"rtt":        res.RTTs,
		"recvwindow": float64(p.RecvWindow.Nanoseconds()),
	})
	if err != nil {
		return res, fmt.Errorf("evaluating check: %w", err)
	}
	ok, isBool := v.(bool)
	if !isBool {
		return res, fmt.Errorf("check %q must evaluate to a boolean, got %v", check, v)
	}
	res.OK = ok
	return res, nil
}
