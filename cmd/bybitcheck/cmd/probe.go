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

package cmd

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/exp/constraints"

	"github.com/exchsync/bybit/clocksync"
	"github.com/exchsync/bybit/session"
	"github.com/exchsync/bybit/skew"
)

// flags
var (
	probeSamplesFlag  int
	probeIntervalFlag time.Duration
	probeCheckFlag    string
)

func init() {
	RootCmd.AddCommand(probeCmd)
	probeCmd.Flags().IntVarP(&probeSamplesFlag, "samples", "n", 5, "number of server time measurements")
	probeCmd.Flags().DurationVarP(&probeIntervalFlag, "interval", "i", 200*time.Millisecond, "pause between measurements")
	probeCmd.Flags().StringVarP(&probeCheckFlag, "check", "e", skew.DefaultCheck, "expression measurements must satisfy. "+skew.CheckHelp)
}

type status int

// possible check results
const (
	OK status = iota
	WARN
	FAIL
)

var okString = color.GreenString("[ OK ]")
var warnString = color.YellowString("[WARN]")
var failString = color.RedString("[FAIL]")

var statusToColor = []string{okString, warnString, failString}

func fmtThreshold(warnThreshold any) string {
	return color.BlueString("%v", warnThreshold)
}

// generic function to check value against some thresholds
func checkAgainstThreshold[T constraints.Ordered](name string, value, warnThreshold, failThreshold T, explanation string) (status, string) {
	msgTemplate := "%s is %s, we expect it to be within %s%s"
	thresholdStr := fmtThreshold(warnThreshold)

	if value > failThreshold {
		return FAIL, fmt.Sprintf(msgTemplate, name, color.RedString("%v", value), thresholdStr, ". "+explanation)
	}
	if value > warnThreshold {
		return WARN, fmt.Sprintf(msgTemplate, name, color.YellowString("%v", value), thresholdStr, ". "+explanation)
	}
	return OK, fmt.Sprintf(msgTemplate, name, color.GreenString("%v", value), thresholdStr, "")
}

// probeChecks turns probe result into a list of statuses and messages.
// Anything above half of recv window is a warning, above the window is a failure.
func probeChecks(r *skew.Result, recvWindow time.Duration) ([]status, []string) {
	var statuses []status
	var msgs []string
	add := func(st status, msg string) {
		statuses = append(statuses, st)
		msgs = append(msgs, msg)
	}
	add(checkAgainstThreshold(
		"Absolute mean delay",
		time.Duration(math.Abs(r.Mean)),
		recvWindow/2,
		recvWindow,
		"Requests will be rejected unless timestamps are corrected with server delay",
	))
	add(checkAgainstThreshold(
		"Delay stddev",
		time.Duration(r.Stddev),
		recvWindow/4,
		recvWindow/2,
		"Local clock or network path is unstable",
	))
	add(checkAgainstThreshold(
		"Mean round trip time",
		time.Duration(r.MeanRTT),
		recvWindow/2,
		recvWindow,
		"Requests may arrive outside of recv window",
	))
	add(checkAgainstThreshold(
		"Failed measurements",
		r.Failures,
		0,
		len(r.Delays),
		"Server time endpoint is unreliable",
	))
	if r.OK {
		add(OK, fmt.Sprintf("Check %s passed", color.BlueString(probeCheckFlag)))
	} else {
		add(FAIL, fmt.Sprintf("Check %s failed", color.BlueString(probeCheckFlag)))
	}
	return statuses, msgs
}

func probeRun(ctx context.Context, s *session.Session) (status, error) {
	p := &skew.Probe{
		Clock:      clocksync.New(nil),
		Samples:    probeSamplesFlag,
		Interval:   probeIntervalFlag,
		RecvWindow: s.RecvWindow,
		Check:      probeCheckFlag,
	}
	r, err := p.Run(ctx, s)
	if err != nil {
		return FAIL, err
	}
	statuses, msgs := probeChecks(r, s.RecvWindow)
	worst := OK
	for i, st := range statuses {
		fmt.Printf("%s %s\n", statusToColor[st], msgs[i])
		if st > worst {
			worst = st
		}
	}
	return worst, nil
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Measure server clock delay repeatedly and judge whether signed requests are safe",
	Run: func(c *cobra.Command, args []string) {
		ConfigureVerbosity()
		cfg, err := loadConfig()
		if err != nil {
			log.Fatal(err)
		}
		st, err := probeRun(context.Background(), session.New(cfg))
		if err != nil {
			log.Fatal(err)
		}
		if st == FAIL {
			log.Fatal("probe failed")
		}
	},
}
