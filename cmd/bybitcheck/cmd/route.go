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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/exchsync/bybit/config"
	"github.com/exchsync/bybit/router"
)

func init() {
	RootCmd.AddCommand(routeCmd)
}

// streamTable maps configured stream URLs to their names
func streamTable(cfg *config.Config) (router.Table[string], error) {
	t := router.Table[string]{}
	for _, name := range cfg.Streams {
		u, err := cfg.StreamURL(name)
		if err != nil {
			return nil, err
		}
		t.Add(u, name)
	}
	return t, nil
}

func routeRun(w io.Writer, t router.Table[string], targets []string) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"target", "path", "stream", "endpoint"})
	for _, target := range targets {
		e, err := router.Parse(target)
		if err != nil {
			return fmt.Errorf("%q: %w", target, err)
		}
		name, err := t.Resolve(target)
		switch {
		case errors.Is(err, router.ErrNoMatchingEndpoint):
			table.Append([]string{target, e.Path, "none", ""})
			continue
		case err != nil:
			return err
		}
		var endpoint string
		for _, b := range t {
			if b.Handler == name {
				endpoint = b.URL
				break
			}
		}
		table.Append([]string{target, e.Path, name, endpoint})
	}
	table.Render()
	return nil
}

var routeCmd = &cobra.Command{
	Use:   "route url [url...]",
	Short: "Show which configured stream serves each url",
	Long:  "Show which configured stream serves each url. Streams are matched by path only, host and scheme are ignored.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(c *cobra.Command, args []string) {
		ConfigureVerbosity()
		cfg, err := loadConfig()
		if err != nil {
			log.Fatal(err)
		}
		t, err := streamTable(cfg)
		if err != nil {
			log.Fatal(err)
		}
		if err := routeRun(os.Stdout, t, args); err != nil {
			log.Fatal(err)
		}
	},
}
