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
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/exchsync/bybit/symbol"
)

func init() {
	RootCmd.AddCommand(symbolCmd)
}

func symbolRun(w io.Writer, symbols []string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"symbol", "category", "inverse", "usdt perp", "usdc perp", "usdc option"})
	for _, s := range symbols {
		table.Append([]string{
			s,
			string(symbol.CategoryOf(s)),
			fmt.Sprintf("%v", symbol.IsInverseContract(s)),
			fmt.Sprintf("%v", symbol.IsUSDTPerpetual(s)),
			fmt.Sprintf("%v", symbol.IsUSDCPerpetual(s)),
			fmt.Sprintf("%v", symbol.IsUSDCOption(s)),
		})
	}
	table.Render()
}

var symbolCmd = &cobra.Command{
	Use:   "symbol symbol [symbol...]",
	Short: "Classify contract symbols",
	Args:  cobra.MinimumNArgs(1),
	Run: func(c *cobra.Command, args []string) {
		ConfigureVerbosity()
		symbolRun(os.Stdout, args)
	},
}
