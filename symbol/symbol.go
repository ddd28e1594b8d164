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

// Package symbol classifies exchange contract symbols by naming convention.
package symbol

import (
	"regexp"
	"strings"
)

var (
	inverseRe    = regexp.MustCompile(`(USD)([HMUZ]\d\d|$)`)
	usdcOptionRe = regexp.MustCompile(`[A-Z]{3}-.*-[PC]$`)
)

// Category is the product category a symbol trades in
type Category string

// Supported categories
const (
	CategoryUnknown Category = ""
	CategoryInverse Category = "inverse"
	CategoryLinear  Category = "linear"
	CategoryOption  Category = "option"
)

// IsInverseContract matches inverse perpetuals (BTCUSD) and inverse futures (BTCUSDH24)
func IsInverseContract(symbol string) bool {
	return inverseRe.MatchString(symbol)
}

// IsUSDTPerpetual matches USDT margined perpetuals like BTCUSDT
func IsUSDTPerpetual(symbol string) bool {
	return strings.HasSuffix(symbol, "USDT")
}

// IsUSDCPerpetual matches USDC margined perpetuals like BTCUSDC
func IsUSDCPerpetual(symbol string) bool {
	return strings.HasSuffix(symbol, "USDC")
}

// IsUSDCOption matches options like BTC-30JUN23-30000-C
func IsUSDCOption(symbol string) bool {
	return usdcOptionRe.MatchString(symbol)
}

// CategoryOf guesses the derivatives category of symbol.
// Spot pairs share names with linear perpetuals and are reported as linear.
func CategoryOf(symbol string) Category {
	switch {
	case IsUSDCOption(symbol):
		return CategoryOption
	case IsInverseContract(symbol):
		return CategoryInverse
	case IsUSDTPerpetual(symbol), IsUSDCPerpetual(symbol):
		return CategoryLinear
	}
	return CategoryUnknown
}
