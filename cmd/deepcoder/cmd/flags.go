// Copyright 2025 The CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// Common flags
const (
	flagCacheDir       flagName = "cache-dir"
	flagClassifier     flagName = "classifier"
	flagCompileTimeout flagName = "compile-timeout"
	flagConfig         flagName = "config"
	flagEntry          flagName = "entry"
	flagExclude        flagName = "exclude"
	flagFunctions      flagName = "functions"
	flagJSON           flagName = "json"
	flagMaxLength      flagName = "max-length"
	flagMaxListLength  flagName = "max-list-length"
	flagMetricsFile    flagName = "metrics-file"
	flagMinLength      flagName = "min-length"
	flagModelShape     flagName = "model-shape"
	flagNoCache        flagName = "no-cache"
	flagNoSimplify     flagName = "no-simplify"
	flagNumExamples    flagName = "num-examples"
	flagNumPruning     flagName = "num-examples-for-pruning"
	flagNumValid       flagName = "num-valid"
	flagPrior          flagName = "prior"
	flagRatioPruning   flagName = "ratio-of-examples-for-pruning"
	flagSearchBinary   flagName = "search-binary"
	flagSeed           flagName = "seed"
	flagTimeout        flagName = "timeout"
	flagTraceFile      flagName = "trace-file"
	flagValueRange     flagName = "value-range"
	flagVerbose        flagName = "verbose"
	flagWorkers        flagName = "workers"
)

func addGlobalFlags(f *pflag.FlagSet) {
	f.BoolP(string(flagVerbose), "v", false,
		"print information about progress")
	f.String(string(flagMetricsFile), "",
		"write Prometheus metrics of the run to the specified file")
	f.String(string(flagTraceFile), "",
		"write OpenTelemetry spans of the run to the specified file")
}

// addPredictorFlags adds the flags selecting how symbol probabilities are
// predicted for searches.
func addPredictorFlags(f *pflag.FlagSet) {
	f.String(string(flagPrior), "",
		"predict with the symbol frequencies of the given training corpus")
	f.String(string(flagModelShape), "",
		"shape parameters file of the trained model")
	f.String(string(flagClassifier), "",
		"command line running the trained model")
}

// addSearchFlags adds the flags configuring the search binary.
func addSearchFlags(f *pflag.FlagSet) {
	f.String(string(flagSearchBinary), "search",
		"path of the enumerative search binary")
	f.Duration(string(flagTimeout), 10*time.Second,
		"timeout of a single search")
	f.Int(string(flagMaxLength), 5,
		"maximum length of the program body to search for")
}

type flagName string

// ensureAdded detects if a flag is being used without it first being
// added to the flagSet. Because flagNames are global, it is quite
// easy to accidentally use a flag in a command without adding it to
// the flagSet.
func (f flagName) ensureAdded(cmd *Command) {
	if cmd.Flags().Lookup(string(f)) == nil {
		panic(fmt.Sprintf("Cmd %q uses flag %q without adding it", cmd.Name(), f))
	}
}

func (f flagName) Bool(cmd *Command) bool {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetBool(string(f))
	return v
}

func (f flagName) String(cmd *Command) string {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetString(string(f))
	return v
}

func (f flagName) StringArray(cmd *Command) []string {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetStringArray(string(f))
	return v
}

func (f flagName) Int(cmd *Command) int {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetInt(string(f))
	return v
}

func (f flagName) Uint64(cmd *Command) uint64 {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetUint64(string(f))
	return v
}

func (f flagName) Float64(cmd *Command) float64 {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetFloat64(string(f))
	return v
}

func (f flagName) Duration(cmd *Command) time.Duration {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetDuration(string(f))
	return v
}

// Changed reports whether the flag was set on the command line.
func (f flagName) Changed(cmd *Command) bool {
	f.ensureAdded(cmd)
	return cmd.Flags().Changed(string(f))
}
