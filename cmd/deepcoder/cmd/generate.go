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
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/deepcoder-go/deepcoder/builder"
	"github.com/deepcoder-go/deepcoder/dsl"
	"github.com/deepcoder-go/deepcoder/dsl/linq"
	"github.com/deepcoder-go/deepcoder/internal/config"
	"github.com/deepcoder-go/deepcoder/internal/debugflag"
	"github.com/deepcoder-go/deepcoder/simplify"
)

func newGenerateCmd(c *Command) *cobra.Command {
	defaults := builder.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "generate [flags] <output>",
		Short: "build a corpus of programs with examples",
		Long: `generate enumerates every program of the configured lengths,
simplifies it, generates input/output examples for it and writes the
resulting corpus to the output file, or to stdout if the output is "-".

Programs of the same signature that agree on a sample of examples are
considered equivalent; only the shortest of them is kept.

The parameters may be given in a YAML file passed with --config:

	dataset:
	  value_range: 256
	  max_list_length: 20
	  num_examples: 5
	  min_program_length: 1
	  max_program_length: 2
	equivalence:
	  ratio_of_examples: 0
	  num_of_examples: 100
	functions: [HEAD, TAKE, "MAP INC"]
	exclude: []
	seed: 6217
	workers: 0

Flags given on the command line take precedence over the file.

Programs that fail to compile are remembered in a cache under
$DEEPCODER_CACHE_DIR, shared by successive runs.
`,
		Args: cobra.ExactArgs(1),
		RunE: mkRunE(c, runGenerate),
	}
	f := cmd.Flags()
	f.String(string(flagConfig), "", "YAML configuration file")
	f.Int(string(flagValueRange), defaults.Dataset.ValueRange, "values lie in [-value-range, value-range)")
	f.Int(string(flagMaxListLength), defaults.Dataset.MaxListLength, "maximum length of lists")
	f.Int(string(flagNumExamples), defaults.Dataset.NumExamples, "number of examples per program")
	f.Int(string(flagMinLength), defaults.Dataset.MinProgramLength, "minimum length of the program body")
	f.Int(string(flagMaxLength), defaults.Dataset.MaxProgramLength, "maximum length of the program body")
	f.Int(string(flagNumPruning), defaults.Equivalence.NumOfExamples, "minimum number of examples used to prune equivalent programs")
	f.Float64(string(flagRatioPruning), defaults.Equivalence.RatioOfExamples, "fraction of the examples of a signature used to prune equivalent programs")
	f.StringArray(string(flagFunctions), nil, "restrict the language to the named functions")
	f.StringArray(string(flagExclude), nil, "leave out functions using the named symbols")
	f.Uint64(string(flagSeed), defaults.Seed, "random seed")
	f.Int(string(flagWorkers), 0, "signature groups pruned in parallel (default GOMAXPROCS)")
	f.String(string(flagCacheDir), "", "directory of the compile failure cache")
	f.Bool(string(flagNoCache), false, "do not use a persistent compile failure cache")
	f.Bool(string(flagNoSimplify), false, "only normalize enumerated programs")
	f.Duration(string(flagCompileTimeout), 0, "bound on compiling one program and generating its examples (default from DEEPCODER_DEBUG)")
	return cmd
}

func runGenerate(cmd *Command, args []string) error {
	cfg, err := generateConfig(cmd)
	if err != nil {
		return err
	}
	functions, err := selectFunctions(cfg.Functions, cfg.Exclude)
	if err != nil {
		return err
	}
	logger := cmd.Logger()

	var cache builder.Cache
	if !flagNoCache.Bool(cmd) {
		dir := flagCacheDir.String(cmd)
		if dir == "" {
			if dir, err = config.CompileCacheDir(os.Getenv); err != nil {
				return err
			}
		}
		dc, err := builder.OpenCache(dir, logger)
		if err != nil {
			return err
		}
		defer dc.Close()
		cache = dc
	}

	var simplifier simplify.Func
	if !flagNoSimplify.Bool(cmd) {
		simplifier = simplify.Default(linq.Min(), linq.Max())
	}
	timeout := debugflag.Flags.CompileTimeout
	if flagCompileTimeout.Changed(cmd) {
		timeout = flagCompileTimeout.Duration(cmd)
	}

	root := newRand(cfg.Seed)
	opts := builder.Options{
		Simplify:       simplifier,
		Callback:       progress(logger),
		Workers:        cfg.Workers,
		Cache:          cache,
		Metrics:        cmd.metrics,
		Logger:         logger,
		Rand:           split(root),
		CompileTimeout: timeout,
	}
	cfg.Equivalence.Rand = split(root)

	d, err := builder.Build(cmd.Context(), functions, cfg.Dataset, cfg.Equivalence, builder.Native(nil), opts)
	if err != nil {
		return err
	}
	if out := args[0]; out != "-" {
		if err := d.WriteFile(out); err != nil {
			return err
		}
		logger.Info("wrote corpus", "path", out, "entries", len(d.Entries))
		return nil
	}
	return d.Write(cmd.OutOrStdout())
}

// generateConfig reads the configuration file, if any, and applies the
// flags set on the command line.
func generateConfig(cmd *Command) (builder.Config, error) {
	cfg := builder.DefaultConfig()
	if path := flagConfig.String(cmd); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return builder.Config{}, err
		}
		defer f.Close()
		if cfg, err = builder.ReadConfig(f); err != nil {
			return builder.Config{}, err
		}
	}
	ints := []struct {
		flag flagName
		dst  *int
	}{
		{flagValueRange, &cfg.Dataset.ValueRange},
		{flagMaxListLength, &cfg.Dataset.MaxListLength},
		{flagNumExamples, &cfg.Dataset.NumExamples},
		{flagMinLength, &cfg.Dataset.MinProgramLength},
		{flagMaxLength, &cfg.Dataset.MaxProgramLength},
		{flagNumPruning, &cfg.Equivalence.NumOfExamples},
		{flagWorkers, &cfg.Workers},
	}
	for _, i := range ints {
		if i.flag.Changed(cmd) {
			*i.dst = i.flag.Int(cmd)
		}
	}
	if flagRatioPruning.Changed(cmd) {
		cfg.Equivalence.RatioOfExamples = flagRatioPruning.Float64(cmd)
	}
	if flagFunctions.Changed(cmd) {
		cfg.Functions = flagFunctions.StringArray(cmd)
	}
	if flagExclude.Changed(cmd) {
		cfg.Exclude = flagExclude.StringArray(cmd)
	}
	if flagSeed.Changed(cmd) {
		cfg.Seed = flagSeed.Uint64(cmd)
	}
	return cfg, cfg.Validate()
}

// progressInterval is the minimum time between progress log records.
const progressInterval = 5 * time.Second

func progress(logger *slog.Logger) builder.ProgressCallback {
	var (
		generated, dumped, total int
		last                     = time.Now()
	)
	tick := func() bool {
		if time.Since(last) < progressInterval {
			return false
		}
		last = time.Now()
		return true
	}
	return builder.ProgressCallback{
		OnGenerateProgram: func(dsl.Program) {
			generated++
			if tick() {
				logger.Info("enumerating programs", "accepted", generated)
			}
		},
		OnFinishEnumeration: func(n int) {
			total = n
			logger.Info("enumerated programs", "accepted", n)
		},
		OnDumpDataset: func(n int) {
			dumped += n
			if tick() || dumped == total {
				logger.Info("pruning equivalent programs", "done", dumped, "total", total)
			}
		},
	}
}
