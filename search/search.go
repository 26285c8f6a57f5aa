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

// Package search drives an external enumerative search binary, guided
// by per-symbol probabilities predicted from input/output examples.
//
// The binary is run in a fresh directory holding the files
//
//	data/search/input_types.txt
//	data/search/input_values.txt
//	data/search/output_types.txt
//	data/search/output_values.txt
//	data/search/prior.txt
//
// with the arguments
//
//	search <num examples> <max program length> 0 0 -1 <value range>
//
// A solved search prints a line "Solved!" followed by the number of
// explored nodes, the elapsed time in seconds, one line that is ignored
// and the text of the solution.
package search

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/deepcoder-go/deepcoder/dataset"
	"github.com/deepcoder-go/deepcoder/dsl"
	"github.com/deepcoder-go/deepcoder/internal/metrics"
	"github.com/deepcoder-go/deepcoder/internal/telemetry"
)

// ErrMalformedOutput is returned when the search binary reports a
// solution that cannot be parsed.
var ErrMalformedOutput = errors.New("malformed search output")

const solvedMarker = "Solved!"

// Config configures calls to Search.
type Config struct {
	Runner Runner

	// Timeout bounds the run time of the search binary. It must be
	// positive.
	Timeout time.Duration

	ValueRange       int
	MaxProgramLength int

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// An Outcome classifies a Result.
type Outcome int

const (
	Unsolved Outcome = iota
	Solved
	TimedOut
	PredictionFailed
)

var outcomeNames = [...]string{
	Unsolved:         "unsolved",
	Solved:           "solved",
	TimedOut:         "timeout",
	PredictionFailed: "prediction_failed",
}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "Outcome(" + strconv.Itoa(int(o)) + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// A Result is the outcome of one search.
type Result struct {
	IsSolved      bool               `json:"is_solved"`
	Probabilities map[string]float64 `json:"probabilities"`
	Solution      string             `json:"solution"`

	// ExploredNodes and TimeSeconds are -1 unless the search was solved.
	// TimeSeconds holds the timeout of a search that timed out.
	ExploredNodes int     `json:"explored_nodes"`
	TimeSeconds   float64 `json:"time_seconds"`

	// outcome is set by Search.
	outcome Outcome
}

// Outcome classifies r. A Result not produced by Search is Solved or
// Unsolved according to IsSolved.
func (r Result) Outcome() Outcome {
	if r.IsSolved {
		return Solved
	}
	return r.outcome
}

func predictionFailed() Result {
	return Result{
		Probabilities: map[string]float64{},
		ExploredNodes: -1,
		TimeSeconds:   -1,
		outcome:       PredictionFailed,
	}
}

// Search looks for a program consistent with examples. Any failure of
// the predictor, timeouts and unsolved searches are reported in the
// Result. An error is returned if the search could not be run at all or
// if ctx is done. The working directory is removed before Search
// returns.
func Search(ctx context.Context, cfg Config, examples []dataset.Example, pred Predictor) (_ Result, err error) {
	if len(examples) == 0 {
		return Result{}, errors.New("search: no examples")
	}
	if cfg.Timeout <= 0 {
		return Result{}, errors.New("search: timeout must be positive")
	}
	logger := cmp.Or(cfg.Logger, slog.Default())

	ctx, span := otel.Tracer(telemetry.SearchTracer).Start(ctx, "search.Search", trace.WithAttributes(
		attribute.Int("examples", len(examples)),
		attribute.Int("max_program_length", cfg.MaxProgramLength),
	))
	start := time.Now()
	var res Result
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.String("outcome", res.Outcome().String()))
			if cfg.Metrics != nil {
				cfg.Metrics.Searches.WithLabelValues(res.Outcome().String()).Inc()
				cfg.Metrics.SearchSeconds.Observe(time.Since(start).Seconds())
			}
		}
		span.End()
	}()

	dir, err := os.MkdirTemp("", "deepcoder-search-")
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(dir)

	if err := writeExamples(dir, examples); err != nil {
		return Result{}, err
	}

	probs, err := pred.Predict(ctx, examples)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		logger.Debug("prediction failed", "error", err)
		res = predictionFailed()
		return res, nil
	}
	if err := writeFile(dir, "prior.txt", formatPrior(probs)); err != nil {
		return Result{}, err
	}

	rctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	args := []string{
		"search",
		strconv.Itoa(len(examples)),
		strconv.Itoa(cfg.MaxProgramLength),
		"0", "0", "-1",
		strconv.Itoa(cfg.ValueRange),
	}
	out, runErr := cfg.Runner.Run(rctx, dir, args)
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	if errors.Is(rctx.Err(), context.DeadlineExceeded) {
		logger.Debug("search timed out", "timeout", cfg.Timeout)
		res = Result{
			Probabilities: probs,
			ExploredNodes: -1,
			TimeSeconds:   cfg.Timeout.Seconds(),
			outcome:       TimedOut,
		}
		return res, nil
	}
	if runErr != nil {
		var exit ExitError
		if !errors.As(runErr, &exit) {
			return Result{}, fmt.Errorf("search: %w", runErr)
		}
		// The output of a failed search is still inspected.
		logger.Debug("search exited with error", "error", runErr)
	}

	res, err = parseOutput(string(out), probs)
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// parseOutput extracts the result from the standard output of the search
// binary.
func parseOutput(out string, probs map[string]float64) (Result, error) {
	lines := strings.Split(out, "\n")
	i := slices.Index(lines, solvedMarker)
	if i < 0 {
		return Result{Probabilities: probs, ExploredNodes: -1, TimeSeconds: -1, outcome: Unsolved}, nil
	}
	if i+2 >= len(lines) {
		return Result{}, fmt.Errorf("%w: truncated after %q", ErrMalformedOutput, solvedMarker)
	}
	nodes, err := strconv.Atoi(strings.TrimPrefix(lines[i+1], "Nodes explored: "))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(lines[i+2]), 64)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	var solution string
	if i+4 < len(lines) {
		solution = strings.Join(lines[i+4:], "\n")
	}
	return Result{
		IsSolved:      true,
		Probabilities: probs,
		Solution:      solution,
		ExploredNodes: nodes,
		TimeSeconds:   secs,
		outcome:       Solved,
	}, nil
}

func writeExamples(dir string, examples []dataset.Example) error {
	var inputs, outputs []string
	for _, ex := range examples {
		vs := make([]string, len(ex.Inputs))
		for i, in := range ex.Inputs {
			vs[i] = formatValue(in)
		}
		inputs = append(inputs, strings.Join(vs, " | "))
		outputs = append(outputs, formatValue(ex.Output))
	}
	first := examples[0]
	files := []struct{ name, content string }{
		{"input_types.txt", formatTypes(first.InputTypes()...)},
		{"input_values.txt", strings.Join(inputs, "\n")},
		{"output_types.txt", formatTypes(first.Output.Type)},
		{"output_values.txt", strings.Join(outputs, "\n")},
	}
	if err := os.MkdirAll(filepath.Join(dir, "data", "search"), 0o777); err != nil {
		return err
	}
	for _, f := range files {
		if err := writeFile(dir, f.name, f.content); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(dir, name, content string) error {
	return os.WriteFile(filepath.Join(dir, "data", "search", name), []byte(content), 0o666)
}

func formatTypes(ts ...dsl.Type) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		if t == dsl.Int {
			names[i] = "Int"
		} else {
			names[i] = "Array"
		}
	}
	return strings.Join(names, " ")
}

func formatValue(p dataset.Primitive) string {
	if p.Type == dsl.Int {
		return strconv.Itoa(p.Int)
	}
	vs := make([]string, len(p.List))
	for i, v := range p.List {
		vs[i] = strconv.Itoa(v)
	}
	return strings.Join(vs, " ")
}

// formatPrior writes one "probability symbol" line per symbol, sorted by
// symbol.
func formatPrior(probs map[string]float64) string {
	lines := make([]string, 0, len(probs))
	for _, sym := range slices.Sorted(maps.Keys(probs)) {
		lines = append(lines, strconv.FormatFloat(probs[sym], 'g', -1, 64)+" "+sym)
	}
	return strings.Join(lines, "\n")
}

// Validate runs a search for the examples of every entry, with at most
// workers searches at a time, and returns the results in entry order.
func Validate(ctx context.Context, cfg Config, entries []dataset.Entry, pred Predictor, workers int) ([]Result, error) {
	results := make([]Result, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, e := range entries {
		g.Go(func() error {
			res, err := Search(gctx, cfg, e.Examples, pred)
			if err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
