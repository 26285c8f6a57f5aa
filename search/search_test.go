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

package search_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-quicktest/qt"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/deepcoder-go/deepcoder/dataset"
	"github.com/deepcoder-go/deepcoder/dsl/linq"
	"github.com/deepcoder-go/deepcoder/encoding"
	"github.com/deepcoder-go/deepcoder/internal/metrics"
	"github.com/deepcoder-go/deepcoder/search"
)

// When the test binary runs with this variable set it acts as the search
// binary. The value selects its behavior.
const searchEnv = "DEEPCODER_TEST_SEARCH"

func TestMain(m *testing.M) {
	switch os.Getenv(searchEnv) {
	case "":
		os.Exit(m.Run())
	case "solve":
		fmt.Print(accessOutput)
	case "fail":
		fmt.Println("no solution")
		os.Exit(1)
	case "hang":
		time.Sleep(time.Minute)
	}
	os.Exit(0)
}

const accessOutput = "Solved!\nNodes explored: 1\n0.000123\nProgram:\n %2 <- access %0 %1\n"

// accessExamples are solved by ACCESS.
var accessExamples = []dataset.Example{{
	Inputs: []dataset.Primitive{dataset.Int(2), dataset.List(10, 20, 30)},
	Output: dataset.Int(30),
}, {
	Inputs: []dataset.Primitive{dataset.Int(1), dataset.List(-10, 30, 40)},
	Output: dataset.Int(30),
}}

func favorAccess(context.Context, []dataset.Example) (map[string]float64, error) {
	probs := map[string]float64{}
	for _, f := range linq.Functions() {
		for _, sym := range f.Symbols() {
			probs[sym] = 0.2
		}
	}
	probs["ACCESS"] = 0.8
	return probs, nil
}

func failing(context.Context, []dataset.Example) (map[string]float64, error) {
	return nil, errors.New("test")
}

func config(r search.Runner) search.Config {
	return search.Config{
		Runner:           r,
		Timeout:          10 * time.Second,
		ValueRange:       256,
		MaxProgramLength: 2,
	}
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "data", "search", name))
	qt.Assert(t, qt.IsNil(err))
	return string(data)
}

func TestSearchSolved(t *testing.T) {
	var workDir string
	runner := search.RunnerFunc(func(ctx context.Context, dir string, args []string) ([]byte, error) {
		workDir = dir
		qt.Check(t, qt.DeepEquals(args, []string{"search", "2", "2", "0", "0", "-1", "256"}))
		qt.Check(t, qt.Equals(readFile(t, dir, "input_types.txt"), "Int Array"))
		qt.Check(t, qt.Equals(readFile(t, dir, "input_values.txt"), "2 | 10 20 30\n1 | -10 30 40"))
		qt.Check(t, qt.Equals(readFile(t, dir, "output_types.txt"), "Int"))
		qt.Check(t, qt.Equals(readFile(t, dir, "output_values.txt"), "30\n30"))
		prior := readFile(t, dir, "prior.txt")
		qt.Check(t, qt.StringContains(prior, "0.8 ACCESS\n"))
		qt.Check(t, qt.StringContains(prior, "0.2 HEAD\n"))
		return []byte(accessOutput), nil
	})
	m := metrics.New()
	cfg := config(runner)
	cfg.Metrics = m
	res, err := search.Search(context.Background(), cfg, accessExamples, search.PredictorFunc(favorAccess))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsTrue(res.IsSolved))
	qt.Assert(t, qt.Equals(res.Outcome(), search.Solved))
	qt.Assert(t, qt.Equals(res.Probabilities["ACCESS"], 0.8))
	qt.Assert(t, qt.Equals(res.Probabilities["HEAD"], 0.2))
	qt.Assert(t, qt.Equals(res.ExploredNodes, 1))
	qt.Assert(t, qt.Equals(res.TimeSeconds, 0.000123))
	qt.Assert(t, qt.Equals(res.Solution, " %2 <- access %0 %1\n"))
	qt.Assert(t, qt.Equals(testutil.ToFloat64(m.Searches.WithLabelValues("solved")), 1))

	_, err = os.Stat(workDir)
	qt.Assert(t, qt.ErrorIs(err, os.ErrNotExist))
}

func TestSearchPredictionFails(t *testing.T) {
	ran := false
	runner := search.RunnerFunc(func(context.Context, string, []string) ([]byte, error) {
		ran = true
		return nil, nil
	})
	res, err := search.Search(context.Background(), config(runner), accessExamples, search.PredictorFunc(failing))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsFalse(ran))
	qt.Assert(t, qt.IsFalse(res.IsSolved))
	qt.Assert(t, qt.DeepEquals(res.Probabilities, map[string]float64{}))
	qt.Assert(t, qt.Equals(res.Solution, ""))
	qt.Assert(t, qt.Equals(res.ExploredNodes, -1))
	qt.Assert(t, qt.Equals(res.TimeSeconds, -1.0))
	qt.Assert(t, qt.Equals(res.Outcome(), search.PredictionFailed))
}

func TestSearchTooManyInputsFailsPrediction(t *testing.T) {
	ran := false
	runner := search.RunnerFunc(func(context.Context, string, []string) ([]byte, error) {
		ran = true
		return nil, nil
	})
	pred := search.PredictorFunc(func(context.Context, []dataset.Example) (map[string]float64, error) {
		return nil, fmt.Errorf("wrap: %w", encoding.ErrTooManyInputs)
	})
	res, err := search.Search(context.Background(), config(runner), accessExamples, pred)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsFalse(ran))
	qt.Assert(t, qt.IsFalse(res.IsSolved))
	qt.Assert(t, qt.HasLen(res.Probabilities, 0))
	qt.Assert(t, qt.Equals(res.Solution, ""))
	qt.Assert(t, qt.Equals(res.ExploredNodes, -1))
	qt.Assert(t, qt.Equals(res.TimeSeconds, -1.0))
	qt.Assert(t, qt.Equals(res.Outcome(), search.PredictionFailed))

	// A batch run completes past the failed prediction.
	results, err := search.Validate(context.Background(), config(runner), []dataset.Entry{{Examples: accessExamples}}, pred, 1)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(results, 1))
	qt.Assert(t, qt.Equals(results[0].Outcome(), search.PredictionFailed))
}

func TestSearchEmptyProbabilitiesUnsolved(t *testing.T) {
	runner := search.RunnerFunc(func(context.Context, string, []string) ([]byte, error) {
		return []byte("Nodes explored: 1000\n"), nil
	})
	empty := search.PredictorFunc(func(context.Context, []dataset.Example) (map[string]float64, error) {
		return map[string]float64{}, nil
	})
	res, err := search.Search(context.Background(), config(runner), accessExamples, empty)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(res.Probabilities, 0))
	qt.Assert(t, qt.Equals(res.Outcome(), search.Unsolved))
}

func TestOutcomeWithoutSearch(t *testing.T) {
	qt.Assert(t, qt.Equals(search.Result{IsSolved: true}.Outcome(), search.Solved))
	qt.Assert(t, qt.Equals(search.Result{}.Outcome(), search.Unsolved))
}

func TestSearchUnsolved(t *testing.T) {
	runner := search.RunnerFunc(func(context.Context, string, []string) ([]byte, error) {
		return []byte("Nodes explored: 1000\n"), nil
	})
	res, err := search.Search(context.Background(), config(runner), accessExamples, search.PredictorFunc(favorAccess))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsFalse(res.IsSolved))
	qt.Assert(t, qt.Equals(res.Solution, ""))
	qt.Assert(t, qt.Equals(res.ExploredNodes, -1))
	qt.Assert(t, qt.Equals(res.TimeSeconds, -1.0))
	qt.Assert(t, qt.Equals(res.Probabilities["ACCESS"], 0.8))
	qt.Assert(t, qt.Equals(res.Outcome(), search.Unsolved))
}

func TestSearchMalformed(t *testing.T) {
	runner := search.RunnerFunc(func(context.Context, string, []string) ([]byte, error) {
		return []byte("Solved!\nNodes explored: many\n1.0\n"), nil
	})
	_, err := search.Search(context.Background(), config(runner), accessExamples, search.PredictorFunc(favorAccess))
	qt.Assert(t, qt.ErrorIs(err, search.ErrMalformedOutput))
}

func TestSearchTimeout(t *testing.T) {
	var workDir string
	runner := search.RunnerFunc(func(ctx context.Context, dir string, args []string) ([]byte, error) {
		workDir = dir
		<-ctx.Done()
		return nil, ctx.Err()
	})
	cfg := config(runner)
	cfg.Timeout = 50 * time.Millisecond
	res, err := search.Search(context.Background(), cfg, accessExamples, search.PredictorFunc(favorAccess))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsFalse(res.IsSolved))
	qt.Assert(t, qt.Equals(res.TimeSeconds, 0.05))
	qt.Assert(t, qt.Equals(res.ExploredNodes, -1))
	qt.Assert(t, qt.Equals(res.Probabilities["ACCESS"], 0.8))
	qt.Assert(t, qt.Equals(res.Outcome(), search.TimedOut))

	_, err = os.Stat(workDir)
	qt.Assert(t, qt.ErrorIs(err, os.ErrNotExist))
}

func TestSearchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := search.RunnerFunc(func(ctx context.Context, dir string, args []string) ([]byte, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	})
	_, err := search.Search(ctx, config(runner), accessExamples, search.PredictorFunc(favorAccess))
	qt.Assert(t, qt.ErrorIs(err, context.Canceled))
}

func TestSearchNoExamples(t *testing.T) {
	_, err := search.Search(context.Background(), config(nil), nil, search.PredictorFunc(favorAccess))
	qt.Assert(t, qt.ErrorMatches(err, `search: no examples`))
}

func TestExecRunner(t *testing.T) {
	cfg := config(search.ExecRunner{Path: os.Args[0]})

	t.Run("Solved", func(t *testing.T) {
		t.Setenv(searchEnv, "solve")
		res, err := search.Search(context.Background(), cfg, accessExamples, search.PredictorFunc(favorAccess))
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.IsTrue(res.IsSolved))
		qt.Assert(t, qt.Equals(res.Solution, " %2 <- access %0 %1\n"))
	})
	t.Run("ExitError", func(t *testing.T) {
		t.Setenv(searchEnv, "fail")
		res, err := search.Search(context.Background(), cfg, accessExamples, search.PredictorFunc(favorAccess))
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.Equals(res.Outcome(), search.Unsolved))
	})
	t.Run("Timeout", func(t *testing.T) {
		t.Setenv(searchEnv, "hang")
		cfg := cfg
		cfg.Timeout = 100 * time.Millisecond
		start := time.Now()
		res, err := search.Search(context.Background(), cfg, accessExamples, search.PredictorFunc(favorAccess))
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.Equals(res.Outcome(), search.TimedOut))
		qt.Assert(t, qt.IsTrue(time.Since(start) < 30*time.Second))
	})
	t.Run("Missing", func(t *testing.T) {
		cfg := config(search.ExecRunner{Path: filepath.Join(t.TempDir(), "missing")})
		_, err := search.Search(context.Background(), cfg, accessExamples, search.PredictorFunc(favorAccess))
		qt.Assert(t, qt.ErrorMatches(err, `search: .*missing.*`))
	})
}

func TestValidate(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	runner := search.RunnerFunc(func(ctx context.Context, dir string, args []string) ([]byte, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		data, err := os.ReadFile(filepath.Join(dir, "data", "search", "output_values.txt"))
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(string(data), "30") {
			return []byte(accessOutput), nil
		}
		return nil, nil
	})
	entries := []dataset.Entry{
		{Examples: accessExamples},
		{Examples: []dataset.Example{{Inputs: []dataset.Primitive{dataset.List(1)}, Output: dataset.Int(-255)}}},
		{Examples: accessExamples},
	}
	results, err := search.Validate(context.Background(), config(runner), entries, search.PredictorFunc(favorAccess), 2)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(calls, 3))
	var outcomes []search.Outcome
	for _, r := range results {
		outcomes = append(outcomes, r.Outcome())
	}
	qt.Assert(t, qt.DeepEquals(outcomes, []search.Outcome{search.Solved, search.Unsolved, search.Solved}))
}

func TestOutcomeString(t *testing.T) {
	qt.Assert(t, qt.Equals(search.Solved.String(), "solved"))
	qt.Assert(t, qt.Equals(search.TimedOut.String(), "timeout"))
	qt.Assert(t, qt.Equals(search.Outcome(9).String(), "Outcome(9)"))
	text, err := search.PredictionFailed.MarshalText()
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(string(text), "prediction_failed"))
}
