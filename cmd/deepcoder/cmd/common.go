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
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"

	"github.com/deepcoder-go/deepcoder/dataset"
	"github.com/deepcoder-go/deepcoder/dsl"
	"github.com/deepcoder-go/deepcoder/dsl/linq"
	"github.com/deepcoder-go/deepcoder/model"
	"github.com/deepcoder-go/deepcoder/search"
)

// selectFunctions returns the library functions named in names, or all
// of them if names is empty, leaving out those using an excluded symbol.
func selectFunctions(names, exclude []string) ([]dsl.Function, error) {
	fs := linq.Functions()
	if len(names) > 0 {
		var missing []string
		fs, missing = linq.Select(fs, names...)
		if len(missing) > 0 {
			return nil, fmt.Errorf("unknown functions: %s", strings.Join(missing, ", "))
		}
	}
	fs = linq.Filter(fs, exclude...)
	if len(fs) == 0 {
		return nil, errors.New("no functions selected")
	}
	return fs, nil
}

// newRand returns a source seeded from seed. Successive calls on the
// returned source seed further independent sources.
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func split(rng *rand.Rand) *rand.Rand {
	return rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64()))
}

// newPredictor returns the predictor selected by the flags of cmd, for
// searching the examples of a corpus with metadata md. A model trained on
// data of a different shape is an error.
func newPredictor(cmd *Command, md dataset.Metadata) (search.Predictor, error) {
	prior := flagPrior.String(cmd)
	shapeFile := flagModelShape.String(cmd)
	classifier := flagClassifier.String(cmd)
	switch {
	case prior != "" && (shapeFile != "" || classifier != ""):
		return nil, fmt.Errorf("--%s cannot be combined with --%s or --%s", flagPrior, flagModelShape, flagClassifier)
	case prior != "":
		train, err := dataset.ReadFile(prior)
		if err != nil {
			return nil, err
		}
		return search.NewPriorPredictor(train), nil
	case shapeFile != "" && classifier != "":
		shape, err := model.ReadShapeFile(shapeFile)
		if err != nil {
			return nil, err
		}
		if err := shape.Check(md); err != nil {
			return nil, err
		}
		c, err := model.NewCommandClassifier(classifier)
		if err != nil {
			return nil, err
		}
		return search.NewModelPredictor(shape, c), nil
	}
	return nil, fmt.Errorf("either --%s or both --%s and --%s are required", flagPrior, flagModelShape, flagClassifier)
}

func searchConfig(cmd *Command, md dataset.Metadata) (search.Config, error) {
	path := flagSearchBinary.String(cmd)
	// The binary runs in a temporary directory.
	if strings.ContainsRune(path, filepath.Separator) {
		var err error
		if path, err = filepath.Abs(path); err != nil {
			return search.Config{}, err
		}
	}
	return search.Config{
		Runner:           search.ExecRunner{Path: path},
		Timeout:          flagTimeout.Duration(cmd),
		ValueRange:       md.ValueRange,
		MaxProgramLength: flagMaxLength.Int(cmd),
		Logger:           cmd.Logger(),
		Metrics:          cmd.metrics,
	}, nil
}
