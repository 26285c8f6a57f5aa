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

package builder

import (
	"context"
	"math/rand/v2"

	"github.com/deepcoder-go/deepcoder/dataset"
	"github.com/deepcoder-go/deepcoder/dsl/linq"
	"github.com/deepcoder-go/deepcoder/interp"
)

// A Compiler turns program sources into executables. Any error means the
// source is not a valid program for the given bounds.
type Compiler interface {
	Compile(ctx context.Context, src string, valueRange, maxListLength int) (Executable, error)
}

// An Executable is a compiled program.
type Executable interface {
	// Run evaluates the program. It reports false if the result is null.
	Run(inputs []dataset.Primitive) (dataset.Primitive, bool)

	// GenerateExamples returns n examples with inputs drawn from rng.
	GenerateExamples(ctx context.Context, rng *rand.Rand, n int) ([]dataset.Example, error)
}

// Native returns a Compiler backed by package interp. A nil lib means
// the full library.
func Native(lib *linq.Library) Compiler {
	return nativeCompiler{interp.New(lib)}
}

type nativeCompiler struct {
	c *interp.Compiler
}

func (n nativeCompiler) Compile(ctx context.Context, src string, valueRange, maxListLength int) (Executable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := n.c.Compile(src, valueRange, maxListLength)
	if err != nil {
		return nil, err
	}
	return p, nil
}
