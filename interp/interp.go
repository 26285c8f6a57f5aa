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

// Package interp compiles and runs programs written in the textual form of
// package dsl, and generates input/output examples for them.
//
// Compilation propagates value bounds backwards from the output, which
// must lie in [-V, V), to every input. A program whose bounds become empty
// cannot produce a legal output and is rejected.
package interp

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/deepcoder-go/deepcoder/dataset"
	"github.com/deepcoder-go/deepcoder/dsl"
	"github.com/deepcoder-go/deepcoder/dsl/linq"
)

var (
	// ErrInvalidProgram is returned by Compile for programs that do not
	// parse, do not type check, or cannot produce an output in range.
	ErrInvalidProgram = errors.New("invalid program")

	// ErrNoExamples is returned by GenerateExamples when not enough inputs
	// producing a legal output could be found.
	ErrNoExamples = errors.New("cannot generate examples")
)

// attemptsPerExample bounds the number of inputs tried per requested example.
const attemptsPerExample = 100

// A Compiler compiles programs over a function library.
type Compiler struct {
	lib *linq.Library
}

// New returns a compiler for programs over lib. A nil lib means
// linq.Default().
func New(lib *linq.Library) *Compiler {
	if lib == nil {
		lib = linq.Default(linq.WithIdentity())
	}
	return &Compiler{lib: lib}
}

// A Program is a compiled program.
type Program struct {
	src      string
	prog     dsl.Program
	builtins []linq.Builtin
	bounds   []linq.Range // per input
	env      linq.Env
}

// Compile compiles src for values in [-valueRange, valueRange) and lists of
// at most maxListLength elements.
func (c *Compiler) Compile(src string, valueRange, maxListLength int) (*Program, error) {
	if valueRange <= 0 || maxListLength <= 0 {
		return nil, fmt.Errorf("value range %d and list length %d must be positive", valueRange, maxListLength)
	}
	prog, err := dsl.Parse(src, c.lib)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProgram, err)
	}
	if prog.Len() == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidProgram)
	}
	p := &Program{
		src:      src,
		prog:     prog,
		builtins: make([]linq.Builtin, prog.Len()),
		env:      linq.Env{ValueRange: valueRange, MaxListLength: maxListLength},
	}
	for i, s := range prog.Body {
		b, ok := c.lib.Builtin(s.Expression.Function.Name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown function %s", ErrInvalidProgram, s.Expression.Function.Name)
		}
		p.builtins[i] = b
	}
	if err := p.computeBounds(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Program) computeBounds() error {
	full := p.env.Full()
	ranges := map[int]linq.Range{}
	get := func(v dsl.Variable) linq.Range {
		if r, ok := ranges[v.ID]; ok {
			return r
		}
		return full
	}
	for i := len(p.prog.Body) - 1; i >= 0; i-- {
		s := p.prog.Body[i]
		out := get(s.Variable)
		if out.Empty() {
			return fmt.Errorf("%w: no legal value for %s", ErrInvalidProgram, s.Variable.Name())
		}
		args := p.builtins[i].Bounds(out, p.env)
		for j, a := range s.Expression.Arguments {
			ranges[a.ID] = get(a).Intersect(args[j]).Intersect(full)
		}
	}
	p.bounds = make([]linq.Range, len(p.prog.Inputs))
	for i, v := range p.prog.Inputs {
		r := get(v)
		if r.Empty() {
			return fmt.Errorf("%w: no legal value for input %s", ErrInvalidProgram, v.Name())
		}
		p.bounds[i] = r
	}
	return nil
}

// Source returns the source the program was compiled from.
func (p *Program) Source() string { return p.src }

// Signature returns the input and output types of p.
func (p *Program) Signature() dsl.Signature { return p.prog.Signature() }

// Bounds returns the range of values, or of list elements, chosen for
// each input when generating examples.
func (p *Program) Bounds() []linq.Range {
	return append([]linq.Range(nil), p.bounds...)
}

// Run evaluates p. It reports false if the inputs do not match the
// signature of p or if any statement produces null.
func (p *Program) Run(inputs []dataset.Primitive) (dataset.Primitive, bool) {
	if len(inputs) != len(p.prog.Inputs) {
		return dataset.Primitive{}, false
	}
	env := make(map[int]dataset.Primitive, len(p.prog.Inputs)+len(p.prog.Body))
	for i, v := range p.prog.Inputs {
		if inputs[i].Type != v.Type {
			return dataset.Primitive{}, false
		}
		env[v.ID] = inputs[i]
	}
	var out dataset.Primitive
	args := make([]dataset.Primitive, 0, 3)
	for i, s := range p.prog.Body {
		args = args[:0]
		for _, a := range s.Expression.Arguments {
			args = append(args, env[a.ID])
		}
		v, ok := p.builtins[i].Eval(args)
		if !ok {
			return dataset.Primitive{}, false
		}
		env[s.Variable.ID] = v
		out = v
	}
	return out, true
}

// GenerateExamples returns n examples with inputs drawn from rng. Inputs
// are drawn within the bounds of p; only examples whose output is non-null
// and in range are kept. It fails with ErrNoExamples if fewer than n were
// found within a fixed number of attempts.
func (p *Program) GenerateExamples(ctx context.Context, rng *rand.Rand, n int) ([]dataset.Example, error) {
	examples := make([]dataset.Example, 0, n)
	for attempt := 0; attempt < n*attemptsPerExample && len(examples) < n; attempt++ {
		if attempt%attemptsPerExample == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		inputs := make([]dataset.Primitive, len(p.prog.Inputs))
		for i, v := range p.prog.Inputs {
			inputs[i] = p.randomValue(rng, v.Type, p.bounds[i])
		}
		out, ok := p.Run(inputs)
		if !ok || !out.InRange(p.env.ValueRange) {
			continue
		}
		if out.Type == dsl.IntList && len(out.List) > p.env.MaxListLength {
			continue
		}
		examples = append(examples, dataset.Example{Inputs: inputs, Output: out})
	}
	if len(examples) < n {
		return nil, fmt.Errorf("%w: found %d of %d for %q", ErrNoExamples, len(examples), n, p.src)
	}
	return examples, nil
}

func (p *Program) randomValue(rng *rand.Rand, t dsl.Type, r linq.Range) dataset.Primitive {
	if t == dsl.Int {
		return dataset.Int(randIn(rng, r))
	}
	l := make([]int, 1+rng.IntN(p.env.MaxListLength))
	for i := range l {
		l[i] = randIn(rng, r)
	}
	return dataset.Primitive{Type: dsl.IntList, List: l}
}

func randIn(rng *rand.Rand, r linq.Range) int {
	return r.Min + rng.IntN(r.Max-r.Min+1)
}
