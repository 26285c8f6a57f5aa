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

// Package generator enumerates well-typed programs over a set of functions.
//
// Enumeration is a depth-first search with an explicit stack. Every frame
// carries its own copy of the program and of the id generator, so sibling
// branches never share state.
package generator

import (
	"fmt"
	"iter"
	"math/rand/v2"
	"slices"

	"github.com/deepcoder-go/deepcoder/dsl"
)

// An IDGenerator hands out fresh variable ids. It is a value: copying it
// forks the sequence.
type IDGenerator struct {
	next int
}

// Next returns a fresh id and the generator to use afterwards. g itself is
// unchanged.
func (g IDGenerator) Next() (int, IDGenerator) {
	return g.next, IDGenerator{next: g.next + 1}
}

// An ArgumentChoice is one way to supply the arguments of a function.
type ArgumentChoice struct {
	Arguments []dsl.Variable

	// NewInputs holds the variables minted for this choice, in order.
	// They become inputs of the program.
	NewInputs []dsl.Variable

	// Generator is the id generator after minting NewInputs.
	Generator IDGenerator
}

// Arguments yields every way to supply arguments of the given types. Each
// argument is either a variable of vars with the matching type or a fresh
// variable; fresh variables are visible to later arguments of the same
// choice.
func Arguments(gen IDGenerator, vars []dsl.Variable, types []dsl.Type) iter.Seq[ArgumentChoice] {
	type frame struct {
		choice ArgumentChoice
		vars   []dsl.Variable
	}
	return func(yield func(ArgumentChoice) bool) {
		stack := []frame{{
			choice: ArgumentChoice{Generator: gen},
			vars:   slices.Clip(vars),
		}}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			c := f.choice
			if len(c.Arguments) == len(types) {
				if !yield(c) {
					return
				}
				continue
			}
			t := types[len(c.Arguments)]
			for _, v := range f.vars {
				if v.Type != t {
					continue
				}
				stack = append(stack, frame{
					choice: ArgumentChoice{
						Arguments: append(slices.Clip(c.Arguments), v),
						NewInputs: c.NewInputs,
						Generator: c.Generator,
					},
					vars: f.vars,
				})
			}
			id, next := c.Generator.Next()
			v := dsl.Variable{ID: id, Type: t}
			stack = append(stack, frame{
				choice: ArgumentChoice{
					Arguments: append(slices.Clip(c.Arguments), v),
					NewInputs: append(slices.Clip(c.NewInputs), v),
					Generator: next,
				},
				vars: append(slices.Clip(f.vars), v),
			})
		}
	}
}

// Programs yields every well-typed program over functions whose body length
// lies in [minLength, maxLength]. The order is deterministic for a given
// order of functions. Each yielded program is owned by the caller.
//
// Programs panics if minLength > maxLength.
func Programs(functions []dsl.Function, minLength, maxLength int) iter.Seq[dsl.Program] {
	if minLength > maxLength {
		panic(fmt.Sprintf("generator: min length %d exceeds max length %d", minLength, maxLength))
	}
	type frame struct {
		p   dsl.Program
		gen IDGenerator
	}
	return func(yield func(dsl.Program) bool) {
		stack := []frame{{}}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			n := f.p.Len()
			if minLength <= n && n <= maxLength {
				if !yield(f.p.Clone()) {
					return
				}
			}
			if n >= maxLength {
				continue
			}
			vars := f.p.Variables()
			for _, fn := range functions {
				for a := range Arguments(f.gen, vars, fn.Signature.Inputs) {
					p, gen := extend(f.p, fn, a)
					stack = append(stack, frame{p, gen})
				}
			}
		}
	}
}

// extend returns a copy of p with a statement applying fn to the arguments
// of a.
func extend(p dsl.Program, fn dsl.Function, a ArgumentChoice) (dsl.Program, IDGenerator) {
	q := p.Clone()
	q.Inputs = append(q.Inputs, a.NewInputs...)
	id, gen := a.Generator.Next()
	q.Body = append(q.Body, dsl.Statement{
		Variable: dsl.Variable{ID: id, Type: fn.Signature.Output},
		Expression: dsl.Expression{
			Function:  fn,
			Arguments: slices.Clone(a.Arguments),
		},
	})
	return q, gen
}

// RandomPrograms yields an endless sequence of random programs. Each has a
// body length drawn uniformly from [minLength, maxLength]; every statement
// applies a function drawn from functions to an argument choice drawn
// uniformly from those Arguments yields.
//
// The sequence is empty if functions is empty. RandomPrograms panics if
// minLength > maxLength.
func RandomPrograms(functions []dsl.Function, minLength, maxLength int, rng *rand.Rand) iter.Seq[dsl.Program] {
	if minLength > maxLength {
		panic(fmt.Sprintf("generator: min length %d exceeds max length %d", minLength, maxLength))
	}
	return func(yield func(dsl.Program) bool) {
		if len(functions) == 0 {
			return
		}
		for {
			length := minLength + rng.IntN(maxLength-minLength+1)
			var (
				p   dsl.Program
				gen IDGenerator
			)
			for range length {
				fn := functions[rng.IntN(len(functions))]
				choices := slices.Collect(Arguments(gen, p.Variables(), fn.Signature.Inputs))
				p, gen = extend(p, fn, choices[rng.IntN(len(choices))])
			}
			if !yield(p) {
				return
			}
		}
	}
}
