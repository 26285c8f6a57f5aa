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

// Package linq defines the standard function library of the language:
// first-order list functions and the higher-order MAP, FILTER, COUNT,
// ZIPWITH and SCANL1 instantiated with each of their lambdas.
//
// Each Builtin carries its evaluation function and a bounds function. The
// bounds function maps a range of acceptable result values to ranges of
// argument values that keep the result in range; compilers use it to pick
// inputs for example generation.
package linq

import (
	"slices"
	"strings"

	"github.com/deepcoder-go/deepcoder/dataset"
	"github.com/deepcoder-go/deepcoder/dsl"
)

// A Builtin is a function of the library together with its semantics.
type Builtin struct {
	dsl.Function

	// Eval applies the function. It reports false if the result is null,
	// such as the HEAD of an empty list.
	Eval func(args []dataset.Primitive) (dataset.Primitive, bool)

	// Bounds returns, for each argument, the range of values (or list
	// elements) that keep the result within out.
	Bounds func(out Range, env Env) []Range
}

// Env holds the dataset parameters that bounds depend on.
type Env struct {
	ValueRange    int
	MaxListLength int
}

// Full returns the range of all legal values: [-ValueRange, ValueRange-1].
func (e Env) Full() Range {
	return Range{-e.ValueRange, e.ValueRange - 1}
}

// Names of functions that the simplifier reasons about.
const (
	Head    = "HEAD"
	Last    = "LAST"
	Take    = "TAKE"
	Drop    = "DROP"
	Access  = "ACCESS"
	Minimum = "MINIMUM"
	Maximum = "MAXIMUM"
	Reverse = "REVERSE"
	Sort    = "SORT"
	Sum     = "SUM"
)

var (
	intT  = dsl.Int
	listT = dsl.IntList
)

func sig(out dsl.Type, in ...dsl.Type) dsl.Signature {
	return dsl.Signature{Inputs: in, Output: out}
}

type option struct {
	identity bool
}

// An Option configures Language.
type Option func(*option)

// WithIdentity includes the identity lambda IDT in MAP, ZIPWITH and
// SCANL1. It is excluded by default because it only produces programs
// equivalent to shorter ones.
func WithIdentity() Option {
	return func(o *option) { o.identity = true }
}

// Language returns all builtins in a fixed order.
func Language(opts ...Option) []Builtin {
	var o option
	for _, f := range opts {
		f(&o)
	}
	bs := []Builtin{
		{dsl.Function{Name: Head, Signature: sig(intT, listT)}, evalHead, sameBounds},
		{dsl.Function{Name: Last, Signature: sig(intT, listT)}, evalLast, sameBounds},
		{dsl.Function{Name: Take, Signature: sig(listT, intT, listT)}, evalTake, indexBounds(0)},
		{dsl.Function{Name: Drop, Signature: sig(listT, intT, listT)}, evalDrop, indexBounds(0)},
		{dsl.Function{Name: Access, Signature: sig(intT, intT, listT)}, evalAccess, indexBounds(1)},
		{dsl.Function{Name: Minimum, Signature: sig(intT, listT)}, evalMinimum, sameBounds},
		{dsl.Function{Name: Maximum, Signature: sig(intT, listT)}, evalMaximum, sameBounds},
		{dsl.Function{Name: Reverse, Signature: sig(listT, listT)}, evalReverse, sameBounds},
		{dsl.Function{Name: Sort, Signature: sig(listT, listT)}, evalSort, sameBounds},
		{dsl.Function{Name: Sum, Signature: sig(intT, listT)}, evalSum, sumBounds},
	}
	for _, l := range unaryLambdas {
		if l.name == "IDT" && !o.identity {
			continue
		}
		bs = append(bs, mapBuiltin(l))
	}
	for _, p := range predicates {
		bs = append(bs, filterBuiltin(p))
	}
	for _, p := range predicates {
		bs = append(bs, countBuiltin(p))
	}
	for _, l := range binaryLambdas {
		bs = append(bs, zipWithBuiltin(l))
	}
	for _, l := range binaryLambdas {
		bs = append(bs, scanl1Builtin(l))
	}
	return bs
}

// Functions returns the functions of Language(opts...).
func Functions(opts ...Option) []dsl.Function {
	bs := Language(opts...)
	fs := make([]dsl.Function, len(bs))
	for i, b := range bs {
		fs[i] = b.Function
	}
	return fs
}

// A Library looks up builtins by name. It implements dsl.Library.
type Library struct {
	byName map[string]Builtin
}

// NewLibrary returns a library of the given builtins.
func NewLibrary(bs []Builtin) *Library {
	l := &Library{byName: make(map[string]Builtin, len(bs))}
	for _, b := range bs {
		l.byName[b.Name] = b
	}
	return l
}

// Default returns a library holding Language(opts...).
func Default(opts ...Option) *Library {
	return NewLibrary(Language(opts...))
}

// Lookup implements dsl.Library.
func (l *Library) Lookup(name string) (dsl.Function, bool) {
	b, ok := l.byName[name]
	return b.Function, ok
}

// Builtin returns the builtin with the given name.
func (l *Library) Builtin(name string) (Builtin, bool) {
	b, ok := l.byName[name]
	return b, ok
}

// Min returns the MINIMUM function.
func Min() dsl.Function {
	return dsl.Function{Name: Minimum, Signature: sig(intT, listT)}
}

// Max returns the MAXIMUM function.
func Max() dsl.Function {
	return dsl.Function{Name: Maximum, Signature: sig(intT, listT)}
}

// Filter returns the functions of fs whose names do not contain any of the
// given symbols.
func Filter(fs []dsl.Function, exclude ...string) []dsl.Function {
	var out []dsl.Function
outer:
	for _, f := range fs {
		for _, s := range f.Symbols() {
			if slices.Contains(exclude, s) {
				continue outer
			}
		}
		out = append(out, f)
	}
	return out
}

// Select returns the functions of fs with the given names, in the order of
// names. Unknown names are reported in missing.
func Select(fs []dsl.Function, names ...string) (selected []dsl.Function, missing []string) {
	for _, n := range names {
		n = strings.Join(strings.Fields(n), " ")
		i := slices.IndexFunc(fs, func(f dsl.Function) bool { return f.Name == n })
		if i < 0 {
			missing = append(missing, n)
			continue
		}
		selected = append(selected, fs[i])
	}
	return selected, missing
}
