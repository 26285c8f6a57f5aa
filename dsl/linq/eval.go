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

package linq

import (
	"slices"

	"github.com/deepcoder-go/deepcoder/dataset"
	"github.com/deepcoder-go/deepcoder/dsl"
)

var null = dataset.Primitive{}

func evalHead(args []dataset.Primitive) (dataset.Primitive, bool) {
	l := args[0].List
	if len(l) == 0 {
		return null, false
	}
	return dataset.Int(l[0]), true
}

func evalLast(args []dataset.Primitive) (dataset.Primitive, bool) {
	l := args[0].List
	if len(l) == 0 {
		return null, false
	}
	return dataset.Int(l[len(l)-1]), true
}

func evalTake(args []dataset.Primitive) (dataset.Primitive, bool) {
	n, l := args[0].Int, args[1].List
	if n < 0 {
		return dataset.List(), true
	}
	return dataset.List(l[:min(n, len(l))]...), true
}

func evalDrop(args []dataset.Primitive) (dataset.Primitive, bool) {
	n, l := args[0].Int, args[1].List
	if n < 0 {
		return dataset.List(), true
	}
	return dataset.List(l[min(n, len(l)):]...), true
}

func evalAccess(args []dataset.Primitive) (dataset.Primitive, bool) {
	n, l := args[0].Int, args[1].List
	if n < 0 || n >= len(l) {
		return null, false
	}
	return dataset.Int(l[n]), true
}

func evalMinimum(args []dataset.Primitive) (dataset.Primitive, bool) {
	l := args[0].List
	if len(l) == 0 {
		return null, false
	}
	return dataset.Int(slices.Min(l)), true
}

func evalMaximum(args []dataset.Primitive) (dataset.Primitive, bool) {
	l := args[0].List
	if len(l) == 0 {
		return null, false
	}
	return dataset.Int(slices.Max(l)), true
}

func evalReverse(args []dataset.Primitive) (dataset.Primitive, bool) {
	r := dataset.List(args[0].List...)
	slices.Reverse(r.List)
	return r, true
}

func evalSort(args []dataset.Primitive) (dataset.Primitive, bool) {
	r := dataset.List(args[0].List...)
	slices.Sort(r.List)
	return r, true
}

func evalSum(args []dataset.Primitive) (dataset.Primitive, bool) {
	s := 0
	for _, v := range args[0].List {
		s += v
	}
	return dataset.Int(s), true
}

type unaryLambda struct {
	name   string
	apply  func(int) int
	bounds func(Range) Range // inverse image of a result range
}

type predicate struct {
	name string
	test func(int) bool
}

type binaryLambda struct {
	name  string
	apply func(x, y int) int
	// zip bounds the arguments of one application; scan bounds the
	// elements of a list folded with the lambda.
	zip  func(Range) Range
	scan func(Range, int) Range
}

var unaryLambdas = []unaryLambda{
	{"IDT", func(x int) int { return x }, func(r Range) Range { return r }},
	{"INC", func(x int) int { return x + 1 }, func(r Range) Range { return r.Shift(-1) }},
	{"DEC", func(x int) int { return x - 1 }, func(r Range) Range { return r.Shift(1) }},
	{"SHL", func(x int) int { return x * 2 }, func(r Range) Range { return r.DivideBy(2) }},
	{"SHR", func(x int) int { return x / 2 }, func(r Range) Range { return r.MultiplyBy(2) }},
	{"doNEG", func(x int) int { return -x }, func(r Range) Range { return r.Negate() }},
	{"MUL3", func(x int) int { return x * 3 }, func(r Range) Range { return r.DivideBy(3) }},
	{"DIV3", func(x int) int { return x / 3 }, func(r Range) Range { return r.MultiplyBy(3) }},
	{"MUL4", func(x int) int { return x * 4 }, func(r Range) Range { return r.DivideBy(4) }},
	{"DIV4", func(x int) int { return x / 4 }, func(r Range) Range { return r.MultiplyBy(4) }},
	{"SQR", func(x int) int { return x * x }, sqrtRange},
}

var predicates = []predicate{
	{"isPOS", func(x int) bool { return x > 0 }},
	{"isNEG", func(x int) bool { return x < 0 }},
	{"isEVEN", func(x int) bool { return x%2 == 0 }},
	{"isODD", func(x int) bool { return x%2 != 0 }},
}

var binaryLambdas = []binaryLambda{
	{"+", func(x, y int) int { return x + y }, func(r Range) Range { return r.Partial(2) }, Range.Partial},
	{"-", func(x, y int) int { return x - y }, func(r Range) Range { return r.Symmetric(2) }, Range.Symmetric},
	{"*", func(x, y int) int { return x * y }, func(r Range) Range { return r.Root(2) }, Range.Root},
	{"MIN", func(x, y int) int { return min(x, y) }, Range.Self, Range.Any},
	{"MAX", func(x, y int) int { return max(x, y) }, Range.Self, Range.Any},
}

func mapBuiltin(l unaryLambda) Builtin {
	return Builtin{
		Function: dsl.Function{Name: "MAP " + l.name, Signature: sig(listT, listT)},
		Eval: func(args []dataset.Primitive) (dataset.Primitive, bool) {
			r := dataset.List(args[0].List...)
			for i, x := range r.List {
				r.List[i] = l.apply(x)
			}
			return r, true
		},
		Bounds: func(out Range, _ Env) []Range {
			return []Range{l.bounds(out)}
		},
	}
}

func filterBuiltin(p predicate) Builtin {
	return Builtin{
		Function: dsl.Function{Name: "FILTER " + p.name, Signature: sig(listT, listT)},
		Eval: func(args []dataset.Primitive) (dataset.Primitive, bool) {
			r := dataset.List()
			for _, x := range args[0].List {
				if p.test(x) {
					r.List = append(r.List, x)
				}
			}
			return r, true
		},
		Bounds: sameBounds,
	}
}

func countBuiltin(p predicate) Builtin {
	return Builtin{
		Function: dsl.Function{Name: "COUNT " + p.name, Signature: sig(intT, listT)},
		Eval: func(args []dataset.Primitive) (dataset.Primitive, bool) {
			n := 0
			for _, x := range args[0].List {
				if p.test(x) {
					n++
				}
			}
			return dataset.Int(n), true
		},
		Bounds: func(_ Range, env Env) []Range {
			return []Range{env.Full()}
		},
	}
}

func zipWithBuiltin(l binaryLambda) Builtin {
	return Builtin{
		Function: dsl.Function{Name: "ZIPWITH " + l.name, Signature: sig(listT, listT, listT)},
		Eval: func(args []dataset.Primitive) (dataset.Primitive, bool) {
			xs, ys := args[0].List, args[1].List
			r := dataset.List()
			for i := range min(len(xs), len(ys)) {
				r.List = append(r.List, l.apply(xs[i], ys[i]))
			}
			return r, true
		},
		Bounds: func(out Range, _ Env) []Range {
			b := l.zip(out)
			return []Range{b, b}
		},
	}
}

func scanl1Builtin(l binaryLambda) Builtin {
	return Builtin{
		Function: dsl.Function{Name: "SCANL1 " + l.name, Signature: sig(listT, listT)},
		Eval: func(args []dataset.Primitive) (dataset.Primitive, bool) {
			r := dataset.List(args[0].List...)
			for i := 1; i < len(r.List); i++ {
				r.List[i] = l.apply(r.List[i-1], r.List[i])
			}
			return r, true
		},
		Bounds: func(out Range, env Env) []Range {
			return []Range{l.scan(out, max(env.MaxListLength, 1))}
		},
	}
}

func sameBounds(out Range, _ Env) []Range {
	return []Range{out}
}

func sumBounds(out Range, env Env) []Range {
	return []Range{out.Partial(max(env.MaxListLength, 1))}
}

// indexBounds returns bounds for functions taking an index followed by a
// list. The list elements must satisfy the result range when the result is
// an element; TAKE and DROP results are sublists, so the same holds.
func indexBounds(offset int) func(out Range, env Env) []Range {
	return func(out Range, env Env) []Range {
		return []Range{{0, env.MaxListLength - offset}, out}
	}
}
