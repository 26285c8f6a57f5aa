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
	"math/rand/v2"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/deepcoder-go/deepcoder/dataset"
	"github.com/deepcoder-go/deepcoder/dsl"
)

var (
	num  = dataset.Int
	list = dataset.List
)

func TestEval(t *testing.T) {
	lib := Default(WithIdentity())
	for _, tc := range []struct {
		fn   string
		args []dataset.Primitive
		want dataset.Primitive
		null bool
	}{
		{fn: "HEAD", args: []dataset.Primitive{list(3, 1, 2)}, want: num(3)},
		{fn: "HEAD", args: []dataset.Primitive{list()}, null: true},
		{fn: "LAST", args: []dataset.Primitive{list(3, 1, 2)}, want: num(2)},
		{fn: "LAST", args: []dataset.Primitive{list()}, null: true},
		{fn: "TAKE", args: []dataset.Primitive{num(2), list(3, 1, 2)}, want: list(3, 1)},
		{fn: "TAKE", args: []dataset.Primitive{num(5), list(3, 1)}, want: list(3, 1)},
		{fn: "TAKE", args: []dataset.Primitive{num(-1), list(3, 1)}, want: list()},
		{fn: "DROP", args: []dataset.Primitive{num(1), list(3, 1, 2)}, want: list(1, 2)},
		{fn: "DROP", args: []dataset.Primitive{num(4), list(3, 1, 2)}, want: list()},
		{fn: "DROP", args: []dataset.Primitive{num(-2), list(3)}, want: list()},
		{fn: "ACCESS", args: []dataset.Primitive{num(1), list(3, 1, 2)}, want: num(1)},
		{fn: "ACCESS", args: []dataset.Primitive{num(3), list(3, 1, 2)}, null: true},
		{fn: "ACCESS", args: []dataset.Primitive{num(-1), list(3, 1, 2)}, null: true},
		{fn: "MINIMUM", args: []dataset.Primitive{list(3, -1, 2)}, want: num(-1)},
		{fn: "MINIMUM", args: []dataset.Primitive{list()}, null: true},
		{fn: "MAXIMUM", args: []dataset.Primitive{list(3, -1, 2)}, want: num(3)},
		{fn: "REVERSE", args: []dataset.Primitive{list(3, -1, 2)}, want: list(2, -1, 3)},
		{fn: "SORT", args: []dataset.Primitive{list(3, -1, 2)}, want: list(-1, 2, 3)},
		{fn: "SUM", args: []dataset.Primitive{list(3, -1, 2)}, want: num(4)},
		{fn: "SUM", args: []dataset.Primitive{list()}, want: num(0)},
		{fn: "MAP IDT", args: []dataset.Primitive{list(1, -2)}, want: list(1, -2)},
		{fn: "MAP INC", args: []dataset.Primitive{list(1, -2)}, want: list(2, -1)},
		{fn: "MAP DEC", args: []dataset.Primitive{list(1, -2)}, want: list(0, -3)},
		{fn: "MAP SHL", args: []dataset.Primitive{list(1, -2)}, want: list(2, -4)},
		{fn: "MAP SHR", args: []dataset.Primitive{list(5, -3)}, want: list(2, -1)},
		{fn: "MAP doNEG", args: []dataset.Primitive{list(1, -2)}, want: list(-1, 2)},
		{fn: "MAP MUL3", args: []dataset.Primitive{list(1, -2)}, want: list(3, -6)},
		{fn: "MAP DIV3", args: []dataset.Primitive{list(7, -7)}, want: list(2, -2)},
		{fn: "MAP MUL4", args: []dataset.Primitive{list(1, -2)}, want: list(4, -8)},
		{fn: "MAP DIV4", args: []dataset.Primitive{list(9, -9)}, want: list(2, -2)},
		{fn: "MAP SQR", args: []dataset.Primitive{list(3, -2)}, want: list(9, 4)},
		{fn: "FILTER isPOS", args: []dataset.Primitive{list(0, 1, -2, 3)}, want: list(1, 3)},
		{fn: "FILTER isNEG", args: []dataset.Primitive{list(0, 1, -2, 3)}, want: list(-2)},
		{fn: "FILTER isEVEN", args: []dataset.Primitive{list(0, 1, -2, 3)}, want: list(0, -2)},
		{fn: "FILTER isODD", args: []dataset.Primitive{list(0, 1, -3, 3)}, want: list(1, -3, 3)},
		{fn: "FILTER isPOS", args: []dataset.Primitive{list(-1)}, want: list()},
		{fn: "COUNT isPOS", args: []dataset.Primitive{list(0, 1, -2, 3)}, want: num(2)},
		{fn: "COUNT isODD", args: []dataset.Primitive{list(0, 1, -3, 3)}, want: num(3)},
		{fn: "ZIPWITH +", args: []dataset.Primitive{list(1, 2, 3), list(10, 20)}, want: list(11, 22)},
		{fn: "ZIPWITH -", args: []dataset.Primitive{list(1, 2), list(10, 20)}, want: list(-9, -18)},
		{fn: "ZIPWITH *", args: []dataset.Primitive{list(1, 2), list(10, 20)}, want: list(10, 40)},
		{fn: "ZIPWITH MIN", args: []dataset.Primitive{list(1, 30), list(10, 20)}, want: list(1, 20)},
		{fn: "ZIPWITH MAX", args: []dataset.Primitive{list(1, 30), list(10, 20)}, want: list(10, 30)},
		{fn: "ZIPWITH +", args: []dataset.Primitive{list(), list(10, 20)}, want: list()},
		{fn: "SCANL1 +", args: []dataset.Primitive{list(1, 2, 3)}, want: list(1, 3, 6)},
		{fn: "SCANL1 -", args: []dataset.Primitive{list(1, 2, 3)}, want: list(1, -1, -4)},
		{fn: "SCANL1 *", args: []dataset.Primitive{list(1, 2, 3)}, want: list(1, 2, 6)},
		{fn: "SCANL1 MIN", args: []dataset.Primitive{list(3, 1, 2)}, want: list(3, 1, 1)},
		{fn: "SCANL1 MAX", args: []dataset.Primitive{list(1, 3, 2)}, want: list(1, 3, 3)},
		{fn: "SCANL1 +", args: []dataset.Primitive{list()}, want: list()},
	} {
		b, ok := lib.Builtin(tc.fn)
		qt.Assert(t, qt.IsTrue(ok), qt.Commentf("%s", tc.fn))
		got, ok := b.Eval(tc.args)
		if tc.null {
			qt.Check(t, qt.IsFalse(ok), qt.Commentf("%s %v", tc.fn, tc.args))
			continue
		}
		qt.Check(t, qt.IsTrue(ok), qt.Commentf("%s %v", tc.fn, tc.args))
		qt.Check(t, qt.IsTrue(got.Equal(tc.want)), qt.Commentf("%s %v = %v, want %v", tc.fn, tc.args, got, tc.want))
	}
}

func TestEvalDoesNotModifyArguments(t *testing.T) {
	arg := list(3, 1, 2)
	for _, b := range Language(WithIdentity()) {
		if !b.Signature.Equal(dsl.Signature{Inputs: []dsl.Type{dsl.IntList}, Output: dsl.IntList}) {
			continue
		}
		b.Eval([]dataset.Primitive{arg})
		qt.Assert(t, qt.IsTrue(arg.Equal(list(3, 1, 2))), qt.Commentf("%s", b.Name))
	}
}

func TestLanguage(t *testing.T) {
	// 10 first-order functions, 10 MAP, 4 FILTER, 4 COUNT, 5 ZIPWITH and
	// 5 SCANL1.
	qt.Assert(t, qt.HasLen(Language(), 38))
	qt.Assert(t, qt.HasLen(Language(WithIdentity()), 39))

	seen := map[string]bool{}
	for _, f := range Functions(WithIdentity()) {
		qt.Assert(t, qt.IsFalse(seen[f.Name]), qt.Commentf("duplicate %s", f.Name))
		seen[f.Name] = true
	}
	_, ok := Default().Lookup("MAP IDT")
	qt.Assert(t, qt.IsFalse(ok))
	f, ok := Default().Lookup("ZIPWITH MIN")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(f.Signature.String(), "([int], [int]) -> [int]"))
	qt.Assert(t, qt.IsTrue(Min().Equal(mustLookup(t, Minimum))))
	qt.Assert(t, qt.IsTrue(Max().Equal(mustLookup(t, Maximum))))
}

func mustLookup(t *testing.T, name string) dsl.Function {
	f, ok := Default().Lookup(name)
	qt.Assert(t, qt.IsTrue(ok))
	return f
}

func TestSelect(t *testing.T) {
	fs, missing := Select(Functions(), "SORT", "MAP  INC", "FOO", "HEAD")
	qt.Assert(t, qt.DeepEquals(missing, []string{"FOO"}))
	var names []string
	for _, f := range fs {
		names = append(names, f.Name)
	}
	qt.Assert(t, qt.DeepEquals(names, []string{"SORT", "MAP INC", "HEAD"}))
}

func TestFilter(t *testing.T) {
	fs := Filter(Functions(), "MAP", "ZIPWITH", "SCANL1", "FILTER", "COUNT")
	qt.Assert(t, qt.HasLen(fs, 10))
	fs = Filter(Functions(), "+")
	for _, f := range fs {
		qt.Assert(t, qt.Not(qt.Equals(f.Name, "ZIPWITH +")))
		qt.Assert(t, qt.Not(qt.Equals(f.Name, "SCANL1 +")))
	}
	qt.Assert(t, qt.HasLen(fs, 36))
}

func TestRange(t *testing.T) {
	r := Range{-256, 255}
	for _, tc := range []struct {
		got, want Range
	}{
		{r.Shift(-1), Range{-257, 254}},
		{r.Negate(), Range{-255, 256}},
		{r.DivideBy(2), Range{-128, 127}},
		{r.DivideBy(3), Range{-85, 85}},
		{r.MultiplyBy(4), Range{-1024, 1020}},
		{r.Partial(20), Range{-12, 12}},
		{Range{5, 40}.Partial(4), Range{5, 10}},
		{r.Symmetric(2), Range{-127, 127}},
		{Range{1, 10}.Symmetric(2), Range{1, 0}},
		{r.Root(2), Range{-15, 15}},
		{r.Root(20), Range{-1, 1}},
		{sqrtRange(r), Range{-15, 15}},
		{sqrtRange(Range{10, 50}), Range{4, 7}},
		{sqrtRange(Range{-5, -1}), Range{1, 0}},
		{r.Intersect(Range{0, 1000}), Range{0, 255}},
	} {
		qt.Check(t, qt.Equals(tc.got, tc.want))
	}
	qt.Assert(t, qt.IsTrue(Range{1, 0}.Empty()))
	qt.Assert(t, qt.Equals(Range{1, 0}.String(), "[]"))
	qt.Assert(t, qt.Equals(r.String(), "[-256, 255]"))
	qt.Assert(t, qt.Equals(floorDiv(-7, 2), -4))
	qt.Assert(t, qt.Equals(ceilDiv(-7, 2), -3))
	qt.Assert(t, qt.Equals(ceilDiv(7, 2), 4))
}

// TestBoundsKeepResultsInRange evaluates every builtin on random arguments
// drawn from its bounds and checks that results stay in the value range.
func TestBoundsKeepResultsInRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, env := range []Env{{ValueRange: 256, MaxListLength: 20}, {ValueRange: 50, MaxListLength: 5}} {
		full := env.Full()
		for _, b := range Language(WithIdentity()) {
			bounds := b.Bounds(full, env)
			qt.Assert(t, qt.HasLen(bounds, len(b.Signature.Inputs)), qt.Commentf("%s", b.Name))
			for range 200 {
				args := make([]dataset.Primitive, len(bounds))
				for j, r := range bounds {
					r = r.Intersect(full)
					qt.Assert(t, qt.IsFalse(r.Empty()), qt.Commentf("%s argument %d", b.Name, j))
					pick := func() int { return r.Min + rng.IntN(r.Max-r.Min+1) }
					if b.Signature.Inputs[j] == dsl.Int {
						args[j] = num(pick())
						continue
					}
					vs := make([]int, rng.IntN(env.MaxListLength+1))
					for k := range vs {
						vs[k] = pick()
					}
					args[j] = list(vs...)
				}
				out, ok := b.Eval(args)
				if !ok {
					continue
				}
				qt.Assert(t, qt.IsTrue(out.InRange(env.ValueRange)), qt.Commentf("%s %v = %v", b.Name, args, out))
			}
		}
	}
}
