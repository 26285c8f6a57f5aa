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

package interp

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/deepcoder-go/deepcoder/dataset"
	"github.com/deepcoder-go/deepcoder/dsl"
	"github.com/deepcoder-go/deepcoder/dsl/linq"
)

func TestRun(t *testing.T) {
	c := New(nil)
	tests := []struct {
		name   string
		src    string
		inputs []dataset.Primitive
		want   dataset.Primitive
		ok     bool
	}{{
		name:   "Head",
		src:    "a <- [int]\nb <- HEAD a",
		inputs: []dataset.Primitive{dataset.List(3, 1, 2)},
		want:   dataset.Int(3),
		ok:     true,
	}, {
		name:   "HeadOfEmpty",
		src:    "a <- [int]\nb <- HEAD a",
		inputs: []dataset.Primitive{dataset.List()},
	}, {
		name:   "TakeNegative",
		src:    "a <- int\nb <- [int]\nc <- TAKE a b",
		inputs: []dataset.Primitive{dataset.Int(-1), dataset.List(1, 2)},
		want:   dataset.List(),
		ok:     true,
	}, {
		name:   "DropPastEnd",
		src:    "a <- int\nb <- [int]\nc <- DROP a b",
		inputs: []dataset.Primitive{dataset.Int(5), dataset.List(1, 2)},
		want:   dataset.List(),
		ok:     true,
	}, {
		name:   "AccessOutOfRange",
		src:    "a <- int\nb <- [int]\nc <- ACCESS a b",
		inputs: []dataset.Primitive{dataset.Int(2), dataset.List(1, 2)},
	}, {
		name:   "Access",
		src:    "a <- int\nb <- [int]\nc <- ACCESS a b",
		inputs: []dataset.Primitive{dataset.Int(1), dataset.List(1, 2)},
		want:   dataset.Int(2),
		ok:     true,
	}, {
		name:   "ZipWithTruncates",
		src:    "a <- [int]\nb <- [int]\nc <- ZIPWITH - a b",
		inputs: []dataset.Primitive{dataset.List(5, 6, 7), dataset.List(1, 1)},
		want:   dataset.List(4, 5),
		ok:     true,
	}, {
		name:   "ScanMax",
		src:    "a <- [int]\nb <- SCANL1 MAX a",
		inputs: []dataset.Primitive{dataset.List(1, 3, 2, 5)},
		want:   dataset.List(1, 3, 3, 5),
		ok:     true,
	}, {
		name:   "Chain",
		src:    "a <- [int]\nb <- FILTER isODD a\nc <- MAP SQR b\nd <- SUM c",
		inputs: []dataset.Primitive{dataset.List(-3, 2, 1, 4)},
		want:   dataset.Int(10),
		ok:     true,
	}, {
		name:   "CountNeg",
		src:    "a <- [int]\nb <- COUNT isNEG a",
		inputs: []dataset.Primitive{dataset.List(-3, 0, -1)},
		want:   dataset.Int(2),
		ok:     true,
	}, {
		name:   "WrongType",
		src:    "a <- [int]\nb <- HEAD a",
		inputs: []dataset.Primitive{dataset.Int(1)},
	}}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p, err := c.Compile(test.src, 256, 20)
			qt.Assert(t, qt.IsNil(err))
			got, ok := p.Run(test.inputs)
			qt.Assert(t, qt.Equals(ok, test.ok))
			if ok {
				qt.Assert(t, qt.DeepEquals(got, test.want))
			}
		})
	}
}

func TestCompileInvalid(t *testing.T) {
	c := New(nil)
	for _, src := range []string{
		"",
		"a <- [int]",
		"a <- int\nb <- HEAD a",
		"a <- [int]\nb <- FOO a",
		"a <- [int]\nb <- HEAD c",
	} {
		_, err := c.Compile(src, 256, 20)
		qt.Check(t, qt.ErrorIs(err, ErrInvalidProgram), qt.Commentf("%q", src))
	}
}

func TestBounds(t *testing.T) {
	c := New(nil)
	p, err := c.Compile("a <- [int]\nb <- MAP SQR a\nc <- MAP SQR b", 256, 20)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(p.Bounds(), []linq.Range{{Min: -3, Max: 3}}))

	p, err = c.Compile("a <- int\nb <- [int]\nc <- TAKE a b\nd <- SUM c", 256, 4)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(p.Bounds(), []linq.Range{{Min: 0, Max: 4}, {Min: -64, Max: 63}}))
}

func TestSignature(t *testing.T) {
	p, err := New(nil).Compile("a <- int\nb <- [int]\nc <- ACCESS a b", 256, 20)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(p.Signature(), dsl.Signature{
		Inputs: []dsl.Type{dsl.Int, dsl.IntList},
		Output: dsl.Int,
	}))
}

func TestGenerateExamples(t *testing.T) {
	const (
		valueRange    = 256
		maxListLength = 5
	)
	p, err := New(nil).Compile("a <- int\nb <- [int]\nc <- TAKE a b\nd <- MAP MUL4 c", valueRange, maxListLength)
	qt.Assert(t, qt.IsNil(err))
	rng := rand.New(rand.NewPCG(1, 2))
	examples, err := p.GenerateExamples(context.Background(), rng, 10)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(examples, 10))
	for _, e := range examples {
		qt.Assert(t, qt.HasLen(e.Inputs, 2))
		qt.Assert(t, qt.IsTrue(e.Output.InRange(valueRange)))
		qt.Assert(t, qt.IsTrue(len(e.Inputs[1].List) >= 1 && len(e.Inputs[1].List) <= maxListLength))
		out, ok := p.Run(e.Inputs)
		qt.Assert(t, qt.IsTrue(ok))
		qt.Assert(t, qt.DeepEquals(out, e.Output))
	}
}

func TestGenerateExamplesDeterministic(t *testing.T) {
	p, err := New(nil).Compile("a <- [int]\nb <- SORT a", 256, 5)
	qt.Assert(t, qt.IsNil(err))
	gen := func() []dataset.Example {
		examples, err := p.GenerateExamples(context.Background(), rand.New(rand.NewPCG(7, 7)), 3)
		qt.Assert(t, qt.IsNil(err))
		return examples
	}
	qt.Assert(t, qt.DeepEquals(gen(), gen()))
}

func TestGenerateExamplesCanceled(t *testing.T) {
	p, err := New(nil).Compile("a <- [int]\nb <- SORT a", 256, 5)
	qt.Assert(t, qt.IsNil(err))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.GenerateExamples(ctx, rand.New(rand.NewPCG(1, 1)), 3)
	qt.Assert(t, qt.ErrorIs(err, context.Canceled))
}
