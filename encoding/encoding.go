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

// Package encoding converts examples and attributes into the fixed-shape
// integer tensors consumed by classifiers.
//
// Values v in [-V, V) are encoded as v+V, so every encoded value is a
// valid index into an embedding table of 2V+1 rows. The extra row, 2V,
// marks empty cells.
package encoding

import (
	"errors"
	"fmt"

	"github.com/deepcoder-go/deepcoder/dataset"
	"github.com/deepcoder-go/deepcoder/dsl"
)

// ErrTooManyInputs is returned when an example has more inputs than the
// metadata allows. It indicates that examples and metadata do not belong
// together.
var ErrTooManyInputs = errors.New("too many inputs")

// Type tags of encoded primitives.
const (
	TypeInt  = 0
	TypeList = 1
)

// A PrimitiveEncoding is the encoding of a single value.
type PrimitiveEncoding struct {
	Type   int   `json:"type"`
	Values []int `json:"values"` // maxListLength cells
}

// Null returns the value of empty cells for the given value range.
func Null(valueRange int) int {
	return 2 * valueRange
}

// EncodePrimitive encodes p. Lists longer than maxListLength are
// truncated; use Metadata.Check to reject them first.
func EncodePrimitive(p dataset.Primitive, valueRange, maxListLength int) PrimitiveEncoding {
	vs := make([]int, maxListLength)
	for i := range vs {
		vs[i] = Null(valueRange)
	}
	if p.Type == dsl.Int {
		if maxListLength > 0 {
			vs[0] = p.Int + valueRange
		}
		return PrimitiveEncoding{Type: TypeInt, Values: vs}
	}
	for i, v := range p.List[:min(len(p.List), maxListLength)] {
		vs[i] = v + valueRange
	}
	return PrimitiveEncoding{Type: TypeList, Values: vs}
}

// An ExamplesEncoding holds the encoding of a list of examples. Both
// tensors are indexed by example, then by slot: the first
// MaxNumInputs slots hold the inputs and the last slot holds the output.
type ExamplesEncoding struct {
	// Types is one-hot over {int, list}. Unused input slots are all zero.
	Types [][][2]int `json:"types"`

	// Values holds MaxListLength cells per slot. Unused input slots are
	// filled with Null.
	Values [][][]int `json:"values"`
}

// EncodeExamples encodes examples for a corpus with metadata md. It fails
// with ErrTooManyInputs if an example has more than md.MaxNumInputs
// inputs, and with dataset.ErrOutOfBounds if a value does not fit md.
func EncodeExamples(examples []dataset.Example, md dataset.Metadata) (ExamplesEncoding, error) {
	enc := ExamplesEncoding{
		Types:  make([][][2]int, len(examples)),
		Values: make([][][]int, len(examples)),
	}
	slots := md.MaxNumInputs + 1
	for i, ex := range examples {
		if len(ex.Inputs) > md.MaxNumInputs {
			return ExamplesEncoding{}, fmt.Errorf("%w: example %d has %d inputs, at most %d allowed",
				ErrTooManyInputs, i, len(ex.Inputs), md.MaxNumInputs)
		}
		if err := md.Check(dataset.Entry{Examples: []dataset.Example{ex}}); err != nil {
			return ExamplesEncoding{}, err
		}
		types := make([][2]int, slots)
		values := make([][]int, slots)
		put := func(slot int, p dataset.Primitive) {
			pe := EncodePrimitive(p, md.ValueRange, md.MaxListLength)
			types[slot][pe.Type] = 1
			values[slot] = pe.Values
		}
		for j, in := range ex.Inputs {
			put(j, in)
		}
		for j := len(ex.Inputs); j < md.MaxNumInputs; j++ {
			values[j] = nullCells(md)
		}
		put(slots-1, ex.Output)
		enc.Types[i] = types
		enc.Values[i] = values
	}
	return enc, nil
}

func nullCells(md dataset.Metadata) []int {
	vs := make([]int, md.MaxListLength)
	for i := range vs {
		vs[i] = Null(md.ValueRange)
	}
	return vs
}

// EncodeAttribute returns the 0/1 vector of attr in the symbol order of
// md. Symbols missing from attr encode as 0.
func EncodeAttribute(attr dataset.Attribute, md dataset.Metadata) []int {
	vs := make([]int, len(md.Symbols))
	for i, sym := range md.Symbols {
		if used, _ := attr.Get(sym); used {
			vs[i] = 1
		}
	}
	return vs
}

// DecodeProbabilities maps a classifier output vector back to symbols, in
// the symbol order of md.
func DecodeProbabilities(probs []float64, md dataset.Metadata) (map[string]float64, error) {
	if len(probs) != len(md.Symbols) {
		return nil, fmt.Errorf("got %d probabilities for %d symbols", len(probs), len(md.Symbols))
	}
	m := make(map[string]float64, len(probs))
	for i, sym := range md.Symbols {
		m[sym] = probs[i]
	}
	return m, nil
}
