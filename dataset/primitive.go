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

package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/deepcoder-go/deepcoder/dsl"
)

// A Primitive is a value of the language: an integer or a list of integers.
//
// In JSON a Primitive is a number or an array of numbers.
type Primitive struct {
	Type dsl.Type
	Int  int   // valid if Type == dsl.Int
	List []int // valid if Type == dsl.IntList
}

// Int returns the integer primitive v.
func Int(v int) Primitive {
	return Primitive{Type: dsl.Int, Int: v}
}

// List returns the list primitive holding a copy of vs. The result is never
// a nil list, so empty lists encode as [].
func List(vs ...int) Primitive {
	l := make([]int, len(vs))
	copy(l, vs)
	return Primitive{Type: dsl.IntList, List: l}
}

// Equal reports whether p and q hold the same value.
func (p Primitive) Equal(q Primitive) bool {
	if p.Type != q.Type {
		return false
	}
	if p.Type == dsl.Int {
		return p.Int == q.Int
	}
	return slices.Equal(p.List, q.List)
}

// Clone returns a copy of p that shares no memory with it.
func (p Primitive) Clone() Primitive {
	if p.Type == dsl.IntList {
		return List(p.List...)
	}
	return p
}

// String formats p as a number or as space separated numbers in brackets.
func (p Primitive) String() string {
	if p.Type == dsl.Int {
		return strconv.Itoa(p.Int)
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range p.List {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(v))
	}
	b.WriteByte(']')
	return b.String()
}

// InRange reports whether every integer in p lies in [-valueRange, valueRange).
func (p Primitive) InRange(valueRange int) bool {
	in := func(v int) bool { return -valueRange <= v && v < valueRange }
	if p.Type == dsl.Int {
		return in(p.Int)
	}
	for _, v := range p.List {
		if !in(v) {
			return false
		}
	}
	return true
}

func (p Primitive) MarshalJSON() ([]byte, error) {
	if p.Type == dsl.Int {
		return json.Marshal(p.Int)
	}
	l := p.List
	if l == nil {
		l = []int{}
	}
	return json.Marshal(l)
}

func (p *Primitive) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var l []int
		if err := json.Unmarshal(b, &l); err != nil {
			return err
		}
		*p = List(l...)
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("primitive must be an integer or a list of integers: %w", err)
	}
	*p = Int(v)
	return nil
}

// An Example is one input/output pair of a program.
type Example struct {
	Inputs []Primitive `json:"inputs"`
	Output Primitive   `json:"output"`
}

// InputTypes returns the types of the inputs of e.
func (e Example) InputTypes() []dsl.Type {
	ts := make([]dsl.Type, len(e.Inputs))
	for i, in := range e.Inputs {
		ts[i] = in.Type
	}
	return ts
}
