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
	"encoding/json"
	"slices"
	"strings"

	"github.com/deepcoder-go/deepcoder/dsl"
)

// Symbols is a sorted list of distinct symbol names. The position of a
// symbol is its column in encoded attribute vectors and in predicted
// probability vectors.
type Symbols []string

// NewSymbols returns the sorted set of names.
func NewSymbols(names ...string) Symbols {
	s := slices.Clone(names)
	slices.Sort(s)
	return slices.Compact(s)
}

// Index returns the position of name in s.
func (s Symbols) Index(name string) (int, bool) {
	return slices.BinarySearch(s, name)
}

// Equal reports whether s and t hold the same symbols.
func (s Symbols) Equal(t Symbols) bool {
	return slices.Equal(s, t)
}

// A Use records whether a symbol occurs in a program.
type Use struct {
	Symbol string
	Used   bool
}

// An Attribute records, for every symbol of a language, whether it occurs
// in a program. It is sorted by symbol.
//
// In JSON an Attribute is an object mapping symbols to booleans.
type Attribute []Use

// NewAttribute returns the attribute of p with respect to the symbols of
// functions. Symbols of p that are not in functions are included too.
func NewAttribute(functions []dsl.Function, p dsl.Program) Attribute {
	used := map[string]bool{}
	for _, s := range p.Body {
		for _, sym := range s.Expression.Function.Symbols() {
			used[sym] = true
		}
	}
	all := dsl.Symbols(functions)
	for sym := range used {
		all = append(all, sym)
	}
	syms := NewSymbols(all...)
	a := make(Attribute, len(syms))
	for i, sym := range syms {
		a[i] = Use{Symbol: sym, Used: used[sym]}
	}
	return a
}

func (a Attribute) find(sym string) (int, bool) {
	return slices.BinarySearchFunc(a, sym, func(u Use, sym string) int {
		return strings.Compare(u.Symbol, sym)
	})
}

// Get reports whether sym is used. ok is false if a has no entry for sym.
func (a Attribute) Get(sym string) (used, ok bool) {
	i, ok := a.find(sym)
	if !ok {
		return false, false
	}
	return a[i].Used, true
}

// Symbols returns the symbols a has entries for.
func (a Attribute) Symbols() Symbols {
	s := make(Symbols, len(a))
	for i, u := range a {
		s[i] = u.Symbol
	}
	return s
}

// Used returns the symbols marked as used.
func (a Attribute) Used() []string {
	var s []string
	for _, u := range a {
		if u.Used {
			s = append(s, u.Symbol)
		}
	}
	return s
}

func (a Attribute) MarshalJSON() ([]byte, error) {
	m := make(map[string]bool, len(a))
	for _, u := range a {
		m[u.Symbol] = u.Used
	}
	return json.Marshal(m)
}

func (a *Attribute) UnmarshalJSON(b []byte) error {
	var m map[string]bool
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	attr := make(Attribute, 0, len(m))
	for sym, used := range m {
		attr = append(attr, Use{Symbol: sym, Used: used})
	}
	slices.SortFunc(attr, func(x, y Use) int { return strings.Compare(x.Symbol, y.Symbol) })
	*a = attr
	return nil
}
