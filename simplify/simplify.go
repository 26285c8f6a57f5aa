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

// Package simplify rewrites programs into shorter equivalent programs.
//
// All functions in this package are pure: they never modify their argument
// and the returned program shares no memory with it.
package simplify

import (
	"fmt"
	"slices"
	"strings"

	"github.com/deepcoder-go/deepcoder/dsl"
	"github.com/deepcoder-go/deepcoder/dsl/linq"
)

// A Func transforms a program into an equivalent one.
type Func func(dsl.Program) dsl.Program

// Compose returns a Func applying fs in order.
func Compose(fs ...Func) Func {
	return func(p dsl.Program) dsl.Program {
		p = p.Clone()
		for _, f := range fs {
			p = f(p)
		}
		return p
	}
}

// Default returns the simplification used when building corpora: merge
// redundant expressions, drop dead statements, then shorten dependencies
// through order-insensitive reducers using minimum and maximum.
func Default(minimum, maximum dsl.Function) Func {
	return Compose(
		RemoveRedundantExpressions,
		RemoveRedundantVariables,
		func(p dsl.Program) dsl.Program {
			return RemoveDependencyBetweenVariables(p, minimum, maximum)
		},
	)
}

// Fixpoint applies f until the textual form of the program stops changing
// and then normalizes the result. A nil f only normalizes.
func Fixpoint(p dsl.Program, f Func) dsl.Program {
	p = p.Clone()
	if f != nil {
		prev := p.String()
		for {
			p = f(p)
			cur := p.String()
			if cur == prev {
				break
			}
			prev = cur
		}
	}
	return Normalize(p)
}

// Normalize sorts the inputs of p by id and renumbers all variables as
// 0, 1, ... in definition order, inputs first.
//
// Every argument must refer to an input or to an earlier statement;
// Normalize panics otherwise.
func Normalize(p dsl.Program) dsl.Program {
	q := p.Clone()
	slices.SortStableFunc(q.Inputs, func(a, b dsl.Variable) int { return a.ID - b.ID })

	ids := make(map[int]int, len(q.Inputs)+len(q.Body))
	for i := range q.Inputs {
		v := &q.Inputs[i]
		ids[v.ID] = len(ids)
		v.ID = ids[v.ID]
	}
	for i := range q.Body {
		s := &q.Body[i]
		for j, a := range s.Expression.Arguments {
			id, ok := ids[a.ID]
			if !ok {
				panic(fmt.Sprintf("simplify: statement %d refers to undefined variable %s", i, a.Name()))
			}
			s.Expression.Arguments[j].ID = id
		}
		n := len(ids)
		ids[s.Variable.ID] = n
		s.Variable.ID = n
	}
	return q
}

// RemoveRedundantVariables removes statements whose result does not
// contribute to the output, and inputs that are never used. A program
// with an empty body becomes the empty program.
func RemoveRedundantVariables(p dsl.Program) dsl.Program {
	if len(p.Body) == 0 {
		return dsl.Program{}
	}
	live := map[dsl.Variable]bool{
		p.Body[len(p.Body)-1].Variable: true,
	}
	var body []dsl.Statement
	for i := len(p.Body) - 1; i >= 0; i-- {
		s := p.Body[i]
		if !live[s.Variable] {
			continue
		}
		body = append(body, s)
		for _, a := range s.Expression.Arguments {
			live[a] = true
		}
	}
	slices.Reverse(body)

	var inputs []dsl.Variable
	for _, v := range p.Inputs {
		if live[v] {
			inputs = append(inputs, v)
		}
	}
	return dsl.Program{Inputs: inputs, Body: body}.Clone()
}

func expressionKey(e dsl.Expression) string {
	var b strings.Builder
	b.WriteString(e.Function.Name)
	for _, a := range e.Arguments {
		b.WriteByte(' ')
		b.WriteString(a.Name())
	}
	return b.String()
}

// RemoveRedundantExpressions merges statements that compute a value
// already available. Arguments are first resolved through earlier merges;
// then, in order:
//
//   - an expression identical to an earlier one is replaced by the
//     earlier result,
//   - SORT of a sorted list is replaced by that list,
//   - REVERSE of a reversed list is replaced by the list before reversal.
func RemoveRedundantExpressions(p dsl.Program) dsl.Program {
	q := p.Clone()
	var (
		replacement = map[dsl.Variable]dsl.Variable{}
		byKey       = map[string]dsl.Variable{}
		definition  = map[dsl.Variable]dsl.Expression{}
	)
	body := q.Body[:0]
	for _, s := range q.Body {
		e := s.Expression
		for i, a := range e.Arguments {
			if r, ok := replacement[a]; ok {
				e.Arguments[i] = r
			}
		}
		key := expressionKey(e)
		if v, ok := byKey[key]; ok {
			replacement[s.Variable] = v
			continue
		}
		if len(e.Arguments) > 0 {
			if inner, ok := definition[e.Arguments[0]]; ok {
				switch name := e.Function.Name; {
				case name == linq.Sort && inner.Function.Name == linq.Sort:
					replacement[s.Variable] = e.Arguments[0]
					continue
				case name == linq.Reverse && inner.Function.Name == linq.Reverse:
					replacement[s.Variable] = inner.Arguments[0]
					continue
				}
			}
		}
		body = append(body, s)
		byKey[key] = s.Variable
		definition[s.Variable] = e
	}
	q.Body = body
	return q
}

// RemoveDependencyBetweenVariables rewrites reducers applied to reordered
// lists to use the list before reordering:
//
//	SUM, MAXIMUM or MINIMUM of SORT x or REVERSE x  =>  the same reducer of x
//	HEAD of SORT x                                  =>  minimum of x
//	LAST of SORT x                                  =>  maximum of x
//
// minimum and maximum must be the MINIMUM and MAXIMUM functions of the
// language in use.
func RemoveDependencyBetweenVariables(p dsl.Program, minimum, maximum dsl.Function) dsl.Program {
	q := p.Clone()
	definition := map[dsl.Variable]dsl.Expression{}
	for i := range q.Body {
		s := &q.Body[i]
		e := s.Expression
		if len(e.Arguments) > 0 {
			if inner, ok := definition[e.Arguments[0]]; ok {
				reordered := inner.Function.Name == linq.Sort || inner.Function.Name == linq.Reverse
				sorted := inner.Function.Name == linq.Sort
				switch name := e.Function.Name; {
				case reordered && (name == linq.Sum || name == linq.Maximum || name == linq.Minimum):
					e = dsl.Expression{Function: e.Function, Arguments: []dsl.Variable{inner.Arguments[0]}}
				case sorted && name == linq.Head:
					e = dsl.Expression{Function: minimum, Arguments: []dsl.Variable{inner.Arguments[0]}}
				case sorted && name == linq.Last:
					e = dsl.Expression{Function: maximum, Arguments: []dsl.Variable{inner.Arguments[0]}}
				}
			}
		}
		s.Expression = e
		definition[s.Variable] = e
	}
	return q
}
