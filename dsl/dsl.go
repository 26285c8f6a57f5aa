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

// Package dsl defines the data model of the list-processing language used
// by the synthesizer: types, variables, functions, statements and programs.
//
// A program is a straight-line sequence of statements. Each statement binds
// a fresh variable to the result of applying a function to earlier variables:
//
//	a <- int
//	b <- [int]
//	c <- TAKE a b
//	d <- MAP INC c
//
// The first lines declare the inputs; the variable bound by the last
// statement is the output of the program.
package dsl

import (
	"fmt"
	"slices"
	"strings"
)

// A Type is the type of a value in the language.
type Type int

const (
	Int Type = iota
	IntList
)

func (t Type) String() string {
	switch t {
	case Int:
		return "int"
	case IntList:
		return "[int]"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType parses the textual form of a type as produced by String.
func ParseType(s string) (Type, error) {
	switch s {
	case "int":
		return Int, nil
	case "[int]":
		return IntList, nil
	}
	return 0, fmt.Errorf("unknown type %q", s)
}

// A Variable is identified by its id and type. Variables are plain values;
// copying one never aliases another.
type Variable struct {
	ID   int
	Type Type
}

// Name returns the name used for v in the textual form of a program.
func (v Variable) Name() string {
	return IDName(v.ID)
}

// IDName returns the textual name of a variable id: the base-26 digits of
// id written least significant first, using the letters a to z.
func IDName(id int) string {
	var b strings.Builder
	for {
		b.WriteByte(byte('a' + id%26))
		id /= 26
		if id == 0 {
			break
		}
	}
	return b.String()
}

// NameID is the inverse of IDName.
func NameID(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("empty variable name")
	}
	id, scale := 0, 1
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < 'a' || c > 'z' {
			return 0, fmt.Errorf("invalid variable name %q", name)
		}
		id += int(c-'a') * scale
		scale *= 26
	}
	return id, nil
}

// A Signature describes the argument types and result type of a function.
type Signature struct {
	Inputs []Type
	Output Type
}

// Equal reports whether s and t describe the same types.
func (s Signature) Equal(t Signature) bool {
	return s.Output == t.Output && slices.Equal(s.Inputs, t.Inputs)
}

func (s Signature) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, t := range s.Inputs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
	b.WriteString(") -> ")
	b.WriteString(s.Output.String())
	return b.String()
}

// A Function is a named operation of the language. Higher-order functions
// carry their lambda in the name, as in "MAP INC" or "ZIPWITH +".
type Function struct {
	Name      string
	Signature Signature
}

// Equal reports whether f and g have the same name and signature.
func (f Function) Equal(g Function) bool {
	return f.Name == g.Name && f.Signature.Equal(g.Signature)
}

// Symbols returns the individual tokens of the function name.
func (f Function) Symbols() []string {
	return strings.Fields(f.Name)
}

// Symbols returns the sorted set of symbols of all given functions.
func Symbols(functions []Function) []string {
	var syms []string
	for _, f := range functions {
		syms = append(syms, f.Symbols()...)
	}
	slices.Sort(syms)
	return slices.Compact(syms)
}

// An Expression applies a function to variables. The number and types of the
// arguments are expected to match the signature of the function; this is
// not checked here.
type Expression struct {
	Function  Function
	Arguments []Variable
}

// A Statement binds Variable to the value of Expression.
type Statement struct {
	Variable   Variable
	Expression Expression
}

// A Program is a list of input variables followed by a body of statements.
// Every argument in the body refers to an input or to the variable of an
// earlier statement. The variable of the last statement is the output.
type Program struct {
	Inputs []Variable
	Body   []Statement
}

// Len returns the number of statements in the body.
func (p Program) Len() int {
	return len(p.Body)
}

// Output returns the output variable of p. It reports false for a program
// with an empty body.
func (p Program) Output() (Variable, bool) {
	if len(p.Body) == 0 {
		return Variable{}, false
	}
	return p.Body[len(p.Body)-1].Variable, true
}

// Variables returns all variables defined by p, inputs first.
func (p Program) Variables() []Variable {
	vars := make([]Variable, 0, len(p.Inputs)+len(p.Body))
	vars = append(vars, p.Inputs...)
	for _, s := range p.Body {
		vars = append(vars, s.Variable)
	}
	return vars
}

// Clone returns a deep copy of p. The result shares no memory with p, so
// either may be modified without affecting the other.
func (p Program) Clone() Program {
	q := Program{
		Inputs: slices.Clone(p.Inputs),
	}
	if p.Body != nil {
		q.Body = make([]Statement, len(p.Body))
	}
	for i, s := range p.Body {
		q.Body[i] = Statement{
			Variable: s.Variable,
			Expression: Expression{
				Function:  s.Expression.Function,
				Arguments: slices.Clone(s.Expression.Arguments),
			},
		}
	}
	return q
}

// String returns the textual form of p, one line per input and statement,
// each terminated by a newline.
func (p Program) String() string {
	var b strings.Builder
	for _, v := range p.Inputs {
		fmt.Fprintf(&b, "%s <- %s\n", v.Name(), v.Type)
	}
	for _, s := range p.Body {
		b.WriteString(s.Variable.Name())
		b.WriteString(" <- ")
		b.WriteString(s.Expression.Function.Name)
		for _, a := range s.Expression.Arguments {
			b.WriteByte(' ')
			b.WriteString(a.Name())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Source returns the textual form of p without the final newline. This is
// the form accepted by compilers and used as the identity of a program in
// a corpus.
func (p Program) Source() string {
	return strings.TrimSuffix(p.String(), "\n")
}

// Signature returns the input types and the output type of p.
func (p Program) Signature() Signature {
	sig := Signature{Inputs: make([]Type, len(p.Inputs))}
	for i, v := range p.Inputs {
		sig.Inputs[i] = v.Type
	}
	if out, ok := p.Output(); ok {
		sig.Output = out.Type
	}
	return sig
}
