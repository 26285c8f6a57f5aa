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

package dsl

import (
	"fmt"
	"strings"
)

// A Library resolves function names.
type Library interface {
	Lookup(name string) (Function, bool)
}

// A Functions value is a Library backed by a list of functions.
type Functions []Function

// Lookup returns the function with the given name.
func (fs Functions) Lookup(name string) (Function, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f, true
		}
	}
	return Function{}, false
}

// A ParseError reports a malformed line in the textual form of a program.
type ParseError struct {
	Line int // 1-based
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Parse parses the textual form of a program as produced by Program.String.
// Function names are resolved with lib. Input declarations may appear on
// any line; they are collected in order of appearance.
func Parse(src string, lib Library) (Program, error) {
	var p Program
	defined := map[string]Variable{}
	for i, line := range strings.Split(src, "\n") {
		lineNum := i + 1
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lhs, rhs, ok := strings.Cut(line, "<-")
		if !ok {
			return Program{}, &ParseError{lineNum, "missing <-"}
		}
		name := strings.TrimSpace(lhs)
		id, err := NameID(name)
		if err != nil {
			return Program{}, &ParseError{lineNum, err.Error()}
		}
		if _, ok := defined[name]; ok {
			return Program{}, &ParseError{lineNum, fmt.Sprintf("variable %s redefined", name)}
		}
		fields := strings.Fields(rhs)
		if len(fields) == 0 {
			return Program{}, &ParseError{lineNum, "missing expression"}
		}
		if t, err := ParseType(fields[0]); err == nil && len(fields) == 1 {
			v := Variable{ID: id, Type: t}
			defined[name] = v
			p.Inputs = append(p.Inputs, v)
			continue
		}
		f, argNames, ok := splitCall(fields, lib)
		if !ok {
			return Program{}, &ParseError{lineNum, fmt.Sprintf("unknown function in %q", strings.TrimSpace(rhs))}
		}
		args := make([]Variable, len(argNames))
		for j, a := range argNames {
			v, ok := defined[a]
			if !ok {
				return Program{}, &ParseError{lineNum, fmt.Sprintf("undefined variable %s", a)}
			}
			if v.Type != f.Signature.Inputs[j] {
				return Program{}, &ParseError{lineNum, fmt.Sprintf("argument %d of %s has type %s, want %s",
					j+1, f.Name, v.Type, f.Signature.Inputs[j])}
			}
			args[j] = v
		}
		v := Variable{ID: id, Type: f.Signature.Output}
		defined[name] = v
		p.Body = append(p.Body, Statement{
			Variable:   v,
			Expression: Expression{Function: f, Arguments: args},
		})
	}
	return p, nil
}

// splitCall separates a multi-token function name from its arguments. The
// shortest name known to lib whose arity matches the remaining tokens wins.
func splitCall(fields []string, lib Library) (Function, []string, bool) {
	for k := 1; k <= len(fields); k++ {
		f, ok := lib.Lookup(strings.Join(fields[:k], " "))
		if ok && len(f.Signature.Inputs) == len(fields)-k {
			return f, fields[k:], true
		}
	}
	return Function{}, nil, false
}
