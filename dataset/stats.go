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
	"strings"

	"github.com/deepcoder-go/deepcoder/dsl"
)

// Stats summarizes a corpus.
type Stats struct {
	Entries  int `json:"entries"`
	Examples int `json:"examples"`

	// Usage counts the entries using each symbol.
	Usage map[string]int `json:"usage"`

	// Lengths counts entries by the number of statements in their body.
	Lengths map[int]int `json:"lengths"`

	// Signatures counts entries by the signature of their program.
	Signatures map[string]int `json:"signatures"`
}

// ComputeStats returns statistics about d.
func ComputeStats(d *Dataset) Stats {
	s := Stats{
		Entries:    len(d.Entries),
		Usage:      map[string]int{},
		Lengths:    map[int]int{},
		Signatures: map[string]int{},
	}
	for _, e := range d.Entries {
		s.Examples += len(e.Examples)
		for _, sym := range e.Attribute.Used() {
			s.Usage[sym]++
		}
		s.Lengths[bodyLength(e.Source)]++
		if len(e.Examples) > 0 {
			ex := e.Examples[0]
			sig := dsl.Signature{Inputs: ex.InputTypes(), Output: ex.Output.Type}
			s.Signatures[sig.String()]++
		}
	}
	return s
}

// bodyLength counts the lines of src that are not input declarations.
func bodyLength(src string) int {
	n := 0
	for _, line := range strings.Split(src, "\n") {
		_, rhs, ok := strings.Cut(line, "<-")
		if !ok {
			continue
		}
		if _, err := dsl.ParseType(strings.TrimSpace(rhs)); err == nil {
			continue
		}
		n++
	}
	return n
}
