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

// Package dataset defines corpora of programs with input/output examples,
// and their persistent form.
//
// A corpus file holds a single JSON object with the corpus id, its
// metadata and its entries. Corpus files are never modified in place:
// every tool that derives data from a corpus writes a new file.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"slices"

	"github.com/google/uuid"

	"github.com/deepcoder-go/deepcoder/internal/config"
)

// ErrOutOfBounds is returned by Metadata.Check for entries that do not
// respect the bounds of the metadata.
var ErrOutOfBounds = errors.New("entry out of bounds")

// An Entry is a program together with examples of its behavior.
type Entry struct {
	Source    string    `json:"source_code"`
	Examples  []Example `json:"examples"`
	Attribute Attribute `json:"attribute"`
}

// Metadata describes the shape of the data in a corpus.
type Metadata struct {
	MaxNumInputs  int     `json:"max_num_inputs" yaml:"max_num_inputs"`
	Symbols       Symbols `json:"symbols" yaml:"symbols"`
	ValueRange    int     `json:"value_range" yaml:"value_range"`
	MaxListLength int     `json:"max_list_length" yaml:"max_list_length"`
}

// Equal reports whether m and n describe the same shape.
func (m Metadata) Equal(n Metadata) bool {
	return m.MaxNumInputs == n.MaxNumInputs &&
		m.ValueRange == n.ValueRange &&
		m.MaxListLength == n.MaxListLength &&
		m.Symbols.Equal(n.Symbols)
}

// Check reports an error wrapping ErrOutOfBounds if e has more inputs than
// m allows, or holds a list or value that does not fit m.
func (m Metadata) Check(e Entry) error {
	check := func(i int, what string, p Primitive) error {
		if !p.InRange(m.ValueRange) {
			return fmt.Errorf("%w: example %d: %s %v outside value range %d", ErrOutOfBounds, i, what, p, m.ValueRange)
		}
		if len(p.List) > m.MaxListLength {
			return fmt.Errorf("%w: example %d: %s has %d elements, more than %d", ErrOutOfBounds, i, what, len(p.List), m.MaxListLength)
		}
		return nil
	}
	for i, ex := range e.Examples {
		if len(ex.Inputs) > m.MaxNumInputs {
			return fmt.Errorf("%w: example %d has %d inputs, more than %d", ErrOutOfBounds, i, len(ex.Inputs), m.MaxNumInputs)
		}
		for _, in := range ex.Inputs {
			if err := check(i, "input", in); err != nil {
				return err
			}
		}
		if err := check(i, "output", ex.Output); err != nil {
			return err
		}
	}
	for _, u := range e.Attribute {
		if _, ok := m.Symbols.Index(u.Symbol); !ok {
			return fmt.Errorf("%w: unknown symbol %q", ErrOutOfBounds, u.Symbol)
		}
	}
	return nil
}

// A Dataset is a corpus.
type Dataset struct {
	ID       uuid.UUID `json:"id"`
	Metadata Metadata  `json:"metadata"`
	Entries  []Entry   `json:"entries"`
}

// New returns a corpus with a fresh id.
func New(md Metadata, entries []Entry) *Dataset {
	if entries == nil {
		entries = []Entry{}
	}
	return &Dataset{ID: uuid.New(), Metadata: md, Entries: entries}
}

// Read decodes a corpus from r.
func Read(r io.Reader) (*Dataset, error) {
	var d Dataset
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("cannot decode corpus: %w", err)
	}
	return &d, nil
}

// ReadFile reads the corpus stored at path.
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Write encodes d to w.
func (d *Dataset) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	// Sources hold "<-".
	enc.SetEscapeHTML(false)
	return enc.Encode(d)
}

// WriteFile stores d at path, replacing any previous file atomically.
func (d *Dataset) WriteFile(path string) error {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return err
	}
	return config.WriteFile(path, buf.Bytes(), 0o666)
}

// Prior returns, for each symbol, the fraction of entries that use it.
func Prior(entries []Entry) map[string]float64 {
	prior := map[string]float64{}
	if len(entries) == 0 {
		return prior
	}
	for _, e := range entries {
		for _, u := range e.Attribute {
			if u.Used {
				prior[u.Symbol]++
			} else if _, ok := prior[u.Symbol]; !ok {
				prior[u.Symbol] = 0
			}
		}
	}
	for sym, n := range prior {
		prior[sym] = n / float64(len(entries))
	}
	return prior
}

// A Split names a part of a corpus and its number of entries.
type Split struct {
	Name string
	Size int
}

// Divide distributes randomly chosen entries of d into disjoint corpora,
// one per split. Entries keep their relative order. The total size of
// the splits must not exceed the number of entries.
func Divide(d *Dataset, rng *rand.Rand, splits ...Split) (map[string]*Dataset, error) {
	total := 0
	for _, s := range splits {
		if s.Size < 0 {
			return nil, fmt.Errorf("split %q has negative size %d", s.Name, s.Size)
		}
		total += s.Size
	}
	if total > len(d.Entries) {
		return nil, fmt.Errorf("splits need %d entries, corpus has %d", total, len(d.Entries))
	}
	perm := rng.Perm(len(d.Entries))
	out := make(map[string]*Dataset, len(splits))
	for _, s := range splits {
		if _, ok := out[s.Name]; ok {
			return nil, fmt.Errorf("duplicate split %q", s.Name)
		}
		idx := slices.Clone(perm[:s.Size])
		perm = perm[s.Size:]
		slices.Sort(idx)
		entries := make([]Entry, len(idx))
		for i, j := range idx {
			entries[i] = d.Entries[j]
		}
		out[s.Name] = New(d.Metadata, entries)
	}
	return out, nil
}
