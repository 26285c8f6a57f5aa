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

// Package model describes trained attribute classifiers: the shape
// parameters saved next to a model and the boundary through which a
// model is run.
package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/google/shlex"
	"gopkg.in/yaml.v3"

	"github.com/deepcoder-go/deepcoder/dataset"
	"github.com/deepcoder-go/deepcoder/encoding"
	"github.com/deepcoder-go/deepcoder/internal/config"
)

// ErrMetadataMismatch is returned when a model was trained on data of a
// different shape than the data it is applied to.
var ErrMetadataMismatch = errors.New("model metadata does not match dataset")

// A Shape holds the parameters needed to rebuild a model's tensors.
type Shape struct {
	Metadata        dataset.Metadata `yaml:"metadata"`
	NumHiddenLayers int              `yaml:"num_hidden_layers"`
	EmbeddingSize   int              `yaml:"embedding_size"`
	NumUnits        int              `yaml:"num_units"`
}

// DefaultShape returns the shape used in the DeepCoder paper for corpora
// with metadata md.
func DefaultShape(md dataset.Metadata) Shape {
	return Shape{
		Metadata:        md,
		NumHiddenLayers: 3,
		EmbeddingSize:   20,
		NumUnits:        256,
	}
}

// Check reports an error wrapping ErrMetadataMismatch if md differs from
// the metadata s was built for.
func (s Shape) Check(md dataset.Metadata) error {
	var diffs []string
	m := s.Metadata
	if !m.Symbols.Equal(md.Symbols) {
		diffs = append(diffs, fmt.Sprintf("symbols %v != %v", m.Symbols, md.Symbols))
	}
	if m.ValueRange != md.ValueRange {
		diffs = append(diffs, fmt.Sprintf("value range %d != %d", m.ValueRange, md.ValueRange))
	}
	if m.MaxListLength != md.MaxListLength {
		diffs = append(diffs, fmt.Sprintf("max list length %d != %d", m.MaxListLength, md.MaxListLength))
	}
	if m.MaxNumInputs != md.MaxNumInputs {
		diffs = append(diffs, fmt.Sprintf("max inputs %d != %d", m.MaxNumInputs, md.MaxNumInputs))
	}
	if len(diffs) > 0 {
		return fmt.Errorf("%w: %s", ErrMetadataMismatch, strings.Join(diffs, "; "))
	}
	return nil
}

// ReadShapeFile reads a shape from a YAML file.
func ReadShapeFile(path string) (Shape, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Shape{}, err
	}
	var s Shape
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return Shape{}, fmt.Errorf("cannot decode %s: %w", path, err)
	}
	return s, nil
}

// WriteShapeFile writes s to path as YAML.
func WriteShapeFile(path string, s Shape) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return config.WriteFile(path, data, 0o666)
}

// A Classifier runs a trained model on encoded examples and returns one
// probability per symbol, in the sorted symbol order of the model's
// metadata.
type Classifier interface {
	Classify(ctx context.Context, enc encoding.ExamplesEncoding) ([]float64, error)
}

// A CommandClassifier runs a model in an external process. The encoding
// is written to its standard input as JSON and the process is expected
// to print a JSON array of probabilities.
type CommandClassifier struct {
	Args []string
}

// NewCommandClassifier returns a classifier running the given shell-style
// command line.
func NewCommandClassifier(cmdline string) (*CommandClassifier, error) {
	args, err := shlex.Split(cmdline)
	if err != nil {
		return nil, fmt.Errorf("cannot parse classifier command %q: %w", cmdline, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty classifier command")
	}
	return &CommandClassifier{Args: args}, nil
}

func (c *CommandClassifier) Classify(ctx context.Context, enc encoding.ExamplesEncoding) ([]float64, error) {
	in, err := json.Marshal(enc)
	if err != nil {
		return nil, err
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Stdin = bytes.NewReader(in)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("classifier %s: %w: %s", c.Args[0], err, msg)
		}
		return nil, fmt.Errorf("classifier %s: %w", c.Args[0], err)
	}
	var probs []float64
	if err := json.Unmarshal(stdout.Bytes(), &probs); err != nil {
		return nil, fmt.Errorf("classifier %s: invalid output: %w", c.Args[0], err)
	}
	return probs, nil
}
