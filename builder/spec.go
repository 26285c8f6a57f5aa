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

package builder

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidSpec is returned for specifications that fail validation.
var ErrInvalidSpec = errors.New("invalid specification")

var validate = validator.New(validator.WithRequiredStructEnabled())

// A DatasetSpec describes the corpus to build.
type DatasetSpec struct {
	// Values lie in [-ValueRange, ValueRange).
	ValueRange       int `yaml:"value_range" validate:"gt=0"`
	MaxListLength    int `yaml:"max_list_length" validate:"gt=0"`
	NumExamples      int `yaml:"num_examples" validate:"gt=0"`
	MinProgramLength int `yaml:"min_program_length" validate:"gte=1"`
	MaxProgramLength int `yaml:"max_program_length" validate:"gtefield=MinProgramLength"`
}

// An EquivalenceCheckingSpec controls how many examples are pooled to
// decide whether two programs of a signature group are equivalent.
type EquivalenceCheckingSpec struct {
	// RatioOfExamples is the fraction of all examples of a group to pool.
	RatioOfExamples float64 `yaml:"ratio_of_examples" validate:"gte=0,lte=1"`

	// NumOfExamples is the minimum number of examples to pool.
	NumOfExamples int `yaml:"num_of_examples" validate:"gte=0"`

	// Rand chooses the pooled examples. If nil, Options.Rand is used.
	Rand *rand.Rand `yaml:"-"`
}

// Validate reports an error wrapping ErrInvalidSpec if s is malformed.
func (s DatasetSpec) Validate() error {
	return validateStruct(s)
}

// Validate reports an error wrapping ErrInvalidSpec if s is malformed.
func (s EquivalenceCheckingSpec) Validate() error {
	return validateStruct(s)
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		return fmt.Errorf("%w: %s fails %s=%s (got %v)", ErrInvalidSpec, e.Field(), e.Tag(), e.Param(), e.Value())
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	return nil
}

// A Config is the file form of a corpus generation run.
type Config struct {
	Dataset     DatasetSpec             `yaml:"dataset"`
	Equivalence EquivalenceCheckingSpec `yaml:"equivalence"`

	// Functions, if set, restricts the language to the named functions.
	Functions []string `yaml:"functions,omitempty"`

	// Exclude removes functions using any of the named symbols.
	Exclude []string `yaml:"exclude,omitempty"`

	Seed    uint64 `yaml:"seed"`
	Workers int    `yaml:"workers,omitempty" validate:"gte=0"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Dataset: DatasetSpec{
			ValueRange:       256,
			MaxListLength:    20,
			NumExamples:      5,
			MinProgramLength: 1,
			MaxProgramLength: 1,
		},
		Equivalence: EquivalenceCheckingSpec{
			NumOfExamples: 100,
		},
		Seed: 6217,
	}
}

// ReadConfig decodes a YAML configuration from r on top of
// DefaultConfig and validates it.
func ReadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("cannot decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates c and the specifications it holds.
func (c Config) Validate() error {
	if err := c.Dataset.Validate(); err != nil {
		return err
	}
	if err := c.Equivalence.Validate(); err != nil {
		return err
	}
	return validateStruct(c)
}
