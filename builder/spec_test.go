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

package builder_test

import (
	"strings"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/deepcoder-go/deepcoder/builder"
)

func TestDatasetSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*builder.DatasetSpec)
		wantErr string
	}{{
		name:   "Default",
		modify: func(*builder.DatasetSpec) {},
	}, {
		name:    "ZeroValueRange",
		modify:  func(s *builder.DatasetSpec) { s.ValueRange = 0 },
		wantErr: "ValueRange",
	}, {
		name:    "ZeroListLength",
		modify:  func(s *builder.DatasetSpec) { s.MaxListLength = 0 },
		wantErr: "MaxListLength",
	}, {
		name:    "ZeroExamples",
		modify:  func(s *builder.DatasetSpec) { s.NumExamples = 0 },
		wantErr: "NumExamples",
	}, {
		name:    "ZeroMinLength",
		modify:  func(s *builder.DatasetSpec) { s.MinProgramLength = 0 },
		wantErr: "MinProgramLength",
	}, {
		name: "MaxBelowMin",
		modify: func(s *builder.DatasetSpec) {
			s.MinProgramLength = 3
			s.MaxProgramLength = 2
		},
		wantErr: "MaxProgramLength",
	}}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := builder.DefaultConfig().Dataset
			test.modify(&s)
			err := s.Validate()
			if test.wantErr == "" {
				qt.Assert(t, qt.IsNil(err))
				return
			}
			qt.Assert(t, qt.ErrorIs(err, builder.ErrInvalidSpec))
			qt.Assert(t, qt.StringContains(err.Error(), test.wantErr))
		})
	}
}

func TestEquivalenceCheckingSpecValidate(t *testing.T) {
	qt.Assert(t, qt.IsNil(builder.EquivalenceCheckingSpec{RatioOfExamples: 0.5}.Validate()))
	qt.Assert(t, qt.ErrorIs(builder.EquivalenceCheckingSpec{RatioOfExamples: -0.1}.Validate(), builder.ErrInvalidSpec))
	qt.Assert(t, qt.ErrorIs(builder.EquivalenceCheckingSpec{NumOfExamples: -1}.Validate(), builder.ErrInvalidSpec))
}

func TestReadConfig(t *testing.T) {
	cfg, err := builder.ReadConfig(strings.NewReader(`
dataset:
  value_range: 64
  max_list_length: 10
  num_examples: 3
  min_program_length: 1
  max_program_length: 2
equivalence:
  ratio_of_examples: 0.5
functions: [HEAD, TAKE]
seed: 42
`))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(cfg.Dataset, builder.DatasetSpec{
		ValueRange:       64,
		MaxListLength:    10,
		NumExamples:      3,
		MinProgramLength: 1,
		MaxProgramLength: 2,
	}))
	qt.Assert(t, qt.Equals(cfg.Equivalence.RatioOfExamples, 0.5))
	// Unset fields keep their defaults.
	qt.Assert(t, qt.Equals(cfg.Equivalence.NumOfExamples, 100))
	qt.Assert(t, qt.DeepEquals(cfg.Functions, []string{"HEAD", "TAKE"}))
	qt.Assert(t, qt.Equals(cfg.Seed, uint64(42)))
}

func TestReadConfigEmpty(t *testing.T) {
	cfg, err := builder.ReadConfig(strings.NewReader(""))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(cfg.Dataset, builder.DefaultConfig().Dataset))
}

func TestReadConfigErrors(t *testing.T) {
	_, err := builder.ReadConfig(strings.NewReader("datasets: {}\n"))
	qt.Assert(t, qt.ErrorMatches(err, `cannot decode configuration: .*`))

	_, err = builder.ReadConfig(strings.NewReader("dataset:\n  num_examples: 0\n"))
	qt.Assert(t, qt.ErrorIs(err, builder.ErrInvalidSpec))

	_, err = builder.ReadConfig(strings.NewReader("workers: -1\n"))
	qt.Assert(t, qt.ErrorIs(err, builder.ErrInvalidSpec))
}
