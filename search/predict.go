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

package search

import (
	"context"
	"maps"

	"github.com/deepcoder-go/deepcoder/dataset"
	"github.com/deepcoder-go/deepcoder/encoding"
	"github.com/deepcoder-go/deepcoder/model"
)

// A Predictor maps examples to the probability that each symbol occurs
// in a program consistent with them.
type Predictor interface {
	Predict(ctx context.Context, examples []dataset.Example) (map[string]float64, error)
}

// PredictorFunc adapts a function to a Predictor.
type PredictorFunc func(ctx context.Context, examples []dataset.Example) (map[string]float64, error)

func (f PredictorFunc) Predict(ctx context.Context, examples []dataset.Example) (map[string]float64, error) {
	return f(ctx, examples)
}

// NewPriorPredictor returns a Predictor that ignores its examples and
// predicts how often each symbol occurs in the entries of d.
func NewPriorPredictor(d *dataset.Dataset) Predictor {
	prior := dataset.Prior(d.Entries)
	return PredictorFunc(func(context.Context, []dataset.Example) (map[string]float64, error) {
		return maps.Clone(prior), nil
	})
}

// NewModelPredictor returns a Predictor that encodes examples for a
// model of the given shape and runs c on them.
func NewModelPredictor(shape model.Shape, c model.Classifier) Predictor {
	return PredictorFunc(func(ctx context.Context, examples []dataset.Example) (map[string]float64, error) {
		enc, err := encoding.EncodeExamples(examples, shape.Metadata)
		if err != nil {
			return nil, err
		}
		probs, err := c.Classify(ctx, enc)
		if err != nil {
			return nil, err
		}
		return encoding.DecodeProbabilities(probs, shape.Metadata)
	})
}
