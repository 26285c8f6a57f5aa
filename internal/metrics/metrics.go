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

// Package metrics holds the Prometheus metrics of a single corpus
// generation or validation run. Every run owns its registry; nothing is
// registered globally.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "deepcoder"

// Candidate outcomes, used as the "outcome" label of Candidates.
const (
	Accepted       = "accepted"
	OutOfRange     = "out_of_range"
	Duplicate      = "duplicate"
	KnownInvalid   = "known_invalid"
	Invalid        = "invalid"
	NoExamples     = "no_examples"
	CompileTimeout = "timeout"
)

// Metrics holds the collectors of one run.
type Metrics struct {
	reg *prometheus.Registry

	// Candidates counts enumerated programs by outcome.
	Candidates *prometheus.CounterVec

	// CompileSeconds observes compile plus example generation time.
	CompileSeconds prometheus.Histogram

	// GroupSize observes signature group sizes before pruning.
	GroupSize prometheus.Histogram

	// Pruned counts entries removed as equivalent to a shorter one.
	Pruned prometheus.Counter

	// Searches counts search calls by outcome.
	Searches *prometheus.CounterVec

	// SearchSeconds observes the wall time of search calls.
	SearchSeconds prometheus.Histogram
}

// New returns metrics registered with a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		Candidates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "candidates_total",
			Help:      "Enumerated programs by outcome.",
		}, []string{"outcome"}),
		CompileSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "compile_seconds",
			Help:      "Time to compile a program and generate its examples.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		GroupSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "group_size",
			Help:      "Number of programs per signature group before pruning.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		Pruned: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "pruned_total",
			Help:      "Programs dropped as equivalent to a shorter program.",
		}),
		Searches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "searches_total",
			Help:      "Search calls by outcome.",
		}, []string{"outcome"}),
		SearchSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Wall time of search calls.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
	}
}

// Gatherer returns the registry holding m.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.reg
}

// WriteFile writes m in the Prometheus text format to path.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
