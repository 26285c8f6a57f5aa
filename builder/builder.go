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

// Package builder builds corpora of programs with input/output examples.
//
// A build runs in three phases. Enumeration simplifies every program the
// generator yields, compiles it and generates its examples; programs that
// fail are dropped. Pruning groups the survivors by signature and, within
// each group, keeps only the shortest program of every set of programs
// that agree on a sample of the group's example inputs. Finally the
// survivors are assembled into a corpus with its metadata.
package builder

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/deepcoder-go/deepcoder/dataset"
	"github.com/deepcoder-go/deepcoder/dsl"
	"github.com/deepcoder-go/deepcoder/generator"
	"github.com/deepcoder-go/deepcoder/internal/metrics"
	"github.com/deepcoder-go/deepcoder/internal/telemetry"
	"github.com/deepcoder-go/deepcoder/simplify"
)

// ProgressCallback receives progress notifications. Nil fields are
// ignored. Calls are serialized.
type ProgressCallback struct {
	// OnGenerateProgram is called for every program accepted during
	// enumeration.
	OnGenerateProgram func(p dsl.Program)

	// OnFinishEnumeration is called once with the number of accepted
	// programs.
	OnFinishEnumeration func(n int)

	// OnDumpDataset is called once per signature group with the size of
	// the group before pruning.
	OnDumpDataset func(n int)
}

// Options holds the optional parameters of Build.
type Options struct {
	// Simplify is applied to every enumerated program until it has no
	// further effect. Programs are always normalized.
	Simplify simplify.Func

	Callback ProgressCallback

	// Workers bounds the number of signature groups pruned concurrently.
	// Zero means GOMAXPROCS.
	Workers int

	// Cache records sources that failed to compile. Nil means a cache
	// private to the build.
	Cache Cache

	// Metrics, if set, receives counts and timings.
	Metrics *metrics.Metrics

	Logger *slog.Logger

	// Rand drives example generation. Nil means a randomly seeded source.
	Rand *rand.Rand

	// CompileTimeout bounds compilation plus example generation of a
	// single program. Zero means no bound.
	CompileTimeout time.Duration
}

type candidate struct {
	entry dataset.Entry
	exe   Executable
	lines int
	sig   string
}

type build struct {
	functions []dsl.Function
	spec      DatasetSpec
	equiv     EquivalenceCheckingSpec
	compiler  Compiler
	opts      Options
	logger    *slog.Logger
	tracer    trace.Tracer

	mu sync.Mutex // serializes callbacks
}

// Build enumerates programs over functions and returns the pruned
// corpus. Per-program failures drop the program; Build only fails for
// invalid specifications, cache errors and cancellation.
func Build(ctx context.Context, functions []dsl.Function, spec DatasetSpec, equiv EquivalenceCheckingSpec, compiler Compiler, opts Options) (_ *dataset.Dataset, err error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := equiv.Validate(); err != nil {
		return nil, err
	}
	if opts.Cache == nil {
		opts.Cache = NewMemoryCache()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if equiv.Rand == nil {
		equiv.Rand = opts.Rand
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	b := &build{
		functions: functions,
		spec:      spec,
		equiv:     equiv,
		compiler:  compiler,
		opts:      opts,
		logger:    cmp.Or(opts.Logger, slog.Default()),
		tracer:    otel.Tracer(telemetry.BuilderTracer),
	}

	ctx, span := b.tracer.Start(ctx, "builder.Build", trace.WithAttributes(
		attribute.Int("functions", len(functions)),
		attribute.Int("min_length", spec.MinProgramLength),
		attribute.Int("max_length", spec.MaxProgramLength),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	groups, err := b.enumerate(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := b.prune(ctx, groups)
	if err != nil {
		return nil, err
	}

	md := dataset.Metadata{
		Symbols:       dataset.NewSymbols(dsl.Symbols(functions)...),
		ValueRange:    spec.ValueRange,
		MaxListLength: spec.MaxListLength,
	}
	for _, e := range entries {
		for _, ex := range e.Examples {
			md.MaxNumInputs = max(md.MaxNumInputs, len(ex.Inputs))
		}
	}
	b.logger.Info("built corpus", "entries", len(entries), "max_num_inputs", md.MaxNumInputs)
	return dataset.New(md, entries), nil
}

// Generate builds a corpus as Build does and writes it to dst.
func Generate(ctx context.Context, functions []dsl.Function, spec DatasetSpec, equiv EquivalenceCheckingSpec, compiler Compiler, dst io.Writer, opts Options) error {
	d, err := Build(ctx, functions, spec, equiv, compiler, opts)
	if err != nil {
		return err
	}
	return d.Write(dst)
}

func (b *build) count(outcome string) {
	if b.opts.Metrics != nil {
		b.opts.Metrics.Candidates.WithLabelValues(outcome).Inc()
	}
}

func (b *build) enumerate(ctx context.Context) (map[string][]*candidate, error) {
	ctx, span := b.tracer.Start(ctx, "builder.Enumerate")
	defer span.End()

	var (
		groups   = map[string][]*candidate{}
		accepted = map[string]bool{}
		timedOut = map[string]bool{}
		n        = 0
	)
	for p := range generator.Programs(b.functions, b.spec.MinProgramLength, b.spec.MaxProgramLength) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p = simplify.Fixpoint(p, b.opts.Simplify)
		if l := p.Len(); l < b.spec.MinProgramLength || l > b.spec.MaxProgramLength {
			b.count(metrics.OutOfRange)
			continue
		}
		src := p.Source()
		if accepted[src] || timedOut[src] {
			b.count(metrics.Duplicate)
			continue
		}
		invalid, err := b.opts.Cache.IsInvalid(src, b.spec.ValueRange, b.spec.MaxListLength)
		if err != nil {
			return nil, fmt.Errorf("compile cache: %w", err)
		}
		if invalid {
			b.count(metrics.KnownInvalid)
			continue
		}

		c, outcome, err := b.compile(ctx, src)
		if err != nil {
			return nil, err
		}
		switch outcome {
		case metrics.Invalid:
			if err := b.opts.Cache.AddInvalid(src, b.spec.ValueRange, b.spec.MaxListLength); err != nil {
				return nil, fmt.Errorf("compile cache: %w", err)
			}
		case metrics.CompileTimeout:
			timedOut[src] = true
		}
		b.count(outcome)
		if c == nil {
			continue
		}

		accepted[src] = true
		c.entry.Attribute = dataset.NewAttribute(b.functions, p)
		c.sig = p.Signature().String()
		groups[c.sig] = append(groups[c.sig], c)
		n++
		b.callback(func(cb ProgressCallback) {
			if cb.OnGenerateProgram != nil {
				cb.OnGenerateProgram(p)
			}
		})
	}
	span.SetAttributes(attribute.Int("accepted", n), attribute.Int("groups", len(groups)))
	b.logger.Info("finished enumeration", "accepted", n, "groups", len(groups))
	b.callback(func(cb ProgressCallback) {
		if cb.OnFinishEnumeration != nil {
			cb.OnFinishEnumeration(n)
		}
	})
	return groups, nil
}

// compile compiles src and generates its examples. It returns a nil
// candidate with the outcome if src is dropped, and an error only if ctx
// is done.
func (b *build) compile(ctx context.Context, src string) (*candidate, string, error) {
	start := time.Now()
	defer func() {
		if b.opts.Metrics != nil {
			b.opts.Metrics.CompileSeconds.Observe(time.Since(start).Seconds())
		}
	}()

	cctx := ctx
	if b.opts.CompileTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, b.opts.CompileTimeout)
		defer cancel()
	}
	failed := func(err error, outcome string) (*candidate, string, error) {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.CompileTimeout
		}
		b.logger.Debug("dropped program", "source", src, "outcome", outcome, "error", err)
		return nil, outcome, nil
	}

	exe, err := b.compiler.Compile(cctx, src, b.spec.ValueRange, b.spec.MaxListLength)
	if err != nil {
		return failed(err, metrics.Invalid)
	}
	examples, err := exe.GenerateExamples(cctx, b.opts.Rand, b.spec.NumExamples)
	if err != nil {
		return failed(err, metrics.NoExamples)
	}
	return &candidate{
		entry: dataset.Entry{Source: src, Examples: examples},
		exe:   exe,
		lines: strings.Count(src, "\n") + 1,
	}, metrics.Accepted, nil
}

func (b *build) callback(f func(ProgressCallback)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f(b.opts.Callback)
}

// prune prunes every signature group and returns the surviving entries,
// ordered by signature and then by enumeration order.
func (b *build) prune(ctx context.Context, groups map[string][]*candidate) ([]dataset.Entry, error) {
	ctx, span := b.tracer.Start(ctx, "builder.Prune")
	defer span.End()

	sigs := make([]string, 0, len(groups))
	for sig := range groups {
		sigs = append(sigs, sig)
	}
	slices.Sort(sigs)

	// Every group gets its own source, derived in a fixed order so that
	// the result does not depend on scheduling.
	rngs := make([]*rand.Rand, len(sigs))
	for i := range sigs {
		rngs[i] = rand.New(rand.NewPCG(b.equiv.Rand.Uint64(), b.equiv.Rand.Uint64()))
	}

	kept := make([][]*candidate, len(sigs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)
	for i, sig := range sigs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			group := groups[sig]
			var pruned int
			kept[i], pruned = pruneGroup(group, b.equiv, rngs[i])
			if b.opts.Metrics != nil {
				b.opts.Metrics.GroupSize.Observe(float64(len(group)))
				b.opts.Metrics.Pruned.Add(float64(pruned))
			}
			b.logger.Debug("pruned group", "signature", sig, "size", len(group), "kept", len(kept[i]))
			b.callback(func(cb ProgressCallback) {
				if cb.OnDumpDataset != nil {
					cb.OnDumpDataset(len(group))
				}
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := []dataset.Entry{}
	for _, cs := range kept {
		for _, c := range cs {
			entries = append(entries, c.entry)
		}
	}
	span.SetAttributes(attribute.Int("entries", len(entries)))
	return entries, nil
}
