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

package linq

import "fmt"

// A Range is an inclusive interval of integers. It is empty if Min > Max.
type Range struct {
	Min, Max int
}

func (r Range) String() string {
	if r.Empty() {
		return "[]"
	}
	return fmt.Sprintf("[%d, %d]", r.Min, r.Max)
}

// Empty reports whether r contains no integers.
func (r Range) Empty() bool {
	return r.Min > r.Max
}

// Contains reports whether v lies in r.
func (r Range) Contains(v int) bool {
	return r.Min <= v && v <= r.Max
}

// Intersect returns the integers in both r and s.
func (r Range) Intersect(s Range) Range {
	return Range{max(r.Min, s.Min), min(r.Max, s.Max)}
}

// Self returns r.
func (r Range) Self() Range { return r }

// Any returns r; it ignores the fold length.
func (r Range) Any(int) Range { return r }

// Shift returns r moved by d.
func (r Range) Shift(d int) Range {
	return Range{r.Min + d, r.Max + d}
}

// Negate returns the negation of every value in r.
func (r Range) Negate() Range {
	return Range{-r.Max, -r.Min}
}

// DivideBy returns the values x for which x*k lies in r. k must be positive.
func (r Range) DivideBy(k int) Range {
	return Range{ceilDiv(r.Min, k), floorDiv(r.Max, k)}
}

// MultiplyBy returns values x for which x/k, truncated, lies in r.
func (r Range) MultiplyBy(k int) Range {
	return Range{r.Min * k, r.Max * k}
}

// Partial returns values such that the sum of any 1 to n of them lies in r.
func (r Range) Partial(n int) Range {
	lo, hi := r.Min, r.Max
	if lo < 0 {
		lo = ceilDiv(lo, n)
	}
	if hi > 0 {
		hi = floorDiv(hi, n)
	}
	return Range{lo, hi}
}

// Symmetric returns a range [-w, w] such that alternating sums of up to n
// of its values lie in r. It is empty if r does not contain zero.
func (r Range) Symmetric(n int) Range {
	if !r.Contains(0) {
		return Range{1, 0}
	}
	w := min(-r.Min, r.Max) / n
	return Range{-w, w}
}

// Root returns a range [-w, w] such that products of up to n of its values
// lie in r. It is empty if r does not contain zero.
func (r Range) Root(n int) Range {
	if !r.Contains(0) {
		return Range{1, 0}
	}
	m := min(-r.Min, r.Max)
	w := 0
	for pow(w+1, n) <= m {
		w++
	}
	return Range{-w, w}
}

func sqrtRange(r Range) Range {
	if r.Max < 0 {
		return Range{1, 0}
	}
	hi := isqrt(r.Max)
	if r.Min <= 0 {
		return Range{-hi, hi}
	}
	lo := isqrt(r.Min)
	if lo*lo < r.Min {
		lo++
	}
	return Range{lo, hi}
}

func isqrt(n int) int {
	x := 0
	for (x+1)*(x+1) <= n {
		x++
	}
	return x
}

// pow returns b**n, saturating well above any value range in use.
func pow(b, n int) int {
	const limit = 1 << 40
	r := 1
	for range n {
		r *= b
		if r > limit {
			return limit
		}
	}
	return r
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	return -floorDiv(-a, b)
}
