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
	"math/rand/v2"
	"strings"

	"github.com/deepcoder-go/deepcoder/dataset"
)

// pruneGroup keeps one program per equivalence class of group, where two
// programs are equivalent if they produce the same outputs on a pool of
// inputs sampled from the examples of the whole group. The program with
// the fewest lines represents its class; ties go to the earliest. It
// returns the survivors in class order and the number of programs
// dropped.
func pruneGroup(group []*candidate, equiv EquivalenceCheckingSpec, rng *rand.Rand) ([]*candidate, int) {
	if len(group) <= 1 {
		return group, 0
	}
	pool := sampleInputs(group, equiv, rng)

	var (
		kept    []*candidate
		classes = map[string]int{}
	)
	for _, c := range group {
		key := outputKey(c.exe, pool)
		i, ok := classes[key]
		if !ok {
			classes[key] = len(kept)
			kept = append(kept, c)
			continue
		}
		if c.lines < kept[i].lines {
			kept[i] = c
		}
	}
	return kept, len(group) - len(kept)
}

// sampleInputs pools example inputs from every member of group. Each
// member contributes the same share of distinct examples; the remainder
// is drawn one extra example each from randomly chosen members.
func sampleInputs(group []*candidate, equiv EquivalenceCheckingSpec, rng *rand.Rand) [][]dataset.Primitive {
	total := 0
	for _, c := range group {
		total += len(c.entry.Examples)
	}
	num := max(equiv.NumOfExamples, int(equiv.RatioOfExamples*float64(total)), 1)
	num = min(num, total)
	share, rest := num/len(group), num%len(group)

	var pool [][]dataset.Primitive
	unused := make([][]int, len(group))
	for i, c := range group {
		perm := rng.Perm(len(c.entry.Examples))
		n := min(share, len(perm))
		for _, j := range perm[:n] {
			pool = append(pool, c.entry.Examples[j].Inputs)
		}
		unused[i] = perm[n:]
	}
	for _, i := range rng.Perm(len(group)) {
		if rest == 0 {
			break
		}
		if len(unused[i]) == 0 {
			continue
		}
		k := rng.IntN(len(unused[i]))
		pool = append(pool, group[i].entry.Examples[unused[i][k]].Inputs)
		rest--
	}
	return pool
}

func outputKey(exe Executable, pool [][]dataset.Primitive) string {
	var b strings.Builder
	for _, inputs := range pool {
		if out, ok := exe.Run(inputs); ok {
			b.WriteString(out.String())
		} else {
			b.WriteString("null")
		}
		b.WriteByte(';')
	}
	return b.String()
}
