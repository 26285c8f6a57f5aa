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

package cmd

import (
	"cmp"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/deepcoder-go/deepcoder/dataset"
)

func newInspectCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [flags] <corpus>",
		Short: "print statistics about a corpus",
		Long: `inspect prints the metadata of a corpus together with the number
of entries using each symbol, the distribution of program lengths and
the distribution of program signatures.
`,
		Args: cobra.ExactArgs(1),
		RunE: mkRunE(c, runInspect),
	}
	cmd.Flags().Bool(string(flagJSON), false, "print statistics as JSON")
	return cmd
}

func runInspect(cmd *Command, args []string) error {
	d, err := dataset.ReadFile(args[0])
	if err != nil {
		return err
	}
	stats := dataset.ComputeStats(d)
	if flagJSON.Bool(cmd) {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "\t")
		return enc.Encode(struct {
			ID       string           `json:"id"`
			Metadata dataset.Metadata `json:"metadata"`
			dataset.Stats
		}{d.ID.String(), d.Metadata, stats})
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	md := d.Metadata
	fmt.Fprintf(w, "id:\t%s\n", d.ID)
	fmt.Fprintf(w, "entries:\t%d\n", stats.Entries)
	fmt.Fprintf(w, "examples:\t%d\n", stats.Examples)
	fmt.Fprintf(w, "value range:\t%d\n", md.ValueRange)
	fmt.Fprintf(w, "max list length:\t%d\n", md.MaxListLength)
	fmt.Fprintf(w, "max inputs:\t%d\n", md.MaxNumInputs)

	fmt.Fprintf(w, "\nsymbol\tentries\tprior\n")
	prior := dataset.Prior(d.Entries)
	for _, sym := range md.Symbols {
		fmt.Fprintf(w, "%s\t%d\t%.3f\n", sym, stats.Usage[sym], prior[sym])
	}

	fmt.Fprintf(w, "\nlength\tentries\n")
	for _, n := range slices.Sorted(maps.Keys(stats.Lengths)) {
		fmt.Fprintf(w, "%d\t%d\n", n, stats.Lengths[n])
	}

	fmt.Fprintf(w, "\nsignature\tentries\n")
	sigs := slices.SortedFunc(maps.Keys(stats.Signatures), func(a, b string) int {
		return cmp.Or(cmp.Compare(stats.Signatures[b], stats.Signatures[a]), cmp.Compare(a, b))
	})
	for _, sig := range sigs {
		fmt.Fprintf(w, "%s\t%d\n", sig, stats.Signatures[sig])
	}
	return w.Flush()
}
