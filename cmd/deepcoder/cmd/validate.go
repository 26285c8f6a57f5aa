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
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deepcoder-go/deepcoder/dataset"
	"github.com/deepcoder-go/deepcoder/internal/config"
	"github.com/deepcoder-go/deepcoder/search"
)

func newValidateCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [flags] <corpus> <output>",
		Short: "search for programs matching every entry of a corpus",
		Long: `validate runs a search for the examples of every entry of the
corpus, as the search command does, and writes all results to the output
file as JSON. It prints how many entries were solved.

A model whose shape file does not match the metadata of the corpus is
rejected before any search runs.
`,
		Args: cobra.ExactArgs(2),
		RunE: mkRunE(c, runValidate),
	}
	addPredictorFlags(cmd.Flags())
	addSearchFlags(cmd.Flags())
	cmd.Flags().Int(string(flagWorkers), 1, "number of searches run in parallel")
	return cmd
}

func runValidate(cmd *Command, args []string) error {
	d, err := dataset.ReadFile(args[0])
	if err != nil {
		return err
	}
	pred, err := newPredictor(cmd, d.Metadata)
	if err != nil {
		return err
	}
	cfg, err := searchConfig(cmd, d.Metadata)
	if err != nil {
		return err
	}
	res, err := search.Validate(cmd.Context(), cfg, d.Entries, pred, flagWorkers.Int(cmd))
	if err != nil {
		return err
	}

	results := make([]result, len(res))
	solved := 0
	for i, r := range res {
		results[i] = result{Entry: i, Source: d.Entries[i].Source, Outcome: r.Outcome(), Result: r}
		if r.IsSolved {
			solved++
		}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "\t")
	enc.SetEscapeHTML(false)
	err = enc.Encode(struct {
		Corpus  string   `json:"corpus"`
		Solved  int      `json:"solved"`
		Results []result `json:"results"`
	}{d.ID.String(), solved, results})
	if err != nil {
		return err
	}
	if err := config.WriteFile(args[1], buf.Bytes(), 0o666); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Solved: %d of %d entries\n", solved, len(d.Entries))
	return nil
}
