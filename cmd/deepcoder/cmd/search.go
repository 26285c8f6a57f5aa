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
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deepcoder-go/deepcoder/dataset"
	"github.com/deepcoder-go/deepcoder/search"
)

func newSearchCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [flags] <corpus>",
		Short: "search for a program matching the examples of a corpus entry",
		Long: `search runs the enumerative search binary on the examples of one
entry of a corpus and prints the result as JSON.

Symbol probabilities come either from the symbol frequencies of a
training corpus (--prior) or from a trained model (--model-shape and
--classifier). The classifier command reads the encoded examples as JSON
on stdin and prints a JSON array with one probability per symbol, in
the sorted symbol order of the model's metadata.
`,
		Args: cobra.ExactArgs(1),
		RunE: mkRunE(c, runSearch),
	}
	cmd.Flags().Int(string(flagEntry), 0, "index of the corpus entry")
	addPredictorFlags(cmd.Flags())
	addSearchFlags(cmd.Flags())
	return cmd
}

func runSearch(cmd *Command, args []string) error {
	d, err := dataset.ReadFile(args[0])
	if err != nil {
		return err
	}
	i := flagEntry.Int(cmd)
	if i < 0 || i >= len(d.Entries) {
		return fmt.Errorf("entry %d out of range: corpus has %d entries", i, len(d.Entries))
	}
	pred, err := newPredictor(cmd, d.Metadata)
	if err != nil {
		return err
	}
	cfg, err := searchConfig(cmd, d.Metadata)
	if err != nil {
		return err
	}
	res, err := search.Search(cmd.Context(), cfg, d.Entries[i].Examples, pred)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "\t")
	enc.SetEscapeHTML(false)
	return enc.Encode(result{Entry: i, Source: d.Entries[i].Source, Outcome: res.Outcome(), Result: res})
}

// result is the JSON form of a search result.
type result struct {
	Entry   int            `json:"entry"`
	Source  string         `json:"source_code"`
	Outcome search.Outcome `json:"outcome"`
	search.Result
}
