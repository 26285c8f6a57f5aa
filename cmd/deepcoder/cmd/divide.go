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
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/deepcoder-go/deepcoder/dataset"
)

func newDivideCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "divide [flags] <corpus> <dir>",
		Short: "split a corpus into training and validation corpora",
		Long: `divide randomly chooses --num-valid entries of the corpus for
validation and writes them to <dir>/valid.json. The remaining entries are
written to <dir>/train.json. Both keep the order and metadata of the
original corpus.
`,
		Args: cobra.ExactArgs(2),
		RunE: mkRunE(c, runDivide),
	}
	cmd.Flags().Int(string(flagNumValid), 0, "number of entries for validation")
	cmd.Flags().Uint64(string(flagSeed), 13782, "random seed")
	return cmd
}

func runDivide(cmd *Command, args []string) error {
	d, err := dataset.ReadFile(args[0])
	if err != nil {
		return err
	}
	numValid := flagNumValid.Int(cmd)
	if numValid < 0 || numValid > len(d.Entries) {
		return fmt.Errorf("--%s must be between 0 and %d", flagNumValid, len(d.Entries))
	}
	parts, err := dataset.Divide(d, newRand(flagSeed.Uint64(cmd)),
		dataset.Split{Name: "train", Size: len(d.Entries) - numValid},
		dataset.Split{Name: "valid", Size: numValid},
	)
	if err != nil {
		return err
	}
	dir := args[1]
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return err
	}
	for _, name := range []string{"train", "valid"} {
		path := filepath.Join(dir, name+".json")
		if err := parts[name].WriteFile(path); err != nil {
			return err
		}
		cmd.Logger().Info("wrote corpus", "path", path, "entries", len(parts[name].Entries))
	}
	return nil
}
