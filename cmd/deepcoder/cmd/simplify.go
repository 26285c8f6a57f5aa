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
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/deepcoder-go/deepcoder/dsl"
	"github.com/deepcoder-go/deepcoder/dsl/linq"
	"github.com/deepcoder-go/deepcoder/simplify"
)

func newSimplifyCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simplify [file]",
		Short: "simplify a program",
		Long: `simplify reads a program from the given file, or from stdin,
and prints it after removing redundant expressions and variables,
redirecting reductions past reorderings and normalizing its variables.

For example, the program

	a <- [int]
	b <- SORT a
	c <- HEAD b

simplifies to

	a <- [int]
	b <- MINIMUM a
`,
		Args: cobra.MaximumNArgs(1),
		RunE: mkRunE(c, runSimplify),
	}
	return cmd
}

func runSimplify(cmd *Command, args []string) error {
	var (
		src []byte
		err error
	)
	if len(args) == 0 || args[0] == "-" {
		src, err = io.ReadAll(cmd.InOrStdin())
	} else {
		src, err = os.ReadFile(args[0])
	}
	if err != nil {
		return err
	}
	p, err := dsl.Parse(string(src), linq.Default(linq.WithIdentity()))
	if err != nil {
		return err
	}
	p = simplify.Fixpoint(p, simplify.Default(linq.Min(), linq.Max()))
	_, err = fmt.Fprint(cmd.OutOrStdout(), p.String())
	return err
}
