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

// Package cmd implements the deepcoder command.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/deepcoder-go/deepcoder/internal/debugflag"
	"github.com/deepcoder-go/deepcoder/internal/metrics"
	"github.com/deepcoder-go/deepcoder/internal/telemetry"
)

type runFunction func(cmd *Command, args []string) error

func mkRunE(c *Command, f runFunction) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c.Command = cmd
		return f(c, args)
	}
}

// newRootCmd creates the base command when called without any subcommands
func newRootCmd() *Command {
	cmd := &cobra.Command{
		Use:   "deepcoder",
		Short: "deepcoder builds program corpora and searches for programs.",
		Long: `deepcoder works with programs of a small language of integer and
list functions.

It enumerates programs and builds corpora of programs together with
input/output examples, which are used to train a model predicting the
functions a program uses. It then drives an external enumerative search,
guided by those predictions, to find programs matching given examples.

Run 'deepcoder help environment' for the environment variables in use.`,
		SilenceUsage: true,
	}

	c := &Command{Command: cmd, root: cmd}

	subCommands := []*cobra.Command{
		newGenerateCmd(c),
		newDivideCmd(c),
		newInspectCmd(c),
		newSimplifyCmd(c),
		newSearchCmd(c),
		newValidateCmd(c),
		newVersionCmd(c),
		newHelpTopics(c),
	}

	addGlobalFlags(cmd.PersistentFlags())
	cmd.PersistentPreRunE = mkRunE(c, setup)

	for _, sub := range subCommands {
		cmd.AddCommand(sub)
	}
	return c
}

// Main runs the deepcoder tool and returns the code for passing to os.Exit.
func Main() int {
	err := mainErr(context.Background(), os.Args[1:])
	if err != nil {
		if err != ErrPrintedError {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}

func mainErr(ctx context.Context, args []string) error {
	cmd := New(args)
	return cmd.Run(ctx)
}

type Command struct {
	// The currently active command.
	*cobra.Command

	root *cobra.Command

	logger   *slog.Logger
	metrics  *metrics.Metrics
	shutdown func(context.Context) error

	hasErr bool
}

type errWriter Command

func (w *errWriter) Write(b []byte) (int, error) {
	c := (*Command)(w)
	c.hasErr = true
	return c.Command.OutOrStderr().Write(b)
}

// Stderr returns a writer that should be used for error messages.
// Writing to it makes the command exit with a non-zero code.
func (c *Command) Stderr() io.Writer {
	return (*errWriter)(c)
}

// Logger returns the logger configured for this run.
func (c *Command) Logger() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

func (c *Command) SetOutput(w io.Writer) {
	c.root.SetOut(w)
	c.root.SetErr(w)
}

func (c *Command) SetInput(r io.Reader) {
	c.root.SetIn(r)
}

// ErrPrintedError indicates error messages have been printed to stderr.
var ErrPrintedError = errors.New("terminating because of errors")

func (c *Command) Run(ctx context.Context) error {
	err := c.root.ExecuteContext(ctx)
	if err := errors.Join(err, c.teardown(ctx)); err != nil {
		return err
	}
	if c.hasErr {
		return ErrPrintedError
	}
	return nil
}

// New returns the root command with the given arguments.
func New(args []string) *Command {
	cmd := newRootCmd()
	cmd.root.SetArgs(args)
	return cmd
}

// setup initializes logging, metrics and tracing for the command about
// to run.
func setup(cmd *Command, args []string) error {
	if err := debugflag.Init(); err != nil {
		return err
	}
	cmd.logger = debugflag.Flags.NewLogger(cmd.OutOrStderr(), flagVerbose.Bool(cmd))
	cmd.metrics = metrics.New()

	if path := flagTraceFile.String(cmd); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		shutdown, err := telemetry.Setup(f, version)
		if err != nil {
			f.Close()
			return err
		}
		cmd.shutdown = func(ctx context.Context) error {
			return errors.Join(shutdown(ctx), f.Close())
		}
	}
	return nil
}

// teardown flushes traces and writes metrics. It runs even if the
// command failed.
func (c *Command) teardown(ctx context.Context) error {
	var errs []error
	if c.shutdown != nil {
		errs = append(errs, c.shutdown(ctx))
	}
	path, _ := c.root.PersistentFlags().GetString(string(flagMetricsFile))
	if path != "" && c.metrics != nil {
		errs = append(errs, c.metrics.WriteFile(path))
	}
	return errors.Join(errs...)
}
