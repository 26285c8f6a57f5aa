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

package search

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// A Runner runs the search binary in dir and returns its standard
// output. It must stop the binary and return once ctx is done.
type Runner interface {
	Run(ctx context.Context, dir string, args []string) ([]byte, error)
}

// RunnerFunc adapts a function to a Runner.
type RunnerFunc func(ctx context.Context, dir string, args []string) ([]byte, error)

func (f RunnerFunc) Run(ctx context.Context, dir string, args []string) ([]byte, error) {
	return f(ctx, dir, args)
}

// An ExitError is returned by a Runner when the binary ran but did not
// exit successfully. *exec.ExitError implements it.
type ExitError interface {
	error
	ExitCode() int
}

// ExecRunner runs the search binary at Path as a subprocess.
type ExecRunner struct {
	Path string
}

// waitDelay bounds how long Run waits for output pipes to close once the
// process was killed.
const waitDelay = time.Second

func (r ExecRunner) Run(ctx context.Context, dir string, args []string) ([]byte, error) {
	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Path, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.WaitDelay = waitDelay
	err := cmd.Run()
	return stdout.Bytes(), err
}
