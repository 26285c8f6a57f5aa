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

// Package debugflag holds the flags set through DEEPCODER_DEBUG.
package debugflag

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/deepcoder-go/deepcoder/internal/envflag"
)

// EnvVar is the variable the flags are read from.
const EnvVar = "DEEPCODER_DEBUG"

// Flags holds the DEEPCODER_DEBUG flags. It is initialized by Init.
//
// When adding, deleting, or modifying entries below,
// update cmd/deepcoder/cmd/help.go as well.
var Flags Config

type Config struct {
	// Log sets the minimum level of log records: debug, info, warn or
	// error.
	Log string `envflag:"default:info"`

	// LogJSON writes log records as JSON instead of text.
	LogJSON bool

	// CompileTimeout bounds compiling one program and generating its
	// examples.
	CompileTimeout time.Duration `envflag:"default:10s"`
}

// Init initializes Flags. It is not an init function so that commands
// such as help run with a malformed DEEPCODER_DEBUG, and so that the
// failure is an error rather than a panic.
func Init() error {
	return initOnce()
}

var initOnce = sync.OnceValue(func() error {
	if err := envflag.Init(&Flags, EnvVar); err != nil {
		return err
	}
	if _, err := parseLevel(Flags.Log); err != nil {
		return fmt.Errorf("cannot parse %s: %w", EnvVar, err)
	}
	return nil
})

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// Level returns the log level selected by Flags.
func (c Config) Level() slog.Level {
	l, err := parseLevel(c.Log)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewLogger returns a logger writing to w as selected by c. If verbose is
// set the level is lowered to debug.
func (c Config) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := c.Level()
	if verbose {
		level = min(level, slog.LevelDebug)
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
