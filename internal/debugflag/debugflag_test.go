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

package debugflag

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/go-quicktest/qt"
)

func TestInit(t *testing.T) {
	// This is just a smoke test to make sure it's all wired up OK.
	t.Setenv(EnvVar, "log=debug,logjson")
	err := Init()
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsTrue(Flags.LogJSON))
	qt.Assert(t, qt.Equals(Flags.Level(), slog.LevelDebug))
	qt.Assert(t, qt.Equals(Flags.CompileTimeout, 10*time.Second))
}

func TestLevel(t *testing.T) {
	qt.Assert(t, qt.Equals(Config{Log: "warn"}.Level(), slog.LevelWarn))
	qt.Assert(t, qt.Equals(Config{Log: "bogus"}.Level(), slog.LevelInfo))
	_, err := parseLevel("bogus")
	qt.Assert(t, qt.ErrorMatches(err, `invalid log level "bogus"`))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := Config{Log: "info"}.NewLogger(&buf, false)
	qt.Assert(t, qt.IsFalse(logger.Enabled(context.Background(), slog.LevelDebug)))
	logger.Info("hello", "n", 1)
	qt.Assert(t, qt.StringContains(buf.String(), "msg=hello n=1"))

	buf.Reset()
	logger = Config{Log: "error", LogJSON: true}.NewLogger(&buf, true)
	qt.Assert(t, qt.IsTrue(logger.Enabled(context.Background(), slog.LevelDebug)))
	logger.Debug("hello")
	qt.Assert(t, qt.StringContains(buf.String(), `"msg":"hello"`))
}
