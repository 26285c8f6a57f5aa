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

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-quicktest/qt"
)

func TestCacheDir(t *testing.T) {
	dir, err := CacheDir(func(key string) string {
		if key == "DEEPCODER_CACHE_DIR" {
			return "/tmp/dc"
		}
		return ""
	})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(dir, "/tmp/dc"))

	dir, err = CompileCacheDir(func(string) string { return "/x" })
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(dir, filepath.Join("/x", "compile")))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "corpus.json")
	qt.Assert(t, qt.IsNil(WriteFile(path, []byte("one"), 0o666)))
	data, err := os.ReadFile(path)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(string(data), "one"))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			qt.Check(t, qt.IsNil(WriteFile(path, []byte("two"), 0o666)))
		}()
	}
	wg.Wait()
	data, err = os.ReadFile(path)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(string(data), "two"))

	_, err = os.Stat(path + ".tmp")
	qt.Assert(t, qt.ErrorIs(err, os.ErrNotExist))
}
