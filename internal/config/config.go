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

// Package config holds internal API relating to deepcoder configuration
// and on-disk state.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rogpeppe/go-internal/lockedfile"
)

func CacheDir(getenv func(string) string) (string, error) {
	if dir := getenv("DEEPCODER_CACHE_DIR"); dir != "" {
		return dir, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine system cache directory: %v", err)
	}
	return filepath.Join(dir, "deepcoder"), nil
}

// CompileCacheDir returns the directory of the persistent cache of
// programs known not to compile.
func CompileCacheDir(getenv func(string) string) (string, error) {
	dir, err := CacheDir(getenv)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "compile"), nil
}

// WriteFile replaces the contents of path with data. Concurrent writers
// are serialized through a lock file next to path, and readers never see
// a partially written file.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
		return err
	}

	unlock, err := lockedfile.MutexAt(path + ".lock").Lock()
	if err != nil {
		return err
	}
	defer unlock()

	// Write to a temp file and then rename, so that parallel readers,
	// which do not take the lock, see either the old or the new file.
	if err := os.WriteFile(path+".tmp", data, perm); err != nil {
		return err
	}
	// TODO: on non-POSIX platforms os.Rename might not be atomic.
	if err := os.Rename(path+".tmp", path); err != nil {
		return err
	}
	return nil
}
