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

package builder

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// A Cache remembers sources that failed to compile. Compile failures
// depend on the value range and maximum list length, which callers pass
// along with each source.
type Cache interface {
	IsInvalid(src string, valueRange, maxListLength int) (bool, error)
	AddInvalid(src string, valueRange, maxListLength int) error
}

func cacheKey(src string, valueRange, maxListLength int) []byte {
	key := make([]byte, 0, len(src)+16)
	key = strconv.AppendInt(key, int64(valueRange), 10)
	key = append(key, ':')
	key = strconv.AppendInt(key, int64(maxListLength), 10)
	key = append(key, ':')
	return append(key, src...)
}

// NewMemoryCache returns a Cache that lives as long as the process.
func NewMemoryCache() Cache {
	return &memoryCache{invalid: map[string]bool{}}
}

type memoryCache struct {
	mu      sync.Mutex
	invalid map[string]bool
}

func (c *memoryCache) IsInvalid(src string, valueRange, maxListLength int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalid[string(cacheKey(src, valueRange, maxListLength))], nil
}

func (c *memoryCache) AddInvalid(src string, valueRange, maxListLength int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalid[string(cacheKey(src, valueRange, maxListLength))] = true
	return nil
}

// A DiskCache is a Cache persisted in a Badger database, shared by
// successive runs.
type DiskCache struct {
	db *badger.DB
}

// OpenCache opens or creates the cache stored in dir. An empty dir opens
// an in-memory database. A nil logger disables Badger's own logging.
func OpenCache(dir string, logger *slog.Logger) (*DiskCache, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithNumVersionsToKeep(1)
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open compile cache: %w", err)
	}
	return &DiskCache{db: db}, nil
}

func (c *DiskCache) IsInvalid(src string, valueRange, maxListLength int) (bool, error) {
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(cacheKey(src, valueRange, maxListLength))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *DiskCache) AddInvalid(src string, valueRange, maxListLength int) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cacheKey(src, valueRange, maxListLength), nil)
	})
}

// Len returns the number of cached sources.
func (c *DiskCache) Len() (int, error) {
	n := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Close closes the underlying database.
func (c *DiskCache) Close() error {
	return c.db.Close()
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
