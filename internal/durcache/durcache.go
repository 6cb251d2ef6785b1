// SPDX-License-Identifier: EPL-2.0

// Package durcache memoizes recording durations in a badger store so that
// rebuilding a catalog does not decode every file again.
package durcache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/OneOfOne/xxhash"
	"github.com/dgraph-io/badger/v3"
	"github.com/sirupsen/logrus"
)

// Prober measures a recording's duration in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Cache is a persistent map from file identity to duration.
type Cache struct {
	db *badger.DB
}

// Open opens the cache in dir. An empty dir keeps the cache in memory.
func Open(dir string, logger logrus.FieldLogger) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	if logger != nil {
		opts = opts.WithLogger(badgerLogger{logger.WithField("component", "durcache")})
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open %q: %w", dir, err)
	}

	return &Cache{db: db}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

// Key identifies a file by path, size and modification time.
func Key(path string, size, modUnixNano int64) []byte {
	id := path + "\x00" + strconv.FormatInt(size, 10) + "\x00" + strconv.FormatInt(modUnixNano, 10)

	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, xxhash.Checksum64([]byte(id)))
	return key
}

// Get returns the cached duration for key.
func (c *Cache) Get(key []byte) (float64, bool, error) {
	var seconds float64
	found := false

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return nil
			}
			seconds = math.Float64frombits(binary.BigEndian.Uint64(val))
			found = true
			return nil
		})
	})
	if err != nil {
		return 0, false, fmt.Errorf("durcache get: %w", err)
	}

	return seconds, found, nil
}

func (c *Cache) Put(key []byte, seconds float64) error {
	val := make([]byte, 8)
	binary.BigEndian.PutUint64(val, math.Float64bits(seconds))

	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
	if err != nil {
		return fmt.Errorf("durcache put: %w", err)
	}

	return nil
}

// CachedProber answers from the cache and falls back to the wrapped prober,
// storing what it measured.
type CachedProber struct {
	cache *Cache
	inner Prober
}

func NewCachedProber(cache *Cache, inner Prober) *CachedProber {
	return &CachedProber{cache: cache, inner: inner}
}

func (p *CachedProber) Duration(ctx context.Context, path string) (float64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %q: %w", path, err)
	}

	key := Key(path, fi.Size(), fi.ModTime().UnixNano())
	if seconds, ok, err := p.cache.Get(key); err != nil {
		return 0, err
	} else if ok {
		return seconds, nil
	}

	seconds, err := p.inner.Duration(ctx, path)
	if err != nil {
		return 0, err
	}

	return seconds, p.cache.Put(key, seconds)
}

// badgerLogger demotes badger's chatty info messages to debug.
type badgerLogger struct {
	logrus.FieldLogger
}

func (l badgerLogger) Infof(f string, v ...any) { l.FieldLogger.Debugf(f, v...) }
