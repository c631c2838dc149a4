// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pagecache stores rendered wiki pages keyed by title and revision
// id in a BadgerDB directory. A revision never changes once published, so
// cached bodies are valid forever and repeated builds at the same cutoff
// fetch nothing twice.
package pagecache

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

const keyPrefix = "page:"

// Cache is a revision-pinned page store.
type Cache struct {
	db *badger.DB
}

// badgerLogger routes badger's logging through slog.
type badgerLogger struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (l *badgerLogger) Errorf(msg string, args ...any) {
	l.logger.Error(fmt.Sprintf(msg, args...))
}

func (l *badgerLogger) Warningf(msg string, args ...any) {
	l.logger.Warn(fmt.Sprintf(msg, args...))
}

// Infof is demoted to debug; badger is chatty at info level.
func (l *badgerLogger) Infof(msg string, args ...any) {
	l.logger.Debug(fmt.Sprintf(msg, args...))
}

func (l *badgerLogger) Debugf(msg string, args ...any) {
	l.logger.Debug(fmt.Sprintf(msg, args...))
}

// Open opens (creating if needed) the cache directory dir. With inMemory
// set, dir is ignored and nothing touches disk.
func Open(dir string, inMemory bool) (*Cache, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir)
	}

	opts.Logger = &badgerLogger{logger: slog.Default().With("component", "pagecache")}
	opts.Compression = options.Snappy

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening page cache %s: %w", dir, err)
	}
	return &Cache{db: db}, nil
}

func key(title string, revID int64) []byte {
	return fmt.Appendf(nil, "%s%d:%s", keyPrefix, revID, title)
}

// Get returns the cached body for title at revID.
func (c *Cache) Get(title string, revID int64) ([]byte, bool, error) {
	var body []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(title, revID))
		if err != nil {
			return err
		}
		body, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s@%d: %w", title, revID, err)
	}
	return body, true, nil
}

// Put stores body for title at revID.
func (c *Cache) Put(title string, revID int64, body []byte) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(title, revID), body)
	})
	if err != nil {
		return fmt.Errorf("writing %s@%d: %w", title, revID, err)
	}
	return nil
}

// Len returns the number of cached pages.
func (c *Cache) Len() (int, error) {
	n := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Close flushes and closes the cache.
func (c *Cache) Close() error {
	return c.db.Close()
}
