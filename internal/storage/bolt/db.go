package boltstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rzbill/modeldb/pkg/kv"
	"go.etcd.io/bbolt"
)

// FileName is the database file created inside a data directory.
const FileName = "modeldb.bolt"

var bucketName = []byte("modeldb")

// Options configures the bbolt store.
type Options struct {
	// Path is the database file. Parent directories are created.
	Path string
	// NoSync skips fsync after each commit.
	NoSync bool
	// Timeout bounds the wait for the file lock held by another process.
	// Zero waits forever.
	Timeout time.Duration
}

// DB is a kv.Store backed by a single bbolt bucket. Operations after Close
// return kv.ErrClosed.
type DB struct {
	mu    sync.RWMutex
	inner *bbolt.DB
}

var _ kv.Store = (*DB)(nil)

// Open creates or opens the database file.
func Open(opts Options) (*DB, error) {
	if opts.Path == "" {
		return nil, errors.New("bolt: Options.Path is required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, err
	}
	inner, err := bbolt.Open(opts.Path, 0o600, &bbolt.Options{Timeout: opts.Timeout, NoSync: opts.NoSync})
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", opts.Path, err)
	}
	err = inner.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		inner.Close()
		return nil, err
	}
	return &DB{inner: inner}, nil
}

// Close closes the database file.
func (db *DB) Close() error {
	if db == nil {
		return nil
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.inner == nil {
		return nil
	}
	err := db.inner.Close()
	db.inner = nil
	return err
}

// Get copies the value for key.
func (db *DB) Get(key []byte) ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.inner == nil {
		return nil, kv.ErrClosed
	}
	var out []byte
	err := db.inner.View(func(tx *bbolt.Tx) error {
		k, v := tx.Bucket(bucketName).Cursor().Seek(key)
		if k == nil || !bytes.Equal(k, key) {
			return kv.ErrNotFound
		}
		out = append([]byte{}, v...)
		return nil
	})
	return out, err
}

// Write applies muts in one read-write transaction.
func (db *DB) Write(ctx context.Context, muts []kv.Mutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(muts) == 0 {
		return nil
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.inner == nil {
		return kv.ErrClosed
	}
	return db.inner.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		for _, m := range muts {
			var err error
			if m.Delete {
				err = b.Delete(m.Key)
			} else {
				err = b.Put(m.Key, m.Value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Scan iterates keys with the given prefix in ascending order.
func (db *DB) Scan(prefix []byte, fn func(key, value []byte) bool) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.inner == nil {
		return kv.ErrClosed
	}
	return db.inner.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if !fn(k, v) {
				break
			}
		}
		return nil
	})
}
