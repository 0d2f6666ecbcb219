// Package kv defines the ordered byte-level store consumed by modeldb.
//
// Implementations must apply Write atomically (all mutations or none) and
// make a successful Write visible to the next Get from the same process.
package kv

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("kv: key not found")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("kv: store closed")
)

// Mutation is one entry of an atomic write: a set, or a delete when Delete is true.
type Mutation struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Set returns a mutation storing value under key.
func Set(key, value []byte) Mutation { return Mutation{Key: key, Value: value} }

// Del returns a mutation removing key.
func Del(key []byte) Mutation { return Mutation{Key: key, Delete: true} }

// Store is an ordered key/value store.
type Store interface {
	// Get returns a copy of the value for key, or ErrNotFound.
	Get(key []byte) ([]byte, error)
	// Write applies muts in order as one atomic batch.
	Write(ctx context.Context, muts []Mutation) error
	// Scan calls fn for every key with the given prefix in ascending order
	// until fn returns false. Key and value are only valid during the call.
	Scan(prefix []byte, fn func(key, value []byte) bool) error
	Close() error
}
