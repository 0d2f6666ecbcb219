// Package boltstore implements kv.Store on a single bbolt file. It trades
// Pebble's write throughput for a one-file layout and serialised writers.
package boltstore
