package modeldb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	pebblestore "github.com/rzbill/modeldb/internal/storage/pebble"
	"github.com/rzbill/modeldb/internal/record"
	"github.com/rzbill/modeldb/pkg/kv"
	logpkg "github.com/rzbill/modeldb/pkg/log"
	"github.com/rzbill/modeldb/pkg/model"
	"github.com/rzbill/modeldb/pkg/react"
)

// Options configures a DB.
type Options struct {
	// Registry maps model types to names and metadata. Required.
	Registry *model.Registry
	// Codec encodes model payloads. Defaults to model.JSONCodec.
	Codec model.Codec
	// Logger receives engine logs. Defaults to a discarding logger.
	Logger logpkg.Logger
}

// DB is an object-mapped view over a kv.Store that notifies registered
// listeners before and after every mutation.
//
// Writes are serialised: a Transaction holds the DB's writer lock from
// NewTransaction until Close, and direct Put and Delete hold it for the
// duration of the call. Reads never take it, so listeners may call Get,
// GetHeapKey and FindByIndex from their callbacks. Listeners must not write
// to the same DB from a callback.
type DB struct {
	store    kv.Store
	registry *model.Registry
	codec    model.Codec
	heap     *model.HeapKeys
	subs     *react.Manager
	logger   logpkg.Logger

	writeMu sync.Mutex
	closed  atomic.Bool
}

// New builds a DB over store. The DB takes ownership of store and closes it
// in Close.
func New(store kv.Store, opts Options) (*DB, error) {
	if store == nil {
		return nil, errors.New("modeldb: store is required")
	}
	if opts.Registry == nil {
		return nil, errors.New("modeldb: Options.Registry is required")
	}
	if opts.Codec == nil {
		opts.Codec = model.JSONCodec{}
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	}
	logger := opts.Logger.WithComponent("modeldb")
	return &DB{
		store:    store,
		registry: opts.Registry,
		codec:    opts.Codec,
		heap:     model.NewHeapKeys(),
		subs:     react.NewManager(react.WithLogger(logger)),
		logger:   logger,
	}, nil
}

// Open opens a Pebble store with storeOpts and builds a DB over it.
func Open(storeOpts pebblestore.Options, opts Options) (*DB, error) {
	store, err := pebblestore.Open(storeOpts)
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}
	db, err := New(store, opts)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return db, nil
}

// Close waits for the running transaction, if any, and closes the store.
func (db *DB) Close() error {
	if db.closed.Swap(true) {
		return nil
	}
	db.writeMu.Lock()
	defer db.writeMu.Unlock()
	if err := db.store.Close(); err != nil {
		return &StoreError{Op: "close", Err: err}
	}
	return nil
}

// Registry returns the model registry.
func (db *DB) Registry() *model.Registry { return db.registry }

// Register subscribes l to mutations. Registering the same listener again
// returns its existing subscription.
func (db *DB) Register(l react.Listener) *react.Subscription { return db.subs.Register(l) }

// Unregister removes a subscription. It is equivalent to sub.Close.
func (db *DB) Unregister(sub *react.Subscription) { db.subs.Unregister(sub) }

// Put stores m in its own transaction.
func (db *DB) Put(ctx context.Context, m any) (model.Key, error) {
	tx, err := db.NewTransaction()
	if err != nil {
		return model.Key{}, err
	}
	defer tx.Close()
	key, err := tx.Put(m)
	if err != nil {
		return model.Key{}, err
	}
	return key, tx.Write(ctx)
}

// Delete removes the model stored under key in its own transaction.
func (db *DB) Delete(ctx context.Context, key model.Key) error {
	tx, err := db.NewTransaction()
	if err != nil {
		return err
	}
	defer tx.Close()
	if err := tx.Delete(key); err != nil {
		return err
	}
	return tx.Write(ctx)
}

// GetHeapKey returns the key m is, or would be, stored under. It does not
// touch the store, and returns the same Key for the DB's lifetime.
func (db *DB) GetHeapKey(m any) (model.Key, error) {
	typeName, md, err := db.registry.Describe(m)
	if err != nil {
		return model.Key{}, err
	}
	return db.heap.Resolve(typeName, md.ID), nil
}

// Key returns the heap key for a type name and primary key value.
func (db *DB) Key(typeName string, id model.Value) (model.Key, error) {
	if !db.registry.Known(typeName) {
		return model.Key{}, fmt.Errorf("%w: %q", model.ErrUnknownType, typeName)
	}
	return db.heap.Resolve(typeName, id), nil
}

// Get loads the model stored under key. It returns nil and no error when the
// key is absent.
func (db *DB) Get(key model.Key) (any, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}
	if !db.registry.Known(key.Type) {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownType, key.Type)
	}
	rec, found, err := db.readRecord(key)
	if err != nil || !found {
		return nil, err
	}
	return db.decode(key, rec.Payload)
}

// FindByIndex returns the keys of every stored model of typeName whose index
// named index has the given value, in primary key order.
func (db *DB) FindByIndex(typeName, index string, value model.Value) ([]model.Key, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}
	if !db.registry.Known(typeName) {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownType, typeName)
	}
	if err := validateIndexes([]model.Index{{Name: index}}); err != nil {
		return nil, err
	}
	prefix := keyIndexPrefix(typeName, index, value)
	return db.scanKeys(typeName, prefix)
}

// Keys returns the keys of every stored model of typeName in primary key
// order.
func (db *DB) Keys(typeName string) ([]model.Key, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}
	if !db.registry.Known(typeName) {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownType, typeName)
	}
	return db.scanKeys(typeName, keyTypePrefix(typeName, objectSeg))
}

func (db *DB) scanKeys(typeName string, prefix []byte) ([]model.Key, error) {
	var keys []model.Key
	err := db.store.Scan(prefix, func(k, _ []byte) bool {
		keys = append(keys, model.Key{Type: typeName, ID: model.Value(k[len(prefix):])})
		return true
	})
	if err != nil {
		return nil, &StoreError{Op: "scan", Err: err}
	}
	return keys, nil
}

// Ping checks that the store answers reads.
func (db *DB) Ping() error {
	if db.closed.Load() {
		return ErrClosed
	}
	err := db.store.Scan(modelPrefix, func(_, _ []byte) bool { return false })
	if err != nil {
		return &StoreError{Op: "scan", Err: err}
	}
	return nil
}

func (db *DB) readRecord(key model.Key) (record.Record, bool, error) {
	raw, err := db.store.Get(keyObject(key))
	if errors.Is(err, kv.ErrNotFound) {
		return record.Record{}, false, nil
	}
	if err != nil {
		return record.Record{}, false, &StoreError{Op: "get", Err: err}
	}
	rec, err := record.Decode(raw)
	if err != nil {
		return record.Record{}, false, fmt.Errorf("modeldb: %s: %w", key, err)
	}
	return rec, true, nil
}

func (db *DB) decode(key model.Key, payload []byte) (any, error) {
	m, err := db.registry.Decode(key.Type, payload, db.codec)
	if err != nil {
		return nil, fmt.Errorf("modeldb: decode %s: %w", key, err)
	}
	return m, nil
}
