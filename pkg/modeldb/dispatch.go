package modeldb

import (
	"sync"

	"github.com/rzbill/modeldb/pkg/model"
)

type opKind int

const (
	opPut opKind = iota
	opDelete
)

// operation is one staged put or delete.
type operation struct {
	kind     opKind
	key      model.Key
	typeName string

	// put
	instance any
	md       model.Metadata
	payload  []byte

	// delete
	getModel func() (any, error)
}

// preparePut derives the metadata and heap key of m. Metadata is computed
// once here and reused by every later step of the operation.
func (db *DB) preparePut(m any) (operation, error) {
	typeName, md, err := db.registry.Describe(m)
	if err != nil {
		return operation{}, err
	}
	if err := validateIndexes(md.Indexes); err != nil {
		return operation{}, err
	}
	return operation{
		kind:     opPut,
		key:      db.heap.Resolve(typeName, md.ID),
		typeName: typeName,
		instance: m,
		md:       md,
	}, nil
}

// willPut delivers WillPut in registration order and stops at the first error.
func (db *DB) willPut(op operation) error {
	for _, sub := range db.subs.Snapshot() {
		if err := sub.Listener().WillPut(op.instance, op.typeName, op.md); err != nil {
			return err
		}
	}
	return nil
}

// willDelete delivers WillDelete in registration order and stops at the
// first error.
func (db *DB) willDelete(op operation) error {
	for _, sub := range db.subs.Snapshot() {
		if err := sub.Listener().WillDelete(op.key, op.typeName, op.getModel); err != nil {
			return err
		}
	}
	return nil
}

// dispatchDid delivers the did notifications of committed operations. Every
// listener is called for every operation; each operation iterates the
// subscriptions current when its delivery starts.
func (db *DB) dispatchDid(ops []operation) error {
	var c didCollector
	for _, op := range ops {
		for _, sub := range db.subs.Snapshot() {
			l := sub.Listener()
			switch op.kind {
			case opPut:
				c.add(l.DidPut(op.instance, op.typeName, op.md))
			case opDelete:
				c.add(l.DidDelete(op.key, op.typeName))
			}
		}
	}
	return c.result()
}

// modelSupplier returns a memoized loader for the model about to be deleted.
// The first call reads it, from staged when an earlier operation of the same
// transaction touched key and from the store otherwise; every call returns
// that same instance.
func (db *DB) modelSupplier(key model.Key, staged *operation) func() (any, error) {
	var (
		once sync.Once
		m    any
		err  error
	)
	return func() (any, error) {
		once.Do(func() {
			switch {
			case staged == nil:
				m, err = db.Get(key)
			case staged.kind == opPut:
				m, err = db.decode(key, staged.payload)
			}
		})
		return m, err
	}
}
