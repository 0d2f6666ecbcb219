package modeldb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rzbill/modeldb/internal/record"
	"github.com/rzbill/modeldb/pkg/kv"
	logpkg "github.com/rzbill/modeldb/pkg/log"
	"github.com/rzbill/modeldb/pkg/model"
)

type txState int

const (
	txOpen txState = iota
	txCommitting
	txCommitted
	txAborted
)

func (s txState) String() string {
	switch s {
	case txOpen:
		return "open"
	case txCommitting:
		return "committing"
	case txCommitted:
		return "committed"
	case txAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Transaction stages puts and deletes and commits them as one atomic write.
//
// Will notifications run when an operation is staged; did notifications run
// in Write, after the commit, for every staged operation in staging order.
// A will failure aborts the whole transaction: nothing staged before it is
// committed and every later call returns ErrTxAborted.
//
// A Transaction holds the DB's writer lock until Close, which must be called
// on every path:
//
//	tx, err := db.NewTransaction()
//	if err != nil {
//		return err
//	}
//	defer tx.Close()
//
// A Transaction is not safe for concurrent use.
type Transaction struct {
	id     uuid.UUID
	db     *DB
	ops    []operation
	state  txState
	closed bool
}

// NewTransaction starts a transaction, waiting for any other one to close.
func (db *DB) NewTransaction() (*Transaction, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}
	db.writeMu.Lock()
	if db.closed.Load() {
		db.writeMu.Unlock()
		return nil, ErrClosed
	}
	return &Transaction{id: uuid.New(), db: db}, nil
}

// ID identifies the transaction in logs.
func (tx *Transaction) ID() uuid.UUID { return tx.id }

// Len returns the number of staged operations.
func (tx *Transaction) Len() int { return len(tx.ops) }

func (tx *Transaction) usable() error {
	switch {
	case tx.closed:
		return ErrTxClosed
	case tx.state == txAborted:
		return ErrTxAborted
	case tx.state == txCommitted:
		return ErrTxCommitted
	}
	return nil
}

func (tx *Transaction) abort() {
	tx.state = txAborted
	tx.ops = nil
}

// Put runs the will-phase for m and stages it. It returns the key m will be
// stored under. A listener error is returned as is.
func (tx *Transaction) Put(m any) (model.Key, error) {
	if err := tx.usable(); err != nil {
		return model.Key{}, err
	}
	op, err := tx.db.preparePut(m)
	if err != nil {
		tx.abort()
		return model.Key{}, err
	}
	if err := tx.db.willPut(op); err != nil {
		tx.abort()
		return model.Key{}, err
	}
	payload, err := tx.db.codec.Marshal(m)
	if err != nil {
		tx.abort()
		return model.Key{}, fmt.Errorf("modeldb: encode %s: %w", op.key, err)
	}
	op.payload = payload
	tx.ops = append(tx.ops, op)
	return op.key, nil
}

// Delete runs the will-phase for key and stages its removal. Deleting an
// absent key is not an error.
func (tx *Transaction) Delete(key model.Key) error {
	if err := tx.usable(); err != nil {
		return err
	}
	if !tx.db.registry.Known(key.Type) {
		tx.abort()
		return fmt.Errorf("%w: %q", model.ErrUnknownType, key.Type)
	}
	key = tx.db.heap.Resolve(key.Type, key.ID)
	op := operation{
		kind:     opDelete,
		key:      key,
		typeName: key.Type,
		getModel: tx.db.modelSupplier(key, tx.staged(key)),
	}
	if err := tx.db.willDelete(op); err != nil {
		tx.abort()
		return err
	}
	tx.ops = append(tx.ops, op)
	return nil
}

// staged returns the last operation staged for key, if any.
func (tx *Transaction) staged(key model.Key) *operation {
	for i := len(tx.ops) - 1; i >= 0; i-- {
		if tx.ops[i].key == key {
			op := tx.ops[i]
			return &op
		}
	}
	return nil
}

// Write commits every staged operation atomically, then runs the did-phase.
// A store failure aborts the transaction and skips the did-phase. Did-phase
// failures are returned as a *DidError after the data is committed.
func (tx *Transaction) Write(ctx context.Context) error {
	if err := tx.usable(); err != nil {
		return err
	}
	tx.state = txCommitting
	logger := tx.db.logger.With(logpkg.Str("tx", tx.id.String()))

	muts, err := tx.plan()
	if err != nil {
		tx.abort()
		logger.Error("transaction plan failed", logpkg.Err(err))
		return err
	}
	if len(muts) > 0 {
		if err := tx.db.store.Write(ctx, muts); err != nil {
			tx.abort()
			logger.Error("transaction commit failed", logpkg.Int("ops", len(muts)), logpkg.Err(err))
			return &StoreError{Op: "write", Err: err}
		}
	}
	tx.state = txCommitted
	logger.Debug("transaction committed", logpkg.Int("ops", len(tx.ops)), logpkg.Int("mutations", len(muts)))

	if err := tx.db.dispatchDid(tx.ops); err != nil {
		logger.Warn("did listeners failed", logpkg.Err(err), logpkg.Int("shadowed", len(Shadowed(err))))
		return err
	}
	return nil
}

// Close releases the writer lock. Staged operations that were not written
// are discarded without touching the store.
func (tx *Transaction) Close() error {
	if tx.closed {
		return nil
	}
	tx.closed = true
	if tx.state == txOpen {
		if len(tx.ops) > 0 {
			tx.db.logger.Debug("transaction discarded",
				logpkg.Str("tx", tx.id.String()), logpkg.Int("ops", len(tx.ops)))
		}
		tx.abort()
	}
	tx.db.writeMu.Unlock()
	return nil
}

// plan turns the staged operations into store mutations. Index entries left
// by the previous version of each model are removed before the new ones are
// written; earlier operations of the same transaction count as the previous
// version.
func (tx *Transaction) plan() ([]kv.Mutation, error) {
	current := make(map[string][]model.Index)
	var muts []kv.Mutation
	for _, op := range tx.ops {
		objKey := keyObject(op.key)
		old, ok := current[string(objKey)]
		if !ok {
			var err error
			if old, err = tx.db.storedIndexes(op.key); err != nil {
				return nil, err
			}
		}
		for _, idx := range old {
			muts = append(muts, kv.Del(keyIndex(op.key, idx)))
		}
		switch op.kind {
		case opPut:
			for _, idx := range op.md.Indexes {
				muts = append(muts, kv.Set(keyIndex(op.key, idx), nil))
			}
			muts = append(muts, kv.Set(objKey, record.Encode(op.md.Indexes, op.payload)))
			current[string(objKey)] = op.md.Indexes
		case opDelete:
			muts = append(muts, kv.Del(objKey))
			current[string(objKey)] = nil
		}
	}
	return muts, nil
}

// storedIndexes returns the index entries recorded for key. A corrupt record
// has its index entries left behind and is overwritten.
func (db *DB) storedIndexes(key model.Key) ([]model.Index, error) {
	rec, _, err := db.readRecord(key)
	if errors.Is(err, record.ErrCorrupt) {
		db.logger.Warn("overwriting corrupt record", logpkg.Str("key", key.String()), logpkg.Err(err))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.Indexes, nil
}
