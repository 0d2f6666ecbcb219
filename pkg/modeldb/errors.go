package modeldb

import (
	"errors"
	"fmt"

	"github.com/rzbill/modeldb/pkg/kv"
)

var (
	// ErrStore matches every *StoreError.
	ErrStore = errors.New("modeldb: store failure")
	// ErrTxClosed is returned when a closed transaction is used.
	ErrTxClosed = errors.New("modeldb: transaction closed")
	// ErrTxAborted is returned by a transaction whose will-phase or commit failed.
	ErrTxAborted = errors.New("modeldb: transaction aborted")
	// ErrTxCommitted is returned when a written transaction is used again.
	ErrTxCommitted = errors.New("modeldb: transaction already committed")
	// ErrClosed is returned after DB.Close.
	ErrClosed = errors.New("modeldb: database closed")
	// ErrInvalidKey is returned for keys or index names that cannot be stored.
	ErrInvalidKey = errors.New("modeldb: invalid key")
)

// StoreError reports a failure of the underlying store. The transaction that
// hit it is aborted and no did notifications are sent.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("modeldb: store %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

// Is makes every StoreError match ErrStore, and ErrClosed when the store was
// closed underneath a read that raced DB.Close.
func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrStore:
		return true
	case ErrClosed:
		return errors.Is(e.Err, kv.ErrClosed)
	}
	return false
}

// DidError aggregates the failures of one did-phase. The data was already
// committed when it was raised.
//
// Primary is the first error raised; Shadowed holds every later one in raise
// order. errors.Is and errors.As see through to Primary.
type DidError struct {
	Primary  error
	Shadowed []error
}

func (e *DidError) Error() string { return e.Primary.Error() }

func (e *DidError) Unwrap() error { return e.Primary }

// Shadowed returns the errors shadowed by the primary failure of a did-phase,
// or nil if err is not a did-phase failure.
func Shadowed(err error) []error {
	var de *DidError
	if errors.As(err, &de) {
		return de.Shadowed
	}
	return nil
}

// didCollector accumulates did-phase errors.
type didCollector struct {
	err *DidError
}

func (c *didCollector) add(err error) {
	if err == nil {
		return
	}
	if c.err == nil {
		c.err = &DidError{Primary: err}
		return
	}
	c.err.Shadowed = append(c.err.Shadowed, err)
}

func (c *didCollector) result() error {
	if c.err == nil {
		return nil
	}
	return c.err
}
