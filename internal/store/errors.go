package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrLocked means another process holds the run lock on this database.
	ErrLocked = errors.New("store is locked by another run")
	// ErrSessionDone is returned when a committed or closed session is reused.
	ErrSessionDone = errors.New("session already finished")
)

// StoreWriteError wraps any failed write. The run's transaction is rolled
// back when one is returned from a Session.
type StoreWriteError struct {
	Op  string
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

func writeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreWriteError{Op: op, Err: err}
}
