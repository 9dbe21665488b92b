package storage

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when input validation fails before any
// write is attempted.
var ErrInvalidInput = errors.New("invalid input")

// PersistenceError reports a storage failure: connectivity loss or a
// constraint violation. Op names the failing operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
