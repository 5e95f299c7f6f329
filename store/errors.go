package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a comment id does not exist in the store.
var ErrNotFound = errors.New("comment not found")

// ValidationError reports a missing or unusable request field. The request
// that produced it has not mutated the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// StorageError wraps a failure to read or persist the backing file. The
// previously committed contents remain intact on disk and in memory.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
