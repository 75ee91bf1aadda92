package storage

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("object not found")
	ErrInvalidKey   = errors.New("invalid storage key")
	ErrAccessDenied = errors.New("access denied")
	// ErrTooLarge is returned by ReadAttachment for objects over the size cap.
	ErrTooLarge = errors.New("object too large to attach")
)

// StorageError records which backend call failed for which key.
type StorageError struct {
	Op  string // "get" or "stat"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
