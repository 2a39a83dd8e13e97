package store

import "errors"

var (
	// ErrNotFound is returned when no document matches a filter.
	ErrNotFound = errors.New("store: document not found")

	// ErrDuplicate is returned when an insert violates a unique index.
	ErrDuplicate = errors.New("store: duplicate document")

	// ErrInvalidCollection is returned for collection names that are not plain identifiers.
	ErrInvalidCollection = errors.New("store: invalid collection name")
)
