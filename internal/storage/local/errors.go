package local

import "errors"

var (
	// ErrNotFound is returned when a document is not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidID is returned for IDs that would escape their collection
	ErrInvalidID = errors.New("invalid document id")
)
