package annotation

import "errors"

// Sentinel errors surfaced by store operations. They are recoverable and
// local to the failed call; the store is never left partially mutated.
var (
	// ErrNotFound indicates an operation referenced a shape ID absent from
	// the store.
	ErrNotFound = errors.New("shape not found")

	// ErrDuplicateID indicates an insert was rejected because the shape ID
	// already exists in the store.
	ErrDuplicateID = errors.New("duplicate shape id")
)
