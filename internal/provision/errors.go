package provision

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable marks a store that never reached the minimum health
	// level within the prober's attempt budget. Callers must treat it as
	// fatal; no partial provisioning is attempted against that store.
	ErrUnavailable = errors.New("store unavailable")

	// ErrDimensionMismatch marks a vector (or a recorded embedding_dims)
	// whose length differs from the configured index dimensionality. The
	// write is rejected up front, never truncated or padded.
	ErrDimensionMismatch = errors.New("embedding dimensionality mismatch")
)

// StructureError names the structure whose creation or drop the store
// rejected. Provisioning stops at the first one.
type StructureError struct {
	Store string
	Name  string
	Err   error
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("%s structure %q: %v", e.Store, e.Name, e.Err)
}

func (e *StructureError) Unwrap() error {
	return e.Err
}
