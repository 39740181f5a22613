package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog lookups and fixture loading.
var (
	ErrNotFound       = errors.New("skill not found")
	ErrInvalidFixture = errors.New("invalid catalog fixture")
)

// NotFoundError names the id that was requested.  It matches ErrNotFound
// through errors.Is.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("skill %q not found", e.ID) }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
