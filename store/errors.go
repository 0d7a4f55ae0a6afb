package store

import (
	"errors"
	"fmt"
)

// Pipeline error taxonomy. Failures are local to one unit of work; the
// HTTP layer maps these onto status codes.
var (
	// ErrNotFound means a required input artifact is absent.
	ErrNotFound = errors.New("artifact not found")

	// ErrConflict means the stage's output artifact already exists;
	// the stage refuses to re-run rather than overwrite.
	ErrConflict = errors.New("output artifact already exists")

	// ErrUnsupportedType means the filename does not carry a
	// recognized extension for the stage.
	ErrUnsupportedType = errors.New("unsupported file type")
)

// ValidationError names a required parameter, column, or key that is
// missing or empty.
type ValidationError struct {
	Name string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Name)
}
