package manifest

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a module or pipeline identifier with no manifest
// behind it.
var ErrNotFound = errors.New("manifest not found")

// Error reports a malformed or unknown manifest. Loading fails fast: no
// partially-validated manifest is ever returned alongside an Error.
type Error struct {
	// Manifest is the module or pipeline identifier (or file path when
	// the identifier is not yet known).
	Manifest string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("manifest %q: %v", e.Manifest, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// newError wraps err for the named manifest, avoiding double wrapping.
func newError(id string, err error) error {
	var me *Error
	if errors.As(err, &me) {
		return err
	}
	return &Error{Manifest: id, Err: err}
}
