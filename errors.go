package bindle

import (
	"errors"
	"fmt"
)

// errNoRootDir flags a commit record whose root node lacks a children
// field, which makes it a file, not a directory.
var errNoRootDir = errors.New("commit root is not a directory node")

// ExistsError is returned by Create when the metadata directory is
// already present.
type ExistsError struct {
	Dir string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("already exists: %s", e.Dir)
}

// UnsupportedVersionError is returned by Open when the stored schema
// version predates MinVersion.  There is no migration path.
type UnsupportedVersionError struct {
	Dir     string
	Version int
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported store version %d in %s (minimum %d)", e.Version, e.Dir, MinVersion)
}

// NotDbError is returned by Open when the metadata directory has no
// readable config record.
type NotDbError struct {
	Dir string
}

func (e *NotDbError) Error() string {
	return fmt.Sprintf("not a bindle store: %s", e.Dir)
}

// NotFoundError is returned when an object hash, reference, or commit
// has no corresponding file.
type NotFoundError struct {
	Kind string // "object", "reference", "commit"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// MissingHashError is returned by WriteReference when the reference
// has no target hash.
type MissingHashError struct {
	Name string
}

func (e *MissingHashError) Error() string {
	return fmt.Sprintf("reference has no target hash: %s", e.Name)
}

// MalformedError wraps a parse failure on a stored record.
type MalformedError struct {
	Path string
	Err  error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed record %s: %v", e.Path, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}
