package plumbing

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the object database, tree walker and revision
// walker. StopWalk is deliberately not in this list: it is a
// control-flow signal raised by filters, never an error returned to a
// caller (see treewalk.StopWalk and revwalk.StopWalk).
var (
	// ErrObjectNotFound is returned when an object id is not present in
	// the object database.
	ErrObjectNotFound = errors.New("plumbing: object not found")

	// ErrInvalidType is returned when an invalid object type is
	// provided.
	ErrInvalidType = errors.New("plumbing: invalid object type")

	// ErrIncorrectObjectType is returned when an id resolves to an
	// object of a different type than the one the caller required (for
	// example, a tree operation given a blob id).
	ErrIncorrectObjectType = errors.New("plumbing: incorrect object type")

	// ErrIllegalState is returned on API misuse: duplicate stages in a
	// directory-cache builder, combining an incompatible tree filter
	// with the merge-base revision filter, and similar caller errors.
	ErrIllegalState = errors.New("plumbing: illegal state")
)

// CorruptObjectError wraps a parse failure for a specific object id, so
// callers can recover the offending id with errors.As while still
// seeing the underlying cause via errors.Unwrap/%w.
type CorruptObjectError struct {
	ID  Hash
	Err error
}

// NewCorruptObjectError wraps err, identifying the object that failed to
// parse. It returns nil if err is nil, mirroring the teacher's
// NewPermanentError convention.
func NewCorruptObjectError(id Hash, err error) *CorruptObjectError {
	if err == nil {
		return nil
	}
	return &CorruptObjectError{ID: id, Err: err}
}

func (e *CorruptObjectError) Error() string {
	return fmt.Sprintf("plumbing: corrupt object %s: %s", e.ID, e.Err)
}

func (e *CorruptObjectError) Unwrap() error {
	return e.Err
}

// IoError wraps a failure to open or read a pack's backing storage. It
// is distinct from CorruptObjectError: the bytes were never read at
// all, as opposed to being read and found malformed.
type IoError struct {
	Err error
}

// NewIoError wraps err as an IoError. It returns nil if err is nil.
func NewIoError(err error) *IoError {
	if err == nil {
		return nil
	}
	return &IoError{Err: err}
}

func (e *IoError) Error() string {
	return fmt.Sprintf("plumbing: io error: %s", e.Err)
}

func (e *IoError) Unwrap() error {
	return e.Err
}
