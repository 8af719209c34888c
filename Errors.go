package stree

import "github.com/pkg/errors"


//============================================= Stree Errors


// Error kinds surfaced by the library.
//	Callers match with errors.Is, which sees through the wrapped context added at each failure site.
var (
	// ErrInvalidInput: null or sentinel-bearing text or pattern, negative length, non-positive minLength, malformed header on load.
	ErrInvalidInput = errors.New("invalid input")
	// ErrOutOfRange: storage read or write past the current size, or a negative offset.
	ErrOutOfRange = errors.New("offset out of range")
	// ErrIo: underlying storage failure, mmap failure or disk error.
	ErrIo = errors.New("io failure")
	// ErrDisposed: operation on a disposed storage or tree.
	ErrDisposed = errors.New("disposed")
	// ErrStorageFull: the filesystem rejected growth of the backing file.
	ErrStorageFull = errors.New("storage full")
	// ErrCorrupt: header magic mismatch, unknown version, or internal inconsistency.
	ErrCorrupt = errors.New("corrupt storage")
)

// wrapOffsetErr
//	Attach the originating operation and offending offset to an error kind.
func wrapOffsetErr(kind error, op string, offset uint64) error {
	return errors.Wrapf(kind, "%s at offset %d", op, offset)
}
