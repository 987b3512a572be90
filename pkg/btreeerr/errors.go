// Package btreeerr defines the sentinel error kinds shared by every layer of
// the index, matching the error taxonomy of the on-disk format: failed I/O,
// a bad file signature, operations against a closed handle, a key already
// present, a key that is absent, an unparsable bulk-load line, and node
// allocation failure.
package btreeerr

import "errors"

var (
	// ErrIO covers any failed seek, short read, short write, or file-open
	// failure.
	ErrIO = errors.New("btreeidx: io error")

	// ErrBadMagic is returned by Open when block 0's magic does not match
	// the expected 8-byte signature.
	ErrBadMagic = errors.New("btreeidx: bad magic")

	// ErrNotOpen is returned by any operation that requires an open index
	// handle when none is open.
	ErrNotOpen = errors.New("btreeidx: index not open")

	// ErrDuplicateKey is returned by Insert when the key is already present.
	ErrDuplicateKey = errors.New("btreeidx: duplicate key")

	// ErrNotFound is returned by Search when the key is absent.
	ErrNotFound = errors.New("btreeidx: key not found")

	// ErrParse is returned for an invalid key,value line during bulk load.
	// bulk.Load logs it and skips the line; it never reaches Load's caller.
	ErrParse = errors.New("btreeidx: parse error")

	// ErrAlloc is returned when a new node cannot be allocated.
	ErrAlloc = errors.New("btreeidx: allocation error")
)
