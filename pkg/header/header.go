// Package header encodes and decodes the index file header stored in block 0:
// an 8-byte magic signature, the root block id, and the next block id to
// allocate.
package header

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/ceth-dev/btreeidx/pkg/block"
	"github.com/ceth-dev/btreeidx/pkg/btreeerr"
	"github.com/ceth-dev/btreeidx/pkg/endian"
)

// Magic identifies a valid index file.
var Magic = [8]byte{'4', '3', '3', '7', 'P', 'R', 'J', '3'}

// Header is the persistent state stored in block 0.
type Header struct {
	Magic [8]byte
	Root  uint64 // 0 denotes an empty tree
	Next  uint64 // next block id to allocate, starts at 1
}

// New returns a freshly initialized header for an empty tree.
func New() Header {
	return Header{Magic: Magic, Root: 0, Next: 1}
}

// Encode serializes h into a Size-byte block, zero-padded after the three
// fields.
func (h Header) Encode() []byte {
	buf := make([]byte, block.Size)
	copy(buf[0:8], h.Magic[:])
	endian.PutUint64(buf[8:16], h.Root)
	endian.PutUint64(buf[16:24], h.Next)
	return buf
}

// Decode parses a Header out of a Size-byte block, failing with
// btreeerr.ErrBadMagic if the signature does not match.
func Decode(buf []byte) (Header, error) {
	if len(buf) != block.Size {
		return Header{}, errors.Wrapf(btreeerr.ErrIO, "header block has %d bytes, want %d", len(buf), block.Size)
	}

	var h Header
	copy(h.Magic[:], buf[0:8])
	if !bytes.Equal(h.Magic[:], Magic[:]) {
		return Header{}, errors.Wrapf(btreeerr.ErrBadMagic, "got %q", h.Magic)
	}

	h.Root = endian.Uint64(buf[8:16])
	h.Next = endian.Uint64(buf[16:24])
	return h, nil
}
