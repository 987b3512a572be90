// Package endian converts the 64-bit unsigned integers persisted by the index
// between host order and the big-endian order used on disk.
package endian

import "encoding/binary"

// PutUint64 writes v to buf[0:8] in big-endian order.
func PutUint64(buf []byte, v uint64) {
	binary.BigEndian.PutUint64(buf, v)
}

// Uint64 reads a big-endian uint64 from buf[0:8].
func Uint64(buf []byte) uint64 {
	return binary.BigEndian.Uint64(buf)
}

// PutUint64Slice writes each element of vs into buf, 8 bytes apart, starting
// at offset 0.
func PutUint64Slice(buf []byte, vs []uint64) {
	for i, v := range vs {
		PutUint64(buf[i*8:], v)
	}
}

// Uint64Slice reads len(dst) consecutive big-endian uint64 values from buf
// into dst.
func Uint64Slice(buf []byte, dst []uint64) {
	for i := range dst {
		dst[i] = Uint64(buf[i*8:])
	}
}
