package endian

import "testing"

func TestPutUint64RoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	PutUint64(buf, 0x0102030405060708)

	want := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x (big-endian)", i, buf[i], want[i])
		}
	}

	if got := Uint64(buf); got != 0x0102030405060708 {
		t.Fatalf("Uint64 = %#x, want %#x", got, 0x0102030405060708)
	}
}

func TestUint64SliceRoundTrip(t *testing.T) {
	in := []uint64{1, 2, 3, 18446744073709551615}
	buf := make([]byte, 8*len(in))
	PutUint64Slice(buf, in)

	out := make([]uint64, len(in))
	Uint64Slice(buf, out)

	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("index %d: got %d, want %d", i, out[i], in[i])
		}
	}
}
