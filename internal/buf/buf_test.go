package buf

import "testing"

func TestAppendReturnsOffset(t *testing.T) {
	b := New()
	o1 := b.Append([]byte("abc"))
	o2 := b.Append([]byte("de"))
	if o1 != 0 || o2 != 3 {
		t.Fatalf("offsets = %d, %d; want 0, 3", o1, o2)
	}
	if string(b.Bytes()) != "abcde" {
		t.Fatalf("Bytes() = %q", b.Bytes())
	}
}

func TestAlignPadsToWordBoundary(t *testing.T) {
	b := New()
	b.Append([]byte("abc"))
	n := b.Align()
	if n%4 != 0 {
		t.Fatalf("Align() left Len() = %d, not word-aligned", n)
	}
	if b.Len() != n {
		t.Fatalf("Len() = %d, want %d", b.Len(), n)
	}
}

func TestAlignIdempotentOnAlignedBuf(t *testing.T) {
	b := New()
	b.Append([]byte("abcd"))
	n1 := b.Align()
	n2 := b.Align()
	if n1 != n2 || n1 != 4 {
		t.Fatalf("Align() on aligned buf changed length: %d -> %d", n1, n2)
	}
}

func TestReserveThenPatch(t *testing.T) {
	b := New()
	b.Append([]byte("xy"))
	off := b.Reserve(8)
	if off != 4 {
		t.Fatalf("Reserve() offset = %d, want 4 (aligned after 2-byte prefix)", off)
	}
	b.PutUint32(off, 0xdeadbeef)
	b.PutUint32(off+4, 42)
	if got := binaryLE(b.Bytes()[off : off+4]); got != 0xdeadbeef {
		t.Fatalf("PutUint32 first word = %#x", got)
	}
	if got := binaryLE(b.Bytes()[off+4 : off+8]); got != 42 {
		t.Fatalf("PutUint32 second word = %d, want 42", got)
	}
}

func binaryLE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func TestPutBytesOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("PutBytes out of range did not panic")
		}
	}()
	b := New()
	b.Append([]byte("ab"))
	b.PutBytes(10, []byte("x"))
}
