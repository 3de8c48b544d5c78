// Package buf implements a growable, alignment-aware byte buffer,
// grounded on lib/util/buf.h. It backs the vulnspec bytecode writer,
// whose every node must land on a word-aligned offset within the image.
package buf

import (
	"bytes"
	"encoding/binary"
)

const wordSize = 4

// Buf is a growable byte buffer supporting word alignment, used anywhere
// the core appends bytes and later needs the append's starting offset.
type Buf struct {
	b bytes.Buffer
}

// New creates an empty Buf.
func New() *Buf {
	return &Buf{}
}

// Len returns the number of bytes written so far.
func (b *Buf) Len() int {
	return b.b.Len()
}

// Bytes returns the buffer's current contents. The slice is invalidated
// by subsequent writes.
func (b *Buf) Bytes() []byte {
	return b.b.Bytes()
}

// Append writes p and returns the offset p now starts at.
func (b *Buf) Append(p []byte) int {
	off := b.b.Len()
	b.b.Write(p)
	return off
}

// AppendByte writes a single byte and returns its offset.
func (b *Buf) AppendByte(c byte) int {
	off := b.b.Len()
	b.b.WriteByte(c)
	return off
}

// Align pads the buffer with zero bytes, if needed, so Len() becomes a
// multiple of the word size, and returns the (possibly unchanged) length.
func (b *Buf) Align() int {
	for b.b.Len()%wordSize != 0 {
		b.b.WriteByte(0)
	}
	return b.b.Len()
}

// Reserve aligns the buffer, appends n zero bytes, aligns the buffer
// again, and returns the word-aligned offset the reserved region starts
// at. The caller patches the region's content
// in place afterward with PutBytes/PutUint32, once every field it holds
// is known -- the vulnspec writer uses this to allocate a node before the
// values of fields that depend on recursively-parsed children are known.
func (b *Buf) Reserve(n int) int {
	off := b.Align()
	b.b.Write(make([]byte, n))
	b.Align()
	return off
}

// PutBytes overwrites the n bytes starting at off with data, where
// n == len(data). It panics if [off, off+len(data)) falls outside the
// buffer, which would indicate a writer bug, not bad input.
func (b *Buf) PutBytes(off int, data []byte) {
	dst := b.b.Bytes()
	if off < 0 || off+len(data) > len(dst) {
		panic("buf: PutBytes out of range")
	}
	copy(dst[off:off+len(data)], data)
}

// PutUint32 overwrites the 4 bytes starting at off with v, host-endian.
func (b *Buf) PutUint32(off int, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.PutBytes(off, tmp[:])
}
