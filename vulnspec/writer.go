package vulnspec

import "github.com/sebcat/yans/internal/buf"

// writer builds a bytecode image incrementally, grounded on
// lib/vulnspec/progn.c. Every node lands at a word-aligned offset that
// becomes its identity; strings are interned so the image emits each
// unique string once.
type writer struct {
	buf    *buf.Buf
	strtab map[string]cvalue
}

func newWriter() *writer {
	w := &writer{
		buf:    buf.New(),
		strtab: make(map[string]cvalue),
	}
	w.buf.Append(header[:])
	return w
}

func (w *writer) bytes() []byte {
	return w.buf.Bytes()
}

// intern returns the (length, offset) of s's NUL-terminated encoding,
// writing it to the image on first use and reusing the offset on every
// later call with the same content.
func (w *writer) intern(s string) cvalue {
	if cv, ok := w.strtab[s]; ok {
		return cv
	}
	raw := make([]byte, len(s)+1)
	copy(raw, s)
	off := w.buf.Append(raw)
	w.buf.Align()
	cv := cvalue{Length: uint32(len(raw)), Offset: uint32(off)}
	w.strtab[s] = cv
	return cv
}

func (w *writer) reserveCompar() uint32 {
	return uint32(w.buf.Reserve(comparNodeSize))
}

func (w *writer) reserveBoolean() uint32 {
	return uint32(w.buf.Reserve(booleanNodeSize))
}

func (w *writer) reserveCVE() uint32 {
	return uint32(w.buf.Reserve(cveNodeSize))
}

func (w *writer) putU32(offset uint32, v uint32) {
	w.buf.PutUint32(int(offset), v)
}

func (w *writer) writeCompar(offset uint32, kind NodeKind, vendprod cvalue, vtype VersionType, vagueFields [4]int32, nalphaVersion cvalue) {
	w.putU32(offset, uint32(kind))
	w.putU32(offset+4, vendprod.Length)
	w.putU32(offset+8, vendprod.Offset)
	w.putU32(offset+12, uint32(vtype))
	if vtype == VVague {
		for i, f := range vagueFields {
			w.putU32(offset+16+uint32(i)*4, uint32(f))
		}
	} else {
		w.putU32(offset+16, nalphaVersion.Length)
		w.putU32(offset+20, nalphaVersion.Offset)
	}
}

func (w *writer) writeBoolean(offset uint32, kind NodeKind, value uint32) {
	w.putU32(offset, uint32(kind))
	w.putU32(offset+4, 0) // next, patched by the caller once a sibling exists
	w.putU32(offset+8, value)
}

func (w *writer) setBooleanNext(offset, next uint32) {
	w.putU32(offset+4, next)
}

func (w *writer) writeCVE(offset uint32, cvss2, cvss3 uint32, id, description cvalue) {
	w.putU32(offset, uint32(NodeCVE))
	w.putU32(offset+4, 0) // next, patched once a following CVE node exists
	w.putU32(offset+8, cvss2)
	w.putU32(offset+12, cvss3)
	w.putU32(offset+16, id.Length)
	w.putU32(offset+20, id.Offset)
	w.putU32(offset+24, description.Length)
	w.putU32(offset+28, description.Offset)
	w.putU32(offset+32, 0) // vulnexpr, patched once the subtree is parsed
}

func (w *writer) setCVEVulnexpr(offset, vulnexpr uint32) {
	w.putU32(offset+32, vulnexpr)
}

func (w *writer) setCVENext(offset, next uint32) {
	w.putU32(offset+4, next)
}
