// Package vulnspec implements the vulnerability-spec language: an
// S-expression source form compiled into a flat, position-independent
// bytecode image, and an interpreter that evaluates the image against a
// (vendor/product, version) pair. Grounded on lib/vulnspec/*.c and
// lib/vulnspec/vulnspec.h.
package vulnspec

import (
	"encoding/binary"
	"fmt"

	sce "github.com/sebcat/yans/errors"
)

// NodeKind tags every node in the bytecode image.
type NodeKind uint32

const (
	NodeInvalid NodeKind = iota
	NodeCVE
	NodeOR
	NodeAND
	nodeSeq // unused by the parser; kept so the kind space matches the original enum
	NodeLT
	NodeLE
	NodeEQ
	NodeGE
	NodeGT
	NodeNalpha
)

func (k NodeKind) String() string {
	switch k {
	case NodeCVE:
		return "cve"
	case NodeOR:
		return "or"
	case NodeAND:
		return "and"
	case NodeLT:
		return "lt"
	case NodeLE:
		return "le"
	case NodeEQ:
		return "eq"
	case NodeGE:
		return "ge"
	case NodeGT:
		return "gt"
	case NodeNalpha:
		return "nalpha"
	default:
		return "invalid"
	}
}

func isComparKind(k NodeKind) bool {
	switch k {
	case NodeLT, NodeLE, NodeEQ, NodeGE, NodeGT:
		return true
	default:
		return false
	}
}

func isBooleanKind(k NodeKind) bool {
	return k == NodeOR || k == NodeAND
}

// VersionType discriminates a compar node's version field.
type VersionType uint32

const (
	VVague VersionType = iota
	VNalpha
)

// header is VULNSPEC_HEADER: "VM0\0\0\0\0", 8 bytes including the
// string literal's implicit trailing NUL.
var header = [8]byte{0x56, 0x4d, 0x30, 0x00, 0x00, 0x00, 0x00, 0x00}

// HeaderSize is the byte offset the first CVE node begins at.
const HeaderSize = 8

// byte sizes of the fixed-layout nodes, in the host-endian 32-bit-word
// encoding described in the bytecode image format.
const (
	comparNodeSize  = 32
	booleanNodeSize = 12
	cveNodeSize     = 36
)

// cvalue is a length-prefixed string reference: a 32-bit length
// (including the trailing NUL) followed by a 32-bit offset.
type cvalue struct {
	Length uint32
	Offset uint32
}

var byteOrder = binary.LittleEndian

// Image is a validated, read-only bytecode image.
type Image struct {
	data []byte
}

func malformed(format string, args ...any) error {
	return sce.WithMessage(sce.ErrInputFormat, fmt.Sprintf(format, args...))
}

// LoadImage validates data and returns an Image borrowing it. data must
// not be mutated for the lifetime of the returned Image.
func LoadImage(data []byte) (*Image, error) {
	if len(data) < HeaderSize {
		return nil, malformed("vulnspec: image shorter than header")
	}
	for i := range header {
		if data[i] != header[i] {
			return nil, malformed("vulnspec: bad header")
		}
	}

	img := &Image{data: data}

	// An image with nothing past the header is valid and evaluates to
	// no CVE nodes at all.
	if len(data) <= HeaderSize {
		return img, nil
	}

	if err := img.validateVulnexprList(HeaderSize, true); err != nil {
		return nil, err
	}
	return img, nil
}

// check verifies [offset, offset+length) lies within the image and past
// the header -- offset 0 is reserved as the "absent" sentinel, so no
// real node ever starts below HeaderSize.
func (img *Image) check(offset, length uint32) error {
	if offset < HeaderSize {
		return malformed("vulnspec: offset %d below header", offset)
	}
	end := uint64(offset) + uint64(length)
	if end > uint64(len(img.data)) {
		return malformed("vulnspec: offset %d length %d past end of image", offset, length)
	}
	return nil
}

func (img *Image) u32(offset uint32) (uint32, error) {
	if err := img.check(offset, 4); err != nil {
		return 0, err
	}
	return byteOrder.Uint32(img.data[offset : offset+4]), nil
}

func (img *Image) kindAt(offset uint32) (NodeKind, error) {
	v, err := img.u32(offset)
	if err != nil {
		return NodeInvalid, err
	}
	return NodeKind(v), nil
}

func (img *Image) cvalueAt(offset uint32) (cvalue, error) {
	if err := img.check(offset, 8); err != nil {
		return cvalue{}, err
	}
	return cvalue{
		Length: byteOrder.Uint32(img.data[offset : offset+4]),
		Offset: byteOrder.Uint32(img.data[offset+4 : offset+8]),
	}, nil
}

// str dereferences cv and verifies it ends in a NUL within its declared
// length, returning the string without the NUL.
func (img *Image) str(cv cvalue) (string, error) {
	if err := img.check(cv.Offset, cv.Length); err != nil {
		return "", err
	}
	if cv.Length == 0 || img.data[cv.Offset+cv.Length-1] != 0 {
		return "", malformed("vulnspec: string reference not NUL-terminated")
	}
	return string(img.data[cv.Offset : cv.Offset+cv.Length-1]), nil
}

type comparNode struct {
	kind          NodeKind
	vendprod      cvalue
	vtype         VersionType
	vagueFields   [4]int32
	nalphaVersion cvalue
}

func (img *Image) comparAt(offset uint32) (comparNode, error) {
	var n comparNode
	if err := img.check(offset, comparNodeSize); err != nil {
		return n, err
	}
	kind, err := img.kindAt(offset)
	if err != nil {
		return n, err
	}
	n.kind = kind
	n.vendprod, err = img.cvalueAt(offset + 4)
	if err != nil {
		return n, err
	}
	vtype, err := img.u32(offset + 12)
	if err != nil {
		return n, err
	}
	n.vtype = VersionType(vtype)
	if n.vtype == VVague {
		for i := 0; i < 4; i++ {
			v, err := img.u32(offset + 16 + uint32(i)*4)
			if err != nil {
				return n, err
			}
			n.vagueFields[i] = int32(v)
		}
	} else {
		n.nalphaVersion, err = img.cvalueAt(offset + 16)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

type booleanNode struct {
	kind  NodeKind
	next  uint32
	value uint32
}

func (img *Image) booleanAt(offset uint32) (booleanNode, error) {
	var n booleanNode
	if err := img.check(offset, booleanNodeSize); err != nil {
		return n, err
	}
	kind, err := img.kindAt(offset)
	if err != nil {
		return n, err
	}
	n.kind = kind
	n.next, err = img.u32(offset + 4)
	if err != nil {
		return n, err
	}
	n.value, err = img.u32(offset + 8)
	return n, err
}

type cveNode struct {
	next                 uint32
	cvss2Base, cvss3Base uint32
	id, description      cvalue
	vulnexpr             uint32
}

func (img *Image) cveAt(offset uint32) (cveNode, error) {
	var n cveNode
	if err := img.check(offset, cveNodeSize); err != nil {
		return n, err
	}
	kind, err := img.kindAt(offset)
	if err != nil {
		return n, err
	}
	if kind != NodeCVE {
		return n, malformed("vulnspec: expected cve node at offset %d, got %s", offset, kind)
	}
	n.next, err = img.u32(offset + 4)
	if err != nil {
		return n, err
	}
	n.cvss2Base, err = img.u32(offset + 8)
	if err != nil {
		return n, err
	}
	n.cvss3Base, err = img.u32(offset + 12)
	if err != nil {
		return n, err
	}
	n.id, err = img.cvalueAt(offset + 16)
	if err != nil {
		return n, err
	}
	n.description, err = img.cvalueAt(offset + 24)
	if err != nil {
		return n, err
	}
	n.vulnexpr, err = img.u32(offset + 32)
	return n, err
}

// validateVulnexprList validates offset as the head of a singly-linked
// CVE list (isCVEList=true) or as a single vuln-expr subtree otherwise,
// recursively checking every offset, node shape, and string reference it
// reaches.
func (img *Image) validateVulnexprList(offset uint32, isCVEList bool) error {
	if !isCVEList {
		return img.validateVulnexpr(offset)
	}
	for offset != 0 {
		n, err := img.cveAt(offset)
		if err != nil {
			return err
		}
		if _, err := img.str(n.id); err != nil {
			return err
		}
		if _, err := img.str(n.description); err != nil {
			return err
		}
		if err := img.validateVulnexpr(n.vulnexpr); err != nil {
			return err
		}
		offset = n.next
	}
	return nil
}

func (img *Image) validateVulnexpr(offset uint32) error {
	kind, err := img.kindAt(offset)
	if err != nil {
		return err
	}
	switch {
	case isComparKind(kind):
		return img.validateCompar(offset)
	case isBooleanKind(kind):
		return img.validateBoolean(offset)
	default:
		return malformed("vulnspec: invalid node kind %d at offset %d", kind, offset)
	}
}

func (img *Image) validateCompar(offset uint32) error {
	n, err := img.comparAt(offset)
	if err != nil {
		return err
	}
	if _, err := img.str(n.vendprod); err != nil {
		return err
	}
	if n.vtype != VVague {
		if _, err := img.str(n.nalphaVersion); err != nil {
			return err
		}
	}
	return nil
}

func (img *Image) validateBoolean(offset uint32) error {
	for offset != 0 {
		n, err := img.booleanAt(offset)
		if err != nil {
			return err
		}
		if !isBooleanKind(n.kind) {
			return malformed("vulnspec: invalid boolean node kind %d at offset %d", n.kind, offset)
		}
		if err := img.validateVulnexpr(n.value); err != nil {
			return err
		}
		offset = n.next
	}
	return nil
}
