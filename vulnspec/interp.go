package vulnspec

import (
	"errors"
	"io"

	sce "github.com/sebcat/yans/errors"
	"github.com/sebcat/yans/internal/nalphaver"
	"github.com/sebcat/yans/internal/vaguever"
)

// Match is the record passed to a match callback: a CVE node whose
// vuln-expr evaluated true against the interpreter's current inputs.
type Match struct {
	ID          string
	CVSS2Base   float32
	CVSS3Base   float32
	Description string
}

// OnMatch is invoked once per CVE node whose vuln-expr is true. A
// return value <= 0 aborts evaluation; Eval then returns an error that
// wraps ErrEval and carries the value, retrievable with AbortCode. A
// return value > 0 continues to the next CVE node.
type OnMatch func(Match) int

// Interp evaluates a loaded bytecode image against a vendor/product and
// version pair, grounded on lib/vulnspec/interp.c.
type Interp struct {
	img *Image
}

// Load validates data and returns an Interp ready to Eval it.
func Load(data []byte) (*Interp, error) {
	img, err := LoadImage(data)
	if err != nil {
		return nil, err
	}
	return &Interp{img: img}, nil
}

// CompileAndLoad compiles vulnspec source from r, validates the result, and
// returns an Interp -- the combination of Compile and Load callers most
// often want.
func CompileAndLoad(r io.Reader) (*Interp, error) {
	data, err := Compile(r)
	if err != nil {
		return nil, err
	}
	return Load(data)
}

// abortErr marks evaluation aborted by a callback's non-positive return.
type abortErr struct{ code int }

func (e *abortErr) Error() string { return sce.WithMessage(sce.ErrEval, "callback abort").Error() }
func (e *abortErr) Unwrap() error { return sce.ErrEval }

// AbortCode returns the callback return value that aborted Eval, if err
// wraps one.
func AbortCode(err error) (int, bool) {
	var ae *abortErr
	if errors.As(err, &ae) {
		return ae.code, true
	}
	return 0, false
}

// Eval evaluates every CVE node in the image against vendprod and
// version. If either is empty, Eval returns immediately without
// invoking onMatch at all -- "no data, no decision".
func (it *Interp) Eval(vendprod, version string, onMatch OnMatch) error {
	if vendprod == "" || version == "" {
		return nil
	}

	ctx := &evalCtx{
		img:      it.img,
		vendprod: vendprod,
		version:  version,
		vague:    vaguever.Parse(version),
		onMatch:  onMatch,
	}

	offset := uint32(HeaderSize)
	if len(it.img.data) <= HeaderSize {
		return nil
	}
	return ctx.evalCVEList(offset)
}

type evalCtx struct {
	img      *Image
	vendprod string
	version  string
	vague    vaguever.Version
	onMatch  OnMatch
}

func (c *evalCtx) evalCVEList(offset uint32) error {
	for offset != 0 {
		n, err := c.img.cveAt(offset)
		if err != nil {
			return err
		}

		matched, err := c.evalVulnexpr(n.vulnexpr)
		if err != nil {
			return err
		}
		if matched && c.onMatch != nil {
			id, err := c.img.str(n.id)
			if err != nil {
				return err
			}
			desc, err := c.img.str(n.description)
			if err != nil {
				return err
			}
			ret := c.onMatch(Match{
				ID:          id,
				CVSS2Base:   float32(n.cvss2Base) / 100.0,
				CVSS3Base:   float32(n.cvss3Base) / 100.0,
				Description: desc,
			})
			if ret <= 0 {
				return &abortErr{code: ret}
			}
		}

		offset = n.next
	}
	return nil
}

func (c *evalCtx) evalVulnexpr(offset uint32) (bool, error) {
	kind, err := c.img.kindAt(offset)
	if err != nil {
		return false, err
	}
	switch {
	case isComparKind(kind):
		return c.evalCompar(offset)
	case isBooleanKind(kind):
		return c.evalBoolean(offset)
	default:
		return false, malformed("vulnspec: invalid node kind %d during eval", kind)
	}
}

func (c *evalCtx) evalCompar(offset uint32) (bool, error) {
	n, err := c.img.comparAt(offset)
	if err != nil {
		return false, err
	}
	vendprod, err := c.img.str(n.vendprod)
	if err != nil {
		return false, err
	}
	if vendprod != c.vendprod {
		return false, nil
	}

	var cmp int
	switch n.vtype {
	case VVague:
		other := vaguever.Version{Fields: [4]int{
			int(n.vagueFields[0]), int(n.vagueFields[1]), int(n.vagueFields[2]), int(n.vagueFields[3]),
		}}
		cmp = vaguever.Compare(c.vague, other)
	case VNalpha:
		other, err := c.img.str(n.nalphaVersion)
		if err != nil {
			return false, err
		}
		cmp = nalphaver.Compare(c.version, other)
	default:
		return false, nil
	}

	switch n.kind {
	case NodeLT:
		return cmp < 0, nil
	case NodeLE:
		return cmp <= 0, nil
	case NodeEQ:
		return cmp == 0, nil
	case NodeGE:
		return cmp >= 0, nil
	case NodeGT:
		return cmp > 0, nil
	default:
		return false, nil
	}
}

func (c *evalCtx) evalBoolean(offset uint32) (bool, error) {
	var ret bool
	for offset != 0 {
		n, err := c.img.booleanAt(offset)
		if err != nil {
			return false, err
		}
		if !isBooleanKind(n.kind) {
			return false, malformed("vulnspec: invalid boolean node kind %d during eval", n.kind)
		}

		ret, err = c.evalVulnexpr(n.value)
		if err != nil {
			return false, err
		}
		if !ret && n.kind == NodeAND {
			break
		}
		if ret && n.kind == NodeOR {
			break
		}
		offset = n.next
	}
	return ret, nil
}
