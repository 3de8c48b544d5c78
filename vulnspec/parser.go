package vulnspec

import (
	"io"

	"github.com/sebcat/yans/internal/vaguever"
)

// Compile reads vulnspec source from r and returns the compiled
// bytecode image. It does not validate the result -- callers load the
// returned bytes through LoadImage (or Load, which does both) before
// evaluating it.
func Compile(r io.Reader) ([]byte, error) {
	p := &parser{lex: newLexer(r), w: newWriter(), vtype: VVague}
	var prev uint32
	for {
		tok, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		if tok.kind == tEOF {
			break
		}
		if tok.kind != tLParen {
			return nil, malformed("vulnspec: expected '(' at top level")
		}

		kind, err := p.expectSymbolKind()
		if err != nil {
			return nil, err
		}
		if kind != NodeCVE {
			return nil, malformed("vulnspec: expected cve form at top level")
		}

		curr, err := p.parseCVE()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tRParen); err != nil {
			return nil, err
		}

		if prev != 0 {
			p.w.setCVENext(prev, curr)
		}
		prev = curr
	}
	return p.w.bytes(), nil
}

type parser struct {
	lex   *lexer
	w     *writer
	vtype VersionType
}

func (p *parser) expect(k tokenKind) error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	if tok.kind != k {
		return malformed("vulnspec: unexpected token")
	}
	return nil
}

func (p *parser) expectSymbolKind() (NodeKind, error) {
	tok, err := p.lex.next()
	if err != nil {
		return NodeInvalid, err
	}
	if tok.kind != tSymbol {
		return NodeInvalid, malformed("vulnspec: expected symbol")
	}
	return symbolToNode(tok.str), nil
}

func symbolToNode(sym string) NodeKind {
	switch sym {
	case "v":
		return NodeOR
	case "^":
		return NodeAND
	case "<":
		return NodeLT
	case "<=":
		return NodeLE
	case "=":
		return NodeEQ
	case ">=":
		return NodeGE
	case ">":
		return NodeGT
	case "cve":
		return NodeCVE
	case "nalpha":
		return NodeNalpha
	default:
		return NodeInvalid
	}
}

// loads reads a string literal and interns it.
func (p *parser) loads() (cvalue, error) {
	tok, err := p.lex.next()
	if err != nil {
		return cvalue{}, err
	}
	if tok.kind != tString {
		return cvalue{}, malformed("vulnspec: expected string")
	}
	return p.w.intern(tok.str), nil
}

func (p *parser) parseCVE() (uint32, error) {
	off := p.w.reserveCVE()

	id, err := p.loads()
	if err != nil {
		return 0, err
	}

	cvss2tok, err := p.lex.next()
	if err != nil {
		return 0, err
	}
	if cvss2tok.kind != tDouble {
		return 0, malformed("vulnspec: expected cvss2 double")
	}

	cvss3tok, err := p.lex.next()
	if err != nil {
		return 0, err
	}
	if cvss3tok.kind != tDouble {
		return 0, malformed("vulnspec: expected cvss3 double")
	}

	description, err := p.loads()
	if err != nil {
		return 0, err
	}

	p.w.writeCVE(off, fixedPoint(cvss2tok.dval), fixedPoint(cvss3tok.dval), id, description)

	if err := p.expect(tLParen); err != nil {
		return 0, err
	}
	vexpr, err := p.vulnexpr()
	if err != nil {
		return 0, err
	}
	p.w.setCVEVulnexpr(off, vexpr)

	return off, nil
}

// fixedPoint encodes a CVSS score as a ×100 fixed-point uint32, the
// same representation lib/vulnspec/parser.c's cve() writes.
func fixedPoint(v float64) uint32 {
	return uint32(v * 100.0)
}

func (p *parser) vulnexpr() (uint32, error) {
	kind, err := p.expectSymbolKind()
	if err != nil {
		return 0, err
	}
	switch kind {
	case NodeLT, NodeLE, NodeEQ, NodeGE, NodeGT:
		return p.compar(kind)
	case NodeAND, NodeOR:
		return p.boolean(kind)
	case NodeNalpha:
		return p.nalpha()
	default:
		return 0, malformed("vulnspec: expected comparison, boolean, or nalpha operator")
	}
}

func (p *parser) compar(kind NodeKind) (uint32, error) {
	off := p.w.reserveCompar()

	vendprod, err := p.loads()
	if err != nil {
		return 0, err
	}

	var vagueFields [4]int32
	var nalphaVersion cvalue
	if p.vtype == VVague {
		tok, err := p.lex.next()
		if err != nil {
			return 0, err
		}
		if tok.kind != tString {
			return 0, malformed("vulnspec: expected version string")
		}
		v := vaguever.Parse(tok.str)
		for i, f := range v.Fields {
			vagueFields[i] = int32(f)
		}
	} else {
		nalphaVersion, err = p.loads()
		if err != nil {
			return 0, err
		}
	}

	p.w.writeCompar(off, kind, vendprod, p.vtype, vagueFields, nalphaVersion)

	if err := p.expect(tRParen); err != nil {
		return 0, err
	}
	return off, nil
}

func (p *parser) boolean(kind NodeKind) (uint32, error) {
	var head, prev uint32
	for {
		tok, err := p.lex.next()
		if err != nil {
			return 0, err
		}
		if tok.kind != tLParen {
			if tok.kind != tRParen {
				return 0, malformed("vulnspec: unexpected token in boolean form")
			}
			break
		}

		curr := p.w.reserveBoolean()
		if head == 0 {
			head = curr
		}

		val, err := p.vulnexpr()
		if err != nil {
			return 0, err
		}
		p.w.writeBoolean(curr, kind, val)

		if prev != 0 {
			p.w.setBooleanNext(prev, curr)
		}
		prev = curr
	}

	if head == 0 {
		return 0, malformed("vulnspec: boolean form requires at least one operand")
	}
	return head, nil
}

func (p *parser) nalpha() (uint32, error) {
	saved := p.vtype
	p.vtype = VNalpha
	defer func() { p.vtype = saved }()

	if err := p.expect(tLParen); err != nil {
		return 0, err
	}
	val, err := p.vulnexpr()
	if err != nil {
		return 0, err
	}
	if err := p.expect(tRParen); err != nil {
		return 0, err
	}
	return val, nil
}
