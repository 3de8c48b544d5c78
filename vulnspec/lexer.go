package vulnspec

import (
	"bufio"
	"io"
)

// tokenKind enumerates vulnspec_token.
type tokenKind int

const (
	tInvalid tokenKind = iota
	tEOF
	tLParen
	tRParen
	tString
	tLong
	tDouble
	tSymbol
)

const maxSymbolLen = 31 // sizeof(r->symbol) - 1 in the original reader

// token carries whichever payload its kind uses.
type token struct {
	kind tokenKind
	str  string // TSTRING content, or TSYMBOL text
	ival int64
	dval float64
}

// lexer tokenizes vulnspec source, grounded on lib/vulnspec/reader.c.
// It tracks row/col purely for diagnostics, mirroring the original's
// one-character-of-pushback design.
type lexer struct {
	r   *bufio.Reader
	row int
	col int
}

func newLexer(r io.Reader) *lexer {
	return &lexer{r: bufio.NewReader(r)}
}

func (l *lexer) getc() (int, error) {
	ch, err := l.r.ReadByte()
	if err == io.EOF {
		return -1, nil
	}
	if err != nil {
		return -1, err
	}
	if ch == '\n' {
		l.row++
		l.col = 0
	} else {
		l.col++
	}
	return int(ch), nil
}

func (l *lexer) ungetc() {
	l.r.UnreadByte()
	if l.col > 0 {
		l.col--
	}
}

// next reads and returns the next token.
func (l *lexer) next() (token, error) {
	for {
		ch, err := l.getc()
		if err != nil {
			return token{}, err
		}
		switch {
		case ch == -1:
			return token{kind: tEOF}, nil
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			continue
		case ch == '(':
			return token{kind: tLParen}, nil
		case ch == ')':
			return token{kind: tRParen}, nil
		case ch == '.' || ch == '-' || (ch >= '0' && ch <= '9'):
			return l.readNumber(ch)
		case ch == '"':
			return l.readString()
		default:
			l.ungetc()
			return l.readSymbol()
		}
	}
}

func (l *lexer) readNumber(first int) (token, error) {
	var ival int64
	negate := false
	fpdiv := int64(0)

	switch {
	case first >= '0' && first <= '9':
		ival = int64(first - '0')
	case first == '-':
		negate = true
	case first == '.':
		fpdiv = 1
	}

	for {
		ch, err := l.getc()
		if err != nil {
			return token{}, err
		}
		if ch == -1 {
			break
		}
		if ch != '.' && (ch < '0' || ch > '9') {
			l.ungetc()
			break
		}

		fpdiv *= 10
		switch {
		case ch == '.':
			if fpdiv != 0 {
				return token{}, malformed("vulnspec: malformed number: unexpected '.'")
			}
			fpdiv = 1
		default:
			digit := int64(ch - '0')
			tmp := ival*10 + digit
			if tmp < ival {
				return token{}, malformed("vulnspec: malformed number: overflow")
			}
			ival = tmp
		}
	}

	if negate {
		ival = -ival
	}

	if fpdiv != 0 {
		return token{kind: tDouble, dval: float64(ival) / float64(fpdiv)}, nil
	}
	return token{kind: tLong, ival: ival}, nil
}

func (l *lexer) readString() (token, error) {
	var sb []byte
	for {
		ch, err := l.getc()
		if err != nil {
			return token{}, err
		}
		if ch == -1 {
			return token{}, malformed("vulnspec: unterminated string")
		}
		if ch == '"' {
			return token{kind: tString, str: string(sb)}, nil
		}
		if ch == '\\' {
			ch, err = l.getc()
			if err != nil {
				return token{}, err
			}
			if ch == -1 {
				return token{}, malformed("vulnspec: unterminated escape in string")
			}
		}
		sb = append(sb, byte(ch))
	}
}

func (l *lexer) readSymbol() (token, error) {
	var sb []byte
	for {
		ch, err := l.getc()
		if err != nil {
			return token{}, err
		}
		switch ch {
		case '(', ')', ' ', '\r', '\n', '\t', -1:
			if ch != -1 {
				l.ungetc()
			}
			return token{kind: tSymbol, str: string(sb)}, nil
		default:
			sb = append(sb, byte(ch))
			if len(sb) > maxSymbolLen {
				return token{}, malformed("vulnspec: symbol too long")
			}
		}
	}
}
