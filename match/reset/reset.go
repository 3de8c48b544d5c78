// Package reset implements the regex-set matcher: given up to a few
// hundred POSIX-ERE patterns, each tagged with a (Type, Name), match an
// input buffer against every pattern in one pass and report which
// patterns matched along with capture group 1's content, grounded on
// lib/match/reset.h and lib/match/reset_test.c.
//
// A merged NFA over hundreds of heterogeneous patterns with captures
// isn't worth the complexity at this fan-out (a few hundred patterns,
// inputs up to tens of KB); per-pattern matching with a linear yield is
// simpler and fast enough.
package reset

import (
	"fmt"
	"regexp"

	sce "github.com/sebcat/yans/errors"
)

// Type classifies what a pattern identifies.
type Type int

const (
	// TypeUnknown is the zero-value sentinel type.
	TypeUnknown Type = iota
	// TypeComponent is the only type consumed by the collation pipeline:
	// name is conventionally "vendor/product" in lowercase.
	TypeComponent
)

// String renders t the way reset_type2str does in the C original,
// returning "unknown" for any value outside the known range rather than
// panicking.
func (t Type) String() string {
	switch t {
	case TypeComponent:
		return "component"
	default:
		return "unknown"
	}
}

type pattern struct {
	typ     Type
	name    string
	re      *regexp.Regexp
	hasCap  bool
	matched bool
	capStart, capEnd int
}

// Matcher holds compiled patterns plus per-Match() scan state. The zero
// value is not usable; construct with New.
type Matcher struct {
	patterns []pattern
	compiled bool
	lastErr  string

	cursor int // next candidate id for NextMatch
}

// New creates an empty Matcher.
func New() *Matcher {
	return &Matcher{}
}

// Pattern is one (Type, Name, regex) triple for Load.
type Pattern struct {
	Type    Type
	Name    string
	Pattern string
}

// Add compiles and appends an untyped, unnamed pattern, returning its
// id (starting at 0) or an error if the pattern fails to compile.
func (m *Matcher) Add(pat string) (int, error) {
	return m.AddWith(TypeUnknown, "", pat)
}

// AddWith compiles and appends pat tagged with typ and name.
func (m *Matcher) AddWith(typ Type, name, pat string) (int, error) {
	if m.compiled {
		err := sce.WithMessage(sce.ErrProtocolViolation, "Add called after Compile")
		m.lastErr = err.Error()
		return -1, err
	}

	re, err := regexp.CompilePOSIX(pat)
	if err != nil {
		wrapped := sce.WithMessage(sce.ErrInputFormat, fmt.Sprintf("pattern %q: %v", pat, err))
		m.lastErr = wrapped.Error()
		return -1, wrapped
	}

	id := len(m.patterns)
	m.patterns = append(m.patterns, pattern{
		typ:    typ,
		name:   name,
		re:     re,
		hasCap: re.NumSubexp() >= 1,
	})
	return id, nil
}

// Compile finalizes the pattern set. It must be called exactly once,
// after all Add calls and before any Match call.
func (m *Matcher) Compile() error {
	if m.compiled {
		err := sce.WithMessage(sce.ErrProtocolViolation, "Compile called twice")
		m.lastErr = err.Error()
		return err
	}
	m.compiled = true
	return nil
}

// Load is a convenience wrapper: it Adds every pattern then Compiles,
// returning the number of patterns loaded.
func Load(patterns []Pattern) (*Matcher, int, error) {
	m := New()
	for _, p := range patterns {
		if _, err := m.AddWith(p.Type, p.Name, p.Pattern); err != nil {
			return nil, 0, err
		}
	}
	if err := m.Compile(); err != nil {
		return nil, 0, err
	}
	return m, len(patterns), nil
}

// Match resets the iteration cursor and evaluates every pattern against
// data, recording capture group 1 bounds for each hit.
func (m *Matcher) Match(data []byte) error {
	if !m.compiled {
		err := sce.WithMessage(sce.ErrProtocolViolation, "Match called before Compile")
		m.lastErr = err.Error()
		return err
	}

	for i := range m.patterns {
		p := &m.patterns[i]
		loc := p.re.FindSubmatchIndex(data)
		if loc == nil {
			p.matched = false
			continue
		}
		p.matched = true
		p.capStart, p.capEnd = -1, -1
		if p.hasCap && len(loc) >= 4 && loc[2] >= 0 {
			p.capStart, p.capEnd = loc[2], loc[3]
		}
	}
	m.cursor = 0
	return nil
}

// NextMatch returns the next matched pattern id (ascending) since the
// last Match call, or -1 when exhausted.
func (m *Matcher) NextMatch() int {
	for m.cursor < len(m.patterns) {
		id := m.cursor
		m.cursor++
		if m.patterns[id].matched {
			return id
		}
	}
	return -1
}

// TypeOf returns the Type tagged on pattern id.
func (m *Matcher) TypeOf(id int) Type {
	if id < 0 || id >= len(m.patterns) {
		return TypeUnknown
	}
	return m.patterns[id].typ
}

// NameOf returns the Name tagged on pattern id.
func (m *Matcher) NameOf(id int) string {
	if id < 0 || id >= len(m.patterns) {
		return ""
	}
	return m.patterns[id].name
}

// Substring returns capture group 1's content from the most recent
// Match call for pattern id, or ("", false) if id didn't match or has
// no capture group. The returned string is only meaningful until the
// next Match call reuses the same data buffer.
func (m *Matcher) Substring(id int, data []byte) (string, bool) {
	if id < 0 || id >= len(m.patterns) {
		return "", false
	}
	p := &m.patterns[id]
	if !p.matched || p.capStart < 0 {
		return "", false
	}
	return string(data[p.capStart:p.capEnd]), true
}

// LastError returns the most recent diagnostic recorded by Add/Compile/Match.
func (m *Matcher) LastError() string {
	return m.lastErr
}
