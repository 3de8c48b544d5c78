// Package nalphaver implements the "nalpha version" ordering from
// lib/util/nalphaver.c: a repeating (integer, suffix) field sequence,
// dot-separated, compared numerically then lexicographically.
package nalphaver

import "strings"

type field struct {
	val    int
	suffix string
}

// next consumes one field from s, returning the field and the remaining
// unparsed suffix of s. An exhausted s yields the zero field forever,
// mirroring nalphaver.c's "finished" sentinel (val=0, suffix="").
func next(s string) (field, string, bool) {
	if s == "" {
		return field{}, "", false
	}

	i := 0
	val := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		val = val*10 + int(s[i]-'0')
		i++
	}

	rest := s[i:]
	dot := strings.IndexByte(rest, '.')
	var suffix string
	var next string
	if dot < 0 {
		suffix = rest
		next = ""
	} else {
		suffix = rest[:dot]
		next = strings.TrimLeft(rest[dot:], ".")
	}
	return field{val: val, suffix: suffix}, next, true
}

func clamp(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func cmpField(l, r field) int {
	if d := l.val - r.val; d != 0 {
		return clamp(d)
	}
	n := len(l.suffix)
	if len(r.suffix) < n {
		n = len(r.suffix)
	}
	if c := strings.Compare(l.suffix[:n], r.suffix[:n]); c != 0 {
		return clamp(c)
	}
	return clamp(len(l.suffix) - len(r.suffix))
}

// Compare returns -1, 0, or 1 as s1 is less than, equal to, or greater
// than s2 under nalpha ordering.
func Compare(s1, s2 string) int {
	left, right := s1, s2
	for {
		lf, lrest, lok := next(left)
		rf, rrest, rok := next(right)
		if !lok && !rok {
			return 0
		}
		if v := cmpField(lf, rf); v != 0 {
			return v
		}
		left, right = lrest, rrest
	}
}
