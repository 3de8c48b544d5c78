package vulnspec

import (
	"strings"
	"testing"
)

func compileString(t *testing.T, src string) []byte {
	t.Helper()
	data, err := Compile(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Compile(%q) error: %v", src, err)
	}
	return data
}

func TestEvalVagueAndNode(t *testing.T) {
	src := `(cve "my-cve" 6.5 6.5 "bar" (^ (> "foo/bar" "1.2.2") (< "foo/bar" "1.2.4")))`
	data := compileString(t, src)

	interp, err := Load(data)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	var matches []Match
	err = interp.Eval("foo/bar", "1.2.3", func(m Match) int {
		matches = append(matches, m)
		return 1
	})
	if err != nil {
		t.Fatalf("Eval(1.2.3) error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Eval(1.2.3) matches = %d, want 1", len(matches))
	}
	if matches[0].ID != "my-cve" || matches[0].CVSS3Base != 6.5 {
		t.Fatalf("Eval(1.2.3) match = %+v", matches[0])
	}

	matches = nil
	err = interp.Eval("foo/bar", "1.2.4", func(m Match) int {
		matches = append(matches, m)
		return 1
	})
	if err != nil {
		t.Fatalf("Eval(1.2.4) error: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("Eval(1.2.4) matches = %d, want 0", len(matches))
	}
}

func TestEvalNalphaNode(t *testing.T) {
	src := `(cve "my-cve" 6.5 6.5 "bar" (nalpha (= "foo/bar" "1.2.3r")))`
	data := compileString(t, src)

	interp, err := Load(data)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	var count int
	countingCallback := func(m Match) int {
		count++
		return 1
	}

	count = 0
	if err := interp.Eval("foo/bar", "1.2.3", countingCallback); err != nil {
		t.Fatalf("Eval(1.2.3) error: %v", err)
	}
	if count != 0 {
		t.Fatalf("Eval(1.2.3) count = %d, want 0", count)
	}

	count = 0
	if err := interp.Eval("foo/bar", "1.2.3r", countingCallback); err != nil {
		t.Fatalf("Eval(1.2.3r) error: %v", err)
	}
	if count != 1 {
		t.Fatalf("Eval(1.2.3r) count = %d, want 1", count)
	}
}

func TestEvalNoDataNoDecision(t *testing.T) {
	data := compileString(t, `(cve "x" 1.0 1.0 "d" (= "foo/bar" "1.0"))`)
	interp, err := Load(data)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	called := false
	cb := func(m Match) int { called = true; return 1 }

	if err := interp.Eval("", "1.0", cb); err != nil {
		t.Fatalf("Eval(empty vendprod) error: %v", err)
	}
	if err := interp.Eval("foo/bar", "", cb); err != nil {
		t.Fatalf("Eval(empty version) error: %v", err)
	}
	if called {
		t.Fatalf("onMatch invoked with empty vendprod/version")
	}
}

func TestEvalCallbackAbort(t *testing.T) {
	data := compileString(t, `(cve "a" 1.0 1.0 "d" (= "foo/bar" "1.0"))(cve "b" 1.0 1.0 "d" (= "foo/bar" "1.0"))`)
	interp, err := Load(data)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	var seen []string
	err = interp.Eval("foo/bar", "1.0", func(m Match) int {
		seen = append(seen, m.ID)
		return -1
	})
	if err == nil {
		t.Fatalf("Eval() with aborting callback succeeded, want error")
	}
	if code, ok := AbortCode(err); !ok || code != -1 {
		t.Fatalf("AbortCode() = %d, %v; want -1, true", code, ok)
	}
	if len(seen) != 1 || seen[0] != "a" {
		t.Fatalf("seen = %v, want [a] (second cve must not run after abort)", seen)
	}
}

func TestEvalOrShortCircuit(t *testing.T) {
	data := compileString(t, `(cve "x" 1.0 1.0 "d" (v (= "foo/bar" "9.9") (= "foo/bar" "1.0")))`)
	interp, err := Load(data)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	matched := false
	if err := interp.Eval("foo/bar", "1.0", func(m Match) int { matched = true; return 1 }); err != nil {
		t.Fatalf("Eval() error: %v", err)
	}
	if !matched {
		t.Fatalf("or-expression did not match on its second operand")
	}
}

func TestEvalVendprodMismatch(t *testing.T) {
	data := compileString(t, `(cve "x" 1.0 1.0 "d" (= "foo/bar" "1.0"))`)
	interp, err := Load(data)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	matched := false
	if err := interp.Eval("other/thing", "1.0", func(m Match) int { matched = true; return 1 }); err != nil {
		t.Fatalf("Eval() error: %v", err)
	}
	if matched {
		t.Fatalf("matched despite vendprod mismatch")
	}
}

func TestCompileRoundTripsMultipleCVEs(t *testing.T) {
	data := compileString(t, `
(cve "cve-1" 1.0 2.0 "first" (= "a/b" "1.0"))
(cve "cve-2" 3.0 4.0 "second" (= "a/b" "2.0"))
`)
	interp, err := Load(data)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	var ids []string
	err = interp.Eval("a/b", "2.0", func(m Match) int {
		ids = append(ids, m.ID)
		return 1
	})
	if err != nil {
		t.Fatalf("Eval() error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "cve-2" {
		t.Fatalf("ids = %v, want [cve-2]", ids)
	}
}

func TestLoadRejectsBadHeader(t *testing.T) {
	if _, err := LoadImage([]byte("not a vulnspec image")); err == nil {
		t.Fatalf("LoadImage() with bad header succeeded, want error")
	}
}

func TestLoadRejectsTruncatedImage(t *testing.T) {
	data := compileString(t, `(cve "x" 1.0 1.0 "d" (= "a/b" "1.0"))`)
	truncated := data[:len(data)-4]
	if _, err := LoadImage(truncated); err == nil {
		t.Fatalf("LoadImage() with truncated image succeeded, want error")
	}
}

func TestCompileRejectsUnbalancedParens(t *testing.T) {
	if _, err := Compile(strings.NewReader(`(cve "x" 1.0 1.0 "d" (= "a/b" "1.0")`)); err == nil {
		t.Fatalf("Compile() with unbalanced parens succeeded, want error")
	}
}

func TestCompileRejectsEmptyBoolean(t *testing.T) {
	if _, err := Compile(strings.NewReader(`(cve "x" 1.0 1.0 "d" (^))`)); err == nil {
		t.Fatalf("Compile() with empty boolean form succeeded, want error")
	}
}
