package reset

import "testing"

func TestMatchYieldsAscendingIDs(t *testing.T) {
	m := New()
	id0, err := m.AddWith(TypeComponent, "nginx/nginx", `\r?\n[Ss]erver: ?nginx/?([0-9.]+)?`)
	if err != nil {
		t.Fatalf("AddWith(nginx) error: %v", err)
	}
	id1, err := m.AddWith(TypeComponent, "apache/http_server", `\r?\n[Ss]erver: ?[Aa]pache/?([0-9.]+)?`)
	if err != nil {
		t.Fatalf("AddWith(apache) error: %v", err)
	}
	if err := m.Compile(); err != nil {
		t.Fatalf("Compile() error: %v", err)
	}

	data := []byte("HTTP/2 301 \r\nServer: nginx/1.14.2\r\n")
	if err := m.Match(data); err != nil {
		t.Fatalf("Match() error: %v", err)
	}

	got := m.NextMatch()
	if got != id0 {
		t.Fatalf("NextMatch() = %d, want %d", got, id0)
	}
	if got := m.NextMatch(); got != -1 {
		t.Fatalf("NextMatch() second call = %d, want -1", got)
	}

	sub, ok := m.Substring(id0, data)
	if !ok || sub != "1.14.2" {
		t.Fatalf("Substring(id0) = %q, %v; want 1.14.2, true", sub, ok)
	}
	if _, ok := m.Substring(id1, data); ok {
		t.Fatalf("Substring(id1) matched, want false (apache pattern did not match)")
	}
}

func TestNextMatchExhausted(t *testing.T) {
	m := New()
	id, _ := m.AddWith(TypeComponent, "openssh/openssh", `SSH-2.0-OpenSSH_([0-9.]+)`)
	if err := m.Compile(); err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	if err := m.Match([]byte("nothing to see here")); err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if got := m.NextMatch(); got != -1 {
		t.Fatalf("NextMatch() = %d, want -1", got)
	}
	if _, ok := m.Substring(id, []byte("nothing to see here")); ok {
		t.Fatalf("Substring() ok = true for non-matching pattern")
	}
}

func TestAddAfterCompileFails(t *testing.T) {
	m := New()
	if err := m.Compile(); err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	if _, err := m.Add("foo"); err == nil {
		t.Fatalf("Add() after Compile() succeeded, want error")
	}
	if err := m.Compile(); err == nil {
		t.Fatalf("second Compile() succeeded, want error")
	}
}

func TestMatchBeforeCompileFails(t *testing.T) {
	m := New()
	m.Add("foo")
	if err := m.Match([]byte("foo")); err == nil {
		t.Fatalf("Match() before Compile() succeeded, want error")
	}
}

func TestAddInvalidPatternReturnsError(t *testing.T) {
	m := New()
	if _, err := m.Add("("); err == nil {
		t.Fatalf("Add(unbalanced paren) succeeded, want error")
	}
	if m.LastError() == "" {
		t.Fatalf("LastError() empty after failed Add")
	}
}

func TestLoad(t *testing.T) {
	m, n, err := Load([]Pattern{
		{Type: TypeComponent, Name: "nginx/nginx", Pattern: `Server: nginx/([0-9.]+)`},
	})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if n != 1 {
		t.Fatalf("Load() n = %d, want 1", n)
	}
	if m.TypeOf(0) != TypeComponent || m.NameOf(0) != "nginx/nginx" {
		t.Fatalf("Load() metadata wrong: type=%v name=%v", m.TypeOf(0), m.NameOf(0))
	}
}

func TestTypeString(t *testing.T) {
	if TypeComponent.String() != "component" {
		t.Fatalf("TypeComponent.String() = %q", TypeComponent.String())
	}
	if Type(99).String() != "unknown" {
		t.Fatalf("Type(99).String() = %q, want unknown", Type(99).String())
	}
}
