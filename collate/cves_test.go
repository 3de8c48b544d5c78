package collate

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sebcat/yans/csv"
	"github.com/sebcat/yans/vulnspec"
)

func compileVulnspec(t *testing.T, src string) *vulnspec.Interp {
	t.Helper()
	data, err := vulnspec.Compile(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	interp, err := vulnspec.Load(data)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return interp
}

func TestRunCVEsOrdersByComponentThenScoreDesc(t *testing.T) {
	interp := compileVulnspec(t, `
(cve "cve-low" 4.0 4.0 "low severity" (= "foo/bar" "1.2.3"))
(cve "cve-high" 9.0 9.0 "high severity" (= "foo/bar" "1.2.3"))
`)

	var components bytes.Buffer
	w, err := csv.NewWriter[csv.ComponentRow](&components)
	if err != nil {
		t.Fatalf("NewWriter() error: %v", err)
	}
	rows := []csv.ComponentRow{
		{ComponentID: 2, Name: "foo/bar", Version: "1.2.3"},
		{ComponentID: 1, Name: "foo/bar", Version: "1.2.3"},
	}
	for _, row := range rows {
		if err := w.WriteRow(row); err != nil {
			t.Fatalf("WriteRow() error: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}

	var out bytes.Buffer
	if err := RunCVEs(&components, interp, &out); err != nil {
		t.Fatalf("RunCVEs() error: %v", err)
	}

	r, err := csv.NewReader[csv.CVERow](&out)
	if err != nil {
		t.Fatalf("NewReader() error: %v", err)
	}
	var got []csv.CVERow
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		got = append(got, row)
	}
	if len(got) != 4 {
		t.Fatalf("got %d rows, want 4: %+v", len(got), got)
	}
	// componentID 1 rows first, then componentID 2; within each,
	// cve-high (9.0) before cve-low (4.0).
	if got[0].ComponentID != 1 || got[0].CVEID != "cve-high" {
		t.Errorf("row 0 = %+v, want componentID 1, cve-high first", got[0])
	}
	if got[1].ComponentID != 1 || got[1].CVEID != "cve-low" {
		t.Errorf("row 1 = %+v, want componentID 1, cve-low second", got[1])
	}
	if got[2].ComponentID != 2 {
		t.Errorf("row 2 = %+v, want componentID 2", got[2])
	}
	if got[0].CVSS2 != "9.00" {
		t.Errorf("CVSS2 = %q, want 9.00", got[0].CVSS2)
	}
}

func TestRunCVEsSkipsRowsWithoutVersionOrID(t *testing.T) {
	interp := compileVulnspec(t, `(cve "cve-x" 5.0 5.0 "d" (= "foo/bar" "1.0"))`)

	var components bytes.Buffer
	w, err := csv.NewWriter[csv.ComponentRow](&components)
	if err != nil {
		t.Fatalf("NewWriter() error: %v", err)
	}
	rows := []csv.ComponentRow{
		{ComponentID: 0, Name: "foo/bar", Version: "1.0"},
		{ComponentID: 1, Name: "foo/bar", Version: ""},
	}
	for _, row := range rows {
		if err := w.WriteRow(row); err != nil {
			t.Fatalf("WriteRow() error: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}

	var out bytes.Buffer
	if err := RunCVEs(&components, interp, &out); err != nil {
		t.Fatalf("RunCVEs() error: %v", err)
	}

	r, err := csv.NewReader[csv.CVERow](&out)
	if err != nil {
		t.Fatalf("NewReader() error: %v", err)
	}
	if _, err := r.Read(); err == nil {
		t.Error("expected no rows, got at least one")
	}
}

func TestFormatScore(t *testing.T) {
	cases := []struct {
		score float32
		want  string
	}{
		{0.0, ""},
		{10.1, ""},
		{10.2, ""},
		{9.99, "9.99"},
		{4.5, "4.50"},
	}
	for _, c := range cases {
		if got := formatScore(c.score); got != c.want {
			t.Errorf("formatScore(%v) = %q, want %q", c.score, got, c.want)
		}
	}
}
