package collate

import (
	"bytes"
	"net"
	"strings"
	"testing"

	"github.com/sebcat/yans/csv"
	"github.com/sebcat/yans/internal/tcpproto"
	"github.com/sebcat/yans/match/reset"
)

func servicesFixture(t *testing.T, rows []csv.ServiceRow) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	w, err := csv.NewWriter[csv.ServiceRow](&buf)
	if err != nil {
		t.Fatalf("NewWriter() error: %v", err)
	}
	for _, row := range rows {
		if err := w.WriteRow(row); err != nil {
			t.Fatalf("WriteRow() error: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}
	return &buf
}

func TestServiceLookup(t *testing.T) {
	buf := servicesFixture(t, []csv.ServiceRow{
		{ServiceID: 7, Name: "example.com", Address: "10.0.0.1", Transport: "tcp", Port: "80", Service: "http"},
	})

	lut, err := LoadServiceLookup(buf)
	if err != nil {
		t.Fatalf("LoadServiceLookup() error: %v", err)
	}

	id, ok := lut.Lookup("example.com", "10.0.0.1", "80", "http")
	if !ok || id != 7 {
		t.Errorf("Lookup() = (%d, %v), want (7, true)", id, ok)
	}

	if _, ok := lut.Lookup("example.com", "10.0.0.1", "443", "https"); ok {
		t.Error("Lookup() found a row that was never indexed")
	}
}

func TestRunMatches(t *testing.T) {
	servicesBuf := servicesFixture(t, []csv.ServiceRow{
		{ServiceID: 5, Name: "example.com", Address: "10.0.0.1", Transport: "tcp", Port: "80", Service: "http"},
	})
	lut, err := LoadServiceLookup(servicesBuf)
	if err != nil {
		t.Fatalf("LoadServiceLookup() error: %v", err)
	}

	events := []BannerEvent{
		{
			Name:   "example.com",
			Addr:   NewAddr(net.ParseIP("10.0.0.1"), 80),
			Banner: []byte("Server: nginx/1.18.0"),
			MPID:   tcpproto.HTTP,
		},
	}

	patterns := []reset.Pattern{
		{Type: reset.TypeComponent, Name: "nginx/nginx", Pattern: "nginx/([0-9.]+)"},
	}

	var out bytes.Buffer
	if err := RunMatches(patterns, &sliceSource{events: events}, lut, 1, &out); err != nil {
		t.Fatalf("RunMatches() error: %v", err)
	}

	if !strings.Contains(out.String(), "nginx/nginx") || !strings.Contains(out.String(), "1.18.0") {
		t.Errorf("compsvc.csv output missing expected match: %q", out.String())
	}
	if !strings.Contains(out.String(), "5") {
		t.Errorf("compsvc.csv output missing resolved service id: %q", out.String())
	}
}

func TestRunComponentsRollsUpByNameVersion(t *testing.T) {
	var compsvcBuf bytes.Buffer
	w, err := csv.NewWriter[csv.CompSvcRow](&compsvcBuf)
	if err != nil {
		t.Fatalf("NewWriter() error: %v", err)
	}
	rows := []csv.CompSvcRow{
		{Component: "nginx/nginx", Version: "1.18.0", ServiceID: 5},
		{Component: "nginx/nginx", Version: "1.18.0", ServiceID: 6},
		{Component: "openssh/openssh", Version: "8.2", ServiceID: 9},
	}
	for _, row := range rows {
		if err := w.WriteRow(row); err != nil {
			t.Fatalf("WriteRow() error: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}

	var components, compIDSvcID bytes.Buffer
	if err := RunComponents(&compsvcBuf, &components, &compIDSvcID, 1); err != nil {
		t.Fatalf("RunComponents() error: %v", err)
	}

	cr, err := csv.NewReader[csv.ComponentRow](&components)
	if err != nil {
		t.Fatalf("NewReader() error: %v", err)
	}
	var componentRows []csv.ComponentRow
	for {
		row, err := cr.Read()
		if err != nil {
			break
		}
		componentRows = append(componentRows, row)
	}
	if len(componentRows) != 2 {
		t.Fatalf("got %d component rows, want 2: %+v", len(componentRows), componentRows)
	}

	pr, err := csv.NewReader[csv.CompIDSvcIDRow](&compIDSvcID)
	if err != nil {
		t.Fatalf("NewReader() error: %v", err)
	}
	var linkRows []csv.CompIDSvcIDRow
	for {
		row, err := pr.Read()
		if err != nil {
			break
		}
		linkRows = append(linkRows, row)
	}
	if len(linkRows) != 3 {
		t.Fatalf("got %d compidsvcid rows, want 3: %+v", len(linkRows), linkRows)
	}
}
