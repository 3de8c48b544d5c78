package collate

import (
	"bytes"
	"io"
	"net"
	"testing"

	"github.com/sebcat/yans/csv"
	"github.com/sebcat/yans/internal/tcpproto"
)

type sliceSource struct {
	events []BannerEvent
	i      int
}

func (s *sliceSource) Next() (BannerEvent, error) {
	if s.i >= len(s.events) {
		return BannerEvent{}, io.EOF
	}
	ev := s.events[s.i]
	s.i++
	return ev, nil
}

// TestBannersScenario covers the two-mpid, same-(name,addr) case: two
// banner events for the same (name, addr, "http") with distinct mpids
// and one carrying a cert chain produce one service row per mpid,
// sharing the same address but with distinct service ids, and one
// svccert.csv row linking the mpid with the chain.
func TestBannersScenario(t *testing.T) {
	addr := NewAddr(net.ParseIP("10.0.0.1"), 80)
	chainPEM := selfSignedPEM(t, "example.com")

	events := []BannerEvent{
		{Name: "example.com", Addr: addr, Banner: []byte("HTTP/1.1 200 OK"), MPID: tcpproto.HTTP},
		{Name: "example.com", Addr: addr, Banner: []byte("HTTP/1.1 200 OK"), MPID: tcpproto.HTTPS, ChainPEMs: chainPEM},
	}

	var services, svccerts bytes.Buffer
	err := RunBanners(&sliceSource{events: events}, BannersOutput{
		Services: &services,
		SvcCerts: &svccerts,
	}, 1)
	if err != nil {
		t.Fatalf("RunBanners() error: %v", err)
	}

	r, err := csv.NewReader[csv.ServiceRow](&services)
	if err != nil {
		t.Fatalf("NewReader() error: %v", err)
	}
	var rows []csv.ServiceRow
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read() error: %v", err)
		}
		rows = append(rows, row)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d service rows, want 2: %+v", len(rows), rows)
	}
	if rows[0].Address != rows[1].Address {
		t.Errorf("rows have different addresses: %q != %q", rows[0].Address, rows[1].Address)
	}
	if rows[0].ServiceID == rows[1].ServiceID {
		t.Errorf("rows share a service id: %d", rows[0].ServiceID)
	}
	gotServices := map[string]bool{rows[0].Service: true, rows[1].Service: true}
	if !gotServices["http"] || !gotServices["https"] {
		t.Errorf("service names = %v, want http and https", gotServices)
	}

	sr, err := csv.NewReader[csv.SvcCertRow](&svccerts)
	if err != nil {
		t.Fatalf("NewReader() error: %v", err)
	}
	var svcCertRows []csv.SvcCertRow
	for {
		row, err := sr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read() error: %v", err)
		}
		svcCertRows = append(svcCertRows, row)
	}
	if len(svcCertRows) != 1 {
		t.Fatalf("got %d svccert rows, want 1: %+v", len(svcCertRows), svcCertRows)
	}

	var httpsID uint32
	for _, row := range rows {
		if row.Service == "https" {
			httpsID = row.ServiceID
		}
	}
	if svcCertRows[0].ServiceID != httpsID {
		t.Errorf("svccert row links service %d, want %d (the https row)", svcCertRows[0].ServiceID, httpsID)
	}
}

func TestBannersBackfillsFPIDWhenNoMPID(t *testing.T) {
	addr := NewAddr(net.ParseIP("10.0.0.2"), 22)
	events := []BannerEvent{
		{Name: "host", Addr: addr, Banner: []byte("SSH-2.0-OpenSSH"), FPID: tcpproto.SSH},
	}

	var services bytes.Buffer
	err := RunBanners(&sliceSource{events: events}, BannersOutput{Services: &services}, 1)
	if err != nil {
		t.Fatalf("RunBanners() error: %v", err)
	}

	r, err := csv.NewReader[csv.ServiceRow](&services)
	if err != nil {
		t.Fatalf("NewReader() error: %v", err)
	}
	row, err := r.Read()
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if row.Service != "ssh" {
		t.Errorf("Service = %q, want ssh", row.Service)
	}
	if _, err := r.Read(); err != io.EOF {
		t.Errorf("expected exactly one row, got extra: %v", err)
	}
}

func TestAddrEqualNormalizesIPv4(t *testing.T) {
	a := NewAddr(net.ParseIP("10.0.0.1").To4(), 80)
	b := NewAddr(net.ParseIP("10.0.0.1").To16(), 80)
	if !a.Equal(b) {
		t.Error("Addr.Equal() should treat 4-byte and 16-byte forms of the same IP as equal")
	}
	if addrHash(a, 1) != addrHash(b, 1) {
		t.Error("addrHash should hash 4-byte and 16-byte forms identically")
	}
}
