// Package collate implements the object-table collation pipeline that
// turns raw banner events into the services/certificates/components/CVE
// CSV outputs, grounded on apps/scan/collate.c. Each of the five modes
// (banners, httpmsgs, matches, components, cves) gets its own driver
// file; this file holds the shared data model.
package collate

import (
	"crypto/x509"
	"net"

	"github.com/sebcat/yans/internal/tcpproto"
)

// MaxMPIDs bounds how many matched-protocol slots a Service tracks,
// mirroring collate_service.mpids[MAX_MPIDS] in the original.
const MaxMPIDs = 4

// Addr is a deduplicated (IP, port) pair. Always construct one with
// NewAddr: it normalizes the IP to its 16-byte form so that an IPv4
// address and its IPv4-in-IPv6 equivalent hash and compare identically.
type Addr struct {
	IP   net.IP
	Port uint16
}

// NewAddr builds an Addr, normalizing ip so Addr values satisfy the
// hash/equality contract idtbl.Table requires of its key type.
func NewAddr(ip net.IP, port uint16) Addr {
	return Addr{IP: ip.To16(), Port: port}
}

// Equal reports whether a and b name the same address and port.
func (a Addr) Equal(b Addr) bool {
	return a.Port == b.Port && a.IP.Equal(b.IP)
}

// CertChain is a deduplicated, parsed certificate chain, keyed by the
// SHA-1 digest of its raw PEM bytes (collate_certchain.sha1hash).
type CertChain struct {
	SHA1  [20]byte
	Certs []*x509.Certificate
	ID    uint32
}

// Service is a deduplicated (name, address) pair carrying every
// matched/fingerprinted protocol observed on it, mirroring
// collate_service.
type Service struct {
	Name       string
	Addr       Addr
	MPIDs      [MaxMPIDs]tcpproto.Type
	FPID       tcpproto.Type
	FPChain    *CertChain
	MPChains   [MaxMPIDs]*CertChain
	ServiceIDs [MaxMPIDs]uint32
}

// BannerEvent is one observed banner: a name/address pair, the raw
// banner bytes, the fingerprinted and matched protocol for this
// observation, and the certificate chain seen on the connection, if
// any. It is the banners mode's only input and is never stored beyond
// the call to BannerCollator.Process.
type BannerEvent struct {
	Name      string
	Addr      Addr
	Banner    []byte
	FPID      tcpproto.Type
	MPID      tcpproto.Type
	ChainPEMs []byte
}
