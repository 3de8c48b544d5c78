package collate

import (
	"crypto/sha1"
	"crypto/x509"
	"encoding/pem"

	sce "github.com/sebcat/yans/errors"
)

// ChainHash returns the SHA-1 digest of the raw PEM bytes of a
// certificate chain, used as the dedup key for the chain object table,
// grounded on collate_certchain.sha1hash / upsert_chain.
func ChainHash(pemBlocks []byte) [20]byte {
	return sha1.Sum(pemBlocks)
}

// ParseChain decodes a sequence of concatenated PEM certificate blocks
// into parsed certificates, in the order they appear.
func ParseChain(pemBlocks []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	rest := pemBlocks
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, sce.WithMessage(sce.ErrInputFormat, "collate: parse certificate: "+err.Error())
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, sce.WithMessage(sce.ErrInputFormat, "collate: no certificates found in chain")
	}
	return certs, nil
}

// sanPair is one (type, value) subject-alternative-name entry, the
// equivalent of the original's colon-split "type:value" SAN string
// reconstructed from crypto/x509's typed accessors -- Go does not
// expose the raw SAN string x509_san_get_data reads, so each accessor
// is given its own literal type label instead.
type sanPair struct {
	Type  string
	Value string
}

func sanPairs(cert *x509.Certificate) []sanPair {
	var pairs []sanPair
	for _, name := range cert.DNSNames {
		pairs = append(pairs, sanPair{Type: "DNS", Value: name})
	}
	for _, email := range cert.EmailAddresses {
		pairs = append(pairs, sanPair{Type: "email", Value: email})
	}
	for _, ip := range cert.IPAddresses {
		pairs = append(pairs, sanPair{Type: "IP Address", Value: ip.String()})
	}
	for _, uri := range cert.URIs {
		pairs = append(pairs, sanPair{Type: "URI", Value: uri.String()})
	}
	return pairs
}
