// Package csv defines the struct-tagged row types for every CSV output
// the collation pipeline produces, and thin generic helpers for writing
// and reading them, grounded on spec.md §6's exact header rows and on
// the teacher's own github.com/jszwec/csvutil usage in
// cron/data/writer.go and cron/data/iterator.go.
package csv

// ServiceRow is one row of services.csv: a single (service, mpid) pair
// after banner collation's post-processing pass.
type ServiceRow struct {
	ServiceID uint32 `csv:"Service ID"`
	Name      string `csv:"Name"`
	Address   string `csv:"Address"`
	Transport string `csv:"Transport"`
	Port      string `csv:"Port"`
	Service   string `csv:"Service"`
}

// SvcCertRow is one row of svccert.csv, linking a service id to the
// certificate chain observed on that mpid slot.
type SvcCertRow struct {
	ServiceID uint32 `csv:"Service ID"`
	ChainID   uint32 `csv:"Certificate Chain"`
}

// CertRow is one row of certs.csv: one certificate at one depth of one
// chain.
type CertRow struct {
	Chain      uint32 `csv:"Chain"`
	Depth      int    `csv:"Depth"`
	Subject    string `csv:"Subject"`
	Issuer     string `csv:"Issuer"`
	NotBefore  string `csv:"Not Valid Before"`
	NotAfter   string `csv:"Not Valid After"`
}

// CertSANRow is one row of cert_sans.csv: one subject-alternative-name
// entry of one certificate.
type CertSANRow struct {
	Chain uint32 `csv:"Chain"`
	Depth int    `csv:"Depth"`
	Type  string `csv:"Type"`
	Name  string `csv:"Name"`
}

// CompSvcRow is one row of compsvc.csv, the raw (component, service)
// pairs observed directly by the matches mode, before the components
// mode rolls them up by (name, version).
type CompSvcRow struct {
	Component string `csv:"Component"`
	Version   string `csv:"Version"`
	ServiceID uint32 `csv:"Service ID"`
}

// ComponentRow is one row of components.csv: one (name, version) with
// its assigned component id.
type ComponentRow struct {
	ComponentID uint32 `csv:"Component ID"`
	Name        string `csv:"Name"`
	Version     string `csv:"Version"`
}

// CompIDSvcIDRow is one row of compidsvcid.csv, linking a component id
// to every service id it was observed on.
type CompIDSvcIDRow struct {
	ComponentID uint32 `csv:"Component ID"`
	ServiceID   uint32 `csv:"Service ID"`
}

// CVERow is one row of cves.csv. CVSS2/CVSS3 are pre-formatted strings
// rather than floats: the cves mode leaves them empty when the
// underlying score falls outside the valid (0, 10.1) range, matching
// print_cve_csv in the original.
type CVERow struct {
	ComponentID uint32 `csv:"Component ID"`
	CVEID       string `csv:"CVE-ID"`
	CVSS2       string `csv:"CVSSv2 Base Score"`
	CVSS3       string `csv:"CVSSv3 Base Score"`
	Description string `csv:"Description"`
}
