package collate

import (
	"io"
	"strconv"

	"github.com/sebcat/yans/csv"
	"github.com/sebcat/yans/internal/arena"
	"github.com/sebcat/yans/internal/idtbl"
	"github.com/sebcat/yans/internal/tcpproto"
)

// BannerSource yields BannerEvents one at a time, returning io.EOF once
// exhausted. The wire decode that fills in a BannerEvent (reading the
// raw banner transport framing) is out of scope: callers adapt whatever
// input stream they have into this interface.
type BannerSource interface {
	Next() (BannerEvent, error)
}

// BannerCollator accumulates banner events into the two deduplicated
// object tables process_banner maintains: certificate chains and
// services. Names and addresses are folded directly into the service
// key rather than interned in their own tables, since idiomatic Go
// string/net.IP equality already gives value-based dedup without the
// interning collate.c needs to avoid repeated C string allocation.
type BannerCollator struct {
	chains   *idtbl.Table
	services *idtbl.Table
	names    *arena.Arena

	nextChainID   uint32
	nextServiceID uint32
}

// NewBannerCollator constructs an empty collator. seed is folded into
// every object table's hash.
func NewBannerCollator(seed uint32) *BannerCollator {
	return &BannerCollator{
		chains:   idtbl.New(chainHash, chainEqual, seed, 64),
		services: idtbl.New(serviceHash, serviceEqual, seed, 64),
		names:    arena.New(0),
	}
}

// upsertChain interns a certificate chain by its SHA-1 digest, parsing
// it only the first time it's seen, grounded on upsert_chain.
func (c *BannerCollator) upsertChain(pemBlocks []byte) (*CertChain, error) {
	if len(pemBlocks) == 0 {
		return nil, nil
	}
	sum := ChainHash(pemBlocks)
	if v, ok := c.chains.Get(sum); ok {
		return v.(*CertChain), nil
	}

	certs, err := ParseChain(pemBlocks)
	if err != nil {
		return nil, err
	}
	c.nextChainID++
	chain := &CertChain{SHA1: sum, Certs: certs, ID: c.nextChainID}
	c.chains.Insert(chain)
	return chain, nil
}

// upsertService interns a (name, addr) pair, grounded on upsert_addr +
// the service lookup half of process_banner. When a new Service is
// inserted, its name is copied into the collator's arena, so the stored
// Service holds an arena-backed string rather than the BannerEvent's own
// transient one, mirroring upsert_addr's use of a linvar arena to own
// the hostname it stores.
func (c *BannerCollator) upsertService(name string, addr Addr) *Service {
	key := serviceKey{Name: name, Addr: addr}
	if v, ok := c.services.Get(key); ok {
		return v.(*Service)
	}
	svc := &Service{Name: c.names.AllocString(name), Addr: addr}
	c.services.Insert(svc)
	return svc
}

// Process folds one banner event into the object tables: upserting its
// certificate chain (if any), upserting its service, setting the
// fingerprint protocol and chain once, and appending the matched
// protocol (and its chain) to the first free mpid slot, mirroring
// process_banner verbatim including its "ignore once mpids is full"
// behavior.
func (c *BannerCollator) Process(ev BannerEvent) error {
	chain, err := c.upsertChain(ev.ChainPEMs)
	if err != nil {
		return err
	}

	svc := c.upsertService(ev.Name, ev.Addr)
	if ev.FPID != tcpproto.Unknown && svc.FPID == tcpproto.Unknown {
		svc.FPID = ev.FPID
		svc.FPChain = chain
	}

	if ev.MPID == tcpproto.Unknown {
		return nil
	}
	for i := 0; i < MaxMPIDs; i++ {
		if svc.MPIDs[i] == ev.MPID {
			return nil
		}
	}
	for i := 0; i < MaxMPIDs; i++ {
		if svc.MPIDs[i] == tcpproto.Unknown {
			svc.MPIDs[i] = ev.MPID
			svc.MPChains[i] = chain
			return nil
		}
	}
	return nil
}

// serviceLess orders services the way postprocess_services's final sort
// does: by name, then by address (shorter IP byte slices first, then
// lexicographically on the address bytes), then by port.
func serviceLess(a, b any) bool {
	sa, sb := a.(*Service), b.(*Service)
	if sa.Name != sb.Name {
		return sa.Name < sb.Name
	}
	la, lb := len(sa.Addr.IP), len(sb.Addr.IP)
	if la != lb {
		return la < lb
	}
	for i := range sa.Addr.IP {
		if sa.Addr.IP[i] != sb.Addr.IP[i] {
			return sa.Addr.IP[i] < sb.Addr.IP[i]
		}
	}
	return sa.Addr.Port < sb.Addr.Port
}

func chainIDLess(a, b any) bool {
	return a.(*CertChain).ID < b.(*CertChain).ID
}

// postprocess assigns monotonic service ids to every (service, mpid)
// slot, backfilling mpids[0] from the fingerprinted protocol when no
// protocol was ever matched, mirroring postprocess_services.
func (c *BannerCollator) postprocess() {
	c.services.Sort(serviceLess)
	for i := 0; i < c.services.Len(); i++ {
		svc := c.services.At(i).(*Service)

		hasMPID := false
		for _, m := range svc.MPIDs {
			if m != tcpproto.Unknown {
				hasMPID = true
				break
			}
		}
		if !hasMPID && svc.FPID != tcpproto.Unknown {
			svc.MPIDs[0] = svc.FPID
			svc.MPChains[0] = svc.FPChain
		}

		for slot := 0; slot < MaxMPIDs; slot++ {
			if svc.MPIDs[slot] == tcpproto.Unknown {
				continue
			}
			c.nextServiceID++
			svc.ServiceIDs[slot] = c.nextServiceID
		}
	}
	c.chains.Sort(chainIDLess)
}

// BannersOutput bundles the four output streams the banners mode can
// write, grounded on collate_main's -s/-e/-c/-a flags. A nil stream
// skips that output, matching the original's "only open if requested"
// behavior.
type BannersOutput struct {
	Services io.Writer
	SvcCerts io.Writer
	Certs    io.Writer
	CertSANs io.Writer
}

// RunBanners drains src, collates every event, and writes every
// requested output, mirroring the banners() driver: object-table
// sort, postprocess, print_services_csv, print_svccerts_csv, re-sort
// chains by id, print_chains_csv (split here into certs.csv and
// cert_sans.csv).
func RunBanners(src BannerSource, out BannersOutput, seed uint32) error {
	c := NewBannerCollator(seed)
	for {
		ev, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := c.Process(ev); err != nil {
			return err
		}
	}
	c.postprocess()

	if out.Services != nil {
		if err := writeServices(c, out.Services); err != nil {
			return err
		}
	}
	if out.SvcCerts != nil {
		if err := writeSvcCerts(c, out.SvcCerts); err != nil {
			return err
		}
	}
	if out.Certs != nil || out.CertSANs != nil {
		if err := writeChains(c, out.Certs, out.CertSANs); err != nil {
			return err
		}
	}
	return nil
}

func writeServices(c *BannerCollator, w io.Writer) error {
	sw, err := csv.NewWriter[csv.ServiceRow](w)
	if err != nil {
		return err
	}
	for i := 0; i < c.services.Len(); i++ {
		svc := c.services.At(i).(*Service)
		for slot := 0; slot < MaxMPIDs; slot++ {
			if svc.MPIDs[slot] == tcpproto.Unknown {
				continue
			}
			row := csv.ServiceRow{
				ServiceID: svc.ServiceIDs[slot],
				Name:      svc.Name,
				Address:   svc.Addr.IP.String(),
				Transport: "tcp",
				Port:      strconv.Itoa(int(svc.Addr.Port)),
				Service:   svc.MPIDs[slot].String(),
			}
			if err := sw.WriteRow(row); err != nil {
				return err
			}
		}
	}
	return sw.Flush()
}

func writeSvcCerts(c *BannerCollator, w io.Writer) error {
	sw, err := csv.NewWriter[csv.SvcCertRow](w)
	if err != nil {
		return err
	}
	for i := 0; i < c.services.Len(); i++ {
		svc := c.services.At(i).(*Service)
		for slot := 0; slot < MaxMPIDs; slot++ {
			if svc.MPIDs[slot] == tcpproto.Unknown || svc.MPChains[slot] == nil {
				continue
			}
			row := csv.SvcCertRow{
				ServiceID: svc.ServiceIDs[slot],
				ChainID:   svc.MPChains[slot].ID,
			}
			if err := sw.WriteRow(row); err != nil {
				return err
			}
		}
	}
	return sw.Flush()
}

func writeChains(c *BannerCollator, certsOut, sansOut io.Writer) error {
	var cw *csv.Writer[csv.CertRow]
	var sw *csv.Writer[csv.CertSANRow]
	var err error
	if certsOut != nil {
		cw, err = csv.NewWriter[csv.CertRow](certsOut)
		if err != nil {
			return err
		}
	}
	if sansOut != nil {
		sw, err = csv.NewWriter[csv.CertSANRow](sansOut)
		if err != nil {
			return err
		}
	}

	for i := 0; i < c.chains.Len(); i++ {
		chain := c.chains.At(i).(*CertChain)
		for depth, cert := range chain.Certs {
			if cw != nil {
				row := csv.CertRow{
					Chain:     chain.ID,
					Depth:     depth,
					Subject:   cert.Subject.String(),
					Issuer:    cert.Issuer.String(),
					NotBefore: cert.NotBefore.UTC().Format("2006-01-02T15:04:05Z"),
					NotAfter:  cert.NotAfter.UTC().Format("2006-01-02T15:04:05Z"),
				}
				if err := cw.WriteRow(row); err != nil {
					return err
				}
			}
			if sw != nil {
				for _, san := range sanPairs(cert) {
					row := csv.CertSANRow{
						Chain: chain.ID,
						Depth: depth,
						Type:  san.Type,
						Name:  san.Value,
					}
					if err := sw.WriteRow(row); err != nil {
						return err
					}
				}
			}
		}
	}

	if cw != nil {
		if err := cw.Flush(); err != nil {
			return err
		}
	}
	if sw != nil {
		if err := sw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
