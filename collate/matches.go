package collate

import (
	"io"
	"strconv"

	"github.com/sebcat/yans/csv"
	"github.com/sebcat/yans/match/reset"
)

// svcKey is the lookup key built from a services.csv row, matching
// mksvclut/svcluthash's (hostname, addr, transport, port, service)
// composite key.
type svcKey struct {
	Name      string
	Addr      string
	Transport string
	Port      string
	Service   string
}

// ServiceLookup resolves a banner event back to the service id
// postprocess_services assigned it, grounded on svclut_entry/mksvclut.
type ServiceLookup struct {
	byKey map[svcKey]uint32
}

// LoadServiceLookup reads services.csv from r and indexes every row,
// grounded on load_svclut.
func LoadServiceLookup(r io.Reader) (*ServiceLookup, error) {
	dec, err := csv.NewReader[csv.ServiceRow](r)
	if err != nil {
		return nil, err
	}
	lut := &ServiceLookup{byKey: make(map[svcKey]uint32)}
	for {
		row, err := dec.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		key := svcKey{
			Name:      row.Name,
			Addr:      row.Address,
			Transport: row.Transport,
			Port:      row.Port,
			Service:   row.Service,
		}
		lut.byKey[key] = row.ServiceID
	}
	return lut, nil
}

// Lookup resolves (name, addr, port, service) to a service id,
// hardcoding "tcp" as the transport to match get_svc_id's own
// hardcoded value.
func (l *ServiceLookup) Lookup(name, addr, port, service string) (uint32, bool) {
	id, ok := l.byKey[svcKey{Name: name, Addr: addr, Transport: "tcp", Port: port, Service: service}]
	return id, ok
}

// RunMatches loads patterns into a reset.Matcher, runs every banner
// event's raw bytes through it, resolves the event's service id via
// lookup, and registers every component-type match against that
// service id, emitting compsvc.csv, grounded on matches()/
// print_compmatch.
func RunMatches(patterns []reset.Pattern, src BannerSource, lookup *ServiceLookup, seed uint32, out io.Writer) error {
	m, _, err := reset.Load(patterns)
	if err != nil {
		return err
	}

	comps := NewComponentTable(seed)
	for {
		ev, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		proto := ev.MPID
		if proto == 0 {
			proto = ev.FPID
		}
		svcID, ok := lookup.Lookup(ev.Name, ev.Addr.IP.String(), strconv.Itoa(int(ev.Addr.Port)), proto.String())
		if !ok {
			continue
		}

		if err := m.Match(ev.Banner); err != nil {
			return err
		}
		for {
			id := m.NextMatch()
			if id < 0 {
				break
			}
			if m.TypeOf(id) != reset.TypeComponent {
				continue
			}
			// A pattern without a captured version registers the
			// component with an empty version.
			version, _ := m.Substring(id, ev.Banner)
			comps.Register(m.NameOf(id), version, svcID)
		}
	}

	w, err := csv.NewWriter[csv.CompSvcRow](out)
	if err != nil {
		return err
	}
	var writeErr error
	comps.Foreach(func(e *ComponentEntry) {
		if writeErr != nil {
			return
		}
		for _, sid := range e.Services {
			row := csv.CompSvcRow{Component: e.Name, Version: e.Version, ServiceID: sid}
			if err := w.WriteRow(row); err != nil {
				writeErr = err
				return
			}
		}
	})
	if writeErr != nil {
		return writeErr
	}
	return w.Flush()
}
