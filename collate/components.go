package collate

import (
	"io"

	"github.com/sebcat/yans/csv"
)

// RunComponents reads compsvc.csv from compsvc, rolls each row up into
// a deduplicated ComponentEntry keyed by (name, version), and emits
// components.csv and compidsvcid.csv, grounded on components().
func RunComponents(compsvc io.Reader, componentsOut, compIDSvcIDOut io.Writer, seed uint32) error {
	dec, err := csv.NewReader[csv.CompSvcRow](compsvc)
	if err != nil {
		return err
	}

	comps := NewComponentTable(seed)
	for {
		row, err := dec.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		comps.Register(row.Component, row.Version, row.ServiceID)
	}

	cw, err := csv.NewWriter[csv.ComponentRow](componentsOut)
	if err != nil {
		return err
	}
	pw, err := csv.NewWriter[csv.CompIDSvcIDRow](compIDSvcIDOut)
	if err != nil {
		return err
	}

	var writeErr error
	comps.Foreach(func(e *ComponentEntry) {
		if writeErr != nil {
			return
		}
		if err := cw.WriteRow(csv.ComponentRow{ComponentID: e.ID, Name: e.Name, Version: e.Version}); err != nil {
			writeErr = err
			return
		}
		for _, sid := range e.Services {
			if err := pw.WriteRow(csv.CompIDSvcIDRow{ComponentID: e.ID, ServiceID: sid}); err != nil {
				writeErr = err
				return
			}
		}
	})
	if writeErr != nil {
		return writeErr
	}
	if err := cw.Flush(); err != nil {
		return err
	}
	return pw.Flush()
}
