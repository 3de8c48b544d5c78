package collate

import (
	"fmt"
	"io"
	"sort"

	"github.com/sebcat/yans/csv"
	"github.com/sebcat/yans/vulnspec"
)

type cveRow struct {
	componentID uint32
	id          string
	cvss2       float32
	cvss3       float32
	description string
}

// RunCVEs reads components.csv from components, evaluates each row's
// (name, version) against interp, and writes cves.csv sorted by
// (component id asc, CVSSv2 base score desc), grounded on cves()/
// cveentrycmp/on_matched_cve. Rows with an empty version or a
// non-positive component id are skipped, matching the original's
// strtoul validation of the component id field.
func RunCVEs(components io.Reader, interp *vulnspec.Interp, out io.Writer) error {
	dec, err := csv.NewReader[csv.ComponentRow](components)
	if err != nil {
		return err
	}

	var rows []cveRow
	for {
		row, err := dec.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if row.Version == "" || row.ComponentID == 0 {
			continue
		}

		componentID := row.ComponentID
		err = interp.Eval(row.Name, row.Version, func(m vulnspec.Match) int {
			rows = append(rows, cveRow{
				componentID: componentID,
				id:          m.ID,
				cvss2:       m.CVSS2Base,
				cvss3:       m.CVSS3Base,
				description: m.Description,
			})
			return 1
		})
		if err != nil {
			return err
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].componentID != rows[j].componentID {
			return rows[i].componentID < rows[j].componentID
		}
		return rows[i].cvss2 > rows[j].cvss2
	})

	w, err := csv.NewWriter[csv.CVERow](out)
	if err != nil {
		return err
	}
	for _, r := range rows {
		row := csv.CVERow{
			ComponentID: r.componentID,
			CVEID:       r.id,
			CVSS2:       formatScore(r.cvss2),
			CVSS3:       formatScore(r.cvss3),
			Description: r.description,
		}
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}
	return w.Flush()
}

// formatScore renders a CVSS base score to two decimals, or the empty
// string if it falls outside the valid (0, 10.1) range, grounded on
// print_cve_csv's own cvss2_base > 0.0 && cvss2_base < 10.1 check.
func formatScore(score float32) string {
	if score > 0.0 && score < 10.1 {
		return fmt.Sprintf("%.2f", score)
	}
	return ""
}
