package impact

import (
	"sort"

	"ioimpact/internal/codes"
	"ioimpact/internal/coeff"
)

// Comparison ranks several sectors by the total impact of the same demand
// change.
type Comparison struct {
	Type    string            `json:"coefficient_type"`
	Source  coeff.Source      `json:"data_source"`
	Amount  float64           `json:"amount"`
	Entries []ComparisonEntry `json:"sectors"`
}

// ComparisonEntry is one compared sector. Err is set when the sector could not
// be computed; such entries sort after every successful one.
type ComparisonEntry struct {
	SectorCode string  `json:"sector_code"`
	SectorName string  `json:"sector_name,omitempty"`
	Total      float64 `json:"total_impact"`
	Rows       int     `json:"rows"`
	Err        error   `json:"-"`
	Error      string  `json:"error,omitempty"`
}

// CompareSectors computes the same demand change for each sector and ranks the
// sectors by total impact, largest first. A failure for one sector is recorded
// on its entry and does not stop the others.
func (c *Calculator) CompareSectors(src coeff.Source, typeID string, sectors []string, amount float64) Comparison {
	reg := c.store.Registry()
	out := Comparison{Type: typeID, Source: src, Amount: amount, Entries: make([]ComparisonEntry, 0, len(sectors))}
	for _, sector := range sectors {
		entry := ComparisonEntry{SectorCode: sector}
		if name, err := reg.LookupName(sector, codes.KindBasic); err == nil {
			entry.SectorName = name
		}
		r, err := c.ComputeImpact(src, typeID, sector, amount)
		if err != nil {
			entry.Err = err
			entry.Error = err.Error()
		} else {
			entry.Total = r.Total()
			entry.Rows = len(r.Impacts)
		}
		out.Entries = append(out.Entries, entry)
	}
	sort.SliceStable(out.Entries, func(i, j int) bool {
		a, b := out.Entries[i], out.Entries[j]
		if (a.Err == nil) != (b.Err == nil) {
			return a.Err == nil
		}
		return a.Total > b.Total
	})
	return out
}

// SensitivityPoint is the total impact of one tested demand change.
type SensitivityPoint struct {
	Amount float64 `json:"demand_change"`
	Total  float64 `json:"total_impact"`
	// Ratio is Total/Amount, or 0 when Amount is 0.
	Ratio float64 `json:"impact_ratio"`
}

// Sensitivity evaluates a sector under several demand changes. Because the
// model is linear the ratio is constant across non-zero amounts.
func (c *Calculator) Sensitivity(src coeff.Source, typeID, sector string, amounts []float64) ([]SensitivityPoint, error) {
	points := make([]SensitivityPoint, 0, len(amounts))
	for _, amount := range amounts {
		r, err := c.ComputeImpact(src, typeID, sector, amount)
		if err != nil {
			return nil, err
		}
		p := SensitivityPoint{Amount: amount, Total: r.Total()}
		if amount != 0 {
			p.Ratio = p.Total / amount
		}
		points = append(points, p)
	}
	return points, nil
}
