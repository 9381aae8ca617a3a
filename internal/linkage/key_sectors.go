package linkage

import (
	"fmt"
	"math"
	"sort"
)

// InvalidThresholdError reports a key-sector threshold that is not a finite
// number.
type InvalidThresholdError struct {
	Threshold float64
}

func (e *InvalidThresholdError) Error() string {
	return fmt.Sprintf("invalid key-sector threshold %v: must be a finite number", e.Threshold)
}

// KeySectorSummary classifies every sector against a threshold.
type KeySectorSummary struct {
	Key          int `json:"key_sectors_count"`
	BackwardOnly int `json:"backward_only_count"`
	ForwardOnly  int `json:"forward_only_count"`
	Weak         int `json:"weak_linkage_count"`
}

// KeySectors is the result of a key-sector identification.
type KeySectors struct {
	Threshold float64          `json:"threshold"`
	Sectors   []Record         `json:"key_sectors"`
	Summary   KeySectorSummary `json:"summary"`
}

// KeySectors returns the sectors whose normalized backward and forward
// linkages both strictly exceed threshold, ranked by combined normalized
// linkage (ties by code). The threshold has no default.
func (a *Analyzer) KeySectors(threshold float64) (KeySectors, error) {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return KeySectors{}, &InvalidThresholdError{Threshold: threshold}
	}
	out := KeySectors{Threshold: threshold}
	for _, r := range a.Linkages().Records {
		back := r.BackwardNormalized > threshold
		fwd := r.ForwardNormalized > threshold
		switch {
		case back && fwd:
			out.Summary.Key++
			out.Sectors = append(out.Sectors, r)
		case back:
			out.Summary.BackwardOnly++
		case fwd:
			out.Summary.ForwardOnly++
		default:
			out.Summary.Weak++
		}
	}
	sort.SliceStable(out.Sectors, func(i, j int) bool {
		ci, cj := out.Sectors[i].Combined(), out.Sectors[j].Combined()
		if ci != cj {
			return ci > cj
		}
		return out.Sectors[i].SectorCode < out.Sectors[j].SectorCode
	})
	return out, nil
}

// Ranked returns every record ordered by combined normalized linkage,
// largest first, truncated to limit when limit > 0.
func (t *Table) Ranked(limit int) []Record {
	out := append([]Record(nil), t.Records...)
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := out[i].Combined(), out[j].Combined()
		if ci != cj {
			return ci > cj
		}
		return out[i].SectorCode < out[j].SectorCode
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
