// Package flows groups the inter-sector flows recorded in coefficient
// matrices forward (buyer to supplier) or backward (supplier to buyer).
package flows

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"ioimpact/internal/codes"
	"ioimpact/internal/coeff"
)

// Flow is one recorded coefficient: Input supplies Output.
type Flow struct {
	Table      string  `json:"table"`
	Output     string  `json:"output_sector_code"`
	OutputName string  `json:"output_sector_name"`
	Input      string  `json:"input_sector_code"`
	InputName  string  `json:"input_sector_name"`
	Value      float64 `json:"value"`
}

// FromMatrices flattens matrices into flows. Columns are the buying (output)
// sectors and rows the supplying (input) sectors; rows are named in the
// matrix's own code space.
func FromMatrices(reg *codes.Registry, ms ...*coeff.Matrix) []Flow {
	var out []Flow
	for _, m := range ms {
		if m == nil {
			continue
		}
		table := m.Type().ID
		kind := m.RowKind()
		for _, c := range m.Cells() {
			outName, _ := reg.LookupName(c.Col, codes.KindBasic)
			inName, _ := reg.LookupName(c.Row, kind)
			out = append(out, Flow{
				Table:      table,
				Output:     c.Col,
				OutputName: outName,
				Input:      c.Row,
				InputName:  inName,
				Value:      c.Value,
			})
		}
	}
	return out
}

// Aggregation combines the values of flows that share a sector pair.
type Aggregation string

const (
	Sum    Aggregation = "sum"
	Mean   Aggregation = "mean"
	Median Aggregation = "median"
	Max    Aggregation = "max"
	Min    Aggregation = "min"
)

func ParseAggregation(raw string) (Aggregation, error) {
	switch a := Aggregation(strings.ToLower(strings.TrimSpace(raw))); a {
	case Sum, Mean, Median, Max, Min:
		return a, nil
	case "":
		return Sum, nil
	default:
		return "", fmt.Errorf("unsupported aggregation %q (must be one of: sum, mean, median, max, min)", raw)
	}
}

func (a Aggregation) apply(vals []float64) float64 {
	switch a {
	case Mean:
		var s float64
		for _, v := range vals {
			s += v
		}
		return s / float64(len(vals))
	case Median:
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)
		n := len(sorted)
		if n%2 == 1 {
			return sorted[n/2]
		}
		return (sorted[n/2-1] + sorted[n/2]) / 2
	case Max:
		m := math.Inf(-1)
		for _, v := range vals {
			m = math.Max(m, v)
		}
		return m
	case Min:
		m := math.Inf(1)
		for _, v := range vals {
			m = math.Min(m, v)
		}
		return m
	default:
		var s float64
		for _, v := range vals {
			s += v
		}
		return s
	}
}

// Group is the aggregated value of one (sector, partner) pair.
type Group struct {
	Sector      string  `json:"sector_code"`
	SectorName  string  `json:"sector_name"`
	Partner     string  `json:"partner_code"`
	PartnerName string  `json:"partner_name"`
	Value       float64 `json:"value"`
	Count       int     `json:"count"`
}

// Forward groups flows by output sector, then by the input sectors it buys
// from. Groups are ordered by sector code, then value, largest first.
func Forward(flows []Flow, agg Aggregation) ([]Group, error) {
	return group(flows, agg, func(f Flow) (string, string, string, string) {
		return f.Output, f.OutputName, f.Input, f.InputName
	})
}

// Backward groups flows by input sector, then by the output sectors it
// supplies.
func Backward(flows []Flow, agg Aggregation) ([]Group, error) {
	return group(flows, agg, func(f Flow) (string, string, string, string) {
		return f.Input, f.InputName, f.Output, f.OutputName
	})
}

type pairKey struct{ sector, partner string }

func group(flows []Flow, agg Aggregation, key func(Flow) (string, string, string, string)) ([]Group, error) {
	if _, err := ParseAggregation(string(agg)); err != nil {
		return nil, err
	}
	vals := make(map[pairKey][]float64)
	groups := make(map[pairKey]*Group)
	for _, f := range flows {
		sector, sectorName, partner, partnerName := key(f)
		k := pairKey{sector, partner}
		if _, ok := groups[k]; !ok {
			groups[k] = &Group{Sector: sector, SectorName: sectorName, Partner: partner, PartnerName: partnerName}
		}
		vals[k] = append(vals[k], f.Value)
	}

	out := make([]Group, 0, len(groups))
	for k, g := range groups {
		g.Value = agg.apply(vals[k])
		g.Count = len(vals[k])
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sector != out[j].Sector {
			return out[i].Sector < out[j].Sector
		}
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Partner < out[j].Partner
	})
	return out, nil
}

// Summary describes a set of groups.
type Summary struct {
	Count int     `json:"total_records"`
	Total float64 `json:"total_value"`
	Mean  float64 `json:"mean_value"`
	Max   float64 `json:"max_value"`
	Min   float64 `json:"min_value"`
}

func Summarize(groups []Group) Summary {
	if len(groups) == 0 {
		return Summary{}
	}
	s := Summary{Count: len(groups), Max: math.Inf(-1), Min: math.Inf(1)}
	for _, g := range groups {
		s.Total += g.Value
		s.Max = math.Max(s.Max, g.Value)
		s.Min = math.Min(s.Min, g.Value)
	}
	s.Mean = s.Total / float64(s.Count)
	return s
}
