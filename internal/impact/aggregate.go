package impact

import (
	"math"
	"sort"

	"ioimpact/internal/codes"
	"ioimpact/internal/coeff"
)

// conservationTolerance is relative to max(1, Σ|impact|).
const conservationTolerance = 1e-6

// CategoryTotal is the summed impact of every row code in one category.
type CategoryTotal struct {
	Code  string  `json:"category_code"`
	Name  string  `json:"category_name"`
	Value float64 `json:"value"`
	Codes int     `json:"codes"`
}

// Aggregated is a Result rolled up into categories, sorted by category code.
type Aggregated struct {
	Type       string          `json:"coefficient_type"`
	Source     coeff.Source    `json:"data_source"`
	SectorCode string          `json:"sector_code"`
	Amount     float64         `json:"amount"`
	RowKind    codes.IndexKind `json:"row_kind"`
	Totals     []CategoryTotal `json:"totals"`
}

// Total returns the sum over all categories.
func (a Aggregated) Total() float64 {
	var total float64
	for _, ct := range a.Totals {
		total += ct.Value
	}
	return total
}

// Aggregate sums a result's impacts per category. Every row code is resolved
// in the code space named by the result's RowKind; an unresolved code fails
// the whole aggregation.
func Aggregate(reg *codes.Registry, r Result) (Aggregated, error) {
	sums := make(map[string]*CategoryTotal)
	for _, si := range r.Impacts {
		cat, err := reg.ResolveCategory(si.Code, r.RowKind)
		if err != nil {
			return Aggregated{}, err
		}
		ct, ok := sums[cat]
		if !ok {
			ct = &CategoryTotal{Code: cat, Name: reg.CategoryName(cat)}
			sums[cat] = ct
		}
		ct.Value += si.Value
		ct.Codes++
	}

	out := Aggregated{
		Type:       r.Type,
		Source:     r.Source,
		SectorCode: r.SectorCode,
		Amount:     r.Amount,
		RowKind:    r.RowKind,
		Totals:     make([]CategoryTotal, 0, len(sums)),
	}
	for _, ct := range sums {
		out.Totals = append(out.Totals, *ct)
	}
	sort.Slice(out.Totals, func(i, j int) bool { return out.Totals[i].Code < out.Totals[j].Code })

	expected := r.Total()
	if got := out.Total(); !conserved(expected, got, r.magnitude()) {
		return Aggregated{}, &ConservationError{Type: r.Type, SectorCode: r.SectorCode, Expected: expected, Got: got}
	}
	return out, nil
}

func conserved(expected, got, magnitude float64) bool {
	return math.Abs(expected-got) <= conservationTolerance*math.Max(1, magnitude)
}

// magnitude is the sum of absolute impacts.
func (r Result) magnitude() float64 {
	var m float64
	for _, si := range r.Impacts {
		m += math.Abs(si.Value)
	}
	return m
}
