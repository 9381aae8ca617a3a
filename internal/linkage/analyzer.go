// Package linkage derives backward and forward linkage indices and output,
// value-added and employment multipliers from a square production
// coefficient matrix.
package linkage

import (
	"fmt"
	"sync"

	"ioimpact/internal/codes"
	"ioimpact/internal/coeff"

	"golang.org/x/sync/singleflight"
)

// Record holds the linkage indices of one sector.
type Record struct {
	SectorCode         string  `json:"sector_code"`
	SectorName         string  `json:"sector_name"`
	Backward           float64 `json:"backward_linkage"`
	Forward            float64 `json:"forward_linkage"`
	BackwardNormalized float64 `json:"backward_normalized"`
	ForwardNormalized  float64 `json:"forward_normalized"`
}

// IsKeySector reports whether both normalized linkages strictly exceed
// threshold.
func (r Record) IsKeySector(threshold float64) bool {
	return r.BackwardNormalized > threshold && r.ForwardNormalized > threshold
}

// Combined is the sum of both normalized linkages, used for ranking.
func (r Record) Combined() float64 {
	return r.BackwardNormalized + r.ForwardNormalized
}

// Table is the linkage record of every sector plus the cross-sector means.
type Table struct {
	Records     []Record `json:"sectors"`
	AvgBackward float64  `json:"avg_backward"`
	AvgForward  float64  `json:"avg_forward"`
}

// Multipliers are the column multipliers of one sector. ValueAdded and
// Employment are nil when the corresponding vector was not supplied.
type Multipliers struct {
	SectorCode string   `json:"sector_code"`
	SectorName string   `json:"sector_name"`
	Output     float64  `json:"output_multiplier"`
	ValueAdded *float64 `json:"value_added_multiplier,omitempty"`
	Employment *float64 `json:"employment_multiplier,omitempty"`

	Interpretation Interpretation `json:"interpretation"`
}

// Interpretation states each multiplier in plain language. A multiplier that
// could not be computed has an empty sentence.
type Interpretation struct {
	Output     string `json:"output"`
	ValueAdded string `json:"value_added,omitempty"`
	Employment string `json:"employment,omitempty"`
}

func interpret(m Multipliers) Interpretation {
	name := m.SectorCode
	if m.SectorName != "" {
		name = m.SectorName
	}
	in := Interpretation{
		Output: fmt.Sprintf("Each million of final demand for %s generates %.4f million of output across the economy.", name, m.Output),
	}
	if m.ValueAdded != nil {
		in.ValueAdded = fmt.Sprintf("Each million of final demand for %s generates %.4f million of value added.", name, *m.ValueAdded)
	}
	if m.Employment != nil {
		in.Employment = fmt.Sprintf("Each million of final demand for %s supports %.4f jobs.", name, *m.Employment)
	}
	return in
}

// Analyzer computes linkages over one matrix. The linkage table is computed on
// first use and shared by all later callers.
type Analyzer struct {
	reg        *codes.Registry
	matrix     *coeff.Matrix
	valueAdded *coeff.Vector
	employment *coeff.Vector
	sectors    []string
	index      map[string]int

	group singleflight.Group
	mu    sync.RWMutex
	table *Table
}

// NewAnalyzer checks that m is square and basic-sector indexed and that every
// supplied vector covers all of its sectors. valueAdded and employment may be
// nil.
func NewAnalyzer(reg *codes.Registry, m *coeff.Matrix, valueAdded, employment *coeff.Vector) (*Analyzer, error) {
	if reg == nil {
		return nil, fmt.Errorf("linkage: nil code registry")
	}
	if m == nil {
		return nil, fmt.Errorf("linkage: nil matrix")
	}
	if err := m.Square(); err != nil {
		return nil, err
	}
	sectors := m.RowCodes()
	for _, v := range []*coeff.Vector{valueAdded, employment} {
		if v == nil {
			continue
		}
		if err := v.Covers(sectors); err != nil {
			return nil, err
		}
	}
	index := make(map[string]int, len(sectors))
	for i, s := range sectors {
		index[s] = i
	}
	return &Analyzer{
		reg:        reg,
		matrix:     m,
		valueAdded: valueAdded,
		employment: employment,
		sectors:    sectors,
		index:      index,
	}, nil
}

// FromStore builds an Analyzer over the indirect production matrix of src and
// the store's value-added and employment vectors, when loaded.
func FromStore(store *coeff.Store, src coeff.Source) (*Analyzer, error) {
	typeID := coeff.TypeIndirectProd
	if src == coeff.SourceHydrogen {
		typeID = coeff.TypeH2IndirectProd
	}
	m, err := store.Matrix(src, typeID)
	if err != nil {
		return nil, err
	}
	va, _ := store.Vector(coeff.VectorValueAdded)
	emp, _ := store.Vector(coeff.VectorEmployment)
	return NewAnalyzer(store.Registry(), m, va, emp)
}

// Sectors returns the sector codes of the matrix in code order.
func (a *Analyzer) Sectors() []string { return append([]string(nil), a.sectors...) }

// Linkages returns the linkage table.
func (a *Analyzer) Linkages() *Table {
	a.mu.RLock()
	t := a.table
	a.mu.RUnlock()
	if t != nil {
		return t
	}

	v, _, _ := a.group.Do("linkages", func() (interface{}, error) {
		t := a.compute()
		a.mu.Lock()
		a.table = t
		a.mu.Unlock()
		return t, nil
	})
	return v.(*Table)
}

// Linkage returns the record of one sector.
func (a *Analyzer) Linkage(sector string) (Record, error) {
	i, ok := a.index[sector]
	if !ok {
		return Record{}, &coeff.UnknownSectorError{Type: a.matrix.Type().ID, Source: a.matrix.Type().Source, Sector: sector}
	}
	return a.Linkages().Records[i], nil
}

func (a *Analyzer) compute() *Table {
	n := len(a.sectors)
	colSums := make([]float64, n)
	rowSums := make([]float64, n)
	for _, c := range a.matrix.Cells() {
		colSums[a.index[c.Col]] += c.Value
		rowSums[a.index[c.Row]] += c.Value
	}

	t := &Table{Records: make([]Record, n)}
	if n == 0 {
		return t
	}
	for i, code := range a.sectors {
		name, _ := a.reg.LookupName(code, codes.KindBasic)
		r := Record{
			SectorCode: code,
			SectorName: name,
			Backward:   colSums[i] / float64(n),
			Forward:    rowSums[i] / float64(n),
		}
		t.AvgBackward += r.Backward
		t.AvgForward += r.Forward
		t.Records[i] = r
	}
	t.AvgBackward /= float64(n)
	t.AvgForward /= float64(n)

	for i := range t.Records {
		t.Records[i].BackwardNormalized = normalize(t.Records[i].Backward, t.AvgBackward)
		t.Records[i].ForwardNormalized = normalize(t.Records[i].Forward, t.AvgForward)
	}
	return t
}

// normalize returns 0 for a zero mean rather than dividing by it.
func normalize(v, mean float64) float64 {
	if mean == 0 {
		return 0
	}
	return v / mean
}

// Multipliers returns the multipliers of one sector (column).
func (a *Analyzer) Multipliers(sector string) (Multipliers, error) {
	column, ok := a.matrix.Column(sector)
	if !ok {
		return Multipliers{}, &coeff.UnknownSectorError{Type: a.matrix.Type().ID, Source: a.matrix.Type().Source, Sector: sector}
	}
	name, _ := a.reg.LookupName(sector, codes.KindBasic)
	out := Multipliers{SectorCode: sector, SectorName: name}

	var va, emp float64
	for _, e := range column {
		out.Output += e.Value
		if a.valueAdded != nil {
			v, _ := a.valueAdded.Get(e.Code)
			va += v * e.Value
		}
		if a.employment != nil {
			v, _ := a.employment.Get(e.Code)
			emp += coeff.UnitPersonsPerBillion.Scale(v) * e.Value
		}
	}
	if a.valueAdded != nil {
		out.ValueAdded = &va
	}
	if a.employment != nil {
		out.Employment = &emp
	}
	out.Interpretation = interpret(out)
	return out, nil
}
