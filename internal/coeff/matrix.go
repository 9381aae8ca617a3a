package coeff

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"ioimpact/internal/codes"
)

// Cell is one (row, column) coefficient as supplied by a source table.
type Cell struct {
	Row   string  `json:"row_code"`
	Col   string  `json:"column_code"`
	Value float64 `json:"value"`
}

// Entry is one row of a column vector.
type Entry struct {
	Code  string  `json:"code"`
	Value float64 `json:"value"`
}

// Matrix is an immutable sparse coefficient table of one Type.
//
// Rows are indexed by Type.RowKind; columns are always basic sectors (the
// sector whose demand changes).
type Matrix struct {
	typ      Type
	columns  map[string][]Entry
	rowCodes []string
	colCodes []string
	cells    int
}

// NewMatrix builds a Matrix from cells. Duplicate (row, column) pairs, empty
// codes and non-finite values are rejected.
func NewMatrix(t Type, cells []Cell) (*Matrix, error) {
	if t.ID == "" {
		return nil, errors.New("matrix type is empty")
	}
	if !t.RowKind.Valid() {
		return nil, fmt.Errorf("matrix %s: invalid row kind %q", t.ID, t.RowKind)
	}

	byCol := make(map[string]map[string]float64)
	rows := make(map[string]struct{})
	var errs []error
	for _, c := range cells {
		row := strings.TrimSpace(c.Row)
		col := strings.TrimSpace(c.Col)
		if row == "" || col == "" {
			errs = append(errs, fmt.Errorf("empty code in cell (%q, %q)", c.Row, c.Col))
			continue
		}
		if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
			errs = append(errs, fmt.Errorf("non-finite coefficient at (%s, %s)", row, col))
			continue
		}
		colMap, ok := byCol[col]
		if !ok {
			colMap = make(map[string]float64)
			byCol[col] = colMap
		}
		if _, dup := colMap[row]; dup {
			errs = append(errs, fmt.Errorf("duplicate coefficient at (%s, %s)", row, col))
			continue
		}
		colMap[row] = c.Value
		rows[row] = struct{}{}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("matrix %s: %w", t.ID, errors.Join(errs...))
	}

	m := &Matrix{
		typ:     t,
		columns: make(map[string][]Entry, len(byCol)),
		cells:   len(cells),
	}
	for col, colMap := range byCol {
		entries := make([]Entry, 0, len(colMap))
		for row, v := range colMap {
			entries = append(entries, Entry{Code: row, Value: v})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Code < entries[j].Code })
		m.columns[col] = entries
		m.colCodes = append(m.colCodes, col)
	}
	for row := range rows {
		m.rowCodes = append(m.rowCodes, row)
	}
	sort.Strings(m.colCodes)
	sort.Strings(m.rowCodes)
	return m, nil
}

func (m *Matrix) Type() Type { return m.typ }

func (m *Matrix) RowKind() codes.IndexKind { return m.typ.RowKind }

// Len returns the number of recorded coefficients.
func (m *Matrix) Len() int { return m.cells }

// RowCodes returns the sorted row codes.
func (m *Matrix) RowCodes() []string { return append([]string(nil), m.rowCodes...) }

// ColumnCodes returns the sorted column codes.
func (m *Matrix) ColumnCodes() []string { return append([]string(nil), m.colCodes...) }

// Column returns a copy of the column for col, ordered by row code.
func (m *Matrix) Column(col string) ([]Entry, bool) {
	entries, ok := m.columns[col]
	if !ok {
		return nil, false
	}
	return append([]Entry(nil), entries...), true
}

// Get returns the coefficient at (row, col).
func (m *Matrix) Get(row, col string) (float64, bool) {
	entries, ok := m.columns[col]
	if !ok {
		return 0, false
	}
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Code >= row })
	if i < len(entries) && entries[i].Code == row {
		return entries[i].Value, true
	}
	return 0, false
}

// Cells returns every coefficient ordered by column, then row.
func (m *Matrix) Cells() []Cell {
	out := make([]Cell, 0, m.cells)
	for _, col := range m.colCodes {
		for _, e := range m.columns[col] {
			out = append(out, Cell{Row: e.Code, Col: col, Value: e.Value})
		}
	}
	return out
}

// Sum returns the sum of all coefficients.
func (m *Matrix) Sum() float64 {
	var total float64
	for _, col := range m.colCodes {
		for _, e := range m.columns[col] {
			total += e.Value
		}
	}
	return total
}

// Square checks that the matrix is basic-sector indexed and that its row and
// column code sets are identical. Missing cells inside the square count as
// zero.
func (m *Matrix) Square() error {
	if m.typ.RowKind != codes.KindBasic {
		return &DimensionMismatchError{
			Name:   m.typ.ID,
			Rows:   len(m.rowCodes),
			Cols:   len(m.colCodes),
			Reason: fmt.Sprintf("rows are indexed by %s codes, columns by basic codes", m.typ.RowKind),
		}
	}
	cols := make(map[string]struct{}, len(m.colCodes))
	for _, c := range m.colCodes {
		cols[c] = struct{}{}
	}
	var missing []string
	for _, r := range m.rowCodes {
		if _, ok := cols[r]; !ok {
			missing = append(missing, "column "+r)
		}
		delete(cols, r)
	}
	for c := range cols {
		missing = append(missing, "row "+c)
	}
	if len(missing) > 0 || len(m.rowCodes) != len(m.colCodes) {
		sort.Strings(missing)
		return &DimensionMismatchError{
			Name:    m.typ.ID,
			Rows:    len(m.rowCodes),
			Cols:    len(m.colCodes),
			Missing: missing,
			Reason:  "row and column sectors differ",
		}
	}
	return nil
}
