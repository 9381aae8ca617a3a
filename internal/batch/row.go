// Package batch runs demand-change schedules over every applicable
// coefficient type and assembles the long-form result table.
package batch

import (
	"sort"

	"ioimpact/internal/coeff"
)

type Status string

const (
	StatusOK    Status = "OK"
	StatusError Status = "ERROR"
)

// Row is one line of the long-form result table. A successful cell yields one
// row per category; a failed cell yields exactly one ERROR row with an empty
// category.
type Row struct {
	ScenarioID      string       `json:"scenario_id"`
	Year            int          `json:"year"`
	DataSource      coeff.Source `json:"data_source"`
	SourceSector    string       `json:"source_sector_code"`
	CoefficientType string       `json:"coefficient_type"`
	CategoryCode    string       `json:"category_code"`
	CategoryName    string       `json:"category_name,omitempty"`
	Amount          float64      `json:"amount"`
	Impact          float64      `json:"impact_value"`
	Status          Status       `json:"status"`
	ErrorKind       string       `json:"error_kind,omitempty"`
	Message         string       `json:"message,omitempty"`

	// cell and pos locate the row in input order (cell index, then row within
	// the cell) and break sort ties.
	cell int
	pos  int
}

// Table is the result of a batch run.
type Table struct {
	Rows  []Row `json:"rows"`
	Cells int   `json:"cells"`
}

// Summary counts a table's cells and rows.
type Summary struct {
	Cells       int `json:"cells"`
	FailedCells int `json:"failed_cells"`
	Rows        int `json:"rows"`
	Scenarios   int `json:"scenarios"`
}

func (t *Table) Summary() Summary {
	s := Summary{Cells: t.Cells, Rows: len(t.Rows)}
	scenarios := make(map[string]struct{})
	for _, r := range t.Rows {
		scenarios[r.ScenarioID] = struct{}{}
		if r.Status == StatusError {
			s.FailedCells++
		}
	}
	s.Scenarios = len(scenarios)
	return s
}

// Errors returns the ERROR rows in table order.
func (t *Table) Errors() []Row {
	var out []Row
	for _, r := range t.Rows {
		if r.Status == StatusError {
			out = append(out, r)
		}
	}
	return out
}

// ScenarioTotals sums successful impacts per (scenario, coefficient type).
// The result is keyed by scenario, then type.
func (t *Table) ScenarioTotals() map[string]map[string]float64 {
	out := make(map[string]map[string]float64)
	for _, r := range t.Rows {
		if r.Status != StatusOK {
			continue
		}
		byType, ok := out[r.ScenarioID]
		if !ok {
			byType = make(map[string]float64)
			out[r.ScenarioID] = byType
		}
		byType[r.CoefficientType] += r.Impact
	}
	return out
}

// SortRows orders rows by (scenario, year, sector, coefficient type,
// category), falling back to input order.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.ScenarioID != b.ScenarioID {
			return a.ScenarioID < b.ScenarioID
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.SourceSector != b.SourceSector {
			return a.SourceSector < b.SourceSector
		}
		if a.CoefficientType != b.CoefficientType {
			return a.CoefficientType < b.CoefficientType
		}
		if a.CategoryCode != b.CategoryCode {
			return a.CategoryCode < b.CategoryCode
		}
		if a.cell != b.cell {
			return a.cell < b.cell
		}
		return a.pos < b.pos
	})
}
