package loader

import (
	"errors"
	"fmt"

	"ioimpact/internal/coeff"
)

// matrixFromTable reads `row_code,column_code,value` rows into a matrix.
func matrixFromTable(t *table, typ coeff.Type) (*coeff.Matrix, error) {
	if err := t.require("row_code", "column_code", "value"); err != nil {
		return nil, err
	}
	cells := make([]coeff.Cell, 0, len(t.records))
	var errs []error
	for _, rec := range t.records {
		row, col := t.get(rec, "row_code"), t.get(rec, "column_code")
		if row == "" || col == "" {
			errs = append(errs, t.rowErr(rec, "row_code and column_code are required"))
			continue
		}
		v, err := t.float(rec, "value")
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cells = append(cells, coeff.Cell{Row: row, Col: col, Value: v})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	m, err := coeff.NewMatrix(typ, cells)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.path, err)
	}
	return m, nil
}

// vectorFromTable reads `sector_code,value` rows into a named vector.
func vectorFromTable(t *table, name string) (*coeff.Vector, error) {
	if err := t.require("sector_code", "value"); err != nil {
		return nil, err
	}
	entries := make([]coeff.Entry, 0, len(t.records))
	var errs []error
	for _, rec := range t.records {
		code := t.get(rec, "sector_code")
		if code == "" {
			errs = append(errs, t.rowErr(rec, "sector_code is required"))
			continue
		}
		v, err := t.float(rec, "value")
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entries = append(entries, coeff.Entry{Code: code, Value: v})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	v, err := coeff.NewVector(name, entries)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.path, err)
	}
	return v, nil
}
