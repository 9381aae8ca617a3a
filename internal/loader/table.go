// Package loader reads long-form code, coefficient and schedule tables into
// the in-memory registry and store.
package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RowError locates a malformed input row.
type RowError struct {
	Path string
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type record struct {
	line   int
	fields []string
}

// table is a header-addressed view of a CSV file or spreadsheet sheet.
type table struct {
	path    string
	header  map[string]int
	records []record
}

func (t *table) rowErr(rec record, format string, args ...any) error {
	return &RowError{Path: t.path, Line: rec.line, Err: fmt.Errorf(format, args...)}
}

// require checks that every column is present in the header.
func (t *table) require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := t.header[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: missing column(s) %s", t.path, strings.Join(missing, ", "))
	}
	return nil
}

// get returns a trimmed cell, or "" when the column is absent or the row is
// short.
func (t *table) get(rec record, col string) string {
	i, ok := t.header[col]
	if !ok || i >= len(rec.fields) {
		return ""
	}
	return strings.TrimSpace(rec.fields[i])
}

func (t *table) float(rec record, col string) (float64, error) {
	raw := strings.ReplaceAll(t.get(rec, col), ",", "")
	if raw == "" {
		return 0, t.rowErr(rec, "%s is empty", col)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, t.rowErr(rec, "%s: %q is not a number", col, raw)
	}
	return v, nil
}

func newTable(path string, rows [][]string, lines []int) (*table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty table", path)
	}
	t := &table{path: path, header: make(map[string]int, len(rows[0]))}
	for i, h := range rows[0] {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if _, dup := t.header[h]; dup {
			return nil, fmt.Errorf("%s: duplicate column %q", path, h)
		}
		t.header[h] = i
	}
	for i, fields := range rows[1:] {
		if blank(fields) {
			continue
		}
		t.records = append(t.records, record{line: lines[i+1], fields: fields})
	}
	return t, nil
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// readCSV parses a UTF-8 CSV stream, dropping a leading byte order mark.
func readCSV(r io.Reader, path string) (*table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		rows  [][]string
		lines []int
	)
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, fields)
		lines = append(lines, line)
	}
	return newTable(path, rows, lines)
}

// readXLSX reads one sheet of a workbook; an empty sheet name selects the
// first sheet.
func readXLSX(path, sheet string) (*table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read %s[%s]: %w", path, sheet, err)
	}
	lines := make([]int, len(rows))
	for i := range rows {
		lines[i] = i + 1
	}
	return newTable(fmt.Sprintf("%s[%s]", path, sheet), rows, lines)
}

// readTable dispatches on the file extension.
func readTable(path, sheet string) (*table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path, sheet)
	case ".csv", ".txt", "":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return readCSV(f, path)
	default:
		return nil, fmt.Errorf("%s: unsupported table format %q", path, filepath.Ext(path))
	}
}
