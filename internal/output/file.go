package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"ioimpact/internal/batch"

	"github.com/xuri/excelize/v2"
)

// rowColumns is the header shared by the tabular file formats.
var rowColumns = []string{
	"scenario_id", "year", "data_source", "source_sector_code", "coefficient_type",
	"category_code", "category_name", "amount", "impact_value", "status", "error_kind", "message",
}

func rowRecord(r batch.Row) []string {
	year, impact := "", ""
	if r.Year != 0 {
		year = strconv.Itoa(r.Year)
	}
	if r.Status != batch.StatusError {
		impact = strconv.FormatFloat(r.Impact, 'f', -1, 64)
	}
	return []string{
		r.ScenarioID,
		year,
		string(r.DataSource),
		r.SourceSector,
		r.CoefficientType,
		r.CategoryCode,
		r.CategoryName,
		strconv.FormatFloat(r.Amount, 'f', -1, 64),
		impact,
		string(r.Status),
		r.ErrorKind,
		r.Message,
	}
}

// FileSink writes the result table to a file.
//
// Formats:
//   - json: a single JSON array of rows
//   - ndjson: one Event per line
//   - csv: UTF-8 with a byte order mark so spreadsheet tools detect the
//     encoding of non-ASCII sector names
//   - xlsx: one "results" sheet with a bold header row
type FileSink struct {
	path   string
	format string
	file   *os.File
	mu     sync.Mutex
	rows   []batch.Row
}

func NewFileSink(path string, format string) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("output path required")
	}

	// Infer format if not provided
	if format == "" {
		ext := strings.ToLower(filepath.Ext(path))
		switch ext {
		case ".json":
			format = "json"
		case ".ndjson", ".jsonl":
			format = "ndjson"
		case ".csv":
			format = "csv"
		case ".xlsx":
			format = "xlsx"
		default:
			return nil, fmt.Errorf("cannot infer output format from file extension %q", ext)
		}
	}

	switch format {
	case "json", "ndjson", "csv", "xlsx":
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	s := &FileSink{path: path, format: format}
	// The workbook is written in one go on Close.
	if format == "xlsx" {
		return s, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	s.file = f
	return s, nil
}

func (s *FileSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "ndjson" {
		e, ok := eventOf(v)
		if !ok {
			return nil
		}
		return encodeLine(s.file, e)
	}
	if r, ok := rowOf(v); ok {
		s.rows = append(s.rows, r)
	}
	return nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch s.format {
	case "json":
		err = encodeRows(s.file, s.rows)
	case "csv":
		err = s.writeCSV()
	case "xlsx":
		return s.writeXLSX()
	}

	if closeErr := s.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func (s *FileSink) writeCSV() error {
	if _, err := s.file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	w := csv.NewWriter(s.file)
	if err := w.Write(rowColumns); err != nil {
		return err
	}
	for _, r := range s.rows {
		if err := w.Write(rowRecord(r)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (s *FileSink) writeXLSX() error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "results"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	header := make([]any, len(rowColumns))
	for i, c := range rowColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return err
	}

	for i, r := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{
			r.ScenarioID, r.Year, string(r.DataSource), r.SourceSector, r.CoefficientType,
			r.CategoryCode, r.CategoryName, r.Amount, r.Impact, string(r.Status), r.ErrorKind, r.Message,
		}
		if r.Status == batch.StatusError {
			// Failed cells carry no impact.
			values[8] = nil
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
