package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"ioimpact/internal/batch"
)

// ConsoleSink prints batch results to a terminal.
//
// Formats:
//   - text: an aligned table of rows, rendered on Close, then a summary line
//   - json: a single JSON array of rows on Close
//   - ndjson: one Event per line as it arrives
type ConsoleSink struct {
	writer          io.Writer
	format          string // "text", "json", "ndjson"
	mu              sync.Mutex
	rows            []batch.Row
	allowedStatuses map[batch.Status]bool
}

func NewConsoleSink(w io.Writer, format string, filterStatuses []string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}

	s := &ConsoleSink{
		writer: w,
		format: format,
	}

	if len(filterStatuses) > 0 {
		s.allowedStatuses = make(map[batch.Status]bool)
		for _, st := range filterStatuses {
			s.allowedStatuses[batch.Status(strings.ToUpper(strings.TrimSpace(st)))] = true
		}
	}

	return s
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(v)
}

func (s *ConsoleSink) allowed(r batch.Row) bool {
	return len(s.allowedStatuses) == 0 || s.allowedStatuses[r.Status]
}

func (s *ConsoleSink) writeLocked(v any) error {
	switch s.format {
	case "json", "text":
		r, ok := rowOf(v)
		if !ok || !s.allowed(r) {
			return nil
		}
		s.rows = append(s.rows, r)
		return nil
	case "ndjson":
		e, ok := eventOf(v)
		if !ok {
			return nil
		}
		if r, isRow := rowOf(v); isRow && !s.allowed(r) {
			return nil
		}
		return encodeLine(s.writer, e)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json":
		return encodeRows(s.writer, s.rows)
	case "text":
		return s.renderText()
	case "ndjson":
		return nil
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) renderText() error {
	if len(s.rows) == 0 {
		_, err := fmt.Fprintln(s.writer, "No result rows.")
		return err
	}
	t := RowsTable(s.rows)
	if err := t.Render(s.writer); err != nil {
		return err
	}
	failed := 0
	for _, r := range s.rows {
		if r.Status == batch.StatusError {
			failed++
		}
	}
	_, err := fmt.Fprintf(s.writer, "\n%d row(s), %d failed cell(s)\n", len(s.rows), failed)
	return err
}

// RowsTable lays batch rows out as a text table. Failed cells show their
// error kind and message in place of a category.
func RowsTable(rows []batch.Row) *TextTable {
	t := &TextTable{
		Headers: []string{"SCENARIO", "YEAR", "SOURCE", "SECTOR", "TYPE", "CATEGORY", "NAME", "AMOUNT", "IMPACT", "STATUS"},
		Right:   map[int]bool{1: true, 7: true, 8: true},
	}
	for _, r := range rows {
		year := ""
		if r.Year != 0 {
			year = strconv.Itoa(r.Year)
		}
		category, name, impact := r.CategoryCode, r.CategoryName, FormatNumber(r.Impact)
		if r.Status == batch.StatusError {
			category, name, impact = r.ErrorKind, r.Message, ""
		}
		t.Append(r.ScenarioID, year, string(r.DataSource), r.SourceSector, r.CoefficientType,
			category, name, FormatNumber(r.Amount), impact, string(r.Status))
	}
	return t
}
