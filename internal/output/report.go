package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"ioimpact/internal/batch"
)

// maxErrorsPerKind bounds the example list printed for each error kind.
const maxErrorsPerKind = 10

// ReportSink writes a Markdown summary of a batch run on Close.
type ReportSink struct {
	path         string
	file         *os.File
	mu           sync.Mutex
	rows         []batch.Row
	runID        string
	cells        int
	exitCode     int
	haveExitCode bool
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	return &ReportSink{path: path, file: f}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := rowOf(v); ok {
		s.rows = append(s.rows, r)
		return nil
	}
	e, ok := v.(Event)
	if !ok {
		return nil
	}
	if e.RunID != "" {
		s.runID = e.RunID
	}
	if e.Type == EventRunFinished {
		s.exitCode = e.ExitCode
		s.haveExitCode = true
		if e.Summary != nil {
			s.cells = e.Summary.Cells
		}
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table := &batch.Table{Rows: s.rows, Cells: s.cells}
	summary := table.Summary()

	var b strings.Builder
	b.WriteString("# Impact Batch Report\n\n")
	if s.runID != "" {
		fmt.Fprintf(&b, "Run `%s`", s.runID)
		if s.haveExitCode {
			fmt.Fprintf(&b, " finished with exit code %d", s.exitCode)
		}
		b.WriteString(".\n\n")
	}

	b.WriteString("## Summary\n\n")
	b.WriteString("| Scenarios | Cells | Failed cells | Rows |\n")
	b.WriteString("| ---: | ---: | ---: | ---: |\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d |\n\n", summary.Scenarios, summary.Cells, summary.FailedCells, summary.Rows)

	writeScenarioTotals(&b, table)
	writeErrors(&b, table.Errors())

	if _, err := s.file.WriteString(b.String()); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}

func writeScenarioTotals(b *strings.Builder, table *batch.Table) {
	b.WriteString("## Scenario Totals\n\n")
	totals := table.ScenarioTotals()
	if len(totals) == 0 {
		b.WriteString("No successful cells.\n\n")
		return
	}

	scenarios := make([]string, 0, len(totals))
	for id := range totals {
		scenarios = append(scenarios, id)
	}
	sort.Strings(scenarios)

	b.WriteString("| Scenario | Coefficient type | Total impact |\n")
	b.WriteString("| --- | --- | ---: |\n")
	for _, id := range scenarios {
		types := make([]string, 0, len(totals[id]))
		for typ := range totals[id] {
			types = append(types, typ)
		}
		sort.Strings(types)
		for _, typ := range types {
			fmt.Fprintf(b, "| %s | %s | %s |\n", escapeCell(id), typ, FormatNumber(totals[id][typ]))
		}
	}
	b.WriteString("\n")
}

func writeErrors(b *strings.Builder, errs []batch.Row) {
	b.WriteString("## Errors\n\n")
	if len(errs) == 0 {
		b.WriteString("No failed cells.\n")
		return
	}

	byKind := make(map[string][]batch.Row)
	for _, r := range errs {
		byKind[r.ErrorKind] = append(byKind[r.ErrorKind], r)
	}
	kinds := make([]string, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	// Most frequent kind first.
	sort.Slice(kinds, func(i, j int) bool {
		if len(byKind[kinds[i]]) != len(byKind[kinds[j]]) {
			return len(byKind[kinds[i]]) > len(byKind[kinds[j]])
		}
		return kinds[i] < kinds[j]
	})

	for _, k := range kinds {
		rows := byKind[k]
		fmt.Fprintf(b, "### %s (%d)\n\n", k, len(rows))
		for i, r := range rows {
			if i == maxErrorsPerKind {
				fmt.Fprintf(b, "- +%d more\n", len(rows)-maxErrorsPerKind)
				break
			}
			where := r.ScenarioID
			if r.Year != 0 {
				where = fmt.Sprintf("%s/%d", where, r.Year)
			}
			typ := r.CoefficientType
			if typ == "" {
				typ = "-"
			}
			fmt.Fprintf(b, "- `%s` %s %s %s: %s\n", where, r.DataSource, r.SourceSector, typ, r.Message)
		}
		b.WriteString("\n")
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
