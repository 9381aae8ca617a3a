package output

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ioimpact/internal/batch"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/xuri/excelize/v2"
)

func init() {
	color.NoColor = true
}

func TestEmitSink_JSON(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewEmitSink(&buf, "json")
	if err != nil {
		t.Fatalf("NewEmitSink returned error: %v", err)
	}

	_ = s.Write(RunStarted("r", 2))
	_ = s.Write(okRow("s", "indirect_prod", "X", 1))
	_ = s.Write(eventFromRow("r", errRow("s", batch.KindUnknownSector, "no column")))
	_ = s.Write(RunFinished("r", batch.Summary{Cells: 2, FailedCells: 1, Rows: 2, Scenarios: 1}, 2))
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	var got RunDocument
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal json output: %v", err)
	}
	if got.RunID != "r" || got.Changes != 2 {
		t.Fatalf("unexpected run header: %+v", got)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got.Rows))
	}
	if got.Rows[1].Status != batch.StatusError || got.Rows[1].ErrorKind != batch.KindUnknownSector {
		t.Fatalf("unexpected error row: %+v", got.Rows[1])
	}
	if got.Summary == nil || got.Summary.FailedCells != 1 || got.ExitCode == nil || *got.ExitCode != 2 {
		t.Fatalf("unexpected run footer: summary=%+v exit=%v", got.Summary, got.ExitCode)
	}
}

func TestEmitSink_JSON_EmptyHasRowsArray(t *testing.T) {
	var buf bytes.Buffer
	s, _ := NewEmitSink(&buf, "json")
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if !strings.Contains(buf.String(), `"rows": []`) {
		t.Fatalf("expected an empty rows array, got %q", buf.String())
	}
	if strings.Contains(buf.String(), "exit_code") {
		t.Fatalf("exit_code must be omitted before run.finished, got %q", buf.String())
	}
}

func TestEmitSink_NDJSON(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewEmitSink(&buf, "ndjson")
	if err != nil {
		t.Fatalf("NewEmitSink returned error: %v", err)
	}

	_ = s.Write(okRow("s", "indirect_prod", "X", 1))
	_ = s.Write(okRow("s", "indirect_prod", "Y", 2))
	_ = s.Write("ignored")
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 ndjson lines, got %d", len(lines))
	}
	for _, line := range lines {
		var e Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
		if e.Type != EventCellResult {
			t.Fatalf("expected event type %s, got %q", EventCellResult, e.Type)
		}
		if e.Row == nil || e.ScenarioID != "s" {
			t.Fatalf("expected event to carry the row, got %+v", e)
		}
	}
}

func TestEmitSink_InvalidFormat(t *testing.T) {
	var buf bytes.Buffer
	if _, err := NewEmitSink(&buf, "text"); err == nil {
		t.Fatalf("expected error, got nil")
	}
	if _, err := NewEmitSink(nil, "json"); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestEmitSink_NDJSON_FlushesPerWrite(t *testing.T) {
	pr, pw := io.Pipe()
	defer pr.Close()
	defer pw.Close()

	bw := bufio.NewWriterSize(pw, 64*1024)
	s, err := NewEmitSink(bw, "ndjson")
	if err != nil {
		t.Fatalf("NewEmitSink returned error: %v", err)
	}

	lineCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		line, err := bufio.NewReader(pr).ReadString('\n')
		if err != nil {
			errCh <- err
			return
		}
		lineCh <- line
	}()

	if err := s.Write(RunStarted("r", 1)); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	select {
	case line := <-lineCh:
		if !strings.Contains(line, `"type":"run.started"`) {
			t.Fatalf("expected run.started event, got %q", line)
		}
	case err := <-errCh:
		t.Fatalf("read error: %v", err)
	case <-time.After(250 * time.Millisecond):
		t.Fatalf("timed out waiting for ndjson line; writer likely not flushing")
	}
}

func TestConsoleSink_Filtering(t *testing.T) {
	tests := []struct {
		name           string
		format         string
		filterStatuses []string
		input          batch.Row
		shouldWrite    bool
	}{
		{"text - no filter - ok", "text", nil, okRow("s", "t", "X", 1), true},
		{"text - filter error - input ok", "text", []string{"error"}, okRow("s", "t", "X", 1), false},
		{"text - filter error - input error", "text", []string{"ERROR"}, errRow("s", "UnknownSector", "m"), true},
		{"json - filter ok - input error", "json", []string{"OK"}, errRow("s", "UnknownSector", "m"), false},
		{"ndjson - filter ok - input ok", "ndjson", []string{"OK"}, okRow("s", "t", "X", 1), true},
		{"ndjson - filter ok - input error", "ndjson", []string{"OK"}, errRow("s", "UnknownSector", "m"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			s := NewConsoleSink(&buf, tt.format, tt.filterStatuses)
			if err := s.Write(tt.input); err != nil {
				t.Fatalf("Write error: %v", err)
			}
			if err := s.Close(); err != nil {
				t.Fatalf("Close error: %v", err)
			}
			out := buf.String()
			wrote := strings.Contains(out, string(tt.input.Status))
			if wrote != tt.shouldWrite {
				t.Fatalf("shouldWrite=%v, output: %q", tt.shouldWrite, out)
			}
		})
	}
}

func TestConsoleSink_Text_AlignsFullWidthNames(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf, "text", nil)
	r1 := okRow("s", "indirect_prod", "X", 400000)
	r1.CategoryName = "鉄鋼"
	r2 := okRow("s", "indirect_prod", "Y", 0.25)
	r2.CategoryName = "Steel"
	_ = s.Write(r1)
	_ = s.Write(r2)
	_ = s.Write(errRow("s", batch.KindUnknownSector, "no column"))
	if err := s.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// header, rule, 3 rows, blank, summary
	if len(lines) != 7 {
		t.Fatalf("expected 7 lines, got %d:\n%s", len(lines), buf.String())
	}
	// Full-width names occupy two cells per rune, so the AMOUNT column starts
	// at the same display column on both data rows.
	col := func(line, needle string) int {
		i := strings.Index(line, needle)
		if i < 0 {
			t.Fatalf("%q not found in %q", needle, line)
		}
		return runewidth.StringWidth(line[:i])
	}
	if a, b := col(lines[2], "1000"), col(lines[3], "1000"); a != b {
		t.Fatalf("amount column misaligned: %d vs %d\n%s", a, b, buf.String())
	}
	if !strings.Contains(lines[2], "400000") || !strings.Contains(lines[3], "0.25") {
		t.Fatalf("unexpected impact formatting:\n%s", buf.String())
	}
	if !strings.Contains(lines[4], "UnknownSector") || !strings.Contains(lines[4], "no column") {
		t.Fatalf("error row should show kind and message: %q", lines[4])
	}
	if lines[6] != "3 row(s), 1 failed cell(s)" {
		t.Fatalf("unexpected summary line %q", lines[6])
	}
}

func TestConsoleSink_Text_Empty(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf, "text", nil)
	if err := s.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if buf.String() != "No result rows.\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestConsoleSink_UnsupportedFormat(t *testing.T) {
	s := NewConsoleSink(&bytes.Buffer{}, "xml", nil)
	if err := s.Write(okRow("s", "t", "X", 1)); err == nil {
		t.Fatalf("expected error, got nil")
	}
	if err := s.Close(); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestNewFileSink_InferFormat(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out.json", "out.ndjson", "out.jsonl", "out.csv", "out.xlsx"} {
		s, err := NewFileSink(filepath.Join(dir, name), "")
		if err != nil {
			t.Fatalf("%s: expected no error, got %v", name, err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("%s: Close error: %v", name, err)
		}
	}

	_, err := NewFileSink(filepath.Join(dir, "out.unknown"), "")
	if err == nil || !strings.Contains(err.Error(), "cannot infer output format") {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = NewFileSink(filepath.Join(dir, "out.json"), "xml")
	if err == nil || !strings.Contains(err.Error(), "unsupported output format") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFileSink_CSV_WritesBOMAndBlankImpactForErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	s, err := NewFileSink(path, "")
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}
	_ = s.Write(RunStarted("r", 2))
	_ = s.Write(okRow("s", "indirect_prod", "X", 0.1))
	_ = s.Write(errRow("s", batch.KindUnknownSector, "no column, sorry"))
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatalf("expected UTF-8 BOM")
	}
	records, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	if err != nil {
		t.Fatalf("csv parse failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(rowColumns, ",") {
		t.Fatalf("unexpected header %v", records[0])
	}
	if records[1][8] != "0.1" || records[1][1] != "2030" {
		t.Fatalf("unexpected ok record %v", records[1])
	}
	if records[2][8] != "" || records[2][11] != "no column, sorry" {
		t.Fatalf("unexpected error record %v", records[2])
	}
}

func TestFileSink_NDJSON_StreamsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")
	s, err := NewFileSink(path, "")
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}
	_ = s.Write(RunStarted("r", 1))
	_ = s.Write(okRow("s", "indirect_prod", "X", 1))
	_ = s.Write(RunFinished("r", batch.Summary{Cells: 1, Rows: 1, Scenarios: 1}, 0))
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	var last Event
	if err := json.Unmarshal([]byte(lines[2]), &last); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if last.Type != EventRunFinished || last.Summary == nil || last.Summary.Cells != 1 {
		t.Fatalf("unexpected last event %+v", last)
	}
}

func TestFileSink_JSON(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.json")
	s, err := NewFileSink(empty, "")
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	data, _ := os.ReadFile(empty)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Fatalf("expected [] for no rows, got %q", data)
	}

	path := filepath.Join(dir, "out.json")
	s, err = NewFileSink(path, "")
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}
	_ = s.Write(okRow("s", "indirect_prod", "X", 1))
	_ = s.Write(errRow("s", "UnknownSector", "m"))
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	data, _ = os.ReadFile(path)
	var rows []batch.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(rows) != 2 || rows[0].Status != batch.StatusOK || rows[1].Status != batch.StatusError {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if !strings.Contains(string(data), "\n  {") {
		t.Fatalf("expected indented output, got %q", data)
	}
}

func TestFileSink_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	s, err := NewFileSink(path, "")
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}
	_ = s.Write(okRow("s", "indirect_prod", "X", 0.5))
	_ = s.Write(errRow("s", batch.KindUnknownSector, "no column"))
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("results")
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "scenario_id" || rows[1][8] != "0.5" {
		t.Fatalf("unexpected sheet contents %v", rows)
	}
	if rows[2][8] != "" || rows[2][10] != batch.KindUnknownSector {
		t.Fatalf("unexpected error row %v", rows[2])
	}
}

func TestReportSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	s, err := NewReportSink(path)
	if err != nil {
		t.Fatalf("NewReportSink failed: %v", err)
	}

	mgr := NewManager("run-42")
	_ = mgr.AddSink(s)
	table := &batch.Table{Cells: 4, Rows: []batch.Row{
		okRow("base", "indirect_prod", "X", 0.7),
		okRow("base", "indirect_prod", "Y", 0.3),
		okRow("high", "jobcoeff", "X", 2),
		errRow("high", batch.KindUnknownSector, "no column A|B"),
		errRow("high", batch.KindInvalidAmount, "amount NaN"),
	}}
	if err := mgr.WriteTable(table, 4, 2); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	report := string(data)
	for _, want := range []string{
		"# Impact Batch Report",
		"Run `run-42` finished with exit code 2.",
		"| 2 | 4 | 2 | 5 |",
		"| base | indirect_prod | 1 |",
		"| high | jobcoeff | 2 |",
		"### InvalidAmount (1)",
		"### UnknownSector (1)",
		"- `high/2030` io ZZZZ indirect_prod: amount NaN",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := map[float64]string{
		0:          "0",
		400000:     "400000",
		0.25:       "0.25",
		1.0 / 3:    "0.3333",
		-0.00001:   "0",
		-1234.5678: "-1234.5678",
	}
	for in, want := range tests {
		if got := FormatNumber(in); got != want {
			t.Fatalf("FormatNumber(%v) = %q, want %q", in, got, want)
		}
	}
}
