package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"ioimpact/internal/batch"
)

// RunDocument is the single JSON object an EmitSink in json mode writes for a
// run. Summary and ExitCode are empty until the run.finished event arrives.
type RunDocument struct {
	RunID    string         `json:"run_id,omitempty"`
	Changes  int            `json:"changes"`
	Summary  *batch.Summary `json:"summary,omitempty"`
	ExitCode *int           `json:"exit_code,omitempty"`
	Rows     []batch.Row    `json:"rows"`
}

// EmitSink writes machine-readable run output for downstream tools.
//
// In json mode rows and lifecycle events fold into one RunDocument written on
// Close. In ndjson mode every event is written as it arrives.
type EmitSink struct {
	writer io.Writer
	ndjson bool
	mu     sync.Mutex
	doc    RunDocument
}

func NewEmitSink(w io.Writer, format string) (*EmitSink, error) {
	if w == nil {
		return nil, fmt.Errorf("emit sink writer must not be nil")
	}
	if format != "json" && format != "ndjson" {
		return nil, fmt.Errorf("unsupported emit format: %s", format)
	}
	return &EmitSink{writer: w, ndjson: format == "ndjson"}, nil
}

func (s *EmitSink) Write(v any) error {
	e, ok := eventOf(v)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ndjson {
		return encodeLine(s.writer, e)
	}

	if e.RunID != "" {
		s.doc.RunID = e.RunID
	}
	switch e.Type {
	case EventRunStarted:
		s.doc.Changes = e.Changes
	case EventCellResult:
		if e.Row != nil {
			s.doc.Rows = append(s.doc.Rows, *e.Row)
		}
	case EventRunFinished:
		s.doc.Summary = e.Summary
		code := e.ExitCode
		s.doc.ExitCode = &code
	}
	return nil
}

func (s *EmitSink) Close() error {
	if s.ndjson {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.doc
	if doc.Rows == nil {
		doc.Rows = []batch.Row{}
	}
	enc := json.NewEncoder(s.writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return flush(s.writer)
}
