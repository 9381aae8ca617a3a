package output

import (
	"ioimpact/internal/batch"

	"github.com/google/uuid"
)

// Lifecycle event types.
const (
	EventRunStarted  = "run.started"
	EventCellResult  = "cell.result"
	EventRunFinished = "run.finished"
)

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line):
// run.started, one cell.result per result row, then run.finished.
//
// JSON mode remains an aggregate of batch.Row values.
type Event struct {
	Type  string `json:"type"`
	RunID string `json:"run_id,omitempty"`
	*batch.Row
	Changes  int            `json:"changes,omitempty"`
	Summary  *batch.Summary `json:"summary,omitempty"`
	ExitCode int            `json:"exit_code,omitempty"`
}

// NewRunID returns a fresh identifier for one batch run.
func NewRunID() string {
	return uuid.NewString()
}

func eventFromRow(runID string, r batch.Row) Event {
	return Event{Type: EventCellResult, RunID: runID, Row: &r}
}

// RunStarted builds the opening event of a run.
func RunStarted(runID string, changes int) Event {
	return Event{Type: EventRunStarted, RunID: runID, Changes: changes}
}

// RunFinished builds the closing event of a run.
func RunFinished(runID string, s batch.Summary, exitCode int) Event {
	return Event{Type: EventRunFinished, RunID: runID, Summary: &s, ExitCode: exitCode}
}

// rowOf extracts the result row carried by v, which may be a batch.Row or a
// cell.result Event.
func rowOf(v any) (batch.Row, bool) {
	switch t := v.(type) {
	case batch.Row:
		return t, true
	case Event:
		if t.Type == EventCellResult && t.Row != nil {
			return *t.Row, true
		}
	}
	return batch.Row{}, false
}

// eventOf returns v as an Event, wrapping bare rows. Values of other types
// are not events.
func eventOf(v any) (Event, bool) {
	switch t := v.(type) {
	case Event:
		return t, true
	case batch.Row:
		return eventFromRow("", t), true
	}
	return Event{}, false
}
