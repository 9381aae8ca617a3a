package output

import (
	"errors"
	"fmt"

	"ioimpact/internal/batch"
)

// Sink defines a destination for batch rows and lifecycle events.
type Sink interface {
	Write(v any) error
	Close() error
}

// Manager coordinates writing results to multiple sinks.
type Manager struct {
	sinks []Sink
	runID string
}

func NewManager(runID string) *Manager {
	return &Manager{runID: runID}
}

// RunID is the identifier stamped on events published through the manager.
func (m *Manager) RunID() string {
	return m.runID
}

func (m *Manager) AddSink(s Sink) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	if s == nil {
		return fmt.Errorf("sink must not be nil")
	}
	m.sinks = append(m.sinks, s)
	return nil
}

func (m *Manager) Write(v any) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	if r, ok := v.(batch.Row); ok {
		v = eventFromRow(m.runID, r)
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(v); err != nil {
			errs = append(errs, fmt.Errorf("write %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors writing to sinks: %w", errors.Join(errs...))
	}
	return nil
}

// WriteTable publishes a finished batch table: run.started, every row in
// table order, then run.finished.
func (m *Manager) WriteTable(table *batch.Table, changes, exitCode int) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	add(m.Write(RunStarted(m.runID, changes)))
	var summary batch.Summary
	if table != nil {
		for _, r := range table.Rows {
			add(m.Write(r))
		}
		summary = table.Summary()
	}
	add(m.Write(RunFinished(m.runID, summary, exitCode)))
	return errors.Join(errs...)
}

func (m *Manager) Close() error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sinks: %w", errors.Join(errs...))
	}
	return nil
}
