package batch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"ioimpact/internal/impact"
)

// Recorder observes finished cells. internal/metrics provides a Prometheus
// implementation.
type Recorder interface {
	ObserveCell(typeID string, status Status, errorKind string, d time.Duration)
}

// Options configure a Processor.
type Options struct {
	// Concurrency bounds the number of cells computed at once. Defaults to 1.
	Concurrency int
	Logger      *slog.Logger
	Recorder    Recorder
	// OnCell, when set, is called from the collecting goroutine for every
	// finished cell in completion order.
	OnCell func(CellResult)
}

// Processor runs demand-change schedules.
type Processor struct {
	calc *impact.Calculator
	opts Options
}

func NewProcessor(calc *impact.Calculator, opts Options) (*Processor, error) {
	if calc == nil {
		return nil, errors.New("calculator is nil")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Processor{calc: calc, opts: opts}, nil
}

// Run computes every (change, type) cell and returns the sorted table. A
// failing cell becomes one ERROR row and never stops its siblings.
//
// When ctx is canceled, Run stops starting new cells and returns the rows of
// every cell that finished together with the context error.
func (p *Processor) Run(ctx context.Context, changes []impact.DemandChange, typeIDs []string) (*Table, error) {
	plan, err := NewPlan(p.calc.Store(), changes, typeIDs)
	if err != nil {
		return nil, err
	}
	sched, err := NewScheduler(p.calc, p.opts.Concurrency)
	if err != nil {
		return nil, err
	}

	log := p.opts.Logger
	log.Debug("batch planned", "changes", len(changes), "cells", len(plan.Cells), "concurrency", p.opts.Concurrency)

	start := time.Now()
	resCh, errCh := sched.Execute(ctx, plan)

	table := &Table{}
	for res := range resCh {
		table.Cells++
		if res.Err != nil {
			log.Debug("cell failed",
				"scenario", res.Cell.Change.ScenarioID,
				"year", res.Cell.Change.Year,
				"sector", res.Cell.Change.SectorCode,
				"type", res.Cell.TypeID,
				"kind", ErrorKind(res.Err),
				"err", res.Err)
		}
		for i := range res.Rows {
			// Input order: change first, then type, then category.
			res.Rows[i].cell = res.Cell.Index
			res.Rows[i].pos = i
		}
		table.Rows = append(table.Rows, res.Rows...)

		if p.opts.Recorder != nil {
			status := StatusOK
			if res.Err != nil {
				status = StatusError
			}
			p.opts.Recorder.ObserveCell(res.Cell.TypeID, status, ErrorKind(res.Err), res.Duration)
		}
		if p.opts.OnCell != nil {
			p.opts.OnCell(res)
		}
	}

	var runErr error
	for err := range errCh {
		if err != nil {
			runErr = err
		}
	}

	SortRows(table.Rows)

	sum := table.Summary()
	log.Info("batch finished",
		"cells", sum.Cells,
		"planned", len(plan.Cells),
		"failed_cells", sum.FailedCells,
		"rows", sum.Rows,
		"elapsed", time.Since(start).Round(time.Millisecond))
	if runErr != nil {
		log.Warn("batch stopped early", "err", runErr, "skipped_cells", len(plan.Cells)-table.Cells)
	}
	return table, runErr
}

// ExitCode maps a run outcome to the CLI exit contract: 0 clean, 2 when some
// cells failed or the run stopped early, 3 when the batch could not run.
func ExitCode(table *Table, err error) int {
	if table == nil {
		return 3
	}
	if err != nil || table.Summary().FailedCells > 0 {
		return 2
	}
	return 0
}
