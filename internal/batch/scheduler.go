package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ioimpact/internal/impact"
)

// CellResult is the outcome of one cell. Rows always holds at least one row:
// the category rows on success, a single ERROR row otherwise.
type CellResult struct {
	Cell     Cell
	Rows     []Row
	Err      error
	Duration time.Duration
}

type Scheduler struct {
	calc        *impact.Calculator
	concurrency int
}

func NewScheduler(calc *impact.Calculator, concurrency int) (*Scheduler, error) {
	if calc == nil {
		return nil, errors.New("calculator is nil")
	}
	if concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be >= 1, got %d", concurrency)
	}
	return &Scheduler{calc: calc, concurrency: concurrency}, nil
}

// Execute streams one CellResult per executed cell.
//
// Channel semantics:
//   - Without cancellation exactly one CellResult is sent per cell.
//   - Cancellation is checked before each cell starts; cells already running
//     finish and are still delivered, so fewer than N results may be sent.
//   - The results channel and error channel are both closed reliably.
//   - The error channel carries fatal errors and the cancellation cause;
//     per-cell failures are recorded on CellResult.Err.
func (s *Scheduler) Execute(ctx context.Context, plan *Plan) (<-chan CellResult, <-chan error) {
	resultsCh := make(chan CellResult)
	errCh := make(chan error, 1)

	go func() {
		defer close(resultsCh)
		defer close(errCh)

		trySendErr := func(err error) {
			if err == nil {
				return
			}
			select {
			case errCh <- err:
			default:
			}
		}

		if ctx == nil {
			trySendErr(errors.New("context is nil"))
			return
		}
		if plan == nil {
			trySendErr(errors.New("batch plan is nil"))
			return
		}
		if s == nil || s.calc == nil {
			trySendErr(errors.New("scheduler is not initialized; use NewScheduler"))
			return
		}

		sem := make(chan struct{}, s.concurrency)
		var wg sync.WaitGroup

	scheduleLoop:
		for _, cell := range plan.Cells {
			if ctx.Err() != nil {
				break
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				break scheduleLoop
			}
			if ctx.Err() != nil {
				<-sem
				break
			}

			wg.Add(1)
			go func(c Cell) {
				defer wg.Done()
				defer func() { <-sem }()

				start := time.Now()
				rows, err := s.runCell(c)
				// The consumer drains until close, so a finished cell is never dropped.
				resultsCh <- CellResult{Cell: c, Rows: rows, Err: err, Duration: time.Since(start)}
			}(cell)
		}

		wg.Wait()
		trySendErr(ctx.Err())
	}()

	return resultsCh, errCh
}

func (s *Scheduler) runCell(c Cell) ([]Row, error) {
	ch := c.Change
	if c.TypeID == "" {
		err := &NoTablesError{Source: ch.Source}
		return []Row{errorRow(c, err)}, err
	}
	agg, err := s.calc.ComputeByCategory(ch.Source, c.TypeID, ch.SectorCode, ch.Amount)
	if err != nil {
		return []Row{errorRow(c, err)}, err
	}
	rows := make([]Row, 0, len(agg.Totals))
	for _, ct := range agg.Totals {
		rows = append(rows, Row{
			ScenarioID:      ch.ScenarioID,
			Year:            ch.Year,
			DataSource:      ch.Source,
			SourceSector:    ch.SectorCode,
			CoefficientType: c.TypeID,
			CategoryCode:    ct.Code,
			CategoryName:    ct.Name,
			Amount:          ch.Amount,
			Impact:          ct.Value,
			Status:          StatusOK,
		})
	}
	return rows, nil
}
