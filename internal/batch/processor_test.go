package batch

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"ioimpact/internal/coeff"
	"ioimpact/internal/coeff/coefftest"
	"ioimpact/internal/impact"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(t *testing.T, opts Options) *Processor {
	t.Helper()
	ds := coefftest.TwoSector(t)
	p, err := NewProcessor(impact.NewCalculator(ds.Store), opts)
	require.NoError(t, err)
	return p
}

func tenChanges() []impact.DemandChange {
	var changes []impact.DemandChange
	for i := 0; i < 10; i++ {
		sector := "A"
		if i%2 == 1 {
			sector = "B"
		}
		if i == 6 {
			sector = "ZZZZ"
		}
		changes = append(changes, impact.DemandChange{
			ScenarioID: fmt.Sprintf("s%d", i%3),
			Year:       2030 + i,
			Source:     coeff.SourceIO,
			SectorCode: sector,
			Amount:     float64(1000 * (i + 1)),
		})
	}
	return changes
}

func TestRun_FailingCellDoesNotAbortBatch(t *testing.T) {
	p := newTestProcessor(t, Options{Concurrency: 4})

	table, err := p.Run(context.Background(), tenChanges(), []string{coeff.TypeIndirectProd})
	require.NoError(t, err)

	assert.Equal(t, 10, table.Cells)
	require.Len(t, table.Rows, 10)

	var ok, failed int
	for _, r := range table.Rows {
		switch r.Status {
		case StatusOK:
			ok++
			assert.Equal(t, "X", r.CategoryCode)
		case StatusError:
			failed++
			assert.Equal(t, "ZZZZ", r.SourceSector)
			assert.Equal(t, KindUnknownSector, r.ErrorKind)
			assert.NotEmpty(t, r.Message)
			assert.Empty(t, r.CategoryCode)
		}
	}
	assert.Equal(t, 9, ok)
	assert.Equal(t, 1, failed)
	assert.Equal(t, Summary{Cells: 10, FailedCells: 1, Rows: 10, Scenarios: 3}, table.Summary())
	assert.Equal(t, 2, ExitCode(table, err))
}

func TestRun_DeterministicOrder(t *testing.T) {
	changes := tenChanges()

	serial, err := newTestProcessor(t, Options{Concurrency: 1}).Run(context.Background(), changes, nil)
	require.NoError(t, err)
	parallel, err := newTestProcessor(t, Options{Concurrency: 8}).Run(context.Background(), changes, nil)
	require.NoError(t, err)

	assert.Equal(t, serial.Rows, parallel.Rows)

	for i := 1; i < len(serial.Rows); i++ {
		a, b := serial.Rows[i-1], serial.Rows[i]
		key := func(r Row) string {
			return fmt.Sprintf("%s|%06d|%s|%s|%s", r.ScenarioID, r.Year, r.SourceSector, r.CoefficientType, r.CategoryCode)
		}
		assert.LessOrEqual(t, key(a), key(b))
	}
}

func TestRun_EmptyTypesUsesEveryLoadedType(t *testing.T) {
	p := newTestProcessor(t, Options{})

	changes := []impact.DemandChange{{ScenarioID: "base", Year: 2030, Source: coeff.SourceIO, SectorCode: "A", Amount: 1_000_000}}
	table, err := p.Run(context.Background(), changes, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, table.Cells)
	var got []string
	for _, r := range table.Rows {
		require.Equal(t, StatusOK, r.Status)
		got = append(got, r.CoefficientType+"/"+r.CategoryCode)
	}
	assert.Equal(t, []string{"indirect_import/X", "indirect_prod/X", "jobcoeff/S", "jobcoeff/X"}, got)

	totals := table.ScenarioTotals()
	assert.InDelta(t, 700_000, totals["base"][coeff.TypeIndirectProd], 1e-6)
	assert.InDelta(t, 3000, totals["base"][coeff.TypeJobCreation], 1e-9)
	assert.Equal(t, 0, ExitCode(table, nil))
}

func TestRun_IncompatibleAndInvalidCells(t *testing.T) {
	p := newTestProcessor(t, Options{Concurrency: 2})

	changes := []impact.DemandChange{
		{ScenarioID: "h2", Year: 2040, Source: coeff.SourceHydrogen, SectorCode: "A", Amount: 100},
		{ScenarioID: "io", Year: 2040, Source: coeff.SourceIO, SectorCode: "A", Amount: math.NaN()},
		{ScenarioID: "zz", Year: 2040, Source: coeff.Source("coal"), SectorCode: "A", Amount: 1},
	}
	table, err := p.Run(context.Background(), changes, []string{coeff.TypeIndirectProd, coeff.TypeH2IndirectProd})
	require.NoError(t, err)
	require.Equal(t, 6, table.Cells)

	kinds := make(map[string]string)
	for _, r := range table.Rows {
		kinds[r.ScenarioID+"/"+r.CoefficientType] = r.ErrorKind
	}
	assert.Equal(t, KindIncompatibleCoefficient, kinds["h2/indirect_prod"])
	assert.Equal(t, "", kinds["h2/h2_indirect_prod"])
	assert.Equal(t, KindInvalidAmount, kinds["io/indirect_prod"])
	assert.Equal(t, KindInvalidAmount, kinds["io/h2_indirect_prod"])
	assert.Equal(t, KindIncompatibleCoefficient, kinds["zz/indirect_prod"])
}

func TestRun_SourceWithoutTables(t *testing.T) {
	p := newTestProcessor(t, Options{})

	changes := []impact.DemandChange{{ScenarioID: "zz", Source: coeff.Source("coal"), SectorCode: "A", Amount: 1}}
	table, err := p.Run(context.Background(), changes, nil)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, StatusError, table.Rows[0].Status)
	assert.Equal(t, KindUnknownCoefficientType, table.Rows[0].ErrorKind)
}

func TestRun_CanceledBeforeStart(t *testing.T) {
	p := newTestProcessor(t, Options{Concurrency: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table, err := p.Run(ctx, tenChanges(), nil)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, table)
	assert.Zero(t, table.Cells)
	assert.Equal(t, 2, ExitCode(table, err))
}

func TestRun_CanceledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen int
	p := newTestProcessor(t, Options{
		Concurrency: 1,
		OnCell: func(CellResult) {
			seen++
			if seen == 3 {
				cancel()
			}
		},
	})

	table, err := p.Run(ctx, tenChanges(), []string{coeff.TypeIndirectProd})
	require.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, table.Cells, 3)
	assert.Less(t, table.Cells, 10)
	assert.Equal(t, table.Cells, seen)

	// Every delivered cell is complete.
	assert.Len(t, table.Rows, table.Cells)
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls map[string]int
}

func (f *fakeRecorder) ObserveCell(typeID string, status Status, kind string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[typeID+"/"+string(status)+"/"+kind]++
}

func TestRun_RecordsCells(t *testing.T) {
	rec := &fakeRecorder{}
	p := newTestProcessor(t, Options{Concurrency: 3, Recorder: rec})

	_, err := p.Run(context.Background(), tenChanges(), []string{coeff.TypeIndirectProd})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"indirect_prod/OK/":                9,
		"indirect_prod/ERROR/UnknownSector": 1,
	}, rec.calls)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 3, ExitCode(nil, fmt.Errorf("boom")))
	assert.Equal(t, 0, ExitCode(&Table{}, nil))
	assert.Equal(t, 2, ExitCode(&Table{}, context.Canceled))
	assert.Equal(t, 2, ExitCode(&Table{Rows: []Row{{Status: StatusError}}}, nil))
}

func TestNewScheduler_Validates(t *testing.T) {
	_, err := NewScheduler(nil, 1)
	require.Error(t, err)

	ds := coefftest.TwoSector(t)
	_, err = NewScheduler(impact.NewCalculator(ds.Store), 0)
	require.Error(t, err)
}
