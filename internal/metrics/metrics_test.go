package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ioimpact/internal/batch"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ batch.Recorder = (*Registry)(nil)

func TestObserveCell(t *testing.T) {
	r := NewRegistry()

	r.ObserveCell("indirect_prod", batch.StatusOK, "", time.Millisecond)
	r.ObserveCell("indirect_prod", batch.StatusOK, "", time.Millisecond)
	r.ObserveCell("indirect_prod", batch.StatusError, batch.KindUnknownSector, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.BatchCellsTotal.WithLabelValues("indirect_prod", "OK", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.BatchCellsTotal.WithLabelValues("indirect_prod", "ERROR", "UnknownSector")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.BatchCellDuration))
}

func TestRecordRun(t *testing.T) {
	r := NewRegistry()
	r.RecordRun(2, 10, time.Second)
	r.RecordRun(0, 5, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.BatchRunsTotal.WithLabelValues("2")))
	assert.Equal(t, 15.0, testutil.ToFloat64(r.BatchRowsTotal))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.SetDataset("io", "indirect_prod", 4)
	r.SetSectors("basic", 2)

	path := filepath.Join(t.TempDir(), "ioimpact.prom")
	require.NoError(t, r.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.True(t, strings.Contains(out, `ioimpact_dataset_coefficients{coefficient_type="indirect_prod",data_source="io"} 4`), out)
	assert.True(t, strings.Contains(out, `ioimpact_dataset_sectors{kind="basic"} 2`), out)
}
