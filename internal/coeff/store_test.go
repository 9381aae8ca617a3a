package coeff_test

import (
	"errors"
	"math"
	"testing"

	"ioimpact/internal/codes"
	"ioimpact/internal/coeff"
	"ioimpact/internal/coeff/coefftest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetColumn_OrderedByRowCode(t *testing.T) {
	ds := coefftest.TwoSector(t)

	col, err := ds.Store.GetColumn(coeff.SourceIO, coeff.TypeIndirectProd, "A")
	require.NoError(t, err)
	assert.Equal(t, []coeff.Entry{{Code: "A", Value: 0.4}, {Code: "B", Value: 0.3}}, col)

	// The returned slice is a copy.
	col[0].Value = 99
	again, err := ds.Store.GetColumn(coeff.SourceIO, coeff.TypeIndirectProd, "A")
	require.NoError(t, err)
	assert.Equal(t, 0.4, again[0].Value)
}

func TestStore_GetColumn_Errors(t *testing.T) {
	ds := coefftest.TwoSector(t)

	t.Run("unknown sector", func(t *testing.T) {
		_, err := ds.Store.GetColumn(coeff.SourceHydrogen, coeff.TypeH2IndirectProd, "B")
		var use *coeff.UnknownSectorError
		require.ErrorAs(t, err, &use)
		assert.Equal(t, "B", use.Sector)
		assert.Equal(t, coeff.SourceHydrogen, use.Source)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := ds.Store.GetColumn(coeff.SourceIO, "bogus", "A")
		var ute *coeff.UnknownCoefficientTypeError
		require.ErrorAs(t, err, &ute)
		assert.False(t, ute.NotLoaded)
	})

	t.Run("type not loaded", func(t *testing.T) {
		_, err := ds.Store.GetColumn(coeff.SourceIO, coeff.TypeValueAdded, "A")
		var ute *coeff.UnknownCoefficientTypeError
		require.ErrorAs(t, err, &ute)
		assert.True(t, ute.NotLoaded)
	})

	t.Run("incompatible source", func(t *testing.T) {
		_, err := ds.Store.GetColumn(coeff.SourceHydrogen, coeff.TypeIndirectProd, "A")
		var ice *coeff.IncompatibleCoefficientError
		require.ErrorAs(t, err, &ice)
		assert.Equal(t, coeff.SourceIO, ice.TypeSource)
		assert.Equal(t, coeff.SourceHydrogen, ice.Source)
		assert.Equal(t, "A", ice.Sector)
	})
}

func TestStore_RowIndexKind(t *testing.T) {
	ds := coefftest.TwoSector(t)

	kind, err := ds.Store.RowIndexKind(coeff.SourceIO, coeff.TypeIndirectProd)
	require.NoError(t, err)
	assert.Equal(t, codes.KindBasic, kind)

	kind, err = ds.Store.RowIndexKind(coeff.SourceIO, coeff.TypeJobCreation)
	require.NoError(t, err)
	assert.Equal(t, codes.KindSubSector, kind)
}

func TestStore_TypesAndSources(t *testing.T) {
	ds := coefftest.TwoSector(t)

	var ids []string
	for _, typ := range ds.Store.Types(coeff.SourceIO) {
		ids = append(ids, typ.ID)
	}
	assert.Equal(t, []string{coeff.TypeIndirectImport, coeff.TypeIndirectProd, coeff.TypeJobCreation}, ids)
	assert.Equal(t, []coeff.Source{coeff.SourceHydrogen, coeff.SourceIO}, ds.Store.Sources())

	v, ok := ds.Store.Vector(coeff.VectorEmployment)
	require.True(t, ok)
	got, ok := v.Get("B")
	require.True(t, ok)
	assert.Equal(t, 20.0, got)

	_, ok = ds.Store.Vector("missing")
	assert.False(t, ok)
}

func TestNewStore_RejectsUnknownCodes(t *testing.T) {
	ds := coefftest.TwoSector(t)

	tests := []struct {
		name  string
		typ   string
		cells []coeff.Cell
		kind  codes.IndexKind
	}{
		{
			name:  "basic row not registered",
			typ:   coeff.TypeIndirectProd,
			cells: []coeff.Cell{{Row: "Z", Col: "A", Value: 1}},
			kind:  codes.KindBasic,
		},
		{
			name:  "sub-sector row resolved in its own code space",
			typ:   coeff.TypeJobCreation,
			cells: []coeff.Cell{{Row: "B", Col: "A", Value: 1}},
			kind:  codes.KindSubSector,
		},
		{
			name:  "column is not a basic sector",
			typ:   coeff.TypeIndirectProd,
			cells: []coeff.Cell{{Row: "A", Col: "B1", Value: 1}},
			kind:  codes.KindBasic,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := coefftest.Matrix(t, tt.typ, tt.cells)
			_, err := coeff.NewStore(ds.Registry, []*coeff.Matrix{m}, nil)
			var uce *codes.UnknownCodeError
			require.ErrorAs(t, err, &uce)
			assert.Equal(t, tt.kind, uce.Kind)
		})
	}
}

func TestNewStore_RejectsDuplicatesAndBadVectors(t *testing.T) {
	ds := coefftest.TwoSector(t)
	m := coefftest.Matrix(t, coeff.TypeIndirectProd, []coeff.Cell{{Row: "A", Col: "A", Value: 1}})

	_, err := coeff.NewStore(ds.Registry, []*coeff.Matrix{m, m}, nil)
	require.Error(t, err)

	v, err := coeff.NewVector("va", []coeff.Entry{{Code: "B1", Value: 1}})
	require.NoError(t, err)
	_, err = coeff.NewStore(ds.Registry, nil, []*coeff.Vector{v})
	var uce *codes.UnknownCodeError
	require.ErrorAs(t, err, &uce)

	_, err = coeff.NewStore(nil, nil, nil)
	require.Error(t, err)
}

func TestNewMatrix_Rejects(t *testing.T) {
	typ, err := coeff.Lookup(coeff.TypeIndirectProd)
	require.NoError(t, err)

	tests := []struct {
		name  string
		cells []coeff.Cell
	}{
		{"duplicate cell", []coeff.Cell{{Row: "A", Col: "A", Value: 1}, {Row: "A", Col: "A", Value: 2}}},
		{"empty row", []coeff.Cell{{Row: " ", Col: "A", Value: 1}}},
		{"nan", []coeff.Cell{{Row: "A", Col: "A", Value: math.NaN()}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := coeff.NewMatrix(typ, tt.cells)
			require.Error(t, err)
		})
	}
}

func TestMatrix_Accessors(t *testing.T) {
	m := coefftest.Matrix(t, coeff.TypeIndirectProd, []coeff.Cell{
		{Row: "B", Col: "A", Value: 0.3},
		{Row: "A", Col: "A", Value: 0.4},
		{Row: "A", Col: "B", Value: 0.2},
	})

	assert.Equal(t, []string{"A", "B"}, m.RowCodes())
	assert.Equal(t, []string{"A", "B"}, m.ColumnCodes())
	assert.Equal(t, 3, m.Len())
	assert.InDelta(t, 0.9, m.Sum(), 1e-12)

	v, ok := m.Get("A", "B")
	require.True(t, ok)
	assert.Equal(t, 0.2, v)
	_, ok = m.Get("B", "B")
	assert.False(t, ok)

	assert.Equal(t, []coeff.Cell{
		{Row: "A", Col: "A", Value: 0.4},
		{Row: "B", Col: "A", Value: 0.3},
		{Row: "A", Col: "B", Value: 0.2},
	}, m.Cells())
	assert.NoError(t, m.Square())
}

func TestMatrix_Square(t *testing.T) {
	rect := coefftest.Matrix(t, coeff.TypeIndirectProd, []coeff.Cell{
		{Row: "A", Col: "A", Value: 0.4},
		{Row: "C", Col: "A", Value: 0.3},
	})
	var dme *coeff.DimensionMismatchError
	require.ErrorAs(t, rect.Square(), &dme)
	assert.Equal(t, 2, dme.Rows)
	assert.Equal(t, 1, dme.Cols)
	assert.Equal(t, []string{"column C"}, dme.Missing)

	jobs := coefftest.Matrix(t, coeff.TypeJobCreation, []coeff.Cell{{Row: "A", Col: "A", Value: 1}})
	require.ErrorAs(t, jobs.Square(), &dme)
}

func TestVector_Covers(t *testing.T) {
	v, err := coeff.NewVector(coeff.VectorValueAdded, []coeff.Entry{{Code: "A", Value: 0.5}})
	require.NoError(t, err)

	assert.NoError(t, v.Covers([]string{"A"}))

	err = v.Covers([]string{"A", "B", "C"})
	var dme *coeff.DimensionMismatchError
	require.True(t, errors.As(err, &dme))
	assert.Equal(t, []string{"B", "C"}, dme.Missing)

	_, err = coeff.NewVector("dup", []coeff.Entry{{Code: "A"}, {Code: "A"}})
	require.Error(t, err)
}

func TestDimensionMismatchError_TruncatesMissing(t *testing.T) {
	err := &coeff.DimensionMismatchError{
		Name:    "m",
		Rows:    7,
		Cols:    1,
		Missing: []string{"1", "2", "3", "4", "5", "6", "7"},
	}
	assert.Equal(t, "m: dimension mismatch (7 rows x 1 columns) (missing: 1, 2, 3, 4, 5 and 2 more)", err.Error())
}
