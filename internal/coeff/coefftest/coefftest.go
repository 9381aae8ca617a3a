// Package coefftest provides small in-memory datasets for tests of packages
// built on top of the coefficient store.
package coefftest

import (
	"testing"

	"ioimpact/internal/codes"
	"ioimpact/internal/coeff"

	"github.com/stretchr/testify/require"
)

// Dataset bundles a registry with a store validated against it.
type Dataset struct {
	Registry *codes.Registry
	Store    *coeff.Store
}

// TwoSector returns the two-sector economy used across the test suites.
//
// Basic sectors A and B both belong to category X. The indirect production
// matrix is {(A,A): 0.4, (B,A): 0.3, (A,B): 0.2, (B,B): 0.5}.
//
// Sub-sector "A" deliberately shares its code with basic sector A but lives in
// category S, so a lookup with the wrong index kind lands in the wrong
// category. The job creation matrix has rows A (sub-sector) and B1 (category
// X), in persons per billion.
//
// The hydrogen table only has a column for A.
func TwoSector(t testing.TB) Dataset {
	t.Helper()

	reg, err := codes.NewBuilder().
		AddSector(codes.Sector{Code: "A", Name: "Steel", CategoryCode: "X"}).
		AddSector(codes.Sector{Code: "B", Name: "Electricity", CategoryCode: "X"}).
		AddSubSector(codes.SubSector{Code: "A", Name: "Steel workers", CategoryCode: "S", ParentCodes: []string{"A"}}).
		AddSubSector(codes.SubSector{Code: "B1", Name: "Grid workers", CategoryCode: "X", ParentCodes: []string{"B"}}).
		AddCategory(codes.Category{Code: "X", Name: "Industry"}).
		AddCategory(codes.Category{Code: "S", Name: "Steel labour"}).
		Build()
	require.NoError(t, err)

	prod := Matrix(t, coeff.TypeIndirectProd, []coeff.Cell{
		{Row: "A", Col: "A", Value: 0.4},
		{Row: "B", Col: "A", Value: 0.3},
		{Row: "A", Col: "B", Value: 0.2},
		{Row: "B", Col: "B", Value: 0.5},
	})
	imp := Matrix(t, coeff.TypeIndirectImport, []coeff.Cell{
		{Row: "A", Col: "A", Value: 0.1},
		{Row: "B", Col: "A", Value: 0.05},
		{Row: "A", Col: "B", Value: 0.02},
		{Row: "B", Col: "B", Value: 0.08},
	})
	jobs := Matrix(t, coeff.TypeJobCreation, []coeff.Cell{
		{Row: "A", Col: "A", Value: 2},
		{Row: "B1", Col: "A", Value: 1},
		{Row: "B1", Col: "B", Value: 4},
	})
	h2 := Matrix(t, coeff.TypeH2IndirectProd, []coeff.Cell{
		{Row: "A", Col: "A", Value: 0.1},
		{Row: "B", Col: "A", Value: 0.05},
	})

	va, err := coeff.NewVector(coeff.VectorValueAdded, []coeff.Entry{{Code: "A", Value: 0.5}, {Code: "B", Value: 0.25}})
	require.NoError(t, err)
	emp, err := coeff.NewVector(coeff.VectorEmployment, []coeff.Entry{{Code: "A", Value: 10}, {Code: "B", Value: 20}})
	require.NoError(t, err)

	store, err := coeff.NewStore(reg, []*coeff.Matrix{prod, imp, jobs, h2}, []*coeff.Vector{va, emp})
	require.NoError(t, err)
	return Dataset{Registry: reg, Store: store}
}

// Matrix builds a matrix of typeID from cells, failing the test on error.
func Matrix(t testing.TB, typeID string, cells []coeff.Cell) *coeff.Matrix {
	t.Helper()
	typ, err := coeff.Lookup(typeID)
	require.NoError(t, err)
	m, err := coeff.NewMatrix(typ, cells)
	require.NoError(t, err)
	return m
}
