package linkage

import (
	"fmt"
	"math"
	"testing"

	"ioimpact/internal/codes"
	"ioimpact/internal/coeff"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func squareAnalyzer(t *testing.T, n int, vals []float64, transpose bool) *Analyzer {
	a, _ := squareMatrixAnalyzer(t, n, vals, transpose)
	return a
}

func squareMatrixAnalyzer(t *testing.T, n int, vals []float64, transpose bool) (*Analyzer, *coeff.Matrix) {
	b := codes.NewBuilder()
	for i := 0; i < n; i++ {
		b.AddSector(codes.Sector{Code: fmt.Sprintf("%04d", i+1), CategoryCode: "01"})
	}
	reg, err := b.Build()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	typ, err := coeff.Lookup(coeff.TypeIndirectProd)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	var cells []coeff.Cell
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			row, col := i, j
			if transpose {
				row, col = j, i
			}
			cells = append(cells, coeff.Cell{
				Row:   fmt.Sprintf("%04d", row+1),
				Col:   fmt.Sprintf("%04d", col+1),
				Value: vals[(i*n+j)%len(vals)],
			})
		}
	}
	m, err := coeff.NewMatrix(typ, cells)
	if err != nil {
		t.Fatalf("matrix: %v", err)
	}
	a, err := NewAnalyzer(reg, m, nil, nil)
	if err != nil {
		t.Fatalf("analyzer: %v", err)
	}
	return a, m
}

func TestLinkageProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("backward and forward linkages both add up to the matrix sum", prop.ForAll(
		func(n int, vals []float64) bool {
			a, m := squareMatrixAnalyzer(t, n, vals, false)
			var backward, forward float64
			for _, r := range a.Linkages().Records {
				backward += r.Backward * float64(n)
				forward += r.Forward * float64(n)
			}
			total := m.Sum()
			tol := 1e-9 * math.Max(1, math.Abs(total))
			return math.Abs(backward-forward) <= tol && math.Abs(backward-total) <= tol
		},
		gen.IntRange(1, 6),
		gen.SliceOfN(36, gen.Float64Range(-2, 2)),
	))

	properties.Property("transposing swaps backward and forward linkages", prop.ForAll(
		func(n int, vals []float64) bool {
			a := squareAnalyzer(t, n, vals, false)
			b := squareAnalyzer(t, n, vals, true)
			ra, rb := a.Linkages().Records, b.Linkages().Records
			for i := range ra {
				if math.Abs(ra[i].Backward-rb[i].Forward) > 1e-9 || math.Abs(ra[i].Forward-rb[i].Backward) > 1e-9 {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 6),
		gen.SliceOfN(36, gen.Float64Range(0, 2)),
	))

	properties.Property("raising the threshold never adds key sectors", prop.ForAll(
		func(n int, vals []float64, t1, delta float64) bool {
			a := squareAnalyzer(t, n, vals, false)
			low, err := a.KeySectors(t1)
			if err != nil {
				return false
			}
			high, err := a.KeySectors(t1 + delta)
			if err != nil {
				return false
			}
			lowSet := make(map[string]bool, len(low.Sectors))
			for _, r := range low.Sectors {
				lowSet[r.SectorCode] = true
			}
			for _, r := range high.Sectors {
				if !lowSet[r.SectorCode] {
					return false
				}
			}
			return len(high.Sectors) <= len(low.Sectors)
		},
		gen.IntRange(1, 6),
		gen.SliceOfN(36, gen.Float64Range(0, 2)),
		gen.Float64Range(0, 2),
		gen.Float64Range(0, 1),
	))

	properties.Property("summary counts cover every sector", prop.ForAll(
		func(n int, vals []float64, threshold float64) bool {
			a := squareAnalyzer(t, n, vals, false)
			ks, err := a.KeySectors(threshold)
			if err != nil {
				return false
			}
			s := ks.Summary
			return s.Key+s.BackwardOnly+s.ForwardOnly+s.Weak == n && s.Key == len(ks.Sectors)
		},
		gen.IntRange(1, 6),
		gen.SliceOfN(36, gen.Float64Range(0, 2)),
		gen.Float64Range(0, 2),
	))

	properties.TestingRun(t)
}
