package coeff

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Well-known vector names.
const (
	// VectorValueAdded holds value-added ratios per basic sector.
	VectorValueAdded = "value_added"
	// VectorEmployment holds employment coefficients per basic sector, in
	// persons per billion currency units.
	VectorEmployment = "employment"
)

// Vector is an immutable per-basic-sector coefficient vector.
type Vector struct {
	name   string
	values map[string]float64
	codes  []string
}

func NewVector(name string, entries []Entry) (*Vector, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("vector name is empty")
	}
	v := &Vector{name: name, values: make(map[string]float64, len(entries))}
	var errs []error
	for _, e := range entries {
		code := strings.TrimSpace(e.Code)
		if code == "" {
			errs = append(errs, errors.New("empty sector code"))
			continue
		}
		if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
			errs = append(errs, fmt.Errorf("non-finite value for %s", code))
			continue
		}
		if _, dup := v.values[code]; dup {
			errs = append(errs, fmt.Errorf("duplicate sector %s", code))
			continue
		}
		v.values[code] = e.Value
		v.codes = append(v.codes, code)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("vector %s: %w", name, errors.Join(errs...))
	}
	sort.Strings(v.codes)
	return v, nil
}

func (v *Vector) Name() string { return v.name }

func (v *Vector) Len() int { return len(v.codes) }

func (v *Vector) Codes() []string { return append([]string(nil), v.codes...) }

func (v *Vector) Get(code string) (float64, bool) {
	val, ok := v.values[code]
	return val, ok
}

// Covers checks that every code has a value.
func (v *Vector) Covers(codes []string) error {
	var missing []string
	for _, c := range codes {
		if _, ok := v.values[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &DimensionMismatchError{
			Name:    v.name,
			Rows:    len(v.codes),
			Cols:    1,
			Missing: missing,
			Reason:  "vector does not cover every matrix sector",
		}
	}
	return nil
}
