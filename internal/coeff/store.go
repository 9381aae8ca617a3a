package coeff

import (
	"errors"
	"fmt"
	"sort"

	"ioimpact/internal/codes"
)

// Store holds the coefficient matrices and vectors of one dataset.
//
// A Store is validated against a code registry once, at construction, and is
// read-only afterwards.
type Store struct {
	registry *codes.Registry
	matrices map[string]*Matrix
	vectors  map[string]*Vector
}

// NewStore validates matrices and vectors against reg and returns the Store.
// Every matrix row code must exist for the matrix's row kind and every column
// code must be a basic sector; vectors are basic-sector indexed.
func NewStore(reg *codes.Registry, matrices []*Matrix, vectors []*Vector) (*Store, error) {
	if reg == nil {
		return nil, errors.New("code registry is nil")
	}
	s := &Store{
		registry: reg,
		matrices: make(map[string]*Matrix, len(matrices)),
		vectors:  make(map[string]*Vector, len(vectors)),
	}

	for _, m := range matrices {
		if m == nil {
			return nil, errors.New("nil matrix")
		}
		id := m.Type().ID
		if _, dup := s.matrices[id]; dup {
			return nil, fmt.Errorf("duplicate matrix for coefficient type %s", id)
		}
		if err := validateMatrixCodes(reg, m); err != nil {
			return nil, err
		}
		s.matrices[id] = m
	}

	for _, v := range vectors {
		if v == nil {
			return nil, errors.New("nil vector")
		}
		if _, dup := s.vectors[v.Name()]; dup {
			return nil, fmt.Errorf("duplicate vector %s", v.Name())
		}
		for _, code := range v.codes {
			if _, err := reg.ResolveCategory(code, codes.KindBasic); err != nil {
				return nil, fmt.Errorf("vector %s: %w", v.Name(), err)
			}
		}
		s.vectors[v.Name()] = v
	}
	return s, nil
}

func validateMatrixCodes(reg *codes.Registry, m *Matrix) error {
	kind := m.RowKind()
	for _, row := range m.rowCodes {
		if _, err := reg.ResolveCategory(row, kind); err != nil {
			return fmt.Errorf("matrix %s row: %w", m.Type().ID, err)
		}
	}
	for _, col := range m.colCodes {
		if _, err := reg.ResolveCategory(col, codes.KindBasic); err != nil {
			return fmt.Errorf("matrix %s column: %w", m.Type().ID, err)
		}
	}
	return nil
}

// Registry returns the code registry the store was validated against.
func (s *Store) Registry() *codes.Registry { return s.registry }

// Matrix returns the matrix of typeID for the given source table.
func (s *Store) Matrix(src Source, typeID string) (*Matrix, error) {
	t, err := Lookup(typeID)
	if err != nil {
		return nil, err
	}
	if t.Source != src {
		return nil, &IncompatibleCoefficientError{Type: t.ID, TypeSource: t.Source, Source: src}
	}
	m, ok := s.matrices[t.ID]
	if !ok {
		return nil, &UnknownCoefficientTypeError{Type: t.ID, NotLoaded: true}
	}
	return m, nil
}

// GetColumn returns the (row code, coefficient) pairs recorded against
// sector, ordered by row code.
func (s *Store) GetColumn(src Source, typeID, sector string) ([]Entry, error) {
	m, err := s.Matrix(src, typeID)
	if err != nil {
		var ice *IncompatibleCoefficientError
		if errors.As(err, &ice) {
			ice.Sector = sector
		}
		return nil, err
	}
	entries, ok := m.Column(sector)
	if !ok {
		return nil, &UnknownSectorError{Type: typeID, Source: src, Sector: sector}
	}
	return entries, nil
}

// RowIndexKind returns the code space rows of typeID are indexed by.
func (s *Store) RowIndexKind(src Source, typeID string) (codes.IndexKind, error) {
	m, err := s.Matrix(src, typeID)
	if err != nil {
		return "", err
	}
	return m.RowKind(), nil
}

// Types returns the types with a loaded matrix for src, sorted by ID.
func (s *Store) Types(src Source) []Type {
	var out []Type
	for _, m := range s.matrices {
		if m.Type().Source == src {
			out = append(out, m.Type())
		}
	}
	sortTypes(out)
	return out
}

// Sources returns the source tables that have at least one matrix.
func (s *Store) Sources() []Source {
	seen := make(map[Source]struct{})
	for _, m := range s.matrices {
		seen[m.Type().Source] = struct{}{}
	}
	out := make([]Source, 0, len(seen))
	for src := range seen {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Vector returns a named vector; ok is false when it was not loaded.
func (s *Store) Vector(name string) (*Vector, bool) {
	v, ok := s.vectors[name]
	return v, ok
}
