package codes

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Builder accumulates code tables and produces an immutable Registry.
type Builder struct {
	sectors    []Sector
	subSectors []SubSector
	categories []Category
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) AddSector(s Sector) *Builder {
	b.sectors = append(b.sectors, s)
	return b
}

func (b *Builder) AddSubSector(s SubSector) *Builder {
	b.subSectors = append(b.subSectors, s)
	return b
}

func (b *Builder) AddCategory(c Category) *Builder {
	b.categories = append(b.categories, c)
	return b
}

// Build validates the accumulated tables and returns the Registry.
//
// Rules:
//   - codes and category codes must be non-empty;
//   - codes are unique within their own code space (a basic sector and a
//     sub-sector may share a code);
//   - sub-sector parents must be registered basic sectors.
func (b *Builder) Build() (*Registry, error) {
	r := &Registry{
		sectors:    make(map[string]Sector, len(b.sectors)),
		subSectors: make(map[string]SubSector, len(b.subSectors)),
		categories: make(map[string]Category, len(b.categories)),
		children:   make(map[string][]string),
	}

	var errs []error
	for _, s := range b.sectors {
		s.Code = strings.TrimSpace(s.Code)
		s.CategoryCode = strings.TrimSpace(s.CategoryCode)
		if s.Code == "" {
			errs = append(errs, fmt.Errorf("sector %q: empty code", s.Name))
			continue
		}
		if s.CategoryCode == "" {
			errs = append(errs, fmt.Errorf("sector %s: empty category code", s.Code))
			continue
		}
		if _, dup := r.sectors[s.Code]; dup {
			errs = append(errs, fmt.Errorf("sector %s: duplicate code", s.Code))
			continue
		}
		r.sectors[s.Code] = s
		r.sectorOrder = append(r.sectorOrder, s.Code)
	}

	for _, s := range b.subSectors {
		s.Code = strings.TrimSpace(s.Code)
		s.CategoryCode = strings.TrimSpace(s.CategoryCode)
		if s.Code == "" {
			errs = append(errs, fmt.Errorf("sub-sector %q: empty code", s.Name))
			continue
		}
		if s.CategoryCode == "" {
			errs = append(errs, fmt.Errorf("sub-sector %s: empty category code", s.Code))
			continue
		}
		if _, dup := r.subSectors[s.Code]; dup {
			errs = append(errs, fmt.Errorf("sub-sector %s: duplicate code", s.Code))
			continue
		}
		parents := make([]string, 0, len(s.ParentCodes))
		for _, p := range s.ParentCodes {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if _, ok := r.sectors[p]; !ok {
				errs = append(errs, fmt.Errorf("sub-sector %s: parent %w", s.Code, r.unknown(p, KindBasic)))
				continue
			}
			parents = append(parents, p)
			r.children[p] = append(r.children[p], s.Code)
		}
		sort.Strings(parents)
		s.ParentCodes = parents
		r.subSectors[s.Code] = s
		r.subSectorOrder = append(r.subSectorOrder, s.Code)
	}

	for _, c := range b.categories {
		c.Code = strings.TrimSpace(c.Code)
		if c.Code == "" {
			errs = append(errs, fmt.Errorf("category %q: empty code", c.Name))
			continue
		}
		if _, dup := r.categories[c.Code]; dup {
			errs = append(errs, fmt.Errorf("category %s: duplicate code", c.Code))
			continue
		}
		r.categories[c.Code] = c
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid code tables: %w", errors.Join(errs...))
	}

	sort.Strings(r.sectorOrder)
	sort.Strings(r.subSectorOrder)
	for p := range r.children {
		sort.Strings(r.children[p])
	}
	return r, nil
}
