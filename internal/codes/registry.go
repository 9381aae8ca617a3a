package codes

import (
	"sort"
	"strings"
)

// Sector is a basic economic sector of the input-output classification.
type Sector struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	CategoryCode string `json:"category_code"`
}

// SubSector is an employment-detail sector. ParentCodes lists the basic
// sectors it maps onto for demand purposes.
type SubSector struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	CategoryCode string   `json:"category_code"`
	ParentCodes  []string `json:"parent_codes,omitempty"`
}

// Category is a coarse reporting group (code_h).
type Category struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Registry holds the code systems and their cross-mappings.
//
// A Registry is built once with a Builder and is read-only afterwards; it is
// safe for concurrent use.
type Registry struct {
	sectors    map[string]Sector
	subSectors map[string]SubSector
	categories map[string]Category

	// children maps a basic sector to the sub-sectors naming it as a parent.
	children map[string][]string

	sectorOrder    []string
	subSectorOrder []string
}

func (r *Registry) count(kind IndexKind) int {
	switch kind {
	case KindBasic:
		return len(r.sectors)
	case KindSubSector:
		return len(r.subSectors)
	default:
		return 0
	}
}

func (r *Registry) unknown(code string, kind IndexKind) error {
	return &UnknownCodeError{Code: code, Kind: kind, Available: r.count(kind)}
}

// Has reports whether code is registered for kind.
func (r *Registry) Has(code string, kind IndexKind) bool {
	if r == nil {
		return false
	}
	switch kind {
	case KindBasic:
		_, ok := r.sectors[code]
		return ok
	case KindSubSector:
		_, ok := r.subSectors[code]
		return ok
	default:
		return false
	}
}

// ResolveCategory returns the category code for code in the kind's code space.
func (r *Registry) ResolveCategory(code string, kind IndexKind) (string, error) {
	if r == nil {
		return "", &UnknownCodeError{Code: code, Kind: kind}
	}
	switch kind {
	case KindBasic:
		if s, ok := r.sectors[code]; ok {
			return s.CategoryCode, nil
		}
	case KindSubSector:
		if s, ok := r.subSectors[code]; ok {
			return s.CategoryCode, nil
		}
	}
	return "", r.unknown(code, kind)
}

// LookupName returns the display name for code in the kind's code space.
func (r *Registry) LookupName(code string, kind IndexKind) (string, error) {
	if r == nil {
		return "", &UnknownCodeError{Code: code, Kind: kind}
	}
	switch kind {
	case KindBasic:
		if s, ok := r.sectors[code]; ok {
			return s.Name, nil
		}
	case KindSubSector:
		if s, ok := r.subSectors[code]; ok {
			return s.Name, nil
		}
	}
	return "", r.unknown(code, kind)
}

// CategoryName returns the display name of a category, or the code itself
// when no name was supplied.
func (r *Registry) CategoryName(code string) string {
	if r == nil {
		return code
	}
	if c, ok := r.categories[code]; ok && c.Name != "" {
		return c.Name
	}
	return code
}

// Sector returns the basic sector registered under code.
func (r *Registry) Sector(code string) (Sector, error) {
	if r == nil {
		return Sector{}, &UnknownCodeError{Code: code, Kind: KindBasic}
	}
	s, ok := r.sectors[code]
	if !ok {
		return Sector{}, r.unknown(code, KindBasic)
	}
	return s, nil
}

// SubSector returns the sub-sector registered under code.
func (r *Registry) SubSector(code string) (SubSector, error) {
	if r == nil {
		return SubSector{}, &UnknownCodeError{Code: code, Kind: KindSubSector}
	}
	s, ok := r.subSectors[code]
	if !ok {
		return SubSector{}, r.unknown(code, KindSubSector)
	}
	out := s
	out.ParentCodes = append([]string(nil), s.ParentCodes...)
	return out, nil
}

// Parents returns the basic sectors a sub-sector maps onto.
func (r *Registry) Parents(subCode string) ([]string, error) {
	s, err := r.SubSector(subCode)
	if err != nil {
		return nil, err
	}
	return s.ParentCodes, nil
}

// SubSectorsOf returns the sub-sectors whose parents include basicCode,
// sorted by code.
func (r *Registry) SubSectorsOf(basicCode string) ([]string, error) {
	if !r.Has(basicCode, KindBasic) {
		return nil, r.unknown(basicCode, KindBasic)
	}
	return append([]string(nil), r.children[basicCode]...), nil
}

// Sectors returns all basic sectors sorted by code.
func (r *Registry) Sectors() []Sector {
	if r == nil {
		return nil
	}
	out := make([]Sector, 0, len(r.sectorOrder))
	for _, c := range r.sectorOrder {
		out = append(out, r.sectors[c])
	}
	return out
}

// SubSectors returns all sub-sectors sorted by code.
func (r *Registry) SubSectors() []SubSector {
	if r == nil {
		return nil
	}
	out := make([]SubSector, 0, len(r.subSectorOrder))
	for _, c := range r.subSectorOrder {
		s := r.subSectors[c]
		s.ParentCodes = append([]string(nil), s.ParentCodes...)
		out = append(out, s)
	}
	return out
}

// Categories returns every category code referenced by a sector or
// sub-sector, sorted by code.
func (r *Registry) Categories() []Category {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for _, s := range r.sectors {
		seen[s.CategoryCode] = struct{}{}
	}
	for _, s := range r.subSectors {
		seen[s.CategoryCode] = struct{}{}
	}
	out := make([]Category, 0, len(seen))
	for code := range seen {
		out = append(out, Category{Code: code, Name: r.CategoryName(code)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Match is a single hit of a name search.
type Match struct {
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Kind         IndexKind `json:"kind"`
	CategoryCode string    `json:"category_code"`
}

// Find returns the codes of kind whose name contains keyword, sorted by code.
// An empty keyword matches nothing.
func (r *Registry) Find(keyword string, kind IndexKind) []Match {
	keyword = strings.TrimSpace(keyword)
	if r == nil || keyword == "" {
		return nil
	}
	var out []Match
	switch kind {
	case KindBasic:
		for _, c := range r.sectorOrder {
			s := r.sectors[c]
			if strings.Contains(s.Name, keyword) {
				out = append(out, Match{Code: s.Code, Name: s.Name, Kind: kind, CategoryCode: s.CategoryCode})
			}
		}
	case KindSubSector:
		for _, c := range r.subSectorOrder {
			s := r.subSectors[c]
			if strings.Contains(s.Name, keyword) {
				out = append(out, Match{Code: s.Code, Name: s.Name, Kind: kind, CategoryCode: s.CategoryCode})
			}
		}
	}
	return out
}
