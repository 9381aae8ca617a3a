package coeff

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	catalog = make(map[string]Type)
	mu      sync.RWMutex
)

// Register adds a coefficient type to the catalog. It panics on duplicates
// and on malformed descriptors; registration happens at init time.
func Register(t Type) {
	if t.ID == "" {
		panic("coefficient type ID is empty")
	}
	if !t.RowKind.Valid() {
		panic(fmt.Sprintf("coefficient type %s has invalid row kind %q", t.ID, t.RowKind))
	}
	if t.Source == "" {
		panic(fmt.Sprintf("coefficient type %s has no source", t.ID))
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := catalog[t.ID]; exists {
		panic(fmt.Sprintf("coefficient type %s already registered", t.ID))
	}
	catalog[t.ID] = t
}

// Lookup returns the descriptor for id.
func Lookup(id string) (Type, error) {
	mu.RLock()
	defer mu.RUnlock()
	t, ok := catalog[id]
	if !ok {
		return Type{}, &UnknownCoefficientTypeError{Type: id}
	}
	return t, nil
}

// List returns every registered type sorted by source, then ID.
func List() []Type {
	mu.RLock()
	defer mu.RUnlock()
	return listLocked()
}

func listLocked() []Type {
	out := make([]Type, 0, len(catalog))
	for _, t := range catalog {
		out = append(out, t)
	}
	sortTypes(out)
	return out
}

// ForSource returns the registered types of one source table.
func ForSource(src Source) []Type {
	var out []Type
	for _, t := range List() {
		if t.Source == src {
			out = append(out, t)
		}
	}
	return out
}

// Resolve turns a comma-separated selector into types. An empty selector
// selects every registered type.
func Resolve(selector string) ([]Type, error) {
	mu.RLock()
	defer mu.RUnlock()

	if strings.TrimSpace(selector) == "" {
		return listLocked(), nil
	}

	var selected []Type
	seen := make(map[string]struct{})
	for _, id := range strings.Split(selector, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		t, ok := catalog[id]
		if !ok {
			return nil, &UnknownCoefficientTypeError{Type: id}
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		selected = append(selected, t)
	}
	return selected, nil
}

func sortTypes(ts []Type) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].Source != ts[j].Source {
			return ts[i].Source < ts[j].Source
		}
		return ts[i].ID < ts[j].ID
	})
}
