package batch

import (
	"errors"
	"fmt"
	"strings"

	"ioimpact/internal/coeff"
	"ioimpact/internal/impact"
)

// Plan is the cross product of demand changes and coefficient types.
type Plan struct {
	Cells []Cell
}

// Cell is one (demand change, coefficient type) computation.
type Cell struct {
	// Index is the cell's position in the plan.
	Index int
	// ChangeIndex is the position of Change in the input schedule.
	ChangeIndex int
	Change      impact.DemandChange
	TypeID      string
}

// NoTablesError reports a demand change whose source table has no coefficient
// matrices loaded, so no type applies to it.
type NoTablesError struct {
	Source coeff.Source
}

func (e *NoTablesError) Error() string {
	return fmt.Sprintf("no coefficient tables loaded for the %q table", e.Source)
}

// NewPlan expands changes into cells. An empty typeIDs selects, per change,
// every type loaded for that change's source. Explicit types are planned for
// every change regardless of source, so a mismatch surfaces as an error row.
func NewPlan(store *coeff.Store, changes []impact.DemandChange, typeIDs []string) (*Plan, error) {
	if store == nil {
		return nil, errors.New("coefficient store is nil")
	}
	selected := dedupe(typeIDs)

	p := &Plan{}
	for i, ch := range changes {
		ids := selected
		if len(ids) == 0 {
			for _, t := range store.Types(ch.Source) {
				ids = append(ids, t.ID)
			}
			if len(ids) == 0 {
				// Planned as a single cell that fails with NoTablesError.
				ids = []string{""}
			}
		}
		for _, id := range ids {
			p.Cells = append(p.Cells, Cell{Index: len(p.Cells), ChangeIndex: i, Change: ch, TypeID: id})
		}
	}
	return p, nil
}

func dedupe(ids []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
