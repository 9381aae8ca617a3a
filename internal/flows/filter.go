package flows

import (
	"path"
	"strings"
)

// Filter selects flows. Empty fields select everything. Outputs and Inputs
// are shell patterns (path.Match) matched against sector codes and names.
type Filter struct {
	Tables  []string
	Outputs []string
	Inputs  []string
	Min     *float64
	Max     *float64
}

// Apply returns the flows matching every set criterion.
func (f Filter) Apply(flows []Flow) []Flow {
	var out []Flow
	for _, fl := range flows {
		if len(f.Tables) > 0 && !containsTrimmed(f.Tables, fl.Table) {
			continue
		}
		if len(f.Outputs) > 0 && !matchesAnyPattern(f.Outputs, fl.Output, fl.OutputName) {
			continue
		}
		if len(f.Inputs) > 0 && !matchesAnyPattern(f.Inputs, fl.Input, fl.InputName) {
			continue
		}
		if f.Min != nil && fl.Value < *f.Min {
			continue
		}
		if f.Max != nil && fl.Value > *f.Max {
			continue
		}
		out = append(out, fl)
	}
	return out
}

func containsTrimmed(list []string, s string) bool {
	for _, v := range list {
		if strings.TrimSpace(v) == s {
			return true
		}
	}
	return false
}

func matchesAnyPattern(patterns []string, code, name string) bool {
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if ok, _ := path.Match(p, code); ok {
			return true
		}
		if name != "" {
			if ok, _ := path.Match(p, name); ok {
				return true
			}
		}
	}
	return false
}
