package coeff

import (
	"fmt"
	"strings"
)

// UnknownSectorError reports a sector with no column in a coefficient matrix.
type UnknownSectorError struct {
	Type   string
	Source Source
	Sector string
}

func (e *UnknownSectorError) Error() string {
	return fmt.Sprintf("no %s coefficients for sector %q in the %s table", e.Type, e.Sector, e.Source)
}

// UnknownCoefficientTypeError reports a coefficient type that is not in the
// catalog, or (NotLoaded) one that is known but has no table in the store.
type UnknownCoefficientTypeError struct {
	Type      string
	NotLoaded bool
}

func (e *UnknownCoefficientTypeError) Error() string {
	if e.NotLoaded {
		return fmt.Sprintf("coefficient type %q has no table loaded", e.Type)
	}
	return fmt.Sprintf("unknown coefficient type %q", e.Type)
}

// IncompatibleCoefficientError reports a coefficient type requested against a
// data source it does not belong to.
type IncompatibleCoefficientError struct {
	Type       string
	TypeSource Source
	Source     Source
	Sector     string
}

func (e *IncompatibleCoefficientError) Error() string {
	if e.Sector != "" {
		return fmt.Sprintf("coefficient type %q belongs to the %s table and cannot be applied to %s sector %q", e.Type, e.TypeSource, e.Source, e.Sector)
	}
	return fmt.Sprintf("coefficient type %q belongs to the %s table, not %s", e.Type, e.TypeSource, e.Source)
}

// DimensionMismatchError reports a matrix or vector whose shape does not fit
// the operation, e.g. a non-square matrix handed to linkage analysis.
type DimensionMismatchError struct {
	Name    string
	Rows    int
	Cols    int
	Missing []string
	Reason  string
}

func (e *DimensionMismatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: dimension mismatch (%d rows x %d columns)", e.Name, e.Rows, e.Cols)
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if len(e.Missing) > 0 {
		const maxShown = 5
		shown := e.Missing
		if len(shown) > maxShown {
			shown = shown[:maxShown]
		}
		fmt.Fprintf(&b, " (missing: %s", strings.Join(shown, ", "))
		if len(e.Missing) > maxShown {
			fmt.Fprintf(&b, " and %d more", len(e.Missing)-maxShown)
		}
		b.WriteString(")")
	}
	return b.String()
}
