package impact

import "fmt"

// InvalidAmountError reports a demand change that is not a finite number.
type InvalidAmountError struct {
	Sector string
	Amount float64
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid demand change %v for sector %q: amount must be finite", e.Amount, e.Sector)
}

// ConservationError reports category totals that do not add up to the
// impact vector they were built from.
type ConservationError struct {
	Type       string
	SectorCode string
	Expected   float64
	Got        float64
}

func (e *ConservationError) Error() string {
	return fmt.Sprintf("%s/%s: category totals sum to %g, impacts sum to %g", e.Type, e.SectorCode, e.Got, e.Expected)
}
