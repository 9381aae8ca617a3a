package codes

import "fmt"

// UnknownCodeError reports a code that is absent from the registry for the
// requested index kind.
type UnknownCodeError struct {
	Code string
	Kind IndexKind
	// Available is the number of codes registered for Kind. It helps tell a
	// wrong code apart from a wrong (empty) code table.
	Available int
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown %s code %q (%d %s codes registered)", e.Kind, e.Code, e.Available, e.Kind)
}
