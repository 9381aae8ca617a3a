package codes

import (
	"fmt"
	"strings"
)

// IndexKind identifies which code space a code belongs to.
//
// Basic-sector and sub-sector codes are disjoint code spaces that can collide
// numerically, so every lookup takes an explicit IndexKind. It is never
// inferred from the shape of a code.
type IndexKind string

const (
	KindBasic     IndexKind = "basic"
	KindSubSector IndexKind = "subsector"
)

func (k IndexKind) Valid() bool {
	return k == KindBasic || k == KindSubSector
}

func (k IndexKind) String() string {
	return string(k)
}

// ParseIndexKind accepts the canonical names plus a few spellings used in
// dataset manifests ("sub-sector", "sub_sector").
func ParseIndexKind(raw string) (IndexKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "basic", "sector", "basic-sector", "basic_sector":
		return KindBasic, nil
	case "subsector", "sub-sector", "sub_sector":
		return KindSubSector, nil
	default:
		return "", fmt.Errorf("unsupported index kind %q (must be one of: basic, subsector)", raw)
	}
}
