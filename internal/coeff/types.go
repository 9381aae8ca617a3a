package coeff

import (
	"fmt"
	"strings"

	"ioimpact/internal/codes"
)

// Source tags which source table a coefficient (and a demand change) belongs to.
type Source string

const (
	// SourceIO is the conventional national input-output table.
	SourceIO Source = "io"
	// SourceHydrogen is the hydrogen value-chain coefficient table.
	SourceHydrogen Source = "hydrogen"
)

func ParseSource(raw string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "io", "conventional", "iotable", "io_table":
		return SourceIO, nil
	case "hydrogen", "h2":
		return SourceHydrogen, nil
	default:
		return "", fmt.Errorf("unsupported data source %q (must be one of: io, hydrogen)", raw)
	}
}

// Unit is the unit convention of a coefficient type.
type Unit string

const (
	// UnitMillion coefficients apply directly to demand changes in million
	// currency units.
	UnitMillion Unit = "million"
	// UnitPersonsPerBillion coefficients are persons per billion currency
	// units; demand changes arrive in millions and are divided by 1000.
	UnitPersonsPerBillion Unit = "persons_per_billion"
)

// Scale converts a demand change in million currency units into the unit the
// coefficient is expressed against.
func (u Unit) Scale(amount float64) float64 {
	if u == UnitPersonsPerBillion {
		return amount / 1000
	}
	return amount
}

// Type describes a coefficient type: which source table it belongs to, which
// code space its rows are indexed by and its unit convention.
type Type struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Source      Source          `json:"source"`
	RowKind     codes.IndexKind `json:"row_kind"`
	Unit        Unit            `json:"unit"`
}

// Employment reports whether the type counts persons rather than currency.
func (t Type) Employment() bool {
	return t.Unit == UnitPersonsPerBillion
}

const (
	TypeIndirectProd       = "indirect_prod"
	TypeIndirectImport     = "indirect_import"
	TypeValueAdded         = "value_added"
	TypeJobCreation        = "jobcoeff"
	TypeDirectEmployment   = "directemploycoeff"
	TypeH2IndirectProd     = "h2_indirect_prod"
	TypeH2IndirectImport   = "h2_indirect_import"
	TypeH2ValueAdded       = "h2_value_added"
	TypeH2JobCreation      = "h2_jobcoeff"
	TypeH2DirectEmployment = "h2_directemploycoeff"
)

func init() {
	builtin := []Type{
		{ID: TypeIndirectProd, Title: "Indirect Production", Description: "Production induced in each supplying sector (Leontief inverse column).", RowKind: codes.KindBasic, Unit: UnitMillion},
		{ID: TypeIndirectImport, Title: "Indirect Import", Description: "Imports induced in each sector.", RowKind: codes.KindBasic, Unit: UnitMillion},
		{ID: TypeValueAdded, Title: "Value-Added", Description: "Value added (GDP) induced in each sector.", RowKind: codes.KindBasic, Unit: UnitMillion},
		{ID: TypeJobCreation, Title: "Job Creation", Description: "Jobs induced per employment sub-sector (persons per billion).", RowKind: codes.KindSubSector, Unit: UnitPersonsPerBillion},
		{ID: TypeDirectEmployment, Title: "Direct Employment", Description: "Directly employed persons per employment sub-sector (persons per billion).", RowKind: codes.KindSubSector, Unit: UnitPersonsPerBillion},
	}
	for _, t := range builtin {
		t.Source = SourceIO
		Register(t)
	}

	hydrogen := []Type{
		{ID: TypeH2IndirectProd, Title: "Hydrogen Indirect Production", Description: "Production induced along the hydrogen value chain.", RowKind: codes.KindBasic, Unit: UnitMillion},
		{ID: TypeH2IndirectImport, Title: "Hydrogen Indirect Import", Description: "Imports induced along the hydrogen value chain.", RowKind: codes.KindBasic, Unit: UnitMillion},
		{ID: TypeH2ValueAdded, Title: "Hydrogen Value-Added", Description: "Value added induced along the hydrogen value chain.", RowKind: codes.KindBasic, Unit: UnitMillion},
		{ID: TypeH2JobCreation, Title: "Hydrogen Job Creation", Description: "Jobs induced per employment sub-sector by hydrogen demand (persons per billion).", RowKind: codes.KindSubSector, Unit: UnitPersonsPerBillion},
		{ID: TypeH2DirectEmployment, Title: "Hydrogen Direct Employment", Description: "Directly employed persons per sub-sector by hydrogen demand (persons per billion).", RowKind: codes.KindSubSector, Unit: UnitPersonsPerBillion},
	}
	for _, t := range hydrogen {
		t.Source = SourceHydrogen
		Register(t)
	}
}
