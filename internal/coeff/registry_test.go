package coeff

import (
	"testing"

	"ioimpact/internal/codes"
)

func TestCatalog_Builtins(t *testing.T) {
	tests := []struct {
		id     string
		source Source
		kind   codes.IndexKind
		unit   Unit
	}{
		{TypeIndirectProd, SourceIO, codes.KindBasic, UnitMillion},
		{TypeValueAdded, SourceIO, codes.KindBasic, UnitMillion},
		{TypeJobCreation, SourceIO, codes.KindSubSector, UnitPersonsPerBillion},
		{TypeDirectEmployment, SourceIO, codes.KindSubSector, UnitPersonsPerBillion},
		{TypeH2IndirectImport, SourceHydrogen, codes.KindBasic, UnitMillion},
		{TypeH2JobCreation, SourceHydrogen, codes.KindSubSector, UnitPersonsPerBillion},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			typ, err := Lookup(tt.id)
			if err != nil {
				t.Fatalf("Lookup(%q): %v", tt.id, err)
			}
			if typ.Source != tt.source || typ.RowKind != tt.kind || typ.Unit != tt.unit {
				t.Fatalf("got %+v", typ)
			}
		})
	}

	if got := len(List()); got != 10 {
		t.Fatalf("expected 10 built-in types, got %d", got)
	}
	if got := len(ForSource(SourceHydrogen)); got != 5 {
		t.Fatalf("expected 5 hydrogen types, got %d", got)
	}
}

func TestResolve(t *testing.T) {
	all, err := Resolve("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != len(List()) {
		t.Fatalf("empty selector should select every type")
	}

	got, err := Resolve(" value_added, indirect_prod ,value_added,")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != TypeValueAdded || got[1].ID != TypeIndirectProd {
		t.Fatalf("unexpected selection: %+v", got)
	}

	if _, err := Resolve("indirect_prod,nope"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestRegister_PanicsOnDuplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	Register(Type{ID: TypeIndirectProd, Source: SourceIO, RowKind: codes.KindBasic})
}

func TestUnit_Scale(t *testing.T) {
	if got := UnitMillion.Scale(1500); got != 1500 {
		t.Fatalf("million scale: got %v", got)
	}
	if got := UnitPersonsPerBillion.Scale(1500); got != 1.5 {
		t.Fatalf("persons per billion scale: got %v", got)
	}
}

func TestParseSource(t *testing.T) {
	for raw, want := range map[string]Source{"io": SourceIO, " H2 ": SourceHydrogen, "hydrogen": SourceHydrogen} {
		got, err := ParseSource(raw)
		if err != nil || got != want {
			t.Fatalf("ParseSource(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseSource("coal"); err == nil {
		t.Fatalf("expected error")
	}
}
