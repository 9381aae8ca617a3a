package loader

import (
	"strings"

	"ioimpact/internal/codes"
)

// addSectors reads `code,name,category_code` rows.
func addSectors(t *table, b *codes.Builder) error {
	if err := t.require("code", "category_code"); err != nil {
		return err
	}
	for _, rec := range t.records {
		b.AddSector(codes.Sector{
			Code:         t.get(rec, "code"),
			Name:         t.get(rec, "name"),
			CategoryCode: t.get(rec, "category_code"),
		})
	}
	return nil
}

// addSubSectors reads `code,name,category_code,parent_codes` rows; parents
// are separated by semicolons.
func addSubSectors(t *table, b *codes.Builder) error {
	if err := t.require("code", "category_code", "parent_codes"); err != nil {
		return err
	}
	for _, rec := range t.records {
		var parents []string
		for _, p := range strings.Split(t.get(rec, "parent_codes"), ";") {
			if p = strings.TrimSpace(p); p != "" {
				parents = append(parents, p)
			}
		}
		b.AddSubSector(codes.SubSector{
			Code:         t.get(rec, "code"),
			Name:         t.get(rec, "name"),
			CategoryCode: t.get(rec, "category_code"),
			ParentCodes:  parents,
		})
	}
	return nil
}

// addCategories reads `code,name` rows.
func addCategories(t *table, b *codes.Builder) error {
	if err := t.require("code", "name"); err != nil {
		return err
	}
	for _, rec := range t.records {
		b.AddCategory(codes.Category{Code: t.get(rec, "code"), Name: t.get(rec, "name")})
	}
	return nil
}
