package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ioimpact/internal/codes"
	"ioimpact/internal/coeff"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/sync/errgroup"
)

// Manifest describes where the tables of one dataset live. Relative paths
// are resolved against the manifest's directory.
//
//	[codes]
//	sectors = "sectors.csv"
//	sub_sectors = "sub_sectors.csv"
//	categories = "categories.csv"
//
//	[[matrices]]
//	type = "indirect_prod"
//	path = "coefficients.xlsx"
//	sheet = "indirect_prod"
//
//	[[vectors]]
//	name = "value_added"
//	path = "value_added.csv"
type Manifest struct {
	Codes    CodeTables  `toml:"codes"`
	Matrices []MatrixRef `toml:"matrices" validate:"dive"`
	Vectors  []VectorRef `toml:"vectors" validate:"dive"`
}

type CodeTables struct {
	Sectors    string `toml:"sectors" validate:"required"`
	SubSectors string `toml:"sub_sectors"`
	Categories string `toml:"categories" validate:"required"`
	// Sheet applies to every code table stored in a workbook.
	Sheet string `toml:"sheet"`
}

type MatrixRef struct {
	Type  string `toml:"type" validate:"required"`
	Path  string `toml:"path" validate:"required"`
	Sheet string `toml:"sheet"`
}

type VectorRef struct {
	Name  string `toml:"name" validate:"required"`
	Path  string `toml:"path" validate:"required"`
	Sheet string `toml:"sheet"`
}

// ReadManifest decodes and validates a manifest. Paths are left as written.
func ReadManifest(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := validateStruct(&m); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	seen := make(map[string]bool, len(m.Matrices))
	for _, ref := range m.Matrices {
		if _, err := coeff.Lookup(ref.Type); err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}
		if seen[ref.Type] {
			return nil, fmt.Errorf("manifest: coefficient type %s listed twice", ref.Type)
		}
		seen[ref.Type] = true
	}
	return &m, nil
}

// resolve rewrites relative paths against dir.
func (m *Manifest) resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	m.Codes.Sectors = abs(m.Codes.Sectors)
	m.Codes.SubSectors = abs(m.Codes.SubSectors)
	m.Codes.Categories = abs(m.Codes.Categories)
	for i := range m.Matrices {
		m.Matrices[i].Path = abs(m.Matrices[i].Path)
	}
	for i := range m.Vectors {
		m.Vectors[i].Path = abs(m.Vectors[i].Path)
	}
}

// Dataset is a loaded code registry with its coefficient store.
type Dataset struct {
	Registry *codes.Registry
	Store    *coeff.Store
	// Tables is the number of distinct tables parsed.
	Tables int64
}

// LoadDataset reads the manifest at path and every table it names. Tables
// are read concurrently; a workbook sheet shared by several entries is
// parsed once.
func LoadDataset(ctx context.Context, path string, logger *slog.Logger) (*Dataset, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	m, err := ReadManifest(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.resolve(filepath.Dir(path))

	reader := newTableReader()
	var (
		b        = codes.NewBuilder()
		sectors  *table
		subs     *table
		cats     *table
		matrices = make([]*coeff.Matrix, len(m.Matrices))
		vectors  = make([]*coeff.Vector, len(m.Vectors))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	g.Go(func() (err error) {
		sectors, err = reader.Read(gctx, m.Codes.Sectors, m.Codes.Sheet)
		return err
	})
	g.Go(func() (err error) {
		cats, err = reader.Read(gctx, m.Codes.Categories, m.Codes.Sheet)
		return err
	})
	if m.Codes.SubSectors != "" {
		g.Go(func() (err error) {
			subs, err = reader.Read(gctx, m.Codes.SubSectors, m.Codes.Sheet)
			return err
		})
	}
	for i, ref := range m.Matrices {
		i, ref := i, ref
		g.Go(func() error {
			typ, err := coeff.Lookup(ref.Type)
			if err != nil {
				return err
			}
			t, err := reader.Read(gctx, ref.Path, ref.Sheet)
			if err != nil {
				return err
			}
			mx, err := matrixFromTable(t, typ)
			if err != nil {
				return fmt.Errorf("matrix %s: %w", ref.Type, err)
			}
			matrices[i] = mx
			return nil
		})
	}
	for i, ref := range m.Vectors {
		i, ref := i, ref
		g.Go(func() error {
			t, err := reader.Read(gctx, ref.Path, ref.Sheet)
			if err != nil {
				return err
			}
			v, err := vectorFromTable(t, ref.Name)
			if err != nil {
				return fmt.Errorf("vector %s: %w", ref.Name, err)
			}
			vectors[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := errors.Join(
		addCategories(cats, b),
		addSectors(sectors, b),
	); err != nil {
		return nil, err
	}
	if subs != nil {
		if err := addSubSectors(subs, b); err != nil {
			return nil, err
		}
	}
	reg, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("code tables: %w", err)
	}
	store, err := coeff.NewStore(reg, matrices, vectors)
	if err != nil {
		return nil, fmt.Errorf("coefficients: %w", err)
	}

	logger.Info("dataset loaded",
		"manifest", path,
		"sectors", len(reg.Sectors()),
		"sub_sectors", len(reg.SubSectors()),
		"categories", len(reg.Categories()),
		"matrices", len(matrices),
		"vectors", len(vectors),
		"tables", reader.Reads(),
		"duration", time.Since(start),
	)
	return &Dataset{Registry: reg, Store: store, Tables: reader.Reads()}, nil
}
