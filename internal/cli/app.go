package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"ioimpact/internal/coeff"
	"ioimpact/internal/config"
	"ioimpact/internal/loader"
	"ioimpact/internal/output"

	"github.com/fatih/color"
)

// app is the state shared by every command of one root.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	dataset *loader.Dataset
}

// context returns a context bounded by --timeout.
func (a *app) context(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, a.cfg.Runtime.Timeout)
}

// load reads the dataset on first use. Failures are fatal.
func (a *app) load(ctx context.Context) (*loader.Dataset, error) {
	if a.dataset != nil {
		return a.dataset, nil
	}
	path, err := a.cfg.RequireManifest()
	if err != nil {
		return nil, fatal(err)
	}
	ds, err := loader.LoadDataset(ctx, path, a.logger)
	if err != nil {
		return nil, fatal(fmt.Errorf("load dataset: %w", err))
	}
	a.dataset = ds
	return ds, nil
}

func (a *app) source() coeff.Source { return a.cfg.SourceTable() }

// sector normalizes one sector argument.
func (a *app) sector(raw string) string {
	return config.NormalizeSectorCode(raw, a.cfg.Analysis.PadWidth)
}

// sectors normalizes sector arguments; each may be a comma-separated list.
func (a *app) sectors(raw []string) []string {
	return config.NormalizeSectorCodes(raw, a.cfg.Analysis.PadWidth)
}

// typeOrDefault returns typeID, or the source's indirect production type
// when typeID is empty.
func (a *app) typeOrDefault(typeID string) string {
	typeID = strings.TrimSpace(typeID)
	if typeID != "" {
		return typeID
	}
	if a.source() == coeff.SourceHydrogen {
		return coeff.TypeH2IndirectProd
	}
	return coeff.TypeIndirectProd
}

// render writes v in the configured console format. Text output is the bold
// title, the table built by text and the footer lines.
func (a *app) render(w io.Writer, v any, title string, text func() *output.TextTable, footer ...string) error {
	switch a.cfg.Output.ConsoleFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "ndjson":
		return json.NewEncoder(w).Encode(v)
	}
	if title != "" {
		heading(w, "%s", title)
	}
	if err := text().Render(w); err != nil {
		return err
	}
	for _, line := range footer {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func heading(w io.Writer, format string, args ...any) {
	_, _ = color.New(color.Bold).Fprintf(w, format+"\n", args...)
}

func parseAmount(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, wrong(fmt.Errorf("invalid amount %q: must be a number", raw))
	}
	return v, nil
}
