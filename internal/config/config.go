package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ioimpact/internal/coeff"
	"ioimpact/internal/flows"
)

// EnvData names the environment variable consulted when --data is not set.
const EnvData = "IOIMPACT_DATA"

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep the CLI
	// flags in internal/cli and the names in internal/flags in sync.
	Data     Data
	Analysis Analysis
	Output   Output
	Runtime  Runtime
}

type Data struct {
	// Manifest is the dataset manifest path (see --data). Falls back to
	// $IOIMPACT_DATA.
	Manifest string
}

type Analysis struct {
	// Source selects the source table (see --source).
	// Allowed values: io, hydrogen (h2 is accepted as an alias).
	Source string

	// Types lists coefficient types (see --types). Values may be provided as
	// repeated flags and/or comma-separated lists. Empty means every loaded
	// type of the source.
	Types []string

	// PadWidth left-pads numeric sector codes with zeros to this many
	// characters (see --pad). 0 disables padding.
	PadWidth int

	// Aggregation combines flows sharing a sector pair (see --agg).
	// Allowed values: sum, mean, median, max, min.
	Aggregation string
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// ConsoleFilterStatus filters console batch rows by status (see --console-filter-status).
	// Allowed values: OK, ERROR.
	ConsoleFilterStatus []string

	// Report writes a Markdown batch report to this path (see --report).
	Report string

	// Out writes the batch result table to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson, csv, xlsx. If empty, it is inferred from the --out file extension.
	OutFormat string

	// Emit writes an additional structured event stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool

	// MetricsOut writes batch metrics in Prometheus text format to this path (see --metrics-out).
	MetricsOut string
}

type Runtime struct {
	// Concurrency bounds how many batch cells are computed at once (see --concurrency).
	// Must be >= 1.
	Concurrency int

	// Timeout is the global timeout for the run (see --timeout).
	// Must be > 0.
	Timeout time.Duration

	// Verbose enables debug logging on stderr (see --verbose).
	Verbose bool
}

func New() *Config {
	return &Config{
		Analysis: Analysis{
			Source:      string(coeff.SourceIO),
			PadWidth:    4,
			Aggregation: string(flows.Sum),
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Concurrency: 4,
			Timeout:     10 * time.Minute,
		},
	}
}

func (c *Config) Validate() error {
	c.Data.Manifest = strings.TrimSpace(c.Data.Manifest)
	if c.Data.Manifest == "" {
		c.Data.Manifest = strings.TrimSpace(os.Getenv(EnvData))
	}

	// Analysis validation
	src, err := coeff.ParseSource(c.Analysis.Source)
	if err != nil {
		return fmt.Errorf("invalid --source value: %w", err)
	}
	c.Analysis.Source = string(src)
	c.Analysis.Types = splitCommaList(c.Analysis.Types)
	if c.Analysis.PadWidth < 0 {
		return errors.New("--pad must be >= 0")
	}
	agg, err := flows.ParseAggregation(c.Analysis.Aggregation)
	if err != nil {
		return fmt.Errorf("invalid --agg value: %w", err)
	}
	c.Analysis.Aggregation = string(agg)

	// Output validation
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, json, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	c.Output.ConsoleFilterStatus = splitCommaList(c.Output.ConsoleFilterStatus)
	for i, st := range c.Output.ConsoleFilterStatus {
		st = strings.ToUpper(st)
		if st != "OK" && st != "ERROR" {
			return fmt.Errorf("unsupported --console-filter-status: %s (must be one of: OK, ERROR)", st)
		}
		c.Output.ConsoleFilterStatus[i] = st
	}

	c.Output.Emit = splitCommaList(c.Output.Emit)
	for i, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", v)
		}
		c.Output.Emit[i] = v
	}

	// Runtime validation
	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson", ".jsonl":
				c.Output.OutFormat = "ndjson"
			case ".csv":
				c.Output.OutFormat = "csv"
			case ".xlsx":
				c.Output.OutFormat = "xlsx"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else {
			switch c.Output.OutFormat {
			case "json", "ndjson", "csv", "xlsx":
			default:
				return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
			}
		}
	}

	return nil
}

// RequireManifest reports a usable error when no dataset was named.
func (c *Config) RequireManifest() (string, error) {
	if c.Data.Manifest == "" {
		return "", fmt.Errorf("no dataset manifest: pass --data or set %s", EnvData)
	}
	return c.Data.Manifest, nil
}

// SourceTable returns the validated source table.
func (c *Config) SourceTable() coeff.Source {
	return coeff.Source(c.Analysis.Source)
}

// NormalizeSectorCode trims raw and, when it is all digits and shorter than
// width, left-pads it with zeros ("101" -> "0101" for width 4). Other codes
// are returned trimmed.
func NormalizeSectorCode(raw string, width int) string {
	code := strings.TrimSpace(raw)
	if code == "" || width <= 0 || len(code) >= width {
		return code
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return code
		}
	}
	return strings.Repeat("0", width-len(code)) + code
}

// NormalizeSectorCodes applies NormalizeSectorCode to a comma-expanded list.
func NormalizeSectorCodes(values []string, width int) []string {
	list := splitCommaList(values)
	for i, v := range list {
		list[i] = NormalizeSectorCode(v, width)
	}
	return list
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
