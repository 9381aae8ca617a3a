package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ioimpact/internal/coeff"
	"ioimpact/internal/impact"

	"gopkg.in/yaml.v3"
)

// Schedule is the YAML form of a demand-change schedule:
//
//	scenarios:
//	  - id: baseline
//	    changes:
//	      - {source: io, sector: "1201", year: 2030, amount: -500000}
type Schedule struct {
	Scenarios []ScenarioSpec `yaml:"scenarios" validate:"required,min=1,dive"`
}

type ScenarioSpec struct {
	ID      string       `yaml:"id" validate:"required"`
	Changes []ChangeSpec `yaml:"changes" validate:"required,min=1,dive"`
}

type ChangeSpec struct {
	Source string   `yaml:"source" validate:"required"`
	Sector string   `yaml:"sector" validate:"required"`
	Year   int      `yaml:"year" validate:"gte=0"`
	Amount *float64 `yaml:"amount" validate:"required"`
}

// ReadScheduleYAML decodes and validates a YAML schedule. Changes keep their
// file order, scenario by scenario.
func ReadScheduleYAML(r io.Reader) ([]impact.DemandChange, error) {
	var s Schedule
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("schedule is empty")
		}
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	if err := validateStruct(&s); err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}

	var out []impact.DemandChange
	for _, sc := range s.Scenarios {
		for i, ch := range sc.Changes {
			src, err := coeff.ParseSource(ch.Source)
			if err != nil {
				return nil, fmt.Errorf("scenario %s change %d: %w", sc.ID, i+1, err)
			}
			out = append(out, impact.DemandChange{
				ScenarioID: sc.ID,
				Year:       ch.Year,
				Source:     src,
				SectorCode: strings.TrimSpace(ch.Sector),
				Amount:     *ch.Amount,
			})
		}
	}
	return out, nil
}

// ReadScheduleCSV reads `scenario_id,data_source,sector_code,year,amount`
// rows.
func ReadScheduleCSV(r io.Reader, path string) ([]impact.DemandChange, error) {
	t, err := readCSV(r, path)
	if err != nil {
		return nil, err
	}
	if err := t.require("scenario_id", "data_source", "sector_code", "amount"); err != nil {
		return nil, err
	}
	out := make([]impact.DemandChange, 0, len(t.records))
	for _, rec := range t.records {
		src, err := coeff.ParseSource(t.get(rec, "data_source"))
		if err != nil {
			return nil, t.rowErr(rec, "%v", err)
		}
		sector := t.get(rec, "sector_code")
		if sector == "" {
			return nil, t.rowErr(rec, "sector_code is required")
		}
		var year int
		if raw := t.get(rec, "year"); raw != "" {
			year, err = strconv.Atoi(raw)
			if err != nil {
				return nil, t.rowErr(rec, "year: %q is not an integer", raw)
			}
		}
		amount, err := t.float(rec, "amount")
		if err != nil {
			return nil, err
		}
		out = append(out, impact.DemandChange{
			ScenarioID: t.get(rec, "scenario_id"),
			Year:       year,
			Source:     src,
			SectorCode: sector,
			Amount:     amount,
		})
	}
	return out, nil
}

// LoadSchedule reads a schedule file, choosing the format by extension.
func LoadSchedule(path string) ([]impact.DemandChange, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReadScheduleYAML(f)
	case ".csv":
		return ReadScheduleCSV(f, path)
	default:
		return nil, fmt.Errorf("%s: unsupported schedule format (use .yaml or .csv)", path)
	}
}
