package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ioimpact/internal/batch"
	"ioimpact/internal/codes"
	"ioimpact/internal/flags"
	"ioimpact/internal/impact"
	"ioimpact/internal/loader"
	"ioimpact/internal/metrics"
	"ioimpact/internal/output"

	"github.com/spf13/cobra"
)

const batchHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Schedule formats:
  YAML:
    scenarios:
      - id: baseline
        changes:
          - {source: io, sector: "0101", year: 2030, amount: 1000}

  CSV (header required):
    scenario_id,data_source,sector_code,year,amount

Exit codes:
  0  every cell succeeded
  2  some cells failed or the run timed out
  3  the schedule, dataset or outputs could not be processed
`

func newBatchCmd(a *app) *cobra.Command {
	var schedule string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run a demand-change schedule over every coefficient type",
		Long: `Run every demand change of a schedule under every applicable coefficient
type and write the long-form result table (one row per scenario, year,
sector, type and category).

A failing cell becomes one ERROR row and never stops the rest of the run.

Examples:
  ioimpact batch --schedule scenarios.yaml
  ioimpact batch --schedule scenarios.csv --types indirect_prod,jobcoeff --out results.xlsx
  ioimpact batch --schedule scenarios.yaml --no-console --emit ndjson --report report.md
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd, schedule)
		},
	}
	cmd.SetHelpTemplate(batchHelpTemplate)

	f := cmd.Flags()
	f.StringVar(&schedule, flags.FlagSchedule, "", "Demand-change schedule (.yaml, .yml or .csv)")
	_ = cmd.MarkFlagRequired(flags.FlagSchedule)
	f.StringSliceVar(&a.cfg.Analysis.Types, flags.FlagTypes, nil, "Coefficient types to compute (default: every type loaded for each change's source)")
	f.IntVar(&a.cfg.Runtime.Concurrency, flags.FlagConcurrency, a.cfg.Runtime.Concurrency, "Maximum number of cells computed at once")
	f.StringVar(&a.cfg.Output.Out, flags.FlagOut, "", "Write the result table to this file")
	f.StringVar(&a.cfg.Output.OutFormat, flags.FlagOutFormat, "", "Format for --out: json, ndjson, csv, xlsx (default: from the file extension)")
	f.StringVar(&a.cfg.Output.Report, flags.FlagReport, "", "Write a Markdown report to this file")
	f.StringVar(&a.cfg.Output.MetricsOut, flags.FlagMetricsOut, "", "Write Prometheus metrics in text format to this file")
	f.StringSliceVar(&a.cfg.Output.Emit, flags.FlagEmit, nil, "Emit structured events to stdout: json, ndjson")
	f.BoolVar(&a.cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress the console table")
	f.StringSliceVar(&a.cfg.Output.ConsoleFilterStatus, flags.FlagConsoleFilterStatus, nil, "Show only console rows with these statuses: OK, ERROR")
	return cmd
}

func (a *app) runBatch(cmd *cobra.Command, schedule string) error {
	changes, err := loader.LoadSchedule(strings.TrimSpace(schedule))
	if err != nil {
		return fatal(fmt.Errorf("load schedule: %w", err))
	}
	for i := range changes {
		changes[i].SectorCode = a.sector(changes[i].SectorCode)
	}

	ctx, cancel := a.context(cmd.Context())
	defer cancel()
	ds, err := a.load(ctx)
	if err != nil {
		return err
	}

	var reg *metrics.Registry
	opts := batch.Options{Concurrency: a.cfg.Runtime.Concurrency, Logger: a.logger}
	if a.cfg.Output.MetricsOut != "" {
		reg = metrics.NewRegistry()
		recordDataset(reg, ds)
		opts.Recorder = reg
	}
	proc, err := batch.NewProcessor(impact.NewCalculator(ds.Store), opts)
	if err != nil {
		return fatal(err)
	}

	mgr, err := a.sinks(cmd)
	if err != nil {
		return fatal(err)
	}

	start := time.Now()
	table, runErr := proc.Run(ctx, changes, a.cfg.Analysis.Types)
	code := batch.ExitCode(table, runErr)

	var outErr error
	if table != nil {
		outErr = mgr.WriteTable(table, len(changes), code)
	}
	outErr = errors.Join(outErr, mgr.Close())

	if reg != nil {
		rows := 0
		if table != nil {
			rows = len(table.Rows)
		}
		reg.RecordRun(code, rows, time.Since(start))
		outErr = errors.Join(outErr, reg.WriteTextfile(a.cfg.Output.MetricsOut))
	}

	switch {
	case outErr != nil:
		return fatal(errors.Join(runErr, outErr))
	case table == nil:
		return fatal(runErr)
	case code != ExitOK:
		return &ExitError{Code: code, Err: runErr}
	}
	return nil
}

// sinks builds the output manager for one batch run. Sinks already opened
// are closed when a later one fails.
func (a *app) sinks(cmd *cobra.Command) (_ *output.Manager, err error) {
	out := a.cfg.Output
	mgr := output.NewManager(output.NewRunID())
	defer func() {
		if err != nil {
			_ = mgr.Close()
		}
	}()

	add := func(s output.Sink, err error) error {
		if err != nil {
			return err
		}
		return mgr.AddSink(s)
	}

	if !out.NoConsole {
		if err := add(output.NewConsoleSink(cmd.OutOrStdout(), out.ConsoleFormat, out.ConsoleFilterStatus), nil); err != nil {
			return nil, err
		}
	}
	for _, format := range out.Emit {
		s, err := output.NewEmitSink(cmd.OutOrStdout(), format)
		if err := add(s, err); err != nil {
			return nil, err
		}
	}
	if out.Out != "" {
		s, err := output.NewFileSink(out.Out, out.OutFormat)
		if err := add(s, err); err != nil {
			return nil, err
		}
	}
	if out.Report != "" {
		s, err := output.NewReportSink(out.Report)
		if err := add(s, err); err != nil {
			return nil, err
		}
	}
	return mgr, nil
}

func recordDataset(reg *metrics.Registry, ds *loader.Dataset) {
	for _, src := range ds.Store.Sources() {
		for _, t := range ds.Store.Types(src) {
			m, err := ds.Store.Matrix(src, t.ID)
			if err != nil {
				continue
			}
			reg.SetDataset(string(src), t.ID, m.Len())
		}
	}
	reg.SetSectors(string(codes.KindBasic), len(ds.Registry.Sectors()))
	reg.SetSectors(string(codes.KindSubSector), len(ds.Registry.SubSectors()))
}
