package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"ioimpact/internal/config"
	"ioimpact/internal/flags"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitWrong   = 1
	ExitPartial = 2
	ExitFatal   = 3
)

// ExitError carries the process exit code of a failed command. Err may be nil
// when everything worth saying was already printed.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func fatal(err error) error   { return &ExitError{Code: ExitFatal, Err: err} }
func wrong(err error) error   { return &ExitError{Code: ExitWrong, Err: err} }
func partial(err error) error { return &ExitError{Code: ExitPartial, Err: err} }

// ExitCode maps an error returned by a command to the process exit code.
// Errors that are not ExitErrors are usage errors reported by cobra.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitWrong
}

// NewRootCmd builds the command tree around a fresh configuration.
func NewRootCmd() *cobra.Command {
	a := &app{cfg: config.New()}

	root := &cobra.Command{
		Use:   "ioimpact",
		Short: "Compute input-output impacts, linkages and scenario batches",
		Long: `ioimpact computes the economic impact of final-demand changes from
input-output coefficient tables.

A dataset is described by a TOML manifest listing the sector code tables,
coefficient tables and multiplier vectors (see --data).

Examples:
	# Impact of a 1000 (million) demand increase in sector 0101
	ioimpact --data ./data/ioimpact.toml impact 101 1000 --type indirect_prod

	# Impact rolled up into categories
	ioimpact aggregate 0101 1000 --type jobcoeff

	# Key sectors of the hydrogen table
	ioimpact --source h2 key-sectors --threshold 1

	# Run a scenario schedule and write the result table
	ioimpact batch --schedule scenarios.yaml --out results.xlsx --report report.md

Environment:
	IOIMPACT_DATA names the dataset manifest when --data is not given.

Output:
	By default, commands write human-readable tables to stdout.
	Use --console-format json or ndjson for structured output.

Exit codes:
	0 success, 1 invalid input, 2 partial failure, 3 fatal error.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfg.Data.Manifest, flags.FlagData, "", "Dataset manifest (TOML). Defaults to $"+config.EnvData)
	pf.StringVar(&a.cfg.Analysis.Source, flags.FlagSource, a.cfg.Analysis.Source, "Source table: io or hydrogen (alias h2)")
	pf.IntVar(&a.cfg.Analysis.PadWidth, flags.FlagPad, a.cfg.Analysis.PadWidth, "Left-pad numeric sector codes with zeros to this width (0 disables)")
	pf.StringVar(&a.cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, a.cfg.Output.ConsoleFormat, "Console output format: text, json, ndjson")
	pf.DurationVar(&a.cfg.Runtime.Timeout, flags.FlagTimeout, a.cfg.Runtime.Timeout, "Global timeout for loading and computing")
	pf.BoolVar(&a.cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable debug logging on stderr")

	root.AddCommand(
		newImpactCmd(a),
		newAggregateCmd(a),
		newAllCmd(a),
		newCompareCmd(a),
		newSensitivityCmd(a),
		newLinkagesCmd(a),
		newMultipliersCmd(a),
		newKeySectorsCmd(a),
		newFlowsCmd(a),
		newBatchCmd(a),
		newSectorsCmd(a),
		newTypesCmd(a),
		newVersionCmd(),
	)
	root.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	root.SetVersionTemplate("{{.Version}}\n")
	return root
}

// setup validates the configuration and builds the logger. It runs before
// every subcommand.
func (a *app) setup(stderr io.Writer) error {
	if err := a.cfg.Validate(); err != nil {
		return fatal(err)
	}
	level := slog.LevelWarn
	if a.cfg.Runtime.Verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	err := NewRootCmd().Execute()
	if err != nil {
		var ee *ExitError
		if !errors.As(err, &ee) || ee.Err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	os.Exit(ExitCode(err))
}
