package flags

// Package flags defines canonical CLI flag names shared across the CLI and
// config packages. Keeping these as constants avoids drift between Cobra flag
// wiring and code that names flags in messages.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Analysis.Source, flags.FlagSource, "io", "...")
//	arg := "--" + flags.FlagSource
const (
	// Data
	FlagData = "data"

	// Analysis
	FlagSource      = "source"
	FlagTypes       = "types"
	FlagType        = "type"
	FlagAmount      = "amount"
	FlagAmounts     = "amounts"
	FlagPad         = "pad"
	FlagThreshold   = "threshold"
	FlagTop         = "top"
	FlagAggregation = "agg"
	FlagDirection   = "direction"
	FlagTables      = "tables"
	FlagOutputs     = "outputs"
	FlagInputs      = "inputs"
	FlagMin         = "min"
	FlagMax         = "max"
	FlagKind        = "kind"
	FlagSchedule    = "schedule"

	// Output
	FlagConsoleFormat       = "console-format"
	FlagConsoleFilterStatus = "console-filter-status"
	FlagReport              = "report"
	FlagOut                 = "out"
	FlagOutFormat           = "out-format"
	FlagEmit                = "emit"
	FlagNoConsole           = "no-console"
	FlagMetricsOut          = "metrics-out"

	// Runtime
	FlagConcurrency = "concurrency"
	FlagTimeout     = "timeout"
	FlagVerbose     = "verbose"
)
