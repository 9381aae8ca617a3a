package cli

import (
	"context"
	"errors"
	"fmt"

	"ioimpact/internal/flags"
	"ioimpact/internal/linkage"
	"ioimpact/internal/output"

	"github.com/spf13/cobra"
)

// analyzer builds the linkage analyzer over the selected source's indirect
// production matrix.
func (a *app) analyzer(ctx context.Context) (*linkage.Analyzer, error) {
	ds, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	an, err := linkage.FromStore(ds.Store, a.source())
	if err != nil {
		return nil, wrong(err)
	}
	return an, nil
}

func linkageTable(records []linkage.Record, threshold *float64) *output.TextTable {
	t := &output.TextTable{
		Headers: []string{"SECTOR", "NAME", "BACKWARD", "FORWARD", "BACKWARD_NORM", "FORWARD_NORM"},
		Right:   map[int]bool{2: true, 3: true, 4: true, 5: true},
	}
	if threshold != nil {
		t.Headers = append(t.Headers, "KEY")
	}
	for _, r := range records {
		cells := []string{r.SectorCode, r.SectorName,
			output.FormatNumber(r.Backward), output.FormatNumber(r.Forward),
			output.FormatNumber(r.BackwardNormalized), output.FormatNumber(r.ForwardNormalized)}
		if threshold != nil {
			key := ""
			if r.IsKeySector(*threshold) {
				key = "yes"
			}
			cells = append(cells, key)
		}
		t.Append(cells...)
	}
	return t
}

func newLinkagesCmd(a *app) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "linkages",
		Short: "Show backward and forward linkages of every sector",
		Long: `Show the backward (column mean) and forward (row mean) linkage of every
basic sector of the indirect production matrix, raw and normalized by the
cross-sector mean. Sectors are ranked by combined normalized linkage.

Examples:
  ioimpact linkages --top 10
  ioimpact --source h2 linkages --console-format json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if top < 0 {
				return wrong(fmt.Errorf("--%s must be >= 0", flags.FlagTop))
			}
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			an, err := a.analyzer(ctx)
			if err != nil {
				return err
			}

			table := an.Linkages()
			ranked := &linkage.Table{
				Records:     table.Ranked(top),
				AvgBackward: table.AvgBackward,
				AvgForward:  table.AvgForward,
			}
			return a.render(cmd.OutOrStdout(), ranked, fmt.Sprintf("Linkages (%s)", a.source()), func() *output.TextTable {
				return linkageTable(ranked.Records, nil)
			}, "", fmt.Sprintf("Mean backward: %s  Mean forward: %s",
				output.FormatNumber(table.AvgBackward), output.FormatNumber(table.AvgForward)))
		},
	}
	cmd.Flags().IntVar(&top, flags.FlagTop, 0, "Show only the top N sectors (0 shows all)")
	return cmd
}

func newMultipliersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "multipliers SECTOR...",
		Short: "Show output, value-added and employment multipliers",
		Long: `Show the column multipliers of one or more sectors. The value-added and
employment multipliers need the value_added and employment vectors in the
dataset manifest and are shown as "-" otherwise.

Examples:
  ioimpact multipliers 0101 0201
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			an, err := a.analyzer(ctx)
			if err != nil {
				return err
			}

			var (
				out  []linkage.Multipliers
				errs []error
			)
			for _, sector := range a.sectors(args) {
				m, err := an.Multipliers(sector)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				out = append(out, m)
			}
			if len(out) == 0 {
				return wrong(errors.Join(errs...))
			}

			footer := []string{""}
			for _, m := range out {
				for _, line := range []string{m.Interpretation.Output, m.Interpretation.ValueAdded, m.Interpretation.Employment} {
					if line != "" {
						footer = append(footer, m.SectorCode+": "+line)
					}
				}
			}
			err = a.render(cmd.OutOrStdout(), out, fmt.Sprintf("Multipliers (%s)", a.source()), func() *output.TextTable {
				t := &output.TextTable{
					Headers: []string{"SECTOR", "NAME", "OUTPUT", "VALUE_ADDED", "EMPLOYMENT"},
					Right:   map[int]bool{2: true, 3: true, 4: true},
				}
				for _, m := range out {
					t.Append(m.SectorCode, m.SectorName, output.FormatNumber(m.Output), optional(m.ValueAdded), optional(m.Employment))
				}
				return t
			}, footer...)
			if err != nil {
				return fatal(err)
			}
			if len(errs) > 0 {
				return partial(errors.Join(errs...))
			}
			return nil
		},
	}
	return cmd
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return output.FormatNumber(*v)
}

func newKeySectorsCmd(a *app) *cobra.Command {
	var threshold float64
	cmd := &cobra.Command{
		Use:   "key-sectors",
		Short: "Identify sectors whose normalized linkages both exceed a threshold",
		Long: `Identify key sectors: sectors whose normalized backward and forward
linkages both strictly exceed --threshold. The threshold is required; 1.0
compares every sector with the average.

Examples:
  ioimpact key-sectors --threshold 1
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			an, err := a.analyzer(ctx)
			if err != nil {
				return err
			}

			ks, err := an.KeySectors(threshold)
			if err != nil {
				return wrong(err)
			}
			s := ks.Summary
			return a.render(cmd.OutOrStdout(), ks, fmt.Sprintf("Key sectors above %s (%s)", output.FormatNumber(threshold), a.source()), func() *output.TextTable {
				return linkageTable(ks.Sectors, &threshold)
			}, "", fmt.Sprintf("%d key, %d backward-only, %d forward-only, %d weak", s.Key, s.BackwardOnly, s.ForwardOnly, s.Weak))
		},
	}
	cmd.Flags().Float64Var(&threshold, flags.FlagThreshold, 0, "Normalized linkage threshold (required)")
	_ = cmd.MarkFlagRequired(flags.FlagThreshold)
	return cmd
}
