package cli

import (
	"errors"
	"fmt"
	"strconv"

	"ioimpact/internal/flags"
	"ioimpact/internal/impact"
	"ioimpact/internal/output"

	"github.com/spf13/cobra"
)

func newImpactCmd(a *app) *cobra.Command {
	var typeID string
	cmd := &cobra.Command{
		Use:   "impact SECTOR AMOUNT",
		Short: "Compute the per-sector impact of one demand change",
		Long: `Compute the impact vector of a final-demand change in one basic sector.

AMOUNT is in million currency units; pass negative amounts after "--".
Employment types (jobcoeff, directemploycoeff and their hydrogen counterparts)
count persons and are expressed per billion; the amount is converted
automatically.

Examples:
  ioimpact impact 0101 1000 --type indirect_prod
  ioimpact --source h2 impact 101 --type h2_jobcoeff -- -250
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			ds, err := a.load(ctx)
			if err != nil {
				return err
			}

			calc := impact.NewCalculator(ds.Store)
			res, err := calc.ComputeImpact(a.source(), a.typeOrDefault(typeID), a.sector(args[0]), amount)
			if err != nil {
				return wrong(err)
			}

			title := fmt.Sprintf("%s impact of %s in %s (%s)", res.Type, output.FormatNumber(amount), res.SectorCode, res.Source)
			return a.render(cmd.OutOrStdout(), res, title, func() *output.TextTable {
				t := &output.TextTable{Headers: []string{"CODE", "NAME", "IMPACT"}, Right: map[int]bool{2: true}}
				for _, si := range res.Impacts {
					name, _ := ds.Registry.LookupName(si.Code, res.RowKind)
					t.Append(si.Code, name, output.FormatNumber(si.Value))
				}
				return t
			}, "", "Total: "+output.FormatNumber(res.Total()))
		},
	}
	cmd.Flags().StringVar(&typeID, flags.FlagType, "", "Coefficient type (default: the source's indirect production type)")
	return cmd
}

func newAggregateCmd(a *app) *cobra.Command {
	var typeID string
	cmd := &cobra.Command{
		Use:   "aggregate SECTOR AMOUNT",
		Short: "Compute an impact and roll it up into categories",
		Long: `Compute the impact of a demand change and sum it per category.

Each row code is resolved in the code space of the coefficient type: basic
sectors for production, import and value-added types, employment sub-sectors
for employment types.

Examples:
  ioimpact aggregate 0101 1000 --type jobcoeff
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			ds, err := a.load(ctx)
			if err != nil {
				return err
			}

			agg, err := impact.NewCalculator(ds.Store).ComputeByCategory(a.source(), a.typeOrDefault(typeID), a.sector(args[0]), amount)
			if err != nil {
				return wrong(err)
			}

			title := fmt.Sprintf("%s impact of %s in %s by category", agg.Type, output.FormatNumber(amount), agg.SectorCode)
			return a.render(cmd.OutOrStdout(), agg, title, func() *output.TextTable {
				return categoryTable(agg)
			}, "", "Total: "+output.FormatNumber(agg.Total()))
		},
	}
	cmd.Flags().StringVar(&typeID, flags.FlagType, "", "Coefficient type (default: the source's indirect production type)")
	return cmd
}

func categoryTable(agg impact.Aggregated) *output.TextTable {
	t := &output.TextTable{Headers: []string{"CATEGORY", "NAME", "CODES", "IMPACT"}, Right: map[int]bool{2: true, 3: true}}
	for _, ct := range agg.Totals {
		t.Append(ct.Code, ct.Name, strconv.Itoa(ct.Codes), output.FormatNumber(ct.Value))
	}
	return t
}

// allResult is the JSON shape of the all command.
type allResult struct {
	SectorCode string              `json:"sector_code"`
	Amount     float64             `json:"amount"`
	Results    []impact.Aggregated `json:"results"`
	Errors     []string            `json:"errors,omitempty"`
}

func newAllCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "all SECTOR AMOUNT",
		Short: "Compute a demand change under every loaded coefficient type",
		Long: `Compute a demand change under every coefficient type loaded for the
selected source table and show the category totals of each.

A type that cannot be computed for the sector is reported and skipped; the
command then exits with status 2.

Examples:
  ioimpact all 0101 1000
  ioimpact --source hydrogen all 0101 1000 --console-format json
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			ds, err := a.load(ctx)
			if err != nil {
				return err
			}

			sector := a.sector(args[0])
			results, computeErr := impact.NewCalculator(ds.Store).ComputeAll(a.source(), sector, amount)
			out := allResult{SectorCode: sector, Amount: amount}
			var errs []error
			if computeErr != nil {
				errs = append(errs, computeErr)
			}
			for _, r := range results {
				agg, err := impact.Aggregate(ds.Registry, r)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", r.Type, err))
					continue
				}
				out.Results = append(out.Results, agg)
			}
			joined := errors.Join(errs...)
			if joined != nil {
				out.Errors = append(out.Errors, joined.Error())
			}

			title := fmt.Sprintf("Impact of %s in %s (%s)", output.FormatNumber(amount), sector, a.source())
			err = a.render(cmd.OutOrStdout(), out, title, func() *output.TextTable {
				t := &output.TextTable{Headers: []string{"TYPE", "CATEGORY", "NAME", "IMPACT"}, Right: map[int]bool{3: true}}
				for _, agg := range out.Results {
					for _, ct := range agg.Totals {
						t.Append(agg.Type, ct.Code, ct.Name, output.FormatNumber(ct.Value))
					}
				}
				return t
			})
			if err != nil {
				return fatal(err)
			}

			switch {
			case joined == nil:
				return nil
			case len(out.Results) == 0:
				return wrong(joined)
			default:
				return partial(joined)
			}
		},
	}
	return cmd
}

func newCompareCmd(a *app) *cobra.Command {
	var (
		typeID    string
		amountRaw string
	)
	cmd := &cobra.Command{
		Use:   "compare SECTOR...",
		Short: "Rank sectors by the total impact of the same demand change",
		Long: `Apply the same demand change to several sectors and rank them by total
impact, largest first. Sectors that cannot be computed are listed last with
their error.

Examples:
  ioimpact compare 0101 0201 0301 --amount 1000 --type value_added
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(amountRaw)
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			ds, err := a.load(ctx)
			if err != nil {
				return err
			}

			sectors := a.sectors(args)
			cmp := impact.NewCalculator(ds.Store).CompareSectors(a.source(), a.typeOrDefault(typeID), sectors, amount)

			failed := 0
			for _, e := range cmp.Entries {
				if e.Err != nil {
					failed++
				}
			}
			title := fmt.Sprintf("%s impact of %s per sector", cmp.Type, output.FormatNumber(amount))
			err = a.render(cmd.OutOrStdout(), cmp, title, func() *output.TextTable {
				t := &output.TextTable{Headers: []string{"RANK", "SECTOR", "NAME", "TOTAL", "ROWS", "ERROR"}, Right: map[int]bool{0: true, 3: true, 4: true}}
				for i, e := range cmp.Entries {
					if e.Err != nil {
						t.Append("-", e.SectorCode, e.SectorName, "", "", e.Error)
						continue
					}
					t.Append(strconv.Itoa(i+1), e.SectorCode, e.SectorName, output.FormatNumber(e.Total), strconv.Itoa(e.Rows), "")
				}
				return t
			})
			if err != nil {
				return fatal(err)
			}

			switch {
			case failed == 0:
				return nil
			case failed == len(cmp.Entries):
				return wrong(errors.New("no sector could be computed"))
			default:
				return partial(fmt.Errorf("%d of %d sectors could not be computed", failed, len(cmp.Entries)))
			}
		},
	}
	cmd.Flags().StringVar(&typeID, flags.FlagType, "", "Coefficient type (default: the source's indirect production type)")
	cmd.Flags().StringVar(&amountRaw, flags.FlagAmount, "", "Demand change in million currency units")
	_ = cmd.MarkFlagRequired(flags.FlagAmount)
	return cmd
}

func newSensitivityCmd(a *app) *cobra.Command {
	var (
		typeID  string
		amounts []float64
	)
	cmd := &cobra.Command{
		Use:   "sensitivity SECTOR",
		Short: "Evaluate one sector under several demand changes",
		Long: `Evaluate the total impact of a sector for each demand change given with
--amounts. The impact ratio (total / amount) is constant because the model is
linear; it is 0 for a zero amount.

Examples:
  ioimpact sensitivity 0101 --amounts 100,1000,10000
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(amounts) == 0 {
				return wrong(fmt.Errorf("--%s needs at least one value", flags.FlagAmounts))
			}
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			ds, err := a.load(ctx)
			if err != nil {
				return err
			}

			typ := a.typeOrDefault(typeID)
			sector := a.sector(args[0])
			points, err := impact.NewCalculator(ds.Store).Sensitivity(a.source(), typ, sector, amounts)
			if err != nil {
				return wrong(err)
			}

			title := fmt.Sprintf("%s sensitivity of %s", typ, sector)
			return a.render(cmd.OutOrStdout(), points, title, func() *output.TextTable {
				t := &output.TextTable{Headers: []string{"AMOUNT", "TOTAL", "RATIO"}, Right: map[int]bool{0: true, 1: true, 2: true}}
				for _, p := range points {
					t.Append(output.FormatNumber(p.Amount), output.FormatNumber(p.Total), output.FormatNumber(p.Ratio))
				}
				return t
			})
		},
	}
	cmd.Flags().StringVar(&typeID, flags.FlagType, "", "Coefficient type (default: the source's indirect production type)")
	cmd.Flags().Float64SliceVar(&amounts, flags.FlagAmounts, nil, "Demand changes to evaluate (comma-separated)")
	_ = cmd.MarkFlagRequired(flags.FlagAmounts)
	return cmd
}
