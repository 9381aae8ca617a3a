package cli

import (
	"fmt"
	"strconv"

	"ioimpact/internal/coeff"
	"ioimpact/internal/flags"
	"ioimpact/internal/flows"
	"ioimpact/internal/output"

	"github.com/spf13/cobra"
)

type flowsResult struct {
	Direction string        `json:"direction"`
	Groups    []flows.Group `json:"groups"`
	Summary   flows.Summary `json:"summary"`
}

func newFlowsCmd(a *app) *cobra.Command {
	var (
		direction string
		tables    []string
		outputs   []string
		inputs    []string
		minValue  float64
		maxValue  float64
	)
	cmd := &cobra.Command{
		Use:   "flows",
		Short: "Group inter-sector flows forward or backward",
		Long: `Flatten the coefficient tables of the selected source into flows and group
them.

forward groups each output (buying) sector with the input sectors it buys
from; backward groups each input (supplying) sector with the output sectors
it supplies. Flows sharing a sector pair are combined with --agg.

--outputs and --inputs take shell patterns matched against sector codes and
names, e.g. "01*" or "*Steel*".

Examples:
  ioimpact flows --direction forward --tables indirect_prod --outputs "01*"
  ioimpact flows --direction backward --agg mean --min 0.01
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			agg := flows.Aggregation(a.cfg.Analysis.Aggregation)
			group := flows.Forward
			switch direction {
			case "forward":
			case "backward":
				group = flows.Backward
			default:
				return wrong(fmt.Errorf("unsupported --%s: %s (must be one of: forward, backward)", flags.FlagDirection, direction))
			}

			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			ds, err := a.load(ctx)
			if err != nil {
				return err
			}

			var matrices []*coeff.Matrix
			for _, t := range ds.Store.Types(a.source()) {
				m, err := ds.Store.Matrix(a.source(), t.ID)
				if err != nil {
					return fatal(err)
				}
				matrices = append(matrices, m)
			}
			if len(matrices) == 0 {
				return wrong(fmt.Errorf("no coefficient tables loaded for the %s table", a.source()))
			}

			filter := flows.Filter{Tables: tables, Outputs: outputs, Inputs: inputs}
			if cmd.Flags().Changed(flags.FlagMin) {
				filter.Min = &minValue
			}
			if cmd.Flags().Changed(flags.FlagMax) {
				filter.Max = &maxValue
			}
			selected := filter.Apply(flows.FromMatrices(ds.Registry, matrices...))
			groups, err := group(selected, agg)
			if err != nil {
				return wrong(err)
			}

			res := flowsResult{Direction: direction, Groups: groups, Summary: flows.Summarize(groups)}
			if res.Groups == nil {
				res.Groups = []flows.Group{}
			}
			s := res.Summary
			return a.render(cmd.OutOrStdout(), res, fmt.Sprintf("%s flows (%s, %s)", direction, a.source(), agg), func() *output.TextTable {
				t := &output.TextTable{
					Headers: []string{"SECTOR", "NAME", "PARTNER", "PARTNER_NAME", "VALUE", "COUNT"},
					Right:   map[int]bool{4: true, 5: true},
				}
				for _, g := range groups {
					t.Append(g.Sector, g.SectorName, g.Partner, g.PartnerName, output.FormatNumber(g.Value), strconv.Itoa(g.Count))
				}
				return t
			}, "", fmt.Sprintf("%d group(s), total %s, mean %s, max %s, min %s",
				s.Count, output.FormatNumber(s.Total), output.FormatNumber(s.Mean),
				output.FormatNumber(s.Max), output.FormatNumber(s.Min)))
		},
	}
	cmd.Flags().StringVar(&direction, flags.FlagDirection, "forward", "Grouping direction: forward or backward")
	cmd.Flags().StringVar(&a.cfg.Analysis.Aggregation, flags.FlagAggregation, a.cfg.Analysis.Aggregation, "Aggregation: sum, mean, median, max, min")
	cmd.Flags().StringSliceVar(&tables, flags.FlagTables, nil, "Coefficient types to include (default: every loaded type)")
	cmd.Flags().StringSliceVar(&outputs, flags.FlagOutputs, nil, "Output sector code or name patterns")
	cmd.Flags().StringSliceVar(&inputs, flags.FlagInputs, nil, "Input sector code or name patterns")
	cmd.Flags().Float64Var(&minValue, flags.FlagMin, 0, "Minimum flow value (inclusive)")
	cmd.Flags().Float64Var(&maxValue, flags.FlagMax, 0, "Maximum flow value (inclusive)")
	return cmd
}
