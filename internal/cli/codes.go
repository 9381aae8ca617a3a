package cli

import (
	"fmt"
	"io"
	"strings"

	"ioimpact/internal/codes"
	"ioimpact/internal/coeff"
	"ioimpact/internal/flags"
	"ioimpact/internal/output"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newSectorsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sectors",
		Short: "List and search sector codes",
		Long: `List and search the sector classifications of the dataset.

Basic sectors index demand changes and the rows of production, import and
value-added tables. Employment sub-sectors index the rows of employment
tables. Use --kind to choose the code space.

Examples:
  ioimpact sectors list
  ioimpact sectors list --kind subsector
  ioimpact sectors find Steel
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newSectorsListCmd(a), newSectorsFindCmd(a), newCategoriesCmd(a))
	return cmd
}

func newSectorsListCmd(a *app) *cobra.Command {
	var kindRaw string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the sectors of one code space",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := codes.ParseIndexKind(kindRaw)
			if err != nil {
				return wrong(err)
			}
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			ds, err := a.load(ctx)
			if err != nil {
				return err
			}

			if kind == codes.KindSubSector {
				subs := ds.Registry.SubSectors()
				return a.render(cmd.OutOrStdout(), subs, "Employment sub-sectors", func() *output.TextTable {
					t := &output.TextTable{Headers: []string{"CODE", "NAME", "CATEGORY", "PARENTS"}}
					for _, s := range subs {
						t.Append(s.Code, s.Name, s.CategoryCode, strings.Join(s.ParentCodes, ","))
					}
					return t
				}, "", fmt.Sprintf("%d sub-sector(s)", len(subs)))
			}
			sectors := ds.Registry.Sectors()
			return a.render(cmd.OutOrStdout(), sectors, "Basic sectors", func() *output.TextTable {
				t := &output.TextTable{Headers: []string{"CODE", "NAME", "CATEGORY"}}
				for _, s := range sectors {
					t.Append(s.Code, s.Name, s.CategoryCode)
				}
				return t
			}, "", fmt.Sprintf("%d sector(s)", len(sectors)))
		},
	}
	cmd.Flags().StringVar(&kindRaw, flags.FlagKind, string(codes.KindBasic), "Code space: basic or subsector")
	return cmd
}

func newSectorsFindCmd(a *app) *cobra.Command {
	var kindRaw string
	cmd := &cobra.Command{
		Use:   "find KEYWORD",
		Short: "Find sectors whose name contains a keyword",
		Long: `Find sectors whose name contains KEYWORD (case-sensitive substring).

Examples:
  ioimpact sectors find Steel
  ioimpact sectors find worker --kind subsector
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := codes.ParseIndexKind(kindRaw)
			if err != nil {
				return wrong(err)
			}
			if strings.TrimSpace(args[0]) == "" {
				return wrong(fmt.Errorf("keyword must not be empty"))
			}
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			ds, err := a.load(ctx)
			if err != nil {
				return err
			}

			matches := ds.Registry.Find(args[0], kind)
			if matches == nil {
				matches = []codes.Match{}
			}
			err = a.render(cmd.OutOrStdout(), matches, "", func() *output.TextTable {
				t := &output.TextTable{Headers: []string{"CODE", "NAME", "CATEGORY"}}
				for _, m := range matches {
					t.Append(m.Code, m.Name, m.CategoryCode)
				}
				return t
			}, "", fmt.Sprintf("%d match(es) for %q", len(matches), args[0]))
			if err != nil {
				return fatal(err)
			}
			if len(matches) == 0 {
				return &ExitError{Code: ExitWrong}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kindRaw, flags.FlagKind, string(codes.KindBasic), "Code space: basic or subsector")
	return cmd
}

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories sectors roll up into",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			ds, err := a.load(ctx)
			if err != nil {
				return err
			}
			cats := ds.Registry.Categories()
			return a.render(cmd.OutOrStdout(), cats, "Categories", func() *output.TextTable {
				t := &output.TextTable{Headers: []string{"CODE", "NAME"}}
				for _, c := range cats {
					t.Append(c.Code, c.Name)
				}
				return t
			})
		},
	}
}

func newTypesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List coefficient types",
		Long: `List the coefficient types known to this build.

A type names a coefficient table: the source table it belongs to, the code
space its rows are indexed by and its unit.

Examples:
  ioimpact types list
  ioimpact types list --source h2
  ioimpact types show jobcoeff
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newTypesListCmd(a), newTypesShowCmd())
	return cmd
}

func newTypesListCmd(a *app) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List coefficient types",
		Long: `List coefficient types sorted by source, then ID. Every type is listed
unless --source is given.

Output:
  A vertical list of types:
    ----------------------------------------
    TYPE: {ID}
    ----------------------------------------
    {TITLE}
    {DESCRIPTION}
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			types := coeff.List()
			if cmd.Flags().Changed(flags.FlagSource) {
				types = coeff.ForSource(a.source())
			}
			for _, t := range types {
				if quiet {
					fmt.Fprintln(cmd.OutOrStdout(), t.ID)
				} else {
					printType(cmd.OutOrStdout(), t)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print type IDs")
	return cmd
}

func newTypesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show TYPE",
		Short: "Show details of a coefficient type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := coeff.Lookup(strings.TrimSpace(args[0]))
			if err != nil {
				return wrong(err)
			}
			printType(cmd.OutOrStdout(), t)
			return nil
		},
	}
}

func printType(w io.Writer, t coeff.Type) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "TYPE: %s\n", t.ID)
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, t.Title)
	fmt.Fprintln(w, t.Description)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Source:   %s\n", t.Source)
	fmt.Fprintf(w, "  Rows:     %s\n", t.RowKind)
	fmt.Fprintf(w, "  Unit:     %s\n", t.Unit)
	fmt.Fprintln(w)
}
