package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/empsearch/internal/db"
	"github.com/rshade/empsearch/internal/tui"
)

func newDBCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}

	var clearCache bool
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Create the employees and posts tables and load sample data",
		Long: "Creates the employees and posts tables if they do not exist and replaces their contents " +
			"with the sample employees. Cached results computed from earlier data are not invalidated " +
			"unless --clear-cache is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return a.withSession(ctx, func(s *Session) error {
				if err := s.Seed(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(),
					tui.OKStyle.Render(fmt.Sprintf("Seeded %d employees.", len(db.SampleEmployees()))))
				if !clearCache {
					return nil
				}
				report, err := s.ClearCache(ctx)
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), tui.RenderClearReport(report))
				return err
			})
		},
	}
	seed.Flags().BoolVar(&clearCache, "clear-cache", false, "also clear the query cache")

	cmd.AddCommand(seed)
	return cmd
}
