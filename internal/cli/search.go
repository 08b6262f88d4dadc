package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/empsearch/internal/resultset"
	"github.com/rshade/empsearch/internal/tui"
)

func newSearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a single employee search",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "name <name>",
			Short:   "Find employees whose name contains <name>",
			Example: "  empsearch search name 田",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runSearch(cmd, "name: "+args[0], func(ctx context.Context, s *Session) ([]resultset.Row, error) {
					return s.SearchByName(ctx, args[0])
				})
			},
		},
		&cobra.Command{
			Use:     "years <n>",
			Aliases: []string{"tenure"},
			Short:   "Find employees in their n-th year",
			Example: "  empsearch search years 3",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runSearch(cmd, "tenure: "+args[0], func(ctx context.Context, s *Session) ([]resultset.Row, error) {
					return s.SearchByTenure(ctx, args[0])
				})
			},
		},
	)
	return cmd
}

func (a *app) runSearch(
	cmd *cobra.Command,
	title string,
	search func(context.Context, *Session) ([]resultset.Row, error),
) error {
	ctx := cmd.Context()
	write, err := a.rowWriter()
	if err != nil {
		return err
	}
	return a.withSession(ctx, func(s *Session) error {
		rows, err := search(ctx, s)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if browse := a.browser(cmd); browse != nil && len(rows) > 0 {
			return browse(ctx, title, rows)
		}
		if len(rows) == 0 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), tui.InfoStyle.Render("No employees matched."))
			return nil
		}
		return write(cmd.OutOrStdout(), rows)
	})
}
