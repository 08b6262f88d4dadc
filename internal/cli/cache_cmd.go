package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/empsearch/internal/tui"
)

const statsBoxWidth = 60

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the query-result cache",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every cached query result",
			Long:  "Removes every cache entry from the cache directory. Files that are not cache entries are left in place.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				rc, err := OpenCache(a.cfg, a.logger)
				if err != nil {
					return err
				}
				report, err := rc.ClearAll(cmd.Context())
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), tui.RenderClearReport(report))
				return err
			},
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Show the number and total size of cached results",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				rc, err := OpenCache(a.cfg, a.logger)
				if err != nil {
					return err
				}
				stats, err := rc.Stats()
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), tui.RenderStats(rc.Dir(), stats, statsBoxWidth))
				return nil
			},
		},
	)
	return cmd
}
