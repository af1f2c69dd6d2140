package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCmd(a *app) *cobra.Command {
	var preferLocal bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile local tasks with the remote store",
		Long: `Fetch every remote row, pull rows the local file lacks, push local tasks the
remote lacks, and write the result. With --prefer-local=false, remote rows
overwrite differing local tasks.`,
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if !a.manager.RemoteActive() {
				return errors.New("no remote store available; set remote.driver and remote.dsn")
			}
			if !cmd.Flags().Changed("prefer-local") {
				preferLocal = a.cfg.PreferLocal
			}

			ctx, cancel := a.ctx(cmd)
			defer cancel()

			summary := a.manager.Sync(ctx, preferLocal)
			fmt.Fprintf(cmd.OutOrStdout(), "Sync %s: pushed %d, pulled %d, updated %d\n",
				summary.RunID, summary.Pushed, summary.Pulled, summary.Updated)
			if summary.Err != nil {
				return fmt.Errorf("sync incomplete: %w", summary.Err)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&preferLocal, "prefer-local", true, "keep local fields when a task differs (default from config)")
	return cmd
}
