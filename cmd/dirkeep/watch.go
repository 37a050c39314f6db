package main

import (
	"log/slog"

	"github.com/openmined/dirkeep/internal/config"
	"github.com/openmined/dirkeep/internal/daemon"
	"github.com/openmined/dirkeep/internal/emptydir"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newWatchCmd())
}

func newWatchCmd() *cobra.Command {
	var sweep bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the project and reconcile markers as files change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			d, err := daemon.New(s.cfg, s.logger,
				daemon.WithSweep(sweep),
				daemon.WithResultHandler(func(res *emptydir.Result) {
					if res.Created+res.Removed > 0 {
						s.logger.Info("markers changed", "batch", res.BatchID, "created", res.Created, "removed", res.Removed)
					}
				}),
			)
			if err != nil {
				return err
			}

			defer slog.Info("Bye!")
			return d.Start(cmd.Context())
		},
	}

	cmd.Flags().Duration("batch-window", config.DefaultBatchWindow, "quiet period before a batch of events is reconciled")
	cmd.Flags().BoolVar(&sweep, "sweep", false, "reconcile every tracked directory once before watching")

	return cmd
}
