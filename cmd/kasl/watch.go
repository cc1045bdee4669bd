package main

import (
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var foreground, stop bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Start or stop the activity-tracking daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, cleanup, err := buildFacade()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := ctxBackground()
			if err := f.Watch(ctx, []string{"watch", "--foreground"}, foreground, stop); err != nil {
				return err
			}
			if stop {
				okColor.Println("daemon stopped")
			} else if !foreground {
				okColor.Println("daemon started")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&foreground, "foreground", false, "run in-process instead of spawning a background daemon")
	cmd.Flags().BoolVar(&stop, "stop", false, "stop the running daemon")
	return cmd
}
