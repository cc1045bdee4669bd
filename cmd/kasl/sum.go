package main

import (
	"github.com/spf13/cobra"
)

func newSumCmd() *cobra.Command {
	var month string
	var send, force bool
	cmd := &cobra.Command{
		Use:   "sum",
		Short: "Show (and optionally submit) a monthly summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, cleanup, err := buildFacade()
			if err != nil {
				return err
			}
			defer cleanup()

			rep, err := f.Sum(ctxBackground(), month, nil, send, force, nil)
			if err != nil {
				return err
			}
			printMonthlyReport(rep)
			if send {
				okColor.Println("sent")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "summary month (YYYY-MM)")
	cmd.Flags().BoolVar(&send, "send", false, "submit the summary to the configured report sink")
	cmd.Flags().BoolVar(&force, "force", false, "send even if below the productivity threshold")
	cmd.MarkFlagRequired("month")
	return cmd
}
