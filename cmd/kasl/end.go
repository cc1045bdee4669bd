package main

import (
	"github.com/spf13/cobra"
)

func newEndCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "Close today's workday immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, cleanup, err := buildFacade()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := f.End(ctxBackground()); err != nil {
				return err
			}
			okColor.Println("workday closed")
			return nil
		},
	}
}
