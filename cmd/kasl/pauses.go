package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newPausesCmd() *cobra.Command {
	var date string
	var minDuration int
	cmd := &cobra.Command{
		Use:   "pauses",
		Short: "List a workday's pauses",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, cleanup, err := buildFacade()
			if err != nil {
				return err
			}
			defer cleanup()

			if date == "" {
				date = time.Now().Format("2006-01-02")
			}

			pauses, err := f.Pauses(ctxBackground(), date, time.Duration(minDuration)*time.Second)
			if err != nil {
				return err
			}
			for _, p := range pauses {
				end := fmt.Sprintf("(open, started %s)", humanize.Time(p.Start))
				var dur time.Duration
				if p.End != nil {
					end = p.End.Format("15:04:05")
				}
				if p.Duration != nil {
					dur = time.Duration(*p.Duration) * time.Second
				}
				fmt.Printf("  %s - %s  %s\n", p.Start.Format("15:04:05"), end, dur)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "workday date (YYYY-MM-DD), defaults to today")
	cmd.Flags().IntVar(&minDuration, "min-duration", 0, "only show pauses at least this many seconds long")
	return cmd
}
