package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lacodda/kasl/internal/report"
)

func newReportCmd() *cobra.Command {
	var date string
	var month string
	var last bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show a daily or monthly work report",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, cleanup, err := buildFacade()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := ctxBackground()

			if month != "" {
				rep, err := f.MonthlyReport(ctx, month, nil)
				if err != nil {
					return err
				}
				printMonthlyReport(rep)
				return nil
			}

			if date == "" {
				if last {
					date = time.Now().AddDate(0, 0, -1).Format("2006-01-02")
				} else {
					date = time.Now().Format("2006-01-02")
				}
			}

			rep, err := f.Report(ctx, date)
			if err != nil {
				return err
			}
			printReport(rep)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "report date (YYYY-MM-DD), defaults to today")
	cmd.Flags().BoolVar(&last, "last", false, "report on yesterday instead of today")
	cmd.Flags().StringVar(&month, "month", "", "monthly report (YYYY-MM) instead of a daily one")
	return cmd
}

func printMonthlyReport(rep *report.MonthlyReport) {
	fmt.Printf("Month: %s  Total net: %s  Productivity: %.1f%%\n", rep.YearMonth, rep.TotalNet, rep.Productivity)
	for _, d := range rep.Days {
		if d.IsRestDay {
			fmt.Printf("  %s  rest day\n", d.Date)
			continue
		}
		fmt.Printf("  %s  %s  %.1f%%\n", d.Date, d.Net, d.Productivity)
	}
}
