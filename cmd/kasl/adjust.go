package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/lacodda/kasl/internal/kaslerr"
	"github.com/lacodda/kasl/internal/report"
)

func newAdjustCmd() *cobra.Command {
	var date, modeFlag, insertAtFlag string
	var minutes int
	cmd := &cobra.Command{
		Use:   "adjust",
		Short: "Manually trim a workday's start/end or insert a pause",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mode report.Mode
			switch modeFlag {
			case "start":
				mode = report.ModeTrimStart
			case "end":
				mode = report.ModeTrimEnd
			case "pause":
				mode = report.ModeInsertPause
			default:
				return kaslerr.New("adjust", kaslerr.InvariantViolation, nil)
			}

			var insertAt *time.Time
			if insertAtFlag != "" {
				t, err := time.Parse("2006-01-02 15:04:05", insertAtFlag)
				if err != nil {
					return err
				}
				insertAt = &t
			}

			f, cleanup, err := buildFacade()
			if err != nil {
				return err
			}
			defer cleanup()

			if date == "" {
				date = time.Now().Format("2006-01-02")
			}

			if err := f.Adjust(ctxBackground(), date, mode, minutes, insertAt); err != nil {
				return err
			}
			okColor.Println("adjustment applied")
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "workday date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&modeFlag, "mode", "", "one of: start, end, pause")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "minutes to trim or the inserted pause's duration")
	cmd.Flags().StringVar(&insertAtFlag, "at", "", "explicit pause start (\"2006-01-02 15:04:05\"), mode=pause only")
	cmd.MarkFlagRequired("mode")
	return cmd
}
