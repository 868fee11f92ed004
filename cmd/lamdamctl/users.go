package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newBlockInactiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block-inactive",
		Short: "Block annotators and correctors without recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, closeFn, err := openContainer()
			if err != nil {
				return err
			}
			defer closeFn()

			blocked, err := container.InactivityService.BlockInactive(cmd.Context())
			if err != nil {
				return err
			}
			if len(blocked) == 0 {
				color.Green("No inactive users found")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Name", "Email", "Role", "Last Activity"})
			for _, u := range blocked {
				last := "never"
				if u.LastActivity != nil {
					last = u.LastActivity.Format(time.RFC3339)
				}
				t.AppendRow(table.Row{u.Id, u.Name, u.Email, u.Role, last})
			}
			t.Render()

			color.Yellow("Blocked %d user(s)", len(blocked))
			return nil
		},
	}
	return cmd
}

func newStatsCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print per collection status counts and the organisation series of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, closeFn, err := openContainer()
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := container.StatsService.OrgStats(cmd.Context(), date)
			if err != nil {
				return err
			}

			cols := table.NewWriter()
			cols.SetOutputMirror(cmd.OutOrStdout())
			cols.SetStyle(table.StyleLight)
			cols.AppendHeader(table.Row{"Collection", "Type", "Pending", "Approved", "Rejected", "Total"})
			for _, c := range res.Collections {
				cols.AppendRow(table.Row{c.Name, c.DataType, c.Pending, c.Approved, c.Rejected, c.Total})
			}
			cols.Render()

			days := table.NewWriter()
			days.SetOutputMirror(cmd.OutOrStdout())
			days.SetStyle(table.StyleLight)
			days.SetTitle(fmt.Sprintf("%s (daily target %d)", res.Series.Period, res.Series.DailyTarget))
			days.AppendHeader(table.Row{"Date", "Pending", "Approved", "Rejected", "Total", "Achieved"})
			for _, d := range res.Series.Days {
				achieved := color.RedString("no")
				if d.IsAchieved {
					achieved = color.GreenString("yes")
				}
				days.AppendRow(table.Row{d.Date, d.Pending, d.Approved, d.Rejected, d.Total, achieved})
			}
			days.AppendFooter(table.Row{"", "", "", "", res.Series.Summary.TotalRecords,
				fmt.Sprintf("%d/%d", res.Series.Summary.DaysAchieved, res.Series.Summary.DaysAchieved+res.Series.Summary.DaysNotAchieved)})
			days.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Any date inside the month to report (YYYY-MM-DD), defaults to the current month")
	return cmd
}
