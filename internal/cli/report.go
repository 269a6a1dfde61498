package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/punchclock/internal/export"
	"github.com/sadopc/punchclock/internal/report"
	"github.com/sadopc/punchclock/internal/store"
	"github.com/sadopc/punchclock/internal/timecalc"
)

var (
	reportType   string
	reportDate   string
	reportStart  string
	reportEnd    string
	reportFormat string
	reportOut    string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarise completed sessions for a day, week or month",
	Example: `  punchclock report --type weekly
  punchclock report --type monthly --date 2024-03-01 --format csv --out march.csv`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	addRangeFlags(reportCmd, &reportType, &reportDate, &reportStart, &reportEnd)
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "table", "table, csv or json")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "write to a file instead of stdout")
}

func addRangeFlags(c *cobra.Command, typ, date, start, end *string) {
	c.Flags().StringVarP(typ, "type", "t", string(store.ReportDaily), "daily, weekly or monthly")
	c.Flags().StringVar(date, "date", "", "any day inside the period (default today)")
	c.Flags().StringVar(start, "start", "", "first day, YYYY-MM-DD (requires --end)")
	c.Flags().StringVar(end, "end", "", "last day, YYYY-MM-DD (requires --start)")
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	typ := store.ReportType(reportType)
	start, end, err := reportRange(ctx, typ, reportDate, reportStart, reportEnd)
	if err != nil {
		return err
	}
	rep, err := app.reports.Generate(ctx, userFlag, typ, start, end)
	if err != nil {
		return err
	}

	if reportOut != "" {
		switch reportFormat {
		case "csv":
			err = export.ToCSV(rep, reportOut)
		case "json":
			err = export.ToJSON(rep, reportOut)
		default:
			return fmt.Errorf("--out needs --format csv or json")
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %s\n", len(rep.Entries), reportOut)
		return nil
	}

	out := cmd.OutOrStdout()
	switch reportFormat {
	case "csv":
		return export.WriteCSV(out, rep)
	case "json":
		return export.WriteJSON(out, rep)
	case "table":
		printReport(out, rep)
		return nil
	}
	return fmt.Errorf("unknown format %q (use table, csv or json)", reportFormat)
}

var (
	reportHeader = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	reportCell   = lipgloss.NewStyle().Padding(0, 1)
)

func printReport(w io.Writer, rep *report.Report) {
	fmt.Fprintf(w, "%s report %s (%s to %s, %s)\n\n", rep.Type, rep.Label, rep.StartDate, rep.EndDate, rep.Timezone)
	if len(rep.Entries) == 0 {
		fmt.Fprintln(w, "No completed sessions in this period.")
		return
	}

	loc, err := time.LoadLocation(rep.Timezone)
	if err != nil {
		loc = time.UTC
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return reportHeader
			}
			return reportCell
		}).
		Headers("#", "Date", "Start", "End", "Breaks", "Net work")
	for _, r := range rep.Entries {
		t.Row(
			strconv.FormatInt(r.ID, 10),
			r.Date,
			r.StartTime.In(loc).Format("15:04"),
			r.EndTime.In(loc).Format("15:04"),
			timecalc.FormatDuration(r.Breaks),
			timecalc.FormatDuration(r.NetWork),
		)
	}
	fmt.Fprintln(w, t.Render())

	s := rep.Summary
	fmt.Fprintf(w, "\nTotal net work:  %s\n", timecalc.FormatDuration(s.TotalNetWork))
	fmt.Fprintf(w, "Total breaks:    %s\n", timecalc.FormatDuration(s.TotalBreaks))
	fmt.Fprintf(w, "Days worked:     %d\n", s.DaysWorked)
	fmt.Fprintf(w, "Daily average:   %s\n", timecalc.FormatDuration(s.AverageDailyWork))
}

var (
	shareType   string
	shareDate   string
	shareStart  string
	shareEnd    string
	shareDays   int
	shareFormat string
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Manage report share links",
}

var shareIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Create a share token for a report period",
	Args:  cobra.NoArgs,
	RunE:  runShareIssue,
}

var shareResolveCmd = &cobra.Command{
	Use:   "resolve <token>",
	Short: "Show the report behind a share token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		shared, err := app.reports.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if shareFormat == "json" {
			return export.WriteJSON(cmd.OutOrStdout(), shared.Report)
		}
		printReport(cmd.OutOrStdout(), shared.Report)
		return nil
	},
}

var shareRevokeCmd = &cobra.Command{
	Use:   "revoke <token>",
	Short: "Delete a share token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.reports.Revoke(cmd.Context(), args[0], userFlag); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Share revoked")
		return nil
	},
}

var shareListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List your share tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		shares, err := app.reports.List(cmd.Context(), userFlag)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(shares) == 0 {
			fmt.Fprintln(out, "No shares.")
			return nil
		}
		now := app.clock.Now()
		for _, sh := range shares {
			fmt.Fprintf(out, "%s  %-7s %s..%s  %s\n", sh.ShareToken, sh.ReportType,
				sh.StartDate.Format(dateLayout), sh.EndDate.Format(dateLayout), expiry(sh, now))
		}
		return nil
	},
}

func init() {
	addRangeFlags(shareIssueCmd, &shareType, &shareDate, &shareStart, &shareEnd)
	shareIssueCmd.Flags().IntVar(&shareDays, "days", 0, "lifetime in days, 0 = never expires (default from settings)")
	shareResolveCmd.Flags().StringVarP(&shareFormat, "format", "f", "table", "table or json")

	shareCmd.AddCommand(shareIssueCmd)
	shareCmd.AddCommand(shareResolveCmd)
	shareCmd.AddCommand(shareRevokeCmd)
	shareCmd.AddCommand(shareListCmd)
}

func runShareIssue(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	typ := store.ReportType(shareType)
	start, end, err := reportRange(ctx, typ, shareDate, shareStart, shareEnd)
	if err != nil {
		return err
	}
	days := shareDays
	if !cmd.Flags().Changed("days") {
		us, err := app.tracker.GetSettings(ctx, userFlag)
		if err != nil {
			return err
		}
		days = us.ShareDurationDays
	}

	sh, err := app.reports.Issue(ctx, userFlag, typ, start, end, days)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, sh.ShareToken)
	fmt.Fprintf(out, "%s report %s..%s, %s\n", sh.ReportType,
		sh.StartDate.Format(dateLayout), sh.EndDate.Format(dateLayout), expiry(*sh, app.clock.Now()))
	return nil
}

func expiry(sh store.SharedReport, now time.Time) string {
	switch {
	case sh.ExpiresAt == nil:
		return "never expires"
	case sh.Expired(now):
		return "expired " + sh.ExpiresAt.Local().Format("2006-01-02 15:04")
	}
	return "expires " + sh.ExpiresAt.Local().Format("2006-01-02 15:04")
}
