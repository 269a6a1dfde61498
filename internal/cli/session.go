package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/punchclock/internal/timecalc"
	"github.com/sadopc/punchclock/internal/tracker"
)

var statusJSON bool

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a work session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		entry, err := app.tracker.Start(cmd.Context(), userFlag)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Started work session #%d at %s\n", entry.ID, entry.StartTime.Local().Format("15:04:05"))
		return nil
	},
}

var breakCmd = &cobra.Command{
	Use:   "break",
	Short: "Start a break in the active session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		b, err := app.tracker.StartBreak(cmd.Context(), userFlag)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Break started at %s\n", b.StartTime.Local().Format("15:04:05"))
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "End the current break",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		b, err := app.tracker.EndBreak(cmd.Context(), userFlag)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Back to work after %s\n",
			timecalc.FormatDuration(timecalc.Duration(b.StartTime, b.EndTime)))
		return nil
	},
}

var endCmd = &cobra.Command{
	Use:   "end",
	Short: "End the active work session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		entry, err := app.tracker.End(cmd.Context(), userFlag)
		if err != nil {
			return err
		}
		live := tracker.LiveView(entry, *entry.EndTime)
		fmt.Fprintf(cmd.OutOrStdout(), "Ended work session #%d: %s worked, %s on break\n",
			entry.ID, timecalc.FormatDuration(live.Working), timecalc.FormatDuration(live.TotalBreaks))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session state",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the session as JSON")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	sess, err := app.tracker.ActiveState(cmd.Context(), userFlag)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if statusJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sess)
	}

	if sess.Entry == nil {
		fmt.Fprintln(out, "Status: idle")
		return nil
	}
	fmt.Fprintf(out, "Status:   %s\n", sess.Status)
	fmt.Fprintf(out, "Started:  %s\n", sess.Entry.StartTime.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Elapsed:  %s\n", timecalc.FormatDurationHHMMSS(sess.Live.Elapsed))
	fmt.Fprintf(out, "Breaks:   %s (%d)\n", timecalc.FormatDurationHHMMSS(sess.Live.TotalBreaks), len(sess.Breaks))
	if sess.ActiveBreak != nil {
		fmt.Fprintf(out, "On break: %s\n", timecalc.FormatDurationHHMMSS(sess.Live.CurrentBreak))
	}
	fmt.Fprintf(out, "Working:  %s\n", timecalc.FormatDurationHHMMSS(sess.Live.Working))
	return nil
}
