package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/punchclock/internal/tracker"
)

var (
	entryStart   string
	entryEnd     string
	entryBreaks  []string
	entryReplace bool
	entryLimit   int
)

var entriesCmd = &cobra.Command{
	Use:     "entries",
	Aliases: []string{"entry"},
	Short:   "List and edit recorded time entries",
}

var entriesListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recent entries, newest first",
	Args:  cobra.NoArgs,
	RunE:  runEntriesList,
}

var entriesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a past work session",
	Example: `  punchclock entries add --start "2024-03-11 09:00" --end 17:30 --break 12:00..12:30
  punchclock entries add --start 09:00 --end 13:00`,
	Args: cobra.NoArgs,
	RunE: runEntriesAdd,
}

var entriesEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change the window of a completed entry, optionally replacing its breaks",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntriesEdit,
}

var entriesRemoveCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete an entry and its breaks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := app.tracker.DeleteEntry(cmd.Context(), userFlag, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry #%d\n", id)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{entriesAddCmd, entriesEditCmd} {
		c.Flags().StringVar(&entryStart, "start", "", "start time (HH:MM, YYYY-MM-DD HH:MM or RFC 3339)")
		c.Flags().StringVar(&entryEnd, "end", "", "end time; HH:MM is taken on the start date")
		c.Flags().StringArrayVar(&entryBreaks, "break", nil, "break as START..END, repeatable")
	}
	entriesAddCmd.MarkFlagRequired("start")
	entriesAddCmd.MarkFlagRequired("end")
	entriesEditCmd.Flags().BoolVar(&entryReplace, "replace-breaks", false, "delete existing breaks before adding --break ones")
	entriesListCmd.Flags().IntVarP(&entryLimit, "limit", "n", 20, "number of entries to show")

	entriesCmd.AddCommand(entriesListCmd)
	entriesCmd.AddCommand(entriesAddCmd)
	entriesCmd.AddCommand(entriesEditCmd)
	entriesCmd.AddCommand(entriesRemoveCmd)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// entryInput builds the window and the --break rows. base anchors a bare
// clock time in rawStart; end and breaks are anchored on the start date.
func entryInput(rawStart, rawEnd string, loc *time.Location, base time.Time) (tracker.EntryInput, error) {
	var in tracker.EntryInput
	start, err := parseWhen(rawStart, base, loc)
	if err != nil {
		return in, err
	}
	in.StartTime = &start
	if rawEnd != "" {
		end, err := parseWhen(rawEnd, start, loc)
		if err != nil {
			return in, err
		}
		in.EndTime = &end
	}
	for _, raw := range entryBreaks {
		b, err := parseBreak(raw, start, loc)
		if err != nil {
			return in, err
		}
		in.Breaks = append(in.Breaks, b)
	}
	return in, nil
}

func runEntriesAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	loc, err := app.tracker.Location(ctx, userFlag)
	if err != nil {
		return err
	}
	in, err := entryInput(entryStart, entryEnd, loc, app.clock.Now())
	if err != nil {
		return err
	}
	entry, err := app.tracker.CreateManualEntry(ctx, userFlag, in)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Added", entryLine(*entry, loc, app.clock.Now()))
	return nil
}

func runEntriesEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	loc, err := app.tracker.Location(ctx, userFlag)
	if err != nil {
		return err
	}
	current, err := app.tracker.Entry(ctx, userFlag, id)
	if err != nil {
		return err
	}

	rawStart, rawEnd := entryStart, entryEnd
	if rawStart == "" {
		rawStart = current.StartTime.In(loc).Format(time.RFC3339)
	}
	if rawEnd == "" && current.EndTime != nil {
		rawEnd = current.EndTime.In(loc).Format(time.RFC3339)
	}
	in, err := entryInput(rawStart, rawEnd, loc, current.StartTime)
	if err != nil {
		return err
	}
	if entryReplace {
		for _, b := range current.Breaks {
			in.Breaks = append(in.Breaks, tracker.BreakInput{ID: b.ID, Deleted: true})
		}
	}

	entry, err := app.tracker.UpdateManualEntry(ctx, userFlag, id, in)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Updated", entryLine(*entry, loc, app.clock.Now()))
	return nil
}

func runEntriesList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	loc, err := app.tracker.Location(ctx, userFlag)
	if err != nil {
		return err
	}
	entries, err := app.tracker.RecentEntries(ctx, userFlag, entryLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No entries yet.")
		return nil
	}
	now := app.clock.Now()
	for _, e := range entries {
		fmt.Fprintln(out, entryLine(e, loc, now))
	}
	return nil
}
